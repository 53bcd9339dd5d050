package models

import (
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

const (
	JobStatusPending    = "pending"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

const (
	JobTypeEnrichBackfill = "enrich_backfill"
	JobTypeEnrichBook     = "enrich_book"
)

type Job struct {
	bun.BaseModel `bun:"table:jobs,alias:j"`

	ID         int         `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	Type       string      `bun:",nullzero" json:"type"`
	Status     string      `bun:",nullzero" json:"status"`
	Data       string      `bun:",nullzero" json:"-"`
	DataParsed interface{} `bun:"-" json:"data"`
	Progress   int         `json:"progress"`
	ProcessID  *string     `json:"process_id,omitempty"`
}

func (job *Job) UnmarshalData() error {
	switch job.Type {
	case JobTypeEnrichBackfill:
		job.DataParsed = &JobEnrichBackfillData{}
	case JobTypeEnrichBook:
		job.DataParsed = &JobEnrichBookData{}
	default:
		return errors.Errorf("unknown job type %q", job.Type)
	}

	err := json.Unmarshal([]byte(job.Data), job.DataParsed)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// JobEnrichBackfillData configures a sweep over books that are missing a
// cover, a page count or a description.
type JobEnrichBackfillData struct {
	Limit int `json:"limit,omitempty"`
}

// JobEnrichBookData enriches a single book in the background, carrying the
// identifiers the caller knew about at ingestion time.
type JobEnrichBookData struct {
	BookID                int    `json:"book_id"`
	ISBN                  string `json:"isbn,omitempty"`
	GoogleBooksID         string `json:"google_books_id,omitempty"`
	OpenLibraryWorkKey    string `json:"openlibrary_work_key,omitempty"`
	OpenLibraryEditionKey string `json:"openlibrary_edition_key,omitempty"`
}

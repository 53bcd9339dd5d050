package models

import (
	"time"

	"github.com/lectiohq/lectio/pkg/display"
	"github.com/uptrace/bun"
)

// Book is the canonical, deduplicated record for one work/edition. Rows are
// only ever improved: a good value is never replaced by an absent or bad one.
type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID                    int        `bun:",pk,nullzero" json:"id"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
	Title                 string     `bun:",nullzero" json:"title"`
	Author                *string    `json:"author"`
	ISBN                  *string    `bun:"isbn" json:"isbn"`
	GoogleBooksID         *string    `bun:"google_books_id" json:"google_books_id"`
	OpenLibraryWorkKey    *string    `bun:"openlibrary_work_key" json:"openlibrary_work_key"`
	OpenLibraryEditionKey *string    `bun:"openlibrary_edition_key" json:"openlibrary_edition_key"`
	OpenLibraryCoverID    *int       `bun:"openlibrary_cover_id" json:"openlibrary_cover_id"`
	TotalPages            *int       `json:"total_pages"`
	Description           *string    `json:"description"`
	CoverURL              *string    `bun:"cover_url" json:"cover_url"`
	EnrichedAt            *time.Time `json:"enriched_at"`
}

// HasCover is true when the book has a usable cover URL or an OpenLibrary
// cover id a URL can be derived from.
func (b *Book) HasCover() bool {
	if b.OpenLibraryCoverID != nil && *b.OpenLibraryCoverID > 0 {
		return true
	}
	return b.CoverURL != nil && !display.IsBadCoverURL(*b.CoverURL)
}

// HasPages is true when a strictly positive page count is known.
func (b *Book) HasPages() bool {
	return b.TotalPages != nil && *b.TotalPages > 0
}

// DescriptionLength returns the description length in characters.
func (b *Book) DescriptionLength() int {
	if b.Description == nil {
		return 0
	}
	return len([]rune(*b.Description))
}

func (b *Book) DisplayFields() display.Fields {
	f := display.Fields{Title: b.Title}
	if b.Author != nil {
		f.Author = *b.Author
	}
	return f
}

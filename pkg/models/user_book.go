package models

import (
	"time"

	"github.com/lectiohq/lectio/pkg/display"
	"github.com/uptrace/bun"
)

const (
	ReadingStatusToRead   = "to_read"
	ReadingStatusReading  = "reading"
	ReadingStatusFinished = "finished"
)

// UserBook links a user to a canonical Book. Custom fields override the
// book's title/author for display when the canonical value is a placeholder.
type UserBook struct {
	bun.BaseModel `bun:"table:user_books,alias:ub"`

	ID           int       `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	UserID       string    `bun:",nullzero" json:"user_id"`
	BookID       int       `bun:",nullzero" json:"book_id"`
	Book         *Book     `bun:"rel:belongs-to" json:"book,omitempty"`
	Status       string    `bun:",nullzero" json:"status"`
	CurrentPage  int       `json:"current_page"`
	CustomTitle  *string   `json:"custom_title"`
	CustomAuthor *string   `json:"custom_author"`
}

func (ub *UserBook) DisplayFields() display.Fields {
	var f display.Fields
	if ub.Book != nil {
		f = ub.Book.DisplayFields()
	}
	if ub.CustomTitle != nil {
		f.CustomTitle = *ub.CustomTitle
	}
	if ub.CustomAuthor != nil {
		f.CustomAuthor = *ub.CustomAuthor
	}
	return f
}

package books

import (
	"github.com/lectiohq/lectio/pkg/incoming"
)

type ListBooksQuery struct {
	Limit   int  `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset  int  `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Missing bool `query:"missing" json:"missing,omitempty"`
}

type ListUserBooksQuery struct {
	Limit  int `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset int `query:"offset" json:"offset,omitempty" validate:"min=0"`
}

// EnsureBookPayload carries exactly one of Raw, Manual or Barcode. Raw is the
// record as the source API returned it; Source says how to read it.
type EnsureBookPayload struct {
	Source  string                 `json:"source" mod:"trim,lcase" validate:"omitempty,oneof=google openlibrary manual barcode unknown"`
	Raw     map[string]interface{} `json:"raw,omitempty"`
	Manual  *ManualBookPayload     `json:"manual,omitempty"`
	Barcode string                 `json:"barcode,omitempty" mod:"trim" validate:"isbn"`

	UserID       string  `json:"user_id,omitempty" mod:"trim" validate:"max=200"`
	Status       string  `json:"status,omitempty" validate:"omitempty,oneof=to_read reading finished"`
	CustomTitle  *string `json:"custom_title,omitempty" mod:"trim" validate:"omitempty,max=300"`
	CustomAuthor *string `json:"custom_author,omitempty" mod:"trim" validate:"omitempty,max=300"`

	// Enrich queues a background enrichment job for the book.
	Enrich bool `json:"enrich,omitempty"`
}

type ManualBookPayload struct {
	Title       string `json:"title" mod:"trim" validate:"required,max=300"`
	Author      string `json:"author" mod:"trim" validate:"max=300"`
	ISBN        string `json:"isbn" mod:"trim" validate:"isbn"`
	Pages       int    `json:"pages" validate:"min=0,max=100000"`
	CoverURL    string `json:"cover_url" mod:"trim" validate:"httpurl"`
	Description string `json:"description" validate:"max=20000"`
}

func (p ManualBookPayload) form() incoming.ManualForm {
	return incoming.ManualForm{
		Title:       p.Title,
		Author:      p.Author,
		ISBN:        p.ISBN,
		Pages:       p.Pages,
		CoverURL:    p.CoverURL,
		Description: p.Description,
	}
}

// KeyQuery describes a record through query parameters, for key derivation.
type KeyQuery struct {
	Source         string `query:"source" json:"source,omitempty"`
	SourceID       string `query:"source_id" json:"source_id,omitempty"`
	BookKey        string `query:"book_key" json:"book_key,omitempty"`
	Title          string `query:"title" json:"title,omitempty" validate:"max=300"`
	Author         string `query:"author" json:"author,omitempty" validate:"max=300"`
	ISBN13         string `query:"isbn13" json:"isbn13,omitempty"`
	ISBN10         string `query:"isbn10" json:"isbn10,omitempty"`
	ISBN           string `query:"isbn" json:"isbn,omitempty"`
	GoogleBooksID  string `query:"google_books_id" json:"google_books_id,omitempty"`
	OpenLibraryKey string `query:"openlibrary_key" json:"openlibrary_key,omitempty" validate:"olkey"`
}

func (q KeyQuery) record() incoming.Record {
	rec := incoming.Record{
		Source:         incoming.ParseSource(q.Source),
		SourceID:       q.SourceID,
		CanonicalKey:   q.BookKey,
		Title:          q.Title,
		ISBN13:         q.ISBN13,
		ISBN10:         q.ISBN10,
		ISBN:           q.ISBN,
		GoogleBooksID:  q.GoogleBooksID,
		OpenLibraryKey: q.OpenLibraryKey,
	}
	if q.Author != "" {
		rec.Authors = []string{q.Author}
	}
	return rec
}

type SearchQuery struct {
	Q string `query:"q" json:"q" mod:"trim" validate:"required,max=200"`
}

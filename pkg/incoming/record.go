package incoming

import (
	"strings"

	"github.com/lectiohq/lectio/pkg/identifiers"
)

type Source string

const (
	SourceGoogle      Source = "google"
	SourceOpenLibrary Source = "openlibrary"
	SourceManual      Source = "manual"
	SourceBarcode     Source = "barcode"
	SourceUnknown     Source = "unknown"
)

// ParseSource maps a free-form source name onto a known Source.
func ParseSource(s string) Source {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "google", "googlebooks", "google_books":
		return SourceGoogle
	case "openlibrary", "open_library", "ol":
		return SourceOpenLibrary
	case "manual":
		return SourceManual
	case "barcode", "scan":
		return SourceBarcode
	}
	return SourceUnknown
}

// Record is a book as it arrives from any source, before reconciliation.
// Values are as the source gave them; cleaning happens during reconciliation.
type Record struct {
	Source   Source `json:"source"`
	SourceID string `json:"source_id,omitempty"`

	// CanonicalKey is set when the caller already knows the book's key.
	CanonicalKey string `json:"canonical_key,omitempty"`

	Title   string   `json:"title,omitempty"`
	Authors []string `json:"authors,omitempty"`

	ISBN13 string `json:"isbn13,omitempty"`
	ISBN10 string `json:"isbn10,omitempty"`
	ISBN   string `json:"isbn,omitempty"`

	GoogleBooksID         string `json:"google_books_id,omitempty"`
	OpenLibraryKey        string `json:"openlibrary_key,omitempty"`
	OpenLibraryWorkKey    string `json:"openlibrary_work_key,omitempty"`
	OpenLibraryEditionKey string `json:"openlibrary_edition_key,omitempty"`
	OpenLibraryCoverID    int    `json:"openlibrary_cover_id,omitempty"`

	CoverURL    string `json:"cover_url,omitempty"`
	Description string `json:"description,omitempty"`
	PageCount   int    `json:"page_count,omitempty"`
}

// Author joins the record's non-empty authors with ", ".
func (r Record) Author() string {
	parts := make([]string, 0, len(r.Authors))
	for _, a := range r.Authors {
		if a = strings.TrimSpace(a); a != "" {
			parts = append(parts, a)
		}
	}
	return strings.Join(parts, ", ")
}

// PreferredISBN returns the first usable ISBN, trying ISBN-13, then ISBN-10,
// then the untyped value.
func (r Record) PreferredISBN() string {
	for _, candidate := range []string{r.ISBN13, r.ISBN10, r.ISBN} {
		if clean := identifiers.CleanISBN(candidate); clean != "" {
			return clean
		}
	}
	return ""
}

func splitAuthors(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return []string{s}
}

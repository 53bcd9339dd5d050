package books

import (
	"strings"

	"github.com/lectiohq/lectio/pkg/display"
	"github.com/lectiohq/lectio/pkg/htmlutil"
	"github.com/lectiohq/lectio/pkg/identifiers"
	"github.com/lectiohq/lectio/pkg/incoming"
)

// FallbackTitle is stored when a new book arrives without a usable title.
// It never counts as a good title, so any later real title replaces it.
const FallbackTitle = "Untitled"

// Fields is an incoming record reduced to cleaned book column values. An
// empty string or zero means the record has nothing usable for that column.
type Fields struct {
	Title       string
	Author      string
	ISBN        string
	GoogleID    string
	WorkKey     string
	EditionKey  string
	CoverID     int
	CoverURL    string
	Description string
	Pages       int
}

// Normalize cleans every field of rec. Placeholder titles and authors,
// broken cover URLs and non-positive page counts are dropped.
func Normalize(rec incoming.Record) Fields {
	f := Fields{
		Title:      collapseSpace(rec.Title),
		Author:     collapseSpace(rec.Author()),
		ISBN:       rec.PreferredISBN(),
		GoogleID:   strings.TrimSpace(rec.GoogleBooksID),
		WorkKey:    identifiers.NormalizeWorkKey(rec.OpenLibraryWorkKey),
		EditionKey: identifiers.NormalizeEditionKey(rec.OpenLibraryEditionKey),
		CoverURL:   strings.TrimSpace(rec.CoverURL),
	}
	if f.WorkKey == "" {
		f.WorkKey = identifiers.NormalizeWorkKey(rec.OpenLibraryKey)
	}
	if f.EditionKey == "" {
		f.EditionKey = identifiers.NormalizeEditionKey(rec.OpenLibraryKey)
	}
	if display.IsBadTitle(f.Title) || strings.EqualFold(f.Title, FallbackTitle) {
		f.Title = ""
	}
	if display.IsBadAuthor(f.Author) {
		f.Author = ""
	}
	if display.IsBadCoverURL(f.CoverURL) {
		f.CoverURL = ""
	}
	if rec.OpenLibraryCoverID > 0 {
		f.CoverID = rec.OpenLibraryCoverID
	}
	if rec.PageCount > 0 {
		f.Pages = rec.PageCount
	}
	f.Description = CleanDescription(rec.Description)
	return f
}

// CleanDescription strips markup, links and boilerplate and caps the result
// at htmlutil.DescriptionMaxLength characters.
func CleanDescription(s string) string {
	return htmlutil.Truncate(htmlutil.CleanDescription(s), htmlutil.DescriptionMaxLength)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

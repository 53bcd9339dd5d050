package incoming

import (
	"strings"

	"github.com/lectiohq/lectio/pkg/googlebooks"
	"github.com/lectiohq/lectio/pkg/identifiers"
	"github.com/lectiohq/lectio/pkg/openlibrary"
)

func FromGoogleBooks(v googlebooks.Volume) Record {
	info := v.VolumeInfo
	return Record{
		Source:        SourceGoogle,
		SourceID:      strings.TrimSpace(v.ID),
		Title:         info.Title,
		Authors:       info.Authors,
		ISBN13:        info.Identifier("ISBN_13"),
		ISBN10:        info.Identifier("ISBN_10"),
		GoogleBooksID: strings.TrimSpace(v.ID),
		CoverURL:      googlebooks.NormalizeCoverURL(info.ImageLinks.Best()),
		Description:   info.Description,
		PageCount:     info.PageCount,
	}
}

// FromOpenLibrarySearch adapts a search or subject doc. Those docs describe
// works, so Key is a work key.
func FromOpenLibrarySearch(d openlibrary.SearchDoc) Record {
	rec := Record{
		Source:             SourceOpenLibrary,
		Title:              d.Title,
		OpenLibraryKey:     identifiers.NormalizeOpenLibraryKey(d.Key),
		OpenLibraryWorkKey: identifiers.NormalizeWorkKey(d.Key),
		PageCount:          d.NumberOfPagesMedian,
	}
	rec.SourceID = rec.OpenLibraryKey

	rec.Authors = d.AuthorName
	if len(rec.Authors) == 0 {
		for _, a := range d.Authors {
			rec.Authors = append(rec.Authors, a.Name)
		}
	}

	rec.OpenLibraryCoverID = d.CoverI
	if rec.OpenLibraryCoverID <= 0 {
		rec.OpenLibraryCoverID = d.CoverID
	}

	rec.OpenLibraryEditionKey = identifiers.NormalizeEditionKey(d.CoverEditionKey)
	if rec.OpenLibraryEditionKey == "" && len(d.EditionKey) > 0 {
		rec.OpenLibraryEditionKey = identifiers.NormalizeEditionKey(d.EditionKey[0])
	}

	rec.ISBN13, rec.ISBN10 = pickISBNs(d.ISBN)
	return rec
}

func FromOpenLibraryEdition(e openlibrary.EditionResponse) Record {
	rec := Record{
		Source:                SourceOpenLibrary,
		Title:                 e.Title,
		Authors:               splitAuthors(strings.TrimSuffix(strings.TrimSpace(e.ByStatement), ".")),
		OpenLibraryKey:        identifiers.NormalizeOpenLibraryKey(e.Key),
		OpenLibraryEditionKey: identifiers.NormalizeEditionKey(e.Key),
		OpenLibraryCoverID:    openlibrary.FirstCover(e.Covers),
		Description:           string(e.Description),
		PageCount:             e.NumberOfPages,
	}
	rec.SourceID = rec.OpenLibraryKey
	if len(e.ISBN13) > 0 {
		rec.ISBN13 = firstNonEmpty(e.ISBN13)
	}
	if len(e.ISBN10) > 0 {
		rec.ISBN10 = firstNonEmpty(e.ISBN10)
	}
	for _, w := range e.Works {
		if key := identifiers.NormalizeWorkKey(w.Key); key != "" {
			rec.OpenLibraryWorkKey = key
			break
		}
	}
	return rec
}

// ManualForm is what a user types in when adding a book by hand.
type ManualForm struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	ISBN        string `json:"isbn"`
	Pages       int    `json:"pages"`
	CoverURL    string `json:"cover_url"`
	Description string `json:"description"`
}

func FromManualForm(f ManualForm) Record {
	return Record{
		Source:      SourceManual,
		Title:       f.Title,
		Authors:     splitAuthors(f.Author),
		ISBN:        f.ISBN,
		CoverURL:    f.CoverURL,
		Description: f.Description,
		PageCount:   f.Pages,
	}
}

// FromBarcode adapts a scanned EAN/ISBN. Only the identifier is known.
func FromBarcode(code string) Record {
	return Record{
		Source: SourceBarcode,
		ISBN:   strings.TrimSpace(code),
	}
}

// pickISBNs splits an untyped ISBN list into the first ISBN-13 and the first
// ISBN-10 it contains.
func pickISBNs(values []string) (isbn13, isbn10 string) {
	for _, v := range values {
		clean := identifiers.CleanISBN(v)
		switch {
		case len(clean) == 13 && isbn13 == "":
			isbn13 = clean
		case len(clean) == 10 && isbn10 == "":
			isbn10 = clean
		}
	}
	return isbn13, isbn10
}

func firstNonEmpty(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

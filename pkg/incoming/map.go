package incoming

import (
	"strconv"
	"strings"

	"github.com/lectiohq/lectio/pkg/googlebooks"
	"github.com/lectiohq/lectio/pkg/identifiers"
)

// Alternate field names, in coalesce order. Dotted names walk nested objects.
var (
	canonicalKeyFields = []string{"book_key", "bookKey", "canonical_key"}
	sourceIDFields     = []string{"source_id", "sourceId"}
	titleFields        = []string{"title", "volumeInfo.title", "name"}
	authorFields       = []string{"authors", "author", "author_name", "author_names", "volumeInfo.authors", "by_statement"}
	isbn13Fields       = []string{"isbn13", "isbn_13", "ISBN_13"}
	isbn10Fields       = []string{"isbn10", "isbn_10", "ISBN_10"}
	isbnFields         = []string{"isbn", "ISBN", "ean", "barcode"}
	googleIDFields     = []string{"google_books_id", "googleBooksId", "google_id", "googleId", "volume_id"}
	workKeyFields      = []string{"openlibrary_work_key", "work_key", "workKey", "works"}
	editionKeyFields   = []string{"openlibrary_edition_key", "edition_key", "editionKey", "cover_edition_key"}
	coverIDFields      = []string{"openlibrary_cover_id", "cover_i", "cover_id", "coverId", "covers"}
	coverURLFields     = []string{"cover_url", "coverUrl", "cover", "thumbnail", "imageLinks.thumbnail", "volumeInfo.imageLinks.thumbnail", "volumeInfo.imageLinks.smallThumbnail", "image"}
	descriptionFields  = []string{"description", "volumeInfo.description", "summary"}
	pageFields         = []string{"pageCount", "page_count", "number_of_pages", "total_pages", "pages", "number_of_pages_median", "volumeInfo.pageCount"}
)

// canonicalPrefixes mark an id/key value that is already a book key.
var canonicalPrefixes = []string{"isbn:", "ol:", "gb:", "t:", "manual:", "barcode:"}

// FromMap adapts an untyped JSON object. Each field is taken from the first
// alternate name holding a usable value; arrays contribute their first
// non-empty element, except authors, which are all kept.
func FromMap(m map[string]interface{}) Record {
	rec := Record{
		Source:                ParseSource(coalesceString(m, "source")),
		CanonicalKey:          coalesceString(m, canonicalKeyFields...),
		SourceID:              coalesceString(m, sourceIDFields...),
		Title:                 coalesceString(m, titleFields...),
		Authors:               coalesceStrings(m, authorFields...),
		ISBN13:                coalesceString(m, isbn13Fields...),
		ISBN10:                coalesceString(m, isbn10Fields...),
		ISBN:                  coalesceString(m, isbnFields...),
		GoogleBooksID:         coalesceString(m, googleIDFields...),
		OpenLibraryWorkKey:    identifiers.NormalizeWorkKey(coalesceString(m, workKeyFields...)),
		OpenLibraryEditionKey: identifiers.NormalizeEditionKey(coalesceString(m, editionKeyFields...)),
		OpenLibraryCoverID:    coalesceInt(m, coverIDFields...),
		CoverURL:              coalesceString(m, coverURLFields...),
		Description:           coalesceString(m, descriptionFields...),
		PageCount:             coalesceInt(m, pageFields...),
	}

	// Google volumes carry ISBNs as typed industry identifiers.
	if rec.ISBN13 == "" || rec.ISBN10 == "" {
		isbn13, isbn10 := industryIdentifiers(m)
		if rec.ISBN13 == "" {
			rec.ISBN13 = isbn13
		}
		if rec.ISBN10 == "" {
			rec.ISBN10 = isbn10
		}
	}

	// "key" and "id" are ambiguous: they are a book key, an OpenLibrary key or
	// a Google volume id depending on where the object came from.
	for _, field := range []string{"key", "id"} {
		v := coalesceString(m, field)
		if v == "" {
			continue
		}
		googleShaped := rec.Source == SourceGoogle || lookup(m, "volumeInfo") != nil
		switch {
		case rec.CanonicalKey == "" && hasCanonicalPrefix(v):
			rec.CanonicalKey = v
		case field == "id" && googleShaped:
			if rec.GoogleBooksID == "" {
				rec.GoogleBooksID = v
			}
		case !googleShaped && identifiers.NormalizeOpenLibraryKey(v) != "":
			rec.OpenLibraryKey = identifiers.NormalizeOpenLibraryKey(v)
		}
	}

	if rec.OpenLibraryKey != "" {
		if rec.OpenLibraryWorkKey == "" {
			rec.OpenLibraryWorkKey = identifiers.NormalizeWorkKey(rec.OpenLibraryKey)
		}
		if rec.OpenLibraryEditionKey == "" {
			rec.OpenLibraryEditionKey = identifiers.NormalizeEditionKey(rec.OpenLibraryKey)
		}
	}

	if rec.Source == SourceUnknown {
		switch {
		case rec.GoogleBooksID != "" && lookup(m, "volumeInfo") != nil:
			rec.Source = SourceGoogle
		case rec.OpenLibraryKey != "":
			rec.Source = SourceOpenLibrary
		}
	}
	if rec.Source == SourceGoogle && rec.CoverURL != "" {
		rec.CoverURL = googlebooks.NormalizeCoverURL(rec.CoverURL)
	}
	return rec
}

func hasCanonicalPrefix(v string) bool {
	lower := strings.ToLower(v)
	for _, p := range canonicalPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// lookup resolves a possibly dotted field name.
func lookup(m map[string]interface{}, field string) interface{} {
	parts := strings.Split(field, ".")
	var cur interface{} = m
	for _, p := range parts {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur, ok = obj[p]
		if !ok {
			return nil
		}
	}
	return cur
}

func coalesceString(m map[string]interface{}, fields ...string) string {
	for _, f := range fields {
		if s := scalarString(lookup(m, f)); s != "" {
			return s
		}
	}
	return ""
}

func coalesceStrings(m map[string]interface{}, fields ...string) []string {
	for _, f := range fields {
		if list := stringList(lookup(m, f)); len(list) > 0 {
			return list
		}
	}
	return nil
}

// coalesceInt returns the first strictly positive number found.
func coalesceInt(m map[string]interface{}, fields ...string) int {
	for _, f := range fields {
		if n := scalarInt(lookup(m, f)); n > 0 {
			return n
		}
	}
	return 0
}

// scalarString flattens v to a single string. Objects contribute their
// "value", "key", "name" or "identifier" member.
func scalarString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case []interface{}:
		for _, el := range t {
			if s := scalarString(el); s != "" {
				return s
			}
		}
	case []string:
		for _, el := range t {
			if s := strings.TrimSpace(el); s != "" {
				return s
			}
		}
	case map[string]interface{}:
		for _, k := range []string{"value", "key", "name", "identifier"} {
			if s := scalarString(t[k]); s != "" {
				return s
			}
		}
	}
	return ""
}

func stringList(v interface{}) []string {
	var out []string
	switch t := v.(type) {
	case []interface{}:
		for _, el := range t {
			if s := scalarString(el); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, el := range t {
			if s := strings.TrimSpace(el); s != "" {
				out = append(out, s)
			}
		}
	default:
		if s := scalarString(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func scalarInt(v interface{}) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case int64:
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return n
	case []interface{}:
		for _, el := range t {
			if n := scalarInt(el); n > 0 {
				return n
			}
		}
	}
	return 0
}

func industryIdentifiers(m map[string]interface{}) (isbn13, isbn10 string) {
	raw, _ := lookup(m, "volumeInfo.industryIdentifiers").([]interface{})
	if raw == nil {
		raw, _ = lookup(m, "industryIdentifiers").([]interface{})
	}
	for _, el := range raw {
		obj, ok := el.(map[string]interface{})
		if !ok {
			continue
		}
		id := scalarString(obj["identifier"])
		switch strings.ToUpper(scalarString(obj["type"])) {
		case "ISBN_13":
			if isbn13 == "" {
				isbn13 = id
			}
		case "ISBN_10":
			if isbn10 == "" {
				isbn10 = id
			}
		}
	}
	return isbn13, isbn10
}

package bookkey

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/lectiohq/lectio/pkg/display"
	"github.com/lectiohq/lectio/pkg/identifiers"
	"github.com/lectiohq/lectio/pkg/incoming"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	PrefixOpenLibrary = "ol:"
	PrefixGoogle      = "gb:"
	PrefixISBN        = "isbn:"
	PrefixUnknown     = "unknown:"
)

// Key identifies a real-world book across sources.
type Key struct {
	Value string `json:"key"`
	// Degenerate is set when nothing on the record identified the book and a
	// random key was generated. Such keys never match another record.
	Degenerate bool `json:"degenerate"`
}

func (k Key) String() string {
	return k.Value
}

// Derive computes a record's key. The first rule that applies wins:
//
//  1. an explicit canonical key
//  2. a source id (ol:, gb: or <source>:<source_id>)
//  3. isbn:<digits>, ISBN-13 before ISBN-10
//  4. t:<title>|a:<author>, normalized
//  5. unknown:<uuid>
func Derive(rec incoming.Record) Key {
	if k := strings.TrimSpace(rec.CanonicalKey); k != "" {
		return Key{Value: k}
	}
	if k := sourceKey(rec); k != "" {
		return Key{Value: k}
	}
	if isbn := rec.PreferredISBN(); isbn != "" {
		return Key{Value: PrefixISBN + isbn}
	}
	if !display.IsBadTitle(rec.Title) {
		if title := Normalize(rec.Title); title != "" {
			return Key{Value: "t:" + title + "|a:" + Normalize(rec.Author())}
		}
	}
	return Key{Value: PrefixUnknown + uuid.NewString(), Degenerate: true}
}

func sourceKey(rec incoming.Record) string {
	google := strings.TrimSpace(rec.GoogleBooksID)
	if rec.Source == incoming.SourceGoogle && google != "" {
		return PrefixGoogle + google
	}
	for _, k := range []string{rec.OpenLibraryKey, rec.OpenLibraryWorkKey, rec.OpenLibraryEditionKey} {
		if ol := identifiers.NormalizeOpenLibraryKey(k); ol != "" {
			return PrefixOpenLibrary + ol
		}
	}
	if google != "" {
		return PrefixGoogle + google
	}
	if id := strings.TrimSpace(rec.SourceID); id != "" && rec.Source != "" && rec.Source != incoming.SourceUnknown {
		return string(rec.Source) + ":" + id
	}
	return ""
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lower-cases s, strips accents and collapses every run of
// characters that are not letters or digits into a single space.
func Normalize(s string) string {
	stripped, _, err := transform.String(stripMarks, s)
	if err != nil {
		stripped = s
	}
	var b strings.Builder
	pendingSpace := false
	for _, r := range strings.ToLower(stripped) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

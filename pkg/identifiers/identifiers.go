// Package identifiers normalizes the external identifiers a book can carry:
// ISBNs, Google Books volume ids and OpenLibrary work/edition keys.
package identifiers

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// Type represents the type of identifier.
type Type string

const (
	TypeISBN10             Type = "isbn_10"
	TypeISBN13             Type = "isbn_13"
	TypeGoogle             Type = "google"
	TypeOpenLibraryWork    Type = "openlibrary_work"
	TypeOpenLibraryEdition Type = "openlibrary_edition"
	TypeUnknown            Type = ""
)

var (
	olKeyRegex    = regexp.MustCompile(`(?i)OL\d+[WMA]`)
	googleIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{12}$`)
)

// DetectType determines the identifier type from a bare value.
func DetectType(value string) Type {
	value = strings.TrimSpace(value)

	normalized := NormalizeISBN(value)
	if len(normalized) == 13 && ValidateISBN13(normalized) {
		return TypeISBN13
	}
	if len(normalized) == 10 && ValidateISBN10(normalized) {
		return TypeISBN10
	}
	if key := NormalizeOpenLibraryKey(value); key != "" {
		if strings.HasPrefix(key, "/works/") {
			return TypeOpenLibraryWork
		}
		if strings.HasPrefix(key, "/books/") {
			return TypeOpenLibraryEdition
		}
	}
	if googleIDRegex.MatchString(value) {
		return TypeGoogle
	}

	return TypeUnknown
}

// NormalizeISBN removes hyphens, spaces, and common prefixes from an ISBN.
// Only digits and a trailing X survive.
func NormalizeISBN(value string) string {
	value = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(value)), "ISBN:")
	value = strings.TrimPrefix(value, "ISBN")
	value = strings.TrimSpace(value)

	var result strings.Builder
	for _, r := range value {
		if unicode.IsDigit(r) || r == 'X' {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// CleanISBN returns the normalized ISBN when it has a plausible ISBN-10 or
// ISBN-13 length, and "" otherwise. Checksums are not enforced: publishers
// print invalid ISBNs and those still identify the physical book.
func CleanISBN(value string) string {
	n := NormalizeISBN(value)
	if len(n) != 10 && len(n) != 13 {
		return ""
	}
	if strings.Contains(n[:len(n)-1], "X") {
		return ""
	}
	if len(n) == 13 && strings.HasSuffix(n, "X") {
		return ""
	}
	return n
}

// ValidateISBN10 validates an ISBN-10 checksum.
// ISBN-10 uses modulo 11 with weights 10,9,8,7,6,5,4,3,2,1.
func ValidateISBN10(isbn string) bool {
	if len(isbn) != 10 {
		return false
	}

	var sum int
	for i, r := range isbn {
		var digit int
		switch {
		case r == 'X' || r == 'x':
			if i != 9 {
				return false
			}
			digit = 10
		case unicode.IsDigit(r):
			digit = int(r - '0')
		default:
			return false
		}
		sum += digit * (10 - i)
	}
	return sum%11 == 0
}

// ValidateISBN13 validates an ISBN-13 checksum.
// ISBN-13 uses alternating weights of 1 and 3.
func ValidateISBN13(isbn string) bool {
	if len(isbn) != 13 {
		return false
	}

	var sum int
	for i, r := range isbn {
		if !unicode.IsDigit(r) {
			return false
		}
		digit := int(r - '0')
		if i%2 == 0 {
			sum += digit
		} else {
			sum += digit * 3
		}
	}
	return sum%10 == 0
}

// NormalizeOpenLibraryKey turns any spelling of an OpenLibrary key ("OL1W",
// "works/OL1W", "/works/OL1W.json", a full openlibrary.org URL) into its
// canonical path form: /works/OL1W, /books/OL1M or /authors/OL1A.
func NormalizeOpenLibraryKey(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if u, err := url.Parse(value); err == nil && u.Host != "" {
		value = u.Path
	}

	id := olKeyRegex.FindString(value)
	if id == "" {
		return ""
	}
	id = strings.ToUpper(id)

	switch id[len(id)-1] {
	case 'W':
		return "/works/" + id
	case 'M':
		return "/books/" + id
	case 'A':
		return "/authors/" + id
	}
	return ""
}

// NormalizeWorkKey is NormalizeOpenLibraryKey restricted to work keys.
func NormalizeWorkKey(value string) string {
	key := NormalizeOpenLibraryKey(value)
	if !strings.HasPrefix(key, "/works/") {
		return ""
	}
	return key
}

// NormalizeEditionKey is NormalizeOpenLibraryKey restricted to edition keys.
func NormalizeEditionKey(value string) string {
	key := NormalizeOpenLibraryKey(value)
	if !strings.HasPrefix(key, "/books/") {
		return ""
	}
	return key
}

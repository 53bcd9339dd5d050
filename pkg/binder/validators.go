package binder

import (
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/lectiohq/lectio/pkg/identifiers"
)

// isbnValidator accepts an ISBN-10 or ISBN-13 in any common spelling
// (hyphens, spaces, "ISBN" prefix) or the empty string. Checksums are not
// checked.
func isbnValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return identifiers.CleanISBN(value) != ""
}

// openLibraryKeyValidator accepts anything NormalizeOpenLibraryKey
// understands, or the empty string.
func openLibraryKeyValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return identifiers.NormalizeOpenLibraryKey(value) != ""
}

// httpURLValidator accepts absolute http(s) URLs or the empty string.
func httpURLValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

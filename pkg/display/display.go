// Package display classifies titles, authors and cover URLs as legitimate
// values or known placeholders. The same checks decide what counts as a
// "good" value when book rows are merged.
package display

import (
	"net/url"
	"strings"
)

// Fields are the display-relevant values of a book as seen by one user.
type Fields struct {
	Title        string
	Author       string
	CustomTitle  string
	CustomAuthor string
}

var badTitleExact = map[string]struct{}{
	"(openlibrary book)": {},
}

var badTitleSubstrings = []string{
	"openlibrary book",
	"métadonnées en cours",
	"metadonnees en cours",
}

var badAuthorExact = map[string]struct{}{
	"auteur inconnu": {},
}

var badCoverSubstrings = []string{
	"image not available",
	"image_not_available",
	"imagenotavailable",
	"no_cover",
	"nocover",
	"nophoto",
	"no-image",
}

// IsBadTitle is true for empty titles and known placeholders.
func IsBadTitle(s string) bool {
	t := strings.ToLower(strings.TrimSpace(s))
	if t == "" {
		return true
	}
	if _, ok := badTitleExact[t]; ok {
		return true
	}
	for _, sub := range badTitleSubstrings {
		if strings.Contains(t, sub) {
			return true
		}
	}
	return false
}

// IsBadAuthor is true for empty authors and the unknown-author placeholder.
func IsBadAuthor(s string) bool {
	a := strings.ToLower(strings.TrimSpace(s))
	if a == "" {
		return true
	}
	_, ok := badAuthorExact[a]
	return ok
}

// IsBadCoverURL is true for empty or non-absolute URLs and for cover
// services' "image not available" renders.
func IsBadCoverURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return true
	}
	lower := strings.ToLower(s)
	for _, sub := range badCoverSubstrings {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

// SafeTitle prefers the canonical title, then the user's custom title, then
// fallback.
func SafeTitle(f Fields, fallback string) string {
	if !IsBadTitle(f.Title) {
		return strings.TrimSpace(f.Title)
	}
	if !IsBadTitle(f.CustomTitle) {
		return strings.TrimSpace(f.CustomTitle)
	}
	return fallback
}

// SafeAuthor prefers the canonical author, then the user's custom author.
// The bool is false when neither is usable.
func SafeAuthor(f Fields) (string, bool) {
	if !IsBadAuthor(f.Author) {
		return strings.TrimSpace(f.Author), true
	}
	if !IsBadAuthor(f.CustomAuthor) {
		return strings.TrimSpace(f.CustomAuthor), true
	}
	return "", false
}

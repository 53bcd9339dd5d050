package htmlutil

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DescriptionMaxLength is the stored description cap, in characters.
const DescriptionMaxLength = 320

// blockTags end a visual block; they become newlines when stripped.
var blockTags = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Br: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

var (
	// markdownRefPattern matches OpenLibrary's markdown reference footers,
	// e.g. "[1]: https://example.com".
	markdownRefPattern = regexp.MustCompile(`(?m)^\s*\[\d+\]:\s*\S+\s*$`)
	// markdownLinkPattern keeps the label of [label](url) and [label][1].
	markdownLinkPattern = regexp.MustCompile(`\[([^\]]+)\](\([^)]*\)|\[\d+\])`)
	urlPattern          = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)
	separatorPattern    = regexp.MustCompile(`-{3,}|_{3,}|\*{3,}`)
	emptyParensPattern  = regexp.MustCompile(`\(\s*\)`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
)

// StripTags removes all HTML tags from a string and normalizes whitespace.
// Block-level tags become newlines so paragraphs survive.
func StripTags(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		tok := z.Token()
		switch tt {
		case html.TextToken:
			if skip == 0 {
				b.WriteString(tok.Data)
			}
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			switch {
			case tok.DataAtom == atom.Script || tok.DataAtom == atom.Style:
				if tt == html.StartTagToken {
					skip++
				} else if tt == html.EndTagToken && skip > 0 {
					skip--
				}
			case blockTags[tok.DataAtom]:
				b.WriteByte('\n')
			}
		}
	}

	result := strings.ReplaceAll(b.String(), "\u00a0", " ")

	lines := strings.Split(result, "\n")
	nonEmpty := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(whitespacePattern.ReplaceAllString(line, " "))
		if line != "" {
			nonEmpty = append(nonEmpty, line)
		}
	}

	return strings.Join(nonEmpty, "\n")
}

// CleanDescription strips markup, links and separators from a book
// description and collapses it to a single line. It does not truncate; use
// Truncate for storage.
func CleanDescription(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	result := StripTags(s)
	result = markdownRefPattern.ReplaceAllString(result, "")
	result = markdownLinkPattern.ReplaceAllString(result, "$1")
	result = urlPattern.ReplaceAllString(result, "")
	result = separatorPattern.ReplaceAllString(result, " ")
	result = emptyParensPattern.ReplaceAllString(result, "")
	result = whitespacePattern.ReplaceAllString(result, " ")

	return strings.TrimSpace(result)
}

// Truncate shortens s to at most max characters, cutting at the last word
// boundary and appending an ellipsis when anything was removed.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}

	runes := []rune(s)
	cut := string(runes[:max-1])
	if i := strings.LastIndexAny(cut, " \t\n"); i > len(cut)/2 {
		cut = cut[:i]
	}
	cut = strings.TrimRight(cut, " ,;:.-")
	return cut + "…"
}

// Length counts characters, not bytes.
func Length(s string) int {
	return utf8.RuneCountInString(s)
}

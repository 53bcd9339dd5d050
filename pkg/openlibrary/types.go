package openlibrary

import (
	"bytes"

	"github.com/segmentio/encoding/json"
)

// Text is a description-like field. OpenLibrary returns either a bare string
// or an object of the form {"type": "/type/text", "value": "..."}.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	if b[0] == '{' {
		var obj struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*t = Text(obj.Value)
		return nil
	}
	// Anything else carries no usable text.
	*t = ""
	return nil
}

type Ref struct {
	Key string `json:"key"`
}

// EditionResponse is the body of /isbn/{isbn}.json and /books/{id}.json.
type EditionResponse struct {
	Key           string   `json:"key"`
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle"`
	ByStatement   string   `json:"by_statement"`
	Works         []Ref    `json:"works"`
	Authors       []Ref    `json:"authors"`
	ISBN13        []string `json:"isbn_13"`
	ISBN10        []string `json:"isbn_10"`
	NumberOfPages int      `json:"number_of_pages"`
	Covers        []int    `json:"covers"`
	Description   Text     `json:"description"`
}

// WorkResponse is the body of /works/{id}.json.
type WorkResponse struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Covers      []int  `json:"covers"`
	Description Text   `json:"description"`
}

type editionsResponse struct {
	Entries []EditionResponse `json:"entries"`
}

// SearchDoc covers both /search.json docs and /subjects/{s}.json works,
// which name the same things differently.
type SearchDoc struct {
	Key                 string   `json:"key"`
	Title               string   `json:"title"`
	AuthorName          []string `json:"author_name"`
	Authors             []Name   `json:"authors"`
	ISBN                []string `json:"isbn"`
	CoverI              int      `json:"cover_i"`
	CoverID             int      `json:"cover_id"`
	CoverEditionKey     string   `json:"cover_edition_key"`
	EditionKey          []string `json:"edition_key"`
	NumberOfPagesMedian int      `json:"number_of_pages_median"`
	FirstPublishYear    int      `json:"first_publish_year"`
}

type Name struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type searchResponse struct {
	NumFound int         `json:"numFound"`
	Docs     []SearchDoc `json:"docs"`
}

// Edition is what an edition lookup contributes to a book.
type Edition struct {
	Key         string
	WorkKey     string
	Pages       int
	CoverID     int
	Description string
}

// Work is what a work lookup contributes to a book.
type Work struct {
	Key         string
	CoverID     int
	Description string
	PagesMedian int
}

// FirstCover returns the first usable cover id. OpenLibrary uses -1 for
// removed covers.
func FirstCover(covers []int) int {
	for _, c := range covers {
		if c > 0 {
			return c
		}
	}
	return 0
}

func (e EditionResponse) toEdition() *Edition {
	ed := &Edition{
		Key:         e.Key,
		CoverID:     FirstCover(e.Covers),
		Description: string(e.Description),
	}
	if e.NumberOfPages > 0 {
		ed.Pages = e.NumberOfPages
	}
	for _, w := range e.Works {
		if w.Key != "" {
			ed.WorkKey = w.Key
			break
		}
	}
	return ed
}

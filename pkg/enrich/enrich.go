package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lectiohq/lectio/pkg/books"
	"github.com/lectiohq/lectio/pkg/display"
	"github.com/lectiohq/lectio/pkg/googlebooks"
	"github.com/lectiohq/lectio/pkg/htmlutil"
	"github.com/lectiohq/lectio/pkg/identifiers"
	"github.com/lectiohq/lectio/pkg/models"
	"github.com/lectiohq/lectio/pkg/openlibrary"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"golang.org/x/sync/singleflight"
)

type Status string

const (
	StatusSkipRecent    Status = "skip_recent"
	StatusEnriched      Status = "enriched"
	StatusNoChange      Status = "no_change"
	StatusNoIdentifiers Status = "no_identifiers"
)

const (
	DefaultCooldown  = 30 * time.Minute
	DefaultSkipScore = 120

	// MinDescriptionLength is the shortest OpenLibrary description accepted.
	// Shorter ones are usually a blurb fragment or a series note.
	MinDescriptionLength = 120

	scoreCover       = 50
	scorePages       = 30
	scoreDescription = 40
)

// Source names used in Result.Sources.
const (
	SourceOpenLibraryISBN    = "openlibrary_isbn"
	SourceOpenLibraryWork    = "openlibrary_work"
	SourceOpenLibraryEdition = "openlibrary_edition"
	SourceGoogleBooks        = "google_books"
)

// Hints carries identifiers the caller knows about that may not be stored on
// the book yet.
type Hints struct {
	ISBN                  string `json:"isbn,omitempty"`
	GoogleBooksID         string `json:"google_books_id,omitempty"`
	OpenLibraryWorkKey    string `json:"openlibrary_work_key,omitempty"`
	OpenLibraryEditionKey string `json:"openlibrary_edition_key,omitempty"`
}

type Attempt struct {
	Source string `json:"source"`
	Error  string `json:"error,omitempty"`
}

type Result struct {
	Status     Status       `json:"status"`
	Book       *models.Book `json:"book"`
	Updated    []string     `json:"updated"`
	Sources    []Attempt    `json:"sources,omitempty"`
	Diagnostic string       `json:"diagnostic,omitempty"`
}

type OpenLibrary interface {
	EditionByISBN(ctx context.Context, isbn string) (*openlibrary.Edition, error)
	Work(ctx context.Context, key string) (*openlibrary.Work, error)
	Edition(ctx context.Context, key string) (*openlibrary.Edition, error)
	CoverURL(id int) string
}

type GoogleBooks interface {
	HasAPIKey() bool
	Volume(ctx context.Context, id string) (*googlebooks.Volume, error)
}

type Store interface {
	RetrieveBook(ctx context.Context, opts books.RetrieveBookOptions) (*models.Book, error)
	ApplyFields(ctx context.Context, bookID int, f books.Fields, opts books.ApplyFieldsOptions) (*models.Book, []string, error)
}

type Options struct {
	Cooldown  time.Duration
	SkipScore int
	Now       func() time.Time
}

type Enricher struct {
	store     Store
	ol        OpenLibrary
	gb        GoogleBooks
	cooldown  time.Duration
	skipScore int
	now       func() time.Time
	group     singleflight.Group
}

func New(store Store, ol OpenLibrary, gb GoogleBooks, opts Options) *Enricher {
	e := &Enricher{
		store:     store,
		ol:        ol,
		gb:        gb,
		cooldown:  opts.Cooldown,
		skipScore: opts.SkipScore,
		now:       opts.Now,
	}
	if e.cooldown <= 0 {
		e.cooldown = DefaultCooldown
	}
	if e.skipScore <= 0 {
		e.skipScore = DefaultSkipScore
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Score rates how complete a book's metadata is: 50 for a cover, 30 for a
// page count and 40 for a description longer than 120 characters.
func Score(b *models.Book) int {
	score := 0
	if b.HasCover() {
		score += scoreCover
	}
	if b.HasPages() {
		score += scorePages
	}
	if b.DescriptionLength() > MinDescriptionLength {
		score += scoreDescription
	}
	return score
}

// Enrich fills in missing cover, page count, description and OpenLibrary keys
// for a book from OpenLibrary and Google Books. Source failures are absorbed;
// only storage errors and cancellation are returned. Concurrent calls for the
// same book and hints share one run; a caller whose shared run was canceled
// by another caller starts a fresh one.
func (e *Enricher) Enrich(ctx context.Context, bookID int, hints Hints) (*Result, error) {
	key := fmt.Sprintf("%d|%s|%s|%s|%s", bookID, hints.ISBN, hints.GoogleBooksID, hints.OpenLibraryWorkKey, hints.OpenLibraryEditionKey)
	for {
		ch := e.group.DoChan(key, func() (interface{}, error) {
			return e.enrich(ctx, bookID, hints)
		})

		select {
		case <-ctx.Done():
			return nil, errors.WithStack(ctx.Err())
		case res := <-ch:
			if res.Err == nil {
				return res.Val.(*Result), nil
			}
			// The group has already dropped the finished call, so DoChan
			// below starts a new run under this caller's context.
			if isContextErr(res.Err) && ctx.Err() == nil {
				continue
			}
			return nil, res.Err
		}
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// found collects what the sources returned. Edition page counts and the
// work median are kept apart because edition data wins.
type found struct {
	editionKey  string
	workKey     string
	coverID     int
	coverURL    string
	description string
	pages       int
	medianPages int
}

func (f *found) offerDescription(raw string, minLength int) {
	cleaned := htmlutil.CleanDescription(raw)
	n := htmlutil.Length(cleaned)
	if n == 0 || n < minLength {
		return
	}
	if n > htmlutil.Length(f.description) {
		f.description = cleaned
	}
}

func (e *Enricher) enrich(ctx context.Context, bookID int, hints Hints) (*Result, error) {
	log := logger.FromContext(ctx).Data(logger.Data{"book_id": bookID})

	book, err := e.store.RetrieveBook(ctx, books.RetrieveBookOptions{ID: &bookID})
	if err != nil {
		return nil, err
	}

	score := Score(book)
	if e.now().Sub(book.UpdatedAt) < e.cooldown && score >= e.skipScore {
		log.Debug("enrichment skipped, book is recent and complete", logger.Data{"score": score})
		return &Result{Status: StatusSkipRecent, Book: book, Updated: []string{}}, nil
	}

	isbn := identifiers.CleanISBN(coalesce(ptrValue(book.ISBN), hints.ISBN))
	workKey := identifiers.NormalizeWorkKey(coalesce(ptrValue(book.OpenLibraryWorkKey), hints.OpenLibraryWorkKey))
	directEditionKey := identifiers.NormalizeEditionKey(coalesce(ptrValue(book.OpenLibraryEditionKey), hints.OpenLibraryEditionKey))
	googleID := strings.TrimSpace(coalesce(ptrValue(book.GoogleBooksID), hints.GoogleBooksID))

	res := &Result{Updated: []string{}}
	got := &found{}

	needCover := func() bool { return !book.HasCover() && got.coverID == 0 && got.coverURL == "" }
	needPages := func() bool { return !book.HasPages() && got.pages == 0 }
	needDescription := func() bool { return ptrValue(book.Description) == "" && got.description == "" }
	needAny := func() bool { return needCover() || needPages() || needDescription() }
	needKeys := book.OpenLibraryWorkKey == nil || book.OpenLibraryEditionKey == nil

	attempt := func(source string, err error) {
		a := Attempt{Source: source}
		if err != nil {
			a.Error = err.Error()
			log.Warn("enrichment source failed", logger.Data{"source": source, "error": err.Error()})
		}
		res.Sources = append(res.Sources, a)
	}

	// 1. Edition by ISBN.
	if isbn != "" && (needAny() || needKeys) {
		ed, err := e.ol.EditionByISBN(ctx, isbn)
		attempt(SourceOpenLibraryISBN, err)
		if err == nil {
			got.editionKey = identifiers.NormalizeEditionKey(ed.Key)
			if workKey == "" {
				workKey = identifiers.NormalizeWorkKey(ed.WorkKey)
				got.workKey = workKey
			}
			got.pages = ed.Pages
			got.coverID = ed.CoverID
			got.offerDescription(ed.Description, MinDescriptionLength)
		}
	}

	// 2. Work.
	if workKey != "" && needAny() {
		w, err := e.ol.Work(ctx, workKey)
		attempt(SourceOpenLibraryWork, err)
		if err == nil {
			if got.coverID == 0 {
				got.coverID = w.CoverID
			}
			got.offerDescription(w.Description, MinDescriptionLength)
			got.medianPages = w.PagesMedian
		}
	}

	// 3. Edition known directly. Its page count beats the work median.
	if directEditionKey != "" && directEditionKey != got.editionKey && (needPages() || needCover()) {
		ed, err := e.ol.Edition(ctx, directEditionKey)
		attempt(SourceOpenLibraryEdition, err)
		if err == nil {
			if got.pages == 0 {
				got.pages = ed.Pages
			}
			if got.coverID == 0 {
				got.coverID = ed.CoverID
			}
		}
	}

	// 4. Google Books.
	googleMissingKey := false
	if googleID != "" && needAny() {
		if !e.gb.HasAPIKey() {
			googleMissingKey = true
		} else {
			v, err := e.gb.Volume(ctx, googleID)
			attempt(SourceGoogleBooks, err)
			if err == nil {
				info := v.VolumeInfo
				if needPages() && info.PageCount > 0 {
					got.pages = info.PageCount
				}
				if needCover() {
					got.coverURL = googlebooks.NormalizeCoverURL(info.ImageLinks.Best())
				}
				if needDescription() {
					got.offerDescription(info.Description, 1)
				}
			}
		}
	}

	if len(res.Sources) == 0 && needAny() {
		res.Status = StatusNoIdentifiers
		res.Book = book
		res.Diagnostic = missingIdentifiers(isbn, workKey, directEditionKey, googleID, googleMissingKey)
		log.Info("nothing to enrich from", logger.Data{"diagnostic": res.Diagnostic})
		return res, nil
	}

	f := books.Fields{
		GoogleID:    googleID,
		WorkKey:     coalesce(got.workKey, workKey),
		EditionKey:  coalesce(got.editionKey, directEditionKey),
		CoverID:     got.coverID,
		CoverURL:    got.coverURL,
		Description: htmlutil.Truncate(got.description, htmlutil.DescriptionMaxLength),
		Pages:       got.pages,
	}
	if f.Pages == 0 {
		f.Pages = got.medianPages
	}
	if f.CoverURL == "" && !hasGoodCoverURL(book) {
		coverID := f.CoverID
		if coverID == 0 && book.OpenLibraryCoverID != nil {
			coverID = *book.OpenLibraryCoverID
		}
		f.CoverURL = e.ol.CoverURL(coverID)
	}

	// A canceled run leaves the row as it was.
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	updated, changed, err := e.store.ApplyFields(ctx, bookID, f, books.ApplyFieldsOptions{MarkEnriched: true})
	if err != nil {
		return nil, err
	}
	res.Book = updated
	res.Updated = append(res.Updated, changed...)
	res.Status = StatusNoChange
	if len(changed) > 0 {
		res.Status = StatusEnriched
	}

	if len(changed) == 0 && needAny() && allFailed(res.Sources) {
		res.Diagnostic = "identifiers present but all fetches failed"
		log.Warn("enrichment found nothing", logger.Data{"diagnostic": res.Diagnostic, "sources": len(res.Sources)})
	} else {
		log.Info("enrichment finished", logger.Data{"status": res.Status, "updated": changed})
	}
	return res, nil
}

func missingIdentifiers(isbn, workKey, editionKey, googleID string, googleMissingKey bool) string {
	var parts []string
	if isbn == "" && workKey == "" && editionKey == "" {
		parts = append(parts, "no OpenLibrary identifiers")
	}
	switch {
	case googleID == "":
		parts = append(parts, "no Google Books id")
	case googleMissingKey:
		parts = append(parts, "Google key missing")
	}
	return strings.Join(parts, ", ")
}

func allFailed(attempts []Attempt) bool {
	if len(attempts) == 0 {
		return false
	}
	for _, a := range attempts {
		if a.Error == "" {
			return false
		}
	}
	return true
}

func hasGoodCoverURL(b *models.Book) bool {
	return b.CoverURL != nil && !display.IsBadCoverURL(*b.CoverURL)
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func ptrValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

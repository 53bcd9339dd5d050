package books

import (
	"context"
	"database/sql"
	"time"

	"github.com/lectiohq/lectio/pkg/database"
	"github.com/lectiohq/lectio/pkg/errcodes"
	"github.com/lectiohq/lectio/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

const defaultBusyRetries = 5

type RetrieveBookOptions struct {
	ID            *int
	ISBN          *string
	GoogleBooksID *string
}

type ListBooksOptions struct {
	Limit  *int
	Offset *int
	// MissingMetadata restricts the list to books without a cover, a page
	// count or a description.
	MissingMetadata bool
	// EnrichedBefore excludes books enriched at or after this time.
	EnrichedBefore *time.Time
	// AfterID restricts the list to ids greater than this one, for paging
	// through a table that changes underneath the caller.
	AfterID *int

	includeTotal bool
}

type ApplyFieldsOptions struct {
	// MarkEnriched stamps enriched_at even when no column changed.
	MarkEnriched bool
}

type Service struct {
	db          *bun.DB
	busyRetries int
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db, busyRetries: defaultBusyRetries}
}

// WithBusyRetries sets how many times a write is retried when SQLite reports
// the database as busy.
func (svc *Service) WithBusyRetries(n int) *Service {
	if n >= 0 {
		svc.busyRetries = n
	}
	return svc
}

func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	return retrieveBook(ctx, svc.db, opts)
}

func retrieveBook(ctx context.Context, db bun.IDB, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}

	q := db.
		NewSelect().
		Model(book)

	if opts.ID != nil {
		q = q.Where("b.id = ?", *opts.ID)
	}
	if opts.ISBN != nil {
		q = q.Where("b.isbn = ?", *opts.ISBN)
	}
	if opts.GoogleBooksID != nil {
		q = q.Where("b.google_books_id = ?", *opts.GoogleBooksID).Order("b.id ASC").Limit(1)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	return book, nil
}

func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*models.Book, error) {
	b, _, err := svc.listBooksWithTotal(ctx, opts)
	return b, errors.WithStack(err)
}

func (svc *Service) ListBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	opts.includeTotal = true
	return svc.listBooksWithTotal(ctx, opts)
}

func (svc *Service) listBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	books := []*models.Book{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&books).
		Order("b.id ASC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if opts.AfterID != nil {
		q = q.Where("b.id > ?", *opts.AfterID)
	}
	if opts.MissingMetadata {
		q = q.WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.
				Where("(b.cover_url IS NULL OR b.cover_url = '') AND b.openlibrary_cover_id IS NULL").
				WhereOr("b.total_pages IS NULL").
				WhereOr("b.description IS NULL OR b.description = ''")
		})
	}
	if opts.EnrichedBefore != nil {
		q = q.WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.
				Where("b.enriched_at IS NULL").
				WhereOr("b.enriched_at < ?", *opts.EnrichedBefore)
		})
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return books, total, nil
}

func updateBook(ctx context.Context, db bun.IDB, book *models.Book, columns []string) error {
	book.UpdatedAt = time.Now()
	columns = append(append([]string(nil), columns...), "updated_at")

	_, err := db.
		NewUpdate().
		Model(book).
		Column(columns...).
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}

// ApplyFields merges f into the stored book inside a transaction. The row is
// reloaded first so concurrent merges never work from a stale copy. It
// returns the book as stored and the columns that changed.
func (svc *Service) ApplyFields(ctx context.Context, bookID int, f Fields, opts ApplyFieldsOptions) (*models.Book, []string, error) {
	var book *models.Book
	var changed []string

	err := svc.retryBusy(ctx, func() error {
		return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
			var err error
			book, err = retrieveBook(ctx, tx, RetrieveBookOptions{ID: &bookID})
			if err != nil {
				return err
			}

			changed = MergeFields(book, f)
			columns := changed
			if opts.MarkEnriched {
				now := time.Now()
				book.EnrichedAt = &now
				columns = append(append([]string(nil), changed...), "enriched_at")
			}
			if len(columns) == 0 {
				return nil
			}
			if len(changed) == 0 {
				// Only the enrichment stamp moved; updated_at tracks content.
				_, err = tx.NewUpdate().Model(book).Column(columns...).WherePK().Exec(ctx)
				return errors.WithStack(err)
			}
			return updateBook(ctx, tx, book, columns)
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return book, changed, nil
}

func (svc *Service) retryBusy(ctx context.Context, fn func() error) error {
	return database.RetryBusy(ctx, svc.busyRetries, fn)
}

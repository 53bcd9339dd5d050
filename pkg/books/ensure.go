package books

import (
	"context"
	"database/sql"
	"time"

	"github.com/lectiohq/lectio/pkg/database"
	"github.com/lectiohq/lectio/pkg/errcodes"
	"github.com/lectiohq/lectio/pkg/incoming"
	"github.com/lectiohq/lectio/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// errDuplicateISBN means another row claimed the ISBN first.
var errDuplicateISBN = errors.New("isbn already belongs to another book")

// EnsureBook returns the id of the canonical book for rec, creating the row
// if needed. Lookups run in order: ISBN, then exact title and author. A
// matched row only has its absent or bad columns filled in. Calling it again
// with the same record returns the same id and changes nothing.
func (svc *Service) EnsureBook(ctx context.Context, rec incoming.Record) (int, error) {
	log := logger.FromContext(ctx)
	f := Normalize(rec)

	if f.ISBN != "" {
		book, err := svc.findByISBN(ctx, f.ISBN)
		if err != nil {
			return 0, err
		}
		if book != nil {
			return svc.mergeInto(ctx, book.ID, f)
		}
	}

	if f.Title != "" {
		book, err := svc.findByTitleAuthor(ctx, f)
		if err != nil {
			return 0, err
		}
		if book != nil {
			return svc.mergeInto(ctx, book.ID, f)
		}
	}

	id, err := svc.insertBook(ctx, f)
	if errors.Is(err, errDuplicateISBN) {
		return svc.onConflictRefetch(ctx, f)
	}
	if err != nil {
		return 0, err
	}

	log.Info("created book", logger.Data{"book_id": id, "source": rec.Source, "isbn": f.ISBN})
	return id, nil
}

// onConflictRefetch handles losing an insert or update race on the ISBN
// unique constraint: the winner's row is reloaded and merged into.
func (svc *Service) onConflictRefetch(ctx context.Context, f Fields) (int, error) {
	book, err := svc.findByISBN(ctx, f.ISBN)
	if err != nil {
		return 0, err
	}
	if book == nil {
		return 0, errors.Errorf("isbn %s conflicted but no book holds it", f.ISBN)
	}
	logger.FromContext(ctx).Debug("isbn conflict resolved by refetch", logger.Data{"book_id": book.ID, "isbn": f.ISBN})
	return svc.mergeInto(ctx, book.ID, f)
}

func (svc *Service) mergeInto(ctx context.Context, bookID int, f Fields) (int, error) {
	_, changed, err := svc.ApplyFields(ctx, bookID, f, ApplyFieldsOptions{})
	if err != nil {
		if f.ISBN != "" && database.IsUniqueViolation(err) {
			return svc.onConflictRefetch(ctx, f)
		}
		return 0, err
	}
	if len(changed) > 0 {
		logger.FromContext(ctx).Info("merged record into book", logger.Data{"book_id": bookID, "columns": changed})
	}
	return bookID, nil
}

func (svc *Service) findByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	book, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ISBN: &isbn})
	if errcodes.IsNotFound(err) {
		return nil, nil
	}
	return book, err
}

// findByTitleAuthor matches the exact stored title and author. When f has an
// ISBN, rows that already carry a different ISBN are other editions and are
// skipped.
func (svc *Service) findByTitleAuthor(ctx context.Context, f Fields) (*models.Book, error) {
	book := &models.Book{}
	q := svc.db.
		NewSelect().
		Model(book).
		Where("b.title = ?", f.Title).
		Order("b.id ASC").
		Limit(1)

	if f.Author == "" {
		q = q.Where("b.author IS NULL")
	} else {
		q = q.Where("b.author = ?", f.Author)
	}
	if f.ISBN != "" {
		q = q.Where("b.isbn IS NULL")
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.WithStack(err)
	}
	return book, nil
}

// insertBook creates the row for f. With an ISBN the insert is an upsert that
// does nothing on conflict, and errDuplicateISBN reports the lost race.
func (svc *Service) insertBook(ctx context.Context, f Fields) (int, error) {
	book := NewBook(f)
	now := time.Now()
	book.CreatedAt = now
	book.UpdatedAt = now

	err := svc.retryBusy(ctx, func() error {
		q := svc.db.
			NewInsert().
			Model(book).
			Returning("*")
		if f.ISBN != "" {
			q = q.On("CONFLICT (isbn) DO NOTHING")
		}
		_, err := q.Exec(ctx)
		return err
	})
	return classifyInsert(book, f, err)
}

func classifyInsert(book *models.Book, f Fields, err error) (int, error) {
	switch {
	case err == nil && book.ID != 0:
		return book.ID, nil
	case f.ISBN != "" && (err == nil || errors.Is(err, sql.ErrNoRows) || database.IsUniqueViolation(err)):
		return 0, errDuplicateISBN
	case err == nil:
		return 0, errors.New("insert returned no id")
	}
	return 0, errors.WithStack(err)
}

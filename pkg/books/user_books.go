package books

import (
	"context"
	"time"

	"github.com/lectiohq/lectio/pkg/models"
	"github.com/pkg/errors"
)

type LinkUserBookOptions struct {
	UserID       string
	BookID       int
	Status       string
	CustomTitle  *string
	CustomAuthor *string
}

type ListUserBooksOptions struct {
	UserID string
	Limit  *int
	Offset *int
}

// LinkUserBook adds the book to the user's library. Linking a book the user
// already has returns the existing entry unchanged.
func (svc *Service) LinkUserBook(ctx context.Context, opts LinkUserBookOptions) (*models.UserBook, error) {
	status := opts.Status
	if status == "" {
		status = models.ReadingStatusToRead
	}
	now := time.Now()
	ub := &models.UserBook{
		CreatedAt:    now,
		UpdatedAt:    now,
		UserID:       opts.UserID,
		BookID:       opts.BookID,
		Status:       status,
		CustomTitle:  opts.CustomTitle,
		CustomAuthor: opts.CustomAuthor,
	}

	err := svc.retryBusy(ctx, func() error {
		_, err := svc.db.
			NewInsert().
			Model(ub).
			On("CONFLICT (user_id, book_id) DO NOTHING").
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	existing := &models.UserBook{}
	err = svc.db.
		NewSelect().
		Model(existing).
		Relation("Book").
		Where("ub.user_id = ?", opts.UserID).
		Where("ub.book_id = ?", opts.BookID).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return existing, nil
}

func (svc *Service) ListUserBooks(ctx context.Context, opts ListUserBooksOptions) ([]*models.UserBook, int, error) {
	userBooks := []*models.UserBook{}

	q := svc.db.
		NewSelect().
		Model(&userBooks).
		Relation("Book").
		Where("ub.user_id = ?", opts.UserID).
		Order("ub.id ASC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	return userBooks, total, nil
}

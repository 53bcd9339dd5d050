package joblogs

import (
	"context"
	"time"

	"github.com/lectiohq/lectio/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type ListJobLogsOptions struct {
	JobID   int
	AfterID *int
	BookID  *int
	Levels  []string
	Limit   *int
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateJobLog(ctx context.Context, line *models.JobLog) error {
	if line.CreatedAt.IsZero() {
		line.CreatedAt = time.Now()
	}

	_, err := svc.db.
		NewInsert().
		Model(line).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

// ListJobLogs returns a job's lines oldest first. AfterID lets a client tail
// a running job.
func (svc *Service) ListJobLogs(ctx context.Context, opts ListJobLogsOptions) ([]*models.JobLog, error) {
	lines := []*models.JobLog{}

	q := svc.db.
		NewSelect().
		Model(&lines).
		Where("jl.job_id = ?", opts.JobID).
		Order("jl.id ASC")

	if opts.AfterID != nil {
		q = q.Where("jl.id > ?", *opts.AfterID)
	}
	if opts.BookID != nil {
		q = q.Where("jl.book_id = ?", *opts.BookID)
	}
	if len(opts.Levels) > 0 {
		q = q.Where("jl.level IN (?)", bun.In(opts.Levels))
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	return lines, nil
}

// CountByLevel returns how many lines a job has per level.
func (svc *Service) CountByLevel(ctx context.Context, jobID int) (map[string]int, error) {
	var rows []struct {
		Level string `bun:"level"`
		Count int    `bun:"count"`
	}
	err := svc.db.
		NewSelect().
		Model((*models.JobLog)(nil)).
		Column("jl.level").
		ColumnExpr("COUNT(*) AS count").
		Where("jl.job_id = ?", jobID).
		Group("jl.level").
		Scan(ctx, &rows)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	counts := map[string]int{}
	for _, r := range rows {
		counts[r.Level] = r.Count
	}
	return counts, nil
}

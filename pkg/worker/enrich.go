package worker

import (
	"context"
	"sync"
	"time"

	"github.com/lectiohq/lectio/pkg/books"
	"github.com/lectiohq/lectio/pkg/enrich"
	"github.com/lectiohq/lectio/pkg/joblogs"
	"github.com/lectiohq/lectio/pkg/jobs"
	"github.com/lectiohq/lectio/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"golang.org/x/sync/errgroup"
)

// ProcessEnrichBackfillJob enriches every book missing a cover, a page count
// or a description that wasn't enriched within the cooldown. Books are walked
// in id order in batches; a failure on one book is logged and the sweep goes
// on.
func (w *Worker) ProcessEnrichBackfillJob(ctx context.Context, job *models.Job, jobLog *joblogs.JobLogger) error {
	data, ok := job.DataParsed.(*models.JobEnrichBackfillData)
	if !ok {
		return errors.Errorf("unexpected data %T for backfill job", job.DataParsed)
	}

	batchSize := w.config.BackfillBatchSize
	if data.Limit > 0 && data.Limit < batchSize {
		batchSize = data.Limit
	}
	cooldown := w.config.EnrichCooldown
	if cooldown <= 0 {
		cooldown = enrich.DefaultCooldown
	}
	enrichedBefore := time.Now().Add(-cooldown)

	var (
		mu       sync.Mutex
		statuses = map[enrich.Status]int{}
		failed   int
	)
	processed := 0
	lastID := 0

	for data.Limit <= 0 || processed < data.Limit {
		limit := batchSize
		if data.Limit > 0 && data.Limit-processed < limit {
			limit = data.Limit - processed
		}
		after := lastID
		batch, err := w.bookService.ListBooks(ctx, books.ListBooksOptions{
			Limit:           &limit,
			AfterID:         &after,
			MissingMetadata: true,
			EnrichedBefore:  &enrichedBefore,
		})
		if err != nil {
			return errors.WithStack(err)
		}
		if len(batch) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(w.config.WorkerProcesses)
		for _, book := range batch {
			bookID := book.ID
			g.Go(func() error {
				res, err := w.enricher.Enrich(gctx, bookID, enrich.Hints{})
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed++
					jobLog.ForBook(bookID).Warn("book enrichment failed", logger.Data{"error": err.Error()})
					return nil
				}
				statuses[res.Status]++
				return nil
			})
		}
		_ = g.Wait()

		if err := ctx.Err(); err != nil {
			return errors.WithStack(err)
		}

		processed += len(batch)
		lastID = batch[len(batch)-1].ID
		job.Progress = processed
		if err := w.jobService.UpdateJob(ctx, job, jobs.UpdateJobOptions{Columns: []string{"progress"}}); err != nil {
			logger.FromContext(ctx).Err(err).Warn("update job progress error")
		}
	}

	jobLog.Info("backfill finished", logger.Data{
		"processed":      processed,
		"failed":         failed,
		"enriched":       statuses[enrich.StatusEnriched],
		"no_change":      statuses[enrich.StatusNoChange],
		"no_identifiers": statuses[enrich.StatusNoIdentifiers],
		"skip_recent":    statuses[enrich.StatusSkipRecent],
	})
	return nil
}

// ProcessEnrichBookJob enriches one book with the identifiers recorded when
// the job was queued.
func (w *Worker) ProcessEnrichBookJob(ctx context.Context, job *models.Job, jobLog *joblogs.JobLogger) error {
	data, ok := job.DataParsed.(*models.JobEnrichBookData)
	if !ok {
		return errors.Errorf("unexpected data %T for enrich job", job.DataParsed)
	}

	res, err := w.enricher.Enrich(ctx, data.BookID, enrich.Hints{
		ISBN:                  data.ISBN,
		GoogleBooksID:         data.GoogleBooksID,
		OpenLibraryWorkKey:    data.OpenLibraryWorkKey,
		OpenLibraryEditionKey: data.OpenLibraryEditionKey,
	})
	if err != nil {
		return err
	}

	job.Progress = 1
	jobLog.ForBook(data.BookID).Info("book enriched", logger.Data{"status": string(res.Status), "updated": res.Updated})
	return nil
}

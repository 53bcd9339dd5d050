package worker

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/lectiohq/lectio/pkg/books"
	"github.com/lectiohq/lectio/pkg/config"
	"github.com/lectiohq/lectio/pkg/enrich"
	"github.com/lectiohq/lectio/pkg/joblogs"
	"github.com/lectiohq/lectio/pkg/jobs"
	"github.com/lectiohq/lectio/pkg/models"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/uptrace/bun"
)

var processID = randStringBytes(8)

// Enricher is the part of enrich.Enricher the worker drives.
type Enricher interface {
	Enrich(ctx context.Context, bookID int, hints enrich.Hints) (*enrich.Result, error)
}

type processFunc func(ctx context.Context, job *models.Job, jobLog *joblogs.JobLogger) error

type Worker struct {
	config *config.Config
	log    logger.Logger

	processFuncs map[string]processFunc

	bookService   *books.Service
	jobService    *jobs.Service
	jobLogService *joblogs.Service
	enricher      Enricher

	pollInterval time.Duration
	// ctx is canceled on shutdown so in-flight enrichment stops before
	// persisting anything.
	ctx    context.Context
	cancel context.CancelFunc

	queue          chan *models.Job
	shutdown       chan struct{}
	doneFetching   chan struct{}
	doneProcessing chan struct{}
}

func New(cfg *config.Config, db *bun.DB, enricher Enricher) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		config: cfg,
		log:    logger.New(),

		bookService:   books.NewService(db).WithBusyRetries(cfg.DatabaseMaxRetries),
		jobService:    jobs.NewService(db),
		jobLogService: joblogs.NewService(db),
		enricher:      enricher,

		pollInterval: 5 * time.Second,
		ctx:          ctx,
		cancel:       cancel,

		queue:          make(chan *models.Job, cfg.WorkerProcesses),
		shutdown:       make(chan struct{}),
		doneFetching:   make(chan struct{}),
		doneProcessing: make(chan struct{}, cfg.WorkerProcesses),
	}

	w.processFuncs = map[string]processFunc{
		models.JobTypeEnrichBackfill: w.ProcessEnrichBackfillJob,
		models.JobTypeEnrichBook:     w.ProcessEnrichBookJob,
	}

	return w
}

func (w *Worker) Start() {
	go w.fetchJobs()
	for i := 0; i < w.config.WorkerProcesses; i++ {
		go w.processJobs()
	}
}

func (w *Worker) fetchJobs() {
	timer := time.NewTimer(w.pollInterval)

	for {
		select {
		case <-w.shutdown:
			// We're shutting down, so stop adding more jobs to the queue.
			w.doneFetching <- struct{}{}
			return
		case <-timer.C:
			j, err := w.jobService.ListJobs(w.ctx, jobs.ListJobsOptions{
				Limit:              pointerutil.Int(1),
				Statuses:           []string{models.JobStatusPending, models.JobStatusInProgress},
				ProcessIDToExclude: &processID,
			})
			if err != nil {
				w.log.Err(err).Error("list jobs error")
				timer.Reset(w.pollInterval)
				continue
			}
			for _, job := range j {
				select {
				case w.queue <- job:
				case <-w.shutdown:
				}
			}
			timer.Reset(w.pollInterval)
		}
	}
}

func (w *Worker) processJobs() {
	for {
		select {
		case <-w.shutdown:
			w.doneProcessing <- struct{}{}
			return
		case job := <-w.queue:
			w.runJob(job)
		}
	}
}

// runJob claims job for this process, runs it and records the outcome.
func (w *Worker) runJob(job *models.Job) {
	// Prep the context to be passed down to the process function.
	id, err := uuid.NewRandom()
	if err != nil {
		w.log.Err(err).Error("new uuid error")
		return
	}
	log := w.log.ID(id.String()).Root(logger.Data{"job_id": job.ID, "type": job.Type, "process_id": processID})
	ctx := log.WithContext(w.ctx)

	// Update job to be in progress and claimed by this process.
	job.Status = models.JobStatusInProgress
	job.ProcessID = &processID

	err = w.jobService.UpdateJob(ctx, job, jobs.UpdateJobOptions{
		Columns: []string{"status", "process_id"},
	})
	if err != nil {
		log.Err(err).Error("update job error")
		return
	}

	// Find and invoke the appropriate process function.
	job.Status = models.JobStatusCompleted
	fn, ok := w.processFuncs[job.Type]
	if !ok {
		log.Error("can't find process function for type")
		job.Status = models.JobStatusFailed
	} else {
		jobLog := w.jobLogService.NewJobLogger(ctx, job.ID, log)
		if err := fn(ctx, job, jobLog); err != nil {
			if ctx.Err() != nil {
				// Shutting down; another process picks the job up again.
				jobLog.Warn("job interrupted by shutdown", nil)
				return
			}
			jobLog.Error("process error", err, nil)
			job.Status = models.JobStatusFailed
		}
	}

	// Record the outcome so that it's not picked up anymore.
	err = w.jobService.UpdateJob(context.Background(), job, jobs.UpdateJobOptions{
		Columns: []string{"status", "progress"},
	})
	if err != nil {
		log.Err(err).Error("update job error")
		return
	}
	log.Info("job finished", logger.Data{"status": job.Status, "progress": job.Progress})
}

func (w *Worker) Shutdown() {
	close(w.shutdown)
	w.cancel()

	<-w.doneFetching
	for i := 0; i < w.config.WorkerProcesses; i++ {
		<-w.doneProcessing
	}
}

const letterBytes = "abcdef0123456789"

func randStringBytes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Intn(len(letterBytes))] //nolint:gosec
	}
	return string(b)
}

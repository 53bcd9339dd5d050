package joblogs

import (
	"context"
	"runtime/debug"

	"github.com/lectiohq/lectio/pkg/models"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
)

// maxValueLen caps string values stored in a log line's data.
const maxValueLen = 1024

// JobLogger mirrors a job's log lines to the process logger and the job_logs
// table. Lines are persisted with a context detached from the job's
// cancellation so the line explaining an interrupted run still lands.
type JobLogger struct {
	svc    *Service
	log    logger.Logger
	ctx    context.Context
	jobID  int
	bookID *int
}

func (svc *Service) NewJobLogger(ctx context.Context, jobID int, log logger.Logger) *JobLogger {
	return &JobLogger{
		svc:   svc,
		log:   log.Data(logger.Data{"job_id": jobID}),
		ctx:   context.WithoutCancel(ctx),
		jobID: jobID,
	}
}

// ForBook returns a logger whose lines are attributed to one book, so a
// backfill's outcome can be listed per book.
func (l *JobLogger) ForBook(bookID int) *JobLogger {
	return &JobLogger{
		svc:    l.svc,
		log:    l.log.Data(logger.Data{"book_id": bookID}),
		ctx:    l.ctx,
		jobID:  l.jobID,
		bookID: &bookID,
	}
}

func (l *JobLogger) Info(msg string, data logger.Data) {
	l.log.Info(msg, data)
	l.write(models.JobLogLevelInfo, msg, data, nil)
}

func (l *JobLogger) Warn(msg string, data logger.Data) {
	l.log.Warn(msg, data)
	l.write(models.JobLogLevelWarn, msg, data, nil)
}

// Error records err in the line's data along with the current stack.
func (l *JobLogger) Error(msg string, err error, data logger.Data) {
	l.log.Err(err).Error(msg, data)

	withErr := logger.Data{}
	for k, v := range data {
		withErr[k] = v
	}
	if err != nil {
		withErr["error"] = err.Error()
	}
	stack := string(debug.Stack())
	l.write(models.JobLogLevelError, msg, withErr, &stack)
}

func (l *JobLogger) write(level, msg string, data logger.Data, stack *string) {
	line := &models.JobLog{
		JobID:      l.jobID,
		BookID:     l.bookID,
		Level:      level,
		Message:    msg,
		Data:       encodeData(data),
		StackTrace: stack,
	}
	if err := l.svc.CreateJobLog(l.ctx, line); err != nil {
		l.log.Err(err).Warn("persist job log error")
	}
}

func encodeData(data logger.Data) *string {
	if len(data) == 0 {
		return nil
	}
	clipped := make(map[string]interface{}, len(data))
	for k, v := range data {
		if s, ok := v.(string); ok {
			v = clipMiddle(s, maxValueLen)
		}
		clipped[k] = v
	}
	b, err := json.Marshal(clipped)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}

// clipMiddle keeps the head and tail of s, which is where error messages
// carry the useful parts.
func clipMiddle(s string, max int) string {
	if len(s) <= max {
		return s
	}
	half := (max - 5) / 2
	return s[:half] + " ... " + s[len(s)-half:]
}

package joblogs

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/lectiohq/lectio/pkg/errcodes"
	"github.com/lectiohq/lectio/pkg/jobs"
	"github.com/lectiohq/lectio/pkg/models"
	"github.com/pkg/errors"
)

type handler struct {
	jobLogService *Service
	jobService    *jobs.Service
}

type listLogsResponse struct {
	Job    *models.Job      `json:"job"`
	Logs   []*models.JobLog `json:"logs"`
	Counts map[string]int   `json:"counts"`
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	jobID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Job")
	}

	// Bind params.
	params := ListJobLogsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	job, err := h.jobService.RetrieveJob(ctx, jobs.RetrieveJobOptions{ID: &jobID})
	if err != nil {
		return errors.WithStack(err)
	}

	lines, err := h.jobLogService.ListJobLogs(ctx, ListJobLogsOptions{
		JobID:   jobID,
		AfterID: params.AfterID,
		BookID:  params.BookID,
		Levels:  params.Level,
		Limit:   &params.Limit,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	counts, err := h.jobLogService.CountByLevel(ctx, jobID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, listLogsResponse{job, lines, counts}))
}

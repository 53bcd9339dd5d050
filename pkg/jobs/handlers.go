package jobs

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/lectiohq/lectio/pkg/errcodes"
	"github.com/lectiohq/lectio/pkg/models"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

type handler struct {
	jobService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind params.
	params := CreateJobPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	job := &models.Job{Type: params.Type, Data: "{}"}
	if len(params.Data) > 0 {
		data, err := json.Marshal(params.Data)
		if err != nil {
			return errors.WithStack(err)
		}
		job.Data = string(data)
	}
	if err := job.UnmarshalData(); err != nil {
		return errcodes.ValidationError(`"data" doesn't match the job type`)
	}

	switch data := job.DataParsed.(type) {
	case *models.JobEnrichBackfillData:
		if data.Limit < 0 {
			return errcodes.ValidationError(`"limit" can't be negative`)
		}
		created, err := h.jobService.EnqueueBackfill(ctx, data)
		if err != nil {
			return errors.WithStack(err)
		}
		job = created
	case *models.JobEnrichBookData:
		if data.BookID <= 0 {
			return errcodes.ValidationError(`"book_id" is required`)
		}
		job.Status = models.JobStatusPending
		job.Data = ""
		if err := h.jobService.CreateJob(ctx, job); err != nil {
			return errors.WithStack(err)
		}
	}

	job, err := h.jobService.RetrieveJob(ctx, RetrieveJobOptions{
		ID: &job.ID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, job))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Job")
	}

	job, err := h.jobService.RetrieveJob(ctx, RetrieveJobOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, job))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind params.
	params := ListJobsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	jobs, total, err := h.jobService.ListJobsWithTotal(ctx, ListJobsOptions{
		Limit:    &params.Limit,
		Offset:   &params.Offset,
		Statuses: params.Status,
		Type:     params.Type,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Jobs  []*models.Job `json:"jobs"`
		Total int           `json:"total"`
	}{jobs, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

package handler

import (
	"context"
	"errors"

	"funda-scraper/internal/delivery/http/middleware"
	"funda-scraper/internal/domain/listing"
	"funda-scraper/internal/domain/scrapejob"
	"funda-scraper/internal/jobs"
	"funda-scraper/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type JobService interface {
	Submit(budget int) (scrapejob.Job, error)
	Status(id string) (scrapejob.Job, error)
	Result(ctx context.Context, id string) (scrapejob.Job, []listing.Record, error)
	List() []scrapejob.Job
}

type JobHandler struct {
	jobs   JobService
	limits PageLimits
}

func NewJobHandler(svc JobService, limits PageLimits) *JobHandler {
	return &JobHandler{jobs: svc, limits: limits}
}

func (h *JobHandler) HandleStart(c fiber.Ctx) error {
	pages, err := h.limits.parse(c)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	}

	job, err := h.jobs.Submit(pages)
	if err != nil {
		return mapJobError(err)
	}
	return response.Success(c, fiber.StatusAccepted, fiber.Map{
		"job_id": job.ID,
		"pages":  job.PageBudget,
		"status": job.Status,
	})
}

func (h *JobHandler) HandleStatus(c fiber.Ctx) error {
	job, err := h.jobs.Status(c.Params("job_id"))
	if err != nil {
		return mapJobError(err)
	}
	return response.Success(c, fiber.StatusOK, fiber.Map{"job": job})
}

func (h *JobHandler) HandleResult(c fiber.Ctx) error {
	job, records, err := h.jobs.Result(c.Context(), c.Params("job_id"))
	switch {
	case err == nil:
		return response.Success(c, fiber.StatusOK, fiber.Map{
			"job_id":      job.ID,
			"count":       len(records),
			"blocked":     job.Blocked,
			"stop_reason": job.StopReason,
			"items":       itemsOrEmpty(records),
		})
	case errors.Is(err, scrapejob.ErrJobNotReady):
		if job.Status == scrapejob.StatusFailed {
			detail := job.Error
			if detail == "" {
				detail = "job failed"
			}
			return response.Error(c, fiber.StatusOK, detail, fiber.Map{"status": job.Status})
		}
		return response.Error(c, fiber.StatusAccepted, scrapejob.ErrJobNotReady.Error(), fiber.Map{"status": job.Status})
	default:
		return mapJobError(err)
	}
}

func (h *JobHandler) HandleList(c fiber.Ctx) error {
	list := h.jobs.List()
	if list == nil {
		list = []scrapejob.Job{}
	}
	return response.Success(c, fiber.StatusOK, fiber.Map{"count": len(list), "jobs": list})
}

func mapJobError(err error) error {
	switch {
	case errors.Is(err, scrapejob.ErrJobNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "job not found", nil, err)
	case errors.Is(err, scrapejob.ErrResultNotFound):
		return middleware.NewAppError(fiber.StatusGone, "job result no longer available", nil, err)
	case errors.Is(err, jobs.ErrQueueFull), errors.Is(err, jobs.ErrClosed):
		return middleware.NewAppError(fiber.StatusServiceUnavailable, err.Error(), nil, err)
	case errors.Is(err, jobs.ErrInvalidBudget):
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, "", nil, err)
	}
}

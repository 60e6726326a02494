package handler

import (
	"context"
	"errors"
	"log"

	"funda-scraper/internal/delivery/http/middleware"
	"funda-scraper/internal/pkg/response"
	"funda-scraper/internal/scraper"

	"github.com/gofiber/fiber/v3"
)

type SyncScraper interface {
	Run(ctx context.Context, budget int) (scraper.RunResult, error)
}

type ScrapeHandler struct {
	scraper SyncScraper
	limits  PageLimits
	logger  *log.Logger
}

func NewScrapeHandler(s SyncScraper, limits PageLimits, logger *log.Logger) *ScrapeHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &ScrapeHandler{scraper: s, limits: limits, logger: logger}
}

// HandleScrape runs a scrape inline. Once a session is open every failure
// degrades to a partial result.
func (h *ScrapeHandler) HandleScrape(c fiber.Ctx) error {
	pages, err := h.limits.parse(c)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	}

	res, err := h.scraper.Run(c.Context(), pages)
	if err != nil {
		if errors.Is(err, scraper.ErrSessionOpen) {
			return middleware.NewAppError(fiber.StatusBadGateway, "could not open browsing session", nil, err)
		}
		h.logger.Printf("scrape_handler status=partial pages=%d records=%d err=%v", pages, len(res.Records), err)
	}

	return response.Success(c, fiber.StatusOK, fiber.Map{
		"count":         len(res.Records),
		"items":         itemsOrEmpty(res.Records),
		"blocked":       res.Blocked,
		"stop_reason":   res.StopReason,
		"pages_visited": res.PagesVisited,
	})
}

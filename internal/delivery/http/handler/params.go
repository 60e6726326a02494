package handler

import (
	"fmt"
	"strconv"
	"strings"

	"funda-scraper/internal/domain/listing"

	"github.com/gofiber/fiber/v3"
)

// PageLimits bounds the pages query parameter.
type PageLimits struct {
	Default int
	Max     int
}

func (l PageLimits) parse(c fiber.Ctx) (int, error) {
	raw := strings.TrimSpace(c.Query("pages"))
	if raw == "" {
		return l.Default, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("pages must be an integer")
	}
	if n < 1 || (l.Max > 0 && n > l.Max) {
		return 0, fmt.Errorf("pages must be between 1 and %d", l.Max)
	}
	return n, nil
}

func itemsOrEmpty(records []listing.Record) []listing.Record {
	if records == nil {
		return []listing.Record{}
	}
	return records
}

package scraper

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"funda-scraper/internal/domain/listing"
	"funda-scraper/internal/domain/scrapejob"

	"golang.org/x/time/rate"
)

// PageURLFunc maps a 1-based page number to its URL.
type PageURLFunc func(page int) string

// SearchPageURL keeps page 1 as the search URL and appends search_result=n
// for later pages.
func SearchPageURL(searchURL string) PageURLFunc {
	searchURL = strings.TrimSpace(searchURL)
	return func(page int) string {
		if page <= 1 {
			return searchURL
		}
		sep := "?"
		if strings.Contains(searchURL, "?") {
			sep = "&"
		}
		return searchURL + sep + "search_result=" + strconv.Itoa(page)
	}
}

type PaginatorConfig struct {
	// PageDelay is the minimum spacing between page fetches.
	PageDelay time.Duration
}

type RunResult struct {
	Records      []listing.Record
	PagesVisited int
	LastPage     int
	SkippedPages []int
	Blocked      bool
	StopReason   scrapejob.StopReason
}

// Paginator walks result pages 1..budget over a single session.
type Paginator struct {
	session Session
	parser  *Parser
	pageURL PageURLFunc
	limiter *rate.Limiter
	logger  *log.Logger
}

func NewPaginator(session Session, parser *Parser, pageURL PageURLFunc, cfg PaginatorConfig, logger *log.Logger) *Paginator {
	if logger == nil {
		logger = log.Default()
	}
	p := &Paginator{session: session, parser: parser, pageURL: pageURL, logger: logger}
	if cfg.PageDelay > 0 {
		p.limiter = rate.NewLimiter(rate.Every(cfg.PageDelay), 1)
	}
	return p
}

// Run returns the records collected before the first stop condition. It
// fails only when the session cannot be opened or ctx ends.
func (p *Paginator) Run(ctx context.Context, budget int) (RunResult, error) {
	res := RunResult{Records: []listing.Record{}}
	if budget < 1 {
		return res, ErrInvalidBudget
	}
	if err := p.session.OpenOrigin(ctx); err != nil {
		return res, fmt.Errorf("%w: %w", ErrSessionOpen, err)
	}

	for n := 1; n <= budget; n++ {
		if err := p.wait(ctx); err != nil {
			res.StopReason = scrapejob.StopAborted
			return res, err
		}
		res.LastPage = n

		page, err := p.fetch(ctx, n)
		if err != nil {
			if ctx.Err() != nil {
				res.StopReason = scrapejob.StopAborted
				return res, ctx.Err()
			}
			p.logger.Printf("paginator page=%d status=skipped err=%v", n, err)
			res.SkippedPages = append(res.SkippedPages, n)
			continue
		}
		res.PagesVisited++

		if page.Blocked {
			p.logger.Printf("paginator page=%d status=blocked title=%q url=%s", n, page.Title, page.FinalURL)
			res.Blocked = true
			res.StopReason = scrapejob.StopBlocked
			return res, nil
		}

		if page.Empty() {
			p.logger.Printf("paginator page=%d status=empty action=soft_retry title=%q url=%s", n, page.Title, page.FinalURL)
			retry, err := p.fetch(ctx, n)
			switch {
			case err != nil && ctx.Err() != nil:
				res.StopReason = scrapejob.StopAborted
				return res, ctx.Err()
			case err == nil && retry.Blocked:
				res.Blocked = true
				res.StopReason = scrapejob.StopBlocked
				return res, nil
			case err != nil || retry.Empty():
				p.logger.Printf("paginator page=%d status=end_of_results title=%q url=%s", n, retry.Title, retry.FinalURL)
				res.StopReason = scrapejob.StopEndOfResults
				return res, nil
			}
			page = retry
		}

		p.logger.Printf("paginator page=%d status=ok listings=%d", n, len(page.Records))
		res.Records = append(res.Records, page.Records...)
	}

	res.StopReason = scrapejob.StopBudgetExhausted
	return res, nil
}

func (p *Paginator) fetch(ctx context.Context, n int) (listing.PageResult, error) {
	snap, err := p.session.GotoPage(ctx, p.pageURL(n))
	if err != nil {
		return listing.PageResult{}, err
	}
	return p.parser.ParseSnapshot(snap), nil
}

func (p *Paginator) wait(ctx context.Context) error {
	if p.limiter == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}

package scraper

import (
	"context"
	"fmt"
	"log"
)

// Runner opens a fresh session for every run and always closes it.
type Runner struct {
	newSession SessionFactory
	parser     *Parser
	pageURL    PageURLFunc
	cfg        PaginatorConfig
	logger     *log.Logger
}

func NewRunner(newSession SessionFactory, parser *Parser, pageURL PageURLFunc, cfg PaginatorConfig, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{newSession: newSession, parser: parser, pageURL: pageURL, cfg: cfg, logger: logger}
}

func (r *Runner) Run(ctx context.Context, budget int) (RunResult, error) {
	if budget < 1 {
		return RunResult{}, ErrInvalidBudget
	}
	session, err := r.newSession(ctx)
	if err != nil {
		return RunResult{}, fmt.Errorf("%w: %w", ErrSessionOpen, err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			r.logger.Printf("runner step=close_session status=error err=%v", err)
		}
	}()

	res, err := NewPaginator(session, r.parser, r.pageURL, r.cfg, r.logger).Run(ctx, budget)
	if err != nil {
		r.logger.Printf("runner status=error pages=%d records=%d err=%v", res.PagesVisited, len(res.Records), err)
		return res, err
	}
	r.logger.Printf("runner status=ok stop=%s pages=%d records=%d blocked=%t", res.StopReason, res.PagesVisited, len(res.Records), res.Blocked)
	return res, nil
}

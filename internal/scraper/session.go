package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

var (
	ErrSessionOpen   = errors.New("failed to open scraping session")
	ErrNavigation    = errors.New("navigation failed")
	ErrInvalidBudget = errors.New("page budget must be at least 1")
)

const (
	FetchModeDynamic = "dynamic"
	FetchModeStatic  = "static"
)

// PageSnapshot is what a session saw after loading one URL.
type PageSnapshot struct {
	HTML  string
	Title string
	URL   string
}

// Session owns one browser or HTTP session for the lifetime of a run.
// Implementations are not safe for concurrent use.
type Session interface {
	OpenOrigin(ctx context.Context) error
	GotoPage(ctx context.Context, pageURL string) (PageSnapshot, error)
	Close() error
}

type SessionFactory func(ctx context.Context) (Session, error)

type SessionConfig struct {
	BaseURL        string
	Headless       bool
	UserAgent      string
	AcceptLanguage string
	ChromePath     string
	WaitSelector   string

	PageTimeout    time.Duration
	WaitTimeout    time.Duration
	ConsentTimeout time.Duration
	SettleDelay    time.Duration

	NavRetries   int
	RetryBackoff time.Duration
}

func (c SessionConfig) withDefaults() SessionConfig {
	if strings.TrimSpace(c.UserAgent) == "" {
		c.UserAgent = DefaultUserAgent
	}
	if strings.TrimSpace(c.AcceptLanguage) == "" {
		c.AcceptLanguage = DefaultAcceptLanguage
	}
	if strings.TrimSpace(c.WaitSelector) == "" {
		c.WaitSelector = ListingsRegionSelector
	}
	if c.PageTimeout <= 0 {
		c.PageTimeout = 30 * time.Second
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = 15 * time.Second
	}
	if c.ConsentTimeout <= 0 {
		c.ConsentTimeout = 15 * time.Second
	}
	if c.NavRetries <= 0 {
		c.NavRetries = 1
	}
	return c
}

func (c SessionConfig) retryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: c.NavRetries, Backoff: c.RetryBackoff}
}

// NewSessionFactory returns a factory producing a fresh session per call.
func NewSessionFactory(mode string, cfg SessionConfig, logger *log.Logger) (SessionFactory, error) {
	if logger == nil {
		logger = log.Default()
	}
	cfg = cfg.withDefaults()
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", FetchModeDynamic:
		return func(ctx context.Context) (Session, error) {
			return NewChromeSession(ctx, cfg, logger)
		}, nil
	case FetchModeStatic:
		return func(ctx context.Context) (Session, error) {
			return NewStaticSession(cfg, logger), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown fetch mode %q", mode)
	}
}

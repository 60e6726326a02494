package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"funda-scraper/internal/config"
	"funda-scraper/internal/database"
	dbpostgres "funda-scraper/internal/database/postgres"
	"funda-scraper/internal/infrastructure/cache"
	pgstore "funda-scraper/internal/infrastructure/persistence/postgres"
	"funda-scraper/internal/jobs"
	"funda-scraper/internal/pkg/jwt"
	"funda-scraper/internal/scraper"
	"funda-scraper/internal/ws"
)

type Container struct {
	Config  config.Config
	Logger  *log.Logger
	Runner  *scraper.Runner
	Manager *jobs.Manager
	Hub     *ws.Hub
	JWT     jwt.Service

	closers []io.Closer
}

func NewLogger() *log.Logger {
	return log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)
}

// SessionConfig maps scraper settings onto the session navigator.
func SessionConfig(cfg config.ScraperConfig) scraper.SessionConfig {
	return scraper.SessionConfig{
		BaseURL:        cfg.BaseURL,
		Headless:       cfg.Headless,
		UserAgent:      cfg.UserAgent,
		AcceptLanguage: cfg.AcceptLanguage,
		ChromePath:     cfg.ChromePath,
		PageTimeout:    cfg.PageTimeout,
		WaitTimeout:    cfg.WaitTimeout,
		ConsentTimeout: cfg.ConsentTimeout,
		SettleDelay:    cfg.SettleDelay,
		NavRetries:     cfg.NavRetries,
		RetryBackoff:   cfg.RetryBackoff,
	}
}

// NewRunner builds the extraction pipeline for one fetch mode.
func NewRunner(cfg config.ScraperConfig, logger *log.Logger) (*scraper.Runner, error) {
	extractor, err := scraper.NewExtractor(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	factory, err := scraper.NewSessionFactory(cfg.FetchMode, SessionConfig(cfg), logger)
	if err != nil {
		return nil, err
	}
	return scraper.NewRunner(
		factory,
		scraper.NewParser(extractor),
		scraper.SearchPageURL(cfg.SearchURL),
		scraper.PaginatorConfig{PageDelay: cfg.PageDelay},
		logger,
	), nil
}

func NewContainer(cfg config.Config, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = NewLogger()
	}
	c := &Container{Config: cfg, Logger: logger}

	runner, err := NewRunner(cfg.Scraper, logger)
	if err != nil {
		return nil, fmt.Errorf("scraper: %w", err)
	}
	c.Runner = runner

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := c.newResultStore(ctx)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("result store: %w", err)
	}

	c.Hub = ws.NewHub(logger)
	c.Manager = jobs.NewManager(
		jobs.Config{
			Workers:   cfg.Jobs.MaxWorkers,
			QueueSize: cfg.Jobs.QueueSize,
			Retention: cfg.Jobs.Retention,
		},
		runner,
		store,
		logger,
		jobs.WithNotifier(ws.NewJobNotifier(c.Hub)),
	)

	if cfg.Auth.JWTSecret != "" {
		c.JWT = jwt.NewHMACService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
		logger.Printf("[Auth] bearer tokens required on /scrape")
	}

	return c, nil
}

func (c *Container) newResultStore(ctx context.Context) (jobs.ResultStore, error) {
	switch c.Config.Jobs.ResultStore {
	case "redis":
		r, err := cache.NewRedis(ctx, c.Config.Redis, c.Logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, r)
		return cache.NewResultStore(r, c.Config.Redis.ResultTTL), nil

	case "postgres":
		db, err := dbpostgres.Connect(ctx, c.Config.Database)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, dbCloser{db})
		s := pgstore.NewResultStore(db)
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		c.Logger.Printf("[Store] postgres result store ready db=%s", c.Config.Database.DBName)
		return s, nil

	default:
		s, err := jobs.NewFileStore(c.Config.Jobs.ResultDir)
		if err != nil {
			return nil, err
		}
		c.Logger.Printf("[Store] file result store ready dir=%s", c.Config.Jobs.ResultDir)
		return s, nil
	}
}

type dbCloser struct{ db database.DB }

func (d dbCloser) Close() error { return d.db.Close() }

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"funda-scraper/internal/app"
	"funda-scraper/internal/config"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("failed to read .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := app.NewLogger()
	c, err := app.NewContainer(cfg, logger)
	if err != nil {
		log.Fatalf("failed to init container: %v", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Printf("cleanup error: %v", err)
		}
	}()

	addr, err := app.ListenAddr(cfg.App.HTTPPort)
	if err != nil {
		log.Fatalf("invalid HTTP port: %v", err)
	}

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()

	go c.Hub.Run(runCtx)
	c.Manager.Start(runCtx)

	server := app.New(c)

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("server starting | addr=%s env=%s fetch_mode=%s store=%s", addr, cfg.App.Environment, cfg.Scraper.FetchMode, cfg.Jobs.ResultStore)
		errCh <- server.Fiber.Listen(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Printf("server error: %v", err)
		}
	case <-sigCh:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Fiber.ShutdownWithContext(ctx); err != nil {
			logger.Printf("shutdown error: %v", err)
		}
	}

	jobsCtx, cancelJobs := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelJobs()
	if err := c.Manager.Shutdown(jobsCtx); err != nil {
		logger.Printf("job manager shutdown: %v", err)
		stopRun()
	}
}

package app

import (
	"io"
	"log"
	"net/http/httptest"
	"testing"
	"time"

	"funda-scraper/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		App: config.AppConfig{AppName: "funda-scraper", Environment: "test", HTTPPort: "8000"},
		Scraper: config.ScraperConfig{
			BaseURL:      "https://www.funda.nl",
			SearchURL:    config.DefaultSearchURL,
			FetchMode:    "static",
			PageTimeout:  time.Second,
			WaitTimeout:  time.Second,
			NavRetries:   1,
			DefaultPages: 1,
			MaxPages:     5,
		},
		Jobs: config.JobsConfig{MaxWorkers: 1, QueueSize: 1, ResultStore: "file", ResultDir: t.TempDir()},
	}
}

func TestListenAddr(t *testing.T) {
	cases := map[string]string{"8000": ":8000", ":9000": ":9000", " 80 ": ":80"}
	for in, want := range cases {
		got, err := ListenAddr(in)
		if err != nil || got != want {
			t.Fatalf("ListenAddr(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ListenAddr("  "); err == nil {
		t.Fatalf("expected error for empty port")
	}
}

func TestSessionConfig_MapsScraperSettings(t *testing.T) {
	cfg := testConfig(t).Scraper
	cfg.Headless = true
	cfg.SettleDelay = 2 * time.Second
	cfg.RetryBackoff = 3 * time.Second

	sc := SessionConfig(cfg)
	if sc.BaseURL != cfg.BaseURL || !sc.Headless || sc.SettleDelay != 2*time.Second || sc.RetryBackoff != 3*time.Second {
		t.Fatalf("unexpected session config: %+v", sc)
	}
}

func TestNewContainer_UnknownFetchMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scraper.FetchMode = "carrier-pigeon"

	if _, err := NewContainer(cfg, log.New(io.Discard, "", 0)); err == nil {
		t.Fatalf("expected error for unknown fetch mode")
	}
}

func TestNew_ServesHealthAndValidatesPages(t *testing.T) {
	c, err := NewContainer(testConfig(t), log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("container: %v", err)
	}
	defer func() { _ = c.Close() }()

	if c.JWT != nil {
		t.Fatalf("expected no token service without a secret")
	}

	a := New(c)

	resp, err := a.Fiber.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}

	resp, err = a.Fiber.Test(httptest.NewRequest("GET", "/scrape/start?pages=99", nil))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400 for pages above max, got %d", resp.StatusCode)
	}
}

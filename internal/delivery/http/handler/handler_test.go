package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http/httptest"
	"testing"

	"funda-scraper/internal/delivery/http/middleware"
	"funda-scraper/internal/domain/listing"
	"funda-scraper/internal/domain/scrapejob"
	"funda-scraper/internal/jobs"
	"funda-scraper/internal/scraper"

	"github.com/gofiber/fiber/v3"
)

type fakeScraper struct {
	res    scraper.RunResult
	err    error
	budget int
}

func (f *fakeScraper) Run(_ context.Context, budget int) (scraper.RunResult, error) {
	f.budget = budget
	return f.res, f.err
}

type fakeJobs struct {
	submitted []int
	submitErr error
	jobs      map[string]scrapejob.Job
	records   map[string][]listing.Record
	resultErr error
}

func (f *fakeJobs) Submit(budget int) (scrapejob.Job, error) {
	if f.submitErr != nil {
		return scrapejob.Job{}, f.submitErr
	}
	f.submitted = append(f.submitted, budget)
	return scrapejob.Job{ID: "job-1", Status: scrapejob.StatusQueued, PageBudget: budget}, nil
}

func (f *fakeJobs) Status(id string) (scrapejob.Job, error) {
	job, ok := f.jobs[id]
	if !ok {
		return scrapejob.Job{}, scrapejob.ErrJobNotFound
	}
	return job, nil
}

func (f *fakeJobs) Result(_ context.Context, id string) (scrapejob.Job, []listing.Record, error) {
	job, err := f.Status(id)
	if err != nil {
		return job, nil, err
	}
	if job.Status != scrapejob.StatusDone {
		return job, nil, scrapejob.ErrJobNotReady
	}
	if f.resultErr != nil {
		return job, nil, f.resultErr
	}
	return job, f.records[id], nil
}

func (f *fakeJobs) List() []scrapejob.Job {
	out := make([]scrapejob.Job, 0, len(f.jobs))
	for _, j := range f.jobs {
		out = append(out, j)
	}
	return out
}

var testLimits = PageLimits{Default: 3, Max: 10}

func newTestApp(s SyncScraper, j JobService) *fiber.App {
	logger := log.New(io.Discard, "", 0)
	app := fiber.New()
	app.Use(middleware.NewErrorMiddleware(logger).Middleware())

	NewHealthHandler().RegisterRoutes(app)
	sh := NewScrapeHandler(s, testLimits, logger)
	jh := NewJobHandler(j, testLimits)
	app.Get("/scrape", sh.HandleScrape)
	app.Get("/scrape/start", jh.HandleStart)
	app.Get("/scrape/status/:job_id", jh.HandleStatus)
	app.Get("/scrape/result/:job_id", jh.HandleResult)
	app.Get("/scrape/jobs", jh.HandleList)
	return app
}

func doGet(t *testing.T, app *fiber.App, target string) (int, map[string]any) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	if err != nil {
		t.Fatalf("request %s: %v", target, err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", target, err)
	}
	return resp.StatusCode, body
}

func TestHealth(t *testing.T) {
	app := newTestApp(&fakeScraper{}, &fakeJobs{})

	status, body := doGet(t, app, "/health")
	if status != fiber.StatusOK || body["ok"] != true {
		t.Fatalf("expected 200 ok=true, got %d %v", status, body)
	}
}

func TestScrape_DefaultsPagesAndReturnsItems(t *testing.T) {
	s := &fakeScraper{res: scraper.RunResult{
		Records:      []listing.Record{{Link: "https://www.funda.nl/detail/koop/a/1/", Address: "Damrak 1", Locality: listing.NotAvailable, Price: "€ 1", Agent: listing.NotAvailable}},
		PagesVisited: 2,
		StopReason:   scrapejob.StopEndOfResults,
	}}
	app := newTestApp(s, &fakeJobs{})

	status, body := doGet(t, app, "/scrape")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if s.budget != testLimits.Default {
		t.Fatalf("expected default budget %d, got %d", testLimits.Default, s.budget)
	}
	if body["count"] != float64(1) || body["stop_reason"] != "end_of_results" || body["pages_visited"] != float64(2) {
		t.Fatalf("unexpected body: %v", body)
	}
	items, ok := body["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one item, got %v", body["items"])
	}
}

func TestScrape_RejectsInvalidPages(t *testing.T) {
	app := newTestApp(&fakeScraper{}, &fakeJobs{})

	for _, q := range []string{"0", "-1", "abc", "11", "2.5"} {
		status, body := doGet(t, app, "/scrape?pages="+q)
		if status != fiber.StatusBadRequest {
			t.Fatalf("pages=%s: expected 400, got %d", q, status)
		}
		if body["ok"] != false || body["error"] == "" {
			t.Fatalf("pages=%s: unexpected body %v", q, body)
		}
	}
}

func TestScrape_SessionOpenFailureIsBadGateway(t *testing.T) {
	s := &fakeScraper{err: fmt.Errorf("%w: chrome missing", scraper.ErrSessionOpen)}
	app := newTestApp(s, &fakeJobs{})

	status, body := doGet(t, app, "/scrape?pages=1")
	if status != fiber.StatusBadGateway || body["ok"] != false {
		t.Fatalf("expected 502 ok=false, got %d %v", status, body)
	}
}

func TestScrape_MidRunFailureReturnsPartial(t *testing.T) {
	s := &fakeScraper{
		res: scraper.RunResult{Records: []listing.Record{listing.Blank()}, PagesVisited: 1, StopReason: scrapejob.StopAborted},
		err: context.DeadlineExceeded,
	}
	app := newTestApp(s, &fakeJobs{})

	status, body := doGet(t, app, "/scrape?pages=4")
	if status != fiber.StatusOK || body["ok"] != true || body["count"] != float64(1) {
		t.Fatalf("expected partial 200, got %d %v", status, body)
	}
}

func TestScrape_BlockedEmptyIsDistinct(t *testing.T) {
	s := &fakeScraper{res: scraper.RunResult{Blocked: true, PagesVisited: 1, StopReason: scrapejob.StopBlocked}}
	app := newTestApp(s, &fakeJobs{})

	_, body := doGet(t, app, "/scrape?pages=1")
	if body["blocked"] != true || body["count"] != float64(0) {
		t.Fatalf("expected blocked empty result, got %v", body)
	}
	if items, ok := body["items"].([]any); !ok || len(items) != 0 {
		t.Fatalf("expected empty items array, got %v", body["items"])
	}
}

func TestStart_Accepted(t *testing.T) {
	j := &fakeJobs{}
	app := newTestApp(&fakeScraper{}, j)

	status, body := doGet(t, app, "/scrape/start?pages=5")
	if status != fiber.StatusAccepted {
		t.Fatalf("expected 202, got %d", status)
	}
	if body["job_id"] != "job-1" || body["pages"] != float64(5) || body["status"] != "QUEUED" {
		t.Fatalf("unexpected body: %v", body)
	}
	if len(j.submitted) != 1 || j.submitted[0] != 5 {
		t.Fatalf("expected one submit with 5 pages, got %v", j.submitted)
	}
}

func TestStart_QueueFullIsUnavailable(t *testing.T) {
	app := newTestApp(&fakeScraper{}, &fakeJobs{submitErr: jobs.ErrQueueFull})

	status, _ := doGet(t, app, "/scrape/start")
	if status != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", status)
	}
}

func TestStatus_UnknownIsNotFound(t *testing.T) {
	app := newTestApp(&fakeScraper{}, &fakeJobs{})

	status, body := doGet(t, app, "/scrape/status/nope")
	if status != fiber.StatusNotFound || body["ok"] != false {
		t.Fatalf("expected 404, got %d %v", status, body)
	}
}

func TestStatus_ReturnsSnapshot(t *testing.T) {
	j := &fakeJobs{jobs: map[string]scrapejob.Job{
		"a": {ID: "a", Status: scrapejob.StatusRunning, PageBudget: 2},
	}}
	app := newTestApp(&fakeScraper{}, j)

	status, body := doGet(t, app, "/scrape/status/a")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	job, ok := body["job"].(map[string]any)
	if !ok || job["status"] != "RUNNING" || job["job_id"] != "a" {
		t.Fatalf("unexpected job: %v", body["job"])
	}
}

func TestResult_ByStatus(t *testing.T) {
	j := &fakeJobs{
		jobs: map[string]scrapejob.Job{
			"queued":  {ID: "queued", Status: scrapejob.StatusQueued},
			"running": {ID: "running", Status: scrapejob.StatusRunning},
			"failed":  {ID: "failed", Status: scrapejob.StatusFailed, Error: "boom"},
			"done":    {ID: "done", Status: scrapejob.StatusDone, Count: 2, StopReason: scrapejob.StopBudgetExhausted},
		},
		records: map[string][]listing.Record{"done": {listing.Blank(), listing.Blank()}},
	}
	app := newTestApp(&fakeScraper{}, j)

	for _, id := range []string{"queued", "running"} {
		status, body := doGet(t, app, "/scrape/result/"+id)
		if status != fiber.StatusAccepted || body["ok"] != false || body["error"] != "job not finished" {
			t.Fatalf("%s: unexpected %d %v", id, status, body)
		}
		if _, has := body["items"]; has {
			t.Fatalf("%s: unfinished job must not expose items", id)
		}
	}

	status, body := doGet(t, app, "/scrape/result/failed")
	if status != fiber.StatusOK || body["ok"] != false || body["status"] != "FAILED" || body["error"] != "boom" {
		t.Fatalf("failed: unexpected %d %v", status, body)
	}

	status, body = doGet(t, app, "/scrape/result/done")
	if status != fiber.StatusOK || body["ok"] != true || body["count"] != float64(2) || body["job_id"] != "done" {
		t.Fatalf("done: unexpected %d %v", status, body)
	}

	status, _ = doGet(t, app, "/scrape/result/missing")
	if status != fiber.StatusNotFound {
		t.Fatalf("missing: expected 404, got %d", status)
	}
}

func TestResult_ExpiredBlobIsGone(t *testing.T) {
	j := &fakeJobs{
		jobs:      map[string]scrapejob.Job{"done": {ID: "done", Status: scrapejob.StatusDone}},
		resultErr: fmt.Errorf("load result done: %w", scrapejob.ErrResultNotFound),
	}
	app := newTestApp(&fakeScraper{}, j)

	status, _ := doGet(t, app, "/scrape/result/done")
	if status != fiber.StatusGone {
		t.Fatalf("expected 410, got %d", status)
	}
}

func TestMapJobError_Unknown(t *testing.T) {
	err := mapJobError(errors.New("disk on fire"))
	var appErr *middleware.AppError
	if !errors.As(err, &appErr) || appErr.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("expected 500 app error, got %v", err)
	}
}

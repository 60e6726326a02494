package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"funda-scraper/internal/domain/listing"
	"funda-scraper/internal/domain/scrapejob"
	"funda-scraper/internal/scraper"

	"github.com/google/uuid"
)

var (
	ErrQueueFull     = errors.New("job queue is full")
	ErrInvalidBudget = errors.New("page budget must be at least 1")
	ErrClosed        = errors.New("job manager is shut down")
)

// Scraper runs one paginated scrape. Each call must use its own session.
type Scraper interface {
	Run(ctx context.Context, budget int) (scraper.RunResult, error)
}

type Notifier interface {
	JobUpdated(job scrapejob.Job)
}

type Config struct {
	Workers   int
	QueueSize int
	// Retention > 0 prunes finished jobs older than it. Zero keeps them
	// until restart.
	Retention time.Duration
}

type Option func(*Manager)

func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

// Manager runs scrape jobs asynchronously on a bounded worker pool.
type Manager struct {
	cfg      Config
	registry *Registry
	scraper  Scraper
	store    ResultStore
	notifier Notifier
	pool     *scraper.WorkerPool
	logger   *log.Logger
	now      func() time.Time
	newID    func() string

	startOnce sync.Once
	stopOnce  sync.Once
	drained   chan struct{}
	stopJan   chan struct{}
	janDone   chan struct{}
}

func NewManager(cfg Config, s Scraper, store ResultStore, logger *log.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 0 {
		cfg.QueueSize = 0
	}
	m := &Manager{
		cfg:      cfg,
		registry: NewRegistry(),
		scraper:  s,
		store:    store,
		pool:     scraper.NewWorkerPool(cfg.Workers, cfg.QueueSize),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
		drained:  make(chan struct{}),
		stopJan:  make(chan struct{}),
		janDone:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the workers. Jobs run under ctx.
func (m *Manager) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		results := m.pool.Run(ctx)
		go func() {
			defer close(m.drained)
			for r := range results {
				if r.Err != nil {
					m.logger.Printf("job_manager job_id=%s status=failed err=%v", r.ID, r.Err)
				}
			}
		}()
		go m.janitor()
	})
}

// Shutdown stops intake and waits for queued and running jobs to finish.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.startOnce.Do(func() {
		close(m.drained)
		close(m.janDone)
	})
	m.stopOnce.Do(func() {
		close(m.stopJan)
		m.pool.Close()
	})
	select {
	case <-m.drained:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-m.janDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) Submit(budget int) (scrapejob.Job, error) {
	if budget < 1 {
		return scrapejob.Job{}, ErrInvalidBudget
	}
	job := scrapejob.Job{
		ID:         m.newID(),
		Status:     scrapejob.StatusQueued,
		PageBudget: budget,
		CreatedAt:  m.now(),
	}
	if err := m.registry.Add(job); err != nil {
		return scrapejob.Job{}, err
	}

	// The QUEUED event goes out only for accepted jobs and always before
	// the worker reports RUNNING.
	announced := make(chan struct{})
	task := scraper.Task{ID: job.ID, Run: func(ctx context.Context) error {
		<-announced
		return m.execute(ctx, job.ID, budget)
	}}
	accepted := m.pool.TrySubmit(task)
	if accepted {
		m.notify(job)
	}
	close(announced)
	if !accepted {
		m.registry.Remove(job.ID)
		select {
		case <-m.stopJan:
			return scrapejob.Job{}, ErrClosed
		default:
			return scrapejob.Job{}, ErrQueueFull
		}
	}
	m.logger.Printf("job_manager job_id=%s step=submit status=queued pages=%d", job.ID, budget)
	return job, nil
}

func (m *Manager) Status(id string) (scrapejob.Job, error) {
	return m.registry.Get(id)
}

// Result returns records only for DONE jobs. For any other state it returns
// the snapshot and ErrJobNotReady, or the snapshot and the failure detail.
func (m *Manager) Result(ctx context.Context, id string) (scrapejob.Job, []listing.Record, error) {
	job, err := m.registry.Get(id)
	if err != nil {
		return scrapejob.Job{}, nil, err
	}
	if job.Status != scrapejob.StatusDone {
		return job, nil, scrapejob.ErrJobNotReady
	}
	records, err := m.store.Get(ctx, job.ResultRef)
	if err != nil {
		return job, nil, fmt.Errorf("load result %s: %w", job.ID, err)
	}
	return job, records, nil
}

func (m *Manager) List() []scrapejob.Job {
	return m.registry.List()
}

// Prune drops terminal jobs that finished before now-olderThan, together
// with their stored results.
func (m *Manager) Prune(ctx context.Context, olderThan time.Duration) int {
	cutoff := m.now().Add(-olderThan)
	pruned := 0
	for _, job := range m.registry.List() {
		if !job.Status.Terminal() || job.FinishedAt == nil || job.FinishedAt.After(cutoff) {
			continue
		}
		if job.ResultRef != "" {
			if err := m.store.Delete(ctx, job.ResultRef); err != nil {
				m.logger.Printf("job_manager job_id=%s step=prune status=error err=%v", job.ID, err)
				continue
			}
		}
		m.registry.Remove(job.ID)
		pruned++
	}
	if pruned > 0 {
		m.logger.Printf("job_manager step=prune status=ok pruned=%d", pruned)
	}
	return pruned
}

func (m *Manager) execute(ctx context.Context, id string, budget int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
			m.fail(id, err)
		}
	}()

	started := m.now()
	if _, err := m.transition(id, func(j *scrapejob.Job) {
		j.Status = scrapejob.StatusRunning
		j.StartedAt = &started
	}); err != nil {
		return err
	}

	res, err := m.scraper.Run(ctx, budget)
	if err != nil {
		m.fail(id, err)
		return err
	}

	ref, err := m.store.Put(ctx, id, res.Records)
	if err != nil {
		err = fmt.Errorf("store result: %w", err)
		m.fail(id, err)
		return err
	}

	finished := m.now()
	_, err = m.transition(id, func(j *scrapejob.Job) {
		j.Status = scrapejob.StatusDone
		j.Count = len(res.Records)
		j.Blocked = res.Blocked
		j.StopReason = res.StopReason
		j.ResultRef = ref
		j.FinishedAt = &finished
	})
	return err
}

func (m *Manager) fail(id string, cause error) {
	cur, err := m.registry.Get(id)
	if err != nil || cur.Status.Terminal() {
		return
	}
	if cur.Status == scrapejob.StatusQueued {
		started := m.now()
		if _, err := m.transition(id, func(j *scrapejob.Job) {
			j.Status = scrapejob.StatusRunning
			j.StartedAt = &started
		}); err != nil {
			return
		}
	}
	finished := m.now()
	_, _ = m.transition(id, func(j *scrapejob.Job) {
		j.Status = scrapejob.StatusFailed
		j.Error = cause.Error()
		j.FinishedAt = &finished
	})
}

func (m *Manager) transition(id string, fn func(*scrapejob.Job)) (scrapejob.Job, error) {
	job, err := m.registry.Update(id, fn)
	if err != nil {
		m.logger.Printf("job_manager job_id=%s step=transition status=error err=%v", id, err)
		return job, err
	}
	m.logger.Printf("job_manager job_id=%s step=transition status=%s count=%d blocked=%t", id, job.Status, job.Count, job.Blocked)
	m.notify(job)
	return job, nil
}

func (m *Manager) notify(job scrapejob.Job) {
	if m.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			m.logger.Printf("job_manager job_id=%s step=notify status=error err=%v", job.ID, r)
		}
	}()
	m.notifier.JobUpdated(job)
}

func (m *Manager) janitor() {
	defer close(m.janDone)
	if m.cfg.Retention <= 0 {
		<-m.stopJan
		return
	}
	interval := m.cfg.Retention / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-m.stopJan:
			return
		case <-t.C:
			m.Prune(context.Background(), m.cfg.Retention)
		}
	}
}

package jobs

import (
	"fmt"
	"sort"
	"sync"

	"funda-scraper/internal/domain/scrapejob"
)

// Registry is the only shared job state. Reads return copies so callers
// never observe a half-applied transition.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]scrapejob.Job
}

func NewRegistry() *Registry {
	return &Registry{jobs: map[string]scrapejob.Job{}}
}

func (r *Registry) Add(job scrapejob.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; ok {
		return fmt.Errorf("job %s already registered", job.ID)
	}
	r.jobs[job.ID] = job
	return nil
}

func (r *Registry) Get(id string) (scrapejob.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return scrapejob.Job{}, scrapejob.ErrJobNotFound
	}
	return job, nil
}

// Update applies fn to a copy of the job and stores it only if any status
// change is a legal forward transition.
func (r *Registry) Update(id string, fn func(*scrapejob.Job)) (scrapejob.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.jobs[id]
	if !ok {
		return scrapejob.Job{}, scrapejob.ErrJobNotFound
	}
	next := cur
	fn(&next)
	next.ID = cur.ID
	if next.Status != cur.Status && !scrapejob.CanTransition(cur.Status, next.Status) {
		return cur, fmt.Errorf("%w: %s -> %s", scrapejob.ErrInvalidTransition, cur.Status, next.Status)
	}
	r.jobs[id] = next
	return next, nil
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
}

// List returns all jobs, oldest first.
func (r *Registry) List() []scrapejob.Job {
	r.mu.RLock()
	out := make([]scrapejob.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, k int) bool {
		if out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].ID < out[k].ID
		}
		return out[i].CreatedAt.Before(out[k].CreatedAt)
	})
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

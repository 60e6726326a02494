package scrapejob

import (
	"errors"
	"time"
)

type Status string

const (
	StatusQueued  Status = "QUEUED"
	StatusRunning Status = "RUNNING"
	StatusDone    Status = "DONE"
	StatusFailed  Status = "FAILED"
)

type StopReason string

const (
	StopNone            StopReason = ""
	StopEndOfResults    StopReason = "end_of_results"
	StopBlocked         StopReason = "blocked"
	StopBudgetExhausted StopReason = "budget_exhausted"
	StopAborted         StopReason = "aborted"
)

var (
	ErrJobNotFound       = errors.New("job not found")
	ErrJobNotReady       = errors.New("job not finished")
	ErrInvalidTransition = errors.New("invalid job state transition")
	ErrResultNotFound    = errors.New("stored result not found")
)

// Job is a value snapshot; the registry never hands out pointers to its own copy.
type Job struct {
	ID         string     `json:"job_id"`
	Status     Status     `json:"status"`
	PageBudget int        `json:"pages"`
	Count      int        `json:"count"`
	Blocked    bool       `json:"blocked"`
	StopReason StopReason `json:"stop_reason,omitempty"`
	ResultRef  string     `json:"-"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func (s Status) rank() int {
	switch s {
	case StatusQueued:
		return 0
	case StatusRunning:
		return 1
	case StatusDone, StatusFailed:
		return 2
	default:
		return -1
	}
}

func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// CanTransition reports whether a job may move from one status to another.
// Only QUEUED -> RUNNING and RUNNING -> DONE|FAILED are allowed.
func CanTransition(from, to Status) bool {
	if from.rank() < 0 || to.rank() < 0 {
		return false
	}
	return to.rank() == from.rank()+1 && !from.Terminal()
}

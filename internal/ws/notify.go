package ws

import (
	"encoding/json"
	"time"

	"funda-scraper/internal/domain/scrapejob"
)

const EventJobUpdated = "job_updated"

type JobUpdatedEvent struct {
	Type       string               `json:"type"`
	JobID      string               `json:"job_id"`
	Status     scrapejob.Status     `json:"status"`
	Count      int                  `json:"count"`
	Blocked    bool                 `json:"blocked"`
	StopReason scrapejob.StopReason `json:"stop_reason,omitempty"`
	Error      string               `json:"error,omitempty"`
	Timestamp  string               `json:"timestamp"`
}

// JobNotifier publishes job transitions on a hub.
type JobNotifier struct {
	hub *Hub
	now func() time.Time
}

func NewJobNotifier(hub *Hub) *JobNotifier {
	return &JobNotifier{hub: hub, now: time.Now}
}

func (n *JobNotifier) JobUpdated(job scrapejob.Job) {
	if n == nil || n.hub == nil {
		return
	}
	b, err := json.Marshal(NewJobUpdatedEvent(job, n.now()))
	if err != nil {
		return
	}
	n.hub.Broadcast(b)
}

func NewJobUpdatedEvent(job scrapejob.Job, at time.Time) JobUpdatedEvent {
	return JobUpdatedEvent{
		Type:       EventJobUpdated,
		JobID:      job.ID,
		Status:     job.Status,
		Count:      job.Count,
		Blocked:    job.Blocked,
		StopReason: job.StopReason,
		Error:      job.Error,
		Timestamp:  at.UTC().Format(time.RFC3339),
	}
}

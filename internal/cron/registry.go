package cron

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Job is a unit of maintenance work run by cmd/cron-worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type scheduledJob struct {
	job     Job
	every   time.Duration
	lastRun time.Time
}

// Registry keeps jobs with their cadence and when each last started.
type Registry struct {
	mu     sync.Mutex
	order  []string
	byName map[string]*scheduledJob
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]*scheduledJob{}}
}

// Register schedules job to run once every interval. Names must be unique.
func (r *Registry) Register(job Job, every time.Duration) error {
	if job == nil {
		return errors.New("cron job is required")
	}
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return errors.New("cron job name is required")
	}
	if every <= 0 {
		return fmt.Errorf("cron job %s: interval must be positive", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("cron job %s already registered", name)
	}
	r.byName[name] = &scheduledJob{job: job, every: every}
	r.order = append(r.order, name)
	return nil
}

// Jobs returns every registered job in registration order.
func (r *Registry) Jobs() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	jobs := make([]Job, 0, len(r.order))
	for _, name := range r.order {
		jobs = append(jobs, r.byName[name].job)
	}
	return jobs
}

// Due returns the jobs that never ran or whose interval has elapsed at now.
func (r *Registry) Due(now time.Time) []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []Job
	for _, name := range r.order {
		entry := r.byName[name]
		if entry.lastRun.IsZero() || now.Sub(entry.lastRun) >= entry.every {
			due = append(due, entry.job)
		}
	}
	return due
}

// MarkRan records a start time. Failed runs count too, so a broken job waits its interval.
func (r *Registry) MarkRan(name string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.byName[name]; ok {
		entry.lastRun = at
	}
}

// MinInterval is the shortest registered cadence, or 0 when empty.
func (r *Registry) MinInterval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	var shortest time.Duration
	for _, entry := range r.byName {
		if shortest == 0 || entry.every < shortest {
			shortest = entry.every
		}
	}
	return shortest
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

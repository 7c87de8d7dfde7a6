package cron

import (
	"context"
	"fmt"
)

// Job represents a scheduled task run by the cron service.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry tracks registered cron jobs. Names are unique.
type Registry struct {
	jobs []Job
}

// NewRegistry builds a registry preloaded with the provided jobs. Nil jobs and
// repeated names are skipped.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{}
	for _, job := range jobs {
		_ = registry.Register(job)
	}
	return registry
}

// Register adds a job to the registry.
func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("job required")
	}
	for _, existing := range r.jobs {
		if existing.Name() == job.Name() {
			return fmt.Errorf("job %q already registered", job.Name())
		}
	}
	r.jobs = append(r.jobs, job)
	return nil
}

// Jobs returns the registered jobs in the order they were added.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}

// Names returns the registered job names in order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for _, job := range r.jobs {
		names = append(names, job.Name())
	}
	return names
}

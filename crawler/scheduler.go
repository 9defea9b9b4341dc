package crawler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Task is one unit of scheduled work. Tasks belonging to the same
// CronDefinition run concurrently with each other, never sequentially.
type Task func(ctx context.Context)

// CronDefinition binds a set of tasks to a recurring schedule. Name is used
// only for log correlation.
type CronDefinition struct {
	Name     string
	Schedule string // standard 5-field cron expression, or "@every 5m"-style descriptor
	Tasks    []Task
}

// Scheduler runs a set of CronDefinitions on a shared clock, recovering
// from a panic in any one task without affecting its siblings or other
// definitions.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

// NewScheduler builds a Scheduler whose tasks are bound to ctx; cancelling
// ctx causes all subsequently-fired tasks to observe cancellation
// immediately, though it does not stop the underlying cron clock — call
// Stop for that.
func NewScheduler(ctx context.Context, definitions []CronDefinition) (*Scheduler, error) {
	c := cron.New()
	s := &Scheduler{cron: c, ctx: ctx}

	for _, def := range definitions {
		def := def
		_, err := c.AddFunc(def.Schedule, func() { s.fire(def) })
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// fire runs every task of def concurrently, isolating each from the others'
// panics and errors.
func (s *Scheduler) fire(def CronDefinition) {
	for _, task := range def.Tasks {
		task := task
		go func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("scheduler: task panicked", "definition", def.Name, "recovered", r)
				}
			}()
			task(s.ctx)
		}()
	}
}

// Start begins firing scheduled tasks. Non-blocking.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the clock and waits for any in-flight cron dispatch to return.
// It does not wait for fired tasks themselves, which observe ctx
// cancellation independently.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

package learning

import (
	"context"

	"github.com/robfig/cron/v3"
)

// weeklySpec runs the extraction job every Sunday at 03:00.
const weeklySpec = "0 3 * * 0"

// Scheduler owns the cron instance driving the weekly extraction job.
type Scheduler struct {
	cron *cron.Cron
	loop *Loop
}

// NewScheduler wires the weekly job onto a fresh cron instance. Start must
// be called to begin scheduling.
func NewScheduler(loop *Loop) (*Scheduler, error) {
	c := cron.New()
	_, err := c.AddFunc(weeklySpec, func() {
		loop.RunScheduled(context.Background())
	})
	if err != nil {
		return nil, err
	}
	return &Scheduler{cron: c, loop: loop}, nil
}

// Start begins the schedule in its own goroutine.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

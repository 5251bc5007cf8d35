package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Refresher updates whatever work is outstanding and reports how many items
// changed.
type Refresher interface {
	RefreshPending(ctx context.Context) int
}

// Scheduler periodically polls the plate solver for unfinished submissions.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler. timeout bounds each polling run.
func New(refresher Refresher, interval, timeout time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		refresher: refresher,
		interval:  interval,
		timeout:   timeout,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.refresher == nil {
		log.Println("scheduler: nothing to poll; plate solving is disabled")
		return nil
	}

	seconds := int(s.interval.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	timeout := s.timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	_, err := s.scheduler.Every(seconds).Seconds().SingletonMode().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if changed := s.refresher.RefreshPending(ctx); changed > 0 {
			log.Printf("scheduler: %d submissions changed status", changed)
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

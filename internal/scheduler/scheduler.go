package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/nat12323/race-weather-tracker/internal/race"
)

// Scheduler periodically refreshes the external race snapshot so page loads
// are served from a warm cache instead of waiting on the third-party listing
// service.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *race.Service
	interval  time.Duration
}

// New creates a Scheduler.
func New(service *race.Service, interval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		interval:  interval,
	}
}

// Start schedules the periodic refresh and starts the underlying scheduler.
// The first refresh runs immediately so the cache is warm before traffic.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	_, err := s.scheduler.Every(interval).StartImmediately().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.service.RefreshExternal(ctx); err != nil {
			log.Printf("scheduler: external refresh failed: %v", err)
			return
		}
		log.Println("scheduler: refreshed external race snapshot")
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

package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/and3rn3t/weather-app-sub004/internal/config"
	"github.com/and3rn3t/weather-app-sub004/internal/weather"
)

// Scheduler periodically refreshes the cache for tracked locations so
// interactive requests are served warm.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *weather.Service
	locations []config.TrackedLocation
	interval  time.Duration
	log       *logrus.Logger
}

// New creates a new Scheduler.
func New(locations []config.TrackedLocation, interval time.Duration, service *weather.Service, log *logrus.Logger) *Scheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		locations: locations,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		s.log.Info("scheduler: no tracked locations configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		s.log.Debug("scheduler: refreshing tracked locations")

		var wg sync.WaitGroup
		for _, loc := range s.locations {
			loc := loc
			wg.Add(1)
			go func() {
				defer wg.Done()

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := s.service.Refresh(ctx, loc.Lat, loc.Lon); err != nil {
					s.log.WithFields(logrus.Fields{
						"lat": loc.Lat,
						"lon": loc.Lon,
					}).WithError(err).Warn("scheduler: refresh failed")
				}
			}()
		}
		wg.Wait()
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

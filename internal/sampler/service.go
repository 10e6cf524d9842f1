// Package sampler runs the capture loop: one activity sample per tick of a
// fixed-interval timer, appended to the store.
package sampler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/timescope/timescope/internal/aggregate"
	"github.com/timescope/timescope/internal/config"
	"github.com/timescope/timescope/internal/models"
	"github.com/timescope/timescope/internal/notify"
	"github.com/timescope/timescope/pkg/window"
)

// Appender is the single-writer slice of the store the sampler needs.
type Appender interface {
	Append(*models.ActivitySample) error
}

// Service observes the foreground application on a fixed interval. A failed
// capture or write is logged and the loop continues; a dropped sample is a
// gap in history, never a crash.
type Service struct {
	cfg      *config.Config
	store    Appender
	detector window.Detector
	clockOut *notify.ClockOutChecker

	// mu guards running and stopped; Stop is called from the signal
	// goroutine while Start owns the loop.
	mu       sync.Mutex
	stopChan chan struct{}
	running  bool
	stopped  bool

	// Running active-duration tally for the current day window, maintained
	// incrementally so the clock-out check never has to re-scan the store.
	windowEnd   time.Time
	lastSample  *models.ActivitySample
	todayActive time.Duration
}

// NewService wires the sampler. clockOut may be nil when reminders are
// disabled.
func NewService(cfg *config.Config, store Appender, det window.Detector, clockOut *notify.ClockOutChecker) *Service {
	return &Service{
		cfg:      cfg,
		store:    store,
		detector: det,
		clockOut: clockOut,
		stopChan: make(chan struct{}),
	}
}

// Start runs the capture loop until the context is canceled or Stop is
// called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("sampler is already running")
	}
	s.running = true
	s.mu.Unlock()

	defer s.setRunning(false)

	log.Printf("Starting sampler with %v interval", s.cfg.Sampler.Interval)

	ticker := time.NewTicker(s.cfg.Sampler.Interval)
	defer ticker.Stop()

	s.tick(time.Now())

	for {
		select {
		case <-ctx.Done():
			log.Println("Sampler stopped by context")
			return ctx.Err()

		case <-s.stopChan:
			log.Println("Sampler stopped")
			return nil

		case now := <-ticker.C:
			s.tick(now)
		}
	}
}

// Stop ends the capture loop. Safe to call from another goroutine and more
// than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.stopped = true
		close(s.stopChan)
	}
}

func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Service) setRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}

// tick captures at most one sample and runs the clock-out check.
func (s *Service) tick(now time.Time) {
	s.rollDayWindow(now)

	if sample := s.capture(now); sample != nil {
		if err := s.store.Append(sample); err != nil {
			// No retry, no buffering: tracking continues on the next tick.
			log.Printf("Failed to persist sample: %v", err)
		} else {
			s.tally(sample)
		}
	}

	if s.clockOut != nil {
		s.clockOut.Check(now, s.todayActive)
	}
}

// capture observes the current foreground app and idle state. Returns nil
// when nothing should be written: lock-screen/login context is excluded at
// capture time, so it never pollutes usage computation downstream.
func (s *Service) capture(now time.Time) *models.ActivitySample {
	idle, err := s.detector.Idle()
	if err != nil {
		log.Printf("Failed to read idle state: %v", err)
		return nil
	}

	if idle.IsLocked {
		return nil
	}

	threshold := s.cfg.Sampler.IdleThreshold
	isIdle := idle.MouseIdle > threshold && idle.KeyIdle > threshold

	appName := models.UnknownApp
	if info, err := s.detector.FocusedWindow(); err == nil && info.AppName != "" {
		appName = info.AppName
	}

	if appName == models.LoginWindowApp {
		return nil
	}

	return &models.ActivitySample{
		Timestamp: now,
		AppName:   appName,
		IsIdle:    isIdle,
	}
}

// rollDayWindow resets the running tally when the logical day (shifted by the
// end-of-day offset) rolls over.
func (s *Service) rollDayWindow(now time.Time) {
	if s.windowEnd.IsZero() || !now.Before(s.windowEnd) {
		start, end := aggregate.DayWindow(now, s.cfg.Day.EndOfDayOffset)
		if now.Before(start) {
			// Early morning before the offset: still the previous day.
			start = start.Add(-24 * time.Hour)
			end = end.Add(-24 * time.Hour)
		}
		s.windowEnd = end
		s.lastSample = nil
		s.todayActive = 0
	}
}

// tally advances the running active-duration total using the same gap rule
// the aggregators apply: the gap between consecutive samples is credited when
// the earlier one is non-idle and the gap is small enough to be a real run.
func (s *Service) tally(sample *models.ActivitySample) {
	if s.lastSample != nil && !s.lastSample.IsIdle {
		gap := sample.Timestamp.Sub(s.lastSample.Timestamp)
		if gap > 0 && gap <= aggregate.RunGapFactor*s.cfg.Sampler.Interval {
			s.todayActive += gap
		}
	}
	s.lastSample = sample
}

// TodayActive reports the running active-duration tally for the current day
// window.
func (s *Service) TodayActive() time.Duration {
	return s.todayActive
}

// Package notify holds the clock-out reminder logic. The check runs on every
// sampler tick; delivery goes through a Notifier so the desktop integration
// stays at the edge.
package notify

import (
	"fmt"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/timescope/timescope/internal/config"
)

// Notifier delivers one desktop notification.
type Notifier interface {
	Notify(title, body string) error
}

// Desktop sends notifications through the system notification service.
type Desktop struct{}

func (Desktop) Notify(title, body string) error {
	return beeep.Notify(title, body, "")
}

// ClockOutChecker fires a reminder once the configured clock-out time of day
// has passed, repeating no more often than the reminder interval.
type ClockOutChecker struct {
	enabled  bool
	target   time.Duration // offset from midnight
	reminder time.Duration
	notifier Notifier

	lastFired time.Time
}

// NewClockOutChecker builds a checker from the clock-out settings. A
// malformed target disables the checker rather than failing; Validate catches
// it earlier for user-visible reporting.
func NewClockOutChecker(cfg config.ClockOutConfig, notifier Notifier) *ClockOutChecker {
	target, err := config.ParseTimeOfDay(cfg.Target)
	enabled := cfg.Enabled && err == nil

	return &ClockOutChecker{
		enabled:  enabled,
		target:   target,
		reminder: cfg.Reminder,
		notifier: notifier,
	}
}

// Check fires a notification when now is past today's clock-out boundary and
// the reminder interval has elapsed since the last one. activeToday is
// today's accumulated active duration, included in the message. Returns
// whether a notification was sent.
func (c *ClockOutChecker) Check(now time.Time, activeToday time.Duration) bool {
	if !c.enabled || c.notifier == nil {
		return false
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	boundary := midnight.Add(c.target)

	if now.Before(boundary) {
		return false
	}
	if !c.lastFired.IsZero() && now.Sub(c.lastFired) < c.reminder {
		return false
	}

	body := fmt.Sprintf("You have been active for %s today. Time to clock out.",
		formatDuration(activeToday))
	if err := c.notifier.Notify("Clock out", body); err != nil {
		// Delivery failure is not worth retrying; the next tick past the
		// reminder interval will try again.
		return false
	}

	c.lastFired = now
	return true
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", h, m)
}

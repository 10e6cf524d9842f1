package notify

import (
	"testing"
	"time"

	"github.com/timescope/timescope/internal/config"
)

type recordingNotifier struct {
	titles []string
	bodies []string
	err    error
}

func (r *recordingNotifier) Notify(title, body string) error {
	if r.err != nil {
		return r.err
	}
	r.titles = append(r.titles, title)
	r.bodies = append(r.bodies, body)
	return nil
}

func checkerAt(t *testing.T, target string, reminder time.Duration) (*ClockOutChecker, *recordingNotifier) {
	t.Helper()
	rec := &recordingNotifier{}
	c := NewClockOutChecker(config.ClockOutConfig{
		Enabled:  true,
		Target:   target,
		Reminder: reminder,
	}, rec)
	return c, rec
}

func TestClockOutFiresAfterTarget(t *testing.T) {
	c, rec := checkerAt(t, "17:30", 15*time.Minute)
	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.Local)

	if c.Check(day.Add(17*time.Hour), 6*time.Hour) {
		t.Error("fired before the clock-out boundary")
	}

	if !c.Check(day.Add(17*time.Hour+30*time.Minute), 6*time.Hour) {
		t.Error("did not fire at the clock-out boundary")
	}
	if len(rec.bodies) != 1 {
		t.Fatalf("delivered %d notifications, want 1", len(rec.bodies))
	}
	if want := "You have been active for 6h 00m today. Time to clock out."; rec.bodies[0] != want {
		t.Errorf("body = %q, want %q", rec.bodies[0], want)
	}
}

func TestClockOutRespectsReminderInterval(t *testing.T) {
	c, rec := checkerAt(t, "17:30", 15*time.Minute)
	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.Local)

	first := day.Add(17*time.Hour + 30*time.Minute)
	if !c.Check(first, time.Hour) {
		t.Fatal("first check past the boundary should fire")
	}
	if c.Check(first.Add(5*time.Minute), time.Hour) {
		t.Error("fired again within the reminder interval")
	}
	if !c.Check(first.Add(15*time.Minute), time.Hour) {
		t.Error("did not fire after the reminder interval elapsed")
	}
	if len(rec.bodies) != 2 {
		t.Errorf("delivered %d notifications, want 2", len(rec.bodies))
	}
}

func TestClockOutDisabled(t *testing.T) {
	rec := &recordingNotifier{}
	c := NewClockOutChecker(config.ClockOutConfig{
		Enabled:  false,
		Target:   "17:30",
		Reminder: 15 * time.Minute,
	}, rec)

	if c.Check(time.Date(2026, 3, 3, 23, 0, 0, 0, time.Local), time.Hour) {
		t.Error("disabled checker fired")
	}
}

func TestClockOutMalformedTargetDisables(t *testing.T) {
	rec := &recordingNotifier{}
	c := NewClockOutChecker(config.ClockOutConfig{
		Enabled:  true,
		Target:   "half past five",
		Reminder: 15 * time.Minute,
	}, rec)

	if c.Check(time.Date(2026, 3, 3, 23, 0, 0, 0, time.Local), time.Hour) {
		t.Error("checker with malformed target fired")
	}
}

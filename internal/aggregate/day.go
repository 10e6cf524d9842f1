// Package aggregate turns raw activity samples into derived views: per-minute
// dominant-app buckets, fixed-width day segments with merged spans, and
// whole-day statistics. Everything here is pure: functions take a sample slice
// and return fresh values, so results can cross goroutine boundaries freely.
package aggregate

import (
	"time"

	"github.com/timescope/timescope/internal/models"
)

// DayWindow returns the half-open aggregation window for the calendar day
// containing date, shifted by the end-of-day offset. With the default 4h
// offset, the window for March 3 is [Mar 3 04:00, Mar 4 04:00), so a session
// running past midnight still counts toward March 3.
func DayWindow(date time.Time, endOfDayOffset time.Duration) (start, end time.Time) {
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	start = midnight.Add(endOfDayOffset)
	return start, start.Add(24 * time.Hour)
}

// WeekDates returns the seven calendar dates of the week containing date,
// starting at firstDay.
func WeekDates(date time.Time, firstDay time.Weekday) []time.Time {
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	back := int(midnight.Weekday()-firstDay+7) % 7
	weekStart := midnight.AddDate(0, 0, -back)

	days := make([]time.Time, 7)
	for i := range days {
		days[i] = weekStart.AddDate(0, 0, i)
	}
	return days
}

// Minutes groups an ascending sample slice into per-minute buckets. Each
// bucket records the dominant application (highest non-idle sample count,
// ties broken by first appearance) and whether the minute was majority-idle:
// idle samples must exceed half the expected samples per minute, derived from
// the sampling interval.
func Minutes(samples []models.ActivitySample, interval time.Duration) []models.MinuteActivity {
	if len(samples) == 0 {
		return nil
	}

	perMinute := int(time.Minute / interval)
	if perMinute < 1 {
		perMinute = 1
	}
	idleMajority := perMinute / 2

	var (
		minutes []models.MinuteActivity
		group   []models.ActivitySample
		current = samples[0].Timestamp.Truncate(time.Minute)
	)

	flush := func() {
		if len(group) == 0 {
			return
		}
		minutes = append(minutes, summarizeMinute(current, group, idleMajority))
		group = group[:0]
	}

	for _, s := range samples {
		minute := s.Timestamp.Truncate(time.Minute)
		if !minute.Equal(current) {
			flush()
			current = minute
		}
		group = append(group, s)
	}
	flush()

	return minutes
}

func summarizeMinute(minute time.Time, group []models.ActivitySample, idleMajority int) models.MinuteActivity {
	counts := make(map[string]int, 4)
	order := make([]string, 0, 4)
	idleCount := 0

	for _, s := range group {
		if s.IsIdle {
			idleCount++
			continue
		}
		if _, seen := counts[s.AppName]; !seen {
			order = append(order, s.AppName)
		}
		counts[s.AppName]++
	}

	// A minute of pure idle samples still needs an app label; fall back to
	// counting every sample.
	if len(order) == 0 {
		for _, s := range group {
			if _, seen := counts[s.AppName]; !seen {
				order = append(order, s.AppName)
			}
			counts[s.AppName]++
		}
	}

	dominant := ""
	best := 0
	for _, app := range order {
		if counts[app] > best {
			dominant = app
			best = counts[app]
		}
	}

	return models.MinuteActivity{
		Minute:  minute,
		AppName: dominant,
		IsIdle:  idleCount > idleMajority,
	}
}

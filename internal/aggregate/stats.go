package aggregate

import (
	"sort"
	"time"

	"github.com/timescope/timescope/internal/models"
)

// RunGapFactor caps the gap credited between consecutive samples at this
// multiple of the sampling interval. The slack absorbs timer jitter; anything
// larger is a tracking gap (suspend, daemon restart) and ends the run without
// crediting time.
const RunGapFactor = 2

// PerAppDurations accumulates active time per application over an ascending
// sample slice. Duration is measured as the gap between consecutive sample
// starts, credited to the earlier sample's app when that sample is non-idle.
// The final sample of a run contributes no trailing duration.
func PerAppDurations(samples []models.ActivitySample, interval time.Duration) map[string]time.Duration {
	perApp := make(map[string]time.Duration)
	maxGap := RunGapFactor * interval

	for i := 0; i+1 < len(samples); i++ {
		if samples[i].IsIdle {
			continue
		}
		gap := samples[i+1].Timestamp.Sub(samples[i].Timestamp)
		if gap <= 0 || gap > maxGap {
			continue
		}
		perApp[samples[i].AppName] += gap
	}

	return perApp
}

// Stats derives the whole-day scalars from the samples loaded for one day
// window: clock-in is the first sample, clock-out the last, and the active
// duration is the sum over the per-app duration map.
func Stats(samples []models.ActivitySample, interval time.Duration) models.DayStats {
	var stats models.DayStats
	if len(samples) == 0 {
		return stats
	}

	clockIn := samples[0].Timestamp
	clockOut := samples[len(samples)-1].Timestamp
	stats.ClockIn = &clockIn
	stats.ClockOut = &clockOut

	for _, d := range PerAppDurations(samples, interval) {
		stats.ActiveDuration += d
	}

	return stats
}

// MostUsedApps ranks applications by accumulated active duration, descending,
// ties broken by name ascending.
func MostUsedApps(samples []models.ActivitySample, interval time.Duration) []models.AppUsage {
	perApp := PerAppDurations(samples, interval)

	usages := make([]models.AppUsage, 0, len(perApp))
	for app, d := range perApp {
		usages = append(usages, models.AppUsage{AppName: app, Duration: d})
	}

	sort.Slice(usages, func(i, j int) bool {
		if usages[i].Duration != usages[j].Duration {
			return usages[i].Duration > usages[j].Duration
		}
		return usages[i].AppName < usages[j].AppName
	})

	return usages
}

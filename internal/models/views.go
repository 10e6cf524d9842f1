package models

import (
	"time"
)

// MinuteActivity summarizes one minute of samples: the dominant application
// and whether the minute was majority-idle. The Minute field is truncated to
// the start of the minute.
type MinuteActivity struct {
	Minute  time.Time `json:"minute"`
	AppName string    `json:"app_name"`
	IsIdle  bool      `json:"is_idle"`
}

// Segment is one fixed-width slice of a day (10 minutes by default).
type Segment struct {
	Index       int                      `json:"index"`
	IsActive    bool                     `json:"is_active"`
	DominantApp string                   `json:"dominant_app,omitempty"`
	PerApp      map[string]time.Duration `json:"per_app,omitempty"`
}

// Span is a maximal run of contiguous active segments, as a closed inclusive
// index range.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// AppUsage is the accumulated active duration for one application.
type AppUsage struct {
	AppName  string        `json:"app_name"`
	Duration time.Duration `json:"duration"`
}

// DayStats holds the whole-day scalars: first and last sample within the
// (offset) day window and the total active duration. ClockIn and ClockOut are
// nil for a day with no samples.
type DayStats struct {
	ClockIn        *time.Time    `json:"clock_in,omitempty"`
	ClockOut       *time.Time    `json:"clock_out,omitempty"`
	ActiveDuration time.Duration `json:"active_duration"`
}

// StorageInfo describes the persisted sample log for the storage settings
// display.
type StorageInfo struct {
	SampleCount int64      `json:"sample_count"`
	Earliest    *time.Time `json:"earliest,omitempty"`
	SizeOnDisk  int64      `json:"size_on_disk"`
}

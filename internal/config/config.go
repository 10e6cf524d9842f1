package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all application configuration. One record is built at process
// start and passed into the sampler, aggregators and loader; nothing reads
// configuration through globals.
type Config struct {
	Database DatabaseConfig
	Sampler  SamplerConfig
	Day      DayConfig
	ClockOut ClockOutConfig
	Daemon   DaemonConfig
	Web      WebConfig
}

// DatabaseConfig holds storage configuration.
type DatabaseConfig struct {
	Path string // Path to SQLite database file; empty means the default XDG data path
}

// SamplerConfig holds capture behavior configuration.
type SamplerConfig struct {
	Interval      time.Duration // How often to capture a sample
	MinInterval   time.Duration // Minimum allowed sampling interval
	MaxInterval   time.Duration // Maximum allowed sampling interval
	IdleThreshold time.Duration // Input silence before a sample counts as idle
}

// DayConfig holds aggregation configuration.
type DayConfig struct {
	SegmentDuration time.Duration // Width of one timeline segment
	EndOfDayOffset  time.Duration // Hour at which the logical day rolls over
	FirstDayOfWeek  time.Weekday
	ShowAppColors   bool
	ChunkSize       int // Rows per incremental load chunk
}

// ClockOutConfig holds the clock-out reminder settings.
type ClockOutConfig struct {
	Enabled  bool
	Target   string        // Time of day in "15:04" form
	Reminder time.Duration // Minimum gap between repeated reminders
}

// DaemonConfig holds daemon process configuration.
type DaemonConfig struct {
	PIDFile string
	LogFile string
}

// WebConfig holds the local JSON API configuration.
type WebConfig struct {
	Host string
	Port int
}

// Default returns a Config with the documented default values.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "",
		},
		Sampler: SamplerConfig{
			Interval:      6 * time.Second,
			MinInterval:   1 * time.Second,
			MaxInterval:   300 * time.Second,
			IdleThreshold: 60 * time.Second,
		},
		Day: DayConfig{
			SegmentDuration: 10 * time.Minute,
			EndOfDayOffset:  4 * time.Hour,
			FirstDayOfWeek:  time.Monday,
			ShowAppColors:   true,
			ChunkSize:       3000,
		},
		ClockOut: ClockOutConfig{
			Enabled:  false,
			Target:   "17:30",
			Reminder: 15 * time.Minute,
		},
		Daemon: DaemonConfig{
			PIDFile: fmt.Sprintf("/tmp/timescope-%d.pid", os.Getuid()),
			LogFile: "/tmp/timescope.log",
		},
		Web: WebConfig{
			Host: "localhost",
			Port: defaultPort(os.Getuid()),
		},
	}
}

// defaultPort derives a per-user port so users sharing a host do not collide.
// Folding the uid keeps the result inside the valid port range even on
// systems that hand out very large uids.
func defaultPort(uid int) int {
	if uid < 0 {
		uid = 0
	}
	return 10000 + uid%50000
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Sampler.Interval < c.Sampler.MinInterval {
		return fmt.Errorf("sampling interval (%v) cannot be less than minimum (%v)",
			c.Sampler.Interval, c.Sampler.MinInterval)
	}

	if c.Sampler.Interval > c.Sampler.MaxInterval {
		return fmt.Errorf("sampling interval (%v) cannot be greater than maximum (%v)",
			c.Sampler.Interval, c.Sampler.MaxInterval)
	}

	if c.Sampler.IdleThreshold <= 0 {
		return fmt.Errorf("idle threshold must be positive")
	}

	if c.Day.SegmentDuration <= 0 || (24*time.Hour)%c.Day.SegmentDuration != 0 {
		return fmt.Errorf("segment duration (%v) must evenly divide a day", c.Day.SegmentDuration)
	}

	if c.Day.EndOfDayOffset < 0 || c.Day.EndOfDayOffset >= 24*time.Hour {
		return fmt.Errorf("end-of-day offset (%v) must be within a day", c.Day.EndOfDayOffset)
	}

	if c.Day.ChunkSize < 1 {
		return fmt.Errorf("chunk size must be at least 1, got %d", c.Day.ChunkSize)
	}

	if _, err := ParseTimeOfDay(c.ClockOut.Target); err != nil {
		return fmt.Errorf("clock-out target: %w", err)
	}

	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	return nil
}

// SegmentCount returns how many segments one day divides into.
func (c *Config) SegmentCount() int {
	return int(24 * time.Hour / c.Day.SegmentDuration)
}

// SamplesPerMinute returns the expected sample count for one minute of
// uninterrupted capture.
func (c *Config) SamplesPerMinute() int {
	n := int(time.Minute / c.Sampler.Interval)
	if n < 1 {
		n = 1
	}
	return n
}

// ParseTimeOfDay parses a "15:04" clock value into an offset from midnight.
func ParseTimeOfDay(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q (want HH:MM)", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

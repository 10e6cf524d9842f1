package config

import (
	"os"
	"strconv"
	"time"
)

// LoadFromEnv overrides configuration from environment variables. Invalid
// values are ignored so a bad environment can never take the tracker down.
func LoadFromEnv(cfg *Config) {
	if dbPath := os.Getenv("TIMESCOPE_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	if raw := os.Getenv("TIMESCOPE_INTERVAL"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			interval := time.Duration(seconds) * time.Second
			if interval >= cfg.Sampler.MinInterval && interval <= cfg.Sampler.MaxInterval {
				cfg.Sampler.Interval = interval
			}
		}
	}

	if raw := os.Getenv("TIMESCOPE_IDLE_THRESHOLD"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			cfg.Sampler.IdleThreshold = time.Duration(seconds) * time.Second
		}
	}

	if raw := os.Getenv("TIMESCOPE_END_OF_DAY"); raw != "" {
		if off, err := ParseTimeOfDay(raw); err == nil {
			cfg.Day.EndOfDayOffset = off
		}
	}

	if pidFile := os.Getenv("TIMESCOPE_PID_FILE"); pidFile != "" {
		cfg.Daemon.PIDFile = pidFile
	}

	if logFile := os.Getenv("TIMESCOPE_LOG_FILE"); logFile != "" {
		cfg.Daemon.LogFile = logFile
	}

	if webHost := os.Getenv("TIMESCOPE_WEB_HOST"); webHost != "" {
		cfg.Web.Host = webHost
	}

	if raw := os.Getenv("TIMESCOPE_WEB_PORT"); raw != "" {
		if port, err := strconv.Atoi(raw); err == nil && port > 0 && port <= 65535 {
			cfg.Web.Port = port
		}
	}
}

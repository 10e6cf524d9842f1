package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// Viper keys for the settings file.
const (
	keySamplingInterval = "sampler.interval"
	keyIdleThreshold    = "sampler.idle_threshold"
	keySegmentDuration  = "day.segment_duration"
	keyEndOfDay         = "day.end_of_day"
	keyFirstDayOfWeek   = "day.first_day_of_week"
	keyShowAppColors    = "day.show_app_colors"
	keyClockOutEnabled  = "clock_out.enabled"
	keyClockOutTarget   = "clock_out.target"
	keyClockOutReminder = "clock_out.reminder"
	keyDatabasePath     = "database.path"
	keyWebHost          = "web.host"
	keyWebPort          = "web.port"
)

const (
	appDirName       = "timescope"
	settingsFileName = "settings.yml"
)

// SettingsPath returns the path of the YAML settings file, creating the
// config directory if needed.
func SettingsPath() (string, error) {
	dir := filepath.Join(xdg.ConfigHome, appDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return filepath.Join(dir, settingsFileName), nil
}

// Load builds the effective configuration: defaults, then the settings file,
// then environment variables. A malformed stored value falls back to its
// default with a logged warning; Load never fails on bad content, only on an
// unreadable filesystem.
func Load() (*Config, error) {
	cfg := Default()

	path, err := SettingsPath()
	if err != nil {
		return nil, err
	}

	if err := loadSettingsFile(cfg, path); err != nil {
		return nil, err
	}

	LoadFromEnv(cfg)

	return cfg, nil
}

func loadSettingsFile(cfg *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	err := v.ReadInConfig()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reading settings file failed: %w", err)
		}
		// First run: materialize the defaults so the user has a file to edit.
		if werr := v.WriteConfigAs(path); werr != nil {
			return fmt.Errorf("writing default settings failed: %w", werr)
		}
	}

	applySettings(v, cfg)

	return nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault(keySamplingInterval, cfg.Sampler.Interval.String())
	v.SetDefault(keyIdleThreshold, cfg.Sampler.IdleThreshold.String())
	v.SetDefault(keySegmentDuration, cfg.Day.SegmentDuration.String())
	v.SetDefault(keyEndOfDay, "04:00")
	v.SetDefault(keyFirstDayOfWeek, cfg.Day.FirstDayOfWeek.String())
	v.SetDefault(keyShowAppColors, cfg.Day.ShowAppColors)
	v.SetDefault(keyClockOutEnabled, cfg.ClockOut.Enabled)
	v.SetDefault(keyClockOutTarget, cfg.ClockOut.Target)
	v.SetDefault(keyClockOutReminder, cfg.ClockOut.Reminder.String())
	v.SetDefault(keyDatabasePath, cfg.Database.Path)
	v.SetDefault(keyWebHost, cfg.Web.Host)
	v.SetDefault(keyWebPort, cfg.Web.Port)
}

// applySettings copies values out of viper, keeping the default for anything
// malformed.
func applySettings(v *viper.Viper, cfg *Config) {
	setDuration(&cfg.Sampler.Interval, v.GetString(keySamplingInterval), keySamplingInterval)
	setDuration(&cfg.Sampler.IdleThreshold, v.GetString(keyIdleThreshold), keyIdleThreshold)
	setDuration(&cfg.Day.SegmentDuration, v.GetString(keySegmentDuration), keySegmentDuration)
	setDuration(&cfg.ClockOut.Reminder, v.GetString(keyClockOutReminder), keyClockOutReminder)

	if off, err := ParseTimeOfDay(v.GetString(keyEndOfDay)); err == nil {
		cfg.Day.EndOfDayOffset = off
	} else {
		log.Printf("Ignoring %s: %v", keyEndOfDay, err)
	}

	if wd, err := parseWeekday(v.GetString(keyFirstDayOfWeek)); err == nil {
		cfg.Day.FirstDayOfWeek = wd
	} else {
		log.Printf("Ignoring %s: %v", keyFirstDayOfWeek, err)
	}

	if _, err := ParseTimeOfDay(v.GetString(keyClockOutTarget)); err == nil {
		cfg.ClockOut.Target = v.GetString(keyClockOutTarget)
	} else {
		log.Printf("Ignoring %s: %v", keyClockOutTarget, err)
	}

	cfg.Day.ShowAppColors = v.GetBool(keyShowAppColors)
	cfg.ClockOut.Enabled = v.GetBool(keyClockOutEnabled)
	cfg.Database.Path = v.GetString(keyDatabasePath)

	if host := v.GetString(keyWebHost); host != "" {
		cfg.Web.Host = host
	}
	if port := v.GetInt(keyWebPort); port >= 1 && port <= 65535 {
		cfg.Web.Port = port
	}
}

func setDuration(dst *time.Duration, raw, key string) {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Ignoring %s: invalid duration %q", key, raw)
		return
	}
	*dst = d
}

func parseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), s) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("invalid weekday %q", s)
}

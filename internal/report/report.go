// Package report renders the aggregated day and week views for the CLI and
// the JSON API.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/timescope/timescope/internal/aggregate"
	"github.com/timescope/timescope/internal/config"
	"github.com/timescope/timescope/internal/loader"
	"github.com/timescope/timescope/internal/models"
)

// Reporter assembles reports by loading day windows through the incremental
// loader.
type Reporter struct {
	cfg *config.Config
	ld  *loader.Loader
}

// New creates a reporter over the given store.
func New(cfg *config.Config, store loader.Pager) *Reporter {
	return &Reporter{
		cfg: cfg,
		ld:  loader.New(store, cfg, nil),
	}
}

// DayReport is one day's aggregated view.
type DayReport struct {
	Date        time.Time         `json:"date"`
	Stats       models.DayStats   `json:"stats"`
	TopApps     []models.AppUsage `json:"top_apps"`
	Spans       []models.Span     `json:"spans"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// WeekReport aggregates the seven days of the week containing the requested
// date.
type WeekReport struct {
	Days        []DayReport   `json:"days"`
	Total       time.Duration `json:"total_active"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// Day builds the report for the day containing date.
func (r *Reporter) Day(date time.Time) (*DayReport, error) {
	snap, err := r.ld.Load(date)
	if err != nil {
		return nil, fmt.Errorf("failed to load day data: %w", err)
	}

	return &DayReport{
		Date:        date,
		Stats:       snap.Stats,
		TopApps:     snap.TopApps,
		Spans:       snap.Spans,
		GeneratedAt: time.Now(),
	}, nil
}

// Week builds per-day reports for the week containing date, honoring the
// configured first day of week.
func (r *Reporter) Week(date time.Time) (*WeekReport, error) {
	report := &WeekReport{GeneratedAt: time.Now()}

	for _, day := range aggregate.WeekDates(date, r.cfg.Day.FirstDayOfWeek) {
		dayReport, err := r.Day(day)
		if err != nil {
			return nil, err
		}
		report.Days = append(report.Days, *dayReport)
		report.Total += dayReport.Stats.ActiveDuration
	}

	return report, nil
}

// FormatDayText renders a day report as human-readable text.
func (r *Reporter) FormatDayText(report *DayReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Activity for %s\n", report.Date.Format("Monday, 2006-01-02"))
	fmt.Fprintf(&b, "Clock in:  %s\n", formatClock(report.Stats.ClockIn))
	fmt.Fprintf(&b, "Clock out: %s\n", formatClock(report.Stats.ClockOut))
	fmt.Fprintf(&b, "Active:    %s\n\n", formatDuration(report.Stats.ActiveDuration))

	if len(report.TopApps) == 0 {
		b.WriteString("No activity recorded for this day.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "%-30s %12s\n", "Application", "Active")
	b.WriteString(strings.Repeat("-", 43) + "\n")
	for _, app := range report.TopApps {
		fmt.Fprintf(&b, "%-30s %12s\n", truncate(app.AppName, 30), formatDuration(app.Duration))
	}

	if len(report.Spans) > 0 {
		b.WriteString("\nActive spans:\n")
		for _, span := range report.Spans {
			fmt.Fprintf(&b, "  %s\n", r.formatSpan(report.Date, span))
		}
	}

	return b.String()
}

// FormatWeekText renders a week report as one line per day.
func (r *Reporter) FormatWeekText(report *WeekReport) string {
	var b strings.Builder

	b.WriteString("Weekly activity\n\n")
	fmt.Fprintf(&b, "%-12s %10s %10s %10s  %s\n", "Day", "In", "Out", "Active", "Top app")
	b.WriteString(strings.Repeat("-", 60) + "\n")

	for _, day := range report.Days {
		topApp := ""
		if len(day.TopApps) > 0 {
			topApp = day.TopApps[0].AppName
		}
		fmt.Fprintf(&b, "%-12s %10s %10s %10s  %s\n",
			day.Date.Format("Mon 01-02"),
			formatClock(day.Stats.ClockIn),
			formatClock(day.Stats.ClockOut),
			formatDuration(day.Stats.ActiveDuration),
			topApp)
	}

	b.WriteString(strings.Repeat("-", 60) + "\n")
	fmt.Fprintf(&b, "Total active: %s\n", formatDuration(report.Total))

	return b.String()
}

// FormatJSON renders any report as indented JSON.
func FormatJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatSpan renders a span's wall-clock range, e.g. "09:00 - 09:40".
func (r *Reporter) formatSpan(date time.Time, span models.Span) string {
	dayStart, _ := aggregate.DayWindow(date, r.cfg.Day.EndOfDayOffset)
	segDur := r.cfg.Day.SegmentDuration

	from := dayStart.Add(time.Duration(span.Start) * segDur)
	to := dayStart.Add(time.Duration(span.End+1) * segDur)
	return fmt.Sprintf("%s - %s", from.Format("15:04"), to.Format("15:04"))
}

func formatClock(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("15:04")
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	return fmt.Sprintf("%dh %02dm", h, m)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

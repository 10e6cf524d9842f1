package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/timescope/timescope/internal/models"
)

func TestCSVRoundTrip(t *testing.T) {
	base := time.Date(2026, 3, 3, 9, 0, 0, 0, time.Local)

	original := []models.ActivitySample{
		{Timestamp: base, AppName: "editor", IsIdle: false},
		{Timestamp: base.Add(6 * time.Second), AppName: "browser", IsIdle: true},
		{Timestamp: base.Add(6 * time.Second), AppName: "browser", IsIdle: false}, // duplicate timestamp preserved
		{Timestamp: base.Add(12 * time.Second), AppName: "app, with comma", IsIdle: false},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, original); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}

	got, skipped, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped %d rows on a clean file", skipped)
	}

	if len(got) != len(original) {
		t.Fatalf("round-tripped %d samples, want %d", len(got), len(original))
	}
	for i := range got {
		if !got[i].Timestamp.Equal(original[i].Timestamp) {
			t.Errorf("row %d timestamp = %v, want %v", i, got[i].Timestamp, original[i].Timestamp)
		}
		if got[i].AppName != original[i].AppName {
			t.Errorf("row %d app = %q, want %q", i, got[i].AppName, original[i].AppName)
		}
	}
}

func TestWriteCSVHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}

	if got := strings.TrimSpace(buf.String()); got != "Timestamp,App Name" {
		t.Errorf("empty export = %q, want header only", got)
	}
}

func TestReadCSVSkipsMalformedRows(t *testing.T) {
	input := strings.Join([]string{
		"Timestamp,App Name",
		"2026-03-03T09:00:00+01:00,editor",
		"not-a-timestamp,editor",
		"2026-03-03T09:00:06+01:00,browser",
		"lonely-field",
		"",
	}, "\n")

	samples, skipped, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}

	if len(samples) != 2 {
		t.Errorf("parsed %d samples, want 2", len(samples))
	}
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
}

package aggregate

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/timescope/timescope/internal/models"
)

const (
	testSegment  = 10 * time.Minute
	testInterval = 6 * time.Second
)

func TestSegmentsScenario(t *testing.T) {
	samples := []models.ActivitySample{
		sample(at(9, 0, 0), "AppA", false),
		sample(at(9, 0, 6), "AppA", false),
		sample(at(9, 0, 12), "AppB", false),
		sample(at(9, 5, 0), "AppA", true),
	}

	segments := Segments(samples, base, testSegment, testInterval)

	if len(segments) != 144 {
		t.Fatalf("got %d segments, want 144", len(segments))
	}

	seg := segments[54] // 09:00–09:10
	if !seg.IsActive {
		t.Error("segment 54 should be active")
	}
	if seg.DominantApp != "AppA" {
		t.Errorf("dominant app = %q, want AppA", seg.DominantApp)
	}

	wantPerApp := map[string]time.Duration{
		"AppA": 12 * time.Second,
		"AppB": 6 * time.Second,
	}
	if diff := cmp.Diff(wantPerApp, seg.PerApp); diff != "" {
		t.Errorf("per-app durations mismatch (-want +got):\n%s", diff)
	}

	for idx, s := range segments {
		if idx != 54 && s.IsActive {
			t.Errorf("segment %d unexpectedly active", idx)
		}
	}
}

// A sample exactly at a segment boundary belongs to the next segment, never
// both.
func TestSegmentBoundaryOwnership(t *testing.T) {
	samples := []models.ActivitySample{
		sample(at(9, 10, 0), "editor", false), // exactly at the 54/55 boundary
	}

	segments := Segments(samples, base, testSegment, testInterval)

	if segments[54].IsActive {
		t.Error("segment 54 should not claim a sample at its end boundary")
	}
	if !segments[55].IsActive {
		t.Error("segment 55 should own a sample at its start boundary")
	}
}

func TestSegmentsIdleOnly(t *testing.T) {
	samples := []models.ActivitySample{
		sample(at(9, 0, 0), "editor", true),
		sample(at(9, 0, 6), "editor", true),
	}

	segments := Segments(samples, base, testSegment, testInterval)

	if segments[54].IsActive {
		t.Error("idle-only segment should not be active")
	}
	if segments[54].DominantApp != "" {
		t.Errorf("idle-only segment dominant app = %q, want empty", segments[54].DominantApp)
	}
}

func TestSegmentsDominantTieBreak(t *testing.T) {
	// Two apps with one full-interval sample each: equal 6s accumulations.
	samples := []models.ActivitySample{
		sample(at(9, 0, 0), "zsh", false),
		sample(at(9, 1, 0), "emacs", false),
		sample(at(9, 2, 0), "tail", true),
	}

	segments := Segments(samples, base, testSegment, testInterval)

	if got := segments[54].DominantApp; got != "emacs" {
		t.Errorf("tie should pick lexicographically smallest app, got %q", got)
	}
}

func TestMergeAdjacentSegments(t *testing.T) {
	mk := func(active ...int) []models.Segment {
		segments := make([]models.Segment, 144)
		for i := range segments {
			segments[i].Index = i
		}
		for _, idx := range active {
			segments[idx].IsActive = true
		}
		return segments
	}

	tests := []struct {
		name   string
		active []int
		want   []models.Span
	}{
		{
			name:   "no active segments",
			active: nil,
			want:   nil,
		},
		{
			name:   "single segment",
			active: []int{7},
			want:   []models.Span{{Start: 7, End: 7}},
		},
		{
			name:   "contiguous run",
			active: []int{3, 4, 5},
			want:   []models.Span{{Start: 3, End: 5}},
		},
		{
			name:   "separate runs",
			active: []int{0, 1, 5, 6, 7, 143},
			want:   []models.Span{{Start: 0, End: 1}, {Start: 5, End: 7}, {Start: 143, End: 143}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments := mk(tt.active...)
			got := MergeAdjacentSegments(segments)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("MergeAdjacentSegments() mismatch (-want +got):\n%s", diff)
			}

			// Span union must equal the active index set exactly.
			covered := make(map[int]bool)
			for _, span := range got {
				if span.End < span.Start {
					t.Errorf("inverted span %+v", span)
				}
				for i := span.Start; i <= span.End; i++ {
					if covered[i] {
						t.Errorf("index %d covered twice", i)
					}
					covered[i] = true
				}
			}
			for i, seg := range segments {
				if seg.IsActive != covered[i] {
					t.Errorf("index %d: active=%v covered=%v", i, seg.IsActive, covered[i])
				}
			}
		})
	}
}

func TestColorForApp(t *testing.T) {
	if got, want := ColorForApp(""), 0; got != want {
		t.Errorf("ColorForApp(\"\") = %d, want %d", got, want)
	}

	// 'a'+'b' = 195, 195 % 8 = 3.
	if got, want := ColorForApp("ab"), 3; got != want {
		t.Errorf("ColorForApp(\"ab\") = %d, want %d", got, want)
	}

	for _, app := range []string{"editor", "browser", "终端"} {
		first := ColorForApp(app)
		if first < 0 || first >= PaletteSize {
			t.Errorf("ColorForApp(%q) = %d, out of palette range", app, first)
		}
		if second := ColorForApp(app); second != first {
			t.Errorf("ColorForApp(%q) not deterministic: %d then %d", app, first, second)
		}
	}
}

package aggregate

import (
	"time"

	"github.com/timescope/timescope/internal/models"
)

// Segments buckets an ascending sample slice into fixed-width slices of the
// day starting at dayStart (already shifted by the end-of-day offset). A
// sample whose timestamp equals a segment's end boundary belongs to the next
// segment. Per-app duration inside a segment is accumulated per non-idle
// sample as the distance to the next sample start, capped at both the
// sampling interval and the segment end. The dominant app holds the largest
// accumulated duration; ties go to the lexicographically smallest name.
func Segments(samples []models.ActivitySample, dayStart time.Time, segmentDuration, interval time.Duration) []models.Segment {
	count := int(24 * time.Hour / segmentDuration)
	segments := make([]models.Segment, count)

	i := 0
	for idx := range segments {
		segStart := dayStart.Add(time.Duration(idx) * segmentDuration)
		segEnd := segStart.Add(segmentDuration)

		seg := models.Segment{Index: idx}

		// Skip anything before this segment; with ascending input each
		// sample is visited once across the whole loop.
		for i < len(samples) && samples[i].Timestamp.Before(segStart) {
			i++
		}

		for j := i; j < len(samples) && samples[j].Timestamp.Before(segEnd); j++ {
			s := samples[j]
			i = j + 1

			if s.IsIdle {
				continue
			}
			seg.IsActive = true

			end := s.Timestamp.Add(interval)
			if j+1 < len(samples) && samples[j+1].Timestamp.Before(end) {
				end = samples[j+1].Timestamp
			}
			if segEnd.Before(end) {
				end = segEnd
			}

			if d := end.Sub(s.Timestamp); d > 0 {
				if seg.PerApp == nil {
					seg.PerApp = make(map[string]time.Duration, 4)
				}
				seg.PerApp[s.AppName] += d
			}
		}

		seg.DominantApp = dominantApp(seg.PerApp)
		segments[idx] = seg
	}

	return segments
}

func dominantApp(perApp map[string]time.Duration) string {
	dominant := ""
	var best time.Duration
	for app, d := range perApp {
		if d > best || (d == best && best > 0 && app < dominant) {
			dominant = app
			best = d
		}
	}
	return dominant
}

// MergeAdjacentSegments coalesces maximal runs of active segments into closed
// inclusive index ranges, in ascending order. The returned spans are pairwise
// disjoint and cover exactly the active indices.
func MergeAdjacentSegments(segments []models.Segment) []models.Span {
	var spans []models.Span

	for i := 0; i < len(segments); {
		if !segments[i].IsActive {
			i++
			continue
		}
		j := i
		for j+1 < len(segments) && segments[j+1].IsActive {
			j++
		}
		spans = append(spans, models.Span{Start: i, End: j})
		i = j + 1
	}

	return spans
}

// PaletteSize is the number of distinct timeline colors.
const PaletteSize = 8

// ColorForApp maps an application name to a stable palette index: the sum of
// its character code points modulo the palette size. Purely presentational,
// but deterministic, so the same app always renders in the same color.
func ColorForApp(appName string) int {
	sum := 0
	for _, r := range appName {
		sum += int(r)
	}
	return sum % PaletteSize
}

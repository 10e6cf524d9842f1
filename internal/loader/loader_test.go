package loader

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/timescope/timescope/internal/config"
	"github.com/timescope/timescope/internal/models"
)

var base = time.Date(2026, 3, 3, 0, 0, 0, 0, time.Local)

// fakePager serves pages out of an in-memory slice, mimicking the
// repository's LIMIT/OFFSET semantics.
type fakePager struct {
	samples []models.ActivitySample
	queries int
	err     error
}

func (f *fakePager) QueryPage(start, end time.Time, chunkIndex, chunkSize int) ([]models.ActivitySample, error) {
	f.queries++
	if f.err != nil {
		return nil, f.err
	}

	var inRange []models.ActivitySample
	for _, s := range f.samples {
		if !s.Timestamp.Before(start) && s.Timestamp.Before(end) {
			inRange = append(inRange, s)
		}
	}

	lo := chunkIndex * chunkSize
	if lo >= len(inRange) {
		return nil, nil
	}
	hi := lo + chunkSize
	if hi > len(inRange) {
		hi = len(inRange)
	}
	return inRange[lo:hi], nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Day.ChunkSize = 2
	cfg.Day.EndOfDayOffset = 0
	return cfg
}

func daySamples() []models.ActivitySample {
	mk := func(offset time.Duration, app string, idle bool) models.ActivitySample {
		return models.ActivitySample{Timestamp: base.Add(offset), AppName: app, IsIdle: idle}
	}
	return []models.ActivitySample{
		mk(9*time.Hour, "editor", false),
		mk(9*time.Hour+6*time.Second, "editor", false),
		mk(9*time.Hour+12*time.Second, "browser", false),
		mk(9*time.Hour+18*time.Second, "browser", false),
		mk(9*time.Hour+24*time.Second, "editor", true),
	}
}

func TestLoadAccumulatesChunks(t *testing.T) {
	pager := &fakePager{samples: daySamples()}
	l := New(pager, testConfig(), nil)

	snap, err := l.Load(base)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(snap.Samples) != 5 {
		t.Errorf("accumulated %d samples, want 5", len(snap.Samples))
	}
	if snap.State != StateDone || snap.Progress != 1.0 {
		t.Errorf("final state=%v progress=%v, want done/1.0", snap.State, snap.Progress)
	}

	// Chunk size 2 over 5 samples: 2+2+1, the short chunk ends the load.
	if pager.queries != 3 {
		t.Errorf("issued %d page queries, want 3", pager.queries)
	}

	if got := snap.Stats.ActiveDuration; got != 24*time.Second {
		t.Errorf("active duration = %v, want 24s", got)
	}
	if len(snap.Spans) != 1 || snap.Spans[0] != (models.Span{Start: 54, End: 54}) {
		t.Errorf("spans = %v, want single span at 54", snap.Spans)
	}
}

// Two loads with no intervening writes yield identical derived views.
func TestLoadIdempotent(t *testing.T) {
	pager := &fakePager{samples: daySamples()}
	l := New(pager, testConfig(), nil)

	first, err := l.Load(base)
	if err != nil {
		t.Fatalf("first Load() error: %v", err)
	}
	second, err := l.Load(base)
	if err != nil {
		t.Fatalf("second Load() error: %v", err)
	}

	if diff := cmp.Diff(first.Stats, second.Stats); diff != "" {
		t.Errorf("stats differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.TopApps, second.TopApps); diff != "" {
		t.Errorf("top apps differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Spans, second.Spans); diff != "" {
		t.Errorf("spans differ (-first +second):\n%s", diff)
	}
}

func TestLoadEmptyDay(t *testing.T) {
	l := New(&fakePager{}, testConfig(), nil)

	snap, err := l.Load(base)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if snap.Stats.ClockIn != nil || snap.Stats.ClockOut != nil {
		t.Error("empty day should have no clock-in/out")
	}
	if len(snap.TopApps) != 0 || len(snap.Spans) != 0 {
		t.Errorf("empty day yielded apps=%v spans=%v", snap.TopApps, snap.Spans)
	}
	if snap.State != StateDone || snap.Progress != 1.0 {
		t.Errorf("empty day state=%v progress=%v, want done/1.0", snap.State, snap.Progress)
	}
}

func TestLoadSurfacesStorageError(t *testing.T) {
	wantErr := errors.New("disk gone")
	l := New(&fakePager{err: wantErr}, testConfig(), nil)

	snap, err := l.Load(base)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Load() error = %v, want %v", err, wantErr)
	}
	if snap.State != StateDone {
		t.Errorf("failed load state = %v, want done", snap.State)
	}
}

// A superseded load must not deliver snapshots; the newer request wins.
func TestStaleLoadDiscarded(t *testing.T) {
	pager := &fakePager{samples: daySamples()}

	var snaps []Snapshot
	l := New(pager, testConfig(), func(s Snapshot) { snaps = append(snaps, s) })

	staleGen := l.begin()
	currentGen := l.begin()

	staleDate := base.AddDate(0, 0, -1)
	stale := l.run(staleGen, staleDate)
	if len(snaps) != 0 {
		t.Fatalf("stale load delivered %d snapshots, want 0", len(snaps))
	}
	if stale.State == StateDone {
		t.Error("stale load should not report done")
	}

	current := l.run(currentGen, base)
	if current.State != StateDone {
		t.Errorf("current load state = %v, want done", current.State)
	}
	if len(snaps) == 0 {
		t.Fatal("current load delivered no snapshots")
	}
	for _, s := range snaps {
		if !s.Date.Equal(base) {
			t.Errorf("snapshot for stale date %v applied", s.Date)
		}
	}
}

func TestLoadDataAsync(t *testing.T) {
	pager := &fakePager{samples: daySamples()}

	var snaps []Snapshot
	done := make(chan struct{})
	l := New(pager, testConfig(), func(s Snapshot) {
		snaps = append(snaps, s)
		if s.State == StateDone {
			close(done)
		}
	})

	l.LoadData(base)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("async load did not finish")
	}

	if l.State() != StateDone {
		t.Errorf("loader state = %v, want done", l.State())
	}

	final := snaps[len(snaps)-1]
	if len(final.Samples) != 5 {
		t.Errorf("async load accumulated %d samples, want 5", len(final.Samples))
	}

	doneCount := 0
	last := -1.0
	for _, s := range snaps {
		if s.Progress > 1.0 {
			t.Errorf("progress %v exceeds 1.0", s.Progress)
		}
		if s.Progress < last {
			t.Errorf("progress went backwards: %v after %v", s.Progress, last)
		}
		last = s.Progress
		if s.State == StateDone {
			doneCount++
		}
	}
	if doneCount != 1 {
		t.Errorf("Done emitted %d times, want exactly once", doneCount)
	}
	if last != 1.0 {
		t.Errorf("final progress = %v, want 1.0", last)
	}
}

// gatedPager parks the first query until released, holding one synchronous
// load mid-flight while another proceeds.
type gatedPager struct {
	inner   fakePager
	mu      sync.Mutex
	taken   bool
	entered chan struct{}
	gate    chan struct{}
}

func (p *gatedPager) QueryPage(start, end time.Time, chunkIndex, chunkSize int) ([]models.ActivitySample, error) {
	p.mu.Lock()
	first := !p.taken
	p.taken = true
	p.mu.Unlock()

	if first {
		close(p.entered)
		<-p.gate
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inner.QueryPage(start, end, chunkIndex, chunkSize)
}

// A second Load issued while one is still reading must not truncate either
// result; both callers get the full day.
func TestConcurrentLoadsReturnFullDays(t *testing.T) {
	pager := &gatedPager{
		inner:   fakePager{samples: daySamples()},
		entered: make(chan struct{}),
		gate:    make(chan struct{}),
	}
	l := New(pager, testConfig(), nil)

	type result struct {
		snap Snapshot
		err  error
	}
	firstDone := make(chan result, 1)
	go func() {
		snap, err := l.Load(base)
		firstDone <- result{snap, err}
	}()

	select {
	case <-pager.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first load never reached the store")
	}

	second, err := l.Load(base)
	if err != nil {
		t.Fatalf("second Load() error: %v", err)
	}
	if len(second.Samples) != 5 {
		t.Errorf("second load got %d samples, want 5", len(second.Samples))
	}

	close(pager.gate)

	select {
	case first := <-firstDone:
		if first.err != nil {
			t.Fatalf("first Load() error: %v", first.err)
		}
		if len(first.snap.Samples) != 5 {
			t.Errorf("first load got %d samples, want 5", len(first.snap.Samples))
		}
		if diff := cmp.Diff(first.snap.Stats, second.Stats); diff != "" {
			t.Errorf("stats differ (-first +second):\n%s", diff)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("first load did not finish")
	}
}

// Package loader paginates store reads into bounded chunks and recomputes the
// derived day views as each chunk arrives, so a consumer can render partial
// results during a long scan.
package loader

import (
	"sync"
	"time"

	"github.com/timescope/timescope/internal/aggregate"
	"github.com/timescope/timescope/internal/config"
	"github.com/timescope/timescope/internal/models"
)

// State is the loader's position in its Idle -> Loading -> Done cycle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateDone
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateDone:
		return "done"
	default:
		return "idle"
	}
}

// progressStep is the fixed per-chunk progress cadence. It is a UX pacing
// signal, not a completion estimate: progress holds below 1.0 until the store
// is exhausted, then snaps to 1.0 exactly when the state becomes Done.
const progressStep = 0.2

// progressCeiling bounds paced progress while chunks are still arriving.
const progressCeiling = 0.95

// Pager is the slice of the sample store the loader needs.
type Pager interface {
	QueryPage(start, end time.Time, chunkIndex, chunkSize int) ([]models.ActivitySample, error)
}

// Snapshot is one pass-by-value result of a load. Nothing in it is shared
// with the loader's internal state, so it can cross goroutine boundaries.
type Snapshot struct {
	Date     time.Time
	State    State
	Progress float64
	Err      error

	Samples  []models.ActivitySample
	Minutes  []models.MinuteActivity
	Segments []models.Segment
	Spans    []models.Span
	Stats    models.DayStats
	TopApps  []models.AppUsage
}

// Loader pages one day's samples out of the store. Issuing a new load before
// the previous one finishes supersedes it: stale chunks are discarded at
// apply time by comparing generations, last request wins.
type Loader struct {
	store    Pager
	cfg      *config.Config
	onUpdate func(Snapshot)

	mu    sync.Mutex
	gen   uint64
	state State
}

// New creates a loader. onUpdate receives a snapshot after every applied
// chunk and exactly one Done snapshot per load; it may be nil for synchronous
// use.
func New(store Pager, cfg *config.Config, onUpdate func(Snapshot)) *Loader {
	return &Loader{
		store:    store,
		cfg:      cfg,
		onUpdate: onUpdate,
		state:    StateIdle,
	}
}

// State reports the current loader state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// LoadData begins loading the day containing date in the background,
// invalidating any in-flight load.
func (l *Loader) LoadData(date time.Time) {
	gen := l.begin()
	go l.run(gen, date)
}

// Load runs a full load in the calling goroutine and returns the final
// snapshot. Used by the CLI and the JSON API, which have no use for paced
// partial results. Each call is an independent pass over the store and never
// touches the paced state machine, so concurrent callers cannot supersede
// each other and a caller never sees a truncated day.
func (l *Loader) Load(date time.Time) (Snapshot, error) {
	start, end := aggregate.DayWindow(date, l.cfg.Day.EndOfDayOffset)
	chunkSize := l.cfg.Day.ChunkSize

	var accumulated []models.ActivitySample
	for chunkIndex := 0; ; chunkIndex++ {
		chunk, err := l.store.QueryPage(start, end, chunkIndex, chunkSize)
		if err != nil {
			return Snapshot{Date: date, State: StateDone, Err: err}, err
		}

		accumulated = append(accumulated, chunk...)
		if len(chunk) < chunkSize {
			return l.snapshot(date, accumulated, 1.0, true), nil
		}
	}
}

func (l *Loader) begin() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	l.state = StateLoading
	return l.gen
}

func (l *Loader) run(gen uint64, date time.Time) Snapshot {
	start, end := aggregate.DayWindow(date, l.cfg.Day.EndOfDayOffset)
	chunkSize := l.cfg.Day.ChunkSize

	var (
		accumulated []models.ActivitySample
		progress    float64
		snap        Snapshot
	)

	for chunkIndex := 0; ; chunkIndex++ {
		chunk, err := l.store.QueryPage(start, end, chunkIndex, chunkSize)
		if err != nil {
			snap = Snapshot{Date: date, State: StateDone, Progress: progress, Err: err}
			l.apply(gen, snap)
			return snap
		}

		accumulated = append(accumulated, chunk...)
		done := len(chunk) < chunkSize

		if done {
			progress = 1.0
		} else if progress+progressStep < progressCeiling {
			progress += progressStep
		} else {
			progress = progressCeiling
		}

		snap = l.snapshot(date, accumulated, progress, done)
		if !l.apply(gen, snap) {
			// Superseded; the new load owns the state machine now.
			snap.State = StateIdle
			return snap
		}

		if done {
			return snap
		}
	}
}

// snapshot recomputes every derived view over the accumulated samples. A full
// recompute per chunk is fine at the modeled volume (<= ~14k samples per
// day).
func (l *Loader) snapshot(date time.Time, samples []models.ActivitySample, progress float64, done bool) Snapshot {
	dayStart, _ := aggregate.DayWindow(date, l.cfg.Day.EndOfDayOffset)
	interval := l.cfg.Sampler.Interval

	segments := aggregate.Segments(samples, dayStart, l.cfg.Day.SegmentDuration, interval)

	state := StateLoading
	if done {
		state = StateDone
	}

	return Snapshot{
		Date:     date,
		State:    state,
		Progress: progress,
		Samples:  samples,
		Minutes:  aggregate.Minutes(samples, interval),
		Segments: segments,
		Spans:    aggregate.MergeAdjacentSegments(segments),
		Stats:    aggregate.Stats(samples, interval),
		TopApps:  aggregate.MostUsedApps(samples, interval),
	}
}

// apply delivers a snapshot unless the load has been superseded. Returns
// false when the snapshot is stale and was discarded.
func (l *Loader) apply(gen uint64, snap Snapshot) bool {
	l.mu.Lock()
	if l.gen != gen {
		l.mu.Unlock()
		return false
	}
	if snap.State == StateDone {
		l.state = StateDone
	}
	onUpdate := l.onUpdate
	l.mu.Unlock()

	if onUpdate != nil {
		onUpdate(snap)
	}
	return true
}

package progress

import (
	"context"
	"sync"
	"time"
)

// TrackerState is a snapshot the tracker hands to its save function.
type TrackerState struct {
	Location      string
	Percentage    float64
	ReadTimeDelta int
}

// SaveFunc persists a tracker snapshot. Implementations typically call the
// progress endpoint; errors are returned to the caller but the tracker keeps
// its in-memory state either way.
type SaveFunc func(ctx context.Context, state TrackerState) error

// TrackerConfig tunes the tracker's timers. Zero values get defaults.
type TrackerConfig struct {
	Save SaveFunc
	// Debounce is how long after the last navigation event a persisted
	// write fires. Bursts of page turns coalesce into one save.
	Debounce time.Duration
	// FlushInterval is the period of the time-accounting flush, so idle but
	// open sessions still record elapsed read time.
	FlushInterval time.Duration
}

const (
	defaultDebounce      = 1500 * time.Millisecond
	defaultFlushInterval = 30 * time.Second

	// percentageInterval throttles display-percentage updates; the location
	// anchor itself is updated on every event at zero cost.
	percentageInterval = time.Second
)

// Tracker converts continuous navigation events into a coarse, debounced,
// persisted reading position. All state transitions are serialized behind
// one mutex: navigation events, the debounce timer, and the periodic flush
// never write concurrently. Once any local update has happened, stale
// server-side progress can no longer overwrite it (local wins).
type Tracker struct {
	mu sync.Mutex

	save          SaveFunc
	debounce      time.Duration
	flushInterval time.Duration

	location     string
	percentage   float64
	localTouched bool

	lastPercentAt time.Time
	readingSince  time.Time

	debounceTimer *time.Timer
	done          chan struct{}
	closeOnce     sync.Once
}

func NewTracker(cfg TrackerConfig) *Tracker {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaultFlushInterval
	}
	return &Tracker{
		save:          cfg.Save,
		debounce:      cfg.Debounce,
		flushInterval: cfg.FlushInterval,
		done:          make(chan struct{}),
	}
}

// Start begins read-time accounting and the periodic flush loop.
func (t *Tracker) Start() {
	t.mu.Lock()
	if t.readingSince.IsZero() {
		t.readingSince = time.Now()
	}
	t.mu.Unlock()

	go t.flushLoop()
}

func (t *Tracker) flushLoop() {
	ticker := time.NewTicker(t.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = t.Flush(context.Background())
		case <-t.done:
			return
		}
	}
}

// Navigate records a page/scroll event. The location anchor updates
// immediately and unconditionally; the display percentage updates at most
// once per second and never regresses. No network call happens here — a
// debounce timer coalesces bursts into a single persisted write.
func (t *Tracker) Navigate(location string, percentage float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	t.location = location
	if percentage > t.percentage && now.Sub(t.lastPercentAt) >= percentageInterval {
		t.percentage = percentage
		t.lastPercentAt = now
	}
	t.localTouched = true
	if t.readingSince.IsZero() {
		t.readingSince = now
	}

	if t.debounceTimer != nil {
		t.debounceTimer.Stop()
	}
	t.debounceTimer = time.AfterFunc(t.debounce, func() {
		_ = t.Flush(context.Background())
	})
}

// ApplyServer reconciles a server-side progress read into the tracker.
// Ignored once any local update has occurred: a late-arriving revalidation
// of stale server state must never clobber progress the user has already
// advanced past.
func (t *Tracker) ApplyServer(location string, percentage float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.localTouched {
		return
	}
	t.location = location
	t.percentage = percentage
}

// State returns the tracker's current in-memory position.
func (t *Tracker) State() (string, float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.location, t.percentage
}

// Flush persists the current position and the read time elapsed since the
// previous flush. Safe to call from any timer or from an unload path; no-op
// until tracking has produced something to record.
func (t *Tracker) Flush(ctx context.Context) error {
	t.mu.Lock()
	if t.readingSince.IsZero() && !t.localTouched {
		t.mu.Unlock()
		return nil
	}

	now := time.Now()
	state := TrackerState{
		Location:   t.location,
		Percentage: t.percentage,
	}
	if !t.readingSince.IsZero() {
		state.ReadTimeDelta = int(now.Sub(t.readingSince) / time.Second)
	}
	t.readingSince = now
	save := t.save
	t.mu.Unlock()

	if save == nil {
		return nil
	}
	return save(ctx, state)
}

// Close stops the timers and performs a final best-effort flush. This is
// the unload path: fire once, don't retry.
func (t *Tracker) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		t.mu.Lock()
		if t.debounceTimer != nil {
			t.debounceTimer.Stop()
		}
		t.mu.Unlock()
		err = t.Flush(context.Background())
	})
	return err
}

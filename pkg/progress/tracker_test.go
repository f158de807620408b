package progress

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stateRecorder is a SaveFunc that records every flush.
type stateRecorder struct {
	mu     sync.Mutex
	states []TrackerState
}

func (r *stateRecorder) save(_ context.Context, state TrackerState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
	return nil
}

func (r *stateRecorder) all() []TrackerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]TrackerState(nil), r.states...)
}

func TestTrackerDebounceCoalescesNavigation(t *testing.T) {
	t.Parallel()

	rec := &stateRecorder{}
	tr := NewTracker(TrackerConfig{Save: rec.save, Debounce: 20 * time.Millisecond, FlushInterval: time.Hour})

	for i := 0; i < 5; i++ {
		tr.Navigate(fmt.Sprintf("ch1.xhtml#p%d", i), 1)
		time.Sleep(2 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return len(rec.all()) == 1
	}, time.Second, 5*time.Millisecond)

	states := rec.all()
	assert.Equal(t, "ch1.xhtml#p4", states[0].Location)
}

func TestTrackerLocalWins(t *testing.T) {
	t.Parallel()

	tr := NewTracker(TrackerConfig{Save: (&stateRecorder{}).save, Debounce: time.Hour, FlushInterval: time.Hour})

	tr.Navigate("ch5.xhtml", 42)

	// A stale server read arriving after local progress must not regress it.
	tr.ApplyServer("ch1.xhtml", 3)

	loc, pct := tr.State()
	assert.Equal(t, "ch5.xhtml", loc)
	assert.Equal(t, float64(42), pct)
}

func TestTrackerAdoptsServerStateBeforeLocalUpdates(t *testing.T) {
	t.Parallel()

	tr := NewTracker(TrackerConfig{Save: (&stateRecorder{}).save, Debounce: time.Hour, FlushInterval: time.Hour})

	tr.ApplyServer("ch3.xhtml", 27)

	loc, pct := tr.State()
	assert.Equal(t, "ch3.xhtml", loc)
	assert.Equal(t, float64(27), pct)
}

func TestTrackerPercentageThrottle(t *testing.T) {
	t.Parallel()

	tr := NewTracker(TrackerConfig{Save: (&stateRecorder{}).save, Debounce: time.Hour, FlushInterval: time.Hour})

	tr.Navigate("ch1.xhtml", 10)
	tr.Navigate("ch2.xhtml", 11)

	// The location moved but the display percentage is rate-limited.
	loc, pct := tr.State()
	assert.Equal(t, "ch2.xhtml", loc)
	assert.Equal(t, float64(10), pct)
}

func TestTrackerPercentageNeverRegresses(t *testing.T) {
	t.Parallel()

	tr := NewTracker(TrackerConfig{Save: (&stateRecorder{}).save, Debounce: time.Hour, FlushInterval: time.Hour})

	tr.Navigate("ch5.xhtml", 50)
	time.Sleep(percentageInterval + 50*time.Millisecond)
	tr.Navigate("ch4.xhtml", 40)

	loc, pct := tr.State()
	assert.Equal(t, "ch4.xhtml", loc)
	assert.Equal(t, float64(50), pct)
}

func TestTrackerPeriodicFlushAccountsReadTime(t *testing.T) {
	t.Parallel()

	rec := &stateRecorder{}
	tr := NewTracker(TrackerConfig{Save: rec.save, Debounce: time.Hour, FlushInterval: time.Second})
	tr.Start()
	defer tr.Close()

	// No navigation at all: an idle-but-open session still records time.
	time.Sleep(1300 * time.Millisecond)

	states := rec.all()
	require.NotEmpty(t, states)
	total := 0
	for _, s := range states {
		total += s.ReadTimeDelta
	}
	assert.GreaterOrEqual(t, total, 1)
}

func TestTrackerCloseFlushes(t *testing.T) {
	t.Parallel()

	rec := &stateRecorder{}
	tr := NewTracker(TrackerConfig{Save: rec.save, Debounce: time.Hour, FlushInterval: time.Hour})
	tr.Start()

	tr.Navigate("ch9.xhtml", 99)
	require.NoError(t, tr.Close())

	states := rec.all()
	require.Len(t, states, 1)
	assert.Equal(t, "ch9.xhtml", states[0].Location)
	assert.Equal(t, float64(99), states[0].Percentage)

	// Close is idempotent.
	require.NoError(t, tr.Close())
	assert.Len(t, rec.all(), 1)
}

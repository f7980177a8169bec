package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type countingKeeper struct {
	acquires int
	releases int
}

func (k *countingKeeper) Acquire() { k.acquires++ }
func (k *countingKeeper) Release() { k.releases++ }

func setupState(t *testing.T) (*State, *fakeClock, *countingKeeper, *int) {
	t.Helper()
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	keeper := &countingKeeper{}
	completions := 0
	st := NewState(clock.Now, keeper, func(cfg Config, out Outcome) {
		completions++
	})
	return st, clock, keeper, &completions
}

func TestStartValidation(t *testing.T) {
	st, _, keeper, _ := setupState(t)

	assert.ErrorIs(t, st.Start(Config{DurationSeconds: 60}), ErrEmptyTask)
	assert.ErrorIs(t, st.Start(Config{DurationSeconds: 60, TaskLabel: "   "}), ErrEmptyTask)
	assert.ErrorIs(t, st.Start(Config{DurationSeconds: 0, TaskLabel: "x"}), ErrBadDuration)

	long := make([]rune, MaxTaskLabelLen+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.ErrorIs(t, st.Start(Config{DurationSeconds: 60, TaskLabel: string(long)}), ErrTaskTooLong)

	// No state change and no keep-awake hold on rejection
	assert.False(t, st.Running())
	assert.Equal(t, 0, keeper.acquires)

	require.NoError(t, st.Start(Config{DurationSeconds: 60, TaskLabel: "Read 1 page"}))
	assert.ErrorIs(t, st.Start(Config{DurationSeconds: 60, TaskLabel: "another"}), ErrRunning)
}

func TestCountdownToCompletion(t *testing.T) {
	st, _, _, completions := setupState(t)

	require.NoError(t, st.Start(Config{DurationSeconds: 30, TaskLabel: "Read 1 page"}))
	for i := 0; i < 30; i++ {
		st.Tick()
	}

	status := st.Status()
	assert.Equal(t, 0, status.RemainingSeconds)
	assert.False(t, status.Running)
	assert.Equal(t, 1, *completions)

	// Extra ticks at zero must not re-fire or go negative
	st.Tick()
	st.Tick()
	assert.Equal(t, 0, st.Status().RemainingSeconds)
	assert.Equal(t, 1, *completions)
}

func TestPausePreservesRemaining(t *testing.T) {
	st, _, _, _ := setupState(t)

	require.NoError(t, st.Start(Config{DurationSeconds: 10, TaskLabel: "task"}))
	st.Tick()
	st.Tick()
	st.Pause()

	assert.False(t, st.Running())
	assert.Equal(t, 8, st.Status().RemainingSeconds)

	// Ticks while paused are ignored
	st.Tick()
	assert.Equal(t, 8, st.Status().RemainingSeconds)

	require.NoError(t, st.Resume())
	st.Tick()
	assert.Equal(t, 7, st.Status().RemainingSeconds)
}

func TestResetOnlyWhileStopped(t *testing.T) {
	st, _, _, _ := setupState(t)

	require.NoError(t, st.Start(Config{DurationSeconds: 10, TaskLabel: "task"}))
	assert.ErrorIs(t, st.Reset(20), ErrRunning)

	st.Pause()
	require.NoError(t, st.Reset(20))
	assert.Equal(t, 20, st.Status().RemainingSeconds)
	assert.ErrorIs(t, st.Reset(0), ErrBadDuration)
}

func TestWakeCompensatesSuspendedTime(t *testing.T) {
	st, clock, _, completions := setupState(t)

	require.NoError(t, st.Start(Config{DurationSeconds: 100, TaskLabel: "task"}))
	st.Tick()
	require.Equal(t, 99, st.Status().RemainingSeconds)

	st.Suspend()
	clock.Advance(30 * time.Second)
	st.Wake()

	assert.Equal(t, 69, st.Status().RemainingSeconds)
	assert.True(t, st.Running())
	assert.Equal(t, 0, *completions)
}

func TestWakeClampsAtZeroAndCompletesImmediately(t *testing.T) {
	st, clock, _, completions := setupState(t)

	require.NoError(t, st.Start(Config{DurationSeconds: 10, TaskLabel: "task"}))
	st.Suspend()
	clock.Advance(5 * time.Minute)
	st.Wake()

	status := st.Status()
	assert.Equal(t, 0, status.RemainingSeconds)
	assert.False(t, status.Running)
	assert.Equal(t, 1, *completions, "completion fires on wake, not on a later tick")
}

func TestRapidSuspendWakeCyclesDoNotDoubleSubtract(t *testing.T) {
	st, clock, _, _ := setupState(t)

	require.NoError(t, st.Start(Config{DurationSeconds: 100, TaskLabel: "task"}))

	// Several cycles with no time passing: nothing to subtract.
	for i := 0; i < 5; i++ {
		st.Suspend()
		st.Wake()
	}
	assert.Equal(t, 100, st.Status().RemainingSeconds)

	// The marker is cleared after use: a second wake for the same interval
	// must not subtract again.
	st.Suspend()
	clock.Advance(10 * time.Second)
	st.Wake()
	st.Wake()
	assert.Equal(t, 90, st.Status().RemainingSeconds)

	// Repeated suspends move the marker; only the latest is honored.
	st.Suspend()
	clock.Advance(10 * time.Second)
	st.Suspend()
	clock.Advance(10 * time.Second)
	st.Wake()
	assert.Equal(t, 80, st.Status().RemainingSeconds)
}

func TestWakeWithoutSessionClearsStaleMarker(t *testing.T) {
	st, clock, _, _ := setupState(t)

	// Wake with no session at all: no panic, no state.
	st.Wake()

	require.NoError(t, st.Start(Config{DurationSeconds: 50, TaskLabel: "task"}))
	st.Pause()
	st.Suspend() // ignored while not running
	clock.Advance(time.Hour)
	st.Wake()
	assert.Equal(t, 50, st.Status().RemainingSeconds)
}

func TestKeepAwakePairsOnAllExitPaths(t *testing.T) {
	st, clock, keeper, _ := setupState(t)

	// pause path
	require.NoError(t, st.Start(Config{DurationSeconds: 10, TaskLabel: "task"}))
	st.Pause()
	assert.Equal(t, 1, keeper.acquires)
	assert.Equal(t, 1, keeper.releases)

	// completion path
	require.NoError(t, st.Resume())
	for i := 0; i < 10; i++ {
		st.Tick()
	}
	assert.Equal(t, 2, keeper.acquires)
	assert.Equal(t, 2, keeper.releases)

	// wake-driven completion path
	require.NoError(t, st.Start(Config{DurationSeconds: 5, TaskLabel: "task"}))
	st.Suspend()
	clock.Advance(time.Minute)
	st.Wake()
	assert.Equal(t, 3, keeper.acquires)
	assert.Equal(t, 3, keeper.releases)

	// teardown path
	require.NoError(t, st.Start(Config{DurationSeconds: 5, TaskLabel: "task"}))
	st.Teardown()
	assert.Equal(t, 4, keeper.acquires)
	assert.Equal(t, 4, keeper.releases)

	// teardown while already stopped must not double-release
	st.Teardown()
	assert.Equal(t, 4, keeper.releases)
}

func TestCompletionOutcome(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	var got Outcome
	st := NewState(clock.Now, nil, func(cfg Config, out Outcome) {
		got = out
	})

	start := clock.t
	require.NoError(t, st.Start(Config{DurationSeconds: 3, TaskLabel: "task"}))
	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		st.Tick()
	}

	assert.True(t, got.Completed)
	assert.Equal(t, 3, got.ActualSeconds)
	assert.Equal(t, start, got.StartedAt)
	assert.Equal(t, start.Add(3*time.Second), got.EndedAt)
}

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEngine(t *testing.T) (*Engine, chan interface{}) {
	t.Helper()
	updates := make(chan interface{}, 50)
	e := NewEngine(nil, updates)
	e.Start()
	t.Cleanup(e.Stop)
	return e, updates
}

func TestEngineStartValidationSurfaces(t *testing.T) {
	e, _ := setupEngine(t)

	err := e.StartSession(Config{DurationSeconds: 60})
	assert.ErrorIs(t, err, ErrEmptyTask)

	st := e.SessionStatus()
	assert.False(t, st.Running)
	assert.Equal(t, 0, st.DurationSeconds)
}

func TestEngineCommandRoundTrip(t *testing.T) {
	e, updates := setupEngine(t)

	require.NoError(t, e.StartSession(Config{DurationSeconds: 1500, TaskLabel: "Deep work"}))

	st := e.SessionStatus()
	assert.True(t, st.Running)
	assert.Equal(t, "Deep work", st.TaskLabel)
	assert.InDelta(t, 1500, st.RemainingSeconds, 1)

	// The start must have published a status update.
	select {
	case u := <-updates:
		status, ok := u.(Status)
		require.True(t, ok, "expected a Status update, got %T", u)
		assert.True(t, status.Running)
	default:
		t.Fatal("expected an update after start")
	}

	e.PauseSession()
	st = e.SessionStatus()
	assert.False(t, st.Running)
	assert.InDelta(t, 1500, st.RemainingSeconds, 1)

	assert.ErrorIs(t, e.ResetSession(0), ErrBadDuration)
	require.NoError(t, e.ResetSession(300))
	assert.Equal(t, 300, e.SessionStatus().RemainingSeconds)

	require.NoError(t, e.ResumeSession())
	assert.ErrorIs(t, e.ResumeSession(), ErrRunning)
}

func TestResumeDiscardsTickBufferedWhilePaused(t *testing.T) {
	e, _ := setupEngine(t)

	require.NoError(t, e.StartSession(Config{DurationSeconds: 100, TaskLabel: "task"}))
	e.PauseSession()

	// Long enough for one tick to land in the ticker's buffer while paused.
	time.Sleep(1200 * time.Millisecond)
	require.NoError(t, e.ResumeSession())

	// Well before the first post-resume tick is due: the paused second must
	// not have been charged.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 100, e.SessionStatus().RemainingSeconds)
}

func TestWakeCompensationIsNotStackedWithStaleTick(t *testing.T) {
	e, _ := setupEngine(t)

	require.NoError(t, e.StartSession(Config{DurationSeconds: 100, TaskLabel: "task"}))
	e.SuspendSession()

	// Ticks fire into the buffer during the suspension but must be ignored;
	// the wall-clock compensation on wake is the only accounting.
	time.Sleep(2200 * time.Millisecond)
	e.WakeSession()

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 98, e.SessionStatus().RemainingSeconds)
}

func TestEngineSuspendWakeRoundTrip(t *testing.T) {
	e, _ := setupEngine(t)

	require.NoError(t, e.StartSession(Config{DurationSeconds: 600, TaskLabel: "task"}))
	e.SuspendSession()
	assert.True(t, e.SessionStatus().Suspended)

	// Immediate wake: no measurable time passed, nothing subtracted.
	e.WakeSession()
	st := e.SessionStatus()
	assert.False(t, st.Suspended)
	assert.InDelta(t, 600, st.RemainingSeconds, 1)
	assert.True(t, st.Running)
}

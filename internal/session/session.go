package session

import (
	"errors"
	"strings"
	"time"

	"enfoque/internal/keepawake"
)

// MaxTaskLabelLen bounds the task label a session can be started with.
const MaxTaskLabelLen = 100

var (
	ErrEmptyTask   = errors.New("task label cannot be empty")
	ErrTaskTooLong = errors.New("task label is too long")
	ErrBadDuration = errors.New("duration must be a positive number of seconds")
	ErrRunning     = errors.New("session is currently running")
	ErrNoSession   = errors.New("no session to resume")
)

// Config describes one focus session. Immutable for the whole run.
type Config struct {
	DurationSeconds int
	TaskLabel       string
}

// Validate checks a config the way the start action does, without
// touching any state.
func (c Config) Validate() error {
	label := strings.TrimSpace(c.TaskLabel)
	if label == "" {
		return ErrEmptyTask
	}
	if len([]rune(label)) > MaxTaskLabelLen {
		return ErrTaskTooLong
	}
	if c.DurationSeconds <= 0 {
		return ErrBadDuration
	}
	return nil
}

// Status is a point-in-time snapshot of the countdown.
type Status struct {
	TaskLabel        string
	RemainingSeconds int
	DurationSeconds  int
	Running          bool
	Suspended        bool
}

// State is the countdown state machine: start/pause/resume/reset, a
// once-per-second tick, and suspend/wake compensation for intervals the
// tick source could not cover. It is not safe for concurrent use; the
// Engine owns it on a single goroutine and tests drive it directly.
//
// Invariants: remaining never goes negative, and reaching zero flips
// running to false and fires the completion callback exactly once.
type State struct {
	cfg         Config
	remaining   int
	running     bool
	completed   bool
	suspendedAt time.Time // zero when no suspension is recorded
	startedAt   time.Time

	now    func() time.Time
	keeper keepawake.Keeper
	onDone func(Config, Outcome)
	held   bool
}

// Outcome describes how a session ended, for the history record.
type Outcome struct {
	ActualSeconds int
	Completed     bool
	StartedAt     time.Time
	EndedAt       time.Time
}

// NewState builds a state machine. now may be nil (wall clock), keeper may
// be nil (no keep-awake), onDone may be nil.
func NewState(now func() time.Time, keeper keepawake.Keeper, onDone func(Config, Outcome)) *State {
	if now == nil {
		now = time.Now
	}
	if keeper == nil {
		keeper = keepawake.Noop{}
	}
	return &State{now: now, keeper: keeper, onDone: onDone}
}

// Start begins a new session. Rejected with a validation error (and no
// state change) if the config is invalid, or with ErrRunning if a session
// is already counting down.
func (s *State) Start(cfg Config) error {
	if s.running {
		return ErrRunning
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfg = cfg
	s.remaining = cfg.DurationSeconds
	s.completed = false
	s.suspendedAt = time.Time{}
	s.startedAt = s.now()
	s.setRunning(true)
	return nil
}

// Pause halts the countdown, preserving the remaining time.
func (s *State) Pause() {
	s.setRunning(false)
}

// Resume continues a paused session.
func (s *State) Resume() error {
	if s.running {
		return ErrRunning
	}
	if s.remaining <= 0 || s.completed || s.cfg.DurationSeconds == 0 {
		return ErrNoSession
	}
	s.setRunning(true)
	return nil
}

// Reset discards the current session and arms a fresh duration. Only
// permitted while not running.
func (s *State) Reset(durationSeconds int) error {
	if s.running {
		return ErrRunning
	}
	if durationSeconds <= 0 {
		return ErrBadDuration
	}
	s.cfg = Config{DurationSeconds: durationSeconds, TaskLabel: s.cfg.TaskLabel}
	s.remaining = durationSeconds
	s.completed = false
	s.suspendedAt = time.Time{}
	return nil
}

// Tick advances the countdown by one second. No-op unless running.
func (s *State) Tick() {
	if !s.running {
		return
	}
	s.remaining--
	if s.remaining <= 0 {
		s.remaining = 0
		s.complete()
	}
}

// Suspend records that the tick source is about to stop delivering
// (process backgrounded / machine suspending). Repeated calls just move
// the marker forward; only the most recent one is honored.
func (s *State) Suspend() {
	if !s.running {
		return
	}
	s.suspendedAt = s.now()
}

// Wake reconciles wall-clock time that passed while suspended. The
// suspension marker is cleared unconditionally on every wake so a stale
// marker can never bleed into a later session. If compensation drains the
// countdown, completion fires immediately rather than waiting for a tick.
func (s *State) Wake() {
	suspendedAt := s.suspendedAt
	s.suspendedAt = time.Time{}
	if suspendedAt.IsZero() || !s.running {
		return
	}
	elapsed := int(s.now().Sub(suspendedAt) / time.Second)
	if elapsed <= 0 {
		return
	}
	s.remaining -= elapsed
	if s.remaining <= 0 {
		s.remaining = 0
		s.complete()
	}
}

// Teardown releases held resources on shutdown without firing completion.
func (s *State) Teardown() {
	s.setRunning(false)
}

func (s *State) Status() Status {
	return Status{
		TaskLabel:        s.cfg.TaskLabel,
		RemainingSeconds: s.remaining,
		DurationSeconds:  s.cfg.DurationSeconds,
		Running:          s.running,
		Suspended:        !s.suspendedAt.IsZero(),
	}
}

func (s *State) Running() bool { return s.running }

func (s *State) complete() {
	if s.completed {
		return
	}
	s.completed = true
	s.setRunning(false)
	if s.onDone != nil {
		s.onDone(s.cfg, Outcome{
			ActualSeconds: s.cfg.DurationSeconds - s.remaining,
			Completed:     true,
			StartedAt:     s.startedAt,
			EndedAt:       s.now(),
		})
	}
}

// setRunning flips the running flag and keeps exactly one keep-awake
// acquisition alive while true. All exit paths funnel through here.
func (s *State) setRunning(running bool) {
	if running == s.running {
		return
	}
	s.running = running
	if running && !s.held {
		s.keeper.Acquire()
		s.held = true
	} else if !running && s.held {
		s.keeper.Release()
		s.held = false
	}
}

package session

import (
	"context"
	"log"
	"time"

	"enfoque/internal/keepawake"
)

// Completed is sent on the update channel when a session finishes. The
// receiving side runs the notification cascade and records history; the
// engine itself never blocks on either.
type Completed struct {
	Config  Config
	Outcome Outcome
}

// --- Command Types ---
type startCmd struct {
	cfg   Config
	reply chan error
}
type pauseCmd struct{}
type resumeCmd struct {
	reply chan error
}
type resetCmd struct {
	seconds int
	reply   chan error
}
type suspendCmd struct{}
type wakeCmd struct{}
type statusCmd struct {
	reply chan Status
}

// Engine owns a State on a single goroutine and drives it with a
// one-second ticker. All mutation goes through the command channel, so no
// locks guard the state itself.
type Engine struct {
	state      *State
	cmdChan    chan interface{}
	updateChan chan<- interface{}

	suspended bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewEngine(keeper keepawake.Keeper, updateChan chan<- interface{}) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cmdChan:    make(chan interface{}, 10),
		updateChan: updateChan,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	e.state = NewState(time.Now, keeper, func(cfg Config, out Outcome) {
		e.sendUpdate(Completed{Config: cfg, Outcome: out})
	})
	return e
}

func (e *Engine) Start() {
	log.Println("Starting session engine")
	go e.runLoop()
}

func (e *Engine) Stop() {
	log.Println("Stopping session engine")
	e.cancel()
	select {
	case <-e.done:
	case <-time.After(2 * time.Second):
		log.Println("Warning: Timeout waiting for session engine to stop.")
	}
}

// Public methods to send commands. The ones that can fail validation
// block for the engine's answer so callers can surface the error.

func (e *Engine) StartSession(cfg Config) error {
	reply := make(chan error, 1)
	return e.ask(startCmd{cfg: cfg, reply: reply}, reply)
}

func (e *Engine) PauseSession() {
	e.send(pauseCmd{})
}

func (e *Engine) ResumeSession() error {
	reply := make(chan error, 1)
	return e.ask(resumeCmd{reply: reply}, reply)
}

func (e *Engine) ResetSession(durationSeconds int) error {
	reply := make(chan error, 1)
	return e.ask(resetCmd{seconds: durationSeconds, reply: reply}, reply)
}

func (e *Engine) SuspendSession() {
	e.send(suspendCmd{})
}

func (e *Engine) WakeSession() {
	e.send(wakeCmd{})
}

func (e *Engine) SessionStatus() Status {
	reply := make(chan Status, 1)
	select {
	case e.cmdChan <- statusCmd{reply: reply}:
	case <-e.ctx.Done():
		return Status{}
	}
	select {
	case st := <-reply:
		return st
	case <-e.ctx.Done():
		return Status{}
	}
}

func (e *Engine) send(cmd interface{}) {
	select {
	case e.cmdChan <- cmd:
	case <-e.ctx.Done():
	}
}

func (e *Engine) ask(cmd interface{}, reply chan error) error {
	select {
	case e.cmdChan <- cmd:
	case <-e.ctx.Done():
		return context.Canceled
	}
	select {
	case err := <-reply:
		return err
	case <-e.ctx.Done():
		return context.Canceled
	}
}

func (e *Engine) runLoop() {
	defer close(e.done)
	defer log.Println("Session engine loop stopped.")

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	ticking := false
	for {
		// A nil channel never delivers: ticks are dropped while stopped or
		// suspended, so tick-decrement and wake-compensation can never both
		// account for the same interval.
		shouldTick := e.state.Running() && !e.suspended
		if shouldTick && !ticking {
			// The ticker kept firing while ticks were disabled, so one tick
			// may sit buffered in ticker.C. Delivering it now would charge
			// the session for time it never ran (or, after a wake, for an
			// interval the compensation already covered). Discard it.
			select {
			case <-ticker.C:
			default:
			}
		}
		ticking = shouldTick

		var tickChan <-chan time.Time
		if ticking {
			tickChan = ticker.C
		}

		select {
		case <-e.ctx.Done():
			e.state.Teardown()
			return

		case cmd := <-e.cmdChan:
			e.handleCommand(cmd)

		case <-tickChan:
			e.state.Tick()
			if st := e.state.Status(); st.Running {
				e.sendUpdate(st)
			}
		}
	}
}

func (e *Engine) handleCommand(cmd interface{}) {
	switch c := cmd.(type) {
	case startCmd:
		err := e.state.Start(c.cfg)
		if err == nil {
			log.Printf("Session started: task=%q duration=%ds", c.cfg.TaskLabel, c.cfg.DurationSeconds)
			e.suspended = false
			e.sendUpdate(e.state.Status())
		}
		c.reply <- err

	case pauseCmd:
		e.state.Pause()
		log.Printf("Session paused: %ds remaining", e.state.Status().RemainingSeconds)
		e.sendUpdate(e.state.Status())

	case resumeCmd:
		err := e.state.Resume()
		if err == nil {
			log.Printf("Session resumed: %ds remaining", e.state.Status().RemainingSeconds)
			e.sendUpdate(e.state.Status())
		}
		c.reply <- err

	case resetCmd:
		err := e.state.Reset(c.seconds)
		if err == nil {
			log.Printf("Session reset to %ds", c.seconds)
			e.sendUpdate(e.state.Status())
		}
		c.reply <- err

	case suspendCmd:
		e.state.Suspend()
		if e.state.Running() {
			e.suspended = true
			log.Println("Session suspended (ticks halted).")
		}

	case wakeCmd:
		wasSuspended := e.suspended
		e.suspended = false
		e.state.Wake()
		if wasSuspended {
			log.Printf("Session woke: %ds remaining", e.state.Status().RemainingSeconds)
		}
		e.sendUpdate(e.state.Status())

	case statusCmd:
		c.reply <- e.state.Status()

	default:
		log.Printf("Warning: Unknown command received in session engine: %T", c)
	}
}

func (e *Engine) sendUpdate(update interface{}) {
	select {
	case e.updateChan <- update:
	case <-e.ctx.Done():
	case <-time.After(100 * time.Millisecond):
		log.Println("Warning: Timeout sending update from session engine")
	}
}

package keepawake

// Keeper prevents the machine from blanking or sleeping while a focus
// session is running. Acquire and Release must pair up: the session engine
// acquires on every transition to running and releases on every transition
// back (pause, reset, completion, teardown). Release on an unheld keeper
// must be a safe no-op.
type Keeper interface {
	Acquire()
	Release()
}

// Noop is used when no display is available (headless, no X server).
type Noop struct{}

func (Noop) Acquire() {}
func (Noop) Release() {}

package keepawake

import (
	"fmt"
	"log"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// X11Keeper keeps the display awake by resetting the X screen saver on an
// interval for as long as the keeper is held. This is the desktop analogue
// of a mobile wake lock: best effort, and harmless if the poke fails.
type X11Keeper struct {
	X        *xgbutil.XUtil
	interval time.Duration
	stopChan chan struct{}
	held     bool
}

func NewX11Keeper(interval time.Duration) (*X11Keeper, error) {
	X, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &X11Keeper{X: X, interval: interval}, nil
}

func (k *X11Keeper) Acquire() {
	if k.held {
		return
	}
	k.held = true
	k.stopChan = make(chan struct{})
	log.Printf("Keep-awake acquired (poking screen saver every %s)", k.interval)

	go func(stop chan struct{}) {
		ticker := time.NewTicker(k.interval)
		defer ticker.Stop()

		k.poke() // immediate first reset
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				k.poke()
			}
		}
	}(k.stopChan)
}

func (k *X11Keeper) Release() {
	if !k.held {
		return
	}
	k.held = false
	close(k.stopChan)
	k.stopChan = nil
	log.Println("Keep-awake released.")
}

func (k *X11Keeper) poke() {
	if err := xproto.ForceScreenSaverChecked(k.X.Conn(), xproto.ScreenSaverReset).Check(); err != nil {
		// Don't spam logs; the X server may be going away on session end.
		log.Printf("Warning: screen saver reset failed: %v", err)
	}
}

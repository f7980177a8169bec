package notify

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

var errNotApplicable = errors.New("stage not applicable")

// X11Bell returns a BellFunc ringing the X server bell, or nil when no
// display is reachable.
func X11Bell() BellFunc {
	X, err := xgbutil.NewConn()
	if err != nil {
		return nil
	}
	return func() error {
		if err := xproto.BellChecked(X.Conn(), 50).Check(); err != nil {
			return fmt.Errorf("x11 bell: %w", err)
		}
		return nil
	}
}

// DesktopPost returns a PostFunc shelling out to notify-send, or nil when
// the binary is missing.
func DesktopPost() PostFunc {
	path, err := exec.LookPath("notify-send")
	if err != nil {
		return nil
	}
	return func(title, body string) error {
		return exec.Command(path, "--app-name=enfoque", title, body).Run()
	}
}

package notify

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Player owns the single active playback handle. Only one cue may be
// current at a time; Play releases the previous one before starting.
type Player interface {
	Play(ctx context.Context, path string) error
	Stop()
}

// ExecPlayer shells out to whichever command-line audio player is
// installed. Playback runs detached; Play only reports errors that show up
// while starting (missing file, missing binary, immediate exit).
type ExecPlayer struct {
	binary string
	args   []string

	mu      sync.Mutex
	current *exec.Cmd
}

// playerCandidates lists known CLI players with the flags that make them
// play a single file and exit quietly.
var playerCandidates = []struct {
	binary string
	args   []string
}{
	{"paplay", nil},
	{"aplay", []string{"-q"}},
	{"ffplay", []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}},
	{"mpv", []string{"--no-video", "--really-quiet"}},
}

// NewExecPlayer picks the first available player binary. override, when
// non-empty, names a binary to use instead of probing (config escape hatch).
func NewExecPlayer(override string) (*ExecPlayer, error) {
	if override != "" {
		path, err := exec.LookPath(override)
		if err != nil {
			return nil, fmt.Errorf("configured player %q not found: %w", override, err)
		}
		return &ExecPlayer{binary: path}, nil
	}
	for _, c := range playerCandidates {
		if path, err := exec.LookPath(c.binary); err == nil {
			log.Printf("Using audio player: %s", path)
			return &ExecPlayer{binary: path, args: c.args}, nil
		}
	}
	return nil, fmt.Errorf("no command-line audio player found (tried paplay, aplay, ffplay, mpv)")
}

func (p *ExecPlayer) Play(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("sound file unavailable: %w", err)
	}

	p.Stop()

	args := append(append([]string{}, p.args...), path)
	cmd := exec.CommandContext(ctx, p.binary, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start player: %w", err)
	}

	p.mu.Lock()
	p.current = cmd
	p.mu.Unlock()

	// Reap in the background so short cues don't leave zombies around.
	waitErr := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		if p.current == cmd {
			p.current = nil
		}
		p.mu.Unlock()
		waitErr <- err
	}()

	// A player that cannot decode the file bails out right away. Hold the
	// verdict briefly so that counts as a stage failure and the cascade can
	// fall through, instead of a silent "success".
	select {
	case err := <-waitErr:
		if err != nil {
			return fmt.Errorf("player exited immediately: %w", err)
		}
		return nil
	case <-time.After(immediateExitGrace):
		return nil
	}
}

// immediateExitGrace is how long Play watches a freshly started player for
// an immediate failure before declaring the stage successful.
const immediateExitGrace = 200 * time.Millisecond

func (p *ExecPlayer) Stop() {
	p.mu.Lock()
	cmd := p.current
	p.current = nil
	p.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		if err := cmd.Process.Kill(); err != nil {
			log.Printf("Warning: failed to stop previous playback: %v", err)
		}
	}
}

package notify

import (
	"context"
	_ "embed"
	"log"
	"os"
	"path/filepath"
	"sync"
)

//go:embed assets/complete.wav
var defaultToneWAV []byte

// BellFunc rings an audible bell through the display server. Stands in for
// the vibration cue on hardware that has no vibrator.
type BellFunc func() error

// PostFunc posts a passive desktop notification.
type PostFunc func(title, body string) error

// Cue tells a cascade which custom sound, if any, the user selected.
// An empty URI means "no custom sound"; the cascade starts at the bundled
// default tone.
type Cue struct {
	CustomURI string
	Title     string
	Body      string
}

// Notifier guarantees the user gets some perceivable completion signal.
// It tries an ordered list of stages, each only if the previous one
// failed, captures every stage error locally, and never returns one.
//
// Canonical ordering: custom sound, bundled tone, synthesized tone, bell.
// The passive desktop notification is always posted regardless of how the
// audible chain went, so a user looking away still gets a cue.
type Notifier struct {
	player   Player
	bell     BellFunc
	post     PostFunc
	cacheDir string

	mu sync.Mutex // one cascade at a time owns the playback handle
}

// New wires a notifier. player, bell and post may each be nil, in which
// case the corresponding stages report themselves inapplicable and the
// cascade moves on.
func New(player Player, bell BellFunc, post PostFunc, cacheDir string) *Notifier {
	if cacheDir == "" {
		cacheDir = os.TempDir()
	}
	return &Notifier{player: player, bell: bell, post: post, cacheDir: cacheDir}
}

type stage struct {
	name    string
	attempt func(ctx context.Context) error
}

// Notify runs the completion cascade. It never returns an error: the worst
// case of total audio failure is a silent, belled and/or notified
// completion, never a crash in the countdown flow.
func (n *Notifier) Notify(ctx context.Context, cue Cue) {
	n.mu.Lock()
	defer n.mu.Unlock()

	// Release any cue still playing from a previous cascade first.
	if n.player != nil {
		n.player.Stop()
	}

	audible := false
	for _, s := range n.audioStages(cue) {
		if err := s.attempt(ctx); err != nil {
			log.Printf("Completion cue stage %q failed: %v", s.name, err)
			continue
		}
		log.Printf("Completion cue played via %q", s.name)
		audible = true
		break
	}

	if !audible {
		if n.bell == nil {
			log.Println("No bell available; completion stays silent.")
		} else if err := n.bell(); err != nil {
			log.Printf("Completion bell failed: %v", err)
		} else {
			log.Println("Completion signaled via bell.")
		}
	}

	// Passive backstop, independent of the audible chain. Absence of a
	// notification daemon is tolerated silently.
	if n.post != nil {
		if err := n.post(cue.Title, cue.Body); err != nil {
			log.Printf("Desktop notification failed: %v", err)
		}
	}
}

func (n *Notifier) audioStages(cue Cue) []stage {
	return []stage{
		{"custom sound", func(ctx context.Context) error {
			if cue.CustomURI == "" {
				return errNotApplicable
			}
			return n.play(ctx, cue.CustomURI)
		}},
		{"default tone", func(ctx context.Context) error {
			path := filepath.Join(n.cacheDir, "enfoque-complete.wav")
			if err := os.WriteFile(path, defaultToneWAV, 0644); err != nil {
				return err
			}
			return n.play(ctx, path)
		}},
		{"synthesized tone", func(ctx context.Context) error {
			path, err := writeSynthTone(n.cacheDir)
			if err != nil {
				return err
			}
			return n.play(ctx, path)
		}},
	}
}

func (n *Notifier) play(ctx context.Context, path string) error {
	if n.player == nil {
		return errNotApplicable
	}
	return n.player.Play(ctx, path)
}

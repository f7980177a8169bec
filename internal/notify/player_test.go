package notify

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScript creates a fake player binary for exercising the exec path.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-player")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func writeCueFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cue.wav")
	require.NoError(t, os.WriteFile(path, synthToneWAV(), 0644))
	return path
}

func TestPlayReportsImmediatePlayerFailure(t *testing.T) {
	player, err := NewExecPlayer(writeScript(t, "exit 1"))
	require.NoError(t, err)

	// A player that cannot decode the file exits non-zero right away; that
	// must surface as a stage failure, not a silent success.
	err = player.Play(context.Background(), writeCueFile(t))
	assert.Error(t, err)
}

func TestPlaySucceedsWithWellBehavedPlayer(t *testing.T) {
	player, err := NewExecPlayer(writeScript(t, "exit 0"))
	require.NoError(t, err)

	assert.NoError(t, player.Play(context.Background(), writeCueFile(t)))
}

func TestPlayReturnsWhilePlaybackStillRunning(t *testing.T) {
	player, err := NewExecPlayer(writeScript(t, "sleep 5"))
	require.NoError(t, err)
	defer player.Stop()

	start := time.Now()
	require.NoError(t, player.Play(context.Background(), writeCueFile(t)))
	assert.Less(t, time.Since(start), time.Second, "Play must not block for the whole cue")
}

func TestPlayRejectsMissingFile(t *testing.T) {
	player, err := NewExecPlayer(writeScript(t, "exit 0"))
	require.NoError(t, err)

	err = player.Play(context.Background(), filepath.Join(t.TempDir(), "nope.wav"))
	assert.Error(t, err)
}

func TestNewExecPlayerRejectsMissingOverride(t *testing.T) {
	_, err := NewExecPlayer(filepath.Join(t.TempDir(), "no-such-binary"))
	assert.Error(t, err)
}

func TestCascadeFallsThroughPastFailingPlayerBinary(t *testing.T) {
	player, err := NewExecPlayer(writeScript(t, "exit 1"))
	require.NoError(t, err)
	rec := &recorder{}

	n := New(player, rec.bell, rec.post, t.TempDir())
	n.Notify(context.Background(), Cue{Title: "t", Body: "b"})

	// Every audio stage fails against the broken player, so the bell must
	// ring and the notification still goes out.
	assert.Equal(t, 1, rec.bells)
	assert.Equal(t, 1, rec.posts)
}

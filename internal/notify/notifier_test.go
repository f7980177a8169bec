package notify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlayer fails for paths listed in failures and records everything.
type fakePlayer struct {
	failAll  bool
	failures map[string]bool
	played   []string
	stops    int
}

func (p *fakePlayer) Play(ctx context.Context, path string) error {
	if p.failAll || p.failures[path] {
		return errors.New("decode error")
	}
	p.played = append(p.played, path)
	return nil
}

func (p *fakePlayer) Stop() { p.stops++ }

type recorder struct {
	bells int
	posts int
}

func (r *recorder) bell() error {
	r.bells++
	return nil
}

func (r *recorder) post(title, body string) error {
	r.posts++
	return nil
}

func TestCustomSoundShortCircuits(t *testing.T) {
	player := &fakePlayer{}
	rec := &recorder{}
	n := New(player, rec.bell, rec.post, t.TempDir())

	n.Notify(context.Background(), Cue{CustomURI: "/music/chime.mp3", Title: "t", Body: "b"})

	require.Len(t, player.played, 1)
	assert.Equal(t, "/music/chime.mp3", player.played[0])
	assert.Equal(t, 0, rec.bells, "bell only rings when all audio failed")
	assert.Equal(t, 1, rec.posts, "notification is always posted")
}

func TestCascadeFallsThroughToDefaultTone(t *testing.T) {
	player := &fakePlayer{failures: map[string]bool{"/music/broken.mp3": true}}
	rec := &recorder{}
	n := New(player, rec.bell, rec.post, t.TempDir())

	n.Notify(context.Background(), Cue{CustomURI: "/music/broken.mp3"})

	require.Len(t, player.played, 1)
	assert.Contains(t, player.played[0], "enfoque-complete.wav")
	assert.Equal(t, 0, rec.bells)
	assert.Equal(t, 1, rec.posts)
}

func TestNoCustomSoundStartsAtDefaultTone(t *testing.T) {
	player := &fakePlayer{}
	rec := &recorder{}
	n := New(player, rec.bell, rec.post, t.TempDir())

	n.Notify(context.Background(), Cue{})

	require.Len(t, player.played, 1)
	assert.Contains(t, player.played[0], "enfoque-complete.wav")
}

func TestTotalAudioFailureStillBellsAndPosts(t *testing.T) {
	player := &fakePlayer{failAll: true}
	rec := &recorder{}
	n := New(player, rec.bell, rec.post, t.TempDir())

	// Must not panic or return anything; worst case is bell + notification.
	n.Notify(context.Background(), Cue{CustomURI: "/music/broken.mp3"})

	assert.Empty(t, player.played)
	assert.Equal(t, 1, rec.bells)
	assert.Equal(t, 1, rec.posts)
}

func TestTonesMaterializeInConfiguredCacheDir(t *testing.T) {
	cacheDir := t.TempDir()
	player := &fakePlayer{}
	n := New(player, nil, nil, cacheDir)

	n.Notify(context.Background(), Cue{})

	require.Len(t, player.played, 1)
	assert.Equal(t, cacheDir, filepath.Dir(player.played[0]))
	_, err := os.Stat(player.played[0])
	assert.NoError(t, err)
}

func TestNilCollaboratorsDoNotCrash(t *testing.T) {
	n := New(nil, nil, nil, t.TempDir())
	n.Notify(context.Background(), Cue{CustomURI: "/music/chime.mp3"})
}

func TestNewCascadeStopsPreviousPlayback(t *testing.T) {
	player := &fakePlayer{}
	rec := &recorder{}
	n := New(player, rec.bell, rec.post, t.TempDir())

	n.Notify(context.Background(), Cue{CustomURI: "/a.wav"})
	n.Notify(context.Background(), Cue{CustomURI: "/b.wav"})

	assert.Equal(t, 2, player.stops, "each cascade releases the prior handle first")
	assert.Equal(t, []string{"/a.wav", "/b.wav"}, player.played)
}

func TestFailingBellAndPostAreSwallowed(t *testing.T) {
	player := &fakePlayer{failAll: true}
	n := New(player,
		func() error { return errors.New("no bell") },
		func(title, body string) error { return errors.New("no daemon") },
		t.TempDir())

	n.Notify(context.Background(), Cue{})
}

func TestSynthToneIsValidWAV(t *testing.T) {
	data := synthToneWAV()
	require.Greater(t, len(data), 44)
	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "data", string(data[36:40]))
	// Sample data length matches the header.
	assert.Equal(t, len(data)-44, int(uint32(data[40])|uint32(data[41])<<8|uint32(data[42])<<16|uint32(data[43])<<24))
}

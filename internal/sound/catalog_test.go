package sound

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enfoque/internal/storage"
	"enfoque/internal/storage/sqlite"
)

func setupCatalog(t *testing.T) (*Catalog, storage.Storage, string) {
	t.Helper()
	tempDir := t.TempDir()
	store := sqlite.NewSQLiteStore(filepath.Join(tempDir, "catalog.db"))
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { store.Close() })

	soundsDir := filepath.Join(tempDir, "sounds")
	return NewCatalog(store, soundsDir), store, soundsDir
}

func writeFakeAudio(t *testing.T, dir, name string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0750))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("not really audio"), 0644))
	return path
}

func TestAddCopiesFileIntoSoundsDir(t *testing.T) {
	cat, _, soundsDir := setupCatalog(t)
	ctx := context.Background()

	src := writeFakeAudio(t, t.TempDir(), "lluvia.mp3")
	opt, err := cat.Add(ctx, src, "Lluvia")
	require.NoError(t, err)
	require.NotNil(t, opt)
	assert.Equal(t, "Lluvia", opt.Name)
	assert.False(t, opt.IsDefault)

	// Copied under the sounds dir as <id>.mp3, not referencing the source.
	assert.Equal(t, filepath.Join(soundsDir, opt.ID+".mp3"), opt.URI)
	_, err = os.Stat(opt.URI)
	assert.NoError(t, err)

	options, err := cat.List(ctx)
	require.NoError(t, err)
	assert.Len(t, options, 2) // default + the upload
}

func TestAddDerivesNameFromFilename(t *testing.T) {
	cat, _, _ := setupCatalog(t)

	src := writeFakeAudio(t, t.TempDir(), "olas del mar.wav")
	opt, err := cat.Add(context.Background(), src, "")
	require.NoError(t, err)
	assert.Equal(t, "olas del mar", opt.Name)
}

func TestAddRejectsNonAudioExtension(t *testing.T) {
	cat, _, _ := setupCatalog(t)

	src := writeFakeAudio(t, t.TempDir(), "notas.txt")
	_, err := cat.Add(context.Background(), src, "")
	assert.Error(t, err)
}

func TestRegisterDedupesByURI(t *testing.T) {
	cat, _, soundsDir := setupCatalog(t)
	ctx := context.Background()

	path := writeFakeAudio(t, soundsDir, "campana.ogg")
	first, err := cat.Register(ctx, path)
	require.NoError(t, err)
	second, err := cat.Register(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	options, err := cat.List(ctx)
	require.NoError(t, err)
	assert.Len(t, options, 2)
}

func TestSelectedFallsBackToDefault(t *testing.T) {
	cat, _, _ := setupCatalog(t)
	ctx := context.Background()

	// Nothing selected yet: the bundled default.
	opt := cat.Selected(ctx)
	require.NotNil(t, opt)
	assert.Equal(t, sqlite.DefaultSoundID, opt.ID)
	assert.True(t, opt.IsDefault)
}

func TestSelectAndSelectedRoundTrip(t *testing.T) {
	cat, _, _ := setupCatalog(t)
	ctx := context.Background()

	src := writeFakeAudio(t, t.TempDir(), "bosque.flac")
	added, err := cat.Add(ctx, src, "Bosque")
	require.NoError(t, err)

	require.NoError(t, cat.Select(ctx, added.ID))
	opt := cat.Selected(ctx)
	require.NotNil(t, opt)
	assert.Equal(t, added.ID, opt.ID)
	assert.Equal(t, added.URI, opt.URI)

	assert.Error(t, cat.Select(ctx, "no-such-id"))
}

func TestRemoveClearsSelectionAndFile(t *testing.T) {
	cat, store, _ := setupCatalog(t)
	ctx := context.Background()

	src := writeFakeAudio(t, t.TempDir(), "tren.m4a")
	added, err := cat.Add(ctx, src, "Tren")
	require.NoError(t, err)
	require.NoError(t, cat.Select(ctx, added.ID))

	require.NoError(t, cat.Remove(ctx, added.ID))

	// The dangling selection was cleared; Selected degrades to the default.
	opt := cat.Selected(ctx)
	require.NotNil(t, opt)
	assert.Equal(t, sqlite.DefaultSoundID, opt.ID)

	// The copied file is gone.
	_, err = os.Stat(added.URI)
	assert.True(t, os.IsNotExist(err))

	got, err := store.GetSoundOption(ctx, added.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRemoveLeavesExternalFilesAlone(t *testing.T) {
	cat, _, _ := setupCatalog(t)
	ctx := context.Background()

	// Registered in place outside the sounds dir; removal must not touch it.
	external := writeFakeAudio(t, t.TempDir(), "externo.opus")
	opt, err := cat.Register(ctx, external)
	require.NoError(t, err)

	require.NoError(t, cat.Remove(ctx, opt.ID))
	_, err = os.Stat(external)
	assert.NoError(t, err)
}

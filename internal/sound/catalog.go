// Package sound manages the catalog of completion cues: the bundled
// default, user uploads, and the currently selected option.
package sound

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"enfoque/internal/model"
	"enfoque/internal/storage"
	"enfoque/internal/storage/sqlite"

	"github.com/google/uuid"
)

// audioExtensions is the upload allow-list. Anything else is rejected at
// the door; the player decides later whether it can actually decode it.
var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".ogg":  true,
	".oga":  true,
	".flac": true,
	".m4a":  true,
	".aac":  true,
	".opus": true,
}

type Catalog struct {
	store     storage.Storage
	soundsDir string
}

func NewCatalog(store storage.Storage, soundsDir string) *Catalog {
	return &Catalog{store: store, soundsDir: soundsDir}
}

// Add copies an audio file into the sounds directory and registers it as a
// custom sound option.
func (c *Catalog) Add(ctx context.Context, srcPath, name string) (*model.SoundOption, error) {
	ext := strings.ToLower(filepath.Ext(srcPath))
	if !audioExtensions[ext] {
		return nil, fmt.Errorf("unsupported audio file type %q", ext)
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(srcPath), ext)
	}

	if err := os.MkdirAll(c.soundsDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create sounds directory: %w", err)
	}

	id := uuid.NewString()
	destPath := filepath.Join(c.soundsDir, id+ext)
	if err := copyFile(srcPath, destPath); err != nil {
		return nil, fmt.Errorf("failed to copy sound file: %w", err)
	}

	opt := model.SoundOption{
		ID:        id,
		Name:      name,
		URI:       destPath,
		IsDefault: false,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.store.AddSoundOption(ctx, opt); err != nil {
		os.Remove(destPath)
		return nil, err
	}
	log.Printf("Registered custom sound %q (%s)", name, destPath)
	return &opt, nil
}

// Register records an already-in-place file (used by the directory
// watcher). No-op if some option already points at the path.
func (c *Catalog) Register(ctx context.Context, path string) (*model.SoundOption, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !audioExtensions[ext] {
		return nil, fmt.Errorf("unsupported audio file type %q", ext)
	}
	if existing, err := c.findByURI(ctx, path); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	opt := model.SoundOption{
		ID:        uuid.NewString(),
		Name:      strings.TrimSuffix(filepath.Base(path), ext),
		URI:       path,
		IsDefault: false,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.store.AddSoundOption(ctx, opt); err != nil {
		return nil, err
	}
	return &opt, nil
}

func (c *Catalog) List(ctx context.Context) ([]model.SoundOption, error) {
	return c.store.ListSoundOptions(ctx)
}

// Select makes an option the completion cue.
func (c *Catalog) Select(ctx context.Context, id string) error {
	opt, err := c.store.GetSoundOption(ctx, id)
	if err != nil {
		return err
	}
	if opt == nil {
		return fmt.Errorf("sound option %s not found", id)
	}
	return c.store.SetSetting(ctx, model.SettingSelectedSound, opt.ID)
}

// Selected resolves the current cue. Falls back to the default option when
// nothing is selected or the selection dangles; persistence failures
// degrade the same way rather than blocking the cascade.
func (c *Catalog) Selected(ctx context.Context) *model.SoundOption {
	id, err := c.store.GetSetting(ctx, model.SettingSelectedSound)
	if err != nil {
		log.Printf("Warning: failed to read selected sound, using default: %v", err)
		id = ""
	}
	if id == "" {
		id = sqlite.DefaultSoundID
	}
	opt, err := c.store.GetSoundOption(ctx, id)
	if err != nil {
		log.Printf("Warning: failed to load sound option %s: %v", id, err)
		return nil
	}
	if opt == nil && id != sqlite.DefaultSoundID {
		opt, _ = c.store.GetSoundOption(ctx, sqlite.DefaultSoundID)
	}
	return opt
}

// Remove drops an option, clears a dangling selection, and deletes the
// copied file when it lives under the sounds directory.
func (c *Catalog) Remove(ctx context.Context, id string) error {
	opt, err := c.store.GetSoundOption(ctx, id)
	if err != nil {
		return err
	}
	if opt == nil {
		return fmt.Errorf("sound option %s not found", id)
	}
	if err := c.store.RemoveSoundOption(ctx, id); err != nil {
		return err
	}

	if selected, _ := c.store.GetSetting(ctx, model.SettingSelectedSound); selected == id {
		if err := c.store.DeleteSetting(ctx, model.SettingSelectedSound); err != nil {
			log.Printf("Warning: failed to clear selected sound: %v", err)
		}
	}
	if opt.URI != "" && strings.HasPrefix(opt.URI, c.soundsDir+string(filepath.Separator)) {
		if err := os.Remove(opt.URI); err != nil && !os.IsNotExist(err) {
			log.Printf("Warning: failed to remove sound file %s: %v", opt.URI, err)
		}
	}
	return nil
}

func (c *Catalog) findByURI(ctx context.Context, uri string) (*model.SoundOption, error) {
	options, err := c.store.ListSoundOptions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range options {
		if options[i].URI == uri {
			return &options[i], nil
		}
	}
	return nil, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

package sound

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// WatchDir keeps the catalog in sync with the sounds directory: audio
// files dropped in are registered as custom options, files that vanish
// take their option with them. Blocks until ctx is cancelled.
func (c *Catalog) WatchDir(ctx context.Context) error {
	if err := os.MkdirAll(c.soundsDir, 0750); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(c.soundsDir); err != nil {
		return err
	}
	log.Printf("Watching sounds directory: %s", c.soundsDir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(ev.Name))
			if !audioExtensions[ext] {
				continue
			}
			switch {
			case ev.Op.Has(fsnotify.Create):
				if _, err := c.Register(ctx, ev.Name); err != nil {
					log.Printf("Warning: failed to register dropped sound %s: %v", ev.Name, err)
				} else {
					log.Printf("Sound file appeared, registered: %s", ev.Name)
				}
			case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
				opt, err := c.findByURI(ctx, ev.Name)
				if err != nil || opt == nil {
					continue
				}
				if err := c.Remove(ctx, opt.ID); err != nil {
					log.Printf("Warning: failed to prune vanished sound %s: %v", ev.Name, err)
				} else {
					log.Printf("Sound file vanished, pruned: %s", ev.Name)
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Sounds watcher error: %v", err)
		}
	}
}

package api

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Seeder loads documents into a table.
type Seeder interface {
	Seed(ctx context.Context, table string, r io.Reader) (int, error)
}

// seedDebounce is how long a file must be quiet before it is re-seeded.
const seedDebounce = 100 * time.Millisecond

// SeedTable returns the table a seed file loads into and whether path is a
// seed file at all. Seed files are .json, .ndjson or .jsonl files; the table
// is the file name without extension.
func SeedTable(path string) (string, bool) {
	ext := filepath.Ext(path)
	switch strings.ToLower(ext) {
	case ".json", ".ndjson", ".jsonl":
		return strings.TrimSuffix(filepath.Base(path), ext), true
	}
	return "", false
}

// seedAll loads every seed file of the seed directory.
func (s *Server) seedAll(ctx context.Context) error {
	if s.seeder == nil {
		return fmt.Errorf("seed directory %s configured without a seeder", s.seedDir)
	}
	entries, err := os.ReadDir(s.seedDir)
	if err != nil {
		return fmt.Errorf("failed to read seed directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := s.seedFile(ctx, filepath.Join(s.seedDir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) seedFile(ctx context.Context, path string) error {
	table, ok := SeedTable(path)
	if !ok {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open seed file: %w", err)
	}
	defer func() { _ = f.Close() }()

	n, err := s.seeder.Seed(ctx, table, f)
	if err != nil {
		return fmt.Errorf("failed to seed %s: %w", path, err)
	}
	s.logger.Info("seeded table", "table", table, "documents", n, "file", filepath.Base(path),
		"subscribers", s.notifier.Subscribers())
	s.notifier.Publish(SeedEvent{Table: table, File: filepath.Base(path), Documents: n})
	return nil
}

// watchSeeds re-seeds files of the seed directory when they are written.
// Re-seeding upserts by _id; documents without one are appended again.
// Seeding runs on the watching goroutine, so none is in flight once it returns.
func (s *Server) watchSeeds(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(s.seedDir); err != nil {
		s.logger.Error("failed to watch seed directory", "error", err)
		// Don't fail - continue without watching
		return nil
	}

	// Debounce timers hand their path back to the loop.
	due := make(chan string)
	stopped := make(chan struct{})
	timers := make(map[string]*time.Timer)
	defer func() {
		close(stopped)
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if _, ok := SeedTable(event.Name); !ok {
				continue
			}

			path := event.Name
			if t, ok := timers[path]; ok {
				t.Stop()
			}
			timers[path] = time.AfterFunc(seedDebounce, func() {
				select {
				case due <- path:
				case <-stopped:
				}
			})

		case path := <-due:
			delete(timers, path)
			s.logger.Debug("seed file changed, re-seeding", "file", path)
			if err := s.seedFile(ctx, path); err != nil {
				s.logger.Error("re-seed failed", "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

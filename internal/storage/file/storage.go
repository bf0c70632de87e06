package file

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mcoot/bouncetimer/internal/model"
	"github.com/mcoot/bouncetimer/internal/storage"
)

// DefaultPath is used when no document path is configured
const DefaultPath = "data/" + model.SnapshotKey + ".json"

// Storage keeps the persisted document in a single JSON file.
// Separate processes pointing at the same path observe each other's writes.
type Storage struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
}

// New creates a file storage for the document at path, creating the parent directory
func New(path string, logger *slog.Logger) (*Storage, error) {
	if path == "" {
		path = DefaultPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &Storage{
		path:   abs,
		logger: logger.With(slog.String("component", "file-storage"), slog.String("path", abs)),
	}, nil
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Path returns the absolute document path
func (s *Storage) Path() string {
	return s.path
}

func (s *Storage) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, model.ErrSnapshotNotFound
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, model.ErrSnapshotNotFound
	}
	return data, nil
}

// Save writes the document atomically (temp file + rename) so readers never see a partial write
func (s *Storage) Save(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// Watch observes the document's directory and reports every create/write of the document
func (s *Storage) Watch(ctx context.Context, fn storage.ChangeHandler) (func(), error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: atomic renames replace the file's inode
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		_ = w.Close()
		return nil, err
	}

	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			_ = w.Close()
		})
	}

	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != s.path {
					continue
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				data, err := os.ReadFile(s.path)
				if err != nil || len(data) == 0 {
					continue
				}
				fn(data)

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn("file watch error", slog.String("error", err.Error()))

			case <-done:
				return
			case <-ctx.Done():
				stop()
				return
			}
		}
	}()

	return stop, nil
}

// Close is a no-op; watchers are stopped individually
func (s *Storage) Close() error {
	return nil
}

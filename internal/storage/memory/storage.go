package memory

import (
	"context"
	"sync"

	"github.com/mcoot/bouncetimer/internal/model"
	"github.com/mcoot/bouncetimer/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Several stores sharing one Storage behave like separate contexts over the same slot.
type Storage struct {
	mu sync.RWMutex

	data     []byte
	watchers map[*watcher]struct{}
}

// watcher delivers the latest document to one handler.
// Intermediate documents are coalesced; the most recent one is always delivered.
type watcher struct {
	fn      storage.ChangeHandler
	mu      sync.Mutex
	pending []byte
	notify  chan struct{}
	done    chan struct{}
	once    sync.Once
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		watchers: make(map[*watcher]struct{}),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) Load(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return nil, model.ErrSnapshotNotFound
	}
	result := make([]byte, len(s.data))
	copy(result, s.data)
	return result, nil
}

func (s *Storage) Save(ctx context.Context, data []byte) error {
	doc := make([]byte, len(data))
	copy(doc, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = doc
	for w := range s.watchers {
		w.offer(doc)
	}
	return nil
}

func (s *Storage) Watch(ctx context.Context, fn storage.ChangeHandler) (func(), error) {
	w := &watcher{
		fn:     fn,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	s.watchers[w] = struct{}{}
	s.mu.Unlock()

	go w.run(ctx)

	stop := func() {
		s.mu.Lock()
		delete(s.watchers, w)
		s.mu.Unlock()
		w.close()
	}
	return stop, nil
}

// Close stops all watchers
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for w := range s.watchers {
		w.close()
		delete(s.watchers, w)
	}
	return nil
}

// WatcherCount returns the number of registered watchers
func (s *Storage) WatcherCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.watchers)
}

func (w *watcher) offer(doc []byte) {
	w.mu.Lock()
	w.pending = doc
	w.mu.Unlock()
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

func (w *watcher) run(ctx context.Context) {
	for {
		select {
		case <-w.notify:
			w.mu.Lock()
			doc := w.pending
			w.pending = nil
			w.mu.Unlock()
			if doc != nil {
				w.fn(doc)
			}
		case <-w.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *watcher) close() {
	w.once.Do(func() { close(w.done) })
}

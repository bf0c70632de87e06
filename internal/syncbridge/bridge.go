package syncbridge

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/mcoot/bouncetimer/internal/metrics"
	"github.com/mcoot/bouncetimer/internal/model"
	"github.com/mcoot/bouncetimer/internal/storage"
	"github.com/mcoot/bouncetimer/internal/store"
)

// Bridge joins the two change channels a view can observe: the store's own
// observer registry and the persistence medium's change feed. Writes made by
// other contexts are applied to the local store. A change notification is
// only a hint: the bridge skips documents that match the local collection and
// otherwise lets the store reload the latest persisted document.
type Bridge struct {
	store   *store.Store
	storage storage.Storage
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu          sync.Mutex
	subscribers int
	stopWatch   func()
}

// New creates a Bridge for the given store and the storage it persists to
func New(st *store.Store, storage storage.Storage, m *metrics.Metrics, logger *slog.Logger) *Bridge {
	return &Bridge{
		store:   st,
		storage: storage,
		metrics: m,
		logger:  logger.With(slog.String("component", "sync-bridge")),
	}
}

// Subscribe registers listener for every change, local or from another context.
// The storage watch runs while at least one subscriber is registered.
func (b *Bridge) Subscribe(ctx context.Context, listener model.Listener) (func(), error) {
	b.mu.Lock()
	if b.subscribers == 0 {
		watchCtx := context.WithoutCancel(ctx)
		stop, err := b.storage.Watch(watchCtx, func(data []byte) {
			b.handleDocument(watchCtx, data)
		})
		if err != nil {
			b.mu.Unlock()
			return nil, err
		}
		b.stopWatch = stop
		b.logger.Debug("storage watch started")
	}
	b.subscribers++
	b.mu.Unlock()

	unsubscribeStore := b.store.Subscribe(listener)

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribeStore()

			b.mu.Lock()
			defer b.mu.Unlock()
			b.subscribers--
			if b.subscribers == 0 && b.stopWatch != nil {
				b.stopWatch()
				b.stopWatch = nil
				b.logger.Debug("storage watch stopped")
			}
		})
	}, nil
}

// Watching reports whether the storage watch is currently running
func (b *Bridge) Watching() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stopWatch != nil
}

func (b *Bridge) handleDocument(ctx context.Context, data []byte) {
	if b.store.IsCurrent(xxhash.Sum64(data)) {
		return
	}

	changed, err := b.store.Resync(ctx)
	switch {
	case errors.Is(err, model.ErrSyncParse):
		b.metrics.SyncParseFailed()
		b.logger.Warn("ignoring malformed document from another context",
			slog.String("error", err.Error()),
			slog.Int("bytes", len(data)))
	case err != nil:
		b.logger.Warn("failed to reload players from storage", slog.String("error", err.Error()))
	case changed:
		b.logger.Info("applied players from another context", slog.Int("count", b.store.CountTotal()))
	}
}

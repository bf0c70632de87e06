package sse

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mcoot/bouncetimer/internal/model"
)

// Subscriber delivers store changes, including those made by other processes
type Subscriber interface {
	Subscribe(ctx context.Context, listener model.Listener) (func(), error)
}

// Broadcaster pushes every store change to the hub
type Broadcaster struct {
	hub        *Hub
	renderer   *Renderer
	subscriber Subscriber
	logger     *slog.Logger

	mu          sync.Mutex
	unsubscribe func()
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub, renderer *Renderer, subscriber Subscriber, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hub:        hub,
		renderer:   renderer,
		subscriber: subscriber,
		logger:     logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// Start subscribes to store changes
func (b *Broadcaster) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unsubscribe != nil {
		return nil
	}

	unsubscribe, err := b.subscriber.Subscribe(ctx, func(e model.ChangeEvent) {
		b.BroadcastChange(context.WithoutCancel(ctx), e)
	})
	if err != nil {
		return err
	}
	b.unsubscribe = unsubscribe
	return nil
}

// Stop unsubscribes from store changes
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	unsubscribe := b.unsubscribe
	b.unsubscribe = nil
	b.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// BroadcastChange sends the change itself and the refreshed stats.
// Dashboards re-fetch their player list on players-updated.
func (b *Broadcaster) BroadcastChange(ctx context.Context, e model.ChangeEvent) {
	msg, err := b.renderer.PlayersUpdated(e)
	if err != nil {
		b.logger.Error("sse failed to encode change",
			slog.String("action", string(e.Action)),
			slog.Any("error", err))
		return
	}
	b.hub.Broadcast(msg)

	stats, err := b.renderer.StatsUpdated(ctx)
	if err != nil {
		b.logger.Error("sse failed to render stats", slog.Any("error", err))
		return
	}
	b.hub.Broadcast(stats)
}

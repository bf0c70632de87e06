package timer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/bouncetimer/internal/dependencies/clock"
	"github.com/mcoot/bouncetimer/internal/model"
)

// TickInterval is how often a running countdown recomputes its reading
const TickInterval = time.Second

// Store is the slice of the player store a countdown needs
type Store interface {
	Get(id model.PlayerID) (model.Player, bool)
	UpdateStatus(ctx context.Context, id model.PlayerID, status model.PlayerStatus) error
}

// Reading is the countdown state at one instant
type Reading struct {
	Remaining    time.Duration
	Progress     float64
	Expired      bool
	ExpiringSoon bool
	Display      string
}

// Countdown tracks the remaining time of one player and marks the player
// expired the first time it observes the slot has run out.
type Countdown struct {
	player model.Player
	store  Store
	clock  clock.Clock
	logger *slog.Logger

	onTick   func(Reading)
	onExpire func(model.Player)

	mu    sync.Mutex
	fired bool
}

// Option configures a Countdown
type Option func(*Countdown)

// WithOnTick registers a hook called with every reading
func WithOnTick(fn func(Reading)) Option {
	return func(c *Countdown) { c.onTick = fn }
}

// WithOnExpire registers a hook called once when this countdown expires the player
func WithOnExpire(fn func(model.Player)) Option {
	return func(c *Countdown) { c.onExpire = fn }
}

// NewCountdown creates a countdown for player
func NewCountdown(player model.Player, store Store, clock clock.Clock, logger *slog.Logger, opts ...Option) *Countdown {
	c := &Countdown{
		player: player,
		store:  store,
		clock:  clock,
		logger: logger.With(slog.String("player_id", string(player.ID))),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Player returns the player this countdown tracks
func (c *Countdown) Player() model.Player {
	return c.player
}

// Done reports whether the countdown has observed the expiry
func (c *Countdown) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fired
}

// Tick computes the current reading. Once the slot has run out it marks the
// player expired in the store, unless the store already says so.
func (c *Countdown) Tick(ctx context.Context) Reading {
	now := c.clock.Now()
	remaining := c.player.Remaining(now)

	reading := Reading{
		Remaining:    remaining,
		Progress:     c.player.Progress(now),
		ExpiringSoon: c.player.IsExpiringSoon(now),
	}
	if remaining <= 0 {
		reading.Remaining = 0
		reading.Progress = 0
		reading.Expired = true
		c.expire(ctx)
	}
	reading.Display = FormatRemaining(reading.Remaining)

	if c.onTick != nil {
		c.onTick(reading)
	}
	return reading
}

// Run ticks immediately and then every TickInterval until ctx is cancelled
// or the expiry has been observed.
func (c *Countdown) Run(ctx context.Context) {
	c.Tick(ctx)
	if c.Done() {
		return
	}

	ticker := c.clock.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			c.Tick(ctx)
			if c.Done() {
				return
			}
		}
	}
}

func (c *Countdown) expire(ctx context.Context) {
	stored, expired := c.markExpired(ctx)
	if expired && c.onExpire != nil {
		c.onExpire(stored)
	}
}

func (c *Countdown) markExpired(ctx context.Context) (model.Player, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fired {
		return model.Player{}, false
	}

	stored, ok := c.store.Get(c.player.ID)
	if !ok || stored.Status != model.StatusActive {
		// deleted or already expired elsewhere
		c.fired = true
		return model.Player{}, false
	}

	if err := c.store.UpdateStatus(ctx, c.player.ID, model.StatusExpired); err != nil {
		c.logger.Error("failed to mark player expired", slog.String("error", err.Error()))
		return model.Player{}, false
	}
	c.fired = true
	c.logger.Info("player time expired", slog.String("name", c.player.Name))

	stored.Status = model.StatusExpired
	return stored, true
}

// FormatRemaining renders d as MM:SS, or H:MM:SS once an hour or more remains.
// Partial seconds are dropped and negative durations render as zero.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

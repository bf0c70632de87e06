package timer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mcoot/bouncetimer/internal/dependencies/clock"
	"github.com/mcoot/bouncetimer/internal/model"
)

// PlayerSource is what a Monitor needs from the player store
type PlayerSource interface {
	Store
	List() []model.Player
	Subscribe(listener model.Listener) (unsubscribe func())
}

// Monitor keeps exactly one running countdown per active player so slots
// expire even when nobody is watching them.
type Monitor struct {
	store    PlayerSource
	clock    clock.Clock
	logger   *slog.Logger
	onExpire func(model.Player)

	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	running     map[model.PlayerID]*runningCountdown
	unsubscribe func()
	wg          sync.WaitGroup
}

type runningCountdown struct {
	countdown *Countdown
	cancel    context.CancelFunc
}

// NewMonitor creates a stopped Monitor. onExpire may be nil.
func NewMonitor(store PlayerSource, clock clock.Clock, logger *slog.Logger, onExpire func(model.Player)) *Monitor {
	return &Monitor{
		store:    store,
		clock:    clock,
		logger:   logger.With(slog.String("component", "timer-monitor")),
		onExpire: onExpire,
		running:  make(map[model.PlayerID]*runningCountdown),
	}
}

// Start subscribes to the store and starts countdowns for the current active players
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	unsubscribe := m.store.Subscribe(func(e model.ChangeEvent) {
		m.reconcile(e.Players)
	})

	m.mu.Lock()
	m.unsubscribe = unsubscribe
	m.mu.Unlock()

	m.reconcile(m.store.List())
	m.logger.Info("timer monitor started")
}

// Stop cancels every countdown and waits for them to finish
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.cancel == nil {
		m.mu.Unlock()
		return
	}
	unsubscribe := m.unsubscribe
	m.cancel()
	m.cancel = nil
	m.unsubscribe = nil
	for id, r := range m.running {
		r.cancel()
		delete(m.running, id)
	}
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	m.wg.Wait()
	m.logger.Info("timer monitor stopped")
}

// Running returns the ids of players with a running countdown
func (m *Monitor) Running() []model.PlayerID {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]model.PlayerID, 0, len(m.running))
	for id := range m.running {
		ids = append(ids, id)
	}
	return ids
}

// reconcile starts countdowns for new active players and cancels the rest.
// It runs inside store listeners, so it never blocks on countdown goroutines.
func (m *Monitor) reconcile(players []model.Player) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel == nil {
		return
	}

	active := make(map[model.PlayerID]model.Player, len(players))
	for _, p := range players {
		if p.IsActive() {
			active[p.ID] = p
		}
	}

	for id, r := range m.running {
		if _, ok := active[id]; !ok {
			r.cancel()
			delete(m.running, id)
		}
	}

	for id, p := range active {
		if _, ok := m.running[id]; ok {
			continue
		}
		m.startLocked(p)
	}
}

func (m *Monitor) startLocked(p model.Player) {
	ctx, cancel := context.WithCancel(m.ctx)
	r := &runningCountdown{
		countdown: NewCountdown(p, m.store, m.clock, m.logger, WithOnExpire(m.onExpire)),
		cancel:    cancel,
	}
	m.running[p.ID] = r

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()
		r.countdown.Run(ctx)

		m.mu.Lock()
		if m.running[p.ID] == r {
			delete(m.running, p.ID)
		}
		m.mu.Unlock()
	}()
}

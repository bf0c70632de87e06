package remote

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/mcoot/bouncetimer/internal/dependencies/clock"
	"github.com/mcoot/bouncetimer/internal/model"
	"github.com/mcoot/bouncetimer/internal/store"
)

// Store is a Player Store backed by a remote server. Queries answer from the
// last fetched snapshot; subscribers are fed by polling the server.
type Store struct {
	client       *Client
	clock        clock.Clock
	logger       *slog.Logger
	pollInterval time.Duration

	// dispatchMu keeps events in the order their snapshots were fetched
	dispatchMu sync.Mutex

	mu      sync.RWMutex
	players []model.Player

	listenersMu sync.Mutex
	listeners   []registration
	nextID      int
	stopPoll    context.CancelFunc
}

type registration struct {
	id       int
	listener model.Listener
}

// Ensure Store implements PlayerStore
var _ store.PlayerStore = (*Store)(nil)

// NewStore creates a remote store. A zero pollInterval uses DefaultPollInterval.
func NewStore(client *Client, clock clock.Clock, pollInterval time.Duration, logger *slog.Logger) *Store {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Store{
		client:       client,
		clock:        clock,
		logger:       logger.With(slog.String("component", "remote-store")),
		pollInterval: pollInterval,
	}
}

// Refresh fetches the player list and notifies subscribers when it changed
func (s *Store) Refresh(ctx context.Context) error {
	return s.refresh(ctx, model.ActionSync, "", false)
}

// Create registers a player on the server
func (s *Store) Create(ctx context.Context, name string, durationMinutes int) (model.Player, error) {
	p, err := s.client.CreatePlayer(ctx, name, durationMinutes)
	if err != nil {
		return model.Player{}, err
	}
	s.refreshAfterMutation(ctx, model.ActionAdd, p.ID)
	return p, nil
}

// UpdateStatus changes a player's status on the server
func (s *Store) UpdateStatus(ctx context.Context, id model.PlayerID, status model.PlayerStatus) error {
	if err := s.client.SetStatus(ctx, id, status); err != nil {
		return err
	}
	s.refreshAfterMutation(ctx, model.ActionUpdate, id)
	return nil
}

// Delete removes a player on the server
func (s *Store) Delete(ctx context.Context, id model.PlayerID) error {
	if err := s.client.DeletePlayer(ctx, id); err != nil {
		return err
	}
	s.refreshAfterMutation(ctx, model.ActionDelete, id)
	return nil
}

// ClearExpired removes expired players on the server
func (s *Store) ClearExpired(ctx context.Context) error {
	if err := s.client.ClearExpiredPlayers(ctx); err != nil {
		return err
	}
	s.refreshAfterMutation(ctx, model.ActionClearExpired, "")
	return nil
}

// Get returns a cached player
func (s *Store) Get(id model.PlayerID) (model.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.players {
		if p.ID == id {
			return p, true
		}
	}
	return model.Player{}, false
}

// List returns a copy of the cached players
func (s *Store) List() []model.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.players)
}

// CountActive counts cached active players
func (s *Store) CountActive() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.players {
		if p.IsActive() {
			n++
		}
	}
	return n
}

// CountTotal counts cached players
func (s *Store) CountTotal() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

// Subscribe registers a listener. Polling runs while anyone is subscribed.
func (s *Store) Subscribe(listener model.Listener) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, registration{id: id, listener: listener})
	if s.stopPoll == nil {
		ctx, cancel := context.WithCancel(context.Background())
		s.stopPoll = cancel
		go s.poll(ctx)
	}
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			defer s.listenersMu.Unlock()
			s.listeners = slices.DeleteFunc(s.listeners, func(r registration) bool { return r.id == id })
			if len(s.listeners) == 0 && s.stopPoll != nil {
				s.stopPoll()
				s.stopPoll = nil
			}
		})
	}
}

// Polling reports whether the poll loop is running
func (s *Store) Polling() bool {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	return s.stopPoll != nil
}

func (s *Store) poll(ctx context.Context) {
	ticker := s.clock.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := s.refresh(ctx, model.ActionSync, "", false); err != nil && ctx.Err() == nil {
				s.logger.Warn("poll failed", slog.Any("error", err))
			}
		}
	}
}

// refreshAfterMutation reloads the snapshot after a successful write. The
// write already happened, so a failed reload is only logged.
func (s *Store) refreshAfterMutation(ctx context.Context, action model.ChangeAction, id model.PlayerID) {
	if err := s.refresh(ctx, action, id, true); err != nil {
		s.logger.Warn("refresh after write failed",
			slog.String("action", string(action)),
			slog.Any("error", err))
	}
}

func (s *Store) refresh(ctx context.Context, action model.ChangeAction, id model.PlayerID, always bool) error {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	players, err := s.client.FetchPlayers(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	changed := !slices.Equal(s.players, players)
	s.players = players
	s.mu.Unlock()

	if !changed && !always {
		return nil
	}

	s.listenersMu.Lock()
	listeners := slices.Clone(s.listeners)
	s.listenersMu.Unlock()

	for _, r := range listeners {
		r.listener(model.ChangeEvent{Action: action, PlayerID: id, Players: slices.Clone(players)})
	}
	return nil
}

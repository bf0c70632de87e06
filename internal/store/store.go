package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/mcoot/bouncetimer/internal/dependencies/clock"
	"github.com/mcoot/bouncetimer/internal/dependencies/random"
	"github.com/mcoot/bouncetimer/internal/model"
	"github.com/mcoot/bouncetimer/internal/storage"
)

// PlayerStore is the contract shared by the local store and the remote client
type PlayerStore interface {
	Create(ctx context.Context, name string, durationMinutes int) (model.Player, error)
	UpdateStatus(ctx context.Context, id model.PlayerID, status model.PlayerStatus) error
	Delete(ctx context.Context, id model.PlayerID) error
	ClearExpired(ctx context.Context) error

	Get(id model.PlayerID) (model.Player, bool)
	List() []model.Player
	CountActive() int
	CountTotal() int

	Subscribe(listener model.Listener) (unsubscribe func())
}

// Store is the authoritative, persisted collection of players.
// Every committed mutation is persisted and then delivered to all
// subscribers in mutation order.
type Store struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger

	// dispatchMu serializes commit+delivery so subscribers see events in order
	dispatchMu sync.Mutex

	mu      sync.RWMutex
	players []model.Player
	// digest is the xxhash of the document players was loaded from or written as
	digest uint64

	listenersMu    sync.RWMutex
	listeners      []registration
	nextListenerID int
}

type registration struct {
	id       int
	listener model.Listener
}

// Ensure Store implements PlayerStore
var _ PlayerStore = (*Store)(nil)

// New creates an empty Store backed by the given storage
func New(storage storage.Storage, clock clock.Clock, random random.Random, logger *slog.Logger) *Store {
	return &Store{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "player-store")),
	}
}

// Load hydrates the collection from the persisted document.
// A missing or unreadable document leaves the store empty.
func (s *Store) Load(ctx context.Context) error {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	players := []model.Player{}
	var digest uint64
	data, err := s.storage.Load(ctx)
	switch {
	case err == nil:
		decoded, decodeErr := model.DecodeSnapshot(data)
		if decodeErr != nil {
			s.logger.Warn("ignoring unreadable persisted snapshot", slog.String("error", decodeErr.Error()))
		} else {
			players = decoded
			digest = xxhash.Sum64(data)
		}
	case errors.Is(err, model.ErrSnapshotNotFound):
	default:
		return fmt.Errorf("load players: %w", err)
	}

	s.mu.Lock()
	s.players = players
	s.digest = digest
	snapshot := clonePlayers(players)
	s.mu.Unlock()

	s.logger.Info("players loaded", slog.Int("count", len(snapshot)))
	s.dispatch(model.ChangeEvent{Action: model.ActionLoad, Players: snapshot})
	return nil
}

// Create registers a new player whose rental starts now
func (s *Store) Create(ctx context.Context, name string, durationMinutes int) (model.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Player{}, fmt.Errorf("%w: name is required", model.ErrInvalidInput)
	}
	if durationMinutes <= 0 {
		return model.Player{}, fmt.Errorf("%w: duration must be a positive number of minutes", model.ErrInvalidInput)
	}

	var created model.Player
	err := s.commit(ctx, model.ActionAdd, func(players []model.Player) ([]model.Player, model.PlayerID, bool, error) {
		now := s.clock.Now().UnixMilli()
		created = model.Player{
			ID:        s.newID(players),
			Name:      name,
			StartTime: now,
			Duration:  durationMinutes,
			Status:    model.StatusActive,
			CreatedAt: now,
		}
		return append([]model.Player{created}, players...), created.ID, true, nil
	})
	if err != nil {
		return model.Player{}, err
	}

	s.logger.Info("player created",
		slog.String("player_id", string(created.ID)),
		slog.String("name", created.Name),
		slog.Int("duration_minutes", created.Duration))
	return created, nil
}

// UpdateStatus sets the status of a player.
// Unknown ids and unchanged statuses leave the collection as it is.
func (s *Store) UpdateStatus(ctx context.Context, id model.PlayerID, status model.PlayerStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidStatus, status)
	}

	return s.commit(ctx, model.ActionUpdate, func(players []model.Player) ([]model.Player, model.PlayerID, bool, error) {
		i := indexOf(players, id)
		if i < 0 || players[i].Status == status {
			return players, id, false, nil
		}
		if players[i].Status == model.StatusExpired && status == model.StatusActive {
			return nil, id, false, model.ErrInvalidStatusTransition
		}
		players[i].Status = status
		s.logger.Info("player status updated",
			slog.String("player_id", string(id)),
			slog.String("status", string(status)))
		return players, id, true, nil
	})
}

// ExpireIfDue marks a player expired once its time has run out on this
// store's clock. Countdowns running in other views report expiry through it.
// Unknown ids and already expired players leave the collection as it is.
func (s *Store) ExpireIfDue(ctx context.Context, id model.PlayerID) error {
	return s.commit(ctx, model.ActionUpdate, func(players []model.Player) ([]model.Player, model.PlayerID, bool, error) {
		i := indexOf(players, id)
		if i < 0 || players[i].Status == model.StatusExpired {
			return players, id, false, nil
		}
		if !players[i].IsOverdue(s.clock.Now()) {
			return nil, id, false, model.ErrNotYetExpired
		}
		players[i].Status = model.StatusExpired
		s.logger.Info("player expiry reported", slog.String("player_id", string(id)))
		return players, id, true, nil
	})
}

// Delete removes a player. Unknown ids leave the collection as it is.
func (s *Store) Delete(ctx context.Context, id model.PlayerID) error {
	return s.commit(ctx, model.ActionDelete, func(players []model.Player) ([]model.Player, model.PlayerID, bool, error) {
		i := indexOf(players, id)
		if i < 0 {
			return players, id, false, nil
		}
		s.logger.Info("player deleted", slog.String("player_id", string(id)))
		return append(players[:i], players[i+1:]...), id, true, nil
	})
}

// ClearExpired removes every expired player
func (s *Store) ClearExpired(ctx context.Context) error {
	return s.commit(ctx, model.ActionClearExpired, func(players []model.Player) ([]model.Player, model.PlayerID, bool, error) {
		kept := make([]model.Player, 0, len(players))
		for _, p := range players {
			if p.Status != model.StatusExpired {
				kept = append(kept, p)
			}
		}
		removed := len(players) - len(kept)
		if removed > 0 {
			s.logger.Info("expired players cleared", slog.Int("removed", removed))
		}
		return kept, "", removed > 0, nil
	})
}

// Resync reloads the persisted document and adopts it when it differs from
// the local collection. Another context wrote it, so nothing is written back.
// It reports whether the collection changed.
func (s *Store) Resync(ctx context.Context) (bool, error) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	data, err := s.storage.Load(ctx)
	if errors.Is(err, model.ErrSnapshotNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reload players: %w", err)
	}

	digest := xxhash.Sum64(data)
	if s.IsCurrent(digest) {
		return false, nil
	}
	players, err := model.DecodeSnapshot(data)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	s.players = clonePlayers(players)
	s.digest = digest
	snapshot := clonePlayers(players)
	s.mu.Unlock()

	s.logger.Info("players resynced from storage", slog.Int("count", len(snapshot)))
	s.dispatch(model.ChangeEvent{Action: model.ActionSync, Players: snapshot})
	return true, nil
}

// IsCurrent reports whether digest matches the document the collection currently corresponds to
func (s *Store) IsCurrent(digest uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.digest != 0 && s.digest == digest
}

// Get returns the player with the given id
func (s *Store) Get(id model.PlayerID) (model.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.players, id); i >= 0 {
		return s.players[i], true
	}
	return model.Player{}, false
}

// List returns a copy of the collection, most recently created first
func (s *Store) List() []model.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePlayers(s.players)
}

// CountActive returns the number of active players
func (s *Store) CountActive() int {
	return s.countStatus(model.StatusActive)
}

// CountExpired returns the number of expired players
func (s *Store) CountExpired() int {
	return s.countStatus(model.StatusExpired)
}

// CountTotal returns the number of players
func (s *Store) CountTotal() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

// AverageDuration returns the mean rented duration in whole minutes
func (s *Store) AverageDuration() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.players) == 0 {
		return model.DefaultAverageDuration
	}
	total := 0
	for _, p := range s.players {
		total += p.Duration
	}
	return int(math.Round(float64(total) / float64(len(s.players))))
}

// Subscribe registers a listener for every change event.
// Listeners run synchronously and must not mutate the store from inside the callback.
func (s *Store) Subscribe(listener model.Listener) func() {
	s.listenersMu.Lock()
	id := s.nextListenerID
	s.nextListenerID++
	s.listeners = append(s.listeners, registration{id: id, listener: listener})
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			defer s.listenersMu.Unlock()
			for i, r := range s.listeners {
				if r.id == id {
					s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
					break
				}
			}
		})
	}
}

// SubscriberCount returns the number of registered listeners
func (s *Store) SubscriberCount() int {
	s.listenersMu.RLock()
	defer s.listenersMu.RUnlock()
	return len(s.listeners)
}

// mutation computes the next collection from a private copy of the current one
type mutation func(players []model.Player) (next []model.Player, affected model.PlayerID, changed bool, err error)

// commit applies fn, persists the result and broadcasts it.
// The in-memory collection only changes once the write succeeded. A mutation
// that changes nothing skips the write but still broadcasts, so every
// successful operation emits exactly one event.
func (s *Store) commit(ctx context.Context, action model.ChangeAction, fn mutation) error {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	next, affected, changed, err := fn(clonePlayers(s.players))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if !changed {
		snapshot := clonePlayers(s.players)
		s.mu.Unlock()
		s.dispatch(model.ChangeEvent{Action: action, PlayerID: affected, Players: snapshot})
		return nil
	}

	data, err := model.EncodeSnapshot(next)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("encode players: %w", err)
	}
	if err := s.storage.Save(ctx, data); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("persist players: %w", err)
	}
	s.players = next
	s.digest = xxhash.Sum64(data)
	snapshot := clonePlayers(next)
	s.mu.Unlock()

	s.dispatch(model.ChangeEvent{Action: action, PlayerID: affected, Players: snapshot})
	return nil
}

// dispatch delivers an event to every listener in registration order
func (s *Store) dispatch(event model.ChangeEvent) {
	s.listenersMu.RLock()
	listeners := make([]registration, len(s.listeners))
	copy(listeners, s.listeners)
	s.listenersMu.RUnlock()

	for _, r := range listeners {
		e := event
		e.Players = clonePlayers(event.Players)
		r.listener(e)
	}
}

func (s *Store) countStatus(status model.PlayerStatus) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.players {
		if p.Status == status {
			n++
		}
	}
	return n
}

// newID generates an id that does not collide with any existing player
func (s *Store) newID(players []model.Player) model.PlayerID {
	for {
		id := model.PlayerID(s.random.NewID())
		if id != "" && indexOf(players, id) < 0 {
			return id
		}
	}
}

func indexOf(players []model.Player, id model.PlayerID) int {
	for i, p := range players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func clonePlayers(players []model.Player) []model.Player {
	result := make([]model.Player, len(players))
	copy(result, players)
	return result
}

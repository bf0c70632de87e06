package model

import (
	"encoding/json"
	"fmt"
)

// SnapshotKey is the fixed slot name the persisted document lives under
const SnapshotKey = "game-store"

// SnapshotVersion is the schema version written into every document
const SnapshotVersion = 0

// Snapshot is the persisted document layout:
//
//	{ "state": { "players": [...] }, "version": 0 }
type Snapshot struct {
	State   SnapshotState `json:"state"`
	Version int           `json:"version"`
}

// SnapshotState holds the persisted collection
type SnapshotState struct {
	Players []Player `json:"players"`
}

// EncodeSnapshot serializes players into the persisted document
func EncodeSnapshot(players []Player) ([]byte, error) {
	if players == nil {
		players = []Player{}
	}
	return json.Marshal(Snapshot{
		State:   SnapshotState{Players: players},
		Version: SnapshotVersion,
	})
}

// DecodeSnapshot parses a persisted document.
// A document without a players list is rejected so callers never wipe state on garbage.
func DecodeSnapshot(data []byte) ([]Player, error) {
	var raw struct {
		State *struct {
			Players *[]Player `json:"players"`
		} `json:"state"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyncParse, err)
	}
	if raw.State == nil || raw.State.Players == nil {
		return nil, fmt.Errorf("%w: missing state.players", ErrSyncParse)
	}
	players := *raw.State.Players
	for i, p := range players {
		if p.ID == "" || !p.Status.Valid() {
			return nil, fmt.Errorf("%w: bad player at index %d", ErrSyncParse, i)
		}
	}
	return players, nil
}

package model

// ChangeAction tags the mutation that produced a ChangeEvent
type ChangeAction string

const (
	ActionAdd          ChangeAction = "add"
	ActionUpdate       ChangeAction = "update"
	ActionDelete       ChangeAction = "delete"
	ActionClearExpired ChangeAction = "clearExpired"

	// ActionSync marks state replaced by a write from another context
	ActionSync ChangeAction = "sync"
	// ActionLoad marks state hydrated from the persisted snapshot
	ActionLoad ChangeAction = "load"
)

// ChangeEvent is broadcast after every committed store mutation.
// Players always holds the full collection as it stood right after the mutation.
type ChangeEvent struct {
	Action   ChangeAction `json:"action"`
	PlayerID PlayerID     `json:"playerId,omitempty"`
	Players  []Player     `json:"players"`
}

// Listener receives change events
type Listener func(ChangeEvent)

package storage

import "context"

// ChangeHandler receives the full persisted document after the slot changes
type ChangeHandler func(data []byte)

// Storage is a durable key-value slot holding the persisted player document.
// Every medium also acts as a persistence observer: Watch reports writes made
// through any handle on the same medium, including the watcher's own.
type Storage interface {
	// Load returns the current document, or model.ErrSnapshotNotFound if none was written yet
	Load(ctx context.Context) ([]byte, error)

	// Save replaces the document
	Save(ctx context.Context, data []byte) error

	// Watch registers fn for change notifications until the returned stop func is called
	Watch(ctx context.Context, fn ChangeHandler) (stop func(), err error)

	// Close releases the medium
	Close() error
}

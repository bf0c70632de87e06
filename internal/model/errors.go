package model

import "errors"

// Common errors used across the application
var (
	// Input errors
	ErrInvalidInput = errors.New("invalid input")

	// Player errors
	ErrPlayerNotFound          = errors.New("player not found")
	ErrInvalidStatus           = errors.New("invalid player status")
	ErrInvalidStatusTransition = errors.New("expired players cannot become active again")
	ErrNotYetExpired           = errors.New("player's time has not run out")

	// Persistence errors
	ErrSnapshotNotFound = errors.New("no persisted snapshot")
	ErrSyncParse        = errors.New("malformed sync payload")

	// Remote store errors
	ErrRemoteUnavailable = errors.New("remote player store unavailable")
)

package redis

import (
	"fmt"

	"github.com/mcoot/bouncetimer/internal/model"
)

// Key prefix for all rental data
const keyPrefix = "bouncetimer"

// snapshotKey returns the Redis key holding the persisted document
func snapshotKey() string {
	return fmt.Sprintf("%s:%s", keyPrefix, model.SnapshotKey)
}

// changesChannel returns the pub/sub channel announcing document writes
func changesChannel() string {
	return fmt.Sprintf("%s:%s:changes", keyPrefix, model.SnapshotKey)
}

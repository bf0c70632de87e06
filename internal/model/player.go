package model

import (
	"sort"
	"time"
)

// PlayerID uniquely identifies a rented slot
type PlayerID string

// PlayerStatus is the lifecycle state of a player's time slot
type PlayerStatus string

const (
	StatusActive  PlayerStatus = "active"
	StatusExpired PlayerStatus = "expired"
)

// Valid reports whether s is a known status
func (s PlayerStatus) Valid() bool {
	return s == StatusActive || s == StatusExpired
}

// ExpiringSoonWindow is the final stretch of a rental that gets a distinct visual treatment
const ExpiringSoonWindow = 5 * time.Minute

// DefaultAverageDuration is reported as the average duration when no players exist
const DefaultAverageDuration = 30

// Player is a person with a rented time slot.
// StartTime and CreatedAt are milliseconds since the Unix epoch.
type Player struct {
	ID        PlayerID     `json:"id"`
	Name      string       `json:"name"`
	StartTime int64        `json:"startTime"`
	Duration  int          `json:"duration"` // minutes
	Status    PlayerStatus `json:"status"`
	CreatedAt int64        `json:"createdAt"`
}

// Allotted returns the full rented duration
func (p Player) Allotted() time.Duration {
	return time.Duration(p.Duration) * time.Minute
}

// Deadline returns the moment the rental period ends
func (p Player) Deadline() time.Time {
	return time.UnixMilli(p.StartTime).Add(p.Allotted())
}

// Remaining returns the time left at now. It is negative once the slot is over.
func (p Player) Remaining(now time.Time) time.Duration {
	elapsed := now.UnixMilli() - p.StartTime
	return time.Duration(int64(p.Duration)*60000-elapsed) * time.Millisecond
}

// Progress returns the remaining share of the slot in percent, clamped to [0, 100]
func (p Player) Progress(now time.Time) float64 {
	total := p.Allotted()
	if total <= 0 {
		return 0
	}
	remaining := p.Remaining(now)
	if remaining <= 0 {
		return 0
	}
	pct := float64(remaining) / float64(total) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// IsOverdue reports whether the slot has run out at now
func (p Player) IsOverdue(now time.Time) bool {
	return p.Remaining(now) <= 0
}

// IsExpiringSoon reports whether the slot is within its last five minutes
func (p Player) IsExpiringSoon(now time.Time) bool {
	remaining := p.Remaining(now)
	return remaining > 0 && remaining <= ExpiringSoonWindow
}

// IsActive reports whether the stored status is active
func (p Player) IsActive() bool {
	return p.Status == StatusActive
}

// SortNewestFirst orders players by creation time, most recent first.
// Players created in the same millisecond keep their relative order.
func SortNewestFirst(players []Player) {
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].CreatedAt > players[j].CreatedAt
	})
}

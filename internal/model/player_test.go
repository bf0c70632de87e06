package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlayer(start time.Time, minutes int) Player {
	return Player{
		ID:        "p-1",
		Name:      "Ana",
		StartTime: start.UnixMilli(),
		Duration:  minutes,
		Status:    StatusActive,
		CreatedAt: start.UnixMilli(),
	}
}

func TestRemaining(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPlayer(start, 30)

	assert.Equal(t, 30*time.Minute, p.Remaining(start))
	assert.Equal(t, 29*time.Minute+30*time.Second, p.Remaining(start.Add(30*time.Second)))
	assert.Equal(t, time.Duration(0), p.Remaining(start.Add(30*time.Minute)))
	assert.Equal(t, -time.Minute, p.Remaining(start.Add(31*time.Minute)))
}

func TestDeadline(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPlayer(start, 45)

	assert.True(t, p.Deadline().Equal(start.Add(45*time.Minute)))
}

func TestProgress(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPlayer(start, 10)

	assert.InDelta(t, 100, p.Progress(start), 0.001)
	assert.InDelta(t, 50, p.Progress(start.Add(5*time.Minute)), 0.001)
	assert.InDelta(t, 0, p.Progress(start.Add(11*time.Minute)), 0.001)

	// clock skew before the start never reports more than full
	assert.InDelta(t, 100, p.Progress(start.Add(-time.Minute)), 0.001)
}

func TestExpiringSoonAndOverdue(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPlayer(start, 30)

	assert.False(t, p.IsExpiringSoon(start.Add(24*time.Minute)))
	assert.True(t, p.IsExpiringSoon(start.Add(25*time.Minute)))
	assert.True(t, p.IsExpiringSoon(start.Add(29*time.Minute+59*time.Second)))
	assert.False(t, p.IsExpiringSoon(start.Add(30*time.Minute)))

	assert.False(t, p.IsOverdue(start.Add(29*time.Minute)))
	assert.True(t, p.IsOverdue(start.Add(30*time.Minute)))
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusActive.Valid())
	assert.True(t, StatusExpired.Valid())
	assert.False(t, PlayerStatus("").Valid())
	assert.False(t, PlayerStatus("paused").Valid())
}

func TestSortNewestFirst(t *testing.T) {
	players := []Player{
		{ID: "a", CreatedAt: 1},
		{ID: "b", CreatedAt: 3},
		{ID: "c", CreatedAt: 2},
		{ID: "d", CreatedAt: 3},
	}

	SortNewestFirst(players)

	ids := make([]PlayerID, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	require.Equal(t, []PlayerID{"b", "d", "c", "a"}, ids)
}

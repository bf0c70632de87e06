package sse

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/mcoot/bouncetimer/internal/model"
	"github.com/mcoot/bouncetimer/internal/web/templates/components"
)

// Event names pushed to dashboards
const (
	EventPlayersUpdated = "players-updated"
	EventStatsUpdated   = "stats-updated"
)

// StatsSource is the part of the store the renderer summarises
type StatsSource interface {
	CountActive() int
	CountExpired() int
	CountTotal() int
	AverageDuration() int
}

// Renderer converts store events to SSE payloads
type Renderer struct {
	stats StatsSource
}

// NewRenderer creates a new Renderer
func NewRenderer(stats StatsSource) *Renderer {
	return &Renderer{stats: stats}
}

// PlayersUpdated encodes a change event as the players-updated payload
func (r *Renderer) PlayersUpdated(e model.ChangeEvent) ([]byte, error) {
	if e.Players == nil {
		e.Players = []model.Player{}
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return formatSSEMessage(EventPlayersUpdated, string(data)), nil
}

// StatsUpdated renders the stats tiles as an out-of-band swap
func (r *Renderer) StatsUpdated(ctx context.Context) ([]byte, error) {
	var buf bytes.Buffer
	err := components.StatsTiles(
		r.stats.CountActive(),
		r.stats.CountExpired(),
		r.stats.CountTotal(),
		r.stats.AverageDuration(),
	).Render(ctx, &buf)
	if err != nil {
		return nil, err
	}
	return formatSSEMessage(EventStatsUpdated, WrapForOOBSwap("stats", buf.String())), nil
}

// WrapForOOBSwap wraps HTML content for an HTMX out-of-band swap of the
// element's children
func WrapForOOBSwap(id, html string) string {
	return `<div id="` + id + `" hx-swap-oob="innerHTML">` + html + `</div>`
}

package response

import (
	"github.com/mcoot/bouncetimer/internal/model"
	"github.com/mcoot/bouncetimer/internal/services/auth"
)

// Player represents a player in API responses.
// Field names follow the persisted document so views can share decoders.
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartTime int64  `json:"startTime"`
	Duration  int    `json:"duration"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"createdAt"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p model.Player) Player {
	return Player{
		ID:        string(p.ID),
		Name:      p.Name,
		StartTime: p.StartTime,
		Duration:  p.Duration,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
	}
}

// ToModel converts a response Player back to a model.Player
func (p Player) ToModel() model.Player {
	return model.Player{
		ID:        model.PlayerID(p.ID),
		Name:      p.Name,
		StartTime: p.StartTime,
		Duration:  p.Duration,
		Status:    model.PlayerStatus(p.Status),
		CreatedAt: p.CreatedAt,
	}
}

// PlayersFromModel converts a slice of players
func PlayersFromModel(players []model.Player) []Player {
	result := make([]Player, len(players))
	for i, p := range players {
		result[i] = PlayerFromModel(p)
	}
	return result
}

// AuthResponse is the response for the login endpoint
type AuthResponse struct {
	Username     string `json:"username"`
	Role         string `json:"role"`
	SessionToken string `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Username:     s.Username,
		Role:         string(s.Role),
		SessionToken: s.Token,
	}
}

// Stats is the dashboard summary
type Stats struct {
	Active          int `json:"active"`
	Expired         int `json:"expired"`
	Total           int `json:"total"`
	AverageDuration int `json:"average_duration"`
}

// Health is the health check response
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage,omitempty"`
}

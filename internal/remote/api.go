package remote

import (
	"context"

	"github.com/mcoot/bouncetimer/internal/api/request"
	"github.com/mcoot/bouncetimer/internal/api/response"
	"github.com/mcoot/bouncetimer/internal/model"
)

// Login authenticates and keeps the session token for later requests
func (c *Client) Login(ctx context.Context, username, password string) (response.AuthResponse, error) {
	var result response.AuthResponse
	err := c.Post(ctx, "/api/v1/auth/login", request.LoginRequest{Username: username, Password: password}, &result)
	if err != nil {
		return response.AuthResponse{}, err
	}
	c.SetToken(result.SessionToken)
	return result, nil
}

// Logout ends the current session
func (c *Client) Logout(ctx context.Context) error {
	if err := c.Post(ctx, "/api/v1/auth/logout", nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// Me returns the operator behind the current token
func (c *Client) Me(ctx context.Context) (response.AuthResponse, error) {
	var result response.AuthResponse
	err := c.Get(ctx, "/api/v1/auth/me", &result)
	return result, err
}

// Health checks server health
func (c *Client) Health(ctx context.Context) (response.Health, error) {
	var result response.Health
	err := c.Get(ctx, "/api/v1/health", &result)
	return result, err
}

// Stats fetches the dashboard summary
func (c *Client) Stats(ctx context.Context) (response.Stats, error) {
	var result response.Stats
	err := c.Get(ctx, "/api/v1/stats", &result)
	return result, err
}

// FetchPlayers lists players, newest first
func (c *Client) FetchPlayers(ctx context.Context) ([]model.Player, error) {
	var result []response.Player
	if err := c.Get(ctx, "/api/v1/players", &result); err != nil {
		return nil, err
	}
	players := make([]model.Player, len(result))
	for i, p := range result {
		players[i] = p.ToModel()
	}
	return players, nil
}

// FetchPlayer gets one player
func (c *Client) FetchPlayer(ctx context.Context, id model.PlayerID) (model.Player, error) {
	var result response.Player
	if err := c.Get(ctx, "/api/v1/players/"+string(id), &result); err != nil {
		return model.Player{}, err
	}
	return result.ToModel(), nil
}

// CreatePlayer registers a player
func (c *Client) CreatePlayer(ctx context.Context, name string, durationMinutes int) (model.Player, error) {
	var result response.Player
	err := c.Post(ctx, "/api/v1/players", request.CreatePlayerRequest{Name: name, Duration: durationMinutes}, &result)
	if err != nil {
		return model.Player{}, err
	}
	return result.ToModel(), nil
}

// SetStatus changes a player's status
func (c *Client) SetStatus(ctx context.Context, id model.PlayerID, status model.PlayerStatus) error {
	return c.Patch(ctx, "/api/v1/players/"+string(id)+"/status", request.UpdateStatusRequest{Status: string(status)}, nil)
}

// DeletePlayer removes a player
func (c *Client) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	return c.Delete(ctx, "/api/v1/players/"+string(id))
}

// ClearExpiredPlayers removes all expired players
func (c *Client) ClearExpiredPlayers(ctx context.Context) error {
	return c.Post(ctx, "/api/v1/players/clear-expired", nil, nil)
}

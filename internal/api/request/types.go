package request

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreatePlayerRequest is the request body for registering a player
type CreatePlayerRequest struct {
	Name     string `json:"name"`
	Duration int    `json:"duration"` // minutes
}

// UpdateStatusRequest is the request body for changing a player's status
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

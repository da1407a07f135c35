package request

// CreatePlayerRequest is the request body for adding a player
type CreatePlayerRequest struct {
	Username string `json:"username"`
}

// UpdatePlayerRequest is the request body for renaming a player
type UpdatePlayerRequest struct {
	Username string `json:"username"`
}

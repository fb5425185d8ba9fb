// internal/models/player.go
package models

// Player is one participant in a room. ID is the transient connection id
// minted when the websocket is accepted; it does not outlive the connection
// and is not tied to any persistent account.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

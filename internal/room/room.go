// internal/room/room.go
package room

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/reelroom/reelroom/internal/game"
	"github.com/reelroom/reelroom/internal/models"
)

// Room is an isolated namespace holding a player set, the live connections
// backing those players, and one game State. Rooms are created on demand by
// the Registry and deleted when the last member leaves.
//
// Methods with the Unsafe suffix assume the caller holds Mu; the websocket
// read loop locks Mu around each inbound action so room mutations apply one
// at a time in arrival order.
type Room struct {
	ID      string
	Players map[string]*models.Player
	Game    *game.State

	// Connections holds the live transport for each member, keyed by the
	// same connection id as Players.
	Connections map[string]*Conn

	// OnEmpty is invoked after the last member is removed, typically wired
	// by the Registry to delete the room from the process-wide map.
	OnEmpty func(roomID string)

	Mu sync.Mutex
}

// NewRoom allocates a room with a fresh pre-game State and no members.
func NewRoom(id string) *Room {
	return &Room{
		ID:          id,
		Players:     make(map[string]*models.Player),
		Game:        game.NewState(),
		Connections: make(map[string]*Conn),
	}
}

// AddMemberUnsafe registers (or re-registers) a connection as a member. A
// rejoin under the same connection id replaces the previous player record,
// so a new name simply overwrites the old one. If a different live Conn was
// already registered for the id, its outbound channel is closed first.
func (r *Room) AddMemberUnsafe(conn *Conn, name string) {
	if old, ok := r.Connections[conn.ID]; ok && old != conn {
		old.closeOut()
	}
	conn.Name = name
	r.Players[conn.ID] = &models.Player{ID: conn.ID, Name: name}
	r.Connections[conn.ID] = conn
}

// RemoveMemberUnsafe drops a member by connection id. It reports whether
// the member was present and whether the room is now empty. Absent ids are
// a no-op so disconnect sweeps stay idempotent.
func (r *Room) RemoveMemberUnsafe(connID string) (removed, empty bool) {
	if _, ok := r.Players[connID]; !ok {
		return false, len(r.Players) == 0
	}
	delete(r.Players, connID)
	delete(r.Connections, connID)
	return true, len(r.Players) == 0
}

// MembersUnsafe returns the current player list.
func (r *Room) MembersUnsafe() []*models.Player {
	players := make([]*models.Player, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, p)
	}
	return players
}

// OrderSnapshotUnsafe returns the connection ids of current members. Map
// iteration order is what fixes the turn rotation at game start; the order
// is arbitrary but stable for the playthrough.
func (r *Room) OrderSnapshotUnsafe() []string {
	order := make([]string, 0, len(r.Players))
	for id := range r.Players {
		order = append(order, id)
	}
	return order
}

// BroadcastAllUnsafe pushes msg onto every member's outbound channel.
// Writes are non-blocking; a member with a full channel drops the message.
func (r *Room) BroadcastAllUnsafe(msg map[string]interface{}) {
	for _, conn := range r.Connections {
		conn.Write(msg)
	}
}

// RoomDataPayloadUnsafe builds the room-data broadcast sent after any
// membership change: the full player list plus a snapshot of the game.
func (r *Room) RoomDataPayloadUnsafe() map[string]interface{} {
	return map[string]interface{}{
		"type":    "room-data",
		"room":    r.ID,
		"players": r.MembersUnsafe(),
		"game":    r.Game.Clone(),
	}
}

// GameStartedPayloadUnsafe builds the one-shot game-started broadcast.
func (r *Room) GameStartedPayloadUnsafe() map[string]interface{} {
	return map[string]interface{}{
		"type": "game-started",
		"game": r.Game.Clone(),
	}
}

// GameUpdatePayloadUnsafe builds the game-update broadcast sent after hold
// toggles and rolls.
func (r *Room) GameUpdatePayloadUnsafe() map[string]interface{} {
	return map[string]interface{}{
		"type": "game-update",
		"game": r.Game.Clone(),
	}
}

// ChatPayloadUnsafe builds an in-room chat relay message from a member.
func (r *Room) ChatPayloadUnsafe(connID, msg string) map[string]interface{} {
	name := ""
	if p, ok := r.Players[connID]; ok {
		name = p.Name
	}
	return map[string]interface{}{
		"type": "chat",
		"id":   connID,
		"name": name,
		"msg":  msg,
		"ts":   time.Now().Unix(),
	}
}

// Conn is a single member's live presence: the connection id minted at
// accept time plus the outbound message channel drained by the write pump.
type Conn struct {
	ID      string
	Name    string
	Cancel  func()
	OutChan chan map[string]interface{}

	closed bool
}

// Write pushes a message onto the connection's outbound channel without
// blocking. If the channel is full or closed the message is dropped; a
// stalled client must not stall the room.
func (c *Conn) Write(msg map[string]interface{}) {
	defer func() {
		if recover() != nil {
			msgType, _ := msg["type"].(string)
			log.Warnf("dropped %q message for closed connection %s", msgType, c.ID)
		}
	}()
	select {
	case c.OutChan <- msg:
	default:
		msgType, _ := msg["type"].(string)
		log.Warnf("outbound channel full for connection %s, dropped %q message", c.ID, msgType)
	}
}

// WriteAck reports the outcome of an acknowledged action (create-room,
// join-room) back to the acting connection only.
func (c *Conn) WriteAck(action string, err error) {
	ack := map[string]interface{}{
		"type":   "ack",
		"action": action,
		"ok":     err == nil,
	}
	if err != nil {
		ack["error"] = err.Error()
	}
	c.Write(ack)
}

// WriteError sends a transport-level error object to this connection.
func (c *Conn) WriteError(msg string) {
	c.Write(map[string]interface{}{
		"type":    "error",
		"message": msg,
	})
}

// closeOut shuts the outbound channel and cancels the pumps for a
// connection that has been replaced or removed.
func (c *Conn) closeOut() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.OutChan)
	if c.Cancel != nil {
		c.Cancel()
	}
}

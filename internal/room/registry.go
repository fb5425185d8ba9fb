// internal/room/registry.go
package room

import (
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Error strings double as the ack error codes on the wire, so they must not
// change shape.
var (
	// ErrInvalidRequest is returned when an action omits its room id.
	ErrInvalidRequest = errors.New("no-room-id")
	// ErrRoomNotFound is returned when an action names a room that does not exist.
	ErrRoomNotFound = errors.New("room-not-found")
)

// Registry owns the process-wide mapping from room id to Room. It is the
// only holder of that map; callers go through its methods and never see the
// raw mapping. The registry starts empty and rooms live exactly as long as
// they have members.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// CreateRoom adds conn to the room named roomID, allocating the room with a
// fresh pre-game State if it does not exist. A second create for an
// existing id is treated as a join of that room, not an error. The new
// membership is broadcast to every member.
func (reg *Registry) CreateRoom(roomID, name string, conn *Conn) (*Room, error) {
	if roomID == "" {
		return nil, ErrInvalidRequest
	}

	reg.mu.Lock()
	r, ok := reg.rooms[roomID]
	if !ok {
		r = NewRoom(roomID)
		r.OnEmpty = reg.DeleteRoom
		reg.rooms[roomID] = r
		log.Infof("registry: created room %s", roomID)
	}
	reg.mu.Unlock()

	r.Mu.Lock()
	r.AddMemberUnsafe(conn, name)
	r.BroadcastAllUnsafe(r.RoomDataPayloadUnsafe())
	r.Mu.Unlock()

	return r, nil
}

// JoinRoom adds conn to an existing room. Rejoining under the same
// connection id replaces the previous player record. The new membership is
// broadcast to every member.
func (reg *Registry) JoinRoom(roomID, name string, conn *Conn) (*Room, error) {
	reg.mu.Lock()
	r, ok := reg.rooms[roomID]
	reg.mu.Unlock()
	if !ok {
		return nil, ErrRoomNotFound
	}

	r.Mu.Lock()
	r.AddMemberUnsafe(conn, name)
	r.BroadcastAllUnsafe(r.RoomDataPayloadUnsafe())
	r.Mu.Unlock()

	return r, nil
}

// RemovePlayer drops a member from a room and broadcasts the change. When
// the last member leaves, the room is deleted from the registry and its
// game state goes with it. Absent rooms or players are a no-op.
func (reg *Registry) RemovePlayer(roomID, connID string) {
	reg.mu.Lock()
	r, ok := reg.rooms[roomID]
	reg.mu.Unlock()
	if !ok {
		return
	}

	r.Mu.Lock()
	removed, empty := r.RemoveMemberUnsafe(connID)
	if removed && !empty {
		r.BroadcastAllUnsafe(r.RoomDataPayloadUnsafe())
	}
	onEmpty := r.OnEmpty
	r.Mu.Unlock()

	if removed && empty && onEmpty != nil {
		onEmpty(roomID)
	}
}

// RemoveConnection models a transport-level disconnect: the connection is
// removed from every room it belongs to, with the same empty-room cleanup
// as an explicit leave. Safe to call repeatedly for the same id.
func (reg *Registry) RemoveConnection(connID string) {
	reg.mu.Lock()
	affected := make([]string, 0, len(reg.rooms))
	for id, r := range reg.rooms {
		r.Mu.Lock()
		_, member := r.Players[connID]
		r.Mu.Unlock()
		if member {
			affected = append(affected, id)
		}
	}
	reg.mu.Unlock()

	for _, id := range affected {
		reg.RemovePlayer(id, connID)
	}
}

// GetRoom looks up a room by id.
func (reg *Registry) GetRoom(roomID string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[roomID]
	return r, ok
}

// DeleteRoom removes a room from the registry. Normally reached through a
// room's OnEmpty callback once its last member leaves.
func (reg *Registry) DeleteRoom(roomID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.rooms[roomID]; ok {
		delete(reg.rooms, roomID)
		log.Infof("registry: deleted empty room %s", roomID)
	}
}

// Rooms returns a copy of the current id->room mapping, for listings and
// debugging. The copy keeps callers from iterating the live map.
func (reg *Registry) Rooms() map[string]*Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	rooms := make(map[string]*Room, len(reg.rooms))
	for id, r := range reg.rooms {
		rooms[id] = r
	}
	return rooms
}

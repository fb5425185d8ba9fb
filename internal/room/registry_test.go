// internal/room/registry_test.go
package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConn(id string) *Conn {
	return &Conn{
		ID:      id,
		OutChan: make(chan map[string]interface{}, 32),
	}
}

// drain empties a connection's outbound channel and returns what was queued.
func drain(c *Conn) []map[string]interface{} {
	var msgs []map[string]interface{}
	for {
		select {
		case m := <-c.OutChan:
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

func TestCreateRoomRequiresID(t *testing.T) {
	reg := NewRegistry()

	r, err := reg.CreateRoom("", "ana", newTestConn("c1"))

	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Empty(t, reg.Rooms())
}

func TestCreateRoomAllocatesPreGameState(t *testing.T) {
	reg := NewRegistry()

	r, err := reg.CreateRoom("lounge", "ana", newTestConn("c1"))
	require.NoError(t, err)

	got, ok := reg.GetRoom("lounge")
	require.True(t, ok)
	assert.Same(t, r, got)

	assert.False(t, r.Game.Started)
	assert.Equal(t, 3, r.Game.RollsLeft)
	for i := 0; i < 5; i++ {
		assert.Empty(t, r.Game.Reels[i])
		assert.False(t, r.Game.Holds[i])
	}
	require.Len(t, r.Players, 1)
	assert.Equal(t, "ana", r.Players["c1"].Name)
}

func TestDuplicateCreateJoinsExistingRoom(t *testing.T) {
	reg := NewRegistry()

	first, err := reg.CreateRoom("lounge", "ana", newTestConn("c1"))
	require.NoError(t, err)

	second, err := reg.CreateRoom("lounge", "bo", newTestConn("c2"))
	require.NoError(t, err)

	assert.Same(t, first, second, "second create must reuse the room")
	assert.Len(t, first.Players, 2)
}

func TestJoinRoomNotFound(t *testing.T) {
	reg := NewRegistry()

	r, err := reg.JoinRoom("nowhere", "bo", newTestConn("c1"))

	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Empty(t, reg.Rooms())
}

func TestRejoinReplacesPlayerRecord(t *testing.T) {
	reg := NewRegistry()
	conn := newTestConn("c1")
	_, err := reg.CreateRoom("lounge", "ana", conn)
	require.NoError(t, err)

	r, err := reg.JoinRoom("lounge", "anabel", conn)
	require.NoError(t, err)

	require.Len(t, r.Players, 1)
	assert.Equal(t, "anabel", r.Players["c1"].Name)
}

func TestMembershipChangesBroadcastRoomData(t *testing.T) {
	reg := NewRegistry()
	c1 := newTestConn("c1")
	_, err := reg.CreateRoom("lounge", "ana", c1)
	require.NoError(t, err)

	msgs := drain(c1)
	require.Len(t, msgs, 1)
	assert.Equal(t, "room-data", msgs[0]["type"])
	assert.Equal(t, "lounge", msgs[0]["room"])

	c2 := newTestConn("c2")
	_, err = reg.JoinRoom("lounge", "bo", c2)
	require.NoError(t, err)

	require.Len(t, drain(c1), 1, "existing member sees the join")
	require.Len(t, drain(c2), 1, "joiner receives the same broadcast")

	reg.RemovePlayer("lounge", "c2")
	msgs = drain(c1)
	require.Len(t, msgs, 1, "remaining member sees the leave")
	assert.Equal(t, "room-data", msgs[0]["type"])
}

func TestRemoveLastPlayerDeletesRoom(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.CreateRoom("lounge", "ana", newTestConn("c1"))
	require.NoError(t, err)

	reg.RemovePlayer("lounge", "c1")

	_, ok := reg.GetRoom("lounge")
	assert.False(t, ok)
}

func TestRemovePlayerIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.CreateRoom("lounge", "ana", newTestConn("c1"))
	require.NoError(t, err)
	_, err = reg.JoinRoom("lounge", "bo", newTestConn("c2"))
	require.NoError(t, err)

	// Unknown player, unknown room, then repeated removal: all no-ops.
	reg.RemovePlayer("lounge", "ghost")
	reg.RemovePlayer("nowhere", "c1")
	reg.RemovePlayer("lounge", "c2")
	reg.RemovePlayer("lounge", "c2")

	r, ok := reg.GetRoom("lounge")
	require.True(t, ok)
	assert.Len(t, r.Players, 1)
}

func TestRemoveConnectionSweepsEveryRoom(t *testing.T) {
	reg := NewRegistry()
	conn := newTestConn("c1")
	other := newTestConn("c2")

	_, err := reg.CreateRoom("alpha", "ana", conn)
	require.NoError(t, err)
	_, err = reg.CreateRoom("beta", "ana", conn)
	require.NoError(t, err)
	_, err = reg.JoinRoom("alpha", "bo", other)
	require.NoError(t, err)

	reg.RemoveConnection("c1")

	// beta had only the disconnected member and is gone; alpha survives.
	_, ok := reg.GetRoom("beta")
	assert.False(t, ok)
	alpha, ok := reg.GetRoom("alpha")
	require.True(t, ok)
	assert.Len(t, alpha.Players, 1)

	// A second sweep for the same id must be safe.
	reg.RemoveConnection("c1")
}

func TestOrderSnapshotMatchesMembership(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.CreateRoom("lounge", "ana", newTestConn("c1"))
	require.NoError(t, err)
	r, err := reg.JoinRoom("lounge", "bo", newTestConn("c2"))
	require.NoError(t, err)

	r.Mu.Lock()
	order := r.OrderSnapshotUnsafe()
	r.Mu.Unlock()

	assert.ElementsMatch(t, []string{"c1", "c2"}, order)
}

func TestConnWriteDropsWhenFull(t *testing.T) {
	c := &Conn{ID: "c1", OutChan: make(chan map[string]interface{}, 1)}

	c.Write(map[string]interface{}{"type": "first"})
	c.Write(map[string]interface{}{"type": "second"}) // dropped, must not block

	msgs := drain(c)
	require.Len(t, msgs, 1)
	assert.Equal(t, "first", msgs[0]["type"])
}

func TestWriteAckCarriesErrorCode(t *testing.T) {
	c := newTestConn("c1")

	c.WriteAck("join-room", ErrRoomNotFound)
	c.WriteAck("create-room", nil)

	msgs := drain(c)
	require.Len(t, msgs, 2)
	assert.Equal(t, false, msgs[0]["ok"])
	assert.Equal(t, "room-not-found", msgs[0]["error"])
	assert.Equal(t, true, msgs[1]["ok"])
	_, hasErr := msgs[1]["error"]
	assert.False(t, hasErr)
}

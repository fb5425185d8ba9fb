// internal/handlers/rooms_test.go
package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	HealthHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "running")
}

func TestListRoomsHandler(t *testing.T) {
	s := NewRoomServer()
	c1 := newTestConn("c1")
	c2 := newTestConn("c2")
	dispatch(s, c1, map[string]interface{}{"type": "create-room", "roomId": "alpha", "name": "ana"})
	dispatch(s, c2, map[string]interface{}{"type": "create-room", "roomId": "beta", "name": "bo"})
	dispatch(s, c2, map[string]interface{}{"type": "start-game", "roomId": "beta"})

	req := httptest.NewRequest("GET", "/rooms", nil)
	w := httptest.NewRecorder()
	ListRoomsHandler(s).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var rooms []roomSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rooms))
	require.Len(t, rooms, 2)

	byID := map[string]roomSummary{}
	for _, r := range rooms {
		byID[r.ID] = r
	}
	assert.Equal(t, 1, byID["alpha"].Players)
	assert.False(t, byID["alpha"].Started)
	assert.True(t, byID["beta"].Started)
}

func TestListRoomsHandlerEmpty(t *testing.T) {
	s := NewRoomServer()

	req := httptest.NewRequest("GET", "/rooms", nil)
	w := httptest.NewRecorder()
	ListRoomsHandler(s).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

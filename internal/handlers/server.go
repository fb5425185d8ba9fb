// internal/handlers/server.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/reelroom/reelroom/internal/game"
	"github.com/reelroom/reelroom/internal/room"
)

// RoomServer bundles the process-wide room registry with the shared game
// engine; the websocket and HTTP handlers hang off it.
type RoomServer struct {
	Registry *room.Registry
	Engine   *game.Engine
}

func NewRoomServer() *RoomServer {
	return &RoomServer{
		Registry: room.NewRegistry(),
		Engine:   game.NewEngine(),
	}
}

// HealthHandler answers the bootstrap liveness probe.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("reelroom server running\n"))
}

// roomSummary is one row of the /rooms listing.
type roomSummary struct {
	ID      string `json:"id"`
	Players int    `json:"players"`
	Started bool   `json:"started"`
}

// ListRoomsHandler reports the active rooms with member count and game
// phase. Diagnostic surface only; it exposes no player identities.
func ListRoomsHandler(s *RoomServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms := s.Registry.Rooms()
		out := make([]roomSummary, 0, len(rooms))
		for id, rm := range rooms {
			rm.Mu.Lock()
			out = append(out, roomSummary{
				ID:      id,
				Players: len(rm.Players),
				Started: rm.Game.Started,
			})
			rm.Mu.Unlock()
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			http.Error(w, "failed to encode room list", http.StatusInternalServerError)
		}
	}
}

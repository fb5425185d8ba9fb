// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/reelroom/reelroom/internal/room"
)

// RoomWSHandler upgrades the HTTP connection to a websocket, mints a
// transient connection id, and runs the read loop that feeds room actions
// into the registry and engine. When the read loop exits the connection is
// swept out of every room it joined.
func RoomWSHandler(logger *logrus.Logger, s *RoomServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"room"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "room" {
			c.Close(BadSubprotocolError, "client must speak the room subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		conn := &room.Conn{
			ID:      uuid.NewString(),
			Cancel:  cancel,
			OutChan: make(chan map[string]interface{}, 16),
		}
		logger.Infof("Connection %s established from %s", conn.ID, remoteAddr)

		// Tell the client its connection id before any room traffic.
		conn.Write(map[string]interface{}{
			"type": "connected",
			"id":   conn.ID,
		})

		go writePump(ctx, c, conn, logger)

		readPump(ctx, c, s, conn, logger)

		// Disconnect sweep: leave every room this connection belonged to.
		logger.Infof("Connection %s read pump exited, sweeping rooms", conn.ID)
		s.Registry.RemoveConnection(conn.ID)
	}
}

// readPump consumes inbound packets one at a time until the connection
// closes. Each packet is dispatched synchronously, so a room sees this
// connection's actions in arrival order.
func readPump(ctx context.Context, c *websocket.Conn, s *RoomServer, conn *room.Conn, logger *logrus.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				logger.Infof("Connection %s closed normally", conn.ID)
			} else if !strings.Contains(err.Error(), "context canceled") {
				logger.Warnf("Connection %s read error: %v (CloseStatus: %d)", conn.ID, err, closeStatus)
			}
			return
		}

		if typ != websocket.MessageText {
			logger.Warnf("Connection %s sent non-text message type %d, ignoring", conn.ID, typ)
			continue
		}

		var packet map[string]interface{}
		if err := json.Unmarshal(msg, &packet); err != nil {
			logger.Warnf("Connection %s sent invalid json: %v", conn.ID, err)
			conn.WriteError("Invalid JSON format")
			continue
		}

		handleRoomMessage(packet, s, conn, logger)
	}
}

// handleRoomMessage interprets the "type" field of an inbound packet.
// create-room and join-room answer with an ack on the acting connection;
// every other action silently no-ops when its target room is missing, per
// the wire contract.
func handleRoomMessage(packet map[string]interface{}, s *RoomServer, conn *room.Conn, logger *logrus.Logger) {
	action, _ := packet["type"].(string)
	roomID, _ := packet["roomId"].(string)

	switch action {
	case "create-room":
		name, _ := packet["name"].(string)
		_, err := s.Registry.CreateRoom(roomID, name, conn)
		if err != nil {
			logger.Warnf("Connection %s create-room failed: %v", conn.ID, err)
		}
		conn.WriteAck("create-room", err)

	case "join-room":
		name, _ := packet["name"].(string)
		_, err := s.Registry.JoinRoom(roomID, name, conn)
		if err != nil {
			logger.Warnf("Connection %s join-room %q failed: %v", conn.ID, roomID, err)
		}
		conn.WriteAck("join-room", err)

	case "start-game":
		r, ok := s.Registry.GetRoom(roomID)
		if !ok {
			return
		}
		r.Mu.Lock()
		// Any in-progress playthrough is discarded; the order snapshot
		// taken here fixes the rotation for the new one.
		r.Game = s.Engine.Start(r.OrderSnapshotUnsafe())
		r.BroadcastAllUnsafe(r.GameStartedPayloadUnsafe())
		r.Mu.Unlock()
		logger.Infof("Room %s game started by %s", roomID, conn.ID)

	case "toggle-hold":
		r, ok := s.Registry.GetRoom(roomID)
		if !ok {
			return
		}
		idx, ok := packet["index"].(float64)
		if !ok {
			conn.WriteError("toggle-hold requires an index")
			return
		}
		r.Mu.Lock()
		s.Engine.ToggleHold(r.Game, int(idx))
		r.BroadcastAllUnsafe(r.GameUpdatePayloadUnsafe())
		r.Mu.Unlock()

	case "roll-reels":
		r, ok := s.Registry.GetRoom(roomID)
		if !ok {
			return
		}
		r.Mu.Lock()
		res := s.Engine.Roll(r.Game)
		if res.Rolled {
			r.BroadcastAllUnsafe(r.GameUpdatePayloadUnsafe())
		}
		r.Mu.Unlock()
		if res.Resolved {
			logger.Infof("Room %s turn resolved: %s scored %d", roomID, res.PlayerID, res.ScoreGain)
		}

	case "leave-room":
		s.Registry.RemovePlayer(roomID, conn.ID)

	case "chat":
		r, ok := s.Registry.GetRoom(roomID)
		if !ok {
			return
		}
		msg, _ := packet["msg"].(string)
		if msg == "" {
			return
		}
		r.Mu.Lock()
		r.BroadcastAllUnsafe(r.ChatPayloadUnsafe(conn.ID, msg))
		r.Mu.Unlock()

	default:
		logger.Warnf("Connection %s sent unknown action %q", conn.ID, action)
		conn.WriteError(fmt.Sprintf("Unknown action type: %s", action))
	}
}

// writePump drains the connection's outbound channel onto the websocket and
// keeps the connection alive with periodic pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *room.Conn, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-conn.OutChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				logger.Warnf("Connection %s failed to marshal outgoing msg: %v", conn.ID, err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("Connection %s write failed: %v", conn.ID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("Connection %s ping failed: %v, assuming disconnect", conn.ID, err)
				return
			}
		}
	}
}

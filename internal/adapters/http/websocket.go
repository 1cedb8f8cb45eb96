package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/perimap/internal/adapters/nats"
	"github.com/samirrijal/perimap/internal/core/domain"
	"github.com/samirrijal/perimap/internal/pkg/metrics"
)

// wsEnvelope wraps every server-to-client frame.
type wsEnvelope struct {
	Type    string      `json:"type"` // "view" | "event" | "error"
	Payload interface{} `json:"payload"`
}

// WebSocketHandler returns a handler bound to one session. On connect the
// client receives the current view; every frame it sends is an interaction
// (map_click, marker_click, shape_complete, clear_markers, clear_perimeter)
// answered with the updated view. When NATS is configured, events produced
// by other clients of the same session are relayed as they happen. Events
// caused by this connection are not echoed back.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		sessionID := c.Params("id")
		origin := uuid.NewString()
		log := slog.With("session_id", sessionID, "remote", c.RemoteAddr().String())
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		log.Info("ws client connected")

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		view, err := deps.Sessions.View(ctx, sessionID)
		if err != nil {
			_ = writeJSON(wsEnvelope{Type: "error", Payload: err.Error()})
			return
		}
		if err := writeJSON(wsEnvelope{Type: "view", Payload: view}); err != nil {
			return
		}

		if deps.NATS != nil {
			sub, err := deps.NATS.Subscribe(natsadapter.SessionSubject(sessionID), func(msg *nats.Msg) {
				if !relayEvent(origin, msg.Data) {
					return
				}
				_ = writeJSON(wsEnvelope{Type: "event", Payload: json.RawMessage(msg.Data)})
			})
			if err != nil {
				log.Warn("ws session subscribe failed", "error", err)
			} else {
				defer func() { _ = sub.Unsubscribe() }()
			}
		}

		// Keep-alive ping
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var in domain.Interaction
			if err := json.Unmarshal(msg, &in); err != nil {
				_ = writeJSON(wsEnvelope{Type: "error", Payload: "invalid JSON"})
				continue
			}
			// The connection is bound to its session.
			in.SessionID = sessionID
			in.Origin = origin

			v, err := deps.Sessions.Apply(ctx, &in)
			if err != nil {
				_ = writeJSON(wsEnvelope{Type: "error", Payload: err.Error()})
				continue
			}
			if err := writeJSON(wsEnvelope{Type: "view", Payload: v}); err != nil {
				break
			}
		}

		log.Info("ws client disconnected")
	}
}

// relayEvent reports whether an event should be forwarded to the connection
// identified by origin.
func relayEvent(origin string, data []byte) bool {
	var ev struct {
		Origin string `json:"origin"`
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		return true
	}
	return ev.Origin != origin
}

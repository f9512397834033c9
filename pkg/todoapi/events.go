package todoapi

import (
	"net/http"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog/hlog"
	"github.com/surrealdb/todoapi/pkg/feed"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleEvents streams every successful create, update and delete to the
// client as a JSON models.Notification, one per text message.
//
//	GET /api/todos/events   (WebSocket upgrade)
//
// The stream ends when the client goes away or the server shuts down. A
// client too slow to keep up misses notifications rather than stalling
// writers.
func (a *App) handleEvents(w http.ResponseWriter, r *http.Request) {
	logger := hlog.FromRequest(r)

	if !gorilla.IsWebSocketUpgrade(r) {
		respondError(w, http.StatusBadRequest, "Expected a WebSocket upgrade request")
		return
	}

	id, notifications, err := a.hub.Subscribe()
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "Server is shutting down")
		return
	}
	defer a.hub.Unsubscribe(id)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	logger.Debug().Str("subscriber", id).Msg("feed subscriber connected")

	// Client messages are discarded; reading is only needed to process
	// pongs and notice the connection closing.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case n, open := <-notifications:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !open {
				_ = conn.WriteMessage(gorilla.CloseMessage, gorilla.FormatCloseMessage(gorilla.CloseGoingAway, feed.ErrClosed.Error()))
				return
			}
			if err := conn.WriteJSON(n); err != nil {
				logger.Debug().Err(err).Str("subscriber", id).Msg("feed write failed")
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(gorilla.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			logger.Debug().Str("subscriber", id).Msg("feed subscriber disconnected")
			return
		}
	}
}

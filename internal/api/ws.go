package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// stream отправляет клиенту события комментариев поездки, пока соединение открыто.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripId")
	if _, err := h.comments.GetTrip(r.Context(), tripID); err != nil {
		writeError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "websocket upgrade failed", "trip_id", tripID, "err", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	events, cancel := h.hub.Subscribe(tripID)
	defer cancel()
	slog.InfoContext(r.Context(), "websocket subscribed", "trip_id", tripID)

	// Читаем только чтобы заметить закрытие соединения клиентом
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				slog.ErrorContext(r.Context(), "failed to encode event", "type", ev.Type, "err", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				slog.WarnContext(r.Context(), "websocket write failed", "trip_id", tripID, "err", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-closed:
			slog.InfoContext(r.Context(), "websocket closed", "trip_id", tripID)
			return
		case <-r.Context().Done():
			return
		}
	}
}

package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"linkvault/internal/workspace"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// EventsHandler streams workspace events over a websocket.
type EventsHandler struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewEventsHandler creates a new events handler. Browser connections are
// accepted only from allowedOrigins; "*" allows any origin.
func NewEventsHandler(allowedOrigins []string, logger *slog.Logger) *EventsHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}

	return &EventsHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
		logger: logger,
	}
}

// Stream sends the current auth, connectivity and tree state, then every
// workspace event until either side closes.
// GET /api/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceFrom(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Debug("websocket upgrade failed", "workspace_id", ws.ID, "error", err)
		return
	}
	defer conn.Close()

	events, cancel := ws.Hub.Subscribe()
	defer cancel()
	h.logger.Debug("event feed connected", "workspace_id", ws.ID)

	done := make(chan struct{})
	go h.readPump(conn, done)

	initial := []workspace.Event{
		{Type: workspace.EventAuth, Data: ws.Session.State()},
		{Type: workspace.EventConnectivity, Data: workspace.ConnectivityStatus{Connected: ws.Tree.Connected()}},
		{Type: workspace.EventTree, Data: ws.Tree.Snapshot()},
	}
	for _, ev := range initial {
		if err := h.write(conn, ev); err != nil {
			return
		}
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			h.logger.Debug("event feed disconnected", "workspace_id", ws.ID)
			return
		case ev, ok := <-events:
			if !ok {
				msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "workspace closed")
				conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
				return
			}
			if err := h.write(conn, ev); err != nil {
				h.logger.Debug("event feed write failed", "workspace_id", ws.ID, "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *EventsHandler) write(conn *websocket.Conn, ev workspace.Event) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}

// readPump discards client messages and closes done when the peer goes away
// or stops answering pings.
func (h *EventsHandler) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("event feed read error", "error", err)
			}
			return
		}
	}
}

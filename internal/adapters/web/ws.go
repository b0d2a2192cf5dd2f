package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ghalamif/InfraBoard/internal/ports"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// client answers every filter message with a freshly rendered report.
type client struct {
	conn   *websocket.Conn
	runner ReportRunner
	send   chan []byte
	done   chan struct{}
	obs    ports.Observability
}

func (h *Handler) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logError("websocket_upgrade_failed", err)
		return
	}
	c := &client{conn: conn, runner: h.runner, send: make(chan []byte, 8), done: make(chan struct{}), obs: h.obs}
	go c.writePump()
	c.readPump()
}

func (c *client) readPump() {
	defer func() {
		close(c.send)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && c.obs != nil {
				c.obs.LogError("websocket_read_failed", err)
			}
			return
		}
		select {
		case c.send <- c.respond(msg):
		case <-c.done:
			return
		}
	}
}

func (c *client) respond(msg []byte) []byte {
	var req filterRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		return mustJSON(errorResponse{Error: "invalid filter: " + err.Error()})
	}
	f, err := req.toFilter()
	if err != nil {
		return mustJSON(errorResponse{Error: err.Error()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	rep, err := c.runner.Run(ctx, f)
	if err != nil {
		return mustJSON(errorResponse{Error: err.Error()})
	}
	return mustJSON(rep)
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.done)
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		b, _ = json.Marshal(errorResponse{Error: err.Error()})
	}
	return b
}

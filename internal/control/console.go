package control

import (
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hylauncher/hylauncher/internal/logsink"
)

const (
	consoleBuffer     = 256
	consoleWriteWait  = 10 * time.Second
	consolePongWait   = 60 * time.Second
	consolePingPeriod = 54 * time.Second
)

// consoleHub streams log records to websocket watchers. Each watcher owns a
// drop-oldest subscription, so a stalled browser never blocks a launch.
type consoleHub struct {
	sink     *logsink.Sink
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*consoleClient]struct{}
}

type consoleClient struct {
	conn *websocket.Conn
	sub  *logsink.Subscription
	once sync.Once
}

func newConsoleHub(sink *logsink.Sink) *consoleHub {
	return &consoleHub{
		sink:    sink,
		clients: make(map[*consoleClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(r.Header.Get("Origin"))
			},
		},
	}
}

// originAllowed admits requests without an Origin (non-browser clients) and
// pages served from the loopback interface.
func originAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	return origin == "http://localhost" ||
		origin == "http://127.0.0.1" ||
		strings.HasPrefix(origin, "http://localhost:") ||
		strings.HasPrefix(origin, "http://127.0.0.1:")
}

func (h *consoleHub) handle(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	if h.sink == nil {
		writeError(w, http.StatusServiceUnavailable, "console unavailable")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Control] console upgrade error: %v", err)
		return
	}

	client := &consoleClient{
		conn: conn,
		sub: h.sink.Subscribe(
			logsink.WithBuffer(consoleBuffer),
			logsink.WithStrategy(logsink.StrategyDropOldest),
			logsink.WithName("console "+r.RemoteAddr),
		),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	go h.writePump(client)
	go h.readPump(client)
}

func (h *consoleHub) release(c *consoleClient) {
	c.once.Do(func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()

		c.sub.Close()
		_ = c.conn.Close()
	})
}

func (h *consoleHub) closeAll() {
	h.mu.Lock()
	clients := make([]*consoleClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second),
		)
		h.release(c)
	}
}

// readPump discards inbound frames and detects disconnects.
func (h *consoleHub) readPump(c *consoleClient) {
	defer h.release(c)

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(consolePongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(consolePongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("[Control] console read error: %v", err)
			}
			return
		}
	}
}

// writePump sends one JSON text frame per record.
func (h *consoleHub) writePump(c *consoleClient) {
	ticker := time.NewTicker(consolePingPeriod)
	defer func() {
		ticker.Stop()
		h.release(c)
	}()

	for {
		select {
		case rec, ok := <-c.sub.C():
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(consoleWriteWait))
			if err := c.conn.WriteJSON(rec); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(consoleWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/fingercount/internal/app"
	"github.com/ayusman/fingercount/internal/publish"
)

const (
	writeWait = 2 * time.Second
	pongWait  = 60 * time.Second
	pingEvery = 30 * time.Second

	// resultBacklog is how many results may queue before new ones are dropped.
	resultBacklog = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// client is one WebSocket subscriber.
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	cbor    bool
}

func (c *client) write(messageType int, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, payload)
}

// ResultsHandler pushes one message per processed frame to WebSocket
// clients. Clients connecting with ?format=cbor receive binary CBOR frames,
// everyone else JSON text frames.
type ResultsHandler struct {
	clients  map[*websocket.Conn]*client
	mu       sync.RWMutex
	messages chan app.Summary
	done     chan struct{}
	once     sync.Once
}

// NewResultsHandler creates a ResultsHandler and starts its broadcast loop.
func NewResultsHandler() *ResultsHandler {
	h := &ResultsHandler{
		clients:  make(map[*websocket.Conn]*client),
		messages: make(chan app.Summary, resultBacklog),
		done:     make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// Publish queues sum for delivery. It never blocks the pipeline; results are
// dropped while the backlog is full.
func (h *ResultsHandler) Publish(sum app.Summary) {
	select {
	case h.messages <- sum:
	default:
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *ResultsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	c := &client{conn: conn, cbor: r.URL.Query().Get("format") == "cbor"}

	h.mu.Lock()
	h.clients[conn] = c
	h.mu.Unlock()

	defer h.removeClient(conn)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(pingEvery)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := c.write(websocket.PingMessage, nil); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *ResultsHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcast sends queued results to all connected clients.
func (h *ResultsHandler) broadcast() {
	for {
		select {
		case <-h.done:
			return
		case sum := <-h.messages:
			h.send(sum)
		}
	}
}

func (h *ResultsHandler) send(sum app.Summary) {
	h.mu.RLock()
	if len(h.clients) == 0 {
		h.mu.RUnlock()
		return
	}
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	var text, binary []byte
	var stale []*websocket.Conn
	for _, c := range clients {
		var err error
		if c.cbor {
			if binary == nil {
				if binary, err = publish.Encode(sum); err != nil {
					log.Printf("Error encoding result: %v", err)
					return
				}
			}
			err = c.write(websocket.BinaryMessage, binary)
		} else {
			if text == nil {
				if text, err = json.Marshal(sum); err != nil {
					log.Printf("Error encoding result: %v", err)
					return
				}
			}
			err = c.write(websocket.TextMessage, text)
		}
		if err != nil {
			stale = append(stale, c.conn)
		}
	}

	for _, conn := range stale {
		h.removeClient(conn)
	}
}

func (h *ResultsHandler) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// Close stops the broadcast loop and disconnects all clients.
func (h *ResultsHandler) Close() {
	h.once.Do(func() {
		close(h.done)

		h.mu.Lock()
		for conn := range h.clients {
			conn.Close()
			delete(h.clients, conn)
		}
		h.mu.Unlock()
	})
}

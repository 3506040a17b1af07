package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"equity-pattern-lab/internal/backtest"
)

// Hub write timings.
const (
	writeTimeout  = 10 * time.Second
	pingInterval  = 30 * time.Second
	clientBacklog = 64
)

// progressEvent is the JSON payload pushed to subscribed clients for each
// evaluated day.
type progressEvent struct {
	Ticker     string  `json:"ticker"`
	Date       string  `json:"date"`
	Day        int     `json:"day"`
	TotalDays  int     `json:"total_days"`
	FinalScore float64 `json:"final_score"`
	Triggered  bool    `json:"triggered"`
}

// Hub fans backtest progress events out to WebSocket subscribers. Slow
// clients are dropped rather than allowed to stall a run.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

// NewHub creates a progress hub.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// ServeWS upgrades the request and subscribes the client to progress events.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("websocket upgrade failed: %v", err)
		return
	}

	send := make(chan []byte, clientBacklog)

	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()
	h.logger.Printf("websocket client connected: %s", conn.RemoteAddr())

	go h.writeLoop(conn, send)
	go h.readLoop(conn)
}

// Progress returns a backtest.ProgressFunc that broadcasts each event.
func (h *Hub) Progress() backtest.ProgressFunc {
	return func(p backtest.Progress) {
		event := progressEvent{
			Ticker:     p.Ticker,
			Date:       p.Date.Format("2006-01-02"),
			Day:        p.Day,
			TotalDays:  p.TotalDays,
			FinalScore: p.FinalScore,
			Triggered:  p.Triggered,
		}
		data, err := json.Marshal(event)
		if err != nil {
			return
		}
		h.broadcast(data)
	}
}

// broadcast queues the payload for every client, dropping clients whose
// backlog is full.
func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, send := range h.clients {
		select {
		case send <- data:
		default:
			h.logger.Printf("websocket client too slow, dropping: %s", conn.RemoteAddr())
			delete(h.clients, conn)
			close(send)
			conn.Close()
		}
	}
}

// writeLoop drains the client's send channel and keeps the connection alive
// with pings.
func (h *Hub) writeLoop(conn *websocket.Conn, send chan []byte) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-send:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(writeTimeout))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.drop(conn)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil,
				time.Now().Add(writeTimeout)); err != nil {
				h.drop(conn)
				return
			}
		}
	}
}

// readLoop discards inbound messages and detects disconnects.
func (h *Hub) readLoop(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.drop(conn)
			return
		}
	}
}

// drop removes a client and closes its connection.
func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if send, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(send)
	}
	h.mu.Unlock()
	conn.Close()
}

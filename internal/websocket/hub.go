// Package websocket pushes dataset-change notifications to connected
// dashboards. The hub owns the client set; clients are registered by the
// HTTP upgrade handler and removed when their pumps exit.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"databoard/internal/infrastructure"
	"databoard/pkg/contracts/events"
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics

	quit    chan struct{}
	running bool
	done    chan struct{}
}

// NewHub creates a hub. Call Start before registering clients.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "websocket.hub"))

	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// SetMetrics attaches the client gauge. Call before Start.
func (h *Hub) SetMetrics(metrics *infrastructure.BusinessMetrics) {
	h.metrics = metrics
}

// Start launches the hub loop. Starting twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

// Stop shuts the hub down and closes every client send channel.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
		h.recordClients(-1)
	}
}

func (h *Hub) recordClients(delta int64) {
	if h.metrics != nil {
		h.metrics.WebSocketClients.Add(context.Background(), delta)
	}
}

func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case <-h.quit:
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.recordClients(1)

			h.logger.Info("client registered",
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr),
				slog.Int("total_clients", count))

			h.sendConnected(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				count := len(h.clients)
				h.mu.Unlock()
				h.recordClients(-1)
				h.logger.Info("client unregistered",
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)),
					slog.Int("total_clients", count))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// sendConnected acknowledges a new registration over the client's own
// channel so other clients never see it.
func (h *Hub) sendConnected(client *Client) {
	msg := events.Message{
		Type:      events.MessageTypeConnect,
		Data:      events.Connected{Status: "connected", ClientID: client.id},
		Timestamp: time.Now(),
		TraceID:   client.traceID,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal connect message", slog.String("error", err.Error()))
		return
	}
	select {
	case client.send <- payload:
	default:
		h.logger.Warn("connect message dropped, client buffer full",
			slog.String("client_id", client.id))
	}
}

// deliver fans a payload out to every client, dropping clients whose send
// buffer is full.
func (h *Hub) deliver(message []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	dropped := 0
	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			dropped++
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				close(client.send)
				delete(h.clients, client)
				h.recordClients(-1)
			}
			h.mu.Unlock()
			h.logger.Warn("client send buffer full, disconnecting",
				slog.String("client_id", client.id))
		}
	}

	if dropped > 0 {
		h.logger.Warn("broadcast incomplete",
			slog.Int("delivered", len(clients)-dropped),
			slog.Int("dropped", dropped))
	}
}

// BroadcastDataUpdate tells every dashboard that a source dataset changed
// and boards derived from it should be re-requested.
func (h *Hub) BroadcastDataUpdate(dataset, path string) {
	h.broadcastMessage(events.Message{
		Type:      events.MessageTypeDataUpdate,
		Data:      events.DataUpdate{Dataset: dataset, Path: path},
		Timestamp: time.Now(),
	})
}

// BroadcastError pushes a non-fatal server-side error to clients.
func (h *Hub) BroadcastError(message string) {
	h.broadcastMessage(events.Message{
		Type:      events.MessageTypeError,
		Data:      map[string]string{"message": message},
		Timestamp: time.Now(),
	})
}

func (h *Hub) broadcastMessage(msg events.Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast message",
			slog.String("type", string(msg.Type)),
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- payload:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

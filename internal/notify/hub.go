package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"FlowICT/internal/domain/models"
	domrepo "FlowICT/internal/domain/repository"
	applogger "FlowICT/pkg/logger"
)

// Hub tracks live websocket subscribers and broadcasts signal frames to
// them. All client-map access is serialized through the Run loop.
type Hub struct {
	clients    map[*wsClient]bool
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *wsClient
	l          *applogger.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*wsClient]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
	}
}

// SetLogger injects a structured logger.
func (h *Hub) SetLogger(l *applogger.Logger) { h.l = l }

// Run drives the hub until the context ends, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			if h.l != nil {
				h.l.Debug("websocket client registered", applogger.Int("clients", len(h.clients)))
			}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer: drop it rather than stall the loop.
					close(client.send)
					delete(h.clients, client)
				}
			}

		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return
		}
	}
}

// Broadcast queues a frame for every connected client.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		if h.l != nil {
			h.l.Warn("websocket broadcast buffer full, frame dropped")
		}
	}
}

// WSSink adapts the hub to the publisher interface so the dispatcher can
// stream signals to websocket subscribers like any other sink.
type WSSink struct {
	hub *Hub
}

var _ domrepo.SignalPublisher = (*WSSink)(nil)

func NewWSSink(hub *Hub) *WSSink { return &WSSink{hub: hub} }

func (w *WSSink) Publish(_ context.Context, s *models.Signal) error {
	frame, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal signal frame: %w", err)
	}
	w.hub.Broadcast(frame)
	return nil
}

// Close is a no-op: the hub's lifecycle belongs to the application.
func (w *WSSink) Close() error { return nil }

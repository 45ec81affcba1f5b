package ws

import (
	"context"
	"encoding/json"
	"sync"

	"learnfinity/internal/events"
	"learnfinity/internal/pkg/logger"

	"github.com/google/uuid"
)

type message struct {
	employeeID uuid.UUID
	payload    []byte
}

// Hub fans status events out to connected sockets. A client that asked for a
// single employee only receives that employee's events.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	log        *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan message, 1024),
		register:   make(chan *Client, 128),
		unregister: make(chan *Client, 128),
		log:        log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			if client == nil {
				continue
			}
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("ws connected", "total_clients", total)

		case client := <-h.unregister:
			if client == nil {
				continue
			}
			h.drop(client)

		case msg := <-h.broadcast:
			h.mutex.RLock()
			targets := make([]*Client, 0, len(h.clients))
			for c := range h.clients {
				if c.wants(msg.employeeID) {
					targets = append(targets, c)
				}
			}
			h.mutex.RUnlock()

			for _, client := range targets {
				select {
				case client.send <- msg.payload:
				default:
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	h.mutex.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mutex.Unlock()
	h.log.Debug("ws disconnected", "total_clients", total)
}

func (h *Hub) Register(client *Client) {
	if h == nil {
		return
	}
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	if h == nil {
		return
	}
	h.unregister <- client
}

func (h *Hub) broadcastTo(employeeID uuid.UUID, payload []byte) {
	select {
	case h.broadcast <- message{employeeID: employeeID, payload: payload}:
	default:
		h.log.Warn("ws broadcast dropped", "reason", "buffer_full")
	}
}

// Publish lets the hub sit behind events.Publisher. It never blocks.
func (h *Hub) Publish(_ context.Context, e events.Event) error {
	if h == nil {
		return nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	h.broadcastTo(employeeOf(e), b)
	return nil
}

func employeeOf(e events.Event) uuid.UUID {
	switch d := e.Data.(type) {
	case events.Personalization:
		return d.EmployeeID
	case events.SkillNormalized:
		return d.EmployeeID
	default:
		return uuid.Nil
	}
}

func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

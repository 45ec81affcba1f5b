package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"learnfinity/internal/events"

	"github.com/google/uuid"
)

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case b := <-c.send:
		return b
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for message")
		return nil
	}
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", n, h.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubRoutesEventsByEmployee(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(nil)
	go h.Run(ctx)

	emp := uuid.New()
	all := &Client{hub: h, send: make(chan []byte, 4)}
	mine := &Client{hub: h, send: make(chan []byte, 4), employeeID: emp}
	other := &Client{hub: h, send: make(chan []byte, 4), employeeID: uuid.New()}
	h.Register(all)
	h.Register(mine)
	h.Register(other)
	waitClients(t, h, 3)

	evt := events.New(events.TypePersonalizationCompleted, events.Personalization{EmployeeID: emp, Status: "completed"})
	if err := h.Publish(ctx, evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	for _, c := range []*Client{all, mine} {
		var got map[string]any
		if err := json.Unmarshal(receive(t, c), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got["type"] != string(events.TypePersonalizationCompleted) {
			t.Fatalf("unexpected event: %v", got)
		}
	}

	select {
	case b := <-other.send:
		t.Fatalf("other employee's client received %s", b)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(nil)
	go h.Run(ctx)

	c := &Client{hub: h, send: make(chan []byte, 1)}
	h.Register(c)
	waitClients(t, h, 1)
	h.Unregister(c)
	waitClients(t, h, 0)

	if _, ok := <-c.send; ok {
		t.Fatalf("send channel still open")
	}
}

func TestNilHubPublishIsNoop(t *testing.T) {
	var h *Hub
	if err := h.Publish(context.Background(), events.New(events.TypeSkillNormalized, nil)); err != nil {
		t.Fatalf("Publish on nil hub: %v", err)
	}
}

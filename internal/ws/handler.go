package ws

import (
	"net/http"
	"strings"

	"learnfinity/internal/pkg/jwt"
	"learnfinity/internal/pkg/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Handler struct {
	hub      *Hub
	tokens   jwt.Service
	log      *logger.Logger
	upgrader websocket.Upgrader
}

// NewHandler accepts upgrades from the given origins only; an empty list
// allows any origin.
func NewHandler(hub *Hub, tokens jwt.Service, allowedOrigins []string, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return &Handler{
		hub:    hub,
		tokens: tokens,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[strings.TrimRight(origin, "/")]
			},
		},
	}
}

// HandleStatusWS upgrades to a socket streaming personalization status
// events. Browsers cannot set headers on upgrades, so the access token comes
// in the token query parameter.
func (h *Handler) HandleStatusWS(c fiber.Ctx) error {
	if h == nil || h.hub == nil {
		return fiber.ErrServiceUnavailable
	}

	if h.tokens != nil {
		if _, err := h.tokens.ValidateToken(c.Query("token")); err != nil {
			return fiber.ErrUnauthorized
		}
	}

	employeeID := uuid.Nil
	if raw := strings.TrimSpace(c.Query("employee_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid employee_id")
		}
		employeeID = id
	}

	fiberHandler := adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warn("ws upgrade failed", "error", err)
			return
		}

		client := NewClient(h.hub, conn, employeeID)
		h.hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	})

	return fiberHandler(c)
}

package handler

import (
	"context"
	"time"

	"learnfinity/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports dependency status. The database is required; Redis
// only degrades the service.
type HealthHandler struct {
	db    Pinger
	cache Pinger
}

func NewHealthHandler(db, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	out := fiber.Map{"database": "ok", "redis": "ok"}
	status := fiber.StatusOK
	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			out["database"] = "unavailable"
			status = fiber.StatusServiceUnavailable
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			out["redis"] = "unavailable"
		}
	}
	return response.Success(c, status, "", out)
}

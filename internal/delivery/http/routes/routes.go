package routes

import (
	"learnfinity/internal/delivery/http/handler"
	v1 "learnfinity/internal/delivery/http/routes/v1"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	health *handler.HealthHandler
	v1     v1.Handlers
	auth   fiber.Handler
	ws     fiber.Handler
}

// NewRegistry collects the route groups. ws may be nil when websockets are
// switched off.
func NewRegistry(health *handler.HealthHandler, handlers v1.Handlers, auth fiber.Handler, ws fiber.Handler) *Registry {
	return &Registry{health: health, v1: handlers, auth: auth, ws: ws}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerOps(app)
	r.registerAPI(app)
}

func (r *Registry) registerOps(app *fiber.App) {
	if r.health != nil {
		r.health.RegisterRoutes(app)
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	if r.ws != nil {
		app.Get("/ws", r.ws)
	}
}

func (r *Registry) registerAPI(app *fiber.App) {
	api := app.Group("/api")
	RegisterV1(api.Group("/v1"), r.v1, r.auth)
}

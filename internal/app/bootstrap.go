package app

import (
	"fmt"
	"strings"

	"learnfinity/internal/config"
	"learnfinity/internal/delivery/http/handler"
	"learnfinity/internal/delivery/http/middleware"
	"learnfinity/internal/delivery/http/routes"
	v1 "learnfinity/internal/delivery/http/routes/v1"
	"learnfinity/internal/pkg/logger"
	"learnfinity/internal/usecase"
	"learnfinity/internal/ws"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// New wires the HTTP surface over an already built container.
func New(c *Container) *App {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	registerGlobalMiddleware(f, c.Config, c.Log)
	registerRoutes(f, c)

	return &App{Fiber: f, Container: c}
}

func Bootstrap(cfg config.Config, log *logger.Logger) (*App, func() error, error) {
	c, err := NewContainer(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return New(c), c.Close, nil
}

func registerGlobalMiddleware(app *fiber.App, cfg config.Config, log *logger.Logger) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(log.With("component", "http")).Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.HTTP.AllowedOrigins,
		AllowMethods:  []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodDelete, fiber.MethodOptions},
		AllowHeaders:  []string{fiber.HeaderAuthorization, fiber.HeaderContentType, middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID},
	}))

	errMw := middleware.NewErrorMiddleware(log)
	app.Use(errMw.Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	uc := c.UC
	auth := middleware.NewAuthMiddleware(c.JWT, uc.Users, usecase.ErrUserNotFound, c.Log)

	var wsRoute fiber.Handler
	if c.Hub != nil {
		wsRoute = ws.NewHandler(c.Hub, c.JWT, c.Config.HTTP.AllowedOrigins, c.Log).HandleStatusWS
	}

	handlers := v1.Handlers{
		Auth:            handler.NewAuthHandler(uc.Sessions),
		Taxonomy:        handler.NewTaxonomyHandler(uc.Taxonomy),
		Employees:       handler.NewEmployeeHandler(uc.Employees, uc.Gaps, uc.CV),
		Skills:          handler.NewSkillHandler(uc.Skills, uc.Normalization, uc.Employees),
		Positions:       handler.NewPositionHandler(uc.Positions),
		Courses:         handler.NewCourseHandler(uc.Courses, uc.Personalization, uc.Employees),
		Personalization: handler.NewPersonalizationHandler(uc.Personalization, uc.Employees),
		LearningPaths:   handler.NewLearningPathHandler(uc.LearningPaths, uc.Employees),
		AI:              handler.NewAIHandler(uc.Chat),
		Users:           handler.NewUserHandler(uc.Users, uc.Invites),
	}

	routes.NewRegistry(handler.NewHealthHandler(c.DB, c.Redis), handlers, auth.Middleware(), wsRoute).Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}

package v1

import (
	"learnfinity/internal/delivery/http/handler"

	"github.com/gofiber/fiber/v3"
)

// Handlers are the route groups mounted under /api/v1. A nil handler is
// skipped.
type Handlers struct {
	Auth            *handler.AuthHandler
	Taxonomy        *handler.TaxonomyHandler
	Employees       *handler.EmployeeHandler
	Skills          *handler.SkillHandler
	Positions       *handler.PositionHandler
	Courses         *handler.CourseHandler
	Personalization *handler.PersonalizationHandler
	LearningPaths   *handler.LearningPathHandler
	AI              *handler.AIHandler
	Users           *handler.UserHandler
}

type routeRegistrar interface {
	RegisterRoutes(r fiber.Router)
}

// Register mounts every v1 route behind auth except token refresh. Initial
// tokens are issued by the identity provider.
func Register(r fiber.Router, h Handlers, auth fiber.Handler) {
	if r == nil {
		return
	}

	if h.Auth != nil {
		h.Auth.RegisterRoutes(r)
	}
	protected := r.Group("", auth)
	for _, reg := range h.registrars() {
		reg.RegisterRoutes(protected)
	}
}

func (h Handlers) registrars() []routeRegistrar {
	out := make([]routeRegistrar, 0, 9)
	add := func(ok bool, r routeRegistrar) {
		if ok {
			out = append(out, r)
		}
	}
	add(h.Taxonomy != nil, h.Taxonomy)
	add(h.Employees != nil, h.Employees)
	add(h.Skills != nil, h.Skills)
	add(h.Positions != nil, h.Positions)
	add(h.Courses != nil, h.Courses)
	add(h.Personalization != nil, h.Personalization)
	add(h.LearningPaths != nil, h.LearningPaths)
	add(h.AI != nil, h.AI)
	add(h.Users != nil, h.Users)
	return out
}

package handler

import (
	"learnfinity/internal/delivery/http/dto"
	"learnfinity/internal/pkg/response"
	"learnfinity/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type LearningPathHandler struct {
	uc    usecase.LearningPathUsecase
	guard employeeGuard
}

func NewLearningPathHandler(uc usecase.LearningPathUsecase, employees usecase.EmployeeUsecase) *LearningPathHandler {
	return &LearningPathHandler{uc: uc, guard: employeeGuard{employees: employees}}
}

func (h *LearningPathHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/employees")
	grp.Get("/:id/learning-path", h.Get)
	grp.Post("/:id/learning-path", h.Regenerate)
}

// Get returns the stored path, generating it on first request.
func (h *LearningPathHandler) Get(c fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.guard.check(c, id); err != nil {
		return err
	}
	p, err := h.uc.Get(c.Context(), id)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewLearningPathResponse(p))
}

func (h *LearningPathHandler) Regenerate(c fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.guard.check(c, id); err != nil {
		return err
	}
	p, err := h.uc.Generate(c.Context(), id)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewLearningPathResponse(p))
}

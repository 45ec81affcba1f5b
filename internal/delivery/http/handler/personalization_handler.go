package handler

import (
	"learnfinity/internal/delivery/http/dto"
	"learnfinity/internal/delivery/http/middleware"
	"learnfinity/internal/domain/gap"
	"learnfinity/internal/domain/user"
	"learnfinity/internal/pkg/response"
	"learnfinity/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type PersonalizationHandler struct {
	uc    usecase.PersonalizationUsecase
	guard employeeGuard
}

type personalizeRequest struct {
	CourseID   uuid.UUID `json:"course_id"`
	EmployeeID uuid.UUID `json:"employee_id"`
	// Optional. When absent the gaps come from the employee's position.
	Gaps []gap.Gap `json:"gaps"`
}

func (r personalizeRequest) input() usecase.GenerateInput {
	return usecase.GenerateInput{CourseID: r.CourseID, EmployeeID: r.EmployeeID, Gaps: r.Gaps}
}

func NewPersonalizationHandler(uc usecase.PersonalizationUsecase, employees usecase.EmployeeUsecase) *PersonalizationHandler {
	return &PersonalizationHandler{uc: uc, guard: employeeGuard{employees: employees}}
}

func (h *PersonalizationHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/personalizations")
	grp.Post("/", h.Enqueue)
	grp.Post("/generate", middleware.RequireRole(user.RoleHR), h.Generate)
	grp.Get("/jobs/:id", h.Job)
}

// Enqueue schedules generation and answers 202 with the job. A job already
// pending for the pair is returned instead of a new one.
func (h *PersonalizationHandler) Enqueue(c fiber.Ctx) error {
	var req personalizeRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	if req.EmployeeID != uuid.Nil {
		if err := h.guard.check(c, req.EmployeeID); err != nil {
			return err
		}
	}

	job, created, err := h.uc.Enqueue(c.Context(), req.input())
	if err != nil {
		return mapUsecaseError(err)
	}
	msg := response.MessageAccepted
	if !created {
		msg = "already queued"
	}
	return response.Success(c, fiber.StatusAccepted, msg, dto.NewJobResponse(job))
}

// Generate runs the pipeline inside the request.
func (h *PersonalizationHandler) Generate(c fiber.Ctx) error {
	var req personalizeRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	content, err := h.uc.Generate(c.Context(), req.input())
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewContentResponse(content))
}

func (h *PersonalizationHandler) Job(c fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	job, err := h.uc.Job(c.Context(), id)
	if err != nil {
		return mapUsecaseError(err)
	}
	if err := h.guard.check(c, job.EmployeeID); err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewJobResponse(job))
}

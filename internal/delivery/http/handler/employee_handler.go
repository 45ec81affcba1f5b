package handler

import (
	"strings"

	"learnfinity/internal/delivery/http/dto"
	"learnfinity/internal/delivery/http/middleware"
	"learnfinity/internal/domain/user"
	"learnfinity/internal/pkg/response"
	"learnfinity/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type EmployeeHandler struct {
	employees usecase.EmployeeUsecase
	gaps      usecase.GapUsecase
	cv        usecase.CVUsecase
	guard     employeeGuard
}

type createEmployeeRequest struct {
	UserID          *uuid.UUID `json:"user_id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	JobTitle        string     `json:"job_title"`
	Department      string     `json:"department"`
	ExperienceLevel string     `json:"experience_level"`
	PositionID      *uuid.UUID `json:"position_id"`
}

type assignPositionRequest struct {
	PositionID *uuid.UUID `json:"position_id"`
}

type ingestCVRequest struct {
	CVText string `json:"cv_text"`
}

func NewEmployeeHandler(employees usecase.EmployeeUsecase, gaps usecase.GapUsecase, cv usecase.CVUsecase) *EmployeeHandler {
	return &EmployeeHandler{employees: employees, gaps: gaps, cv: cv, guard: employeeGuard{employees: employees}}
}

func (h *EmployeeHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/employees")
	grp.Get("/", middleware.RequireRole(user.RoleHR), h.List)
	grp.Post("/", middleware.RequireRole(user.RoleHR), h.Create)
	grp.Get("/me", h.Me)
	grp.Get("/:id", h.Get)
	grp.Put("/:id/position", middleware.RequireRole(user.RoleHR), h.AssignPosition)
	grp.Post("/:id/cv", h.IngestCV)
	grp.Get("/:id/gaps", h.Gaps)
}

func (h *EmployeeHandler) List(c fiber.Ctx) error {
	limit, offset, err := pageParams(c)
	if err != nil {
		return err
	}
	items, err := h.employees.List(c.Context(), limit, offset)
	if err != nil {
		return mapUsecaseError(err)
	}

	out := make([]dto.EmployeeResponse, 0, len(items))
	for _, e := range items {
		out = append(out, dto.NewEmployeeResponse(e))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, response.Page{Items: out, Limit: limit, Offset: offset})
}

func (h *EmployeeHandler) Create(c fiber.Ctx) error {
	var req createEmployeeRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}

	created, err := h.employees.Create(c.Context(), usecase.CreateEmployeeInput{
		UserID:          optionalUUID(req.UserID),
		Name:            req.Name,
		Email:           req.Email,
		JobTitle:        req.JobTitle,
		Department:      req.Department,
		ExperienceLevel: req.ExperienceLevel,
		PositionID:      optionalUUID(req.PositionID),
	})
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusCreated, response.MessageCreated, dto.NewEmployeeResponse(created))
}

func (h *EmployeeHandler) Me(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	e, err := h.employees.ForUser(c.Context(), userID)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewEmployeeResponse(e))
}

func (h *EmployeeHandler) Get(c fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.guard.check(c, id); err != nil {
		return err
	}
	e, err := h.employees.Get(c.Context(), id)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewEmployeeResponse(e))
}

func (h *EmployeeHandler) AssignPosition(c fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req assignPositionRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	if err := h.employees.AssignPosition(c.Context(), id, optionalUUID(req.PositionID)); err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

// IngestCV takes the CV either as JSON {"cv_text": "..."} or as a text/plain body.
func (h *EmployeeHandler) IngestCV(c fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.guard.check(c, id); err != nil {
		return err
	}

	text := string(c.Body())
	if strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEApplicationJSON) {
		var req ingestCVRequest
		if err := c.Bind().Body(&req); err != nil {
			return badRequest(err)
		}
		text = req.CVText
	}

	res, err := h.cv.Ingest(c.Context(), id, text)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *EmployeeHandler) Gaps(c fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.guard.check(c, id); err != nil {
		return err
	}
	positionID, err := queryUUID(c, "position_id")
	if err != nil {
		return err
	}

	res, err := h.gaps.Analyze(c.Context(), id, positionID.UUID)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func optionalUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil || *id == uuid.Nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

package handler

import (
	"learnfinity/internal/delivery/http/dto"
	"learnfinity/internal/delivery/http/middleware"
	"learnfinity/internal/domain/employee"
	"learnfinity/internal/domain/user"
	"learnfinity/internal/pkg/response"
	"learnfinity/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// SkillHandler serves an employee's skill records and the normalization
// review queue.
type SkillHandler struct {
	skills     usecase.EmployeeSkillUsecase
	normalizer usecase.NormalizationUsecase
	guard      employeeGuard
}

type addSkillRequest struct {
	SkillID     *uuid.UUID `json:"skill_id"`
	RawText     string     `json:"raw_text"`
	Proficiency int        `json:"proficiency"`
	Verified    bool       `json:"verified"`
	Source      string     `json:"source"`
}

type updateSkillRequest struct {
	Proficiency int    `json:"proficiency"`
	Verified    bool   `json:"verified"`
	Source      string `json:"source"`
}

type mapSkillRequest struct {
	SkillID uuid.UUID `json:"skill_id"`
}

type normalizeRequest struct {
	Text string `json:"text"`
}

func NewSkillHandler(skills usecase.EmployeeSkillUsecase, normalizer usecase.NormalizationUsecase, employees usecase.EmployeeUsecase) *SkillHandler {
	return &SkillHandler{skills: skills, normalizer: normalizer, guard: employeeGuard{employees: employees}}
}

func (h *SkillHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	emp := r.Group("/employees/:id/skills")
	emp.Get("/", h.List)
	emp.Post("/", h.Add)
	emp.Put("/:skill_record_id", h.Update)
	emp.Delete("/:skill_record_id", h.Delete)
	r.Post("/employees/:id/normalize", middleware.RequireRole(user.RoleHR), h.NormalizeEmployee)

	grp := r.Group("/skills", middleware.RequireRole(user.RoleHR))
	grp.Get("/unmapped", h.Unmapped)
	grp.Post("/:skill_record_id/map", h.Map)

	r.Post("/normalize", h.Normalize)
}

func (h *SkillHandler) List(c fiber.Ctx) error {
	employeeID, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.guard.check(c, employeeID); err != nil {
		return err
	}
	items, err := h.skills.List(c.Context(), employeeID)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewSkillRecordResponses(items))
}

func (h *SkillHandler) Add(c fiber.Ctx) error {
	employeeID, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.guard.check(c, employeeID); err != nil {
		return err
	}
	var req addSkillRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}

	in := usecase.AddSkillInput{
		RawText:     req.RawText,
		Proficiency: req.Proficiency,
		Verified:    req.Verified,
		Source:      employee.Source(req.Source),
	}
	if req.SkillID != nil {
		in.SkillID = *req.SkillID
	}
	rec, err := h.skills.Add(c.Context(), employeeID, in)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusCreated, response.MessageCreated, dto.NewSkillRecordResponse(rec))
}

func (h *SkillHandler) Update(c fiber.Ctx) error {
	employeeID, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	recordID, err := paramUUID(c, "skill_record_id")
	if err != nil {
		return err
	}
	if err := h.guard.check(c, employeeID); err != nil {
		return err
	}
	var req updateSkillRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}

	rec, err := h.skills.Update(c.Context(), employeeID, recordID, usecase.UpdateSkillInput{
		Proficiency: req.Proficiency,
		Verified:    req.Verified,
		Source:      employee.Source(req.Source),
	})
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewSkillRecordResponse(rec))
}

func (h *SkillHandler) Delete(c fiber.Ctx) error {
	employeeID, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	recordID, err := paramUUID(c, "skill_record_id")
	if err != nil {
		return err
	}
	if err := h.guard.check(c, employeeID); err != nil {
		return err
	}
	if err := h.skills.Delete(c.Context(), employeeID, recordID); err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

func (h *SkillHandler) NormalizeEmployee(c fiber.Ctx) error {
	employeeID, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	summary, err := h.normalizer.NormalizeEmployee(c.Context(), employeeID)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, summary)
}

func (h *SkillHandler) Unmapped(c fiber.Ctx) error {
	limit, offset, err := pageParams(c)
	if err != nil {
		return err
	}
	items, err := h.normalizer.ListUnmapped(c.Context(), limit, offset)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, response.Page{
		Items:  dto.NewSkillRecordResponses(items),
		Limit:  limit,
		Offset: offset,
	})
}

func (h *SkillHandler) Map(c fiber.Ctx) error {
	recordID, err := paramUUID(c, "skill_record_id")
	if err != nil {
		return err
	}
	var req mapSkillRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	rec, err := h.normalizer.MapManually(c.Context(), recordID, req.SkillID)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewSkillRecordResponse(rec))
}

// Normalize resolves free text against the taxonomy without persisting anything.
func (h *SkillHandler) Normalize(c fiber.Ctx) error {
	var req normalizeRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	res, err := h.normalizer.Normalize(c.Context(), req.Text)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

package handler

import (
	"learnfinity/internal/delivery/http/dto"
	"learnfinity/internal/delivery/http/middleware"
	"learnfinity/internal/domain/user"
	"learnfinity/internal/pkg/response"
	"learnfinity/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type PositionHandler struct {
	uc usecase.PositionUsecase
}

type createPositionRequest struct {
	Title       string `json:"title"`
	Department  string `json:"department"`
	Description string `json:"description"`
}

type requirementRequest struct {
	SkillID             uuid.UUID `json:"skill_id"`
	Importance          int       `json:"importance"`
	RequiredProficiency int       `json:"required_proficiency"`
}

type replaceRequirementsRequest struct {
	Requirements []requirementRequest `json:"requirements"`
}

func NewPositionHandler(uc usecase.PositionUsecase) *PositionHandler {
	return &PositionHandler{uc: uc}
}

func (h *PositionHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/positions")
	grp.Get("/", h.List)
	grp.Get("/:id", h.Get)
	grp.Post("/", middleware.RequireRole(user.RoleHR), h.Create)
	grp.Put("/:id/requirements", middleware.RequireRole(user.RoleHR), h.ReplaceRequirements)
	grp.Delete("/:id", middleware.RequireRole(user.RoleAdmin), h.Delete)
}

func (h *PositionHandler) List(c fiber.Ctx) error {
	limit, offset, err := pageParams(c)
	if err != nil {
		return err
	}
	items, err := h.uc.List(c.Context(), limit, offset)
	if err != nil {
		return mapUsecaseError(err)
	}
	out := make([]dto.PositionResponse, 0, len(items))
	for _, p := range items {
		out = append(out, dto.NewPositionResponse(p))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, response.Page{Items: out, Limit: limit, Offset: offset})
}

func (h *PositionHandler) Get(c fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.uc.Get(c.Context(), id)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.PositionDetailResponse{
		PositionResponse: dto.NewPositionResponse(detail.Position),
		Requirements:     dto.NewRequirementResponses(detail.Requirements),
	})
}

func (h *PositionHandler) Create(c fiber.Ctx) error {
	var req createPositionRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	p, err := h.uc.Create(c.Context(), usecase.CreatePositionInput{
		Title:       req.Title,
		Department:  req.Department,
		Description: req.Description,
	})
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusCreated, response.MessageCreated, dto.NewPositionResponse(p))
}

func (h *PositionHandler) ReplaceRequirements(c fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req replaceRequirementsRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}

	in := make([]usecase.RequirementInput, 0, len(req.Requirements))
	for _, r := range req.Requirements {
		in = append(in, usecase.RequirementInput{
			SkillID:             r.SkillID,
			Importance:          r.Importance,
			RequiredProficiency: r.RequiredProficiency,
		})
	}
	reqs, err := h.uc.ReplaceRequirements(c.Context(), id, in)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewRequirementResponses(reqs))
}

func (h *PositionHandler) Delete(c fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.uc.Delete(c.Context(), id); err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

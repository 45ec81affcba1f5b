package handler

import (
	"encoding/json"
	"strings"

	"learnfinity/internal/delivery/http/middleware"
	"learnfinity/internal/domain/taxonomy"
	"learnfinity/internal/domain/user"
	"learnfinity/internal/pkg/response"
	"learnfinity/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type TaxonomyHandler struct {
	uc usecase.TaxonomyUsecase
}

type importTaxonomyRequest struct {
	Items []taxonomy.ImportItem `json:"items"`
}

func NewTaxonomyHandler(uc usecase.TaxonomyUsecase) *TaxonomyHandler {
	return &TaxonomyHandler{uc: uc}
}

func (h *TaxonomyHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/taxonomy")
	grp.Get("/", h.Tree)
	grp.Get("/skills", h.Search)
	grp.Post("/import", middleware.RequireRole(user.RoleAdmin), h.Import)
}

func (h *TaxonomyHandler) Tree(c fiber.Ctx) error {
	tree, err := h.uc.Tree(c.Context())
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, tree)
}

func (h *TaxonomyHandler) Search(c fiber.Ctx) error {
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		return err
	}
	skills, err := h.uc.Search(c.Context(), c.Query("q"), limit)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, skills)
}

// Import accepts either {"items": [...]} or a bare array of items.
func (h *TaxonomyHandler) Import(c fiber.Ctx) error {
	body := c.Body()
	var items []taxonomy.ImportItem
	if strings.HasPrefix(strings.TrimSpace(string(body)), "[") {
		if err := json.Unmarshal(body, &items); err != nil {
			return badRequest(err)
		}
	} else {
		var req importTaxonomyRequest
		if err := c.Bind().Body(&req); err != nil {
			return badRequest(err)
		}
		items = req.Items
	}

	stats, err := h.uc.Import(c.Context(), items)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, stats)
}

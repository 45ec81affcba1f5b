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

type UserHandler struct {
	users   usecase.UserUsecase
	invites usecase.InviteUsecase
}

type updateProfileRequest struct {
	FullName *string `json:"full_name"`
}

type createInviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type verifyInviteRequest struct {
	Code     string `json:"code"`
	FullName string `json:"full_name"`
}

type usersPage struct {
	Items  []dto.ProfileResponse `json:"items"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

func NewUserHandler(users usecase.UserUsecase, invites usecase.InviteUsecase) *UserHandler {
	return &UserHandler{users: users, invites: invites}
}

func (h *UserHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/me", h.GetMe)
	r.Put("/me", h.UpdateMe)
	r.Post("/invites/verify", h.VerifyInvite)

	r.Get("/admin/users", middleware.RequireRole(user.RoleSuperAdmin), h.ListUsers)
	r.Post("/admin/invites", middleware.RequireRole(user.RoleAdmin), h.CreateInvite)
}

// GetMe answers with the stored profile, or the learner default the auth
// middleware built when none exists yet.
func (h *UserHandler) GetMe(c fiber.Ctx) error {
	p, ok := middleware.Profile(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewProfileResponse(p))
}

// UpdateMe only touches the display name; roles change through invites.
func (h *UserHandler) UpdateMe(c fiber.Ctx) error {
	p, ok := middleware.Profile(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	var req updateProfileRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	if req.FullName != nil {
		p.FullName = strings.TrimSpace(*req.FullName)
	}

	saved, err := h.users.SaveProfile(c.Context(), p)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewProfileResponse(saved))
}

func (h *UserHandler) ListUsers(c fiber.Ctx) error {
	limit, offset, err := pageParams(c)
	if err != nil {
		return err
	}
	page, err := h.users.ListProfiles(c.Context(), limit, offset)
	if err != nil {
		return mapUsecaseError(err)
	}

	out := usersPage{Items: make([]dto.ProfileResponse, 0, len(page.Items)), Total: page.Total, Limit: page.Limit, Offset: page.Offset}
	for _, p := range page.Items {
		out.Items = append(out.Items, dto.NewProfileResponse(p))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}

func (h *UserHandler) CreateInvite(c fiber.Ctx) error {
	actor, ok := middleware.Profile(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	var req createInviteRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}

	created, err := h.invites.Create(c.Context(), actor, usecase.CreateInviteInput{
		Email: req.Email,
		Role:  user.Role(strings.ToLower(strings.TrimSpace(req.Role))),
	})
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusCreated, response.MessageCreated, dto.NewInviteResponse(created.Invite, created.Code))
}

// VerifyInvite redeems a code for the calling user and grants the invited role.
func (h *UserHandler) VerifyInvite(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	var req verifyInviteRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}

	inv, err := h.invites.Verify(c.Context(), usecase.VerifyInviteInput{
		Code:     req.Code,
		UserID:   uuid.NullUUID{UUID: userID, Valid: true},
		FullName: req.FullName,
	})
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewInviteResponse(inv, ""))
}

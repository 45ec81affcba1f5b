package handler

import (
	"errors"

	"learnfinity/internal/delivery/http/middleware"
	"learnfinity/internal/domain/user"
	"learnfinity/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// employeeGuard lets HR and above act on any employee and everyone else on
// the employee record linked to their own login.
type employeeGuard struct {
	employees usecase.EmployeeUsecase
}

func (g employeeGuard) check(c fiber.Ctx, employeeID uuid.UUID) error {
	p, ok := middleware.Profile(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	if p.Role.AtLeast(user.RoleHR) {
		return nil
	}
	own, err := g.employees.ForUser(c.Context(), p.UserID)
	if err != nil {
		if errors.Is(err, usecase.ErrEmployeeNotFound) {
			return middleware.NewAppError(fiber.StatusForbidden, "Forbidden", nil, err)
		}
		return mapUsecaseError(err)
	}
	if own.ID != employeeID {
		return middleware.NewAppError(fiber.StatusForbidden, "Forbidden", nil, nil)
	}
	return nil
}

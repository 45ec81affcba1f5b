package handler

import (
	"errors"

	"learnfinity/internal/delivery/http/middleware"
	"learnfinity/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

// mapUsecaseError turns domain errors into HTTP errors. Anything it does not
// recognise is passed through for the error middleware to classify.
func mapUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	var llmErr *usecase.LLMResponseError
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	case errors.Is(err, usecase.ErrUnauthorized):
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, err)
	case errors.Is(err, usecase.ErrForbidden):
		return middleware.NewAppError(fiber.StatusForbidden, "Forbidden", nil, err)

	case errors.Is(err, usecase.ErrEmployeeNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Employee not found", nil, err)
	case errors.Is(err, usecase.ErrPositionNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Position not found", nil, err)
	case errors.Is(err, usecase.ErrCourseNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Course not found", nil, err)
	case errors.Is(err, usecase.ErrSkillNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Skill not found", nil, err)
	case errors.Is(err, usecase.ErrSkillRecordNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Skill record not found", nil, err)
	case errors.Is(err, usecase.ErrContentNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Content not found", nil, err)
	case errors.Is(err, usecase.ErrJobNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Job not found", nil, err)
	case errors.Is(err, usecase.ErrUserNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "User not found", nil, err)
	case errors.Is(err, usecase.ErrNoPosition):
		return middleware.NewAppError(fiber.StatusUnprocessableEntity, "Employee has no position", nil, err)

	case errors.Is(err, usecase.ErrPositionExists):
		return middleware.NewAppError(fiber.StatusConflict, "Position already exists", nil, err)
	case errors.Is(err, usecase.ErrEmployeeExists):
		return middleware.NewAppError(fiber.StatusConflict, "Employee already exists", nil, err)
	case errors.Is(err, usecase.ErrEmailTaken):
		return middleware.NewAppError(fiber.StatusConflict, "Email already in use", nil, err)
	case errors.Is(err, usecase.ErrGenerationInProgress):
		return middleware.NewAppError(fiber.StatusConflict, "Generation already in progress", nil, err)

	case errors.Is(err, usecase.ErrProfileMissing):
		return middleware.NewAppError(fiber.StatusUnprocessableEntity, "No CV processed yet", nil, err)
	case errors.As(err, &llmErr):
		return middleware.NewAppError(fiber.StatusBadGateway, "Invalid LLM response", nil, err)
	case errors.Is(err, usecase.ErrLLMDisabled):
		return middleware.NewAppError(fiber.StatusServiceUnavailable, "LLM features are disabled", nil, err)
	case errors.Is(err, usecase.ErrBatchDisabled):
		return middleware.NewAppError(fiber.StatusServiceUnavailable, "Batch processing is disabled", nil, err)

	case errors.Is(err, usecase.ErrInviteInvalid):
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid invite code", nil, err)
	case errors.Is(err, usecase.ErrInviteExpired):
		return middleware.NewAppError(fiber.StatusGone, "Invite expired", nil, err)
	case errors.Is(err, usecase.ErrInviteUsed):
		return middleware.NewAppError(fiber.StatusConflict, "Invite already used", nil, err)
	default:
		return err
	}
}

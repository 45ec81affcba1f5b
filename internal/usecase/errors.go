package usecase

import (
	"errors"

	"learnfinity/internal/llm"
	"learnfinity/internal/pkg/apperr"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")

	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrPositionNotFound    = errors.New("position not found")
	ErrPositionExists      = errors.New("position already exists")
	ErrNoPosition          = errors.New("employee has no position")
	ErrCourseNotFound      = errors.New("course not found")
	ErrSkillNotFound       = errors.New("skill not found")
	ErrSkillRecordNotFound = errors.New("skill record not found")
	ErrContentNotFound     = errors.New("generated content not found")
	ErrJobNotFound         = errors.New("personalization job not found")
	ErrEmployeeExists      = errors.New("employee already exists")
	ErrUserNotFound        = errors.New("user profile not found")
	ErrEmailTaken          = errors.New("email already in use")

	ErrProfileMissing       = errors.New("no CV processed yet")
	ErrInvalidLLMResponse   = errors.New("invalid LLM response")
	ErrGenerationInProgress = errors.New("generation already in progress")
	ErrLLMDisabled          = llm.ErrLLMDisabled
	ErrBatchDisabled        = errors.New("batch processing disabled")

	ErrInviteInvalid = errors.New("invite code invalid")
	ErrInviteExpired = errors.New("invite expired")
	ErrInviteUsed    = errors.New("invite already used")
)

// LLMResponseError carries the raw model output that could not be used.
type LLMResponseError struct {
	Raw string
	Err error
}

func (e *LLMResponseError) Error() string {
	if e.Err == nil {
		return ErrInvalidLLMResponse.Error()
	}
	return ErrInvalidLLMResponse.Error() + ": " + e.Err.Error()
}

func (e *LLMResponseError) Unwrap() error { return e.Err }

func (e *LLMResponseError) Is(target error) bool { return target == ErrInvalidLLMResponse }

// internal tags infrastructure failures so the delivery layer can pick a
// message and status for them.
func internal(op string, err error) error {
	return apperr.Wrap(op, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func clampPage(limit, offset int) (int, int, error) {
	if limit == 0 {
		limit = 20
	}
	if limit < 0 || offset < 0 {
		return 0, 0, ErrInvalidInput
	}
	if limit > 100 {
		limit = 100
	}
	return limit, offset, nil
}

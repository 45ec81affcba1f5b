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

type CourseHandler struct {
	courses  usecase.CourseUsecase
	personal usecase.PersonalizationUsecase
	guard    employeeGuard
}

type createCourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Level       string `json:"level"`
}

type enrollRequest struct {
	EmployeeID uuid.UUID `json:"employee_id"`
}

func NewCourseHandler(courses usecase.CourseUsecase, personal usecase.PersonalizationUsecase, employees usecase.EmployeeUsecase) *CourseHandler {
	return &CourseHandler{courses: courses, personal: personal, guard: employeeGuard{employees: employees}}
}

func (h *CourseHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/courses")
	grp.Get("/", h.List)
	grp.Get("/:id", h.Get)
	grp.Post("/", middleware.RequireRole(user.RoleHR), h.Create)
	grp.Post("/:id/enrollments", h.Enroll)
	grp.Post("/:id/regenerate", middleware.RequireRole(user.RoleAdmin), h.Regenerate)
	grp.Get("/:id/content", middleware.RequireRole(user.RoleHR), h.Contents)
	grp.Get("/:id/content/:employee_id", h.Content)
}

func (h *CourseHandler) List(c fiber.Ctx) error {
	limit, offset, err := pageParams(c)
	if err != nil {
		return err
	}
	items, err := h.courses.List(c.Context(), limit, offset)
	if err != nil {
		return mapUsecaseError(err)
	}
	out := make([]dto.CourseResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.NewCourseResponse(it))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, response.Page{Items: out, Limit: limit, Offset: offset})
}

func (h *CourseHandler) Get(c fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	item, err := h.courses.Get(c.Context(), id)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewCourseResponse(item))
}

func (h *CourseHandler) Create(c fiber.Ctx) error {
	var req createCourseRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	item, err := h.courses.Create(c.Context(), usecase.CreateCourseInput{
		Title:       req.Title,
		Description: req.Description,
		Level:       req.Level,
	})
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusCreated, response.MessageCreated, dto.NewCourseResponse(item))
}

// Enroll lets HR enroll anyone and a learner enroll themselves.
func (h *CourseHandler) Enroll(c fiber.Ctx) error {
	courseID, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	var req enrollRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	if req.EmployeeID == uuid.Nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "employee_id is required", nil, nil)
	}
	if err := h.guard.check(c, req.EmployeeID); err != nil {
		return err
	}

	res, err := h.courses.Enroll(c.Context(), courseID, req.EmployeeID)
	if err != nil {
		return mapUsecaseError(err)
	}

	out := dto.EnrollmentResponse{
		CourseID:   res.Enrollment.CourseID,
		EmployeeID: res.Enrollment.EmployeeID,
		RAGStatus:  res.Enrollment.RAGStatus,
		EnrolledAt: res.Enrollment.EnrolledAt,
	}
	if res.Job != nil {
		job := dto.NewJobResponse(*res.Job)
		out.Job = &job
	}
	return response.Success(c, fiber.StatusCreated, response.MessageCreated, out)
}

func (h *CourseHandler) Regenerate(c fiber.Ctx) error {
	courseID, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	summary, err := h.courses.Regenerate(c.Context(), courseID)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusAccepted, response.MessageAccepted, summary)
}

func (h *CourseHandler) Contents(c fiber.Ctx) error {
	courseID, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	items, err := h.courses.Contents(c.Context(), courseID)
	if err != nil {
		return mapUsecaseError(err)
	}
	out := make([]dto.ContentResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.NewContentResponse(it))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}

func (h *CourseHandler) Content(c fiber.Ctx) error {
	courseID, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	employeeID, err := paramUUID(c, "employee_id")
	if err != nil {
		return err
	}
	if err := h.guard.check(c, employeeID); err != nil {
		return err
	}
	item, err := h.personal.Content(c.Context(), courseID, employeeID)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewContentResponse(item))
}

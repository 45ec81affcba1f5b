package handler

import (
	"learnfinity/internal/llm"
	"learnfinity/internal/pkg/response"
	"learnfinity/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

// AIHandler proxies learner chat to the configured model.
type AIHandler struct {
	uc usecase.ChatUsecase
}

type chatRequest struct {
	Messages []llm.Message `json:"messages"`
}

func NewAIHandler(uc usecase.ChatUsecase) *AIHandler {
	return &AIHandler{uc: uc}
}

func (h *AIHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/ai/chat", h.Chat)
}

func (h *AIHandler) Chat(c fiber.Ctx) error {
	var req chatRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	reply, err := h.uc.Chat(c.Context(), req.Messages)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, reply)
}

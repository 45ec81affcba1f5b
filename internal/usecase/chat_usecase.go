package usecase

import (
	"context"
	"errors"
	"strings"

	"learnfinity/internal/config"
	"learnfinity/internal/llm"
	"learnfinity/internal/pkg/logger"
)

const maxChatMessages = 50

type ChatReply struct {
	Reply            string `json:"reply"`
	Model            string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

type ChatUsecase interface {
	Chat(ctx context.Context, messages []llm.Message) (ChatReply, error)
}

type Chat struct {
	llm     llm.Completer
	enabled bool
	log     *logger.Logger
}

func NewChatUsecase(completer llm.Completer, flags config.FeatureFlags, log *logger.Logger) *Chat {
	if log == nil {
		log = logger.Nop()
	}
	return &Chat{llm: completer, enabled: flags.EnableLLM, log: log}
}

// Chat forwards a conversation to the shared LLM client. Only user and
// assistant turns are accepted from callers.
func (u *Chat) Chat(ctx context.Context, messages []llm.Message) (ChatReply, error) {
	if !u.enabled {
		return ChatReply{}, ErrLLMDisabled
	}
	if len(messages) == 0 || len(messages) > maxChatMessages {
		return ChatReply{}, ErrInvalidInput
	}

	msgs := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if role != llm.RoleUser && role != llm.RoleAssistant {
			return ChatReply{}, ErrInvalidInput
		}
		if strings.TrimSpace(m.Content) == "" {
			return ChatReply{}, ErrInvalidInput
		}
		msgs = append(msgs, llm.Message{Role: role, Content: m.Content})
	}
	if msgs[len(msgs)-1].Role != llm.RoleUser {
		return ChatReply{}, ErrInvalidInput
	}

	out, err := u.llm.Complete(ctx, llm.Request{Messages: msgs})
	if err != nil {
		if errors.Is(err, llm.ErrLLMDisabled) {
			return ChatReply{}, ErrLLMDisabled
		}
		u.log.Warn("chat completion failed", "error", err)
		return ChatReply{}, err
	}
	return ChatReply{
		Reply:            out.Text,
		Model:            out.Model,
		PromptTokens:     out.PromptTokens,
		CompletionTokens: out.CompletionTokens,
	}, nil
}

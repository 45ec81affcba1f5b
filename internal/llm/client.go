// Package llm talks to an OpenAI-compatible chat completion endpoint. All
// calls share one concurrency cap and one request rate.
package llm

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"learnfinity/internal/config"
	"learnfinity/internal/metrics"
	"learnfinity/internal/pkg/apperr"
	"learnfinity/internal/pkg/logger"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

var (
	ErrLLMDisabled   = errors.New("llm disabled")
	ErrEmptyResponse = errors.New("llm returned no choices")
)

const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

const modelListRetry = time.Minute

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	Messages []Message
	// Zero falls back to the configured limit.
	MaxTokens int
	// Nil falls back to the configured temperature.
	Temperature *float32
}

// Temperature returns a pointer for Request.Temperature.
func Temperature(t float32) *float32 { return &t }

type Completion struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Latency          time.Duration
}

// Completer is the surface the rest of the code depends on.
type Completer interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

type Client struct {
	api     *openai.Client
	cfg     config.LLMConfig
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	log     *logger.Logger

	modelMu  sync.Mutex
	resolved string
	// listing is not retried before retryAt after a failure
	retryAt time.Time
	now     func() time.Time

	backoff func(attempt int) time.Duration
}

// New returns a client. When enabled is false every call fails with
// ErrLLMDisabled and no network traffic happens.
func New(cfg config.LLMConfig, enabled bool, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	c := &Client{cfg: cfg, log: log, backoff: defaultBackoff, now: time.Now}
	if !enabled {
		return c
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	c.api = openai.NewClientWithConfig(oc)

	maxConc := cfg.MaxConcurrentRequests
	if maxConc <= 0 {
		maxConc = 1
	}
	c.sem = semaphore.NewWeighted(int64(maxConc))

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		if int(cfg.RequestsPerSecond) > burst {
			burst = int(cfg.RequestsPerSecond)
		}
	}
	c.limiter = rate.NewLimiter(limit, burst)
	return c
}

func (c *Client) Enabled() bool {
	return c != nil && c.api != nil
}

// Complete sends one chat completion, retrying transient failures.
func (c *Client) Complete(ctx context.Context, req Request) (Completion, error) {
	if !c.Enabled() {
		return Completion{}, ErrLLMDisabled
	}
	if len(req.Messages) == 0 {
		return Completion{}, apperr.Validation("llm.complete", errors.New("no messages"))
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return Completion{}, classify(err)
	}
	defer c.sem.Release(1)
	metrics.LLMInFlight.Inc()
	defer metrics.LLMInFlight.Dec()

	model := c.model(ctx)

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff(attempt)
			c.log.Warn("llm request retry", "attempt", attempt, "wait", wait.String(), "error", lastErr)
			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return Completion{}, classify(ctx.Err())
			case <-t.C:
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return Completion{}, classify(err)
		}

		out, err := c.once(ctx, model, req)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil || !retryable(err) {
			break
		}
	}
	return Completion{}, classify(lastErr)
}

func (c *Client) once(ctx context.Context, model string, req Request) (Completion, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}
	temp := c.cfg.Temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	callCtx := ctx
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: wireTemperature(temp),
	})
	latency := time.Since(start)
	metrics.LLMDuration.WithLabelValues(model).Observe(latency.Seconds())
	if err != nil {
		metrics.LLMRequests.WithLabelValues(model, "error").Inc()
		return Completion{}, err
	}
	if len(resp.Choices) == 0 {
		metrics.LLMRequests.WithLabelValues(model, "empty").Inc()
		return Completion{}, ErrEmptyResponse
	}
	metrics.LLMRequests.WithLabelValues(model, "ok").Inc()
	metrics.LLMTokens.WithLabelValues("prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.LLMTokens.WithLabelValues("completion").Add(float64(resp.Usage.CompletionTokens))

	used := resp.Model
	if used == "" {
		used = model
	}
	c.log.Debug("llm completion", "model", used, "latency_ms", latency.Milliseconds(), "prompt_tokens", resp.Usage.PromptTokens, "completion_tokens", resp.Usage.CompletionTokens)

	return Completion{
		Text:             resp.Choices[0].Message.Content,
		Model:            used,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		Latency:          latency,
	}, nil
}

// Models lists the model ids the provider serves.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	if !c.Enabled() {
		return nil, ErrLLMDisabled
	}
	list, err := c.api.ListModels(ctx)
	if err != nil {
		return nil, classify(err)
	}
	out := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		out = append(out, m.ID)
	}
	return out, nil
}

// model picks the configured model when the provider serves it, then the
// fallbacks in order, then whatever the provider lists first. The choice is
// made once. If the listing fails the configured model is used as is and
// the listing is not attempted again until modelListRetry has passed.
func (c *Client) model(ctx context.Context) string {
	c.modelMu.Lock()
	defer c.modelMu.Unlock()
	if c.resolved != "" {
		return c.resolved
	}
	if !c.retryAt.IsZero() && c.now().Before(c.retryAt) {
		return c.cfg.Model
	}

	available, err := c.Models(ctx)
	if err != nil || len(available) == 0 {
		if err != nil {
			c.log.Warn("llm model listing failed, using configured model", "model", c.cfg.Model, "error", err)
		}
		c.retryAt = c.now().Add(modelListRetry)
		return c.cfg.Model
	}
	c.retryAt = time.Time{}

	c.resolved = pickModel(c.cfg.Model, c.cfg.FallbackModels, available)
	if c.resolved != c.cfg.Model {
		c.log.Warn("configured llm model unavailable", "configured", c.cfg.Model, "using", c.resolved)
	}
	return c.resolved
}

// wireTemperature keeps an explicit zero on the wire. The request field is
// omitempty, so zero is sent as the smallest positive float instead.
func wireTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

func pickModel(preferred string, fallbacks, available []string) string {
	served := make(map[string]bool, len(available))
	for _, id := range available {
		served[id] = true
	}
	if preferred != "" && served[preferred] {
		return preferred
	}
	for _, f := range fallbacks {
		if served[f] {
			return f
		}
	}
	if len(available) > 0 {
		return available[0]
	}
	return preferred
}

func defaultBackoff(attempt int) time.Duration {
	d := 500 * time.Millisecond << (attempt - 1)
	if d > 8*time.Second {
		d = 8 * time.Second
	}
	return d
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func retryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if code := statusCode(err); code != 0 {
		return code == http.StatusTooManyRequests || code >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrEmptyResponse) {
		return apperr.New(apperr.KindNetwork, apperr.CodeRequestFailed, "llm.complete", err)
	}
	if code := statusCode(err); code != 0 {
		if code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout {
			return apperr.New(apperr.KindNetwork, apperr.CodeTimeout, "llm.complete", err)
		}
		return apperr.New(apperr.KindNetwork, apperr.CodeRequestFailed, "llm.complete", err).With("status", code)
	}
	if c := apperr.Classify(err); c != nil {
		c.Op = "llm.complete"
		return c
	}
	return apperr.New(apperr.KindNetwork, apperr.CodeRequestFailed, "llm.complete", err)
}

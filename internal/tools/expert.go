package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stackoverflowed/nifimcp/internal/apperr"
	"github.com/stackoverflowed/nifimcp/internal/config"
	"github.com/stackoverflowed/nifimcp/internal/ratelimit"
	"github.com/stackoverflowed/nifimcp/internal/reqctx"
	"github.com/stackoverflowed/nifimcp/internal/toolregistry"
)

const maxQuestionLength = 2000

// expertHelpEndpoints maps a configured provider name to its OpenAI-style
// chat completions base URL, mirroring helpers.py's per-provider branching
// in get_expert_help (Perplexity and OpenAI are the two it wires up).
var expertHelpEndpoints = map[string]string{
	"perplexity": "https://api.perplexity.ai/chat/completions",
	"openai":     "https://api.openai.com/v1/chat/completions",
}

// expertHelper wires expert_help to a rate limiter and the configured
// provider. Kept as a struct (rather than free functions closed over
// package state) because RegisterExpertTools needs a *config.ExpertHelp and
// a *ratelimit.Limiter supplied by cmd/nifimcpd at startup.
type expertHelper struct {
	cfg     config.ExpertHelp
	limiter *ratelimit.Limiter
}

// getExpertHelp mirrors helpers.py's get_expert_help: availability check,
// then rate limit check, then a single-turn completion call. On any
// "soft" failure (unavailable, rate-limited) this returns a success-shaped
// explanatory string rather than an error, matching the Python tool's
// "return an error message" behavior — the caller is expected to relay it
// to the user and move on, never retry.
func (h *expertHelper) getExpertHelp(ctx context.Context, args map[string]any) (any, error) {
	question, err := requireString(args, "question")
	if err != nil {
		return nil, err
	}
	if len(question) > maxQuestionLength {
		return nil, apperr.BadRequest("question is too long; please summarize to under %d characters", maxQuestionLength)
	}

	if h.cfg.Provider == "" || h.cfg.Model == "" {
		return "Expert help unavailable: expert_help.provider and expert_help.model are not configured.", nil
	}
	if h.cfg.APIKey == "" {
		return fmt.Sprintf("Expert help is configured (%s:%s) but no API key is available.", h.cfg.Provider, h.cfg.Model), nil
	}

	requestID, _ := reqctx.CorrelationIDs(ctx)
	if !h.limiter.Allow(requestID) {
		used := h.limiter.UsageCount(requestID)
		return fmt.Sprintf("Expert help rate limit exceeded (%d/%d calls used). Please explain your current problem or question directly to the user instead of using expert help.", used, ratelimit.Limit), nil
	}
	h.limiter.Record(requestID, time.Now())

	endpoint, ok := expertHelpEndpoints[strings.ToLower(h.cfg.Provider)]
	if !ok {
		return fmt.Sprintf("Expert help unavailable: unsupported provider %q.", h.cfg.Provider), nil
	}

	content, err := h.callCompletion(ctx, endpoint, strings.TrimSpace(question))
	if err != nil {
		return fmt.Sprintf("Expert help unavailable: %v", err), nil
	}
	return content, nil
}

type chatCompletionRequest struct {
	Model       string          `json:"model"`
	Messages    []chatMessage   `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// callCompletion sends a single-turn OpenAI-style chat completion request.
// No SDK in the corpus covers this provider surface, so the call goes
// through net/http directly rather than a fabricated client dependency.
func (h *expertHelper) callCompletion(ctx context.Context, endpoint, question string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	body, err := json.Marshal(chatCompletionRequest{
		Model:       h.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: question}},
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.cfg.APIKey)

	resp, err := (&http.Client{Timeout: 60 * time.Second}).Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var parsed chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("provider returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// RegisterExpertTools adds the rate-limited expert-help tool to reg,
// bound to cfg and limiter.
func RegisterExpertTools(reg *toolregistry.Registry, cfg config.ExpertHelp, limiter *ratelimit.Limiter) {
	h := &expertHelper{cfg: cfg, limiter: limiter}
	reg.Register(toolregistry.Descriptor{
		Name:        "get_expert_help",
		Description: "Gets expert help from a configured LLM for complex NiFi configuration or debugging questions. Rate limited to 2 calls per request session.",
		Schema: map[string]any{
			"type":       "object",
			"required":   []any{"question"},
			"properties": map[string]any{"question": map[string]any{"type": "string"}},
		},
		Phases:  []string{"Debug"},
		Handler: h.getExpertHelp,
	})
}

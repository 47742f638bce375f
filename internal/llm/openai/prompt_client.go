package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"spendreport-backend/internal/llm"
)

// DefaultTimeout bounds a single completion when none is configured.
const DefaultTimeout = 120 * time.Second

// PromptClient implements llm.Completer using OpenAI Chat Completions.
type PromptClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewPromptClient constructs a prompt client for JSON completions.
func NewPromptClient(apiKey, model string, timeout time.Duration) (*PromptClient, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &PromptClient{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Complete returns the raw JSON completion for system and user. A model
// that rejects temperature 0 is retried once without it.
func (c *PromptClient) Complete(ctx context.Context, system, user string) (string, error) {
	if c == nil {
		return "", llm.ErrNotConfigured
	}
	messages := BuildMessages(system, user)
	hash := hashPromptString(promptStringFromMessages(messages))

	withTemp := !omitsTemperature(c.model)
	content, u, err := c.send(ctx, messages, withTemp)
	if errors.Is(err, errTemperatureUnsupported) && withTemp {
		content, u, err = c.send(ctx, messages, false)
	}
	if errors.Is(err, errTemperatureUnsupported) {
		return "", &llm.StatusError{Status: http.StatusBadRequest, Message: "model rejected temperature setting"}
	}
	if err != nil {
		return "", err
	}
	logUsage(c.model, hash, u)
	return content, nil
}

var _ llm.Completer = (*PromptClient)(nil)

package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"spendreport-backend/internal/llm"
	"spendreport-backend/internal/shared/telemetry"
)

var apiURL = "https://api.openai.com/v1/chat/completions"

const maxResponseBytes = 1 << 20

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    *float32       `json:"temperature,omitempty"`
	ResponseFormat responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *usage `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// errTemperatureUnsupported marks a provider rejection of temperature 0.
var errTemperatureUnsupported = errors.New("temperature unsupported")

func (c *PromptClient) send(ctx context.Context, messages []Message, withTemp bool) (string, *usage, error) {
	reqMessages := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		reqMessages = append(reqMessages, chatMessage{Role: m.Role, Content: m.Content})
	}
	reqBody := chatRequest{
		Model:          c.model,
		Messages:       reqMessages,
		ResponseFormat: responseFormat{Type: "json_object"},
	}
	if withTemp {
		temp := float32(0)
		reqBody.Temperature = &temp
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", nil, fmt.Errorf("%w: %v", llm.ErrTimeout, err)
		}
		return "", nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctx.Err() != nil {
			return "", nil, fmt.Errorf("%w: %v", llm.ErrTimeout, err)
		}
		return "", nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return "", nil, &llm.StatusError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		}
		return "", nil, fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		if isTemperatureError(parsed.Error.Message) {
			return "", nil, errTemperatureUnsupported
		}
		status := resp.StatusCode
		if status < 400 {
			status = http.StatusBadGateway
		}
		return "", nil, &llm.StatusError{Status: status, Message: fmt.Sprintf("%s (%s)", parsed.Error.Message, parsed.Error.Type)}
	}
	if resp.StatusCode >= 400 {
		return "", nil, &llm.StatusError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	if len(parsed.Choices) == 0 {
		return "", nil, llm.ErrEmptyCompletion
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", nil, llm.ErrEmptyCompletion
	}
	return content, parsed.Usage, nil
}

func isTemperatureError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "temperature") && strings.Contains(lower, "unsupported")
}

func logUsage(model, promptHash string, u *usage) {
	fields := map[string]any{"model": model, "prompt_hash": promptHash}
	if u != nil {
		fields["prompt_tokens"] = u.PromptTokens
		fields["completion_tokens"] = u.CompletionTokens
		fields["total_tokens"] = u.TotalTokens
	}
	telemetry.Info("llm.response", fields)
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

// omitsTemperature reports whether model rejects an explicit temperature.
// LLM_NO_TEMP0_MODELS adds comma-separated model names to the built-in
// gpt-5 family.
func omitsTemperature(model string) bool {
	if isGPT5(model) {
		return true
	}
	name := strings.ToLower(strings.TrimSpace(model))
	for _, m := range strings.Split(os.Getenv("LLM_NO_TEMP0_MODELS"), ",") {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" && m == name {
			return true
		}
	}
	return false
}

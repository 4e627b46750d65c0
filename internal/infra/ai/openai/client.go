package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	domai "github.com/Timtech4u/ai-file-analyzer/internal/domain/ai"
	"github.com/Timtech4u/ai-file-analyzer/internal/domain/analysis"
	"github.com/Timtech4u/ai-file-analyzer/internal/infra/ai/prompt"
)

const maxTokens = 2048

// maxInputChars truncates canonical text before sending so one huge
// file cannot blow the model's context window.
const maxInputChars = 48000

type Client struct {
	api         *openai.Client
	model       string
	visionModel string
	timeout     time.Duration
}

func NewClient(apiKey, model, visionModel string, timeout time.Duration) *Client {
	return newClient(openai.NewClient(apiKey), model, visionModel, timeout)
}

// NewClientWithBaseURL targets a non-default endpoint. Used by tests
// and by OpenAI-compatible gateways.
func NewClientWithBaseURL(apiKey, baseURL, model, visionModel string, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return newClient(openai.NewClientWithConfig(cfg), model, visionModel, timeout)
}

func newClient(api *openai.Client, model, visionModel string, timeout time.Duration) *Client {
	if model == "" {
		model = openai.GPT4o
	}
	if visionModel == "" {
		visionModel = model
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{api: api, model: model, visionModel: visionModel, timeout: timeout}
}

// Summarize sends canonical text and returns the structured summary.
// The call is bounded by the configured timeout; no retries happen
// here (retry policy is an orchestrator decision).
func (c *Client) Summarize(ctx context.Context, text string, prov analysis.Provenance) (domai.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if len(text) > maxInputChars {
		text = text[:maxInputChars]
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.GetSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt.GetUserPrompt(text, string(prov.Format), prov.Filename)},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(c.model, "o1") || strings.HasPrefix(c.model, "o3") || strings.HasPrefix(c.model, "o4") || strings.HasPrefix(c.model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return domai.Summary{}, c.mapError(err)
	}
	if len(resp.Choices) == 0 {
		return domai.Summary{}, fmt.Errorf("empty completion response")
	}
	return prompt.ParseSummary(resp.Choices[0].Message.Content)
}

// DescribeImage runs a vision completion over the raw image bytes.
func (c *Client) DescribeImage(ctx context.Context, content []byte, mimeType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(content))
	req := openai.ChatCompletionRequest{
		Model:     c.visionModel,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt.GetVisionPrompt()},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", c.mapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("timeout after %s: %w", c.timeout, err)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
		return fmt.Errorf("%w: %v", domai.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("chat completion: %w", err)
}

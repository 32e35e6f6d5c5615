package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mwhited/typoscope/internal/types"
)

// OpenAIClient implements Client for OpenAI vision models.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a new OpenAI vision client.
func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	return &OpenAIClient{
		client: openai.NewClient(cfg.APIKey),
		model:  cfg.Model,
	}, nil
}

// Analyze submits the image as a data URL with high detail and validates the
// model's JSON reply.
func (c *OpenAIClient) Analyze(ctx context.Context, png []byte) (*types.ComplianceReport, error) {
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: userPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, classifyOpenAI(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, &BoundaryError{Kind: KindInvalidResponse, Message: "empty OpenAI response"}
	}

	return ValidateReportJSON([]byte(cleanJSONBlock(resp.Choices[0].Message.Content)))
}

// Probe verifies the provider is reachable with a minimal request.
func (c *OpenAIClient) Probe(ctx context.Context) error {
	_, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: 5,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "ping"},
		},
	})
	if err != nil {
		return classifyOpenAI(err)
	}
	return nil
}

// Close is a no-op; the OpenAI client holds no connections.
func (c *OpenAIClient) Close() error {
	return nil
}

// classifyOpenAI maps OpenAI API errors onto boundary error kinds using the
// HTTP status when available.
func classifyOpenAI(err error) *BoundaryError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 429:
			return &BoundaryError{Kind: KindRateLimited, Message: "OpenAI rate limit reached", Cause: err}
		case 408, 504:
			return &BoundaryError{Kind: KindTimeout, Message: fmt.Sprintf("OpenAI timeout (%d)", apiErr.HTTPStatusCode), Cause: err}
		}
	}
	return classify(err, "OpenAI request failed")
}

package vision

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/mwhited/typoscope/internal/types"
)

// GeminiClient implements Client for Google Gemini.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a new Gemini vision client.
func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: cfg.Model}, nil
}

// Analyze submits the image with the typography prompt and validates the
// model's JSON reply.
func (c *GeminiClient) Analyze(ctx context.Context, png []byte) (*types.ComplianceReport, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0.1) // Low temperature for consistent output
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	resp, err := model.GenerateContent(ctx,
		genai.Text(userPrompt),
		genai.ImageData("png", png),
	)
	if err != nil {
		return nil, classify(err, "Gemini request failed")
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return nil, &BoundaryError{Kind: KindInvalidResponse, Message: "empty Gemini response", Cause: err}
	}

	return ValidateReportJSON([]byte(cleanJSONBlock(text)))
}

// Probe verifies the provider is reachable with a minimal text request.
func (c *GeminiClient) Probe(ctx context.Context) error {
	model := c.client.GenerativeModel(c.model)
	if _, err := model.GenerateContent(ctx, genai.Text("ping")); err != nil {
		return classify(err, "Gemini probe failed")
	}
	return nil
}

// Close releases resources held by the client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse extracts text from a Gemini API response.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AnTengye/contractintel/config"
	"google.golang.org/genai"
)

// StructuredExtractor produces one structured JSON payload per prompt.
// Each call is independent; the orchestrator decides how missing payloads
// degrade the final result.
type StructuredExtractor interface {
	Extract(ctx context.Context, prompt string) ([]byte, error)
}

// GeminiService extracts structured contract data through the Gemini API.
type GeminiService struct {
	client *genai.Client
	model  string
}

func NewGeminiService(ctx context.Context, cfg *config.GeminiConfig) (*GeminiService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiService{
		client: client,
		model:  cfg.Model,
	}, nil
}

// Extract sends the prompt to Gemini and returns the response body as raw
// JSON. Markdown fences around the payload are stripped; a payload that
// does not parse as JSON is an error.
func (s *GeminiService) Extract(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr[float32](0.1),
			MaxOutputTokens:  8192,
			ResponseMIMEType: "application/json",
		})
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	text := stripJSONFences(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("gemini returned an empty response")
	}

	if !json.Valid([]byte(text)) {
		return nil, fmt.Errorf("gemini returned invalid JSON")
	}
	return []byte(text), nil
}

// stripJSONFences removes a wrapping ```json ... ``` fence if present.
func stripJSONFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

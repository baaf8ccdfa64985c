// Package generator asks a hosted language model to turn a free-text
// description into form schema text.
package generator

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/dhanavadh/aiform-backend/internal/errorz"
)

// Prompt follows the description in every request. It names the allowed
// field types and the JSON shape the model should answer with.
const Prompt = ", on the basis of description please give form in json format with form title, form subheading with form having Form field, form name, placeholder name and form label, field type, field required in json format. Give only from checkbox, radiogroup, radiogroupitem, input text, calendar, digits like for mobile number "

type Generator interface {
	Generate(ctx context.Context, description string) (string, error)
}

// Request builds the exact text sent to the model.
func Request(description string) string {
	return "Description: " + description + Prompt
}

type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, description string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(Request(description)),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errorz.ErrGeneration, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: empty response from model", errorz.ErrGeneration)
	}
	return text, nil
}

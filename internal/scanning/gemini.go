package scanning

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini implements the Completer interface using Google Gemini
type Gemini struct {
	client    *genai.Client
	modelName string
}

// NewGemini creates a new Gemini Completer instance
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client:    client,
		modelName: modelName,
	}, nil
}

// Complete sends the prompt at temperature 0 and returns the text reply
func (g *Gemini) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	// GenerativeModel carries mutable config, so each call gets its own
	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(0)
	model.SetMaxOutputTokens(int32(maxTokens))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	return strings.TrimSpace(responseText.String()), nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}

package ai

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-1.5-flash"

// persona is the fixed system instruction for every completion.
const persona = "You are to roleplay as Seraphina a cyborg. Your traits are stoic cold and harsh. However, you are quite intelligent and conversational."

// GeminiCompleter generates chat completions through the Gemini API.
// It implements the service.ChatCompleter interface.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

// NewGeminiCompleter creates a Gemini-backed chat completer
func NewGeminiCompleter(ctx context.Context, apiKey, modelName string) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = defaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiCompleter{client: client, model: modelName}, nil
}

// Complete sends the prompt and returns the first text candidate
func (c *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0.7)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(persona)},
	}

	res, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("model returned an empty response")
	}

	text, ok := res.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("model returned a non-text response")
	}

	return string(text), nil
}

// Close releases the underlying client
func (c *GeminiCompleter) Close() error {
	return c.client.Close()
}

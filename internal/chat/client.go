package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Generator is the part of the genai client this repo calls. *genai.Models
// satisfies it; tests substitute a fake.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ErrNoAPIKey is returned when a client is requested without a key.
var ErrNoAPIKey = errors.New("missing Gemini API key")

// NewGeminiClient creates a Gemini Developer API client for apiKey.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	log.Debug().Msg("Gemini client created")
	return client, nil
}

// Package cli holds the interactive and start-up helpers shared by the
// spotdiff subcommands.
package cli

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/fpang/spot-the-difference/internal/auth"
	"github.com/fpang/spot-the-difference/internal/chat"
)

// NewGenerator resolves the API key and returns the Gemini models client.
func NewGenerator(ctx context.Context) (chat.Generator, error) {
	apiKey, err := auth.GetAPIKey()
	if err != nil {
		return nil, err
	}
	client, err := chat.NewGeminiClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	log.Debug().Msg("Gemini client initialized")
	return client.Models, nil
}

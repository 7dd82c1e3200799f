package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/spot-the-difference/internal/assets"
)

// ErrEmptyResponse is returned when the model answers without any text.
var ErrEmptyResponse = errors.New("received empty response from Gemini API")

// AskText sends a single player message to model and returns the reply text.
func AskText(ctx context.Context, gen Generator, model, message string) (string, error) {
	log.Debug().Str("model", model).Int("message_length", len(message)).Msg("Sending chat message to Gemini")

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: assets.ChatSystemPrompt}},
		},
	}

	callStart := time.Now()
	resp, err := gen.GenerateContent(ctx, model, genai.Text(message), config)
	duration := time.Since(callStart)
	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Msg("Failed to generate chat reply")
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		log.Warn().Dur("duration", duration).Msg("Gemini returned no text for chat message")
		return "", ErrEmptyResponse
	}

	log.Debug().Int("response_length", len(text)).Dur("duration", duration).Msg("Chat reply received")
	return text, nil
}

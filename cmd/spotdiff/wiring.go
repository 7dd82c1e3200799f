package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/fpang/spot-the-difference/internal/auth"
	"github.com/fpang/spot-the-difference/internal/chat"
	"github.com/fpang/spot-the-difference/internal/cli"
	"github.com/fpang/spot-the-difference/internal/config"
	"github.com/fpang/spot-the-difference/internal/metrics"
	"github.com/fpang/spot-the-difference/internal/provider/gemini"
	"github.com/fpang/spot-the-difference/internal/provider/sketch"
	"github.com/fpang/spot-the-difference/internal/server"
	"github.com/fpang/spot-the-difference/internal/session"
)

// backend is the content provider plus the optional chat function.
type backend struct {
	provider session.ContentProvider
	chat     server.ChatFunc
	gen      chat.Generator
}

// buildBackend wires the configured provider. The chat proxy is available
// whenever a Gemini key is, even with the sketch provider.
func buildBackend(ctx context.Context, cfg config.Config, em *metrics.Emitter, validate bool) (backend, error) {
	var b backend

	gen, err := cli.NewGenerator(ctx)
	switch {
	case err == nil:
		b.gen = gen
		model := cfg.Gemini.ChatModel
		b.chat = func(ctx context.Context, message string) (string, error) {
			return chat.AskText(ctx, gen, model, message)
		}
	case cfg.Provider.Name == config.ProviderGemini:
		return b, fmt.Errorf("gemini provider needs an API key: %w", err)
	default:
		log.Warn().Err(err).Msg("No Gemini API key, chat proxy disabled")
	}

	switch cfg.Provider.Name {
	case config.ProviderSketch:
		b.provider = sketch.New(cfg.Provider.SketchDelay.Duration)
	default:
		if validate {
			if err := auth.ValidateAPIKey(ctx, gen, em); err != nil {
				return b, cli.ExplainValidationError(err)
			}
		}
		b.provider = gemini.New(gen, gemini.Config{
			TextModel:  cfg.Gemini.TextModel,
			ImageModel: cfg.Gemini.ImageModel,
		})
	}
	return b, nil
}

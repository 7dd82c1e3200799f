// Package gemini generates puzzle content with the Gemini API: a text model
// lays out the level and an image model draws the base picture and its
// modified copy.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/spot-the-difference/internal/assets"
	"github.com/fpang/spot-the-difference/internal/chat"
	"github.com/fpang/spot-the-difference/internal/game"
	"github.com/fpang/spot-the-difference/internal/jsonutil"
	"github.com/fpang/spot-the-difference/internal/provider"
)

// Config selects the models used by a Provider. Empty fields fall back to
// chat.TextModel and chat.ImageModel.
type Config struct {
	TextModel  string
	ImageModel string
}

// Provider implements the session content provider on top of Gemini.
type Provider struct {
	gen        chat.Generator
	textModel  string
	imageModel string
}

// New returns a Provider that sends requests through gen.
func New(gen chat.Generator, cfg Config) *Provider {
	if cfg.TextModel == "" {
		cfg.TextModel = chat.TextModel()
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = chat.ImageModel()
	}
	return &Provider{gen: gen, textModel: cfg.TextModel, imageModel: cfg.ImageModel}
}

// levelPayload mirrors levelSchema.
type levelPayload struct {
	Theme              string `json:"theme"`
	BasePrompt         string `json:"basePrompt"`
	ModificationPrompt string `json:"modificationPrompt"`
	Differences        []struct {
		ID          string  `json:"id"`
		Description string  `json:"description"`
		X           float64 `json:"x"`
		Y           float64 `json:"y"`
	} `json:"differences"`
}

// GenerateLevelMetadata asks the text model for prompts and difference
// coordinates matching the difficulty.
func (p *Provider) GenerateLevelMetadata(ctx context.Context, theme string, d game.Difficulty) (*game.Level, error) {
	cfg := game.ConfigFor(d)
	prompt := assets.RenderLevelMetadataPrompt(assets.LevelPromptData{
		Theme:    theme,
		Label:    cfg.Label,
		Count:    cfg.Count,
		Guidance: cfg.Guidance,
	})

	log.Debug().
		Str("model", p.textModel).
		Str("theme", theme).
		Str("difficulty", d.String()).
		Int("prompt_length", len(prompt)).
		Msg("Requesting level metadata from Gemini")

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   levelSchema,
	}
	callStart := time.Now()
	resp, err := p.gen.GenerateContent(ctx, p.textModel, genai.Text(prompt), config)
	if err != nil {
		return nil, provider.Classify(fmt.Errorf("level metadata: %w", err))
	}
	if resp == nil {
		return nil, provider.Malformed("level metadata: empty response", nil)
	}

	responseText := resp.Text()
	log.Debug().
		Int("response_length", len(responseText)).
		Dur("duration", time.Since(callStart)).
		Msg("Level metadata response received")

	payload, err := jsonutil.ParseJSON[levelPayload](responseText)
	if err != nil {
		return nil, provider.Malformed("level metadata is not valid JSON", err)
	}

	level := &game.Level{
		Theme:              strings.TrimSpace(payload.Theme),
		BasePrompt:         strings.TrimSpace(payload.BasePrompt),
		ModificationPrompt: strings.TrimSpace(payload.ModificationPrompt),
		Differences:        make([]game.Difference, 0, len(payload.Differences)),
	}
	if level.Theme == "" {
		level.Theme = theme
	}
	for _, diff := range payload.Differences {
		level.Differences = append(level.Differences, game.Difference{
			ID:          strings.TrimSpace(diff.ID),
			Description: strings.TrimSpace(diff.Description),
			X:           diff.X,
			Y:           diff.Y,
		})
	}
	if err := game.ValidateLevel(level, d); err != nil {
		return nil, provider.Malformed("level metadata rejected", err)
	}
	return level, nil
}

// GenerateBaseImage draws the unmodified puzzle picture.
func (p *Provider) GenerateBaseImage(ctx context.Context, prompt string) (*game.Image, error) {
	log.Debug().Str("model", p.imageModel).Int("prompt_length", len(prompt)).Msg("Requesting base image from Gemini")

	resp, err := p.gen.GenerateContent(ctx, p.imageModel, genai.Text(assets.RenderBaseImagePrompt(prompt)), imageConfig())
	if err != nil {
		return nil, provider.Classify(fmt.Errorf("base image: %w", err))
	}
	return extractImage(resp, "base image")
}

// GenerateModifiedImage edits base according to instructions.
func (p *Provider) GenerateModifiedImage(ctx context.Context, base *game.Image, instructions string) (*game.Image, error) {
	if base == nil || len(base.Data) == 0 {
		return nil, provider.Malformed("modified image: no base image", nil)
	}
	mimeType := base.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}

	log.Debug().
		Str("model", p.imageModel).
		Int("base_bytes", len(base.Data)).
		Int("instructions_length", len(instructions)).
		Msg("Requesting modified image from Gemini")

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: base.Data}},
			{Text: assets.RenderModifyImagePrompt(instructions)},
		},
	}}
	resp, err := p.gen.GenerateContent(ctx, p.imageModel, contents, imageConfig())
	if err != nil {
		return nil, provider.Classify(fmt.Errorf("modified image: %w", err))
	}
	return extractImage(resp, "modified image")
}

func imageConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig:        &genai.ImageConfig{AspectRatio: "1:1"},
	}
}

// extractImage returns the first inline image of resp.
func extractImage(resp *genai.GenerateContentResponse, step string) (*game.Image, error) {
	if resp == nil {
		return nil, &provider.Error{Kind: provider.KindNoImage, Message: step + ": empty response"}
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return nil, &provider.Error{
			Kind:    provider.KindNoImage,
			Message: fmt.Sprintf("%s: prompt blocked (%s)", step, fb.BlockReason),
		}
	}

	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			img, err := decodeImage(part.InlineData.Data, part.InlineData.MIMEType)
			if err != nil {
				return nil, provider.Malformed(step+": undecodable image", err)
			}
			log.Debug().
				Str("step", step).
				Str("mime_type", img.MIMEType).
				Int("width", img.Width).
				Int("height", img.Height).
				Int("bytes", len(img.Data)).
				Msg("Image received from Gemini")
			return img, nil
		}
	}

	// The model sometimes explains a refusal in text instead of drawing.
	msg := step + ": response contained no image"
	if text := strings.TrimSpace(resp.Text()); text != "" {
		log.Warn().Str("step", step).Str("text", truncate(text, 200)).Msg("Gemini answered with text instead of an image")
	}
	return nil, &provider.Error{Kind: provider.KindNoImage, Message: msg}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

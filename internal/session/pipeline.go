package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fpang/spot-the-difference/internal/game"
	"github.com/fpang/spot-the-difference/internal/provider"
)

// Pipeline step names, used in logs and metrics.
const (
	stepMetadata      = "metadata"
	stepBaseImage     = "base_image"
	stepModifiedImage = "modified_image"
)

// runPipeline generates metadata, the base image and the modified image in
// order. It stops at the first failure or as soon as the epoch moves on.
func (c *Controller) runPipeline(ctx context.Context, epoch uint64, s game.Session) {
	defer c.wg.Done()

	logger := log.With().Str("attemptId", s.AttemptID).Str("theme", s.Theme).Logger()
	pipelineStart := time.Now()

	level, err := runStep(ctx, c, &logger, stepMetadata, func(ctx context.Context) (*game.Level, error) {
		level, err := c.provider.GenerateLevelMetadata(ctx, s.Theme, s.Difficulty)
		if err != nil {
			return nil, err
		}
		if err := game.ValidateLevel(level, s.Difficulty); err != nil {
			return nil, provider.Malformed("generated level rejected", err)
		}
		return level, nil
	})
	if !c.deliver(&logger, epoch, err, game.MetadataReady{Level: level}) {
		return
	}

	base, err := runStep(ctx, c, &logger, stepBaseImage, func(ctx context.Context) (*game.Image, error) {
		return c.provider.GenerateBaseImage(ctx, level.BasePrompt)
	})
	if !c.deliver(&logger, epoch, err, game.BaseImageReady{Image: base}) {
		return
	}

	modified, err := runStep(ctx, c, &logger, stepModifiedImage, func(ctx context.Context) (*game.Image, error) {
		return c.provider.GenerateModifiedImage(ctx, base, level.ModificationPrompt)
	})
	if !c.deliver(&logger, epoch, err, game.ModifiedImageReady{Image: modified}) {
		return
	}

	logger.Info().Dur("duration", time.Since(pipelineStart)).Msg("Puzzle ready")
}

// runStep calls fn under the step timeout and records its latency and outcome.
func runStep[T any](ctx context.Context, c *Controller, logger *zerolog.Logger, step string, fn func(context.Context) (T, error)) (T, error) {
	stepCtx, cancel := context.WithTimeout(ctx, c.opts.StepTimeout)
	defer cancel()

	start := time.Now()
	logger.Debug().Str("step", step).Msg("Generation step started")
	result, err := fn(stepCtx)
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = provider.Classify(err).Kind.String()
	}
	rec := c.opts.Metrics.Record().
		Dimension("Step", step).
		Duration("StepLatency", elapsed).
		Count("StepCount").
		Property("outcome", outcome)
	if err != nil {
		rec.Count("StepFailures")
	}
	rec.Flush()

	if err != nil {
		logger.Warn().Err(err).Str("step", step).Str("kind", outcome).Dur("duration", elapsed).Msg("Generation step failed")
		return result, err
	}
	logger.Info().Str("step", step).Dur("duration", elapsed).Msg("Generation step complete")
	return result, nil
}

// deliver applies a step result if the attempt is still current. It reports
// whether the pipeline should continue.
func (c *Controller) deliver(logger *zerolog.Logger, epoch uint64, stepErr error, ev game.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		logger.Debug().Str("event", game.EventName(ev)).Msg("Discarding result of superseded attempt")
		return false
	}
	if stepErr != nil {
		ev = game.GenerationFailed{Message: provider.UserMessage(stepErr)}
	}
	next, err := c.applyLocked(ev)
	if err != nil {
		logger.Error().Err(err).Str("event", game.EventName(ev)).Msg("Pipeline event rejected")
		return false
	}
	return next.Status.Generating()
}

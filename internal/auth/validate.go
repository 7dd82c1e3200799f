package auth

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/spot-the-difference/internal/chat"
	"github.com/fpang/spot-the-difference/internal/metrics"
	"github.com/fpang/spot-the-difference/internal/provider"
)

// ValidationError represents a specific type of API key validation failure.
type ValidationError struct {
	Type    ValidationErrorType
	Message string
	Err     error
}

// ValidationErrorType categorizes validation failures.
type ValidationErrorType int

const (
	// ErrTypeNoKey indicates no API key was found.
	ErrTypeNoKey ValidationErrorType = iota
	// ErrTypeInvalidKey indicates the API key is invalid or revoked.
	ErrTypeInvalidKey
	// ErrTypeNetworkError indicates a network connectivity issue.
	ErrTypeNetworkError
	// ErrTypeQuotaExceeded indicates the API quota has been exceeded.
	ErrTypeQuotaExceeded
	// ErrTypeUnknown indicates an unknown error occurred.
	ErrTypeUnknown
)

func (t ValidationErrorType) String() string {
	switch t {
	case ErrTypeNoKey:
		return "no_key"
	case ErrTypeInvalidKey:
		return "invalid"
	case ErrTypeNetworkError:
		return "network_error"
	case ErrTypeQuotaExceeded:
		return "quota"
	default:
		return "unknown"
	}
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidateAPIKey makes a minimal request with gen to prove the key works.
// It returns nil on success or a *ValidationError describing the failure.
func ValidateAPIKey(ctx context.Context, gen chat.Generator, em *metrics.Emitter) error {
	log.Debug().Str("model", chat.DefaultValidationModel).Msg("Validating API key with Gemini API")

	start := time.Now()
	resp, err := gen.GenerateContent(ctx, chat.DefaultValidationModel, genai.Text("hi"), nil)
	elapsed := time.Since(start)

	var valErr *ValidationError
	switch {
	case err != nil:
		valErr = classifyError(err)
	case resp == nil || len(resp.Candidates) == 0:
		log.Warn().Msg("API key validation returned empty response")
		valErr = &ValidationError{Type: ErrTypeUnknown, Message: "API returned empty response"}
	}

	result := "success"
	if valErr != nil {
		result = valErr.Type.String()
	}
	em.Record().
		Dimension("Result", result).
		Duration("ApiKeyValidationMs", elapsed).
		Count("ApiKeyValidationResult").
		Flush()

	log.Debug().Str("result", result).Dur("duration", elapsed).Msg("API key validation result")
	if valErr != nil {
		log.Error().Err(valErr).Msg("API key validation failed")
		return valErr
	}
	log.Info().Msg("API key validated successfully")
	return nil
}

// classifyError maps a provider failure onto the validation taxonomy.
func classifyError(err error) *ValidationError {
	if err == nil {
		return nil
	}
	perr := provider.Classify(err)
	switch perr.Kind {
	case provider.KindAuth:
		return &ValidationError{Type: ErrTypeInvalidKey, Message: "API key is invalid, expired, or lacks permissions", Err: err}
	case provider.KindQuota:
		return &ValidationError{Type: ErrTypeQuotaExceeded, Message: "API quota exceeded or rate limited", Err: err}
	case provider.KindNetwork, provider.KindTimeout:
		return &ValidationError{Type: ErrTypeNetworkError, Message: "Network error - check your internet connection", Err: err}
	default:
		return &ValidationError{Type: ErrTypeUnknown, Message: "Failed to validate API key", Err: err}
	}
}

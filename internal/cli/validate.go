package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fpang/spot-the-difference/internal/auth"
)

// ResolveOutputDir creates dirPath if needed and returns its absolute path.
func ResolveOutputDir(dirPath string) (string, error) {
	info, err := os.Stat(dirPath)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(dirPath, 0o755); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", dirPath, err)
		}
	case err != nil:
		return "", fmt.Errorf("failed to access %s: %w", dirPath, err)
	case !info.IsDir():
		return "", fmt.Errorf("%s is not a directory", dirPath)
	}

	if abs, err := filepath.Abs(dirPath); err == nil {
		dirPath = abs
	}
	return dirPath, nil
}

// ExplainValidationError turns an API key validation failure into an error
// that tells the player what to do next.
func ExplainValidationError(err error) error {
	if err == nil {
		return nil
	}
	var validationErr *auth.ValidationError
	if !errors.As(err, &validationErr) {
		return fmt.Errorf("unexpected error during API key validation: %w", err)
	}
	switch validationErr.Type {
	case auth.ErrTypeNoKey:
		return fmt.Errorf("no API key configured, set GEMINI_API_KEY or store it in ~/.spotdiff/credentials.gpg: %w", err)
	case auth.ErrTypeInvalidKey:
		return fmt.Errorf("invalid API key, check the key and try again: %w", err)
	case auth.ErrTypeNetworkError:
		return fmt.Errorf("network error, check your internet connection: %w", err)
	case auth.ErrTypeQuotaExceeded:
		return fmt.Errorf("API quota exceeded, try again later or check your usage limits: %w", err)
	default:
		return fmt.Errorf("API key validation failed: %w", err)
	}
}

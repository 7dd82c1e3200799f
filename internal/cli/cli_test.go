package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fpang/spot-the-difference/internal/auth"
	"github.com/fpang/spot-the-difference/internal/game"
)

func TestPromptForTheme(t *testing.T) {
	first := game.Themes()[0].Name
	second := game.Themes()[1].Name

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty line", "\n", first},
		{"eof", "", first},
		{"number", "2\n", second},
		{"catalog id", "ocean\n", "海底都市"},
		{"free text", "雪の村\n", "雪の村"},
		{"out of range", "99\n", "99"},
		{"no newline", "forest", "魔法の森"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got := PromptForTheme(strings.NewReader(tt.input), &out)
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
			if !strings.Contains(out.String(), "Theme [") {
				t.Errorf("expected a prompt, got %q", out.String())
			}
		})
	}
}

func TestResolveOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	got, err := ResolveOutputDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("expected an absolute path, got %q", got)
	}
	if info, err := os.Stat(got); err != nil || !info.IsDir() {
		t.Errorf("expected %q to be created", got)
	}

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ResolveOutputDir(file); err == nil {
		t.Error("expected an error for a regular file")
	}
}

func TestExplainValidationError(t *testing.T) {
	if ExplainValidationError(nil) != nil {
		t.Error("expected nil for nil")
	}

	quota := &auth.ValidationError{Type: auth.ErrTypeQuotaExceeded, Message: "quota"}
	err := ExplainValidationError(quota)
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("expected quota hint, got %v", err)
	}
	var target *auth.ValidationError
	if !errors.As(err, &target) {
		t.Error("expected the validation error to stay wrapped")
	}

	if err := ExplainValidationError(errors.New("boom")); !strings.Contains(err.Error(), "unexpected") {
		t.Errorf("expected unexpected-error wrapping, got %v", err)
	}
}

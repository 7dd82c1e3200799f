package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestStartupLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "info", FormatJSON)
	t.Cleanup(func() { InitWriter(&bytes.Buffer{}, "info", FormatJSON) })

	NewStartupLogger("spotdiff").
		Version("v1.2.3").
		S3Bucket("archive", "puzzles-bucket").
		S3Bucket("unused", "").
		DynamoTable("archive", "puzzles").
		Model("text", "gemini-3-pro-preview").
		Feature("archive", true).
		Config("provider", "gemini").
		Log()

	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if doc["message"] != "Startup complete" {
		t.Errorf("unexpected message %v", doc["message"])
	}
	process := doc["process"].(map[string]any)
	if process["name"] != "spotdiff" || process["version"] != "v1.2.3" {
		t.Errorf("unexpected process block %v", process)
	}
	resources := doc["resources"].(map[string]any)
	buckets := resources["s3Buckets"].(map[string]any)
	if len(buckets) != 1 || buckets["archive"] != "puzzles-bucket" {
		t.Errorf("expected only the non-empty bucket, got %v", buckets)
	}
	if doc["features"].(map[string]any)["archive"] != true {
		t.Error("expected archive feature flag")
	}
}

func TestInitWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "warn", FormatConsole)
	t.Cleanup(func() { InitWriter(&bytes.Buffer{}, "info", FormatJSON) })

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unexpected console output %q", out)
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("SPOTDIFF_TEST_VALUE", "")
	if got := EnvOrDefault("SPOTDIFF_TEST_VALUE", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
	t.Setenv("SPOTDIFF_TEST_VALUE", "set")
	if got := EnvOrDefault("SPOTDIFF_TEST_VALUE", "fallback"); got != "set" {
		t.Errorf("expected set, got %q", got)
	}
}

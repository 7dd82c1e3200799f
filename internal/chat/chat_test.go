package chat

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"
)

type fakeGenerator struct {
	model  string
	config *genai.GenerateContentConfig
	prompt string
	resp   *genai.GenerateContentResponse
	err    error
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func TestAskText(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("  こんにちは！  ")}

	got, err := AskText(context.Background(), gen, "test-model", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "こんにちは！" {
		t.Errorf("expected trimmed reply, got %q", got)
	}
	if gen.model != "test-model" {
		t.Errorf("expected model test-model, got %q", gen.model)
	}
	if gen.prompt != "hello" {
		t.Errorf("expected prompt hello, got %q", gen.prompt)
	}
	if gen.config == nil || gen.config.SystemInstruction == nil {
		t.Error("expected a system instruction")
	}
}

func TestAskText_Errors(t *testing.T) {
	boom := errors.New("boom")
	_, err := AskText(context.Background(), &fakeGenerator{err: boom}, "m", "hi")
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped boom, got %v", err)
	}

	_, err = AskText(context.Background(), &fakeGenerator{resp: textResponse("")}, "m", "hi")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}

	_, err = AskText(context.Background(), &fakeGenerator{}, "m", "hi")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse for nil response, got %v", err)
	}
}

func TestModelOverrides(t *testing.T) {
	t.Setenv(EnvTextModel, "")
	t.Setenv(EnvImageModel, "custom-image")
	t.Setenv(EnvChatModel, "")

	if got := TextModel(); got != DefaultTextModel {
		t.Errorf("expected %s, got %s", DefaultTextModel, got)
	}
	if got := ImageModel(); got != "custom-image" {
		t.Errorf("expected custom-image, got %s", got)
	}
	if got := ChatModel(); got != DefaultChatModel {
		t.Errorf("expected %s, got %s", DefaultChatModel, got)
	}
}

func TestNewGeminiClient_NoKey(t *testing.T) {
	if _, err := NewGeminiClient(context.Background(), ""); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

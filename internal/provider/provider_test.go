package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/genai"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"deadline", fmt.Errorf("metadata: %w", context.DeadlineExceeded), KindTimeout},
		{"canceled", context.Canceled, KindCanceled},
		{"api 401", &genai.APIError{Code: 401, Message: "unauthenticated"}, KindAuth},
		{"api 429 value", genai.APIError{Code: 429, Message: "slow down"}, KindQuota},
		{"api 503", fmt.Errorf("call: %w", &genai.APIError{Code: 503}), KindNetwork},
		{"api 400 key", &genai.APIError{Code: 400, Message: "API key not valid"}, KindAuth},
		{"api 400 other", &genai.APIError{Code: 400, Message: "bad schema"}, KindMalformed},
		{"string quota", errors.New("RESOURCE EXHAUSTED: quota"), KindQuota},
		{"string network", errors.New("dial tcp: no such host"), KindNetwork},
		{"unknown", errors.New("something odd"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got.Kind != tt.want {
				t.Errorf("expected kind %s, got %s", tt.want, got.Kind)
			}
			if got.Err == nil {
				t.Errorf("classified error should wrap the original")
			}
		})
	}
}

func TestClassify_KeepsProviderErrors(t *testing.T) {
	orig := &Error{Kind: KindNoImage, Message: "no image part"}
	wrapped := fmt.Errorf("base image: %w", orig)
	if got := Classify(wrapped); got != orig {
		t.Errorf("expected the wrapped *Error to be returned, got %v", got)
	}
	if Classify(nil) != nil {
		t.Error("expected nil for nil error")
	}
}

func TestUserMessage(t *testing.T) {
	if msg := UserMessage(nil); msg != "" {
		t.Errorf("expected empty message for nil, got %q", msg)
	}
	if msg := UserMessage(errors.New("mystery")); msg != "" {
		t.Errorf("expected empty message for unknown errors, got %q", msg)
	}
	if msg := UserMessage(context.DeadlineExceeded); msg != playerMessages[KindTimeout] {
		t.Errorf("expected timeout message, got %q", msg)
	}
	if msg := UserMessage(Malformed("bad json", nil)); msg != playerMessages[KindMalformed] {
		t.Errorf("expected malformed message, got %q", msg)
	}
}

func TestError(t *testing.T) {
	base := errors.New("boom")
	e := &Error{Kind: KindNetwork, Message: "request failed", Err: base}
	if e.Error() != "request failed: boom" {
		t.Errorf("unexpected message %q", e.Error())
	}
	if !errors.Is(e, base) {
		t.Error("expected Unwrap to expose the cause")
	}
	if KindNoImage.String() != "no_image" || Kind(99).String() != "unknown" {
		t.Error("unexpected kind names")
	}
}

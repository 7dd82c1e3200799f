package jsonutil

import (
	"errors"
	"testing"
)

func TestStripMarkdownFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fences", `  {"a":1} `, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n[1,2]\n```\n", `[1,2]`},
		{"unterminated", "```json\n{\"a\":1}", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkdownFences(tt.in); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"object in prose", `Here you go: {"theme":"森"} hope that helps {x}`, `{"theme":"森"}`, false},
		{"array first", `[{"id":"1"}] and {"other":true}`, `[{"id":"1"}]`, false},
		{"brace in string", `{"description":"a } sign","x":1}`, `{"description":"a } sign","x":1}`, false},
		{"escaped quote", `{"d":"say \"}\""}`, `{"d":"say \"}\""}`, false},
		{"no json", "sorry, I cannot help", "", true},
		{"unterminated", `{"a": [1, 2`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

type level struct {
	Theme       string `json:"theme"`
	Differences []struct {
		ID string  `json:"id"`
		X  float64 `json:"x"`
	} `json:"differences"`
}

func TestParseJSON(t *testing.T) {
	raw := "```json\n{\"theme\":\"Kitchen\",\"differences\":[{\"id\":\"1\",\"x\":12.5}]}\n```"
	got, err := ParseJSON[level](raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Theme != "Kitchen" || len(got.Differences) != 1 || got.Differences[0].X != 12.5 {
		t.Errorf("unexpected result: %+v", got)
	}

	_, err = ParseJSON[level]("no json here")
	if !errors.Is(err, ErrNoJSON) {
		t.Errorf("expected ErrNoJSON, got %v", err)
	}

	_, err = ParseJSON[level](`{"theme": 5}`)
	if err == nil {
		t.Error("expected a type error for a numeric theme")
	}
}

// Package jsonutil extracts and decodes JSON from model output that may be
// wrapped in markdown code fences or surrounded by prose.
package jsonutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when the text contains no object or array.
var ErrNoJSON = errors.New("no JSON content found")

// StripMarkdownFences removes a ```json ... ``` or ``` ... ``` wrapper.
// Text without an opening fence is returned trimmed but otherwise unchanged.
func StripMarkdownFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	// Drop the opening fence line, including any language tag.
	nl := strings.IndexByte(text, '\n')
	if nl < 0 {
		return text
	}
	body := text[nl+1:]
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// ExtractJSON returns the first complete JSON object or array in text.
// Brackets inside string literals are ignored while matching.
func ExtractJSON(text string) (string, error) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", ErrNoJSON
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unterminated JSON starting at offset %d", start)
}

// ParseJSON strips fences from raw, extracts the JSON payload and decodes it
// into T.
func ParseJSON[T any](raw string) (T, error) {
	var result T

	payload, err := ExtractJSON(StripMarkdownFences(raw))
	if err != nil {
		return result, fmt.Errorf("%w (raw length: %d)", err, len(raw))
	}
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		var zero T
		return zero, fmt.Errorf("invalid JSON: %w (text: %s)", err, preview(payload, 200))
	}
	return result, nil
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

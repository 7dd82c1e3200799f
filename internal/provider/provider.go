// Package provider defines the failure taxonomy shared by every content
// provider implementation and turns arbitrary provider errors into messages
// a player can read.
package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Kind categorizes a provider failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNetwork covers connectivity problems and 5xx responses.
	KindNetwork
	// KindQuota covers rate limiting and exhausted quota.
	KindQuota
	// KindAuth covers missing, invalid or revoked API keys.
	KindAuth
	// KindMalformed covers responses that do not match the expected shape.
	KindMalformed
	// KindNoImage is returned when an image call answers with text only.
	KindNoImage
	// KindTimeout covers deadline expiry of a single generation step.
	KindTimeout
	// KindCanceled is returned when the caller abandoned the request.
	KindCanceled
)

var kindNames = map[Kind]string{
	KindUnknown:   "unknown",
	KindNetwork:   "network",
	KindQuota:     "quota",
	KindAuth:      "auth",
	KindMalformed: "malformed",
	KindNoImage:   "no_image",
	KindTimeout:   "timeout",
	KindCanceled:  "canceled",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Error is a classified provider failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Malformed wraps err as a KindMalformed failure.
func Malformed(msg string, err error) *Error {
	return &Error{Kind: KindMalformed, Message: msg, Err: err}
}

// playerMessages are shown in place of raw error text.
var playerMessages = map[Kind]string{
	KindNetwork:   "生成サービスに接続できませんでした。しばらくしてからもう一度お試しください。",
	KindQuota:     "生成サービスの利用上限に達しました。しばらくしてからもう一度お試しください。",
	KindAuth:      "APIキーが無効です。設定を確認してください。",
	KindTimeout:   "生成に時間がかかりすぎました。もう一度お試しください。",
	KindMalformed: "AIの応答を読み取れませんでした。別のテーマを試してください。",
	KindNoImage:   "画像が生成されませんでした。別のテーマを試してください。",
}

// UserMessage returns the message stored on a failed session. Errors that
// cannot be classified yield an empty string so the session falls back to
// its generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return playerMessages[Classify(err).Kind]
}

// Classify converts any error returned by a provider into an *Error.
// Already-classified errors are returned unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Message: "generation step timed out", Err: err}
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindCanceled, Message: "generation canceled", Err: err}
	}

	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return classifyAPIError(apiErr.Code, apiErr.Message, err)
	}
	var apiErrVal genai.APIError
	if errors.As(err, &apiErrVal) {
		return classifyAPIError(apiErrVal.Code, apiErrVal.Message, err)
	}

	errLower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errLower, "api key not valid") ||
		strings.Contains(errLower, "invalid api key") ||
		strings.Contains(errLower, "api_key_invalid") ||
		strings.Contains(errLower, "permission denied"):
		return &Error{Kind: KindAuth, Message: "API key is invalid or has been revoked", Err: err}

	case strings.Contains(errLower, "quota") ||
		strings.Contains(errLower, "resource exhausted") ||
		strings.Contains(errLower, "rate limit"):
		return &Error{Kind: KindQuota, Message: "API quota exceeded or rate limited", Err: err}

	case strings.Contains(errLower, "timeout"):
		return &Error{Kind: KindTimeout, Message: "generation step timed out", Err: err}

	case strings.Contains(errLower, "connection") ||
		strings.Contains(errLower, "network") ||
		strings.Contains(errLower, "dial") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "unreachable"):
		return &Error{Kind: KindNetwork, Message: "network error talking to the content provider", Err: err}
	}

	return &Error{Kind: KindUnknown, Message: "content provider failed", Err: err}
}

func classifyAPIError(code int, message string, err error) *Error {
	switch code {
	case 400:
		if strings.Contains(strings.ToLower(message), "api key") {
			return &Error{Kind: KindAuth, Message: "Bad request - API key may be malformed", Err: err}
		}
		return &Error{Kind: KindMalformed, Message: "Gemini rejected the request", Err: err}
	case 401, 403:
		return &Error{Kind: KindAuth, Message: "API key is invalid, expired, or lacks permissions", Err: err}
	case 408, 504:
		return &Error{Kind: KindTimeout, Message: "Gemini API timed out", Err: err}
	case 429:
		return &Error{Kind: KindQuota, Message: "API rate limit exceeded - try again later", Err: err}
	case 500, 502, 503:
		return &Error{Kind: KindNetwork, Message: "Gemini API server error - try again later", Err: err}
	default:
		log.Debug().Int("code", code).Str("message", message).Msg("Unclassified Gemini API error")
		return &Error{Kind: KindUnknown, Message: message, Err: err}
	}
}

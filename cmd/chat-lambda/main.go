// Package main is the Lambda entry point for the chat proxy.
//
// Endpoints:
//
//	GET  /api/health  health check
//	POST /api/chat    {"message"} -> {"text"}
//
// The Gemini key comes from GEMINI_API_KEY or the SSM parameter named by
// SSM_API_KEY_PARAM. Without a key every chat request answers 500.
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/fpang/spot-the-difference/internal/chat"
	"github.com/fpang/spot-the-difference/internal/config"
	"github.com/fpang/spot-the-difference/internal/lambdaboot"
	"github.com/fpang/spot-the-difference/internal/logging"
	"github.com/fpang/spot-the-difference/internal/metrics"
	"github.com/fpang/spot-the-difference/internal/server"
)

var (
	chatFunc           server.ChatFunc
	originVerifySecret string
	emitter            *metrics.Emitter
)

func init() {
	initStart := time.Now()
	cfg := config.Default()
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatal().Err(err).Msg("Invalid environment")
	}
	logging.Init(cfg.Log.Level, logging.FormatJSON)

	service := logging.EnvOrDefault("AWS_LAMBDA_FUNCTION_NAME", "chat-lambda")
	emitter = metrics.NewEmitter(metrics.Namespace, service, os.Stdout)
	originVerifySecret = os.Getenv("ORIGIN_VERIFY_SECRET")
	if originVerifySecret == "" {
		log.Warn().Msg("ORIGIN_VERIFY_SECRET not set, origin verification disabled")
	}

	ctx := context.Background()
	clients, err := lambdaboot.InitAWS(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize AWS")
	}
	if err := lambdaboot.LoadGeminiKey(ctx, clients.SSM, cfg.Gemini.APIKeyParam); err != nil {
		log.Error().Err(err).Msg("Gemini API key unavailable, chat requests will fail")
	}

	if apiKey := os.Getenv(lambdaboot.EnvGeminiKey); apiKey != "" {
		client, err := chat.NewGeminiClient(ctx, apiKey)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Gemini client")
		}
		model := cfg.Gemini.ChatModel
		chatFunc = func(ctx context.Context, message string) (string, error) {
			return chat.AskText(ctx, client.Models, model, message)
		}
	}

	lambdaboot.StartupLog(service, initStart).
		SSMParam("geminiKey", cfg.Gemini.APIKeyParam).
		Model("chat", cfg.Gemini.ChatModel).
		Feature("chat", chatFunc != nil).
		Feature("originVerify", originVerifySecret != "").
		Log()
}

// withOriginVerify rejects requests lacking the x-origin-verify header that
// CloudFront injects, so API Gateway cannot be called directly.
func withOriginVerify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if originVerifySecret == "" || r.URL.Path == "/api/health" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("x-origin-verify") != originVerifySecret {
			log.Warn().Str("path", r.URL.Path).Msg("Blocked request: missing or invalid x-origin-verify header")
			http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	handler := server.New(nil, server.Options{
		Chat:    chatFunc,
		Metrics: emitter,
	}).Handler()

	adapter := httpadapter.NewV2(withOriginVerify(handler))
	lambda.Start(adapter.ProxyWithContext)
}

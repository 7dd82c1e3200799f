package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fpang/spot-the-difference/internal/lambdaboot"
	"github.com/fpang/spot-the-difference/internal/metrics"
	"github.com/fpang/spot-the-difference/internal/server"
	"github.com/fpang/spot-the-difference/internal/session"
)

var (
	portFlag         int
	skipValidateFlag bool
	metricsFlag      bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the game API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 8080, "Port to listen on")
	serveCmd.Flags().BoolVar(&skipValidateFlag, "skip-validate", false, "Skip the API key check at startup")
	serveCmd.Flags().BoolVar(&metricsFlag, "metrics", false, "Write CloudWatch EMF metrics to stdout")
}

func runServe(cmd *cobra.Command, args []string) error {
	initStart := time.Now()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var em *metrics.Emitter
	if metricsFlag {
		em = metrics.NewEmitter(metrics.Namespace, "spotdiff", os.Stdout)
	}

	b, err := buildBackend(ctx, cfg, em, !skipValidateFlag)
	if err != nil {
		return err
	}

	opts := session.Options{
		StepTimeout: cfg.Game.StepTimeout.Duration,
		HitRadius:   cfg.Game.HitRadius,
		Metrics:     em,
	}
	if cfg.Archive.Enabled() {
		clients, err := lambdaboot.InitAWS(ctx)
		if err != nil {
			return err
		}
		if store := lambdaboot.InitArchive(clients.Config, cfg.Archive); store != nil {
			opts.Archiver = store
		}
	}

	ctrl := session.New(b.provider, opts)
	defer ctrl.Close()
	if _, err := ctrl.SetDifficulty(cfg.Difficulty()); err != nil {
		return err
	}

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: server.New(ctrl, server.Options{
			AllowedOrigins:       cfg.Server.AllowedOrigins,
			GenerationsPerMinute: cfg.Server.GenerationsPerMinute,
			GenerationBurst:      cfg.Server.GenerationBurst,
			Chat:                 b.chat,
			Metrics:              em,
		}).Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lambdaboot.StartupLog("spotdiff", initStart).
		Version(version).
		Config("provider", cfg.Provider.Name).
		Config("addr", srv.Addr).
		Config("difficulty", cfg.Difficulty().String()).
		Model("text", cfg.Gemini.TextModel).
		Model("image", cfg.Gemini.ImageModel).
		Model("chat", cfg.Gemini.ChatModel).
		S3Bucket("archive", cfg.Archive.Bucket).
		DynamoTable("archive", cfg.Archive.Table).
		Feature("chat", b.chat != nil).
		Feature("archive", opts.Archiver != nil).
		Feature("metrics", em != nil).
		Log()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("Starting web server")
		fmt.Printf("\n  Spot the Difference API: http://%s\n\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

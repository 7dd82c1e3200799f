package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/spot-the-difference/internal/cli"
	"github.com/fpang/spot-the-difference/internal/game"
	"github.com/fpang/spot-the-difference/internal/session"
)

var (
	themeFlag string
	outFlag   string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one puzzle and write it to a directory",
	Long: `Generate runs the full pipeline once and writes base and modified
images plus level.json (with every difference and its position) to --out.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&themeFlag, "theme", "t", "", "Theme id from 'spotdiff themes' or free text (prompted when empty)")
	generateCmd.Flags().StringVarP(&outFlag, "out", "o", ".", "Output directory")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	outDir, err := cli.ResolveOutputDir(outFlag)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := buildBackend(ctx, cfg, nil, false)
	if err != nil {
		return err
	}

	ctrl := session.New(b.provider, session.Options{
		StepTimeout: cfg.Game.StepTimeout.Duration,
		HitRadius:   cfg.Game.HitRadius,
	})
	defer ctrl.Close()
	if _, err := ctrl.SetDifficulty(cfg.Difficulty()); err != nil {
		return err
	}

	theme := themeFlag
	if theme == "" {
		theme = cli.PromptForTheme(os.Stdin, os.Stdout)
	} else if t, ok := game.LookupTheme(theme); ok {
		theme = t.Name
	}

	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	start := time.Now()
	if _, err := ctrl.Start(theme); err != nil {
		return err
	}
	snap, err := waitSettled(ctx, updates)
	if err != nil {
		return err
	}
	if snap.Status == game.StatusFailed {
		return fmt.Errorf("generation failed: %s", snap.LastError)
	}
	log.Info().Str("theme", theme).Dur("duration", time.Since(start)).Msg("Puzzle generated")

	return writePuzzle(outDir, snap)
}

// waitSettled returns the first snapshot that is no longer generating.
func waitSettled(ctx context.Context, updates <-chan game.Session) (game.Session, error) {
	for {
		select {
		case <-ctx.Done():
			return game.Session{}, ctx.Err()
		case s, ok := <-updates:
			if !ok {
				return game.Session{}, errors.New("session closed before the puzzle was ready")
			}
			if s.Status.Generating() {
				log.Info().Str("status", s.Status.String()).Msg("Generating")
				continue
			}
			if s.Status == game.StatusIdle {
				continue
			}
			return s, nil
		}
	}
}

func writePuzzle(dir string, s game.Session) error {
	levelJSON, err := json.MarshalIndent(s.Level, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal level: %w", err)
	}
	files := map[string][]byte{"level.json": levelJSON}
	if s.BaseImage != nil {
		files["base"+imageExt(s.BaseImage.MIMEType)] = s.BaseImage.Data
	}
	if s.ModifiedImage != nil {
		files["modified"+imageExt(s.ModifiedImage.MIMEType)] = s.ModifiedImage.Data
	}
	for name, data := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Println(path)
	}
	return nil
}

func imageExt(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

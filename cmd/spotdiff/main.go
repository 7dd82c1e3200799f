// Command spotdiff serves the AI spot-the-difference game and offers a few
// offline helpers around it.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/spot-the-difference/internal/config"
	"github.com/fpang/spot-the-difference/internal/logging"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// Persistent flags
var (
	configPath     string
	logLevelFlag   string
	logFormatFlag  string
	providerFlag   string
	difficultyFlag string
)

var rootCmd = &cobra.Command{
	Use:   "spotdiff",
	Short: "AI-generated spot-the-difference puzzles",
	Long: `spotdiff generates spot-the-difference puzzles with Gemini: a level
description, a base picture and a modified copy with a fixed number of
changes. The serve command runs the game API, generate writes a single
puzzle to disk.

Examples:
  spotdiff serve --port 9090
  spotdiff serve --provider sketch
  spotdiff generate --theme forest --difficulty hard --out ./puzzle
  spotdiff themes
  spotdiff check-key`,
	SilenceUsage: true,
	Version:      version,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "spotdiff.toml", "Path to the TOML config file")
	pf.StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&logFormatFlag, "log-format", "", "Log format: console or json")
	pf.StringVar(&providerFlag, "provider", "", "Content provider: gemini or sketch")
	pf.StringVarP(&difficultyFlag, "difficulty", "d", "", "Difficulty: easy, medium or hard")

	rootCmd.AddCommand(serveCmd, generateCmd, themesCmd, checkKeyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves defaults, the config file, the environment and the
// persistent flags, in that order, then initializes logging.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	start := time.Now()
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevelFlag
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormatFlag
	}
	if flags.Changed("provider") {
		cfg.Provider.Name = providerFlag
	}
	if flags.Changed("difficulty") {
		cfg.Game.DefaultDifficulty = difficultyFlag
	}
	if flags.Lookup("port") != nil && flags.Changed("port") {
		cfg.Server.Port, _ = flags.GetInt("port")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	logging.Init(cfg.Log.Level, cfg.Log.Format)
	log.Debug().Str("config", configPath).Dur("elapsed", time.Since(start)).Msg("Configuration loaded")
	return cfg, nil
}

// Package config resolves process settings from built-in defaults, an
// optional TOML file and environment variables, in that order. Command-line
// flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"

	"github.com/fpang/spot-the-difference/internal/chat"
	"github.com/fpang/spot-the-difference/internal/game"
	"github.com/fpang/spot-the-difference/internal/logging"
)

// Provider names.
const (
	ProviderGemini = "gemini"
	ProviderSketch = "sketch"
)

// Environment variables read by ApplyEnv.
const (
	EnvPort          = "SPOTDIFF_PORT"
	EnvProvider      = "SPOTDIFF_PROVIDER"
	EnvArchiveBucket = "SPOTDIFF_ARCHIVE_BUCKET"
	EnvArchiveTable  = "SPOTDIFF_ARCHIVE_TABLE"
	EnvAPIKeyParam   = "SSM_API_KEY_PARAM"
)

// Duration is a time.Duration written as "90s" or "2m" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the complete set of process settings.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Provider ProviderConfig `toml:"provider"`
	Gemini   GeminiConfig   `toml:"gemini"`
	Game     GameConfig     `toml:"game"`
	Archive  ArchiveConfig  `toml:"archive"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
	// GenerationsPerMinute limits puzzle starts and chat calls.
	GenerationsPerMinute float64  `toml:"generations_per_minute"`
	GenerationBurst      int      `toml:"generation_burst"`
	ShutdownTimeout      Duration `toml:"shutdown_timeout"`
}

// ProviderConfig selects where puzzle content comes from.
type ProviderConfig struct {
	Name string `toml:"name"`
	// SketchDelay slows the offline provider down for demos.
	SketchDelay Duration `toml:"sketch_delay"`
}

// GeminiConfig holds model ids and the key location.
type GeminiConfig struct {
	TextModel  string `toml:"text_model"`
	ImageModel string `toml:"image_model"`
	ChatModel  string `toml:"chat_model"`
	// APIKeyParam is the SSM parameter holding the key on Lambda.
	APIKeyParam string `toml:"api_key_param"`
}

// GameConfig tunes the session controller.
type GameConfig struct {
	StepTimeout       Duration `toml:"step_timeout"`
	HitRadius         float64  `toml:"hit_radius"`
	DefaultDifficulty string   `toml:"default_difficulty"`
}

// ArchiveConfig enables the completed-puzzle archive when both Bucket and
// Table are set.
type ArchiveConfig struct {
	Bucket  string `toml:"bucket"`
	Table   string `toml:"table"`
	TTLDays int    `toml:"ttl_days"`
}

// Enabled reports whether completed puzzles are archived.
func (a ArchiveConfig) Enabled() bool {
	return a.Bucket != "" && a.Table != ""
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:                 "127.0.0.1",
			Port:                 8080,
			AllowedOrigins:       []string{"http://localhost:3000", "http://localhost:5173"},
			GenerationsPerMinute: 6,
			GenerationBurst:      2,
			ShutdownTimeout:      Duration{10 * time.Second},
		},
		Provider: ProviderConfig{Name: ProviderGemini},
		Gemini: GeminiConfig{
			TextModel:   chat.TextModel(),
			ImageModel:  chat.ImageModel(),
			ChatModel:   chat.ChatModel(),
			APIKeyParam: "/spotdiff/gemini-api-key",
		},
		Game: GameConfig{
			StepTimeout:       Duration{2 * time.Minute},
			HitRadius:         game.DefaultHitRadius,
			DefaultDifficulty: game.DefaultDifficulty.String(),
		},
		Archive: ArchiveConfig{TTLDays: 30},
		Log:     LogConfig{Level: "info", Format: logging.FormatConsole},
	}
}

// Load returns Default overlaid with the TOML file at path. An empty path
// or a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("path", path).Msg("Config file not found, using defaults")
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to stat config: %w", err)
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Default(), fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		log.Warn().Strs("keys", keys).Str("path", path).Msg("Ignoring unknown config keys")
	}
	log.Debug().Str("path", path).Msg("Config file loaded")
	return cfg, nil
}

// ApplyEnv overlays environment variables onto c.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	setString(&c.Provider.Name, EnvProvider)
	setString(&c.Gemini.TextModel, chat.EnvTextModel)
	setString(&c.Gemini.ImageModel, chat.EnvImageModel)
	setString(&c.Gemini.ChatModel, chat.EnvChatModel)
	setString(&c.Gemini.APIKeyParam, EnvAPIKeyParam)
	setString(&c.Log.Level, logging.EnvLogLevel)
	setString(&c.Archive.Bucket, EnvArchiveBucket)
	setString(&c.Archive.Table, EnvArchiveTable)
	return nil
}

func setString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

// Difficulty returns the parsed default difficulty.
func (c Config) Difficulty() game.Difficulty {
	d, err := game.ParseDifficulty(c.Game.DefaultDifficulty)
	if err != nil {
		return game.DefaultDifficulty
	}
	return d
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.GenerationsPerMinute <= 0 {
		errs = append(errs, errors.New("server.generations_per_minute must be positive"))
	}
	if c.Server.GenerationBurst < 1 {
		errs = append(errs, errors.New("server.generation_burst must be at least 1"))
	}
	switch c.Provider.Name {
	case ProviderGemini:
		if c.Gemini.TextModel == "" || c.Gemini.ImageModel == "" {
			errs = append(errs, errors.New("gemini text_model and image_model are required"))
		}
	case ProviderSketch:
	default:
		errs = append(errs, fmt.Errorf("provider.name %q is not one of %s, %s", c.Provider.Name, ProviderGemini, ProviderSketch))
	}
	if c.Game.StepTimeout.Duration <= 0 {
		errs = append(errs, errors.New("game.step_timeout must be positive"))
	}
	if c.Game.HitRadius <= 0 || c.Game.HitRadius > game.CoordinateMax/2 {
		errs = append(errs, fmt.Errorf("game.hit_radius %.1f out of range", c.Game.HitRadius))
	}
	if _, err := game.ParseDifficulty(c.Game.DefaultDifficulty); err != nil {
		errs = append(errs, fmt.Errorf("game.default_difficulty: %w", err))
	}
	if (c.Archive.Bucket == "") != (c.Archive.Table == "") {
		errs = append(errs, errors.New("archive.bucket and archive.table must be set together"))
	}
	switch strings.ToLower(c.Log.Format) {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not console or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

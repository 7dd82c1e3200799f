// Package lambdaboot holds the cold-start bootstrap shared by the Lambda
// entry point and the serve command: AWS config, the Gemini key from SSM,
// the optional puzzle archive and the startup log line.
package lambdaboot

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/fpang/spot-the-difference/internal/archive"
	"github.com/fpang/spot-the-difference/internal/config"
	"github.com/fpang/spot-the-difference/internal/logging"
)

// EnvGeminiKey is where the resolved API key is published for auth.GetAPIKey.
const EnvGeminiKey = "GEMINI_API_KEY"

// AWSClients holds the core AWS SDK clients.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// ParameterGetter is the subset of *ssm.Client used to read the key.
type ParameterGetter interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// InitAWS loads the default AWS config and returns it along with common clients.
func InitAWS(ctx context.Context) (AWSClients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return AWSClients{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}, nil
}

// InitArchive returns the puzzle archive, or nil with a warning when the
// bucket or table is not configured.
func InitArchive(cfg aws.Config, ac config.ArchiveConfig) *archive.Store {
	if !ac.Enabled() {
		log.Warn().Msg("Archive bucket/table not set, completed puzzles are not archived")
		return nil
	}
	ttl := time.Duration(ac.TTLDays) * 24 * time.Hour
	return archive.New(s3.NewFromConfig(cfg), dynamodb.NewFromConfig(cfg), ac.Bucket, ac.Table, ttl)
}

// LoadGeminiKey fetches the Gemini API key from SSM Parameter Store unless
// GEMINI_API_KEY is already set, and publishes it in that variable.
func LoadGeminiKey(ctx context.Context, client ParameterGetter, paramName string) error {
	if os.Getenv(EnvGeminiKey) != "" {
		return nil
	}
	if paramName == "" {
		return fmt.Errorf("no SSM parameter configured for the Gemini API key")
	}
	ssmStart := time.Now()
	result, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &paramName,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to read API key from SSM %s: %w", paramName, err)
	}
	if result.Parameter == nil || result.Parameter.Value == nil || *result.Parameter.Value == "" {
		return fmt.Errorf("SSM parameter %s is empty", paramName)
	}
	if err := os.Setenv(EnvGeminiKey, *result.Parameter.Value); err != nil {
		return err
	}
	log.Debug().Str("param", paramName).Dur("elapsed", time.Since(ssmStart)).Msg("Gemini API key loaded from SSM")
	return nil
}

// StartupLog is a convenience wrapper for the startup logger.
func StartupLog(name string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).InitDuration(time.Since(initStart))
}

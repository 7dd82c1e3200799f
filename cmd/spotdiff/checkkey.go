package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fpang/spot-the-difference/internal/auth"
	"github.com/fpang/spot-the-difference/internal/cli"
)

var checkKeyCmd = &cobra.Command{
	Use:   "check-key",
	Short: "Verify that the Gemini API key works",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(cmd); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		gen, err := cli.NewGenerator(ctx)
		if err != nil {
			return cli.ExplainValidationError(&auth.ValidationError{Type: auth.ErrTypeNoKey, Message: "no API key", Err: err})
		}
		if err := auth.ValidateAPIKey(ctx, gen, nil); err != nil {
			return cli.ExplainValidationError(err)
		}
		fmt.Println("API key is valid")
		return nil
	},
}

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yungbote/pao-report-backend/internal/app"
)

var rootCmd = &cobra.Command{
	Use:   "paoctl",
	Short: "Inspect and generate PAO reports from the command line",
	Long: `paoctl reuses the server configuration (environment and .env) to
preview the template context of a PAO or run the full generation pipeline
without going through HTTP.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(generateCmd)
}

// withApp wires the application for a single command and closes it after.
func withApp(ctx context.Context, fn func(*app.App) error) error {
	a, err := app.New(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

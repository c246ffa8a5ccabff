package main

import (
	"context"
	"os"

	"github.com/margindesk/margindesk_backend/app"
	"github.com/margindesk/margindesk_backend/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "margindesk-cli",
	Short:         "Run syncs and build pod reports from the command line",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// connect loads settings and builds the services against the configured database.
func connect(ctx context.Context) (*app.App, error) {
	logger := config.GetLogger()
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}
	config.SetLogLevel(settings.LogLevel)
	st, err := app.Connect(ctx, settings, logger)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, settings, st, logger), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Package cmd defines the apodex command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/apodex/internal/app"
	"github.com/JakeFAU/apodex/internal/config"
	"github.com/JakeFAU/apodex/internal/logging"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// newApp is the application factory. Tests replace it to inject a fake fetcher.
var newApp = func(cfg config.Config, logger *zap.Logger) (*app.App, error) {
	return app.New(cfg, logger)
}

// newRootCmd builds the command tree. The returned func closes the App if a
// command created one; post-run hooks are skipped when a command fails.
func newRootCmd() (*cobra.Command, func()) {
	var (
		cfgFile     string
		appInstance *app.App
	)

	cmd := &cobra.Command{
		Use:   "apodex",
		Short: "Archive Astronomy Picture of the Day pages and media",
		Long: `apodex scrapes the Astronomy Picture of the Day archive one page per day,
extracts the title, explanation and media of each page, and keeps both the raw
pages and the extracted entries in compact zstd archives.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			path := cfgFile
			if path == "" {
				path = config.Discover()
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			if path != "" {
				logger.Debug("config loaded", zap.String("path", path))
			}

			appInstance, err = newApp(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: first of ./apodex.yaml, $XDG_CONFIG_HOME/apodex/apodex.yaml, ~/.apodex/apodex.yaml, /etc/apodex/apodex.yaml)")

	cmd.AddCommand(
		newScrapeCmd(),
		newParseCmd(),
		newShowCmd(),
		newExportCmd(),
		newMediaCmd(),
	)
	return cmd, func() {
		if appInstance != nil {
			appInstance.Close()
		}
	}
}

func resolveApp(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// run executes one command line and closes the App afterwards.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root, closeApp := newRootCmd()
	defer closeApp()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// Execute runs the command line until it finishes or the process is interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// Command screen runs the voice-feature screening from the command line.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kirillkom/parkinsons-screening/internal/bootstrap"
	"github.com/kirillkom/parkinsons-screening/internal/config"
	"github.com/kirillkom/parkinsons-screening/internal/core/ports"
	"github.com/kirillkom/parkinsons-screening/internal/observability/logging"
)

type rootOptions struct {
	artifactDir string
	logLevel    string

	// newScreener is swapped in tests.
	newScreener func(ctx context.Context, cfg config.Config) (ports.Screener, error)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{
		newScreener: func(ctx context.Context, cfg config.Config) (ports.Screener, error) {
			return bootstrap.NewScreener(ctx, cfg)
		},
	}

	root := &cobra.Command{
		Use:           "screen",
		Short:         "Screen voice-feature CSV files for Parkinson's indicators",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.artifactDir, "artifact-dir", "", "Directory holding the model and feature manifest (default: ARTIFACT_DIR)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level for diagnostics written to stderr")

	root.AddCommand(newPredictCmd(opts), newManifestCmd(opts))
	return root
}

func (o *rootOptions) screener(cmd *cobra.Command) (ports.Screener, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.artifactDir != "" {
		cfg.ArtifactDir = o.artifactDir
	}
	// Diagnostics go to stderr so stdout can carry the exported table.
	slog.SetDefault(logging.NewJSONLoggerTo(cmd.ErrOrStderr(), "screening-cli", o.logLevel))

	screener, err := o.newScreener(cmd.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("load artifacts: %w", err)
	}
	return screener, nil
}

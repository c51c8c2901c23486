// Package cli defines the literarylinc command line.
//
// Running the binary without a subcommand starts the HTTP server. The other
// commands run the same jobs as the task queue, synchronously, against the
// configured database.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm/logger"

	"github.com/literarylinc/literarylinc/internal/config"
	"github.com/literarylinc/literarylinc/internal/entrypoint"
)

// AppFactory opens the application components for a command.
type AppFactory func() (*entrypoint.App, error)

func defaultAppFactory() (*entrypoint.App, error) {
	return entrypoint.NewApp(config.NewConfig(), logger.Warn)
}

// NewRootCommand builds the command tree.
func NewRootCommand(version string, newApp AppFactory) *cobra.Command {
	serve := func(cmd *cobra.Command, args []string) error {
		entrypoint.Run(config.NewConfig(), version)
		return nil
	}

	root := &cobra.Command{
		Use:           "literarylinc",
		Short:         "Track books and reading progress, and keep a scanned document library",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server (default if no command given)",
			Args:  cobra.NoArgs,
			RunE:  serve,
		},
		NewScanCommand(newApp).Cobra(),
		NewGrantCommand(newApp).Cobra(),
		NewBackupCommand(newApp).Cobra(),
		NewRestoreCommand(newApp).Cobra(),
		NewCoversCommand(newApp).Cobra(),
	)
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute(version string) {
	root := NewRootCommand(version, defaultAppFactory)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

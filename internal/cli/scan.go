package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

// ScanCommand runs a file scan followed by cover generation.
type ScanCommand struct {
	SkipCovers bool

	newApp AppFactory
}

func NewScanCommand(newApp AppFactory) *ScanCommand {
	return &ScanCommand{newApp: newApp}
}

func (c *ScanCommand) Cobra() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan granted directories for documents and generate covers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Run(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&c.SkipCovers, "skip-covers", false, "Only scan files, do not generate covers")
	return cmd
}

// Run executes the scan command
func (c *ScanCommand) Run(ctx context.Context, out io.Writer) error {
	app, err := c.newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Fprintln(out, "🔍 Scanning granted directories...")
	result, err := app.Scanner.ScanFiles(ctx)
	if err != nil {
		return fmt.Errorf("scan files: %w", err)
	}
	fmt.Fprintf(out, "   %d roots, %d files, %d new documents, %d already known, %d rejected (%s)\n",
		result.Roots, result.Files, result.Inserted, result.Known, result.Rejected, result.Duration.Round(time.Millisecond))
	if total, err := app.DB.Documents.Count(); err == nil {
		fmt.Fprintf(out, "   %d documents in library\n", total)
	}

	if c.SkipCovers {
		return nil
	}

	fmt.Fprintln(out, "🖼️  Generating covers...")
	covers, err := app.Scanner.ScanCovers(ctx)
	if err != nil {
		return fmt.Errorf("scan covers: %w", err)
	}
	fmt.Fprintf(out, "   %d checked, %d generated, %d unsupported, %d failed\n",
		covers.Checked, covers.Generated, covers.Unsupported, covers.Failed)
	return nil
}

// GrantCommand manages scan roots.
type GrantCommand struct {
	newApp AppFactory
}

func NewGrantCommand(newApp AppFactory) *GrantCommand {
	return &GrantCommand{newApp: newApp}
}

func (c *GrantCommand) Cobra() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grant [dir...]",
		Short: "Allow the scanner to read directories, or list them when no directory is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Run(args, cmd.OutOrStdout())
		},
	}
	return cmd
}

// Run executes the grant command
func (c *GrantCommand) Run(dirs []string, out io.Writer) error {
	app, err := c.newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		grant, err := app.DB.Grants.Add(abs)
		if err != nil {
			return fmt.Errorf("grant %s: %w", dir, err)
		}
		fmt.Fprintf(out, "✅ Granted %s (id %d)\n", grant.Path, grant.ID)
	}

	if len(dirs) == 0 {
		grants, err := app.DB.Grants.List()
		if err != nil {
			return err
		}
		if len(grants) == 0 {
			fmt.Fprintln(out, "No directories granted")
		}
		for _, g := range grants {
			fmt.Fprintf(out, "%d\t%s\n", g.ID, g.Path)
		}
	}
	return nil
}

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// CoversCommand groups cover directory maintenance.
type CoversCommand struct {
	newApp AppFactory
}

func NewCoversCommand(newApp AppFactory) *CoversCommand {
	return &CoversCommand{newApp: newApp}
}

func (c *CoversCommand) Cobra() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "covers",
		Short: "Manage the cover directory",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List stored covers",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.List(cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "add <name> <image>",
			Short: "Compress an image file into the cover directory under <name>",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.Add(args[0], args[1], cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete every stored cover",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.Clear(cmd.OutOrStdout())
			},
		},
	)
	return cmd
}

func (c *CoversCommand) List(out io.Writer) error {
	app, err := c.newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	names, err := app.Covers.List()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	fmt.Fprintf(out, "%d covers in %s\n", len(names), app.Covers.Dir())
	return nil
}

func (c *CoversCommand) Add(name, src string, out io.Writer) error {
	app, err := c.newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Covers.SaveFromFile(name, src); err != nil {
		return fmt.Errorf("add cover %s: %w", name, err)
	}
	fmt.Fprintf(out, "✅ Saved %s to %s\n", name, app.Covers.Dir())
	return nil
}

// Clear removes all covers. Documents keep their cover filename and get a
// new cover on the next cover scan.
func (c *CoversCommand) Clear(out io.Writer) error {
	app, err := c.newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	deleted, err := app.Covers.DeleteAll()
	if err != nil {
		return fmt.Errorf("clear covers: %w", err)
	}
	app.Bitmaps.ReleaseAll()
	fmt.Fprintf(out, "🗑️  Deleted %d covers\n", deleted)
	return nil
}

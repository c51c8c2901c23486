package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/literarylinc/literarylinc/internal/entities"
	"github.com/literarylinc/literarylinc/internal/notify"
)

// BackupCommand exports the catalog to a CSV file.
type BackupCommand struct {
	newApp AppFactory
}

func NewBackupCommand(newApp AppFactory) *BackupCommand {
	return &BackupCommand{newApp: newApp}
}

func (c *BackupCommand) Cobra() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <file>",
		Short: "Export all books to a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Run(cmd.Context(), args[0], cmd.OutOrStdout())
		},
	}
}

// Run executes the backup command
func (c *BackupCommand) Run(ctx context.Context, path string, out io.Writer) error {
	app, err := c.newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	n, err := app.Backups.ExportFile(ctx, path)
	if err != nil {
		_ = app.Notifier.Notify(ctx, notify.Failure(entities.ChannelBackup, "Backup failed", err))
		return err
	}
	_ = app.Notifier.Notify(ctx, notify.Success(entities.ChannelBackup, "Backup complete",
		fmt.Sprintf("Exported %d books to %s", n, path)))

	fmt.Fprintf(out, "✅ Exported %d books to %s\n", n, path)
	return nil
}

// RestoreCommand imports books from a CSV backup.
type RestoreCommand struct {
	Replace bool

	newApp AppFactory
}

func NewRestoreCommand(newApp AppFactory) *RestoreCommand {
	return &RestoreCommand{newApp: newApp}
}

func (c *RestoreCommand) Cobra() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Import books from a CSV backup",
		Long:  "Import books from a CSV backup. Every valid row is added as a new book; existing books are not updated unless --replace empties the catalog first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Run(cmd.Context(), args[0], cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&c.Replace, "replace", false, "Replace the whole catalog with the backup; nothing changes if the file cannot be restored")
	return cmd
}

// Run executes the restore command
func (c *RestoreCommand) Run(ctx context.Context, path string, out io.Writer) error {
	app, err := c.newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	restore := app.Backups.ImportFile
	if c.Replace {
		restore = app.Backups.ReplaceFile
	}
	result, err := restore(ctx, path)
	if err != nil {
		_ = app.Notifier.Notify(ctx, notify.Failure(entities.ChannelRestore, "Restore failed", err))
		return err
	}
	if c.Replace {
		fmt.Fprintf(out, "🗑️  Replaced %d books\n", result.Replaced)
	}
	_ = app.Notifier.Notify(ctx, notify.Success(entities.ChannelRestore, "Restore complete",
		fmt.Sprintf("Imported %d books, skipped %d rows", result.Imported, result.Skipped)))

	fmt.Fprintf(out, "✅ Imported %d books, skipped %d rows\n", result.Imported, result.Skipped)
	for _, msg := range result.Errors {
		fmt.Fprintf(out, "   ⚠️  %s\n", msg)
	}
	return nil
}

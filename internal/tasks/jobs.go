package tasks

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/literarylinc/literarylinc/internal/backup"
	"github.com/literarylinc/literarylinc/internal/entities"
	"github.com/literarylinc/literarylinc/internal/notify"
	"github.com/literarylinc/literarylinc/internal/scanner"
	"github.com/literarylinc/literarylinc/internal/settingsstore"
)

// Queue names. They double as job names for Enqueue.
const (
	QueueScanFiles  = "scan_files"
	QueueScanCovers = "scan_covers"
	QueueBackup     = "backup"
	QueueRestore    = "restore"
)

// queueTimeout is the outer bound backlite enforces; Dependencies.Timeout is applied inside it.
const queueTimeout = 2 * time.Hour

func retention() *backlite.Retention {
	return &backlite.Retention{
		Duration:   24 * time.Hour,
		OnlyFailed: false,
		Data:       &backlite.RetainData{OnlyFailed: true},
	}
}

// Every job runs at most once; a failure is reported, never retried.
func queueConfig(name string) backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        name,
		MaxAttempts: 1,
		Timeout:     queueTimeout,
		Retention:   retention(),
	}
}

// ScanFilesTask reconciles documents with the granted directories.
type ScanFilesTask struct {
	// ThenCovers enqueues a cover pass after a successful scan.
	ThenCovers bool `json:"then_covers"`
}

func (t ScanFilesTask) Config() backlite.QueueConfig { return queueConfig(QueueScanFiles) }

// ScanCoversTask generates missing document covers.
type ScanCoversTask struct{}

func (t ScanCoversTask) Config() backlite.QueueConfig { return queueConfig(QueueScanCovers) }

// BackupTask exports the book list to a CSV file.
type BackupTask struct {
	Path string `json:"path"`
}

func (t BackupTask) Config() backlite.QueueConfig { return queueConfig(QueueBackup) }

// RestoreTask imports books from a CSV file.
type RestoreTask struct {
	Path string `json:"path"`
}

func (t RestoreTask) Config() backlite.QueueConfig { return queueConfig(QueueRestore) }

// BackupFilename returns a timestamped backup path inside dir.
func BackupFilename(dir string, at time.Time) string {
	return filepath.Join(dir, "literarylinc-backup-"+at.Format("20060102-150405")+".csv")
}

type Scanner interface {
	ScanFiles(ctx context.Context) (*scanner.ScanResult, error)
	ScanCovers(ctx context.Context) (*scanner.CoverScanResult, error)
}

type Backups interface {
	ExportFile(ctx context.Context, path string) (int, error)
	ImportFile(ctx context.Context, path string) (*backup.ImportResult, error)
}

// RunRecorder stores the last outcome of scheduled jobs.
type RunRecorder interface {
	RecordRun(job string, success bool, message string) error
}

type Enqueuer interface {
	Enqueue(ctx context.Context, name string, policy Policy, task backlite.Task) (string, bool, error)
}

// Dependencies are shared by every processor. Runs and Enqueuer are optional.
type Dependencies struct {
	Scanner  Scanner
	Backups  Backups
	Notifier notify.Notifier
	Runs     RunRecorder
	Enqueuer Enqueuer
	Timeout  time.Duration
}

func (d *Dependencies) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.Timeout)
}

// report logs the outcome, records it and sends a notification. The original
// error is returned so backlite marks the task as failed.
func (d *Dependencies) report(ctx context.Context, channel entities.NotificationChannel, run, title, message string, err error) error {
	n := notify.Success(channel, title, message)
	if err != nil {
		log.Printf("[TASK ERROR] %s: %v", title, err)
		n = notify.Failure(channel, title, err)
	} else {
		log.Printf("[TASK] %s: %s", title, message)
	}

	if d.Runs != nil && run != "" {
		if recErr := d.Runs.RecordRun(run, err == nil, n.Message); recErr != nil {
			log.Printf("[TASK ERROR] Failed to record %s run: %v", run, recErr)
		}
	}
	if d.Notifier != nil {
		// The task context may already be done; the notification should still land
		if nErr := d.Notifier.Notify(context.WithoutCancel(ctx), n); nErr != nil {
			log.Printf("[TASK ERROR] Failed to send notification: %v", nErr)
		}
	}
	return err
}

// ScanFilesProcessor creates a processor function for ScanFilesTask.
func ScanFilesProcessor(deps *Dependencies) backlite.QueueProcessor[ScanFilesTask] {
	return func(ctx context.Context, task ScanFilesTask) error {
		ctx, cancel := deps.withTimeout(ctx)
		defer cancel()

		result, err := deps.Scanner.ScanFiles(ctx)
		if err != nil {
			return deps.report(ctx, entities.ChannelScan, settingsstore.JobScan, "File scan failed", "", fmt.Errorf("scan files: %w", err))
		}

		msg := fmt.Sprintf("Found %d new documents in %d folders", result.Inserted, result.Roots)
		_ = deps.report(ctx, entities.ChannelScan, settingsstore.JobScan, "File scan finished", msg, nil)

		if task.ThenCovers && deps.Enqueuer != nil {
			if _, _, err := deps.Enqueuer.Enqueue(ctx, QueueScanCovers, PolicyKeep, ScanCoversTask{}); err != nil {
				log.Printf("[TASK ERROR] Failed to queue cover scan: %v", err)
			}
		}
		return nil
	}
}

// ScanCoversProcessor creates a processor function for ScanCoversTask.
func ScanCoversProcessor(deps *Dependencies) backlite.QueueProcessor[ScanCoversTask] {
	return func(ctx context.Context, _ ScanCoversTask) error {
		ctx, cancel := deps.withTimeout(ctx)
		defer cancel()

		result, err := deps.Scanner.ScanCovers(ctx)
		if err != nil {
			return deps.report(ctx, entities.ChannelCovers, "", "Cover scan failed", "", fmt.Errorf("scan covers: %w", err))
		}

		msg := fmt.Sprintf("Generated %d covers (%d failed, %d unsupported)",
			result.Generated, result.Failed, result.Unsupported)
		return deps.report(ctx, entities.ChannelCovers, "", "Cover scan finished", msg, nil)
	}
}

// BackupProcessor creates a processor function for BackupTask.
func BackupProcessor(deps *Dependencies) backlite.QueueProcessor[BackupTask] {
	return func(ctx context.Context, task BackupTask) error {
		ctx, cancel := deps.withTimeout(ctx)
		defer cancel()

		if task.Path == "" {
			return deps.report(ctx, entities.ChannelBackup, settingsstore.JobBackup, "Backup failed", "", fmt.Errorf("backup path is required"))
		}

		count, err := deps.Backups.ExportFile(ctx, task.Path)
		if err != nil {
			return deps.report(ctx, entities.ChannelBackup, settingsstore.JobBackup, "Backup failed", "", fmt.Errorf("export %s: %w", task.Path, err))
		}

		msg := fmt.Sprintf("Exported %d books to %s", count, task.Path)
		return deps.report(ctx, entities.ChannelBackup, settingsstore.JobBackup, "Backup finished", msg, nil)
	}
}

// RestoreProcessor creates a processor function for RestoreTask.
func RestoreProcessor(deps *Dependencies) backlite.QueueProcessor[RestoreTask] {
	return func(ctx context.Context, task RestoreTask) error {
		ctx, cancel := deps.withTimeout(ctx)
		defer cancel()

		if task.Path == "" {
			return deps.report(ctx, entities.ChannelRestore, "", "Restore failed", "", fmt.Errorf("restore path is required"))
		}

		result, err := deps.Backups.ImportFile(ctx, task.Path)
		if err != nil {
			return deps.report(ctx, entities.ChannelRestore, "", "Restore failed", "", fmt.Errorf("import %s: %w", task.Path, err))
		}

		msg := fmt.Sprintf("Imported %d books, skipped %d rows", result.Imported, result.Skipped)
		return deps.report(ctx, entities.ChannelRestore, "", "Restore finished", msg, nil)
	}
}

// NewQueues creates the backlite queues for every job type.
func NewQueues(deps *Dependencies) []backlite.Queue {
	return []backlite.Queue{
		backlite.NewQueue(ScanFilesProcessor(deps)),
		backlite.NewQueue(ScanCoversProcessor(deps)),
		backlite.NewQueue(BackupProcessor(deps)),
		backlite.NewQueue(RestoreProcessor(deps)),
	}
}

package http

import (
	"context"
	"image"
	"io"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/literarylinc/literarylinc/internal/backup"
	"github.com/literarylinc/literarylinc/internal/database/books"
	"github.com/literarylinc/literarylinc/internal/entities"
	"github.com/literarylinc/literarylinc/internal/metadata"
	"github.com/literarylinc/literarylinc/internal/settingsstore"
	"github.com/literarylinc/literarylinc/internal/tasks"
)

// This file consolidates the store interfaces used by HTTP controllers.
// The database repositories satisfy them; tests can substitute fakes.

// BookStore provides the book catalog.
type BookStore interface {
	GetByID(id uint) (*entities.Book, error)
	List(filter books.ListFilter) ([]entities.Book, int64, error)
	Create(book *entities.Book) error
	Update(book *entities.Book) error
	Delete(id uint) error
	DeleteMany(ids []uint) (int64, error)
	Stats() (*entities.ReadingStats, error)
}

// DocumentStore provides scanned documents.
type DocumentStore interface {
	All() ([]entities.Document, error)
	GetByID(id string) (*entities.Document, error)
	UpdateProgress(id string, currentPage, pageCount int, readAt time.Time) error
}

// GrantStore manages scan roots.
type GrantStore interface {
	Add(dir string) (*entities.DirectoryGrant, error)
	List() ([]entities.DirectoryGrant, error)
	Remove(id uint) error
}

type NotificationStore interface {
	Recent(channel entities.NotificationChannel, limit int) ([]entities.Notification, error)
	DeleteAll() (int64, error)
}

// CoverStore is the cover image directory.
type CoverStore interface {
	List() ([]string, error)
	Path(name string) (string, error)
	Exists(name string) bool
	Open(name string) (image.Image, error)
	SaveFromReader(name string, src io.Reader) error
	Download(ctx context.Context, name, url string) error
	Delete(name string) error
	DeleteAll() (int, error)
}

// BackupManager streams the catalog as CSV.
type BackupManager interface {
	Export(ctx context.Context, w io.Writer) (int, error)
	Import(ctx context.Context, r io.Reader) (*backup.ImportResult, error)
}

// TaskQueue enqueues background jobs and reports their status.
type TaskQueue interface {
	Enqueue(ctx context.Context, name string, policy tasks.Policy, task backlite.Task) (string, bool, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// MetadataSearcher looks books up in an external catalog.
type MetadataSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]metadata.BookMetadata, error)
	SearchByISBN(ctx context.Context, isbn string) (*metadata.BookMetadata, error)
}

// BackupDirProvider resolves where scheduled and on-demand backups are written.
type BackupDirProvider interface {
	BackupDir() string
}

// ScheduleStore reads and edits the cron schedules of background jobs.
type ScheduleStore interface {
	JobConfigInfo(job string) (settingsstore.JobConfigInfo, error)
	SetJobConfig(job string, cfg settingsstore.JobConfig) error
	ClearJobConfig(job string) error
	RunStatus(job string) (settingsstore.RunStatus, error)
	BackupDir() string
	SetBackupDir(dir string) error
}

// JobScheduler runs the cron schedules.
type JobScheduler interface {
	Reschedule() error
	RunNow(ctx context.Context, job string) (string, error)
	GetNextRunTime(job string) *time.Time
	IsRunning() bool
}

// UploadAuditor keeps copies of uploaded import files.
type UploadAuditor interface {
	SaveUpload(ext string, src io.Reader) (string, error)
}

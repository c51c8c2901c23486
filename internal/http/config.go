package http

import (
	"github.com/literarylinc/literarylinc/internal/bitmaps"
	"github.com/literarylinc/literarylinc/internal/database"
	"github.com/literarylinc/literarylinc/internal/notify"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. Optional components may be left nil and
// their endpoints are not registered.
type RouterConfig struct {
	// Core dependencies
	Database      *database.Database
	Books         BookStore
	Documents     DocumentStore
	Grants        GrantStore
	Notifications NotificationStore

	// Cover directory and the resized bitmap cache
	Covers  CoverStore
	Bitmaps *bitmaps.Cache

	// CSV backup
	Backups  BackupManager
	Notifier notify.Notifier
	Uploads  UploadAuditor

	// Task queue client (optional)
	TaskQueue TaskQueue

	// Cron schedules (optional)
	Schedules ScheduleStore
	Scheduler JobScheduler

	// OpenLibrary search (optional)
	Metadata MetadataSearcher

	// Application info
	Version string
}

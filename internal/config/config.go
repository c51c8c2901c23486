package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type DatabaseDriver string

const (
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"   // Local file database (default)
	DatabaseDriverPostgres DatabaseDriver = "postgres" // External Postgres via DATABASE_DSN
)

type (
	Config struct {
		HTTP
		Global
		Database
		Library
		Tasks
		Schedule
		OpenLibrary
		Audit
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Driver DatabaseDriver
		Path   string // SQLite file; also anchors the tasks database
		DSN    string // Postgres connection string
	}
	Library struct {
		CoversDir           string        // App-private cover image directory
		BackupDir           string        // Where scheduled CSV backups are written
		CoverMaxWidth       int           // Covers are downscaled to this width
		CoverJPEGQuality    int           // JPEG quality used when compressing covers
		CoverPollInterval   time.Duration // How often the cover directory is re-listed
		BitmapCacheFraction int           // Cache uses 1/N of available memory
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		TaskTimeout     time.Duration
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Schedule struct {
		ScanEnabled    bool
		ScanSchedule   string // Cron format: "0 * * * *" = hourly
		BackupEnabled  bool
		BackupSchedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	OpenLibrary struct {
		BaseURL string
	}
	Audit struct {
		Dir           string // Copies of uploaded restore files; empty disables
		RetentionDays int    // Days to keep uploaded copies (default: 30)
	}
)

func NewConfig() *Config {
	// .env is optional; real environment variables win because godotenv never overrides them
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)

	v.SetDefault("database_driver", string(DatabaseDriverSQLite))
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")

	v.SetDefault("covers_dir", DefaultCoversDir)
	v.SetDefault("backup_dir", DefaultBackupDir)
	v.SetDefault("cover_max_width", 480)
	v.SetDefault("cover_jpeg_quality", 80)
	v.SetDefault("cover_poll_interval", "2s")
	v.SetDefault("bitmap_cache_fraction", 8)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_timeout", "30m")
	v.SetDefault("task_release_after", "1h")
	v.SetDefault("task_cleanup_interval", "1h")

	// Scheduler defaults
	v.SetDefault("scan_schedule_enabled", false)
	v.SetDefault("scan_schedule", "0 * * * *")
	v.SetDefault("backup_schedule_enabled", false)
	v.SetDefault("backup_schedule", "0 3 * * *")

	v.SetDefault("openlibrary_base_url", "https://openlibrary.org")

	v.SetDefault("audit_dir", "./audit")
	v.SetDefault("audit_retention_days", 30)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Driver: DatabaseDriver(v.GetString("DATABASE_DRIVER")),
			Path:   v.GetString("DATABASE_PATH"),
			DSN:    v.GetString("DATABASE_DSN"),
		},
		Library: Library{
			CoversDir:           v.GetString("COVERS_DIR"),
			BackupDir:           v.GetString("BACKUP_DIR"),
			CoverMaxWidth:       v.GetInt("COVER_MAX_WIDTH"),
			CoverJPEGQuality:    v.GetInt("COVER_JPEG_QUALITY"),
			CoverPollInterval:   v.GetDuration("COVER_POLL_INTERVAL"),
			BitmapCacheFraction: v.GetInt("BITMAP_CACHE_FRACTION"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			TaskTimeout:     v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Schedule: Schedule{
			ScanEnabled:    v.GetBool("SCAN_SCHEDULE_ENABLED"),
			ScanSchedule:   v.GetString("SCAN_SCHEDULE"),
			BackupEnabled:  v.GetBool("BACKUP_SCHEDULE_ENABLED"),
			BackupSchedule: v.GetString("BACKUP_SCHEDULE"),
		},
		OpenLibrary: OpenLibrary{
			BaseURL: v.GetString("OPENLIBRARY_BASE_URL"),
		},
		Audit: Audit{
			Dir:           v.GetString("AUDIT_DIR"),
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
	}
}

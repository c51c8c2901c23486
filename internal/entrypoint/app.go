package entrypoint

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm/logger"

	"github.com/literarylinc/literarylinc/internal/audit"
	"github.com/literarylinc/literarylinc/internal/backup"
	"github.com/literarylinc/literarylinc/internal/bitmaps"
	"github.com/literarylinc/literarylinc/internal/config"
	"github.com/literarylinc/literarylinc/internal/covers"
	"github.com/literarylinc/literarylinc/internal/database"
	"github.com/literarylinc/literarylinc/internal/metadata"
	"github.com/literarylinc/literarylinc/internal/notify"
	"github.com/literarylinc/literarylinc/internal/scanner"
	"github.com/literarylinc/literarylinc/internal/settingsstore"
)

// App holds the components shared by the server and the CLI commands.
type App struct {
	Config   *config.Config
	DB       *database.Database
	Covers   *covers.Repository
	Bitmaps  *bitmaps.Cache
	Scanner  *scanner.Scanner
	Backups  *backup.Manager
	Notifier *notify.StoreNotifier
	Settings *settingsstore.SettingsStore
	Metadata *metadata.OpenLibraryClient
	Auditor  *audit.Auditor // nil when AUDIT_DIR is empty
}

// NewApp opens the database and builds every component that does not run in the background.
func NewApp(cfg *config.Config, logLevel logger.LogLevel) (*App, error) {
	db, err := database.Open(cfg.Database, logLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	coverRepo, err := covers.NewRepository(cfg.Library.CoversDir, covers.Options{
		MaxWidth:    cfg.Library.CoverMaxWidth,
		JPEGQuality: cfg.Library.CoverJPEGQuality,
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Printf("Cover directory initialized at %s", coverRepo.Dir())

	cache := bitmaps.NewCache(bitmaps.DefaultMaxBytes(cfg.Library.BitmapCacheFraction))
	log.Printf("Bitmap cache capacity: %d MiB", cache.MaxBytes()>>20)

	var auditor *audit.Auditor
	if cfg.Audit.Dir != "" {
		auditor = audit.NewAuditor(cfg.Audit.Dir)
		if cfg.Audit.RetentionDays > 0 {
			removed, err := auditor.Prune(time.Duration(cfg.Audit.RetentionDays) * 24 * time.Hour)
			if err != nil {
				log.Printf("WARNING: Failed to prune audit directory: %v", err)
			} else if removed > 0 {
				log.Printf("Pruned %d audit files older than %d days", removed, cfg.Audit.RetentionDays)
			}
		}
	}

	return &App{
		Config:   cfg,
		DB:       db,
		Covers:   coverRepo,
		Bitmaps:  cache,
		Scanner:  scanner.NewScanner(db.Documents, db.Grants, coverRepo),
		Backups:  backup.NewManager(db.Books),
		Notifier: notify.NewStoreNotifier(db.Notifications),
		Settings: settingsstore.New(db, cfg),
		Metadata: metadata.NewOpenLibraryClient(cfg.OpenLibrary.BaseURL),
		Auditor:  auditor,
	}, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}

// pruneBitmaps drops cached resized covers whose source file is no longer in names.
func pruneBitmaps(cache *bitmaps.Cache, names []string) int {
	present := make(map[string]struct{}, len(names))
	for _, n := range names {
		present[n] = struct{}{}
	}
	return cache.RemoveFunc(func(key string) bool {
		name, _, _ := strings.Cut(key, "@")
		_, ok := present[name]
		return !ok
	})
}

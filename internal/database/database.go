package database

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/literarylinc/literarylinc/internal/config"
	"github.com/literarylinc/literarylinc/internal/database/books"
	"github.com/literarylinc/literarylinc/internal/database/documents"
	"github.com/literarylinc/literarylinc/internal/database/grants"
	"github.com/literarylinc/literarylinc/internal/database/notifications"
	"github.com/literarylinc/literarylinc/internal/database/settings"
	"github.com/literarylinc/literarylinc/internal/entities"
)

type Database struct {
	DB *gorm.DB

	Books         *books.Repository
	Documents     *documents.Repository
	Grants        *grants.Repository
	Notifications *notifications.Repository
	Settings      *settings.Repository
}

// Open connects to the configured driver and migrates the schema.
func Open(cfg config.Database, logLevel logger.LogLevel) (*Database, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DatabaseDriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres driver requires DATABASE_DSN")
		}
		dialector = postgres.Open(cfg.DSN)
	case config.DatabaseDriverSQLite, "":
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.Document{},
		&entities.DirectoryGrant{},
		&entities.Notification{},
		&entities.Setting{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if cfg.Driver == config.DatabaseDriverPostgres {
		log.Printf("Database initialized successfully (postgres)")
	} else {
		log.Printf("Database initialized successfully at %s", cfg.Path)
	}

	return &Database{
		DB:            db,
		Books:         books.NewRepository(db),
		Documents:     documents.NewRepository(db),
		Grants:        grants.NewRepository(db),
		Notifications: notifications.NewRepository(db),
		Settings:      settings.NewRepository(db),
	}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks database connectivity.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (d *Database) GetSetting(key string) (*entities.Setting, error) {
	return d.Settings.GetSetting(key)
}

func (d *Database) SetSetting(key, value string) error {
	return d.Settings.SetSetting(key, value)
}

func (d *Database) DeleteSetting(key string) error {
	return d.Settings.DeleteSetting(key)
}

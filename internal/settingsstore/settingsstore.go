package settingsstore

import (
	"errors"
	"os"
	"strconv"

	"gorm.io/gorm"

	"github.com/literarylinc/literarylinc/internal/config"
	"github.com/literarylinc/literarylinc/internal/database"
)

// Sources reported alongside effective values.
const (
	SourceDatabase    = "database"
	SourceEnvironment = "environment"
	SourceDefault     = "default"
)

// Priority: database > environment > default.
// The environment/default value comes from the loaded config; the source is
// reported as "environment" when the matching variable is set.
type SettingsStore struct {
	db  *database.Database
	cfg *config.Config
}

func New(db *database.Database, cfg *config.Config) *SettingsStore {
	return &SettingsStore{db: db, cfg: cfg}
}

func (s *SettingsStore) lookup(key, envVar, fallback string) (string, string) {
	setting, err := s.db.GetSetting(key)
	if err == nil && setting.Value != "" {
		return setting.Value, SourceDatabase
	}
	if os.Getenv(envVar) != "" {
		return fallback, SourceEnvironment
	}
	return fallback, SourceDefault
}

func (s *SettingsStore) lookupBool(key, envVar string, fallback bool) (bool, string) {
	value, source := s.lookup(key, envVar, strconv.FormatBool(fallback))
	return value == "true" || value == "1", source
}

func (s *SettingsStore) clear(keys ...string) error {
	for _, key := range keys {
		if err := s.db.DeleteSetting(key); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	return nil
}

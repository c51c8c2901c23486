package entrypoint

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/literarylinc/literarylinc/internal/bitmaps"
	"github.com/literarylinc/literarylinc/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Database: config.Database{Driver: config.DatabaseDriverSQLite, Path: filepath.Join(dir, "app.db")},
		Library: config.Library{
			CoversDir:           filepath.Join(dir, "covers"),
			BackupDir:           filepath.Join(dir, "backups"),
			BitmapCacheFraction: 8,
		},
		OpenLibrary: config.OpenLibrary{BaseURL: "http://127.0.0.1:0"},
	}
}

func TestNewApp(t *testing.T) {
	cfg := testConfig(t)

	app, err := NewApp(cfg, logger.Silent)
	require.NoError(t, err)
	defer app.Close()

	assert.NoError(t, app.DB.Ping())
	assert.Equal(t, cfg.Library.CoversDir, app.Covers.Dir())
	assert.GreaterOrEqual(t, app.Bitmaps.MaxBytes(), int64(bitmaps.MinCacheBytes))
	assert.NotNil(t, app.Scanner)
	assert.NotNil(t, app.Backups)
	assert.NotNil(t, app.Settings)
}

func TestNewApp_BadDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "oracle"

	_, err := NewApp(cfg, logger.Silent)
	assert.Error(t, err)
}

func TestPruneBitmaps(t *testing.T) {
	cache := bitmaps.NewCache(1 << 20)
	for _, key := range []string{"a.jpg@100", "a.jpg@200", "b.jpg@100"} {
		cache.Put(key, bitmaps.NewBitmap(image.NewRGBA(image.Rect(0, 0, 4, 4))))
	}

	dropped := pruneBitmaps(cache, []string{"a.jpg"})

	assert.Equal(t, 1, dropped)
	assert.Equal(t, 2, cache.Len())
}

func TestNewApp_Auditor(t *testing.T) {
	cfg := testConfig(t)
	app, err := NewApp(cfg, logger.Silent)
	require.NoError(t, err)
	assert.Nil(t, app.Auditor, "auditing is off without a directory")
	require.NoError(t, app.Close())

	cfg.Audit = config.Audit{Dir: filepath.Join(t.TempDir(), "audit"), RetentionDays: 30}
	app, err = NewApp(cfg, logger.Silent)
	require.NoError(t, err)
	defer app.Close()
	require.NotNil(t, app.Auditor)
	assert.Equal(t, cfg.Audit.Dir, app.Auditor.AuditDir)
}

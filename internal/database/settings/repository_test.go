package settings

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/literarylinc/literarylinc/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "settings.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Setting{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return NewRepository(db)
}

func TestRepository_SetSetting_New(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.SetSetting(entities.SettingKeyScanSchedule, "*/15 * * * *"))

	setting, err := repo.GetSetting(entities.SettingKeyScanSchedule)
	require.NoError(t, err)
	assert.Equal(t, entities.SettingKeyScanSchedule, setting.Key)
	assert.Equal(t, "*/15 * * * *", setting.Value)
}

func TestRepository_SetSetting_Update(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.SetSetting(entities.SettingKeyBackupDir, "/a"))
	require.NoError(t, repo.SetSetting(entities.SettingKeyBackupDir, "/b"))

	setting, err := repo.GetSetting(entities.SettingKeyBackupDir)
	require.NoError(t, err)
	assert.Equal(t, "/b", setting.Value)
}

func TestRepository_GetSetting_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetSetting("nonexistent")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_Value(t *testing.T) {
	repo := setupTestDB(t)

	assert.Equal(t, "fallback", repo.Value(entities.SettingKeyBackupDir, "fallback"))

	require.NoError(t, repo.SetSetting(entities.SettingKeyBackupDir, ""))
	assert.Equal(t, "fallback", repo.Value(entities.SettingKeyBackupDir, "fallback"), "empty value falls back")

	require.NoError(t, repo.SetSetting(entities.SettingKeyBackupDir, "/srv/backups"))
	assert.Equal(t, "/srv/backups", repo.Value(entities.SettingKeyBackupDir, "fallback"))
}

func TestRepository_SetMany(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.SetMany(map[string]string{
		entities.SettingKeyBackupLastStatus:  "success",
		entities.SettingKeyBackupLastMessage: "Exported 3 books",
	}))

	assert.Equal(t, "success", repo.Value(entities.SettingKeyBackupLastStatus, ""))
	assert.Equal(t, "Exported 3 books", repo.Value(entities.SettingKeyBackupLastMessage, ""))
}

func TestRepository_DeleteSetting(t *testing.T) {
	repo := setupTestDB(t)
	require.NoError(t, repo.SetSetting(entities.SettingKeyScanEnabled, "true"))

	require.NoError(t, repo.DeleteSetting(entities.SettingKeyScanEnabled))

	_, err := repo.GetSetting(entities.SettingKeyScanEnabled)
	assert.Error(t, err)
}

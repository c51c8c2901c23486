package notifications

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
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "notifications.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Notification{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return NewRepository(db)
}

func TestRepository_Recent(t *testing.T) {
	repo := setupTestDB(t)
	require.NoError(t, repo.Create(&entities.Notification{Channel: entities.ChannelScan, Title: "first", Success: true}))
	require.NoError(t, repo.Create(&entities.Notification{Channel: entities.ChannelBackup, Title: "second", Success: false}))
	require.NoError(t, repo.Create(&entities.Notification{Channel: entities.ChannelScan, Title: "third", Success: true}))

	all, err := repo.Recent("", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Title)

	scans, err := repo.Recent(entities.ChannelScan, 1)
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, "third", scans[0].Title)
}

func TestRepository_DeleteAll(t *testing.T) {
	repo := setupTestDB(t)
	require.NoError(t, repo.Create(&entities.Notification{Channel: entities.ChannelRestore, Title: "x"}))

	n, err := repo.DeleteAll()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

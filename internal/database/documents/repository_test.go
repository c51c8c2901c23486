package documents

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/literarylinc/literarylinc/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "docs.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Document{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return NewRepository(db)
}

func TestRepository_InsertAndKnownURIs(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.InsertMany([]entities.Document{
		{ID: "a", URI: "file:///books/a.pdf", Name: "a.pdf", MimeType: "application/pdf"},
		{ID: "b", URI: "file:///books/b.epub", Name: "b.epub", Metadata: datatypes.JSONMap{"root": "/books"}},
	}))

	known, err := repo.KnownURIs()
	require.NoError(t, err)
	assert.Len(t, known, 2)
	assert.Contains(t, known, "file:///books/a.pdf")

	doc, err := repo.GetByID("b")
	require.NoError(t, err)
	assert.Equal(t, "/books", doc.Metadata["root"])
}

func TestRepository_InsertMany_DuplicateURI(t *testing.T) {
	repo := setupTestDB(t)
	require.NoError(t, repo.InsertMany([]entities.Document{{ID: "a", URI: "file:///a.pdf"}}))

	err := repo.InsertMany([]entities.Document{{ID: "b", URI: "file:///a.pdf"}})
	assert.Error(t, err, "URI is unique")
}

func TestRepository_SetCover(t *testing.T) {
	repo := setupTestDB(t)
	require.NoError(t, repo.InsertMany([]entities.Document{{ID: "a", URI: "file:///a.cbz"}}))

	require.NoError(t, repo.SetCover("a", "a.jpg"))
	doc, err := repo.GetByID("a")
	require.NoError(t, err)
	assert.Equal(t, "a.jpg", doc.CoverFilename)

	assert.ErrorIs(t, repo.SetCover("missing", "x.jpg"), gorm.ErrRecordNotFound)
}

func TestRepository_UpdateProgress(t *testing.T) {
	repo := setupTestDB(t)
	require.NoError(t, repo.InsertMany([]entities.Document{
		{ID: "a", URI: "file:///a.pdf", Name: "a"},
		{ID: "b", URI: "file:///b.pdf", Name: "b"},
	}))

	readAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateProgress("b", 12, 200, readAt))

	doc, err := repo.GetByID("b")
	require.NoError(t, err)
	assert.Equal(t, 12, doc.CurrentPage)
	assert.Equal(t, 200, doc.PageCount)
	require.NotNil(t, doc.LastReadAt)
	assert.True(t, readAt.Equal(*doc.LastReadAt))

	// Recently read documents sort first
	docs, err := repo.All()
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "b", docs[0].ID)

	assert.ErrorIs(t, repo.UpdateProgress("missing", 1, 0, readAt), gorm.ErrRecordNotFound)
}

func TestRepository_Count(t *testing.T) {
	repo := setupTestDB(t)
	require.NoError(t, repo.InsertMany([]entities.Document{{ID: "a", URI: "file:///a.pdf"}}))

	n, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

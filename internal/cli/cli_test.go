package cli

import (
	"archive/zip"
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/literarylinc/literarylinc/internal/config"
	"github.com/literarylinc/literarylinc/internal/entities"
	"github.com/literarylinc/literarylinc/internal/entrypoint"
)

func testFactory(t *testing.T) AppFactory {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Database: config.Database{Driver: config.DatabaseDriverSQLite, Path: filepath.Join(dir, "cli.db")},
		Library:  config.Library{CoversDir: filepath.Join(dir, "covers")},
	}
	return func() (*entrypoint.App, error) {
		return entrypoint.NewApp(cfg, logger.Silent)
	}
}

func execute(t *testing.T, factory AppFactory, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand("test", factory)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeEPUB(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	require.NoError(t, err)
	_, err = w.Write([]byte("application/epub+zip"))
	require.NoError(t, err)
	w, err = zw.Create("OEBPS/content.opf")
	require.NoError(t, err)
	_, err = w.Write([]byte("<package/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
}

func TestGrantAndScan(t *testing.T) {
	factory := testFactory(t)
	library := t.TempDir()
	writeEPUB(t, filepath.Join(library, "book.epub"))
	require.NoError(t, os.WriteFile(filepath.Join(library, "notes.txt"), []byte("hello"), 0644))

	out, err := execute(t, factory, "grant", library)
	require.NoError(t, err)
	assert.Contains(t, out, "Granted")

	out, err = execute(t, factory, "grant")
	require.NoError(t, err)
	assert.Contains(t, out, library)

	out, err = execute(t, factory, "scan", "--skip-covers")
	require.NoError(t, err)
	assert.Contains(t, out, "1 new documents")
	assert.NotContains(t, out, "Generating covers")

	out, err = execute(t, factory, "scan")
	require.NoError(t, err)
	assert.Contains(t, out, "0 new documents")
	assert.Contains(t, out, "1 documents in library")
	assert.Contains(t, out, "1 checked")
}

func TestBackupAndRestore(t *testing.T) {
	factory := testFactory(t)
	app, err := factory()
	require.NoError(t, err)
	require.NoError(t, app.DB.Books.Create(&entities.Book{Title: "Kindred", Author: "Octavia E. Butler"}))
	require.NoError(t, app.Close())

	file := filepath.Join(t.TempDir(), "books.csv")
	out, err := execute(t, factory, "backup", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 books")

	out, err = execute(t, factory, "restore", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 books")

	app, err = factory()
	require.NoError(t, err)
	defer app.Close()
	books, err := app.DB.Books.All()
	require.NoError(t, err)
	assert.Len(t, books, 2, "restore adds rows, it does not merge")

	notes, err := app.DB.Notifications.Recent("", 10)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
}

func TestRestoreReplace(t *testing.T) {
	factory := testFactory(t)
	app, err := factory()
	require.NoError(t, err)
	require.NoError(t, app.DB.Books.Create(&entities.Book{Title: "Dune"}))
	require.NoError(t, app.Close())

	file := filepath.Join(t.TempDir(), "books.csv")
	_, err = execute(t, factory, "backup", file)
	require.NoError(t, err)

	out, err := execute(t, factory, "restore", "--replace", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Replaced 1 books")
	assert.Contains(t, out, "Imported 1 books")

	app, err = factory()
	require.NoError(t, err)
	defer app.Close()
	books, err := app.DB.Books.All()
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
}

func TestRestoreReplaceKeepsCatalogWhenFileMissing(t *testing.T) {
	factory := testFactory(t)
	app, err := factory()
	require.NoError(t, err)
	require.NoError(t, app.DB.Books.Create(&entities.Book{Title: "Dune"}))
	require.NoError(t, app.Close())

	_, err = execute(t, factory, "restore", "--replace", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)

	app, err = factory()
	require.NoError(t, err)
	defer app.Close()
	books, err := app.DB.Books.All()
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestRestoreReplaceKeepsCatalogOnInvalidBackup(t *testing.T) {
	factory := testFactory(t)
	app, err := factory()
	require.NoError(t, err)
	require.NoError(t, app.DB.Books.CreateMany([]entities.Book{{Title: "Dune"}, {Title: "Kindred"}}))
	require.NoError(t, app.Close())

	file := filepath.Join(t.TempDir(), "other.csv")
	require.NoError(t, os.WriteFile(file, []byte("Name,Writer\nNeuromancer,William Gibson\n"), 0644))

	out, err := execute(t, factory, "restore", "--replace", file)
	require.ErrorContains(t, err, "missing required header: Title")
	assert.NotContains(t, out, "Replaced")

	app, err = factory()
	require.NoError(t, err)
	defer app.Close()
	books, err := app.DB.Books.All()
	require.NoError(t, err)
	assert.Len(t, books, 2)
}

func TestRestoreMissingFile(t *testing.T) {
	_, err := execute(t, testFactory(t), "restore", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestBackupRequiresFile(t *testing.T) {
	_, err := execute(t, testFactory(t), "backup")
	assert.Error(t, err)
}

func TestCoversClear(t *testing.T) {
	factory := testFactory(t)
	app, err := factory()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(app.Covers.Dir(), "1.jpg"), []byte("x"), 0644))
	require.NoError(t, app.Close())

	out, err := execute(t, factory, "covers", "list")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "1.jpg\n"))

	out, err = execute(t, factory, "covers", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 1 covers")
}

func TestCoversAdd(t *testing.T) {
	factory := testFactory(t)
	src := filepath.Join(t.TempDir(), "cover.png")
	img := image.NewRGBA(image.Rect(0, 0, 40, 60))
	f, err := os.Create(src)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	out, err := execute(t, factory, "covers", "add", "dune.jpg", src)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved dune.jpg")

	out, err = execute(t, factory, "covers", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "dune.jpg")

	_, err = execute(t, factory, "covers", "add", "../escape.jpg", src)
	assert.Error(t, err)
}

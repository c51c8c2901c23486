package covers

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/literarylinc/literarylinc/internal/entities"
)

// writeZip builds an archive of PNG entries (value is the image width) plus raw text entries.
func writeZip(t *testing.T, name string, entries map[string]int, extra map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for entry, width := range entries {
		w, err := zw.Create(entry)
		require.NoError(t, err)
		_, err = w.Write(pngBytes(t, width, 10))
		require.NoError(t, err)
	}
	for entry, content := range extra {
		w, err := zw.Create(entry)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func TestThumbnail_ComicUsesFirstPageInNaturalOrder(t *testing.T) {
	path := writeZip(t, "akira.cbz", map[string]int{
		"pages/p10.png":     30,
		"pages/p2.png":      20,
		"pages/p1.png":      10,
		"__MACOSX/._p0.png": 99,
	}, map[string]string{"ComicInfo.xml": "<ComicInfo/>"})

	img, entry, err := Thumbnail(context.Background(), path, entities.MimeComicZip)
	require.NoError(t, err)
	assert.Equal(t, "pages/p1.png", entry)
	assert.Equal(t, 10, img.Bounds().Dx())
}

func TestThumbnail_EPUBPrefersCoverEntry(t *testing.T) {
	path := writeZip(t, "book.epub", map[string]int{
		"OEBPS/images/a-figure.png": 11,
		"OEBPS/images/Cover.png":    22,
	}, map[string]string{"mimetype": "application/epub+zip"})

	img, entry, err := Thumbnail(context.Background(), path, entities.MimeEPUB)
	require.NoError(t, err)
	assert.Equal(t, "OEBPS/images/Cover.png", entry)
	assert.Equal(t, 22, img.Bounds().Dx())
}

func TestThumbnail_SkipsUndecodableEntries(t *testing.T) {
	path := writeZip(t, "broken.cbz", map[string]int{"002.png": 15}, map[string]string{"001.jpg": "garbage"})

	_, entry, err := Thumbnail(context.Background(), path, entities.MimeComicZip)
	require.NoError(t, err)
	assert.Equal(t, "002.png", entry)
}

func TestThumbnail_NoImages(t *testing.T) {
	path := writeZip(t, "empty.cbz", nil, map[string]string{"readme.txt": "hi"})

	_, _, err := Thumbnail(context.Background(), path, entities.MimeComicZip)
	assert.ErrorIs(t, err, ErrNoImages)
}

func TestThumbnail_Unsupported(t *testing.T) {
	for _, mime := range []string{entities.MimePDF, entities.MimeComicRar, "text/plain"} {
		_, _, err := Thumbnail(context.Background(), "/does/not/matter", mime)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, mime)
	}
}

func TestThumbnail_NotAnArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.cbz")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0644))

	_, _, err := Thumbnail(context.Background(), path, entities.MimeComicZip)
	assert.ErrorContains(t, err, "open archive")
}

func TestNaturalCompare(t *testing.T) {
	assert.Negative(t, naturalCompare("p2", "p10"))
	assert.Positive(t, naturalCompare("p10", "p2"))
	assert.Negative(t, naturalCompare("page", "page1"))
	assert.Zero(t, naturalCompare("P01", "p1"))
	assert.Negative(t, naturalCompare("a9z", "b1"))
}

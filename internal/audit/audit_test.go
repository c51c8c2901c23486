package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditor(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "audit")
	auditor := NewAuditor(tempDir)

	t.Run("SaveUpload creates audit directory and saves file", func(t *testing.T) {
		filename, err := auditor.SaveUpload("csv", strings.NewReader("Title\nDune\n"))
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(filename, ".csv"))

		content, err := os.ReadFile(filepath.Join(tempDir, filename))
		require.NoError(t, err)
		assert.Equal(t, "Title\nDune\n", string(content))
	})

	t.Run("SaveUpload generates unique filenames", func(t *testing.T) {
		filename1, err := auditor.SaveUpload(".csv", strings.NewReader("a"))
		require.NoError(t, err)
		filename2, err := auditor.SaveUpload(".csv", strings.NewReader("a"))
		require.NoError(t, err)
		assert.NotEqual(t, filename1, filename2)
	})
}

func TestAuditor_Prune(t *testing.T) {
	dir := t.TempDir()
	auditor := NewAuditor(dir)

	oldName, err := auditor.SaveUpload(".csv", strings.NewReader("old"))
	require.NoError(t, err)
	newName, err := auditor.SaveUpload(".csv", strings.NewReader("new"))
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, oldName), past, past))

	removed, err := auditor.Prune(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, filepath.Join(dir, oldName))
	assert.FileExists(t, filepath.Join(dir, newName))
}

func TestAuditor_PruneMissingDir(t *testing.T) {
	removed, err := NewAuditor(filepath.Join(t.TempDir(), "nope")).Prune(time.Hour)
	assert.NoError(t, err)
	assert.Zero(t, removed)
}

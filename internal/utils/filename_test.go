package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimBookExtension(t *testing.T) {
	assert.Equal(t, "Dune", TrimBookExtension("Dune.epub"))
	assert.Equal(t, "Dune", TrimBookExtension("Dune.FB2.ZIP"))
	assert.Equal(t, "Akira v01", TrimBookExtension("Akira v01.cbz"))
	assert.Equal(t, "notes", TrimBookExtension("notes.txt"))
	assert.Equal(t, "README", TrimBookExtension("README"))
}

func TestParseTitleAuthor(t *testing.T) {
	tests := []struct {
		filename string
		title    string
		author   string
	}{
		{"Dune - Frank Herbert.epub", "Dune", "Frank Herbert"},
		{"/books/Spider-Man - Stan Lee.pdf", "Spider-Man", "Stan Lee"},
		{"Akira_v01 (1984) (Digital).cbz", "Akira v01", ""},
		{"Foo - Bar - Baz.pdf", "Foo - Bar", "Baz"},
		{"plain.pdf", "plain", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			title, author := ParseTitleAuthor(tt.filename)
			assert.Equal(t, tt.title, title)
			assert.Equal(t, tt.author, author)
		})
	}
}

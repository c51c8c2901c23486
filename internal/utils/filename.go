package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
	// Release-group style tags, e.g. "(2019) (Digital) [Scans]"
	bracketTags = regexp.MustCompile(`\s*[\(\[][^\)\]]*[\)\]]`)
)

// KnownBookExtensions contains file extensions commonly used for e-books and comics.
// Multi-part extensions come first so they are stripped whole.
var KnownBookExtensions = []string{
	".fb2.zip",
	".fb2",
	".epub",
	".pdf",
	".cbz",
	".cbr",
	".mobi",
	".azw3",
	".djvu",
}

// TrimBookExtension strips a known book extension, falling back to the last extension.
func TrimBookExtension(filename string) string {
	lower := strings.ToLower(filename)
	for _, ext := range KnownBookExtensions {
		if strings.HasSuffix(lower, ext) {
			return filename[:len(filename)-len(ext)]
		}
	}
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// ParseTitleAuthor guesses title and author from a file name.
// Files are commonly named "Title - Author.ext"; anything else is treated as a bare title.
func ParseTitleAuthor(filename string) (title, author string) {
	base := TrimBookExtension(filepath.Base(filename))
	base = bracketTags.ReplaceAllString(base, "")
	base = strings.ReplaceAll(base, "_", " ")
	base = multipleSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	if idx := strings.LastIndex(base, " - "); idx > 0 {
		title = strings.TrimSpace(base[:idx])
		author = strings.TrimSpace(base[idx+3:])
		return title, author
	}
	return base, ""
}

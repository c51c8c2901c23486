// Package backup serializes the book catalog to and from CSV.
//
// The column layout is fixed. Changing the order or the header names breaks
// restores of existing backup files, so Columns is the single source of truth
// for both directions.
package backup

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/literarylinc/literarylinc/internal/entities"
)

// DateLayout is the human-readable date format written to backups.
const DateLayout = "Jan 2, 2006"

const (
	ColTitle       = "Title"
	ColAuthor      = "Author"
	ColPagesRead   = "Pages Read"
	ColTotalPages  = "Total Pages"
	ColVolumesRead = "Volumes Read"
	ColStartDate   = "Start Date"
	ColEndDate     = "End Date"
	ColRating      = "Rating"
	ColISBN        = "ISBN"
	ColGenre       = "Genre"
	ColType        = "Type"
	ColCover       = "Cover"
	ColNotes       = "Notes"
	ColStatus      = "Status"
)

// Columns is the header row, in file order.
var Columns = []string{
	ColTitle,
	ColAuthor,
	ColPagesRead,
	ColTotalPages,
	ColVolumesRead,
	ColStartDate,
	ColEndDate,
	ColRating,
	ColISBN,
	ColGenre,
	ColType,
	ColCover,
	ColNotes,
	ColStatus,
}

// BookStore is the catalog access the manager needs.
type BookStore interface {
	All() ([]entities.Book, error)
	CreateMany(books []entities.Book) error
	ReplaceAll(books []entities.Book) (int64, error)
}

// ErrEmptyBackup is returned by Replace when no row of the backup is usable.
var ErrEmptyBackup = errors.New("backup contains no books")

// ImportResult summarises a restore.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Replaced int64    `json:"replaced,omitempty"` // books removed by Replace
	Errors   []string `json:"errors,omitempty"`
}

// Manager exports and imports the catalog.
type Manager struct {
	store BookStore
}

// NewManager creates a CSV manager over the given store.
func NewManager(store BookStore) *Manager {
	return &Manager{store: store}
}

// Export writes the header and one row per book. Any write error aborts the
// export; rows already written are not reported individually.
func (m *Manager) Export(ctx context.Context, w io.Writer) (int, error) {
	books, err := m.store.All()
	if err != nil {
		return 0, fmt.Errorf("load books: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	for i := range books {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := writer.Write(bookToRecord(&books[i])); err != nil {
			return 0, fmt.Errorf("write book %d: %w", books[i].ID, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	return len(books), nil
}

// ExportFile writes the backup to path atomically via a temp file in the same directory.
func (m *Manager) ExportFile(ctx context.Context, path string) (int, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("create backup dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".backup_tmp_")
	if err != nil {
		return 0, err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath) // no-op after a successful rename
	}()

	n, err := m.Export(ctx, tmpFile)
	if err != nil {
		return 0, err
	}
	if err := tmpFile.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return 0, err
	}
	return n, nil
}

// Import reads a backup and inserts every valid row as a new book.
// Columns are matched by header name; optional columns may be missing.
func (m *Manager) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	books, result, err := parse(ctx, r)
	if err != nil {
		return nil, err
	}
	if err := m.store.CreateMany(books); err != nil {
		return nil, fmt.Errorf("save books: %w", err)
	}
	result.Imported = len(books)

	log.Printf("[BACKUP] Imported %d books (%d skipped, %d warnings)", result.Imported, result.Skipped, len(result.Errors))
	return result, nil
}

// Replace swaps the whole catalog for the rows of a backup. The file is parsed
// before anything is deleted, and the store replaces the rows in one
// transaction, so a bad file leaves the catalog as it was.
func (m *Manager) Replace(ctx context.Context, r io.Reader) (*ImportResult, error) {
	books, result, err := parse(ctx, r)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, ErrEmptyBackup
	}
	deleted, err := m.store.ReplaceAll(books)
	if err != nil {
		return nil, fmt.Errorf("replace books: %w", err)
	}
	result.Imported = len(books)
	result.Replaced = deleted

	log.Printf("[BACKUP] Replaced %d books with %d from backup (%d skipped)", deleted, result.Imported, result.Skipped)
	return result, nil
}

// ReplaceFile replaces the catalog from a backup file on disk.
func (m *Manager) ReplaceFile(ctx context.Context, path string) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open backup: %w", err)
	}
	defer f.Close()
	return m.Replace(ctx, f)
}

// parse reads every row of a backup without touching the store.
func parse(ctx context.Context, r io.Reader) ([]entities.Book, *ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Tolerate rows written by older or trimmed exports

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	headerIndex := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff") // spreadsheet tools like to add a BOM
		headerIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := headerIndex[strings.ToLower(ColTitle)]; !ok {
		return nil, nil, fmt.Errorf("missing required header: %s", ColTitle)
	}

	result := &ImportResult{}
	var books []entities.Book
	lineNum := 1

	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		lineNum++
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Line %d: %v", lineNum, err))
			continue
		}

		book, warnings := recordToBook(record, headerIndex)
		for _, w := range warnings {
			result.Errors = append(result.Errors, fmt.Sprintf("Line %d: %s", lineNum, w))
		}
		if book.Title == "" {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Line %d: skipped - missing title", lineNum))
			continue
		}
		books = append(books, book)
	}
	return books, result, nil
}

// ImportFile restores from a backup file on disk.
func (m *Manager) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open backup: %w", err)
	}
	defer f.Close()
	return m.Import(ctx, f)
}

func bookToRecord(b *entities.Book) []string {
	return []string{
		b.Title,
		b.Author,
		strconv.Itoa(b.PagesRead),
		strconv.Itoa(b.TotalPages),
		strconv.Itoa(b.VolumesRead),
		formatDate(b.StartDate),
		formatDate(b.EndDate),
		strconv.FormatFloat(b.Rating, 'f', -1, 64),
		b.ISBN,
		b.Genre,
		string(b.Type),
		b.CoverFilename,
		b.Notes,
		string(b.Status),
	}
}

func recordToBook(record []string, headerIndex map[string]int) (entities.Book, []string) {
	var warnings []string
	get := func(col string) string {
		return getCSVValue(record, headerIndex, strings.ToLower(col))
	}
	atoi := func(col string) int {
		v := get(col)
		if v == "" {
			return 0
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("invalid %s %q", col, v))
			return 0
		}
		return n
	}
	date := func(col string) *time.Time {
		v := get(col)
		if v == "" {
			return nil
		}
		t, err := parseDate(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("invalid %s %q", col, v))
			return nil
		}
		return &t
	}

	book := entities.Book{
		Title:         get(ColTitle),
		Author:        get(ColAuthor),
		PagesRead:     atoi(ColPagesRead),
		TotalPages:    atoi(ColTotalPages),
		VolumesRead:   atoi(ColVolumesRead),
		StartDate:     date(ColStartDate),
		EndDate:       date(ColEndDate),
		ISBN:          get(ColISBN),
		Genre:         get(ColGenre),
		CoverFilename: get(ColCover),
		Notes:         getRawCSVValue(record, headerIndex, strings.ToLower(ColNotes)),
	}

	if v := get(ColRating); v != "" {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("invalid %s %q", ColRating, v))
		} else {
			book.Rating = rating
		}
	}

	if v := get(ColType); v != "" {
		t, ok := entities.ParseBookType(strings.ToLower(v))
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown %s %q", ColType, v))
		}
		book.Type = t
	} else {
		book.Type = entities.BookTypeBook
	}

	if v := get(ColStatus); v != "" {
		s, ok := entities.ParseBookStatus(strings.ToLower(v))
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown %s %q", ColStatus, v))
		}
		book.Status = s
	} else {
		book.Status = entities.BookStatusWantToRead
	}

	return book, warnings
}

func getCSVValue(record []string, headerIndex map[string]int, header string) string {
	return strings.TrimSpace(getRawCSVValue(record, headerIndex, header))
}

// getRawCSVValue keeps surrounding whitespace, which matters for free-text notes.
func getRawCSVValue(record []string, headerIndex map[string]int, header string) string {
	if idx, ok := headerIndex[header]; ok && idx < len(record) {
		return record[idx]
	}
	return ""
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func parseDate(s string) (time.Time, error) {
	formats := []string{
		DateLayout,
		"2006-01-02",
		time.RFC3339,
		"Jan 02, 2006",
		"January 2, 2006",
		"02/01/2006",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

// Package books provides database operations for the book catalog.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetByID(123)
//	stats, err := repo.Stats()
package books

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/literarylinc/literarylinc/internal/entities"
)

// ErrTitleRequired is returned when a book has no title once trimmed.
var ErrTitleRequired = errors.New("book title is required")

// ListFilter narrows a book listing. Zero values mean "no filter".
type ListFilter struct {
	Query  string
	Status entities.BookStatus
	Type   entities.BookType
	SortBy string // "title", "author", "rating", "updated" (default: title)
	Limit  int
	Offset int
}

var sortColumns = map[string]string{
	"title":   "title ASC",
	"author":  "author ASC, title ASC",
	"rating":  "rating DESC, title ASC",
	"updated": "updated_at DESC",
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetByID retrieves a book by its ID.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// All returns every book ordered by ID, which keeps exports stable.
func (r *Repository) All() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Order("id ASC").Find(&books).Error
	return books, err
}

// List returns books matching the filter and the total count before paging.
func (r *Repository) List(filter ListFilter) ([]entities.Book, int64, error) {
	query := r.db.Model(&entities.Book{})

	if filter.Query != "" {
		pattern := "%" + strings.ToLower(filter.Query) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ? OR LOWER(genre) LIKE ?", pattern, pattern, pattern)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := sortColumns[filter.SortBy]
	if !ok {
		order = sortColumns["title"]
	}
	query = query.Order(order)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var books []entities.Book
	err := query.Find(&books).Error
	return books, total, err
}

// Create inserts a new book.
func (r *Repository) Create(book *entities.Book) error {
	if err := normalize(book); err != nil {
		return err
	}
	return r.db.Create(book).Error
}

// CreateMany inserts books in batches. No deduplication is performed.
func (r *Repository) CreateMany(books []entities.Book) error {
	if len(books) == 0 {
		return nil
	}
	if err := normalizeAll(books); err != nil {
		return err
	}
	return r.db.CreateInBatches(books, 100).Error
}

// Update saves all fields of an existing book.
func (r *Repository) Update(book *entities.Book) error {
	if book.ID == 0 {
		return fmt.Errorf("book ID is required for update")
	}
	if _, err := r.GetByID(book.ID); err != nil {
		return err
	}
	if err := normalize(book); err != nil {
		return err
	}
	return r.db.Save(book).Error
}

// Delete removes a single book.
func (r *Repository) Delete(id uint) error {
	result := r.db.Delete(&entities.Book{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteMany removes the given books and returns how many were deleted.
func (r *Repository) DeleteMany(ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Where("id IN ?", ids).Delete(&entities.Book{})
	return result.RowsAffected, result.Error
}

// ReplaceAll deletes every book and inserts books in a single transaction.
// It returns the number of books deleted.
func (r *Repository) ReplaceAll(books []entities.Book) (int64, error) {
	if err := normalizeAll(books); err != nil {
		return 0, err
	}

	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entities.Book{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		if len(books) == 0 {
			return nil
		}
		return tx.CreateInBatches(books, 100).Error
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// normalize trims the single-line text fields and fills enum defaults, so
// what is stored is exactly what a backup writes and reads back.
func normalize(book *entities.Book) error {
	book.Title = strings.TrimSpace(book.Title)
	book.Author = strings.TrimSpace(book.Author)
	book.ISBN = strings.TrimSpace(book.ISBN)
	book.Genre = strings.TrimSpace(book.Genre)
	book.CoverFilename = strings.TrimSpace(book.CoverFilename)
	if book.Title == "" {
		return ErrTitleRequired
	}
	if _, ok := entities.ParseBookType(string(book.Type)); !ok {
		book.Type = entities.BookTypeBook
	}
	if _, ok := entities.ParseBookStatus(string(book.Status)); !ok {
		book.Status = entities.BookStatusWantToRead
	}
	return nil
}

func normalizeAll(books []entities.Book) error {
	for i := range books {
		if err := normalize(&books[i]); err != nil {
			return fmt.Errorf("book %d: %w", i+1, err)
		}
	}
	return nil
}

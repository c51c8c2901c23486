// Package documents provides database operations for scanned documents.
package documents

import (
	"time"

	"gorm.io/gorm"

	"github.com/literarylinc/literarylinc/internal/entities"
)

// Repository handles all document database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new documents repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// All returns every document, most recently read first.
func (r *Repository) All() ([]entities.Document, error) {
	var docs []entities.Document
	err := r.db.Order("last_read_at IS NULL, last_read_at DESC, name ASC").Find(&docs).Error
	return docs, err
}

// GetByID retrieves a document by its ID.
func (r *Repository) GetByID(id string) (*entities.Document, error) {
	var doc entities.Document
	if err := r.db.Where("id = ?", id).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// KnownURIs returns the set of content URIs already stored.
func (r *Repository) KnownURIs() (map[string]struct{}, error) {
	var uris []string
	if err := r.db.Model(&entities.Document{}).Pluck("uri", &uris).Error; err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(uris))
	for _, u := range uris {
		known[u] = struct{}{}
	}
	return known, nil
}

// InsertMany stores newly discovered documents.
func (r *Repository) InsertMany(docs []entities.Document) error {
	if len(docs) == 0 {
		return nil
	}
	return r.db.CreateInBatches(docs, 100).Error
}

// SetCover records the cover filename generated for a document.
func (r *Repository) SetCover(id, coverFilename string) error {
	result := r.db.Model(&entities.Document{}).Where("id = ?", id).Update("cover_filename", coverFilename)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateProgress stores the reader position and marks the document as read now.
func (r *Repository) UpdateProgress(id string, currentPage, pageCount int, readAt time.Time) error {
	updates := map[string]any{
		"current_page": currentPage,
		"last_read_at": readAt,
	}
	if pageCount > 0 {
		updates["page_count"] = pageCount
	}
	result := r.db.Model(&entities.Document{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Count returns the number of stored documents.
func (r *Repository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&entities.Document{}).Count(&n).Error
	return n, err
}

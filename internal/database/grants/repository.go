// Package grants stores the directories the user allowed the scanner to read.
package grants

import (
	"errors"
	"fmt"
	"path/filepath"

	"gorm.io/gorm"

	"github.com/literarylinc/literarylinc/internal/entities"
)

// Repository handles directory grant database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new grants repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add persists a grant for dir. Granting the same directory twice returns the existing grant.
func (r *Repository) Add(dir string) (*entities.DirectoryGrant, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve directory: %w", err)
	}
	abs = filepath.Clean(abs)

	var existing entities.DirectoryGrant
	err = r.db.Where("path = ?", abs).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	grant := &entities.DirectoryGrant{Path: abs}
	if err := r.db.Create(grant).Error; err != nil {
		return nil, err
	}
	return grant, nil
}

// List returns all grants ordered by path.
func (r *Repository) List() ([]entities.DirectoryGrant, error) {
	var grants []entities.DirectoryGrant
	err := r.db.Order("path ASC").Find(&grants).Error
	return grants, err
}

// Remove revokes a grant. Documents found under it are kept.
func (r *Repository) Remove(id uint) error {
	result := r.db.Delete(&entities.DirectoryGrant{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

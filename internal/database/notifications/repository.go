// Package notifications persists job completion notifications.
package notifications

import (
	"gorm.io/gorm"

	"github.com/literarylinc/literarylinc/internal/entities"
)

// Repository handles notification database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new notifications repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(n *entities.Notification) error {
	return r.db.Create(n).Error
}

// Recent returns the newest notifications, optionally limited to one channel.
func (r *Repository) Recent(channel entities.NotificationChannel, limit int) ([]entities.Notification, error) {
	query := r.db.Order("created_at DESC, id DESC")
	if channel != "" {
		query = query.Where("channel = ?", channel)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var items []entities.Notification
	err := query.Find(&items).Error
	return items, err
}

// DeleteAll clears the notification history.
func (r *Repository) DeleteAll() (int64, error) {
	result := r.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entities.Notification{})
	return result.RowsAffected, result.Error
}

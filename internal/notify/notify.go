// Package notify delivers job outcome notifications.
package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/literarylinc/literarylinc/internal/entities"
)

type Notifier interface {
	Notify(ctx context.Context, n entities.Notification) error
}

type Store interface {
	Create(n *entities.Notification) error
}

// StoreNotifier persists notifications so the UI can show them, and logs them.
type StoreNotifier struct {
	store Store
}

func NewStoreNotifier(store Store) *StoreNotifier {
	return &StoreNotifier{store: store}
}

func (s *StoreNotifier) Notify(ctx context.Context, n entities.Notification) error {
	logNotification(n)
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.store.Create(&n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

type logNotifier struct{}

// Log writes notifications to the standard logger only.
var Log Notifier = logNotifier{}

func (logNotifier) Notify(_ context.Context, n entities.Notification) error {
	logNotification(n)
	return nil
}

func logNotification(n entities.Notification) {
	status := "OK"
	if !n.Success {
		status = "FAILED"
	}
	log.Printf("[NOTIFY] [%s] %s %s: %s", n.Channel, status, n.Title, n.Message)
}

// Success builds a successful notification.
func Success(channel entities.NotificationChannel, title, message string) entities.Notification {
	return entities.Notification{Channel: channel, Title: title, Message: message, Success: true}
}

// Failure builds a failure notification carrying the error message.
func Failure(channel entities.NotificationChannel, title string, err error) entities.Notification {
	return entities.Notification{Channel: channel, Title: title, Message: err.Error()}
}

package entities

import "time"

type NotificationChannel string

const (
	ChannelScan    NotificationChannel = "scan"
	ChannelCovers  NotificationChannel = "covers"
	ChannelBackup  NotificationChannel = "backup"
	ChannelRestore NotificationChannel = "restore"
)

type Notification struct {
	ID        uint                `gorm:"primaryKey" json:"id"`
	Channel   NotificationChannel `gorm:"index;size:20" json:"channel"`
	Title     string              `gorm:"size:256" json:"title"`
	Message   string              `gorm:"type:text" json:"message"`
	Success   bool                `json:"success"`
	CreatedAt time.Time           `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

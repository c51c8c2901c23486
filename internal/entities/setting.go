package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// Scan schedule settings
	SettingKeyScanEnabled     = "scan_enabled"
	SettingKeyScanSchedule    = "scan_schedule"
	SettingKeyScanLastAt      = "scan_last_at"
	SettingKeyScanLastStatus  = "scan_last_status"
	SettingKeyScanLastMessage = "scan_last_message"

	// Backup settings
	SettingKeyBackupEnabled     = "backup_enabled"
	SettingKeyBackupDir         = "backup_dir"
	SettingKeyBackupSchedule    = "backup_schedule"
	SettingKeyBackupLastAt      = "backup_last_at"
	SettingKeyBackupLastStatus  = "backup_last_status"
	SettingKeyBackupLastMessage = "backup_last_message"
)

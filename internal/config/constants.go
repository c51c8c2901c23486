package config

// Default on-disk locations
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./literarylinc.db"

	// DefaultCoversDir is where cover thumbnails are stored
	DefaultCoversDir = "./covers"

	// DefaultBackupDir is where scheduled CSV backups are written
	DefaultBackupDir = "./backups"
)

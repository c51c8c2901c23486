package entities

import (
	"time"

	"gorm.io/datatypes"
)

// Document is a readable file discovered by the file scan.
type Document struct {
	ID            string            `gorm:"primaryKey;size:36" json:"id"`
	URI           string            `gorm:"uniqueIndex;size:2048" json:"uri"`
	Name          string            `gorm:"size:512" json:"name"`
	MimeType      string            `gorm:"index;size:100" json:"mime_type"`
	SizeBytes     int64             `json:"size_bytes"`
	CoverFilename string            `gorm:"size:255" json:"cover_filename,omitempty"`
	PageCount     int               `json:"page_count"`
	CurrentPage   int               `json:"current_page"`
	LastReadAt    *time.Time        `json:"last_read_at,omitempty"`
	Metadata      datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`

	// Available is computed when listing; the backing file is not checked on scan.
	Available bool `gorm:"-" json:"available"`
}

func (Document) TableName() string {
	return "documents"
}

// DirectoryGrant is a root directory the user allowed the scanner to read.
type DirectoryGrant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Path      string    `gorm:"uniqueIndex;size:1024" json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

func (DirectoryGrant) TableName() string {
	return "directory_grants"
}

// Document MIME types the scanner accepts.
const (
	MimePDF      = "application/pdf"
	MimeEPUB     = "application/epub+zip"
	MimeComicZip = "application/vnd.comicbook+zip"
	MimeComicRar = "application/vnd.comicbook-rar"
)

// DocumentMimeTypes is the scan allow-list.
var DocumentMimeTypes = []string{MimePDF, MimeEPUB, MimeComicZip, MimeComicRar}

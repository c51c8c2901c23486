package entities

import (
	"time"
)

type BookType string

const (
	BookTypeBook       BookType = "book"
	BookTypeEBook      BookType = "ebook"
	BookTypeAudiobook  BookType = "audiobook"
	BookTypeComic      BookType = "comic"
	BookTypeManga      BookType = "manga"
	BookTypeLightNovel BookType = "light_novel"
)

// BookTypes lists every valid BookType in display order.
var BookTypes = []BookType{
	BookTypeBook,
	BookTypeEBook,
	BookTypeAudiobook,
	BookTypeComic,
	BookTypeManga,
	BookTypeLightNovel,
}

// ParseBookType returns the matching BookType, or false for unknown values.
func ParseBookType(s string) (BookType, bool) {
	for _, t := range BookTypes {
		if string(t) == s {
			return t, true
		}
	}
	return BookTypeBook, false
}

type BookStatus string

const (
	BookStatusWantToRead BookStatus = "want_to_read"
	BookStatusReading    BookStatus = "reading"
	BookStatusFinished   BookStatus = "finished"
	BookStatusOnHold     BookStatus = "on_hold"
	BookStatusDropped    BookStatus = "dropped"
)

var BookStatuses = []BookStatus{
	BookStatusWantToRead,
	BookStatusReading,
	BookStatusFinished,
	BookStatusOnHold,
	BookStatusDropped,
}

// ParseBookStatus returns the matching BookStatus, or false for unknown values.
func ParseBookStatus(s string) (BookStatus, bool) {
	for _, st := range BookStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return BookStatusWantToRead, false
}

type Book struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Title         string     `gorm:"index;size:512" json:"title" validate:"required,max=512"`
	Author        string     `gorm:"index;size:256" json:"author" validate:"max=256"`
	PagesRead     int        `json:"pages_read" validate:"gte=0"`
	TotalPages    int        `json:"total_pages" validate:"gte=0"`
	VolumesRead   int        `json:"volumes_read" validate:"gte=0"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Rating        float64    `json:"rating" validate:"gte=0,lte=5"`
	ISBN          string     `gorm:"index;size:20" json:"isbn,omitempty" validate:"max=20"`
	Genre         string     `gorm:"size:128" json:"genre,omitempty" validate:"max=128"`
	Type          BookType   `gorm:"size:20;default:'book'" json:"type"`
	CoverFilename string     `gorm:"size:255" json:"cover_filename,omitempty"`
	Notes         string     `gorm:"type:text" json:"notes,omitempty"`
	Status        BookStatus `gorm:"index;size:20;default:'want_to_read'" json:"status"`
	ContentHash   string     `gorm:"index;size:32" json:"content_hash,omitempty"` // md5 of the source content
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

// Progress returns the fraction of pages read in the range 0.0-1.0.
func (b *Book) Progress() float64 {
	if b.TotalPages <= 0 {
		return 0
	}
	p := float64(b.PagesRead) / float64(b.TotalPages)
	if p > 1 {
		return 1
	}
	return p
}

// ReadingStats summarises the catalog.
type ReadingStats struct {
	TotalBooks      int64                `json:"total_books"`
	ByStatus        map[BookStatus]int64 `json:"by_status"`
	ByType          map[BookType]int64   `json:"by_type"`
	PagesRead       int64                `json:"pages_read"`
	VolumesRead     int64                `json:"volumes_read"`
	AverageRating   float64              `json:"average_rating"`
	ReadingProgress float64              `json:"reading_progress"` // mean Progress of books being read
	FinishedByYear  map[int]int64        `json:"finished_by_year"`
}

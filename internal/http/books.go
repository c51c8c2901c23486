package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/literarylinc/literarylinc/internal/database/books"
	"github.com/literarylinc/literarylinc/internal/entities"
)

// BookRequest is the editable part of a book.
type BookRequest struct {
	Title         string     `json:"title" validate:"required,max=512"`
	Author        string     `json:"author" validate:"max=256"`
	PagesRead     int        `json:"pages_read" validate:"gte=0"`
	TotalPages    int        `json:"total_pages" validate:"gte=0"`
	VolumesRead   int        `json:"volumes_read" validate:"gte=0"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	Rating        float64    `json:"rating" validate:"gte=0,lte=5"`
	ISBN          string     `json:"isbn" validate:"max=20"`
	Genre         string     `json:"genre" validate:"max=128"`
	Type          string     `json:"type" validate:"omitempty,oneof=book ebook audiobook comic manga light_novel"`
	Status        string     `json:"status" validate:"omitempty,oneof=want_to_read reading finished on_hold dropped"`
	CoverFilename string     `json:"cover_filename" validate:"max=255"`
	Notes         string     `json:"notes"`
}

// trim strips the single-line text fields the way the store does, so a
// blank title fails validation instead of being saved.
func (r *BookRequest) trim() {
	r.Title = strings.TrimSpace(r.Title)
	r.Author = strings.TrimSpace(r.Author)
	r.ISBN = strings.TrimSpace(r.ISBN)
	r.Genre = strings.TrimSpace(r.Genre)
	r.CoverFilename = strings.TrimSpace(r.CoverFilename)
}

func (r *BookRequest) apply(book *entities.Book) {
	book.Title = r.Title
	book.Author = r.Author
	book.PagesRead = r.PagesRead
	book.TotalPages = r.TotalPages
	book.VolumesRead = r.VolumesRead
	book.StartDate = r.StartDate
	book.EndDate = r.EndDate
	book.Rating = r.Rating
	book.ISBN = r.ISBN
	book.Genre = r.Genre
	book.Type, _ = entities.ParseBookType(r.Type)
	book.Status, _ = entities.ParseBookStatus(r.Status)
	book.CoverFilename = r.CoverFilename
	book.Notes = r.Notes
}

// BulkDeleteRequest selects books to delete.
type BulkDeleteRequest struct {
	IDs []uint `json:"ids" validate:"required,min=1,dive,gt=0"`
}

type BooksController struct {
	store    BookStore
	validate *validator.Validate
}

func NewBooksController(store BookStore) *BooksController {
	return &BooksController{
		store:    store,
		validate: validator.New(),
	}
}

// ListBooks handles GET /api/books
func (bc *BooksController) ListBooks(c *gin.Context) {
	limit, offset := parsePagination(c, 50, 500)
	filter := books.ListFilter{
		Query:  c.Query("q"),
		SortBy: c.Query("sort"),
		Limit:  limit,
		Offset: offset,
	}

	if s := c.Query("status"); s != "" {
		status, ok := entities.ParseBookStatus(s)
		if !ok {
			respondBadRequest(c, "invalid status")
			return
		}
		filter.Status = status
	}
	if t := c.Query("type"); t != "" {
		bookType, ok := entities.ParseBookType(t)
		if !ok {
			respondBadRequest(c, "invalid type")
			return
		}
		filter.Type = bookType
	}

	items, total, err := bc.store.List(filter)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    items,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(items)) < total,
	})
}

// GetBook handles GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.store.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// CreateBook handles POST /api/books
func (bc *BooksController) CreateBook(c *gin.Context) {
	req, ok := bc.bindBook(c)
	if !ok {
		return
	}

	var book entities.Book
	req.apply(&book)
	if err := bc.store.Create(&book); err != nil {
		respondInternalError(c, err, "create book")
		return
	}
	respondCreated(c, book)
}

// UpdateBook handles PUT /api/books/:id
func (bc *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	req, ok := bc.bindBook(c)
	if !ok {
		return
	}

	book, err := bc.store.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "load book")
		return
	}

	req.apply(book)
	if err := bc.store.Update(book); err != nil {
		respondInternalError(c, err, "update book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// DeleteBook handles DELETE /api/books/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := bc.store.Delete(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "delete book")
		return
	}
	respondSuccess(c, "book deleted")
}

// DeleteBooks handles POST /api/books/delete
func (bc *BooksController) DeleteBooks(c *gin.Context) {
	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if err := bc.validate.Struct(req); err != nil {
		respondValidationError(c, err)
		return
	}

	deleted, err := bc.store.DeleteMany(req.IDs)
	if err != nil {
		respondInternalError(c, err, "delete books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// GetStats handles GET /api/stats
func (bc *BooksController) GetStats(c *gin.Context) {
	stats, err := bc.store.Stats()
	if err != nil {
		respondInternalError(c, err, "reading stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (bc *BooksController) bindBook(c *gin.Context) (*BookRequest, bool) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return nil, false
	}
	req.trim()
	if err := bc.validate.Struct(req); err != nil {
		respondValidationError(c, err)
		return nil, false
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		respondBadRequest(c, "end_date must not be before start_date")
		return nil, false
	}
	return &req, true
}

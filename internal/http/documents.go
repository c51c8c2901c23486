package http

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/literarylinc/literarylinc/internal/entities"
	"github.com/literarylinc/literarylinc/internal/scanner"
)

// DocumentsController serves scanned documents and reading progress.
type DocumentsController struct {
	store DocumentStore
	now   func() time.Time
}

func NewDocumentsController(store DocumentStore) *DocumentsController {
	return &DocumentsController{store: store, now: time.Now}
}

// ProgressRequest records the reader position in a document.
type ProgressRequest struct {
	CurrentPage int `json:"current_page"`
	PageCount   int `json:"page_count"`
}

// ListDocuments handles GET /api/documents
// Availability is checked here rather than during scans.
func (dc *DocumentsController) ListDocuments(c *gin.Context) {
	docs, err := dc.store.All()
	if err != nil {
		respondInternalError(c, err, "list documents")
		return
	}
	for i := range docs {
		docs[i].Available = fileAvailable(&docs[i])
	}
	c.JSON(http.StatusOK, gin.H{
		"documents": docs,
		"total":     len(docs),
	})
}

// GetDocument handles GET /api/documents/:id
func (dc *DocumentsController) GetDocument(c *gin.Context) {
	doc, ok := dc.load(c)
	if !ok {
		return
	}
	doc.Available = fileAvailable(doc)
	c.JSON(http.StatusOK, doc)
}

// UpdateProgress handles PUT /api/documents/:id/progress
func (dc *DocumentsController) UpdateProgress(c *gin.Context) {
	var req ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.CurrentPage < 0 || req.PageCount < 0 {
		respondBadRequest(c, "pages must not be negative")
		return
	}
	if req.PageCount > 0 && req.CurrentPage > req.PageCount {
		respondBadRequest(c, "current_page exceeds page_count")
		return
	}

	err := dc.store.UpdateProgress(c.Param("id"), req.CurrentPage, req.PageCount, dc.now())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "document")
		return
	}
	if err != nil {
		respondInternalError(c, err, "update progress")
		return
	}

	doc, ok := dc.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (dc *DocumentsController) load(c *gin.Context) (*entities.Document, bool) {
	doc, err := dc.store.GetByID(c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "document")
		return nil, false
	}
	if err != nil {
		respondInternalError(c, err, "get document")
		return nil, false
	}
	return doc, true
}

func fileAvailable(doc *entities.Document) bool {
	path, err := scanner.PathFromURI(doc.URI)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

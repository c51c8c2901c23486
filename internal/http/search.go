package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/literarylinc/literarylinc/internal/metadata"
)

// SearchController looks books up in OpenLibrary.
type SearchController struct {
	searcher MetadataSearcher
}

func NewSearchController(searcher MetadataSearcher) *SearchController {
	return &SearchController{searcher: searcher}
}

// Search handles GET /api/search?q= or GET /api/search?isbn=
func (sc *SearchController) Search(c *gin.Context) {
	query := c.Query("q")
	isbn := c.Query("isbn")
	if query == "" && isbn == "" {
		respondBadRequest(c, "q or isbn is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	if isbn != "" {
		result, err := sc.searcher.SearchByISBN(ctx, isbn)
		if errors.Is(err, metadata.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		if err != nil {
			respondError(c, http.StatusBadGateway, err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": []metadata.BookMetadata{*result}})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	results, err := sc.searcher.Search(ctx, query, limit)
	if err != nil {
		respondError(c, http.StatusBadGateway, err.Error())
		return
	}
	if results == nil {
		results = []metadata.BookMetadata{}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

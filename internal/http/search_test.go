package http

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/literarylinc/literarylinc/internal/metadata"
)

type fakeSearcher struct {
	query string
	limit int
	err   error
}

func (f *fakeSearcher) Search(_ context.Context, query string, limit int) ([]metadata.BookMetadata, error) {
	f.query, f.limit = query, limit
	if f.err != nil {
		return nil, f.err
	}
	return []metadata.BookMetadata{{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441172719"}}, nil
}

func (f *fakeSearcher) SearchByISBN(_ context.Context, isbn string) (*metadata.BookMetadata, error) {
	if isbn != "9780441172719" {
		return nil, metadata.ErrNotFound
	}
	return &metadata.BookMetadata{Title: "Dune", ISBN: isbn}, nil
}

func setupSearchRouter(searcher MetadataSearcher) *gin.Engine {
	router := gin.New()
	router.GET("/api/search", NewSearchController(searcher).Search)
	return router
}

func TestSearchController(t *testing.T) {
	t.Run("query", func(t *testing.T) {
		searcher := &fakeSearcher{}
		router := setupSearchRouter(searcher)

		w := doJSON(router, http.MethodGet, "/api/search?q=dune&limit=5", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Frank Herbert")
		assert.Equal(t, "dune", searcher.query)
		assert.Equal(t, 5, searcher.limit)
	})

	t.Run("isbn", func(t *testing.T) {
		router := setupSearchRouter(&fakeSearcher{})

		w := doJSON(router, http.MethodGet, "/api/search?isbn=9780441172719", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Dune")

		w = doJSON(router, http.MethodGet, "/api/search?isbn=0000000000", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing parameters", func(t *testing.T) {
		router := setupSearchRouter(&fakeSearcher{})

		w := doJSON(router, http.MethodGet, "/api/search", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("upstream failure", func(t *testing.T) {
		router := setupSearchRouter(&fakeSearcher{err: errors.New("timeout")})

		w := doJSON(router, http.MethodGet, "/api/search?q=dune", nil)
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

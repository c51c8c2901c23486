package http

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GrantsController manages the directories the scanner may read.
type GrantsController struct {
	store GrantStore
}

func NewGrantsController(store GrantStore) *GrantsController {
	return &GrantsController{store: store}
}

type GrantRequest struct {
	Path string `json:"path"`
}

// ListGrants handles GET /api/grants
func (gc *GrantsController) ListGrants(c *gin.Context) {
	grants, err := gc.store.List()
	if err != nil {
		respondInternalError(c, err, "list grants")
		return
	}
	c.JSON(http.StatusOK, gin.H{"grants": grants})
}

// AddGrant handles POST /api/grants
func (gc *GrantsController) AddGrant(c *gin.Context) {
	var req GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Path == "" {
		respondBadRequest(c, "path is required")
		return
	}

	info, err := os.Stat(req.Path)
	if err != nil || !info.IsDir() {
		respondBadRequest(c, "path must be an existing directory")
		return
	}

	grant, err := gc.store.Add(req.Path)
	if err != nil {
		respondInternalError(c, err, "add grant")
		return
	}
	respondCreated(c, grant)
}

// RemoveGrant handles DELETE /api/grants/:id
// Documents already found under the directory are kept.
func (gc *GrantsController) RemoveGrant(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := gc.store.Remove(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "grant")
		return
	}
	if err != nil {
		respondInternalError(c, err, "remove grant")
		return
	}
	respondSuccess(c, "grant removed")
}

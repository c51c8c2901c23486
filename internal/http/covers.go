package http

import (
	"errors"
	"fmt"
	"image"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"

	"github.com/literarylinc/literarylinc/internal/bitmaps"
	"github.com/literarylinc/literarylinc/internal/covers"
)

const (
	minCoverWidth      = 16
	maxCoverWidth      = 2048
	resizedJPEGQuality = 85
)

// CoversController serves the cover directory.
type CoversController struct {
	store   CoverStore
	bitmaps *bitmaps.Cache
}

// NewCoversController creates a new CoversController. cache may be nil, in which
// case resized covers are rendered on every request.
func NewCoversController(store CoverStore, cache *bitmaps.Cache) *CoversController {
	return &CoversController{store: store, bitmaps: cache}
}

type DownloadCoverRequest struct {
	URL string `json:"url"`
}

// ListCovers handles GET /api/covers
func (cc *CoversController) ListCovers(c *gin.Context) {
	names, err := cc.store.List()
	if err != nil {
		respondInternalError(c, err, "list covers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"covers": names, "total": len(names)})
}

// GetCover handles GET /api/covers/:name
// With ?width= the cover is resized and the bitmap kept in the cache.
func (cc *CoversController) GetCover(c *gin.Context) {
	name := c.Param("name")
	path, err := cc.store.Path(name)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	if !cc.store.Exists(name) {
		respondNotFound(c, "cover")
		return
	}

	widthStr := c.Query("width")
	if widthStr == "" {
		c.File(path)
		return
	}
	width, err := strconv.Atoi(widthStr)
	if err != nil || width < minCoverWidth || width > maxCoverWidth {
		respondBadRequest(c, fmt.Sprintf("width must be between %d and %d", minCoverWidth, maxCoverWidth))
		return
	}

	key := cacheKey(name, width)
	if cc.bitmaps != nil {
		if bm, ok := cc.bitmaps.Get(key); ok {
			if img := bm.Image(); img != nil {
				cc.writeJPEG(c, img, "HIT")
				return
			}
		}
	}

	src, err := cc.store.Open(name)
	if err != nil {
		respondInternalError(c, err, "open cover")
		return
	}
	img := src
	if src.Bounds().Dx() > width {
		img = imaging.Resize(src, width, 0, imaging.Lanczos)
	}
	if cc.bitmaps != nil {
		cc.bitmaps.Put(key, bitmaps.NewBitmap(img))
	}
	cc.writeJPEG(c, img, "MISS")
}

// UploadCover handles POST /api/covers/:name (multipart field "file")
func (cc *CoversController) UploadCover(c *gin.Context) {
	name := c.Param("name")
	if _, err := cc.store.Path(name); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondBadRequest(c, "file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondInternalError(c, err, "open upload")
		return
	}
	defer file.Close()

	if err := cc.store.SaveFromReader(name, file); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	cc.forget(name)
	respondCreated(c, gin.H{"name": name})
}

// DownloadCover handles POST /api/covers/:name/download
func (cc *CoversController) DownloadCover(c *gin.Context) {
	name := c.Param("name")
	if _, err := cc.store.Path(name); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	var req DownloadCoverRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		respondBadRequest(c, "url is required")
		return
	}
	if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
		respondBadRequest(c, "url must be http or https")
		return
	}

	if err := cc.store.Download(c.Request.Context(), name, req.URL); err != nil {
		respondError(c, http.StatusBadGateway, err.Error())
		return
	}
	cc.forget(name)
	respondCreated(c, gin.H{"name": name})
}

// DeleteCover handles DELETE /api/covers/:name
func (cc *CoversController) DeleteCover(c *gin.Context) {
	name := c.Param("name")
	err := cc.store.Delete(name)
	if errors.Is(err, covers.ErrInvalidName) {
		respondBadRequest(c, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, err, "delete cover")
		return
	}
	cc.forget(name)
	respondSuccess(c, "cover deleted")
}

// DeleteAllCovers handles DELETE /api/covers
// Every cached bitmap is recycled since none of them can be served again.
func (cc *CoversController) DeleteAllCovers(c *gin.Context) {
	deleted, err := cc.store.DeleteAll()
	if err != nil {
		respondInternalError(c, err, "delete covers")
		return
	}
	released := 0
	if cc.bitmaps != nil {
		released = cc.bitmaps.ReleaseAll()
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted, "released": released})
}

func (cc *CoversController) writeJPEG(c *gin.Context, img image.Image, cacheStatus string) {
	c.Header("Content-Type", "image/jpeg")
	c.Header("X-Cache", cacheStatus)
	c.Status(http.StatusOK)
	if err := imaging.Encode(c.Writer, img, imaging.JPEG, imaging.JPEGQuality(resizedJPEGQuality)); err != nil {
		log.Printf("[COVERS] Failed to encode cover: %v", err)
	}
}

// forget drops every resized variant of name from the bitmap cache.
func (cc *CoversController) forget(name string) {
	if cc.bitmaps == nil {
		return
	}
	prefix := name + "@"
	cc.bitmaps.RemoveFunc(func(key string) bool { return strings.HasPrefix(key, prefix) })
}

func cacheKey(name string, width int) string {
	return name + "@" + strconv.Itoa(width)
}

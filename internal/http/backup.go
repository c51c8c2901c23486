package http

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/literarylinc/literarylinc/internal/entities"
	"github.com/literarylinc/literarylinc/internal/notify"
)

const (
	// maxBackupUploadBytes caps CSV uploads accepted by the import endpoint.
	maxBackupUploadBytes = 32 << 20
	// multipartSlack covers the multipart framing around the file itself.
	multipartSlack = 64 << 10
)

// BackupController streams catalog exports and accepts CSV imports.
type BackupController struct {
	manager  BackupManager
	notifier notify.Notifier
	uploads  UploadAuditor
	now      func() time.Time
	maxBytes int64
}

// NewBackupController creates a BackupController. uploads may be nil; a nil
// notifier only logs.
func NewBackupController(manager BackupManager, notifier notify.Notifier, uploads UploadAuditor) *BackupController {
	if notifier == nil {
		notifier = notify.Log
	}
	return &BackupController{
		manager:  manager,
		notifier: notifier,
		uploads:  uploads,
		now:      time.Now,
		maxBytes: maxBackupUploadBytes,
	}
}

// Export handles GET /api/backup/export
func (bc *BackupController) Export(c *gin.Context) {
	filename := fmt.Sprintf("literarylinc-backup-%s.csv", bc.now().Format("20060102-150405"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Status(http.StatusOK)

	// Headers are already sent, so a failure can only be logged
	n, err := bc.manager.Export(c.Request.Context(), c.Writer)
	if err != nil {
		log.Printf("[BACKUP] Export failed after %d books: %v", n, err)
		return
	}
	log.Printf("[BACKUP] Exported %d books over HTTP", n)
}

// Import handles POST /api/backup/import (multipart field "file")
func (bc *BackupController) Import(c *gin.Context) {
	// Stop reading once the body is over the cap instead of spooling it to disk
	limit := bc.maxBytes + multipartSlack
	if c.Request.ContentLength > limit {
		respondError(c, http.StatusRequestEntityTooLarge, "file is too large")
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	fileHeader, err := c.FormFile("file")
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondError(c, http.StatusRequestEntityTooLarge, "file is too large")
		return
	}
	if err != nil {
		respondBadRequest(c, "file is required")
		return
	}
	if fileHeader.Size > bc.maxBytes {
		respondError(c, http.StatusRequestEntityTooLarge, "file is too large")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondInternalError(c, err, "open upload")
		return
	}
	defer file.Close()

	if bc.uploads != nil {
		if _, err := bc.uploads.SaveUpload(".csv", file); err != nil {
			log.Printf("[AUDIT] Failed to keep a copy of %s: %v", fileHeader.Filename, err)
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			respondInternalError(c, err, "rewind upload")
			return
		}
	}

	result, err := bc.manager.Import(c.Request.Context(), file)
	if err != nil {
		bc.notify(c, notify.Failure(entities.ChannelRestore, "Restore failed", err))
		respondBadRequest(c, err.Error())
		return
	}

	bc.notify(c, notify.Success(entities.ChannelRestore, "Restore complete",
		fmt.Sprintf("Imported %d books from %s (%d skipped)", result.Imported, fileHeader.Filename, result.Skipped)))
	c.JSON(http.StatusOK, result)
}

func (bc *BackupController) notify(c *gin.Context, n entities.Notification) {
	if err := bc.notifier.Notify(c.Request.Context(), n); err != nil {
		log.Printf("[NOTIFY] %v", err)
	}
}

package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Books API endpoints
	if cfg.Books != nil {
		booksController := NewBooksController(cfg.Books)
		router.GET("/api/books", booksController.ListBooks)
		router.POST("/api/books", booksController.CreateBook)
		router.POST("/api/books/delete", booksController.DeleteBooks)
		router.GET("/api/books/:id", booksController.GetBook)
		router.PUT("/api/books/:id", booksController.UpdateBook)
		router.DELETE("/api/books/:id", booksController.DeleteBook)
		router.GET("/api/stats", booksController.GetStats)
	}

	// Scanned documents
	if cfg.Documents != nil {
		documentsController := NewDocumentsController(cfg.Documents)
		router.GET("/api/documents", documentsController.ListDocuments)
		router.GET("/api/documents/:id", documentsController.GetDocument)
		router.PUT("/api/documents/:id/progress", documentsController.UpdateProgress)
	}

	// Scan roots
	if cfg.Grants != nil {
		grantsController := NewGrantsController(cfg.Grants)
		router.GET("/api/grants", grantsController.ListGrants)
		router.POST("/api/grants", grantsController.AddGrant)
		router.DELETE("/api/grants/:id", grantsController.RemoveGrant)
	}

	// Cover directory
	if cfg.Covers != nil {
		coversController := NewCoversController(cfg.Covers, cfg.Bitmaps)
		router.GET("/api/covers", coversController.ListCovers)
		router.DELETE("/api/covers", coversController.DeleteAllCovers)
		router.GET("/api/covers/:name", coversController.GetCover)
		router.POST("/api/covers/:name", coversController.UploadCover)
		router.POST("/api/covers/:name/download", coversController.DownloadCover)
		router.DELETE("/api/covers/:name", coversController.DeleteCover)
	}

	// Task queue endpoints
	if cfg.TaskQueue != nil {
		var backupDir BackupDirProvider
		if cfg.Schedules != nil {
			backupDir = cfg.Schedules
		}
		tasksController := NewTasksController(cfg.TaskQueue, backupDir)
		router.GET("/api/tasks/types", tasksController.ListTaskTypes)
		router.GET("/api/tasks/:id", tasksController.GetTaskStatus)
		router.POST("/api/tasks/:type/run", tasksController.RunTask)
	}

	// Cron schedules
	if cfg.Schedules != nil {
		scheduleController := NewScheduleController(cfg.Schedules, cfg.Scheduler)
		router.GET("/api/schedule", scheduleController.ListSchedules)
		router.PUT("/api/schedule/:job", scheduleController.UpdateSchedule)
		router.DELETE("/api/schedule/:job", scheduleController.ResetSchedule)
		router.POST("/api/schedule/:job/run", scheduleController.RunScheduledJob)
	}

	// CSV backup
	if cfg.Backups != nil {
		backupController := NewBackupController(cfg.Backups, cfg.Notifier, cfg.Uploads)
		router.GET("/api/backup/export", backupController.Export)
		router.POST("/api/backup/import", backupController.Import)
	}

	if cfg.Notifications != nil {
		notificationsController := NewNotificationsController(cfg.Notifications)
		router.GET("/api/notifications", notificationsController.ListNotifications)
		router.DELETE("/api/notifications", notificationsController.ClearNotifications)
	}

	// OpenLibrary lookup
	if cfg.Metadata != nil {
		searchController := NewSearchController(cfg.Metadata)
		router.GET("/api/search", searchController.Search)
	}

	return router
}

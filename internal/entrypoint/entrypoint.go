package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/logger"

	"github.com/literarylinc/literarylinc/internal/bitmaps"
	"github.com/literarylinc/literarylinc/internal/config"
	"github.com/literarylinc/literarylinc/internal/covers"
	http_controllers "github.com/literarylinc/literarylinc/internal/http"
	"github.com/literarylinc/literarylinc/internal/scheduler"
	"github.com/literarylinc/literarylinc/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill -2 is syscall.SIGINT, kill (no param) sends syscall.SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work first so nothing writes after the server is gone
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting LiteraryLinc v%s", version)

	app, err := NewApp(cfg, logger.Warn)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	go watchCovers(bgCtx, app.Covers, app.Bitmaps, cfg.Library.CoverPollInterval)

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var sched *scheduler.Scheduler
	if cfg.Tasks.Enabled {
		taskCfg := tasks.ConfigFrom(cfg.Tasks)
		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(tasks.NewQueues(&tasks.Dependencies{
			Scanner:  app.Scanner,
			Backups:  app.Backups,
			Notifier: app.Notifier,
			Runs:     app.Settings,
			Enqueuer: taskClient,
			Timeout:  taskCfg.TaskTimeout,
		})...)

		go taskClient.Start(bgCtx)

		sched = scheduler.New(app.Settings, taskClient)
		if err := sched.Start(bgCtx); err != nil {
			log.Printf("WARNING: Failed to start scheduler: %v", err)
		}
	} else {
		log.Printf("Task queue disabled; scans and backups are only available from the CLI")
	}

	routerCfg := http_controllers.RouterConfig{
		Database:      app.DB,
		Books:         app.DB.Books,
		Documents:     app.DB.Documents,
		Grants:        app.DB.Grants,
		Notifications: app.DB.Notifications,
		Covers:        app.Covers,
		Bitmaps:       app.Bitmaps,
		Backups:       app.Backups,
		Notifier:      app.Notifier,
		Schedules:     app.Settings,
		Metadata:      app.Metadata,
		Version:       version,
	}
	if app.Auditor != nil {
		routerCfg.Uploads = app.Auditor
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
		routerCfg.Scheduler = sched
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if sched != nil {
			sched.Stop()
		}
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
		bgCancel()
		released := app.Bitmaps.ReleaseAll()
		log.Printf("Released %d cached bitmaps", released)
	}

	Serve(router, cfg, onShutdown)
}

// watchCovers logs cover directory changes and evicts resized bitmaps of removed covers.
func watchCovers(ctx context.Context, repo *covers.Repository, cache *bitmaps.Cache, interval time.Duration) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	for names := range repo.Watch(ctx, interval) {
		dropped := pruneBitmaps(cache, names)
		if dropped > 0 {
			log.Printf("[COVERS] %d covers on disk, dropped %d stale bitmaps", len(names), dropped)
		} else {
			log.Printf("[COVERS] %d covers on disk", len(names))
		}
	}
}

package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// Client wraps backlite to provide task queue functionality.
type Client struct {
	client *backlite.Client
	db     *sql.DB
	config Config

	mu      sync.RWMutex
	started bool

	namedMu sync.Mutex // serializes Enqueue
}

// namedJobsSchema maps job names to the last task enqueued under them. It
// lives next to the backlite tables so the keep policy survives restarts.
const namedJobsSchema = `CREATE TABLE IF NOT EXISTS named_jobs (
    name text PRIMARY KEY,
    task_id text NOT NULL
) STRICT`

// Policy decides what Enqueue does when a job with the same name already exists.
type Policy int

const (
	// PolicyKeep reuses the last task under the name while it is pending or running.
	PolicyKeep Policy = iota
	// PolicyAppend always adds a new task.
	PolicyAppend
)

// NewClient creates a new task queue client with a dedicated SQLite database.
// The database is stored alongside the main database with a "-tasks" suffix.
func NewClient(mainDBPath string, cfg Config) (*Client, error) {
	// Create tasks database path alongside main DB
	dir := filepath.Dir(mainDBPath)
	base := filepath.Base(mainDBPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	tasksDBPath := filepath.Join(dir, name+"-tasks"+ext)

	// Open dedicated SQLite connection for tasks with WAL mode
	db, err := sql.Open("sqlite3", tasksDBPath+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}

	// Configure connection pool for concurrent workers
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	// Create backlite client
	client, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          &stdLogger{},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create backlite client: %w", err)
	}

	// Install schema
	if err := client.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to install backlite schema: %w", err)
	}
	if _, err := db.Exec(namedJobsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to install named jobs schema: %w", err)
	}

	return &Client{
		client: client,
		db:     db,
		config: cfg,
	}, nil
}

// Register registers task queues with the client.
// Must be called before Start().
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.client.Register(q)
	}
}

// Start begins processing tasks. This is non-blocking and should be called
// in a goroutine. Use Stop() for graceful shutdown.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	log.Printf("Task queue started with %d workers", c.config.Workers)
	c.client.Start(ctx)
}

// Stop gracefully shuts down the task queue, waiting for active tasks to complete.
// Returns true if all workers finished before the context deadline.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.RLock()
	if !c.started {
		c.mu.RUnlock()
		return true
	}
	c.mu.RUnlock()

	log.Println("Stopping task queue...")
	success := c.client.Stop(ctx)
	if success {
		log.Println("Task queue stopped gracefully")
	} else {
		log.Println("Task queue stopped with timeout (some tasks may not have completed)")
	}
	return success
}

// Close releases all resources. Should be called after Stop().
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Add starts an operation to enqueue one or more tasks.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.client.Add(tasks...)
}

// Enqueue adds task under a job name. With PolicyKeep, an unfinished task
// previously enqueued under name is returned instead of adding a duplicate.
// The boolean reports whether a new task was added.
func (c *Client) Enqueue(ctx context.Context, name string, policy Policy, task backlite.Task) (string, bool, error) {
	c.namedMu.Lock()
	defer c.namedMu.Unlock()

	if policy == PolicyKeep {
		lastID, err := c.lastTask(ctx, name)
		if err != nil {
			return "", false, fmt.Errorf("check job %s: %w", name, err)
		}
		if lastID != "" {
			status, err := c.client.Status(ctx, lastID)
			if err != nil {
				return "", false, fmt.Errorf("check job %s: %w", name, err)
			}
			if status == backlite.TaskStatusPending || status == backlite.TaskStatusRunning {
				log.Printf("[TASK] Job %s already queued as %s, keeping it", name, lastID)
				return lastID, false, nil
			}
		}
	}

	ids, err := c.Add(task).Ctx(ctx).Save()
	if err != nil {
		return "", false, fmt.Errorf("enqueue job %s: %w", name, err)
	}
	if _, err := c.db.ExecContext(ctx,
		`INSERT INTO named_jobs (name, task_id) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET task_id = excluded.task_id`,
		name, ids[0]); err != nil {
		// The task is queued; only the keep policy for the next call is affected
		log.Printf("[TASK] Failed to record job %s as %s: %v", name, ids[0], err)
	}
	return ids[0], true, nil
}

// lastTask returns the ID of the last task enqueued under name, or "".
func (c *Client) lastTask(ctx context.Context, name string) (string, error) {
	var id string
	err := c.db.QueryRowContext(ctx, `SELECT task_id FROM named_jobs WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}

// Status returns the status of a task by ID.
func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.client.Status(ctx, taskID)
}

// stdLogger implements backlite.Logger using standard library log.
type stdLogger struct{}

func (l *stdLogger) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (l *stdLogger) Error(message string, params ...any) {
	log.Printf("[TASK ERROR] "+message, params...)
}

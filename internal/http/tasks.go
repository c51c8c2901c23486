package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/literarylinc/literarylinc/internal/tasks"
)

// TasksController handles task queue management endpoints.
type TasksController struct {
	queue     TaskQueue
	backupDir BackupDirProvider
	now       func() time.Time
}

// NewTasksController creates a new TasksController.
func NewTasksController(queue TaskQueue, backupDir BackupDirProvider) *TasksController {
	return &TasksController{queue: queue, backupDir: backupDir, now: time.Now}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

var taskTypes = []TaskTypeInfo{
	{
		Type:        tasks.QueueScanFiles,
		Description: "Scan granted directories for new documents, then generate covers",
		Queue:       tasks.QueueScanFiles,
	},
	{
		Type:        tasks.QueueScanCovers,
		Description: "Generate missing document covers",
		Queue:       tasks.QueueScanCovers,
	},
	{
		Type:        tasks.QueueBackup,
		Description: "Export the book catalog to a CSV file",
		Queue:       tasks.QueueBackup,
	},
	{
		Type:        tasks.QueueRestore,
		Description: "Import books from a CSV backup",
		Queue:       tasks.QueueRestore,
	},
}

// ListTaskTypes handles GET /api/tasks/types
// Returns the list of available task types that can be triggered.
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"task_types": taskTypes,
	})
}

// GetTaskStatus handles GET /api/tasks/:id
// Returns the status of a specific task.
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTaskRequest is the request body for running a task.
type RunTaskRequest struct {
	// Path is the CSV file for backup (optional) and restore (required)
	Path string `json:"path,omitempty" form:"path"`
	// Append queues the task even when one of the same type is pending
	Append bool `json:"append,omitempty" form:"append"`
}

// RunTask handles POST /api/tasks/:type/run
// Manually triggers a task of the specified type.
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var req RunTaskRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBind(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}

	var task backlite.Task
	switch taskType {
	case tasks.QueueScanFiles:
		task = tasks.ScanFilesTask{ThenCovers: true}

	case tasks.QueueScanCovers:
		task = tasks.ScanCoversTask{}

	case tasks.QueueBackup:
		path := req.Path
		if path == "" {
			dir := ""
			if tc.backupDir != nil {
				dir = tc.backupDir.BackupDir()
			}
			if dir == "" {
				respondBadRequest(c, "path is required when no backup directory is configured")
				return
			}
			path = tasks.BackupFilename(dir, tc.now())
		}
		task = tasks.BackupTask{Path: path}

	case tasks.QueueRestore:
		if req.Path == "" {
			respondBadRequest(c, "path is required for restore task")
			return
		}
		task = tasks.RestoreTask{Path: req.Path}

	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}

	policy := tasks.PolicyKeep
	if req.Append {
		policy = tasks.PolicyAppend
	}

	id, added, err := tc.queue.Enqueue(c.Request.Context(), taskType, policy, task)
	if err != nil {
		respondInternalError(c, err, "enqueue task")
		return
	}

	message := "task enqueued"
	if !added {
		message = "task already queued"
	}
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task_id": id,
		"type":    taskType,
		"added":   added,
		"message": message,
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

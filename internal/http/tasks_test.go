package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/literarylinc/literarylinc/internal/tasks"
)

type enqueued struct {
	name   string
	policy tasks.Policy
	task   backlite.Task
}

type fakeTaskQueue struct {
	calls    []enqueued
	added    bool
	err      error
	statuses map[string]backlite.TaskStatus
}

func (f *fakeTaskQueue) Enqueue(_ context.Context, name string, policy tasks.Policy, task backlite.Task) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	f.calls = append(f.calls, enqueued{name: name, policy: policy, task: task})
	return "task-1", f.added, nil
}

func (f *fakeTaskQueue) Status(_ context.Context, taskID string) (backlite.TaskStatus, error) {
	if status, ok := f.statuses[taskID]; ok {
		return status, nil
	}
	return backlite.TaskStatusNotFound, nil
}

type staticBackupDir string

func (d staticBackupDir) BackupDir() string { return string(d) }

func setupTasksRouter(queue TaskQueue, dir BackupDirProvider) *gin.Engine {
	controller := NewTasksController(queue, dir)
	controller.now = func() time.Time { return time.Date(2024, 3, 9, 8, 7, 6, 0, time.UTC) }

	router := gin.New()
	router.GET("/api/tasks/types", controller.ListTaskTypes)
	router.GET("/api/tasks/:id", controller.GetTaskStatus)
	router.POST("/api/tasks/:type/run", controller.RunTask)
	return router
}

func TestTasksController_ListTaskTypes(t *testing.T) {
	router := setupTasksRouter(&fakeTaskQueue{}, nil)

	w := doJSON(router, http.MethodGet, "/api/tasks/types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		TaskTypes []TaskTypeInfo `json:"task_types"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.TaskTypes, 4)
}

func TestTasksController_RunTask(t *testing.T) {
	t.Run("scan files chains covers and keeps pending tasks", func(t *testing.T) {
		queue := &fakeTaskQueue{added: true}
		router := setupTasksRouter(queue, nil)

		w := doJSON(router, http.MethodPost, "/api/tasks/scan_files/run", nil)
		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
		require.Len(t, queue.calls, 1)
		assert.Equal(t, tasks.QueueScanFiles, queue.calls[0].name)
		assert.Equal(t, tasks.PolicyKeep, queue.calls[0].policy)
		assert.Equal(t, tasks.ScanFilesTask{ThenCovers: true}, queue.calls[0].task)
	})

	t.Run("append policy on request", func(t *testing.T) {
		queue := &fakeTaskQueue{added: true}
		router := setupTasksRouter(queue, nil)

		w := doJSON(router, http.MethodPost, "/api/tasks/scan_covers/run", map[string]any{"append": true})
		require.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, tasks.PolicyAppend, queue.calls[0].policy)
	})

	t.Run("reports an already queued task", func(t *testing.T) {
		queue := &fakeTaskQueue{added: false}
		router := setupTasksRouter(queue, nil)

		w := doJSON(router, http.MethodPost, "/api/tasks/scan_covers/run", nil)
		require.Equal(t, http.StatusAccepted, w.Code)
		assert.Contains(t, w.Body.String(), "task already queued")
	})

	t.Run("backup defaults to the backup directory", func(t *testing.T) {
		queue := &fakeTaskQueue{added: true}
		router := setupTasksRouter(queue, staticBackupDir("/backups"))

		w := doJSON(router, http.MethodPost, "/api/tasks/backup/run", nil)
		require.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, tasks.BackupTask{Path: filepath.Join("/backups", "literarylinc-backup-20240309-080706.csv")}, queue.calls[0].task)
	})

	t.Run("backup without path or directory", func(t *testing.T) {
		queue := &fakeTaskQueue{added: true}
		router := setupTasksRouter(queue, nil)

		w := doJSON(router, http.MethodPost, "/api/tasks/backup/run", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, queue.calls)
	})

	t.Run("restore requires a path", func(t *testing.T) {
		queue := &fakeTaskQueue{added: true}
		router := setupTasksRouter(queue, nil)

		w := doJSON(router, http.MethodPost, "/api/tasks/restore/run", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doJSON(router, http.MethodPost, "/api/tasks/restore/run", map[string]any{"path": "/tmp/b.csv"})
		require.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, tasks.RestoreTask{Path: "/tmp/b.csv"}, queue.calls[0].task)
	})

	t.Run("unknown type", func(t *testing.T) {
		router := setupTasksRouter(&fakeTaskQueue{}, nil)

		w := doJSON(router, http.MethodPost, "/api/tasks/enrich_book/run", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("queue failure", func(t *testing.T) {
		router := setupTasksRouter(&fakeTaskQueue{err: errors.New("db locked")}, nil)

		w := doJSON(router, http.MethodPost, "/api/tasks/scan_files/run", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestTasksController_GetTaskStatus(t *testing.T) {
	queue := &fakeTaskQueue{statuses: map[string]backlite.TaskStatus{"abc": backlite.TaskStatusRunning}}
	router := setupTasksRouter(queue, nil)

	w := doJSON(router, http.MethodGet, "/api/tasks/abc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"abc","status":"running"}`, w.Body.String())

	w = doJSON(router, http.MethodGet, "/api/tasks/zzz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"zzz","status":"not_found"}`, w.Body.String())
}

func TestTaskStatusToString(t *testing.T) {
	assert.Equal(t, "pending", taskStatusToString(backlite.TaskStatusPending))
	assert.Equal(t, "success", taskStatusToString(backlite.TaskStatusSuccess))
	assert.Equal(t, "failure", taskStatusToString(backlite.TaskStatusFailure))
}

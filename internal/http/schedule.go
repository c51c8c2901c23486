package http

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/literarylinc/literarylinc/internal/settingsstore"
)

var scheduledJobs = []string{settingsstore.JobScan, settingsstore.JobBackup}

// ScheduleController edits the cron schedules of the scan and backup jobs.
type ScheduleController struct {
	store     ScheduleStore
	scheduler JobScheduler
}

func NewScheduleController(store ScheduleStore, scheduler JobScheduler) *ScheduleController {
	return &ScheduleController{store: store, scheduler: scheduler}
}

// ScheduleRequest replaces the schedule of a job. BackupDir is only read for the backup job.
type ScheduleRequest struct {
	Enabled   bool   `json:"enabled"`
	Schedule  string `json:"schedule"`
	BackupDir string `json:"backup_dir,omitempty"`
}

// JobSchedule is the full state of one scheduled job.
type JobSchedule struct {
	Job       string                      `json:"job"`
	Config    settingsstore.JobConfigInfo `json:"config"`
	LastRun   settingsstore.RunStatus     `json:"last_run"`
	NextRun   *time.Time                  `json:"next_run,omitempty"`
	BackupDir string                      `json:"backup_dir,omitempty"`
}

// ListSchedules handles GET /api/schedule
func (sc *ScheduleController) ListSchedules(c *gin.Context) {
	out := make([]JobSchedule, 0, len(scheduledJobs))
	for _, job := range scheduledJobs {
		js, err := sc.describe(job)
		if err != nil {
			respondInternalError(c, err, "load schedule")
			return
		}
		out = append(out, js)
	}

	running := false
	if sc.scheduler != nil {
		running = sc.scheduler.IsRunning()
	}
	c.JSON(http.StatusOK, gin.H{"jobs": out, "running": running})
}

// UpdateSchedule handles PUT /api/schedule/:job
func (sc *ScheduleController) UpdateSchedule(c *gin.Context) {
	job, ok := jobParam(c)
	if !ok {
		return
	}

	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if err := sc.store.SetJobConfig(job, settingsstore.JobConfig{Enabled: req.Enabled, Schedule: req.Schedule}); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	if job == settingsstore.JobBackup && req.BackupDir != "" {
		if err := sc.store.SetBackupDir(req.BackupDir); err != nil {
			respondInternalError(c, err, "save backup dir")
			return
		}
	}
	sc.reschedule(c, job)
}

// ResetSchedule handles DELETE /api/schedule/:job
// Database overrides are removed and the environment or defaults apply again.
func (sc *ScheduleController) ResetSchedule(c *gin.Context) {
	job, ok := jobParam(c)
	if !ok {
		return
	}
	if err := sc.store.ClearJobConfig(job); err != nil {
		respondInternalError(c, err, "clear schedule")
		return
	}
	sc.reschedule(c, job)
}

// RunScheduledJob handles POST /api/schedule/:job/run
func (sc *ScheduleController) RunScheduledJob(c *gin.Context) {
	job, ok := jobParam(c)
	if !ok {
		return
	}
	if sc.scheduler == nil {
		respondError(c, http.StatusServiceUnavailable, "scheduler is not running")
		return
	}
	id, err := sc.scheduler.RunNow(c.Request.Context(), job)
	if err != nil {
		respondInternalError(c, err, "run job")
		return
	}
	respondAccepted(c, "job queued", gin.H{"task_id": id, "job": job})
}

func (sc *ScheduleController) reschedule(c *gin.Context, job string) {
	if sc.scheduler != nil {
		if err := sc.scheduler.Reschedule(); err != nil {
			respondInternalError(c, err, "reschedule")
			return
		}
	}
	js, err := sc.describe(job)
	if err != nil {
		respondInternalError(c, err, "load schedule")
		return
	}
	c.JSON(http.StatusOK, js)
}

func (sc *ScheduleController) describe(job string) (JobSchedule, error) {
	info, err := sc.store.JobConfigInfo(job)
	if err != nil {
		return JobSchedule{}, err
	}
	status, err := sc.store.RunStatus(job)
	if err != nil {
		return JobSchedule{}, err
	}

	js := JobSchedule{Job: job, Config: info, LastRun: status}
	if sc.scheduler != nil {
		js.NextRun = sc.scheduler.GetNextRunTime(job)
	}
	if job == settingsstore.JobBackup {
		js.BackupDir = sc.store.BackupDir()
	}
	return js, nil
}

func jobParam(c *gin.Context) (string, bool) {
	job := c.Param("job")
	if !slices.Contains(scheduledJobs, job) {
		respondNotFound(c, "job")
		return "", false
	}
	return job, true
}

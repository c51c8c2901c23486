package settingsstore

import (
	"fmt"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/literarylinc/literarylinc/internal/entities"
)

// Scheduled jobs with user-editable settings.
const (
	JobScan   = "scan"
	JobBackup = "backup"
)

// Run outcomes stored with RecordRun.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type jobKeys struct {
	enabled, schedule, lastAt, lastStatus, lastMessage string
	enabledEnv, scheduleEnv                            string
}

var keysByJob = map[string]jobKeys{
	JobScan: {
		enabled:     entities.SettingKeyScanEnabled,
		schedule:    entities.SettingKeyScanSchedule,
		lastAt:      entities.SettingKeyScanLastAt,
		lastStatus:  entities.SettingKeyScanLastStatus,
		lastMessage: entities.SettingKeyScanLastMessage,
		enabledEnv:  "SCAN_SCHEDULE_ENABLED",
		scheduleEnv: "SCAN_SCHEDULE",
	},
	JobBackup: {
		enabled:     entities.SettingKeyBackupEnabled,
		schedule:    entities.SettingKeyBackupSchedule,
		lastAt:      entities.SettingKeyBackupLastAt,
		lastStatus:  entities.SettingKeyBackupLastStatus,
		lastMessage: entities.SettingKeyBackupLastMessage,
		enabledEnv:  "BACKUP_SCHEDULE_ENABLED",
		scheduleEnv: "BACKUP_SCHEDULE",
	},
}

// JobConfig is the effective schedule of a job.
type JobConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule"`
}

// JobConfigInfo includes source information for each field
type JobConfigInfo struct {
	Enabled       bool   `json:"enabled"`
	EnabledSource string `json:"enabled_source"`

	Schedule       string `json:"schedule"`
	ScheduleSource string `json:"schedule_source"`
	Description    string `json:"description"`
}

// RunStatus represents the last run of a job
type RunStatus struct {
	LastAt  *time.Time `json:"last_at,omitempty"`
	Status  string     `json:"status,omitempty"`  // "success", "failed", ""
	Message string     `json:"message,omitempty"` // Error message or stats summary
}

func keysFor(job string) (jobKeys, error) {
	keys, ok := keysByJob[job]
	if !ok {
		return jobKeys{}, fmt.Errorf("unknown job: %s", job)
	}
	return keys, nil
}

func (s *SettingsStore) defaults(job string) JobConfig {
	switch job {
	case JobBackup:
		return JobConfig{Enabled: s.cfg.BackupEnabled, Schedule: s.cfg.BackupSchedule}
	default:
		return JobConfig{Enabled: s.cfg.ScanEnabled, Schedule: s.cfg.ScanSchedule}
	}
}

// JobConfigInfo returns the effective configuration of job with source information.
func (s *SettingsStore) JobConfigInfo(job string) (JobConfigInfo, error) {
	keys, err := keysFor(job)
	if err != nil {
		return JobConfigInfo{}, err
	}
	def := s.defaults(job)

	enabled, enabledSource := s.lookupBool(keys.enabled, keys.enabledEnv, def.Enabled)
	schedule, scheduleSource := s.lookup(keys.schedule, keys.scheduleEnv, def.Schedule)

	return JobConfigInfo{
		Enabled:        enabled,
		EnabledSource:  enabledSource,
		Schedule:       schedule,
		ScheduleSource: scheduleSource,
		Description:    GetCronDescription(schedule),
	}, nil
}

// JobConfig returns the effective configuration of job.
func (s *SettingsStore) JobConfig(job string) (JobConfig, error) {
	info, err := s.JobConfigInfo(job)
	if err != nil {
		return JobConfig{}, err
	}
	return JobConfig{Enabled: info.Enabled, Schedule: info.Schedule}, nil
}

// SetJobConfig saves both fields to the database after validating the schedule.
func (s *SettingsStore) SetJobConfig(job string, cfg JobConfig) error {
	keys, err := keysFor(job)
	if err != nil {
		return err
	}
	if err := ValidateCronSchedule(cfg.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", cfg.Schedule, err)
	}
	return s.db.Settings.SetMany(map[string]string{
		keys.enabled:  strconv.FormatBool(cfg.Enabled),
		keys.schedule: cfg.Schedule,
	})
}

// ClearJobConfig removes database overrides, reverting to env/default.
func (s *SettingsStore) ClearJobConfig(job string) error {
	keys, err := keysFor(job)
	if err != nil {
		return err
	}
	return s.clear(keys.enabled, keys.schedule)
}

// RunStatus returns the outcome of the last run of job.
func (s *SettingsStore) RunStatus(job string) (RunStatus, error) {
	keys, err := keysFor(job)
	if err != nil {
		return RunStatus{}, err
	}

	status := RunStatus{}
	if setting, err := s.db.GetSetting(keys.lastAt); err == nil && setting.Value != "" {
		if ts, err := time.Parse(time.RFC3339, setting.Value); err == nil {
			status.LastAt = &ts
		}
	}
	if setting, err := s.db.GetSetting(keys.lastStatus); err == nil {
		status.Status = setting.Value
	}
	if setting, err := s.db.GetSetting(keys.lastMessage); err == nil {
		status.Message = setting.Value
	}
	return status, nil
}

// RecordRun stores the outcome of a job run.
func (s *SettingsStore) RecordRun(job string, success bool, message string) error {
	keys, err := keysFor(job)
	if err != nil {
		return err
	}
	status := StatusSuccess
	if !success {
		status = StatusFailed
	}
	return s.db.Settings.SetMany(map[string]string{
		keys.lastAt:      time.Now().UTC().Format(time.RFC3339),
		keys.lastStatus:  status,
		keys.lastMessage: message,
	})
}

// BackupDir returns where scheduled backups are written (database > env > default).
func (s *SettingsStore) BackupDir() string {
	dir, _ := s.lookup(entities.SettingKeyBackupDir, "BACKUP_DIR", s.cfg.BackupDir)
	return dir
}

func (s *SettingsStore) SetBackupDir(dir string) error {
	return s.db.SetSetting(entities.SettingKeyBackupDir, dir)
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule validates a cron schedule string
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// GetCronDescription returns a human-readable description of a cron schedule
func GetCronDescription(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "*/30 * * * *":
		return "Every 30 minutes"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	case "0 3 * * *":
		return "Daily at 03:00"
	case "0 0 * * 0":
		return "Weekly on Sunday at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// GetNextRunTime calculates when the schedule fires next
func GetNextRunTime(schedule string) (*time.Time, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(time.Now())
	return &next, nil
}

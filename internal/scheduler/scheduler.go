package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/literarylinc/literarylinc/internal/settingsstore"
	"github.com/literarylinc/literarylinc/internal/tasks"
)

// Settings provides the effective job schedules.
type Settings interface {
	JobConfig(job string) (settingsstore.JobConfig, error)
	BackupDir() string
}

type Enqueuer interface {
	Enqueue(ctx context.Context, name string, policy tasks.Policy, task backlite.Task) (string, bool, error)
}

// Jobs lists the schedulable jobs in start order.
var Jobs = []string{settingsstore.JobScan, settingsstore.JobBackup}

// Scheduler enqueues scans and backups on their cron schedules.
// Runs go through the task queue with the keep policy, so a slow job never stacks up.
type Scheduler struct {
	settings Settings
	queue    Enqueuer
	now      func() time.Time

	cron       *cron.Cron
	entries    map[string]cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	baseCtx    context.Context // from Start; Reschedule reuses it
	cancelFunc context.CancelFunc
}

func New(settings Settings, queue Enqueuer) *Scheduler {
	return &Scheduler{
		settings: settings,
		queue:    queue,
		now:      time.Now,
		entries:  make(map[string]cron.EntryID),
	}
}

// Start schedules every enabled job. It is a no-op when already running.
// ctx bounds the scheduler's lifetime, including later calls to Reschedule.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	s.baseCtx = ctx
	return s.startLocked()
}

// startLocked must be called with s.mu held.
func (s *Scheduler) startLocked() error {
	ctx := s.baseCtx
	if ctx == nil {
		ctx = context.Background()
	}

	c := cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)))
	entries := make(map[string]cron.EntryID)

	for _, job := range Jobs {
		cfg, err := s.settings.JobConfig(job)
		if err != nil {
			return err
		}
		if !cfg.Enabled {
			log.Printf("Scheduler: %s disabled", job)
			continue
		}
		if err := settingsstore.ValidateCronSchedule(cfg.Schedule); err != nil {
			return fmt.Errorf("invalid cron schedule '%s' for %s: %w", cfg.Schedule, job, err)
		}

		job := job
		entryID, err := c.AddFunc(cfg.Schedule, func() {
			if _, err := s.RunNow(context.Background(), job); err != nil {
				log.Printf("Scheduler: failed to queue %s: %v", job, err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job, err)
		}
		entries[job] = entryID

		nextRun, _ := settingsstore.GetNextRunTime(cfg.Schedule)
		log.Printf("Scheduler: %s scheduled '%s' (%s). Next run: %v",
			job, cfg.Schedule, settingsstore.GetCronDescription(cfg.Schedule), nextRun)
	}

	if len(entries) == 0 {
		return nil
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron = c
	s.entries = entries
	s.cron.Start()
	s.isRunning = true

	// Monitor for context cancellation; a later Start owns a different cron
	go func() {
		<-cancelCtx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.cron == c {
			s.stopLocked()
		}
	}()

	return nil
}

// Stop stops scheduling and waits for a running trigger to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false
	s.entries = make(map[string]cron.EntryID)

	log.Printf("Scheduler: stopped")
}

// Reschedule re-reads the settings (call after settings change). The
// scheduler keeps running under the context given to Start.
func (s *Scheduler) Reschedule() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	return s.startLocked()
}

// RunNow queues job immediately and returns the task ID.
func (s *Scheduler) RunNow(ctx context.Context, job string) (string, error) {
	var (
		name string
		task backlite.Task
	)
	switch job {
	case settingsstore.JobScan:
		name, task = tasks.QueueScanFiles, tasks.ScanFilesTask{ThenCovers: true}
	case settingsstore.JobBackup:
		name, task = tasks.QueueBackup, tasks.BackupTask{Path: tasks.BackupFilename(s.settings.BackupDir(), s.now())}
	default:
		return "", fmt.Errorf("unknown job: %s", job)
	}

	id, added, err := s.queue.Enqueue(ctx, name, tasks.PolicyKeep, task)
	if err != nil {
		return "", err
	}
	if added {
		log.Printf("Scheduler: queued %s as %s", job, id)
	}
	return id, nil
}

// IsRunning returns whether the scheduler is active
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when job fires next, or nil when it is not scheduled.
func (s *Scheduler) GetNextRunTime(job string) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	id, ok := s.entries[job]
	if !ok {
		return nil
	}
	entry := s.cron.Entry(id)
	if !entry.Valid() {
		return nil
	}
	t := entry.Next
	return &t
}

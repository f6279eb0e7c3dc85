package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"hireflow/internal/config"
	"hireflow/internal/importer"
	"hireflow/internal/logging"
	"hireflow/internal/storage/postgres"
)

// TaskManager runs job-import tasks asynchronously and tracks their
// status for polling.
type TaskManager interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error

	// SubmitImportTask accepts a job-import task. The draft posting is
	// stored once extraction succeeds.
	SubmitImportTask(ctx context.Context, processID, url, recruiterID string, imp *importer.Importer, jobs *postgres.JobRepo) error

	// GetTaskStatus returns the current state of a task
	GetTaskStatus(ctx context.Context, processID string) (*TaskResult, error)
}

type taskManager struct {
	config  *config.Config
	store   TaskStore
	logger  logging.Logger
	sem     chan struct{}
	wg      sync.WaitGroup
	stop    chan struct{}
	started bool
	mu      sync.Mutex
}

// NewTaskManager creates a task manager with an in-memory task store
func NewTaskManager(cfg *config.Config) TaskManager {
	return &taskManager{
		config: cfg,
		store:  NewInMemoryTaskStore(),
		logger: logging.GetGlobalLogger(),
		sem:    make(chan struct{}, cfg.ImportTasks.MaxConcurrentTasks),
		stop:   make(chan struct{}),
	}
}

// Start launches the cleanup loop
func (m *taskManager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return fmt.Errorf("task manager already started")
	}
	m.started = true

	m.wg.Add(1)
	go m.cleanupLoop()

	m.logger.Info("Background task manager started", map[string]interface{}{
		"max_concurrent_tasks": m.config.ImportTasks.MaxConcurrentTasks,
	})
	return nil
}

// Stop waits for in-flight tasks to finish, bounded by ctx
func (m *taskManager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = false
	close(m.stop)
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for background tasks: %w", ctx.Err())
	}
}

// SubmitImportTask accepts a job-import task for background processing
func (m *taskManager) SubmitImportTask(ctx context.Context, processID, url, recruiterID string, imp *importer.Importer, jobs *postgres.JobRepo) error {
	result := &TaskResult{
		ProcessID: processID,
		Status:    TaskStatusAccepted,
		CreatedAt: time.Now(),
	}
	if err := m.store.Store(ctx, result); err != nil {
		return fmt.Errorf("failed to store task: %w", err)
	}

	select {
	case m.sem <- struct{}{}:
	default:
		return fmt.Errorf("task queue is full")
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() { <-m.sem }()
		m.runImport(processID, url, recruiterID, imp, jobs)
	}()

	return nil
}

// GetTaskStatus returns the current state of a task
func (m *taskManager) GetTaskStatus(ctx context.Context, processID string) (*TaskResult, error) {
	return m.store.Get(ctx, processID)
}

func (m *taskManager) runImport(processID, url, recruiterID string, imp *importer.Importer, jobs *postgres.JobRepo) {
	ctx, cancel := context.WithTimeout(context.Background(), m.config.ImportTasks.TaskTimeout)
	defer cancel()

	result, err := m.store.Get(ctx, processID)
	if err != nil {
		m.logger.Error("Import task vanished before processing", map[string]interface{}{"process_id": processID})
		return
	}

	result.Status = TaskStatusProcessing
	_ = m.store.Update(ctx, result)

	job, err := imp.ImportJob(ctx, url)
	if err == nil {
		job.ID = uuid.New().String()
		job.CreatedBy = recruiterID
		job.CreatedAt = time.Now()
		err = jobs.Create(ctx, job)
	}

	now := time.Now()
	result.CompletedAt = &now
	if err != nil {
		result.Status = TaskStatusFailure
		result.Error = err.Error()
		m.logger.Error("Import task failed", map[string]interface{}{
			"process_id": processID,
			"url":        url,
			"error":      err.Error(),
		})
	} else {
		result.Status = TaskStatusSuccess
		result.Job = job
		m.logger.Info("Import task completed", map[string]interface{}{
			"process_id": processID,
			"url":        url,
			"job_id":     job.ID,
		})
	}
	_ = m.store.Update(ctx, result)
}

// cleanupLoop evicts finished tasks past their retention age
func (m *taskManager) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.ImportTasks.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := m.store.Cleanup(ctx, m.config.ImportTasks.MaxTaskAge); err != nil {
				m.logger.Warn("Task cleanup failed", map[string]interface{}{"error": err.Error()})
			}
			cancel()
		}
	}
}

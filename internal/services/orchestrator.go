package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/codeatpanorama/vision-flow/internal/models"
)

// TaskHandler is implemented once per task type
type TaskHandler interface {
	Type() models.TaskType
	FindPending(ctx context.Context) ([]models.Task, error)
	Handle(ctx context.Context, task *models.Task) (interface{}, error)
}

// TaskOutcome records what happened to one task in a batch
type TaskOutcome struct {
	TaskID     string
	DocumentID string
	Type       models.TaskType
	Status     models.TaskStatus
	Skipped    bool // claimed elsewhere or the claim failed
	Error      string
	Duration   time.Duration
}

// cycleOrder is the order RunCycle drains task types in
var cycleOrder = []models.TaskType{models.TaskTypeValidate, models.TaskTypeReport}

// Orchestrator claims pending tasks, dispatches them to their handler and
// writes exactly one terminal status per claimed task
type Orchestrator struct {
	store    TaskStore
	handlers map[models.TaskType]TaskHandler
	metrics  MetricsRecorder
}

// NewOrchestrator creates an orchestrator. metrics may be nil.
func NewOrchestrator(store TaskStore, metrics MetricsRecorder, handlers ...TaskHandler) *Orchestrator {
	byType := make(map[models.TaskType]TaskHandler, len(handlers))
	for _, h := range handlers {
		byType[h.Type()] = h
	}
	return &Orchestrator{store: store, handlers: byType, metrics: metrics}
}

// RunCycle drains the VALIDATE batch and then the REPORT batch
func (o *Orchestrator) RunCycle(ctx context.Context) error {
	for _, taskType := range cycleOrder {
		if _, ok := o.handlers[taskType]; !ok {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		if _, err := o.RunBatch(ctx, taskType); err != nil {
			return err
		}
	}
	return nil
}

// RunBatch processes every pending task of one type in store order.
// A failing task is recorded and the batch continues; an infrastructure
// error stops the batch and is returned. Cancelling ctx stops the batch
// between tasks, never during one.
func (o *Orchestrator) RunBatch(ctx context.Context, taskType models.TaskType) ([]TaskOutcome, error) {
	handler, ok := o.handlers[taskType]
	if !ok {
		return nil, fmt.Errorf("no handler registered for task type %s", taskType)
	}

	tasks, err := handler.FindPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s tasks: %w", taskType, err)
	}
	if len(tasks) > 0 {
		log.Printf("[ORCHESTRATOR] Found %d %s tasks to process", len(tasks), taskType)
	}

	outcomes := make([]TaskOutcome, 0, len(tasks))
	for i := range tasks {
		if ctx.Err() != nil {
			log.Printf("[ORCHESTRATOR] Stop requested, leaving %d %s tasks for the next run", len(tasks)-i, taskType)
			break
		}

		outcome, err := o.runTask(ctx, handler, &tasks[i])
		outcomes = append(outcomes, outcome)
		if err != nil {
			return outcomes, err
		}
	}
	return outcomes, nil
}

func (o *Orchestrator) runTask(ctx context.Context, handler TaskHandler, task *models.Task) (TaskOutcome, error) {
	// The task runs to completion even if a stop is requested meanwhile
	taskCtx := context.WithoutCancel(ctx)
	outcome := TaskOutcome{TaskID: task.ID, DocumentID: task.DocumentID, Type: task.Type}

	claimed, err := o.store.ClaimTask(taskCtx, task.ID)
	if err != nil {
		outcome.Skipped = true
		outcome.Error = err.Error()
		if models.IsInfrastructure(err) {
			return outcome, err
		}
		log.Printf("[ORCHESTRATOR] Failed to claim task %s: %v", task.ID, err)
		return outcome, nil
	}
	if !claimed {
		log.Printf("[ORCHESTRATOR] Task %s already claimed, skipping", task.ID)
		outcome.Skipped = true
		return outcome, nil
	}

	log.Printf("[ORCHESTRATOR] Processing %s task %s (document %s)", task.Type, task.ID, task.DocumentID)
	start := time.Now()
	result, handleErr := invokeHandler(taskCtx, handler, task)
	outcome.Duration = time.Since(start)

	if handleErr != nil && models.IsInfrastructure(handleErr) {
		log.Printf("[ORCHESTRATOR] Infrastructure error on task %s, releasing it: %v", task.ID, handleErr)
		if err := o.store.ReleaseTask(taskCtx, task.ID); err != nil {
			log.Printf("[WARN] Failed to release task %s: %v", task.ID, err)
		}
		outcome.Status = models.TaskStatusNotStarted
		outcome.Error = handleErr.Error()
		return outcome, handleErr
	}

	status, payload := terminalStatus(result, handleErr)
	outcome.Status = status
	if handleErr != nil {
		outcome.Error = handleErr.Error()
		log.Printf("[ORCHESTRATOR] Task %s %s: %v", task.ID, status, handleErr)
	}

	if err := o.store.UpdateTask(taskCtx, task.ID, status, payload); err != nil {
		log.Printf("[ORCHESTRATOR] Failed to write status %s for task %s: %v", status, task.ID, err)
		if models.IsInfrastructure(err) {
			// Best effort; if the store is still down the task stays IN_PROGRESS
			if releaseErr := o.store.ReleaseTask(taskCtx, task.ID); releaseErr != nil {
				log.Printf("[WARN] Failed to release task %s: %v", task.ID, releaseErr)
				outcome.Status = models.TaskStatusInProgress
			} else {
				outcome.Status = models.TaskStatusNotStarted
			}
			outcome.Error = err.Error()
			return outcome, err
		}
		outcome.Error = err.Error()
		return outcome, nil
	}
	log.Printf("[ORCHESTRATOR] Task %s finished with status %s in %s", task.ID, status, outcome.Duration.Round(time.Millisecond))

	o.recordRun(taskCtx, task, status, outcome.Duration, result)
	return outcome, nil
}

// invokeHandler turns a handler panic into an ordinary task error
func invokeHandler(ctx context.Context, handler TaskHandler, task *models.Task) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ORCHESTRATOR] Recovered panic in task %s: %v", task.ID, r)
			result = nil
			err = fmt.Errorf("panic while handling task: %v", r)
		}
	}()
	return handler.Handle(ctx, task)
}

// terminalStatus maps a handler's result and error to the status and payload written to the store
func terminalStatus(result interface{}, err error) (models.TaskStatus, interface{}) {
	if err == nil {
		return models.TaskStatusCompleted, result
	}

	status := models.TaskStatusFailed
	var structural *models.StructuralValidationError
	if errors.As(err, &structural) {
		status = models.TaskStatusValidationFailed
	}
	if result == nil {
		return status, models.ErrorResult{Error: err.Error()}
	}
	return status, result
}

func (o *Orchestrator) recordRun(ctx context.Context, task *models.Task, status models.TaskStatus, duration time.Duration, result interface{}) {
	if o.metrics == nil {
		return
	}
	run := models.TaskRun{
		TaskID:     task.ID,
		DocumentID: task.DocumentID,
		Type:       task.Type,
		Status:     status,
		Duration:   duration,
		FinishedAt: time.Now().UTC(),
	}
	switch r := result.(type) {
	case models.ValidationResult:
		run.Pages = r.ImageCount
		if r.IsValid {
			run.Checks = r.ImageCount / 2
		}
	case models.ProcessingResult:
		run.Checks = r.ChecksProcessed
	}
	if err := o.metrics.RecordTaskRun(ctx, run); err != nil {
		log.Printf("[WARN] Failed to record metrics for task %s: %v", task.ID, err)
	}
}

package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/codeatpanorama/vision-flow/internal/models"
	"github.com/codeatpanorama/vision-flow/internal/utils"
)

// ValidateHandler runs the structural check on a document and, when it
// passes, queues the document's REPORT task
type ValidateHandler struct {
	store     TaskStore
	validator *StructuralValidator
	category  string
}

// NewValidateHandler creates the VALIDATE task handler
func NewValidateHandler(store TaskStore, validator *StructuralValidator, category string) *ValidateHandler {
	return &ValidateHandler{store: store, validator: validator, category: category}
}

// Type returns the task type this handler processes
func (h *ValidateHandler) Type() models.TaskType {
	return models.TaskTypeValidate
}

// FindPending returns the NOT_STARTED validation tasks of the configured category
func (h *ValidateHandler) FindPending(ctx context.Context) ([]models.Task, error) {
	return h.store.FindTasks(ctx, models.TaskFilter{
		DocumentCategory: h.category,
		Type:             models.TaskTypeValidate,
		Status:           models.TaskStatusNotStarted,
	})
}

// Handle validates the task's PDF. A PDF that cannot hold front/back pairs
// yields a StructuralValidationError alongside its ValidationResult.
func (h *ValidateHandler) Handle(ctx context.Context, task *models.Task) (interface{}, error) {
	doc, err := documentForTask(ctx, h.store, task)
	if err != nil {
		return nil, err
	}

	log.Printf("[VALIDATE] Validating PDF %s for document %s", doc.Path, doc.ID)
	outcome := h.validator.Validate(ctx, doc.Path)
	result := models.ValidationResult{
		IsValid:     outcome.IsValid,
		ImageCount:  outcome.PageCount,
		Message:     outcome.Message,
		PdfPath:     doc.Path,
		ValidatedAt: utils.FormatTimestamp(time.Now()),
	}

	if !outcome.IsValid {
		log.Printf("[VALIDATE] Validation failed for task %s: %s", task.ID, outcome.Message)
		return result, &models.StructuralValidationError{PageCount: outcome.PageCount, Message: outcome.Message}
	}

	category := task.DocumentCategory
	if category == "" {
		category = h.category
	}
	// REPORT task creation stays the last write of a successful validation
	if err := h.store.UpdateFileDocument(ctx, task.DocumentID, outcome.PageCount/2); err != nil {
		return nil, fmt.Errorf("failed to update file document: %w", err)
	}
	if _, err := h.store.CreateReportTask(ctx, task.DocumentID, category); err != nil {
		return nil, fmt.Errorf("failed to create report task: %w", err)
	}

	log.Printf("[VALIDATE] Task %s valid: %d pages, %d checks", task.ID, outcome.PageCount, outcome.PageCount/2)
	return result, nil
}

// documentForTask loads the file document a task refers to
func documentForTask(ctx context.Context, store TaskStore, task *models.Task) (*models.Document, error) {
	doc, err := store.GetFileDocument(ctx, task.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("file document %s: %w", task.DocumentID, models.ErrNotFound)
	}
	if doc.Path == "" {
		return nil, fmt.Errorf("file document %s has no path: %w", task.DocumentID, models.ErrNotFound)
	}
	return doc, nil
}

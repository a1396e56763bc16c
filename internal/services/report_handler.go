package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/codeatpanorama/vision-flow/internal/models"
	"github.com/codeatpanorama/vision-flow/internal/utils"
)

// ReportHandler extracts and persists every check of a validated document
type ReportHandler struct {
	store     TaskStore
	processor *CheckProcessor
	category  string
}

// NewReportHandler creates the REPORT task handler
func NewReportHandler(store TaskStore, processor *CheckProcessor, category string) *ReportHandler {
	return &ReportHandler{store: store, processor: processor, category: category}
}

// Type returns the task type this handler processes
func (h *ReportHandler) Type() models.TaskType {
	return models.TaskTypeReport
}

// FindPending returns the NOT_STARTED report tasks of the configured category
func (h *ReportHandler) FindPending(ctx context.Context) ([]models.Task, error) {
	return h.store.FindTasks(ctx, models.TaskFilter{
		DocumentCategory: h.category,
		Type:             models.TaskTypeReport,
		Status:           models.TaskStatusNotStarted,
	})
}

// Handle runs the check processor and summarises the run as a ProcessingResult
func (h *ReportHandler) Handle(ctx context.Context, task *models.Task) (interface{}, error) {
	doc, err := documentForTask(ctx, h.store, task)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(doc.Path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("PDF file not found: %s: %w", doc.Path, models.ErrNotFound)
	}

	summary, err := h.processor.Process(ctx, task.DocumentID, doc.Path)
	result := models.ProcessingResult{
		Success:         err == nil,
		PdfPath:         doc.Path,
		ProcessedAt:     utils.FormatTimestamp(time.Now()),
		ChecksProcessed: len(summary.CheckIDs),
		CheckIDs:        summary.CheckIDs,
	}
	if err != nil {
		result.Message = fmt.Sprintf("Error processing PDF: %v", err)
		log.Printf("[REPORT] Error processing PDF for task %s: %v", task.ID, err)
		return result, err
	}

	result.Message = fmt.Sprintf("Processed %d checks", len(summary.CheckIDs))
	log.Printf("[REPORT] PDF processing completed for task %s: %d checks", task.ID, len(summary.CheckIDs))
	return result, nil
}

package services

import (
	"context"

	"github.com/codeatpanorama/vision-flow/internal/models"
)

// Page is one rasterised PDF page
type Page struct {
	Number int    // 1-based position in the source PDF
	Image  []byte // PNG encoded
}

// PageRenderer turns a PDF into its ordered page images
type PageRenderer interface {
	Render(ctx context.Context, pdfPath string) ([]Page, error)
}

// OCREngine extracts plain text from an encoded page image
type OCREngine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// LanguageModel completes a single system + user prompt exchange
type LanguageModel interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// TaskStore is the durable task queue and document metadata the orchestrator works against
type TaskStore interface {
	FindTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	ClaimTask(ctx context.Context, taskID string) (bool, error)
	UpdateTask(ctx context.Context, taskID string, status models.TaskStatus, result interface{}) error
	ReleaseTask(ctx context.Context, taskID string) error
	CreateReportTask(ctx context.Context, documentID, category string) (bool, error)
	GetFileDocument(ctx context.Context, documentID string) (*models.Document, error)
	UpdateFileDocument(ctx context.Context, documentID string, numberOfChecks int) error
}

// CheckPersister appends an extracted check to durable storage
type CheckPersister interface {
	Persist(ctx context.Context, record models.CheckRecord) error
}

// MetricsRecorder receives one point per handled task
type MetricsRecorder interface {
	RecordTaskRun(ctx context.Context, run models.TaskRun) error
}

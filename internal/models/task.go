package models

import "time"

// TaskType identifies which pipeline phase a task drives
type TaskType string

const (
	TaskTypeValidate TaskType = "VALIDATE"
	TaskTypeReport   TaskType = "REPORT"
)

// TaskStatus represents the status of a task
type TaskStatus string

const (
	TaskStatusNotStarted       TaskStatus = "NOT_STARTED"
	TaskStatusInProgress       TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted        TaskStatus = "COMPLETED"
	TaskStatusFailed           TaskStatus = "FAILED"
	TaskStatusValidationFailed TaskStatus = "VALIDATION_FAILED"
)

// IsTerminal reports whether no further transition is expected from the status
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusValidationFailed:
		return true
	}
	return false
}

// DefaultDocumentCategory is the category every check PDF is filed under
const DefaultDocumentCategory = "bank_checks"

// Task represents a durable unit of pipeline work stored in the task collection
type Task struct {
	ID               string                 `bson:"_id" json:"id"`
	DocumentID       string                 `bson:"documentId" json:"documentId"`
	DocumentCategory string                 `bson:"documentCategory" json:"documentCategory"`
	Type             TaskType               `bson:"type" json:"type"`
	Status           TaskStatus             `bson:"status" json:"status"`
	CreatedAt        time.Time              `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time              `bson:"updatedAt" json:"updatedAt"`
	Result           map[string]interface{} `bson:"result,omitempty" json:"result,omitempty"`
}

// TaskFilter selects tasks from the store. Empty fields are not filtered on.
type TaskFilter struct {
	DocumentID       string
	DocumentCategory string
	Type             TaskType
	Status           TaskStatus
	Limit            int64
}

// ValidationResult is stored on a VALIDATE task once it leaves IN_PROGRESS
type ValidationResult struct {
	IsValid     bool   `bson:"isValid" json:"isValid"`
	ImageCount  int    `bson:"imageCount" json:"imageCount"`
	Message     string `bson:"message" json:"message"`
	PdfPath     string `bson:"pdfPath" json:"pdfPath"`
	ValidatedAt string `bson:"validatedAt" json:"validatedAt"`
}

// ProcessingResult is stored on a REPORT task once it leaves IN_PROGRESS
type ProcessingResult struct {
	Success         bool     `bson:"success" json:"success"`
	Message         string   `bson:"message" json:"message"`
	PdfPath         string   `bson:"pdfPath" json:"pdfPath"`
	ProcessedAt     string   `bson:"processedAt" json:"processedAt"`
	ChecksProcessed int      `bson:"checksProcessed" json:"checksProcessed"`
	CheckIDs        []string `bson:"checkIds,omitempty" json:"checkIds,omitempty"`
}

// ErrorResult is the result payload written when a task fails before producing its own result
type ErrorResult struct {
	Error string `bson:"error" json:"error"`
}

// TaskRun summarises one handled task for metrics
type TaskRun struct {
	TaskID     string
	DocumentID string
	Type       TaskType
	Status     TaskStatus
	Duration   time.Duration
	Pages      int
	Checks     int
	FinishedAt time.Time
}

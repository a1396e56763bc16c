package models

// CreateTaskRequest represents the request to queue a VALIDATE task for a document
type CreateTaskRequest struct {
	DocumentID       string `json:"documentId" binding:"required"`
	DocumentCategory string `json:"documentCategory"` // Optional, defaults to bank_checks
}

// TaskResponse represents the response when creating a task
type TaskResponse struct {
	TaskID string `json:"taskId"`
	Status string `json:"status"`
}

// TaskListResponse represents the response when listing tasks
type TaskListResponse struct {
	Tasks []Task `json:"tasks"`
	Count int    `json:"count"`
}

// CheckListResponse represents the checks extracted for one document
type CheckListResponse struct {
	DocumentID string        `json:"documentId"`
	Checks     []CheckRecord `json:"checks"`
	Count      int           `json:"count"`
}

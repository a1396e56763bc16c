package api

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/codeatpanorama/vision-flow/internal/models"
	"github.com/codeatpanorama/vision-flow/internal/services"

	"github.com/gin-gonic/gin"
)

// Store is the part of the Mongo store the API reads and writes
type Store interface {
	Ping(ctx context.Context) error
	FindTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	GetTask(ctx context.Context, taskID string) (*models.Task, error)
	CreateTask(ctx context.Context, documentID, category string, taskType models.TaskType) (string, error)
	GetFileDocument(ctx context.Context, documentID string) (*models.Document, error)
	ListChecks(ctx context.Context, documentID string) ([]models.CheckRecord, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	store           Store
	images          services.ImageStore
	defaultCategory string
}

// NewHandlers creates a new handlers instance
func NewHandlers(store Store, images services.ImageStore, defaultCategory string) *Handlers {
	return &Handlers{
		store:           store,
		images:          images,
		defaultCategory: defaultCategory,
	}
}

// HealthHandler handles GET /health
func (h *Handlers) HealthHandler(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListTasksHandler handles GET /api/tasks
func (h *Handlers) ListTasksHandler(c *gin.Context) {
	filter := models.TaskFilter{
		DocumentID:       c.Query("documentId"),
		DocumentCategory: c.Query("category"),
		Type:             models.TaskType(c.Query("type")),
		Status:           models.TaskStatus(c.Query("status")),
		Limit:            100,
	}

	if filter.Type != "" && filter.Type != models.TaskTypeValidate && filter.Type != models.TaskTypeReport {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be VALIDATE or REPORT"})
		return
	}
	if filter.Status != "" && !validStatus(filter.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + string(filter.Status)})
		return
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.ParseInt(limit, 10, 64)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		filter.Limit = n
	}

	tasks, err := h.store.FindTasks(c.Request.Context(), filter)
	if err != nil {
		log.Printf("[API] Failed to list tasks: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tasks"})
		return
	}

	c.JSON(http.StatusOK, models.TaskListResponse{Tasks: tasks, Count: len(tasks)})
}

// GetTaskHandler handles GET /api/tasks/:taskId
func (h *Handlers) GetTaskHandler(c *gin.Context) {
	taskID := c.Param("taskId")

	task, err := h.store.GetTask(c.Request.Context(), taskID)
	if err != nil {
		log.Printf("[API] Failed to get task %s: %v", taskID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get task"})
		return
	}
	if task == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	c.JSON(http.StatusOK, task)
}

// CreateTaskHandler handles POST /api/tasks
// Queues a VALIDATE task for an existing file document
func (h *Handlers) CreateTaskHandler(c *gin.Context) {
	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	doc, err := h.store.GetFileDocument(ctx, req.DocumentID)
	if err != nil {
		log.Printf("[API] Failed to get document %s: %v", req.DocumentID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get document"})
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}

	category := req.DocumentCategory
	if category == "" {
		category = h.defaultCategory
	}

	taskID, err := h.store.CreateTask(ctx, req.DocumentID, category, models.TaskTypeValidate)
	if err != nil {
		log.Printf("[API] Failed to create task for document %s: %v", req.DocumentID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create task"})
		return
	}

	c.JSON(http.StatusCreated, models.TaskResponse{
		TaskID: taskID,
		Status: string(models.TaskStatusNotStarted),
	})
}

// GetDocumentHandler handles GET /api/documents/:documentId
func (h *Handlers) GetDocumentHandler(c *gin.Context) {
	documentID := c.Param("documentId")

	doc, err := h.store.GetFileDocument(c.Request.Context(), documentID)
	if err != nil {
		log.Printf("[API] Failed to get document %s: %v", documentID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get document"})
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}

	c.JSON(http.StatusOK, doc)
}

// ListChecksHandler handles GET /api/documents/:documentId/checks
func (h *Handlers) ListChecksHandler(c *gin.Context) {
	documentID := c.Param("documentId")

	checks, err := h.store.ListChecks(c.Request.Context(), documentID)
	if err != nil {
		log.Printf("[API] Failed to list checks for document %s: %v", documentID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list checks"})
		return
	}

	c.JSON(http.StatusOK, models.CheckListResponse{
		DocumentID: documentID,
		Checks:     checks,
		Count:      len(checks),
	})
}

// GetCheckImageHandler handles GET /api/checks/:checkId/images/:side
// Streams the cleaned front or back image of a check
func (h *Handlers) GetCheckImageHandler(c *gin.Context) {
	side := c.Param("side")
	if side != services.SideFront && side != services.SideBack {
		c.JSON(http.StatusBadRequest, gin.H{"error": "side must be front or back"})
		return
	}

	body, contentType, err := h.images.GetObject(c.Request.Context(), services.CheckImageKey(c.Param("checkId"), side))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
			return
		}
		log.Printf("[API] Failed to get check image: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get image"})
		return
	}
	defer body.Close()

	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		log.Printf("[API] Failed to stream check image: %v", err)
	}
}

func validStatus(status models.TaskStatus) bool {
	switch status {
	case models.TaskStatusNotStarted, models.TaskStatusInProgress, models.TaskStatusCompleted,
		models.TaskStatusFailed, models.TaskStatusValidationFailed:
		return true
	}
	return false
}

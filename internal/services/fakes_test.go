package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/codeatpanorama/vision-flow/internal/models"
)

// fakeOCR returns the text registered for an image, keyed by its bytes
type fakeOCR struct {
	texts map[string]string
	err   error
	calls int
}

func (f *fakeOCR) Recognize(_ context.Context, image []byte) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.texts[string(image)], nil
}

// fakeRenderer returns fixed pages for every path it knows about
type fakeRenderer struct {
	pages map[string][]Page
	err   error
}

func (f *fakeRenderer) Render(_ context.Context, pdfPath string) ([]Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	pages, ok := f.pages[pdfPath]
	if !ok {
		return nil, fmt.Errorf("no such pdf %s", pdfPath)
	}
	return pages, nil
}

// fakeLLM returns canned replies in order and records the prompts it saw
type fakeLLM struct {
	replies []string
	err     error
	prompts []string
	system  string
}

func (f *fakeLLM) Complete(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	f.system = systemPrompt
	f.prompts = append(f.prompts, userPrompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", errors.New("no reply queued")
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

// memoryStore is an in-memory TaskStore
type memoryStore struct {
	mu        sync.Mutex
	tasks     []*models.Task
	documents map[string]*models.Document
	results   map[string]interface{}

	findErr      error
	updateErr    map[string]error
	createErr    error
	documentErr  error
	docUpdateErr error
	claimedElse  map[string]bool
	releasedIDs  []string
	nextReportID int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		documents:   map[string]*models.Document{},
		results:     map[string]interface{}{},
		updateErr:   map[string]error{},
		claimedElse: map[string]bool{},
	}
}

func (s *memoryStore) addTask(id, documentID string, taskType models.TaskType) {
	s.tasks = append(s.tasks, &models.Task{
		ID:               id,
		DocumentID:       documentID,
		DocumentCategory: models.DefaultDocumentCategory,
		Type:             taskType,
		Status:           models.TaskStatusNotStarted,
	})
}

func (s *memoryStore) task(id string) *models.Task {
	for _, t := range s.tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (s *memoryStore) FindTasks(_ context.Context, filter models.TaskFilter) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []models.Task
	for _, t := range s.tasks {
		if filter.DocumentID != "" && t.DocumentID != filter.DocumentID {
			continue
		}
		if filter.DocumentCategory != "" && t.DocumentCategory != filter.DocumentCategory {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (s *memoryStore) ClaimTask(_ context.Context, taskID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.task(taskID)
	if t == nil || s.claimedElse[taskID] || t.Status != models.TaskStatusNotStarted {
		return false, nil
	}
	t.Status = models.TaskStatusInProgress
	return true, nil
}

func (s *memoryStore) UpdateTask(_ context.Context, taskID string, status models.TaskStatus, result interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.updateErr[taskID]; err != nil {
		return err
	}
	t := s.task(taskID)
	if t == nil {
		return models.ErrNotFound
	}
	t.Status = status
	if result != nil {
		s.results[taskID] = result
	}
	return nil
}

func (s *memoryStore) ReleaseTask(_ context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releasedIDs = append(s.releasedIDs, taskID)
	if t := s.task(taskID); t != nil && t.Status == models.TaskStatusInProgress {
		t.Status = models.TaskStatusNotStarted
	}
	return nil
}

func (s *memoryStore) CreateReportTask(_ context.Context, documentID, category string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return false, s.createErr
	}
	for _, t := range s.tasks {
		if t.DocumentID == documentID && t.Type == models.TaskTypeReport {
			return false, nil
		}
	}
	s.nextReportID++
	s.tasks = append(s.tasks, &models.Task{
		ID:               fmt.Sprintf("report-%d", s.nextReportID),
		DocumentID:       documentID,
		DocumentCategory: category,
		Type:             models.TaskTypeReport,
		Status:           models.TaskStatusNotStarted,
	})
	return true, nil
}

func (s *memoryStore) GetFileDocument(_ context.Context, documentID string) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.documentErr != nil {
		return nil, s.documentErr
	}
	doc, ok := s.documents[documentID]
	if !ok {
		return nil, nil
	}
	copied := *doc
	return &copied, nil
}

func (s *memoryStore) UpdateFileDocument(_ context.Context, documentID string, numberOfChecks int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docUpdateErr != nil {
		return s.docUpdateErr
	}
	doc, ok := s.documents[documentID]
	if !ok {
		return fmt.Errorf("file document %s: %w", documentID, models.ErrNotFound)
	}
	n := numberOfChecks
	doc.NumberOfChecks = &n
	return nil
}

func (s *memoryStore) reportTasks(documentID string) []*models.Task {
	var out []*models.Task
	for _, t := range s.tasks {
		if t.DocumentID == documentID && t.Type == models.TaskTypeReport {
			out = append(out, t)
		}
	}
	return out
}

// recordingPersister keeps every persisted record in memory
type recordingPersister struct {
	records []models.CheckRecord
	err     error
}

func (p *recordingPersister) Persist(_ context.Context, record models.CheckRecord) error {
	if p.err != nil {
		return p.err
	}
	p.records = append(p.records, record)
	return nil
}

// recordingMetrics keeps every task run in memory
type recordingMetrics struct {
	runs []models.TaskRun
}

func (m *recordingMetrics) RecordTaskRun(_ context.Context, run models.TaskRun) error {
	m.runs = append(m.runs, run)
	return nil
}

func makePages(images ...string) []Page {
	out := make([]Page, len(images))
	for i, img := range images {
		out[i] = Page{Number: i + 1, Image: []byte(img)}
	}
	return out
}

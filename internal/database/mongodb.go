package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/codeatpanorama/vision-flow/internal/config"
	"github.com/codeatpanorama/vision-flow/internal/models"
	"github.com/codeatpanorama/vision-flow/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDBClient wraps the MongoDB client backing the task queue, the file
// documents and the extracted check records
type MongoDBClient struct {
	client             *mongo.Client
	database           *mongo.Database
	taskCollection     *mongo.Collection
	documentCollection *mongo.Collection
	checkCollection    *mongo.Collection
}

// NewMongoDBClient connects to MongoDB and verifies the connection
func NewMongoDBClient(cfg config.MongoDBConfig) (*MongoDBClient, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	uri, logURI, err := buildURI(cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("[MONGO] Attempting to connect to MongoDB at %s", logURI)

	clientOptions := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB at %s: %w", logURI, err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB at %s: %w", logURI, err)
	}

	c := NewMongoDBClientFromDatabase(client.Database(cfg.Database), cfg)
	c.ensureIndexes(ctx)

	log.Printf("[MONGO] Successfully connected to MongoDB at %s (database: %s)", logURI, cfg.Database)
	return c, nil
}

// NewMongoDBClientFromDatabase wraps an already connected database handle
func NewMongoDBClientFromDatabase(db *mongo.Database, cfg config.MongoDBConfig) *MongoDBClient {
	return &MongoDBClient{
		client:             db.Client(),
		database:           db,
		taskCollection:     db.Collection(orDefault(cfg.TaskCollection, "task")),
		documentCollection: db.Collection(orDefault(cfg.DocumentCollection, "file_document")),
		checkCollection:    db.Collection(orDefault(cfg.CheckDetailsCollection, "check_details")),
	}
}

// buildURI injects credentials into the configured URI when they are supplied
// separately. The second return value masks the password for logging.
func buildURI(cfg config.MongoDBConfig) (string, string, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return cfg.URI, cfg.URI, nil
	}

	u, err := url.Parse(cfg.URI)
	if err != nil {
		return "", "", fmt.Errorf("invalid MONGO_URI: %w", err)
	}
	// Authenticate against the application database unless the URI says otherwise
	if strings.Trim(u.Path, "/") == "" {
		u.Path = "/" + cfg.Database
	}
	u.User = url.UserPassword(cfg.Username, cfg.Password)
	return u.String(), u.Redacted(), nil
}

func (c *MongoDBClient) ensureIndexes(ctx context.Context) {
	pending := mongo.IndexModel{
		Keys: bson.D{{Key: "documentCategory", Value: 1}, {Key: "type", Value: 1}, {Key: "status", Value: 1}},
	}
	if _, err := c.taskCollection.Indexes().CreateOne(ctx, pending); err != nil {
		// Index might already exist, that's okay
		log.Printf("[MONGO] Note: task index creation: %v", err)
	}

	// At most one REPORT task per document
	oneReport := mongo.IndexModel{
		Keys: bson.D{{Key: "documentId", Value: 1}, {Key: "type", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"type": string(models.TaskTypeReport)}),
	}
	if _, err := c.taskCollection.Indexes().CreateOne(ctx, oneReport); err != nil {
		log.Printf("[MONGO] Note: report task index creation: %v", err)
	}

	byDocument := mongo.IndexModel{
		Keys: bson.D{{Key: "documentId", Value: 1}, {Key: "createdAt", Value: 1}},
	}
	if _, err := c.checkCollection.Indexes().CreateOne(ctx, byDocument); err != nil {
		log.Printf("[MONGO] Note: check_details index creation: %v", err)
	}
}

// Ping checks that the deployment is still reachable
func (c *MongoDBClient) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, nil); err != nil {
		return storeError("ping", err)
	}
	return nil
}

// Close closes the MongoDB client connection
func (c *MongoDBClient) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}

// FindTasks returns the tasks matching filter in the store's natural order
func (c *MongoDBClient) FindTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	query := bson.M{}
	if filter.DocumentID != "" {
		query["documentId"] = filter.DocumentID
	}
	if filter.DocumentCategory != "" {
		query["documentCategory"] = filter.DocumentCategory
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	opts := options.Find()
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := c.taskCollection.Find(ctx, query, opts)
	if err != nil {
		return nil, storeError("failed to query tasks", err)
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, storeError("failed to decode tasks", err)
	}
	return tasks, nil
}

// GetTask retrieves a task by ID. It returns nil when the task does not exist.
func (c *MongoDBClient) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	var task models.Task
	err := c.taskCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // Not found
		}
		return nil, storeError("failed to query task", err)
	}
	return &task, nil
}

// CreateTask inserts a new NOT_STARTED task and returns its ID
func (c *MongoDBClient) CreateTask(ctx context.Context, documentID, category string, taskType models.TaskType) (string, error) {
	now := time.Now().UTC()
	task := models.Task{
		ID:               utils.GenerateTaskID(),
		DocumentID:       documentID,
		DocumentCategory: category,
		Type:             taskType,
		Status:           models.TaskStatusNotStarted,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err := c.taskCollection.InsertOne(ctx, task); err != nil {
		return "", storeError("failed to create task", err)
	}
	log.Printf("[MONGO] Created %s task %s for document %s", taskType, task.ID, documentID)
	return task.ID, nil
}

// CreateReportTask creates the REPORT task for a document unless one already
// exists. It reports whether a new task was inserted.
func (c *MongoDBClient) CreateReportTask(ctx context.Context, documentID, category string) (bool, error) {
	now := time.Now().UTC()
	filter := bson.M{"documentId": documentID, "type": models.TaskTypeReport}
	update := bson.M{"$setOnInsert": bson.M{
		"_id":              utils.GenerateTaskID(),
		"documentCategory": category,
		"status":           models.TaskStatusNotStarted,
		"createdAt":        now,
		"updatedAt":        now,
	}}

	result, err := c.taskCollection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, storeError("failed to create report task", err)
	}
	if result.UpsertedID == nil {
		log.Printf("[MONGO] Report task already exists for document %s", documentID)
		return false, nil
	}
	log.Printf("[MONGO] Created check report task %v for document %s", result.UpsertedID, documentID)
	return true, nil
}

// ClaimTask moves a task from NOT_STARTED to IN_PROGRESS. It returns false
// when the task is no longer NOT_STARTED, e.g. another worker took it.
func (c *MongoDBClient) ClaimTask(ctx context.Context, taskID string) (bool, error) {
	filter := bson.M{"_id": taskID, "status": models.TaskStatusNotStarted}
	update := bson.M{"$set": bson.M{
		"status":    models.TaskStatusInProgress,
		"updatedAt": time.Now().UTC(),
	}}

	err := c.taskCollection.FindOneAndUpdate(ctx, filter, update).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, storeError("failed to claim task", err)
	}
	return true, nil
}

// UpdateTask sets the task status and, when given, its result payload
func (c *MongoDBClient) UpdateTask(ctx context.Context, taskID string, status models.TaskStatus, result interface{}) error {
	set := bson.M{
		"status":    status,
		"updatedAt": time.Now().UTC(),
	}
	if result != nil {
		set["result"] = result
	}

	res, err := c.taskCollection.UpdateOne(ctx, bson.M{"_id": taskID}, bson.M{"$set": set})
	if err != nil {
		return storeError("failed to update task status", err)
	}
	if res.MatchedCount == 0 {
		log.Printf("[MONGO] WARNING: No task updated for ID: %s", taskID)
		return fmt.Errorf("task %s: %w", taskID, models.ErrNotFound)
	}
	return nil
}

// ReleaseTask puts an IN_PROGRESS task back to NOT_STARTED so the next poll picks it up
func (c *MongoDBClient) ReleaseTask(ctx context.Context, taskID string) error {
	filter := bson.M{"_id": taskID, "status": models.TaskStatusInProgress}
	update := bson.M{"$set": bson.M{
		"status":    models.TaskStatusNotStarted,
		"updatedAt": time.Now().UTC(),
	}}
	if _, err := c.taskCollection.UpdateOne(ctx, filter, update); err != nil {
		return storeError("failed to release task", err)
	}
	return nil
}

// GetFileDocument retrieves a file document by ID. It returns nil when the document does not exist.
func (c *MongoDBClient) GetFileDocument(ctx context.Context, documentID string) (*models.Document, error) {
	var doc models.Document
	err := c.documentCollection.FindOne(ctx, bson.M{"_id": documentID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // Not found
		}
		return nil, storeError("failed to query file document", err)
	}
	return &doc, nil
}

// UpdateFileDocument records the number of checks found in a document
func (c *MongoDBClient) UpdateFileDocument(ctx context.Context, documentID string, numberOfChecks int) error {
	update := bson.M{"$set": bson.M{
		"numberOfChecks": numberOfChecks,
		"updatedAt":      time.Now().UTC(),
	}}

	res, err := c.documentCollection.UpdateOne(ctx, bson.M{"_id": documentID}, update)
	if err != nil {
		return storeError("failed to update file document", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("file document %s: %w", documentID, models.ErrNotFound)
	}
	log.Printf("[MONGO] Updated file document %s with number of checks: %d", documentID, numberOfChecks)
	return nil
}

// InsertCheck appends one extracted check record
func (c *MongoDBClient) InsertCheck(ctx context.Context, record models.CheckRecord) error {
	if _, err := c.checkCollection.InsertOne(ctx, record); err != nil {
		return storeError("failed to insert check record", err)
	}
	return nil
}

// ListChecks returns the checks extracted from a document in the order they were created
func (c *MongoDBClient) ListChecks(ctx context.Context, documentID string) ([]models.CheckRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := c.checkCollection.Find(ctx, bson.M{"documentId": documentID}, opts)
	if err != nil {
		return nil, storeError("failed to query check records", err)
	}
	defer cursor.Close(ctx)

	checks := []models.CheckRecord{}
	if err := cursor.All(ctx, &checks); err != nil {
		return nil, storeError("failed to decode check records", err)
	}
	return checks, nil
}

// storeError wraps err with op, marking connectivity failures as infrastructure errors
func storeError(op string, err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return &models.InfrastructureError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

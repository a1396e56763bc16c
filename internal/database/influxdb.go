package database

import (
	"context"
	"fmt"
	"log"

	"github.com/codeatpanorama/vision-flow/internal/config"
	"github.com/codeatpanorama/vision-flow/internal/models"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const taskRunMeasurement = "task_run"

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxDBClient writes per-task run metrics to InfluxDB
type InfluxDBClient struct {
	client influxdb2.Client
	writer pointWriter
	org    string
	bucket string
}

// NewInfluxDBClient creates a new InfluxDB client and checks the server health
func NewInfluxDBClient(cfg config.InfluxDBConfig) (*InfluxDBClient, error) {
	log.Printf("[INFLUX-INIT] Initializing InfluxDB 2.0 client: url=%s, org=%s, bucket=%s", cfg.URL, cfg.Org, cfg.Bucket)

	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	health, err := client.Health(context.Background())
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}
	if health.Status != "pass" {
		log.Printf("[INFLUX-WARN] InfluxDB health check returned status: %s", health.Status)
	}

	return &InfluxDBClient{
		client: client,
		writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		org:    cfg.Org,
		bucket: cfg.Bucket,
	}, nil
}

// RecordTaskRun writes one point describing a handled task
func (c *InfluxDBClient) RecordTaskRun(ctx context.Context, run models.TaskRun) error {
	if err := c.writer.WritePoint(ctx, taskRunPoint(run)); err != nil {
		return fmt.Errorf("failed to write to InfluxDB: %w", err)
	}
	return nil
}

// Close closes the InfluxDB client
func (c *InfluxDBClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

func taskRunPoint(run models.TaskRun) *write.Point {
	tags := map[string]string{
		"type":   string(run.Type),
		"status": string(run.Status),
	}
	fields := map[string]interface{}{
		"task_id":     run.TaskID,
		"document_id": run.DocumentID,
		"duration_ms": run.Duration.Milliseconds(),
		"pages":       run.Pages,
		"checks":      run.Checks,
	}
	return influxdb2.NewPoint(taskRunMeasurement, tags, fields, run.FinishedAt)
}

// Package app wires configuration into a running check pipeline. Both the
// long-running server and the visionctl tool build their components here.
package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/codeatpanorama/vision-flow/internal/config"
	"github.com/codeatpanorama/vision-flow/internal/database"
	"github.com/codeatpanorama/vision-flow/internal/ocr"
	"github.com/codeatpanorama/vision-flow/internal/services"
)

// Pipeline holds every long-lived component of the worker
type Pipeline struct {
	Config       *config.Config
	Mongo        *database.MongoDBClient
	Influx       *database.InfluxDBClient
	Images       services.ImageStore
	Processor    *services.CheckProcessor
	Validator    *services.StructuralValidator
	Orchestrator *services.Orchestrator
}

// SetupLogging configures the standard logger. When LOG_FILE is set, output
// goes to both stderr and the file. The returned closer is never nil.
func SetupLogging(cfg config.LogConfig) (io.Closer, error) {
	flags := log.LstdFlags
	if cfg.Verbose {
		flags |= log.Lmicroseconds | log.Lshortfile
	}
	log.SetFlags(flags)

	if cfg.File == "" {
		return io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return f, nil
}

// checkSinks orders persisters so the CSV export is written last. A record
// the stores reject never reaches the export.
func checkSinks(export services.CheckPersister, stores ...services.CheckPersister) []services.CheckPersister {
	return append(append([]services.CheckPersister{}, stores...), export)
}

// NewProcessor builds the REPORT pipeline without any database. Extracted
// checks go to any store sinks and then to the CSV export.
func NewProcessor(ctx context.Context, cfg *config.Config, stores ...services.CheckPersister) (*services.CheckProcessor, services.ImageStore, error) {
	llm, err := services.NewLanguageModel(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	images, err := services.NewImageStore(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, err
	}

	csvPersister, err := services.NewCSVPersister(cfg.Export.CSVPath)
	if err != nil {
		return nil, nil, err
	}

	processor := services.NewCheckProcessor(
		services.NewPopplerRenderer(cfg.Renderer),
		ocr.NewTesseractEngine(cfg.OCR),
		llm,
		images,
		services.NewMultiPersister(checkSinks(csvPersister, stores...)...),
	)
	return processor, images, nil
}

// NewPipeline connects to MongoDB (and InfluxDB when configured) and builds
// the orchestrator with both task handlers registered
func NewPipeline(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	mongoClient, err := database.NewMongoDBClient(cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	p := &Pipeline{Config: cfg, Mongo: mongoClient}

	// A nil *InfluxDBClient must not reach the orchestrator as a non-nil interface
	var metrics services.MetricsRecorder
	if cfg.InfluxDB.URL != "" {
		influxClient, err := database.NewInfluxDBClient(cfg.InfluxDB)
		if err != nil {
			log.Printf("[WARN] InfluxDB unavailable, task metrics disabled: %v", err)
		} else {
			p.Influx = influxClient
			metrics = influxClient
		}
	} else {
		log.Printf("InfluxDB not configured, task metrics disabled")
	}

	processor, images, err := NewProcessor(ctx, cfg, services.NewMongoCheckPersister(mongoClient))
	if err != nil {
		p.Close()
		return nil, err
	}
	p.Processor = processor
	p.Images = images
	p.Validator = services.NewStructuralValidator(services.NewPopplerRenderer(cfg.Renderer))

	category := cfg.Worker.DocumentCategory
	p.Orchestrator = services.NewOrchestrator(mongoClient, metrics,
		services.NewValidateHandler(mongoClient, p.Validator, category),
		services.NewReportHandler(mongoClient, p.Processor, category),
	)
	return p, nil
}

// Close releases database connections
func (p *Pipeline) Close() {
	if p.Influx != nil {
		p.Influx.Close()
	}
	if p.Mongo != nil {
		if err := p.Mongo.Close(); err != nil {
			log.Printf("[WARN] Failed to close MongoDB connection: %v", err)
		}
	}
}

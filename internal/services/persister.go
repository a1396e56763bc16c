package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/codeatpanorama/vision-flow/internal/models"
	"github.com/codeatpanorama/vision-flow/internal/utils"
)

// CSVHeader is the column order of the check export
var CSVHeader = []string{
	"check_id",
	"payee_name",
	"amount",
	"date",
	"check_number",
	"check_transit_number",
	"check_institution_number",
	"check_bank_account_number",
	"bank",
	"company_name_address",
	"raw_text",
	"document_id",
	"front_image_path",
	"back_image_path",
	"created_at",
}

// CSVPersister appends check records to a CSV export, writing the header when the file is new
type CSVPersister struct {
	mu   sync.Mutex
	path string
}

// NewCSVPersister creates the export file with its header unless it already exists
func NewCSVPersister(path string) (*CSVPersister, error) {
	p := &CSVPersister{path: path}
	if err := p.initialize(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *CSVPersister) initialize() error {
	if info, err := os.Stat(p.path); err == nil && info.Size() > 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	log.Printf("[PERSIST] Initializing CSV export at %s", p.path)
	return p.appendRows([][]string{CSVHeader})
}

// Persist appends one row to the export
func (p *CSVPersister) Persist(ctx context.Context, record models.CheckRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.appendRows([][]string{csvRow(record)})
}

func (p *CSVPersister) appendRows(rows [][]string) error {
	file, err := os.OpenFile(p.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open CSV export: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV export: %w", err)
	}
	return nil
}

func csvRow(r models.CheckRecord) []string {
	d := r.Details
	return []string{
		r.CheckID,
		d.PayeeName,
		d.Amount,
		d.Date,
		d.CheckNumber,
		d.TransitNumber,
		d.InstitutionNumber,
		d.BankAccountNumber,
		d.Bank,
		d.CompanyNameAddress,
		d.RawText,
		r.DocumentID,
		r.FrontImagePath,
		r.BackImagePath,
		utils.FormatTimestamp(r.CreatedAt),
	}
}

// CheckInserter is the part of the Mongo store the check persister needs
type CheckInserter interface {
	InsertCheck(ctx context.Context, record models.CheckRecord) error
}

// MongoCheckPersister inserts check records into the check_details collection
type MongoCheckPersister struct {
	store CheckInserter
}

// NewMongoCheckPersister creates a persister over store
func NewMongoCheckPersister(store CheckInserter) *MongoCheckPersister {
	return &MongoCheckPersister{store: store}
}

// Persist inserts one check record
func (p *MongoCheckPersister) Persist(ctx context.Context, record models.CheckRecord) error {
	return p.store.InsertCheck(ctx, record)
}

// MultiPersister writes each record to every sink, in order
type MultiPersister struct {
	sinks []CheckPersister
}

// NewMultiPersister creates a persister fanning out to sinks
func NewMultiPersister(sinks ...CheckPersister) *MultiPersister {
	return &MultiPersister{sinks: sinks}
}

// Persist stops at the first failing sink; later sinks never see the record
func (p *MultiPersister) Persist(ctx context.Context, record models.CheckRecord) error {
	for _, sink := range p.sinks {
		if err := sink.Persist(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

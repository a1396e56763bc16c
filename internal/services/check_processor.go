package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/codeatpanorama/vision-flow/internal/models"
	"github.com/codeatpanorama/vision-flow/internal/utils"
)

// ProcessSummary describes one PDF run. On error it holds what was persisted before the failure.
type ProcessSummary struct {
	PageCount int      `json:"pageCount"`
	CheckIDs  []string `json:"checkIds"`
}

// CheckProcessor runs the extraction pipeline over one PDF
type CheckProcessor struct {
	renderer  PageRenderer
	pairer    *PagePairer
	extractor *FieldExtractor
	images    ImageStore
	persister CheckPersister
}

// NewCheckProcessor wires the pipeline stages together
func NewCheckProcessor(renderer PageRenderer, ocr OCREngine, llm LanguageModel, images ImageStore, persister CheckPersister) *CheckProcessor {
	return &CheckProcessor{
		renderer:  renderer,
		pairer:    NewPagePairer(ocr),
		extractor: NewFieldExtractor(llm),
		images:    images,
		persister: persister,
	}
}

// Process renders, pairs, extracts and persists every check in pdfPath
func (p *CheckProcessor) Process(ctx context.Context, documentID, pdfPath string) (*ProcessSummary, error) {
	summary := &ProcessSummary{CheckIDs: []string{}}

	log.Printf("[REPORT] Converting PDF to images: %s", pdfPath)
	pages, err := p.renderer.Render(ctx, pdfPath)
	if err != nil {
		return summary, fmt.Errorf("failed to render PDF: %w", err)
	}
	summary.PageCount = len(pages)

	pairs, err := p.pairer.Pair(ctx, pages)
	if err != nil {
		return summary, err
	}

	for _, pair := range pairs {
		checkID := utils.GenerateCheckID()
		log.Printf("[REPORT] Processing check %d/%d (ID: %s)", pair.Index, len(pairs), checkID)

		record, err := p.processPair(ctx, documentID, checkID, pair)
		if err != nil {
			return summary, fmt.Errorf("check %d: %w", pair.Index, err)
		}
		if err := p.persister.Persist(ctx, *record); err != nil {
			return summary, fmt.Errorf("check %d: failed to persist: %w", pair.Index, err)
		}
		summary.CheckIDs = append(summary.CheckIDs, checkID)
		log.Printf("[REPORT] Added check %s", checkID)
	}

	return summary, nil
}

func (p *CheckProcessor) processPair(ctx context.Context, documentID, checkID string, pair CheckPair) (*models.CheckRecord, error) {
	details, err := p.extractor.Extract(ctx, pair.FrontText, pair.BackText)
	if err != nil {
		return nil, err
	}

	frontPath, err := p.saveSide(ctx, checkID, SideFront, pair.Front)
	if err != nil {
		return nil, err
	}
	var backPath string
	if pair.Back != nil {
		if backPath, err = p.saveSide(ctx, checkID, SideBack, *pair.Back); err != nil {
			return nil, err
		}
	}
	log.Printf("[REPORT] Saved check images to %s and %s", frontPath, backPath)

	now := time.Now().UTC()
	return &models.CheckRecord{
		CheckID:        checkID,
		DocumentID:     documentID,
		Details:        *details,
		FrontImagePath: frontPath,
		BackImagePath:  backPath,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (p *CheckProcessor) saveSide(ctx context.Context, checkID, side string, page Page) (string, error) {
	cleaned, err := CleanCheckImage(page.Image)
	if err != nil {
		return "", fmt.Errorf("failed to clean %s image: %w", side, err)
	}
	path, err := p.images.SaveCheckImage(ctx, checkID, side, cleaned)
	if err != nil {
		return "", fmt.Errorf("failed to save %s image: %w", side, err)
	}
	return path, nil
}

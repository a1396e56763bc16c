package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
)

// ValidationOutcome is the structural verdict on one PDF
type ValidationOutcome struct {
	IsValid   bool   `json:"isValid"`
	PageCount int    `json:"pageCount"`
	Message   string `json:"message"`
}

// StructuralValidator checks that a PDF holds whole front/back pairs
type StructuralValidator struct {
	renderer PageRenderer
}

// NewStructuralValidator creates a validator that counts pages with renderer
func NewStructuralValidator(renderer PageRenderer) *StructuralValidator {
	return &StructuralValidator{renderer: renderer}
}

// Validate never inspects page content. Only the page count decides.
func (v *StructuralValidator) Validate(ctx context.Context, pdfPath string) ValidationOutcome {
	if _, err := os.Stat(pdfPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ValidationOutcome{Message: fmt.Sprintf("PDF file not found: %s", pdfPath)}
		}
		return ValidationOutcome{Message: fmt.Sprintf("Error validating PDF: %v", err)}
	}

	pages, err := v.renderer.Render(ctx, pdfPath)
	if err != nil {
		log.Printf("[VALIDATE] Failed to render %s: %v", pdfPath, err)
		return ValidationOutcome{Message: fmt.Sprintf("Error validating PDF: %v", err)}
	}

	count := len(pages)
	if count%2 != 0 {
		return ValidationOutcome{
			PageCount: count,
			Message:   fmt.Sprintf("Invalid PDF: Found %d images (odd number). Each check must have both front and back images.", count),
		}
	}

	return ValidationOutcome{
		IsValid:   true,
		PageCount: count,
		Message:   "PDF has valid number of images",
	}
}

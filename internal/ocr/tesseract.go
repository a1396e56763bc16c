// Package ocr provides the Tesseract-backed text recognizer. It lives apart
// from services because gosseract links against libtesseract through cgo.
package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/codeatpanorama/vision-flow/internal/config"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine recognises page text with a fresh gosseract client per image
type TesseractEngine struct {
	languages      []string
	tessdataPrefix string
	clientFactory  func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed OCR engine
func NewTesseractEngine(cfg config.OCRConfig) *TesseractEngine {
	return &TesseractEngine{
		languages:      cfg.Languages,
		tessdataPrefix: cfg.TessdataPrefix,
		clientFactory:  gosseract.NewClient,
	}
}

// Recognize performs OCR on a single encoded image
func (e *TesseractEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := e.clientFactory()
	defer c.Close()

	if e.tessdataPrefix != "" {
		if err := c.SetTessdataPrefix(e.tessdataPrefix); err != nil {
			return "", fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

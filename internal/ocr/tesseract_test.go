package ocr

import (
	"context"
	"os/exec"
	"testing"

	"github.com/codeatpanorama/vision-flow/internal/config"

	"github.com/otiai10/gosseract/v2"
	"github.com/stretchr/testify/assert"
)

func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func TestRecognizeCancelledContext(t *testing.T) {
	engine := NewTesseractEngine(config.OCRConfig{Languages: []string{"eng"}})
	engine.clientFactory = func() *gosseract.Client {
		t.Fatal("client must not be created for a cancelled context")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Recognize(ctx, []byte("png"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecognizeRejectsGarbage(t *testing.T) {
	ensureTesseractAvailable(t)

	engine := NewTesseractEngine(config.OCRConfig{Languages: []string{"eng"}})
	_, err := engine.Recognize(context.Background(), []byte("definitely not an image"))
	assert.Error(t, err)
}

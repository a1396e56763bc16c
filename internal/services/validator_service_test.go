package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writePDF(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

func TestValidatePageParity(t *testing.T) {
	for count := 0; count <= 7; count++ {
		path := writePDF(t, "checks.pdf")
		images := make([]string, count)
		for i := range images {
			images[i] = "img"
		}
		renderer := &fakeRenderer{pages: map[string][]Page{path: makePages(images...)}}

		outcome := NewStructuralValidator(renderer).Validate(context.Background(), path)

		assert.Equal(t, count%2 == 0, outcome.IsValid, "count %d", count)
		assert.Equal(t, count, outcome.PageCount)
	}
}

func TestValidateMessages(t *testing.T) {
	t.Run("odd count", func(t *testing.T) {
		path := writePDF(t, "odd.pdf")
		renderer := &fakeRenderer{pages: map[string][]Page{path: makePages("a", "b", "c")}}
		outcome := NewStructuralValidator(renderer).Validate(context.Background(), path)
		assert.Equal(t, ValidationOutcome{
			PageCount: 3,
			Message:   "Invalid PDF: Found 3 images (odd number). Each check must have both front and back images.",
		}, outcome)
	})

	t.Run("even count", func(t *testing.T) {
		path := writePDF(t, "even.pdf")
		renderer := &fakeRenderer{pages: map[string][]Page{path: makePages("a", "b")}}
		outcome := NewStructuralValidator(renderer).Validate(context.Background(), path)
		assert.Equal(t, "PDF has valid number of images", outcome.Message)
	})

	t.Run("missing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.pdf")
		outcome := NewStructuralValidator(&fakeRenderer{}).Validate(context.Background(), path)
		assert.False(t, outcome.IsValid)
		assert.Equal(t, 0, outcome.PageCount)
		assert.Equal(t, "PDF file not found: "+path, outcome.Message)
	})

	t.Run("render error", func(t *testing.T) {
		path := writePDF(t, "broken.pdf")
		renderer := &fakeRenderer{err: errors.New("syntax error in xref")}
		outcome := NewStructuralValidator(renderer).Validate(context.Background(), path)
		assert.False(t, outcome.IsValid)
		assert.Equal(t, 0, outcome.PageCount)
		assert.Equal(t, "Error validating PDF: syntax error in xref", outcome.Message)
	})
}

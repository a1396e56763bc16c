package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/codeatpanorama/vision-flow/internal/config"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PopplerRenderer rasterises PDFs with poppler's pdftoppm
type PopplerRenderer struct {
	binary string
	dpi    int
}

// NewPopplerRenderer creates a renderer from the renderer settings
func NewPopplerRenderer(cfg config.RendererConfig) *PopplerRenderer {
	binary := cfg.PdftoppmPath
	if binary == "" {
		binary = "pdftoppm"
	}
	dpi := cfg.DPI
	if dpi <= 0 {
		dpi = 200
	}
	return &PopplerRenderer{binary: binary, dpi: dpi}
}

// Render returns every page of the PDF as a PNG, in document order
func (r *PopplerRenderer) Render(ctx context.Context, pdfPath string) ([]Page, error) {
	// pdfcpu rejects files that are not PDFs before we spawn a process
	expected, err := api.PageCountFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF %s: %w", pdfPath, err)
	}

	workDir, err := os.MkdirTemp("", "vision-flow-render-")
	if err != nil {
		return nil, fmt.Errorf("failed to create render directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.binary, "-png", "-r", strconv.Itoa(r.dpi), pdfPath, filepath.Join(workDir, "page"))
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}

	files, err := filepath.Glob(filepath.Join(workDir, "page-*.png"))
	if err != nil {
		return nil, fmt.Errorf("failed to list rendered pages: %w", err)
	}
	files = sortPageFiles(files)

	if len(files) != expected {
		log.Printf("[WARN] pdftoppm produced %d pages for %s, pdfcpu counted %d", len(files), pdfPath, expected)
	}

	pages := make([]Page, 0, len(files))
	for i, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read rendered page %d: %w", i+1, err)
		}
		pages = append(pages, Page{Number: i + 1, Image: data})
	}
	return pages, nil
}

var pageSuffix = regexp.MustCompile(`-(\d+)\.png$`)

// sortPageFiles orders pdftoppm output by page number. pdftoppm pads the
// number to the width of the page count, so a plain sort only works when
// every name has the same padding.
func sortPageFiles(files []string) []string {
	pageNumber := func(name string) int {
		m := pageSuffix.FindStringSubmatch(name)
		if m == nil {
			return 0
		}
		n, _ := strconv.Atoi(m[1])
		return n
	}
	sorted := append([]string(nil), files...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return pageNumber(sorted[i]) < pageNumber(sorted[j])
	})
	return sorted
}

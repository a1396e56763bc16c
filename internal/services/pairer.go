package services

import (
	"context"
	"fmt"
	"log"
)

// CheckPair is one check's front and back page with their OCR text.
// Back is nil for a trailing unpaired page.
type CheckPair struct {
	Index     int
	Front     Page
	Back      *Page
	FrontText string
	BackText  string
}

// PagePairer groups consecutive pages into front/back check pairs
type PagePairer struct {
	ocr OCREngine
}

// NewPagePairer creates a pairer that reads page text with ocr
func NewPagePairer(ocr OCREngine) *PagePairer {
	return &PagePairer{ocr: ocr}
}

// Pair consumes pages two at a time and decides which page of each pair is
// the front. When the classifier marks both or neither page as front, the
// first page of the pair is used. Pairs keep source order.
func (p *PagePairer) Pair(ctx context.Context, pages []Page) ([]CheckPair, error) {
	pairs := make([]CheckPair, 0, (len(pages)+1)/2)

	for i := 0; i < len(pages); i += 2 {
		index := len(pairs) + 1

		firstText, err := p.ocr.Recognize(ctx, pages[i].Image)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", pages[i].Number, err)
		}

		if i+1 >= len(pages) {
			if IsCheckFront(firstText) {
				log.Printf("[WARN] Check %d: page %d has no partner, using it as the front", index, pages[i].Number)
			} else {
				log.Printf("[WARN] Check %d: page %d has no partner and reads like a back, front information may be missing", index, pages[i].Number)
			}
			pairs = append(pairs, CheckPair{
				Index:     index,
				Front:     pages[i],
				FrontText: firstText,
			})
			continue
		}

		secondText, err := p.ocr.Recognize(ctx, pages[i+1].Image)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", pages[i+1].Number, err)
		}

		first, second := pages[i], pages[i+1]
		if !IsCheckFront(firstText) && IsCheckFront(secondText) {
			log.Printf("[PAIRER] Check %d: second page is front", index)
			pairs = append(pairs, CheckPair{
				Index:     index,
				Front:     second,
				Back:      &first,
				FrontText: secondText,
				BackText:  firstText,
			})
			continue
		}

		log.Printf("[PAIRER] Check %d: first page is front", index)
		pairs = append(pairs, CheckPair{
			Index:     index,
			Front:     first,
			Back:      &second,
			FrontText: firstText,
			BackText:  secondText,
		})
	}

	log.Printf("[PAIRER] Found %d checks in %d pages", len(pairs), len(pages))
	return pairs, nil
}

package services

import "strings"

var frontIndicators = []string{
	"pay to",
	"pay",
	"dollars",
	"signature",
	"date",
	"memo",
	"void after",
	"order of",
	"$",
	"amount",
}

var backIndicators = []string{
	"endorse",
	"endorsement",
	"deposit",
	"back of check",
	"do not write",
	"below this line",
}

// PageScores counts the front and back indicator terms present in text.
// Each term counts at most once.
func PageScores(text string) (front, back int) {
	lower := strings.ToLower(text)
	for _, term := range frontIndicators {
		if strings.Contains(lower, term) {
			front++
		}
	}
	for _, term := range backIndicators {
		if strings.Contains(lower, term) {
			back++
		}
	}
	return front, back
}

// IsCheckFront reports whether OCR text reads like the front of a check.
// Ties go to the back.
func IsCheckFront(text string) bool {
	front, back := PageScores(text)
	return front > back
}

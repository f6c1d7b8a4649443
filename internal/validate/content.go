// Package validate scores extracted content and vets URLs before the
// pipeline spends network calls on them. Validation reports problems, it
// never aborts on its own; callers decide whether a failed result is fatal.
package validate

import (
	"fmt"
	"strings"

	"github.com/docvec/docvec/internal/extract"
)

// Result is the outcome of a validation pass.
type Result struct {
	IsValid      bool
	QualityScore float64 // in [0,1]
	Errors       []string
	Warnings     []string
}

// ContentValidator scores extracted pages against a minimum quality bar.
type ContentValidator struct {
	minScore float64
}

// NewContentValidator creates a validator with the given minimum quality
// score. Zero or negative falls back to 0.3.
func NewContentValidator(minScore float64) *ContentValidator {
	if minScore <= 0 {
		minScore = 0.3
	}
	return &ContentValidator{minScore: minScore}
}

// Content validates an extracted page. Scoring starts at 1.0 and subtracts
// fixed penalties for structural deficits; code blocks earn a small bonus.
func (v *ContentValidator) Content(page *extract.Page) Result {
	var res Result

	if page == nil {
		res.Errors = append(res.Errors, "missing required field: page")
		return res
	}
	if page.URL == "" {
		res.Errors = append(res.Errors, "missing required field: url")
	}
	if strings.TrimSpace(page.Text) == "" {
		res.Errors = append(res.Errors, "missing required field: text content")
	}
	if len(res.Errors) > 0 {
		return res
	}

	score, warnings := assessQuality(page)
	res.QualityScore = score
	res.Warnings = append(res.Warnings, warnings...)

	if score < v.minScore {
		res.Errors = append(res.Errors, fmt.Sprintf("content quality too low (score: %.2f)", score))
	}
	res.IsValid = len(res.Errors) == 0
	return res
}

func assessQuality(page *extract.Page) (float64, []string) {
	score := 1.0
	var warnings []string

	text := strings.TrimSpace(page.Text)
	if len(text) < 50 {
		score -= 0.3
		warnings = append(warnings, "content is very short (< 50 characters)")
	}
	if text == "" || strings.Count(text, " ") < 5 {
		score -= 0.4
		warnings = append(warnings, "content appears to have minimal text")
	}
	if strings.TrimSpace(page.Title) == "" {
		score -= 0.1
		warnings = append(warnings, "no title found")
	}
	if !hasHeadings(page) {
		score -= 0.1
		warnings = append(warnings, "no headings found, content may lack structure")
	}
	if len(page.Meta) == 0 {
		score -= 0.1
		warnings = append(warnings, "no metadata found")
	}
	if len(page.CodeBlocks) > 0 {
		score += 0.1
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0.0 {
		score = 0.0
	}
	return score, warnings
}

func hasHeadings(page *extract.Page) bool {
	for _, n := range page.Nodes {
		if n.IsHeading() {
			return true
		}
	}
	return false
}

package validate

import (
	"strings"
	"testing"

	"github.com/docvec/docvec/internal/extract"
)

func richPage() *extract.Page {
	return &extract.Page{
		URL:   "https://docs.example.com/guide",
		Title: "Guide",
		Text:  strings.Repeat("A paragraph with plenty of words in it. ", 5),
		Nodes: []extract.Node{
			{Tag: "h1", Level: 1, Text: "Guide"},
			{Tag: "p", Text: "A paragraph with plenty of words in it."},
		},
		Meta: map[string]string{"description": "A guide"},
	}
}

func TestContent_RichPagePasses(t *testing.T) {
	v := NewContentValidator(0.3)
	res := v.Content(richPage())
	if !res.IsValid {
		t.Fatalf("expected rich page to pass, got errors: %v", res.Errors)
	}
	if res.QualityScore != 1.0 {
		t.Errorf("expected score 1.0, got %v", res.QualityScore)
	}
}

func TestContent_NilPage(t *testing.T) {
	v := NewContentValidator(0.3)
	if res := v.Content(nil); res.IsValid {
		t.Error("expected nil page to fail")
	}
}

func TestContent_MissingText(t *testing.T) {
	v := NewContentValidator(0.3)
	page := richPage()
	page.Text = "   "
	res := v.Content(page)
	if res.IsValid {
		t.Error("expected page without text to fail")
	}
	if len(res.Errors) == 0 {
		t.Error("expected a missing-field error")
	}
}

func TestContent_MissingURL(t *testing.T) {
	v := NewContentValidator(0.3)
	page := richPage()
	page.URL = ""
	if res := v.Content(page); res.IsValid {
		t.Error("expected page without URL to fail")
	}
}

func TestContent_BarePageScoresLow(t *testing.T) {
	v := NewContentValidator(0.3)
	page := &extract.Page{
		URL:  "https://example.com",
		Text: "tiny",
	}
	res := v.Content(page)
	if res.IsValid {
		t.Errorf("expected bare page below threshold, score %v", res.QualityScore)
	}
	// short text, minimal words, no title, no headings, no metadata
	if res.QualityScore != 0.0 {
		t.Errorf("expected all penalties to stack to 0.0, got %v", res.QualityScore)
	}
	if len(res.Warnings) < 4 {
		t.Errorf("expected warnings for each deficit, got %v", res.Warnings)
	}
}

func TestContent_CodeBlockBonusCapped(t *testing.T) {
	v := NewContentValidator(0.3)
	page := richPage()
	page.CodeBlocks = []string{"fmt.Println(\"hi\")"}
	res := v.Content(page)
	if res.QualityScore != 1.0 {
		t.Errorf("expected score capped at 1.0, got %v", res.QualityScore)
	}
}

func TestContent_ThresholdBoundary(t *testing.T) {
	// Page missing title, headings and metadata scores 0.7.
	page := &extract.Page{
		URL:  "https://example.com",
		Text: strings.Repeat("Plenty of words in a long enough paragraph. ", 3),
	}
	if res := NewContentValidator(0.3).Content(page); !res.IsValid {
		t.Errorf("expected 0.7 to pass threshold 0.3, errors: %v", res.Errors)
	}
	if res := NewContentValidator(0.8).Content(page); res.IsValid {
		t.Error("expected 0.7 to fail threshold 0.8")
	}
}

// Package document builds a hierarchical model of an extracted page,
// preserving heading nesting for downstream chunking.
package document

import (
	"strings"

	"github.com/docvec/docvec/internal/extract"
)

// minContentLength filters out boilerplate fragments (button labels,
// breadcrumb crumbs) when collecting content blocks.
const minContentLength = 20

// Heading is a single h1..h6 element.
type Heading struct {
	Level    int
	Text     string
	AnchorID string
}

// ContentBlock is a span of content text tagged with the heading chain
// that was current when it appeared in document order.
type ContentBlock struct {
	Text        string
	HeadingPath []string // ancestor heading texts, outermost first
}

// DocumentStructure is the hierarchical model of one page. It is built once
// per extraction and immutable afterwards.
type DocumentStructure struct {
	Title     string
	SourceURL string
	Headings  []Heading
	Blocks    []ContentBlock
}

// Section is a slice of the page between two heading boundaries, with its
// breadcrumb path (ancestor titles, itself last).
type Section struct {
	Level   int
	Title   string
	Content string
	Path    []string
}

// Structure walks page nodes in document order into a DocumentStructure.
// A new heading at level L pops recorded ancestors at level >= L before
// pushing itself; content blocks snapshot the stack at that moment.
// Malformed input degrades to empty fields, never an error.
func Structure(page *extract.Page) *DocumentStructure {
	doc := &DocumentStructure{}
	if page == nil {
		return doc
	}
	doc.Title = page.Title
	doc.SourceURL = page.URL

	var stack []Heading
	for _, node := range page.Nodes {
		if node.IsHeading() {
			h := Heading{Level: node.Level, Text: node.Text, AnchorID: node.AnchorID}
			for len(stack) > 0 && stack[len(stack)-1].Level >= h.Level {
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, h)
			doc.Headings = append(doc.Headings, h)
			continue
		}
		text := strings.TrimSpace(node.Text)
		if len(text) <= minContentLength {
			continue
		}
		path := make([]string, len(stack))
		for i, h := range stack {
			path[i] = h.Text
		}
		doc.Blocks = append(doc.Blocks, ContentBlock{Text: text, HeadingPath: path})
	}

	return doc
}

// Sections slices text at the document's heading boundaries, in document
// order. Each section's path is its ancestor heading chain including itself.
// A document with no locatable headings yields one synthetic section titled
// after the page.
func (d *DocumentStructure) Sections(text string) []Section {
	text = strings.TrimSpace(text)

	type position struct {
		heading    Heading
		start, end int
	}
	var positions []position
	searchFrom := 0
	for _, h := range d.Headings {
		if h.Text == "" {
			continue
		}
		idx := strings.Index(text[searchFrom:], h.Text)
		if idx < 0 {
			// Heading text fell past the truncation boundary or was
			// normalized away; skip it rather than mis-slice.
			continue
		}
		start := searchFrom + idx
		positions = append(positions, position{heading: h, start: start, end: start + len(h.Text)})
		searchFrom = start + len(h.Text)
	}

	if len(positions) == 0 {
		title := d.Title
		if title == "" {
			title = "Untitled"
		}
		if text == "" {
			return nil
		}
		return []Section{{Level: 0, Title: title, Content: text, Path: []string{title}}}
	}

	var sections []Section
	var stack []Heading
	for i, p := range positions {
		end := len(text)
		if i+1 < len(positions) {
			end = positions[i+1].start
		}
		content := strings.TrimSpace(text[p.end:end])

		for len(stack) > 0 && stack[len(stack)-1].Level >= p.heading.Level {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, p.heading)

		path := make([]string, len(stack))
		for j, h := range stack {
			path[j] = h.Text
		}
		sections = append(sections, Section{
			Level:   p.heading.Level,
			Title:   p.heading.Text,
			Content: content,
			Path:    path,
		})
	}
	return sections
}

// BreadcrumbPath joins all heading texts in document order, for logging.
func (d *DocumentStructure) BreadcrumbPath() string {
	texts := make([]string, len(d.Headings))
	for i, h := range d.Headings {
		texts[i] = h.Text
	}
	return strings.Join(texts, " > ")
}

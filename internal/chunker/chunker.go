// Package chunker splits structured sections into bounded-size chunks for
// embedding, preferring paragraph boundaries and falling back to sentence
// boundaries.
package chunker

import (
	"regexp"
	"strings"

	"github.com/docvec/docvec/internal/document"
)

// PathSeparator joins breadcrumb entries into a context path.
const PathSeparator = " > "

// DefaultMaxChunkSize is the fallback chunk limit in characters.
const DefaultMaxChunkSize = 1000

var paragraphRe = regexp.MustCompile(`\n\s*\n`)

// Chunk is a bounded span of section text plus its heading context.
type Chunk struct {
	Content        string
	ContextPath    string
	SectionTitle   string
	HierarchyLevel int
}

// ChunkSections converts sections into chunks of at most maxChunkSize
// characters. A single sentence longer than the limit is emitted whole;
// that is the only case where a chunk may exceed the limit. Ordering within
// a section is preserved exactly.
func ChunkSections(sections []document.Section, maxChunkSize int) []Chunk {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}

	var chunks []Chunk
	for _, section := range sections {
		content := strings.TrimSpace(section.Content)
		if content == "" {
			continue
		}

		emit := func(text string) {
			chunks = append(chunks, Chunk{
				Content:        text,
				ContextPath:    strings.Join(section.Path, PathSeparator),
				SectionTitle:   section.Title,
				HierarchyLevel: section.Level,
			})
		}

		if len(content) <= maxChunkSize {
			emit(content)
			continue
		}

		for _, part := range splitContent(content, maxChunkSize) {
			emit(part)
		}
	}
	return chunks
}

// splitContent accumulates paragraphs up to the limit, flushing on overflow.
// Paragraphs that alone exceed the limit are split at sentence boundaries.
func splitContent(content string, maxChunkSize int) []string {
	var parts []string
	var buf strings.Builder

	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			parts = append(parts, s)
		}
		buf.Reset()
	}

	for _, para := range splitParagraphs(content) {
		if len(para) > maxChunkSize {
			flush()
			parts = append(parts, splitBySentences(para, maxChunkSize)...)
			continue
		}
		if buf.Len() > 0 && buf.Len()+2+len(para) > maxChunkSize {
			flush()
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(para)
	}
	flush()

	return parts
}

func splitParagraphs(content string) []string {
	var paras []string
	for _, p := range paragraphRe.Split(content, -1) {
		if p = strings.TrimSpace(p); p != "" {
			paras = append(paras, p)
		}
	}
	return paras
}

// splitBySentences applies the same accumulate/flush discipline at sentence
// granularity. Terminators stay attached to their sentence and are never
// duplicated across chunk boundaries.
func splitBySentences(text string, maxChunkSize int) []string {
	var parts []string
	var buf strings.Builder

	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			parts = append(parts, s)
		}
		buf.Reset()
	}

	for _, sent := range splitSentences(text) {
		if buf.Len() > 0 && buf.Len()+1+len(sent) > maxChunkSize {
			flush()
		}
		if len(sent) > maxChunkSize && buf.Len() == 0 {
			// Oversized single sentence: emit whole, exceeding the limit.
			parts = append(parts, sent)
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(sent)
	}
	flush()

	return parts
}

// splitSentences splits at terminal punctuation followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && (i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n') {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

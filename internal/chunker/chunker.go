// Package chunker splits extracted document text into overlapping rune windows
// and persists them as the chunk file consumed by the indexer.
package chunker

import (
	"fmt"
	"sort"
	"strings"

	"gopherai-rag/internal/model"
	"gopherai-rag/internal/ragerr"
)

// Span is one window of text and the rune offset where it starts.
type Span struct {
	Text  string
	Start int
}

// Split cuts text into windows of size runes, each starting overlap runes before
// the end of the previous one. The last window may be shorter than size.
func Split(text string, size, overlap int) ([]Span, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ragerr.ErrInvalidInput, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d", ragerr.ErrInvalidInput, size, overlap)
	}

	runes := []rune(text)
	step := size - overlap
	var spans []Span
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		spans = append(spans, Span{Text: string(runes[start:end]), Start: start})
		if end == len(runes) {
			break
		}
	}
	return spans, nil
}

// Reassemble undoes Split: the first chunk is kept whole and every later chunk
// contributes everything after its leading overlap.
func Reassemble(texts []string, overlap int) string {
	var b strings.Builder
	for i, t := range texts {
		if i == 0 {
			b.WriteString(t)
			continue
		}
		runes := []rune(t)
		if overlap < len(runes) {
			b.WriteString(string(runes[overlap:]))
		}
	}
	return b.String()
}

// ChunkDocument splits doc and attaches source, page and position metadata.
func ChunkDocument(doc *Document, size, overlap int) ([]model.Chunk, error) {
	spans, err := Split(doc.Text, size, overlap)
	if err != nil {
		return nil, err
	}
	chunks := make([]model.Chunk, len(spans))
	for i, s := range spans {
		chunks[i] = model.Chunk{
			Text: s.Text,
			Metadata: model.ChunkMetadata{
				Source:   doc.Source,
				Page:     doc.PageAt(s.Start),
				Position: i,
				Offset:   s.Start,
			},
		}
	}
	return chunks, nil
}

// Document is the extracted text of a source file.
type Document struct {
	Source string
	Text   string
	// PageStarts[i] is the rune offset where page i+1 begins.
	PageStarts []int
}

// PageSeparator joins page texts inside Document.Text.
const PageSeparator = "\n\n"

// NewDocument joins pages into a single text and records where each page starts.
func NewDocument(source string, pages []string) *Document {
	doc := &Document{Source: source, PageStarts: make([]int, len(pages))}
	var b strings.Builder
	offset := 0
	for i, p := range pages {
		if i > 0 {
			b.WriteString(PageSeparator)
			offset += len([]rune(PageSeparator))
		}
		doc.PageStarts[i] = offset
		b.WriteString(p)
		offset += len([]rune(p))
	}
	doc.Text = b.String()
	return doc
}

// PageAt returns the 1-based page containing rune offset, or 0 when the document has no pages.
func (d *Document) PageAt(offset int) int {
	if len(d.PageStarts) == 0 {
		return 0
	}
	// number of pages starting at or before offset
	return sort.Search(len(d.PageStarts), func(i int) bool {
		return d.PageStarts[i] > offset
	})
}

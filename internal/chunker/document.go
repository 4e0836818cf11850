package chunker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopherai-rag/internal/pkg/pdfextract"
	"gopherai-rag/internal/ragerr"
)

// LoadDocument reads a PDF page by page, or a .txt/.md file as a single page.
func LoadDocument(path string) (*Document, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: document path is empty", ragerr.ErrDocumentRead)
	}

	var pages []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ragerr.ErrDocumentRead, path, err)
		}
		pages = []string{string(data)}
	default:
		extracted, err := pdfextract.ExtractFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ragerr.ErrDocumentRead, path, err)
		}
		pages = extracted
	}

	doc := NewDocument(path, pages)
	if strings.TrimSpace(doc.Text) == "" {
		return nil, fmt.Errorf("%w: %s contains no extractable text", ragerr.ErrDocumentRead, path)
	}
	return doc, nil
}

package pdfextract

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Gaps wider than this fraction of the font size read as a word break.
const wordGapRatio = 0.2

// ExtractFile opens the PDF at path and returns the plain text of every page, in page order.
func ExtractFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return ExtractPages(f, info.Size())
}

// ExtractPages extracts plain text page by page. Pages without extractable text yield "".
func ExtractPages(r io.ReaderAt, size int64) ([]string, error) {
	if size == 0 {
		return nil, fmt.Errorf("empty pdf")
	}
	pdfReader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, err
	}

	total := pdfReader.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := pageText(page)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// pageText lays glyphs out by position so word and line breaks survive.
// Fonts without width tables fall back to the library's plain text.
func pageText(page pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%v", r)
		}
	}()

	glyphs := page.Content().Text
	if !hasWidths(glyphs) {
		return page.GetPlainText(nil)
	}
	return layout(glyphs), nil
}

func hasWidths(glyphs []pdf.Text) bool {
	for _, g := range glyphs {
		if g.W > 0 {
			return true
		}
	}
	return false
}

func layout(glyphs []pdf.Text) string {
	var sb strings.Builder
	var prev *pdf.Text
	for i := range glyphs {
		g := &glyphs[i]
		if g.S == "" || g.S == "\n" {
			continue
		}
		if prev != nil {
			size := math.Max(prev.FontSize, 1)
			switch {
			case math.Abs(g.Y-prev.Y) > size/2:
				sb.WriteByte('\n')
			case g.X-(prev.X+prev.W) > size*wordGapRatio && !endsWithSpace(sb.String()) && g.S != " ":
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(g.S)
		prev = g
	}
	return sb.String()
}

func endsWithSpace(s string) bool {
	return strings.HasSuffix(s, " ") || strings.HasSuffix(s, "\n")
}

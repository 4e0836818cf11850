package pdfextract

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const threePages = "testdata/three_pages.pdf"

func TestExtractPages(t *testing.T) {
	t.Run("Should reject empty input", func(t *testing.T) {
		_, err := ExtractPages(bytes.NewReader(nil), 0)
		require.Error(t, err)
	})

	t.Run("Should reject bytes that are not a pdf", func(t *testing.T) {
		data := []byte("plain text, definitely not a pdf")
		_, err := ExtractPages(bytes.NewReader(data), int64(len(data)))
		require.Error(t, err)
	})
}

func TestExtractFile(t *testing.T) {
	t.Run("Should fail on a missing file", func(t *testing.T) {
		_, err := ExtractFile(filepath.Join(t.TempDir(), "missing.pdf"))
		assert.Error(t, err)
	})

	t.Run("Should return every page in order", func(t *testing.T) {
		pages, err := ExtractFile(threePages)
		require.NoError(t, err)
		require.Len(t, pages, 3)
		assert.Equal(t, "Hello world\nSecond line here", pages[0])
		assert.Equal(t, "", pages[1])
		assert.Equal(t, "Third page text", pages[2])
	})

	t.Run("Should keep the space between separately drawn words", func(t *testing.T) {
		pages, err := ExtractFile(threePages)
		require.NoError(t, err)
		assert.Contains(t, pages[0], "Hello world")
		assert.NotContains(t, pages[0], "Helloworld")
	})
}

func TestLayout(t *testing.T) {
	t.Run("Should not double an existing space", func(t *testing.T) {
		glyphs := []pdf.Text{
			{FontSize: 10, X: 0, Y: 100, W: 5, S: "a"},
			{FontSize: 10, X: 5, Y: 100, W: 5, S: " "},
			{FontSize: 10, X: 20, Y: 100, W: 5, S: "b"},
		}
		assert.Equal(t, "a b", layout(glyphs))
	})

	t.Run("Should break lines when the baseline moves", func(t *testing.T) {
		glyphs := []pdf.Text{
			{FontSize: 10, X: 0, Y: 100, W: 5, S: "a"},
			{FontSize: 10, X: 0, Y: 88, W: 5, S: "b"},
		}
		assert.Equal(t, "a\nb", layout(glyphs))
	})

	t.Run("Should join adjacent glyphs without a gap", func(t *testing.T) {
		glyphs := []pdf.Text{
			{FontSize: 10, X: 0, Y: 100, W: 5, S: "a"},
			{FontSize: 10, X: 5, Y: 100, W: 5, S: "b"},
			{FontSize: 10, X: 10, Y: 100, W: 0, S: "\n"},
		}
		assert.Equal(t, "ab", layout(glyphs))
	})
}

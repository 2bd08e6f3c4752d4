package pdf

import (
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
)

func TestConvertMarkdownToPDF(t *testing.T) {
	// Setup
	logger := arbor.NewLogger()
	service := NewService(logger)

	tests := []struct {
		name     string
		markdown string
		title    string
		wantErr  bool
	}{
		{
			name:     "Basic Markdown",
			markdown: "# Title\n\nSome paragraph text.\n\n- Item 1\n- Item 2",
			title:    "Test Document",
			wantErr:  false,
		},
		{
			name:     "Empty Markdown",
			markdown: "",
			title:    "Empty Doc",
			wantErr:  false,
		},
		{
			name: "Summary Line and Table",
			markdown: `# Weekly Golf Report

**Test Golfer** | Aug 14, 2026 to Aug 21, 2026

| Date | Course |
|------|--------|
| 2026-08-20 | Pebble Creek |
`,
			title:   "Weekly Report",
			wantErr: false,
		},
		{
			name:     "Bold and Italic",
			markdown: "Normal **Bold** *Italic* ***BoldItalic***",
			title:    "Styling",
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pdfBytes, err := service.ConvertMarkdownToPDF(tt.markdown, tt.title)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.NotNil(t, pdfBytes)
			assert.NotEmpty(t, pdfBytes)

			// Basic PDF header check
			assert.Equal(t, "%PDF", string(pdfBytes[:4]))
		})
	}
}

func TestConvertMarkdownToPDF_Tables(t *testing.T) {
	logger := arbor.NewLogger()
	service := NewService(logger)

	markdown := `
# Weekly Rounds

| Date | Course | Score | To Par |
|------|--------|-------|--------|
| 2026-08-20 | Pebble Creek | 84 | +12 |
| 2026-08-23 | Royal Pines  | 79 | +7  |

End of table.
`
	pdfBytes, err := service.ConvertMarkdownToPDF(markdown, "Weekly Report")
	assert.NoError(t, err)
	assert.NotNil(t, pdfBytes)
	assert.Greater(t, len(pdfBytes), 500) // Ensure substantial content
	assert.Equal(t, "%PDF", string(pdfBytes[:4]))
}

func TestWrapCell(t *testing.T) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", tableFontSize)
	r := &reportRenderer{pdf: pdf}

	assert.Nil(t, r.wrapCell("", 40))
	assert.Equal(t, []string{"84"}, r.wrapCell("84", 40))

	// A long course name wraps across lines instead of overflowing.
	lines := r.wrapCell("The Royal and Ancient Golf Club of St Andrews", 25)
	assert.Greater(t, len(lines), 1)
	for _, line := range lines {
		assert.LessOrEqual(t, pdf.GetStringWidth(line), 25.0)
	}
}

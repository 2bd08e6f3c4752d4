package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const (
	bodyFont     = "Arial"
	bodyFontSize = 9.0

	tableFontSize  = 8.0
	tableRowHeight = 4.0
	tableMaxLines  = 8

	contentWidth = 180.0 // A4 width minus margins, mm
)

// Service renders weekly report markdown to PDF. The report builder
// emits headings, paragraphs with emphasis, bullet lists and tables;
// those are the constructs the renderer supports.
type Service struct {
	logger arbor.ILogger
}

var _ interfaces.PDFService = (*Service)(nil)

func NewService(logger arbor.ILogger) *Service {
	return &Service{
		logger: logger,
	}
}

// ConvertMarkdownToPDF renders a markdown document to PDF bytes. The
// title goes into the PDF metadata only; the document heading comes
// from the markdown itself.
func (s *Service) ConvertMarkdownToPDF(markdown, title string) ([]byte, error) {
	s.logger.Debug().
		Int("markdown_len", len(markdown)).
		Str("title", title).
		Msg("Converting markdown to PDF")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()
	pdf.SetFont(bodyFont, "", bodyFontSize)

	md := goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.Strikethrough),
	)

	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	renderer := &reportRenderer{
		pdf:    pdf,
		source: source,
	}
	if err := ast.Walk(doc, renderer.walk); err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate PDF")
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate PDF output")
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}

	s.logger.Debug().Int("pdf_size", buf.Len()).Msg("PDF generated")
	return buf.Bytes(), nil
}

// reportRenderer walks the goldmark AST and drives fpdf directly.
type reportRenderer struct {
	pdf    *fpdf.Fpdf
	source []byte

	bold      bool
	italic    bool
	inList    bool
	listLevel int
}

func (r *reportRenderer) bodyFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetFont(bodyFont, style, bodyFontSize)
}

func (r *reportRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n.Kind() {
	case ast.KindHeading:
		r.renderHeading(n.(*ast.Heading), entering)
	case ast.KindParagraph:
		if !entering {
			r.pdf.Ln(7)
		}
	case ast.KindText:
		if entering {
			r.pdf.Write(5, string(n.Text(r.source)))
		}
	case ast.KindEmphasis:
		if n.(*ast.Emphasis).Level == 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.bodyFont()
	case ast.KindList:
		r.renderList(entering)
	case ast.KindListItem:
		if entering {
			r.pdf.Ln(5)
			r.pdf.SetX(15 + float64(r.listLevel)*5)
			r.pdf.Write(5, "- ")
		}
	case ast.KindThematicBreak:
		if entering {
			r.pdf.Ln(2)
			r.pdf.Line(15, r.pdf.GetY(), 195, r.pdf.GetY())
			r.pdf.Ln(2)
		}
	case extast.KindTable:
		if entering {
			r.renderTable(collectTableRows(n.(*extast.Table), r.source))
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, nil
}

func (r *reportRenderer) renderHeading(n *ast.Heading, entering bool) {
	if entering {
		r.pdf.Ln(6)
		size := 10.0
		switch n.Level {
		case 1:
			size = 14
		case 2:
			size = 12
		case 3:
			size = 11
		}
		r.pdf.SetFont(bodyFont, "B", size)
		return
	}
	r.pdf.Ln(6)
	r.bodyFont()
}

func (r *reportRenderer) renderList(entering bool) {
	if entering {
		r.inList = true
		r.listLevel++
		return
	}
	r.listLevel--
	if r.listLevel == 0 {
		r.inList = false
		r.pdf.Ln(2)
	}
}

// collectTableRows flattens a goldmark table into cell text, header row
// first.
func collectTableRows(table *extast.Table, source []byte) [][]string {
	var rows [][]string
	var visit func(node ast.Node)
	visit = func(node ast.Node) {
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			switch row := child.(type) {
			case *extast.TableRow:
				var cells []string
				for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
					cells = append(cells, string(cell.Text(source)))
				}
				rows = append(rows, cells)
			case *extast.TableHeader:
				visit(row)
			}
		}
	}
	visit(table)
	return rows
}

// renderTable draws a bordered grid with a shaded header row. Column
// widths come from measured cell text, scaled to fit the content width;
// long cells wrap and truncate with an ellipsis past tableMaxLines.
func (r *reportRenderer) renderTable(rows [][]string) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	r.pdf.Ln(2)
	widths := r.columnWidths(rows)

	for i, row := range rows {
		header := i == 0
		if header {
			r.pdf.SetFont(bodyFont, "B", tableFontSize)
		} else {
			r.pdf.SetFont(bodyFont, "", tableFontSize)
		}

		maxLines := 1
		for j, cell := range row {
			if j >= len(widths) {
				break
			}
			if n := len(r.wrapCell(cell, widths[j]-2)); n > maxLines {
				maxLines = n
			}
		}
		if maxLines > tableMaxLines {
			maxLines = tableMaxLines
		}

		rowHeight := float64(maxLines)*tableRowHeight + 2
		startX := r.pdf.GetX()
		startY := r.pdf.GetY()
		if startY+rowHeight > 282 { // A4 height minus bottom margin
			r.pdf.AddPage()
			startY = r.pdf.GetY()
		}

		x := startX
		for j, cell := range row {
			if j >= len(widths) {
				break
			}
			if header {
				r.pdf.SetFillColor(230, 230, 230)
				r.pdf.Rect(x, startY, widths[j], rowHeight, "FD")
			} else {
				r.pdf.Rect(x, startY, widths[j], rowHeight, "D")
			}
			r.pdf.SetXY(x+1, startY+1)
			r.writeCell(cell, widths[j]-2)
			x += widths[j]
		}
		r.pdf.SetXY(startX, startY+rowHeight)
	}

	r.pdf.Ln(3)
	r.bodyFont()
}

// columnWidths measures every cell and fits the columns into the
// content width, clamping each column between a readable minimum and a
// third of the page.
func (r *reportRenderer) columnWidths(rows [][]string) []float64 {
	numCols := len(rows[0])
	widths := make([]float64, numCols)

	r.pdf.SetFont(bodyFont, "", tableFontSize)
	for _, row := range rows {
		for i, cell := range row {
			if i >= numCols {
				break
			}
			if w := r.pdf.GetStringWidth(cell) + 4; w > widths[i] {
				widths[i] = w
			}
		}
	}
	// The header row renders bold and measures wider.
	r.pdf.SetFont(bodyFont, "B", tableFontSize)
	for i, cell := range rows[0] {
		if w := r.pdf.GetStringWidth(cell) + 4; w > widths[i] {
			widths[i] = w
		}
	}
	r.pdf.SetFont(bodyFont, "", tableFontSize)

	const minWidth = 12.0
	maxWidth := contentWidth / 3
	total := 0.0
	for i := range widths {
		if widths[i] < minWidth {
			widths[i] = minWidth
		}
		if widths[i] > maxWidth {
			widths[i] = maxWidth
		}
		total += widths[i]
	}

	if total > contentWidth {
		scale := contentWidth / total
		for i := range widths {
			widths[i] *= scale
			if widths[i] < minWidth*0.8 {
				widths[i] = minWidth * 0.8
			}
		}
	} else if total < contentWidth*0.9 {
		scale := contentWidth * 0.95 / total
		if scale > 1.5 {
			scale = 1.5
		}
		for i := range widths {
			widths[i] *= scale
		}
	}
	return widths
}

// wrapCell splits cell text into lines that fit the given width, using
// measured string widths at the current font.
func (r *reportRenderer) wrapCell(cell string, width float64) []string {
	words := strings.Fields(cell)
	if len(words) == 0 || width <= 0 {
		return nil
	}

	spaceWidth := r.pdf.GetStringWidth(" ")
	var lines []string
	line := words[0]
	lineWidth := r.pdf.GetStringWidth(words[0])

	for _, word := range words[1:] {
		wordWidth := r.pdf.GetStringWidth(word)
		if lineWidth+spaceWidth+wordWidth <= width {
			line += " " + word
			lineWidth += spaceWidth + wordWidth
			continue
		}
		lines = append(lines, line)
		line = word
		lineWidth = wordWidth
	}
	return append(lines, line)
}

// writeCell renders wrapped cell text at the current position, cut off
// with an ellipsis when it exceeds tableMaxLines.
func (r *reportRenderer) writeCell(cell string, width float64) {
	lines := r.wrapCell(cell, width)
	for i := 0; i < len(lines) && i < tableMaxLines; i++ {
		line := lines[i]
		if i == tableMaxLines-1 && len(lines) > tableMaxLines {
			for r.pdf.GetStringWidth(line+"...") > width && len(line) > 3 {
				line = line[:len(line)-1]
			}
			line += "..."
		}
		r.pdf.CellFormat(width, tableRowHeight, line, "", 2, "L", false, 0, "")
	}
}

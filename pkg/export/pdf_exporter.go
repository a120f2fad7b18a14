package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Grid is a weekly timetable laid out for printing: a fixed time axis
// down the left edge and one column per day. Cells maps (day, time
// label) to the text shown in that slot; absent keys render empty.
type Grid struct {
	TimeLabels []string
	Days       []string
	Cells      map[string]string
}

// GridKey builds the Cells lookup key for a day/time pair.
func GridKey(day, timeLabel string) string {
	return day + "|" + timeLabel
}

// PDFExporter renders a Grid into a printable weekly schedule.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render draws the grid in landscape A4 with filled cells for occupied
// slots. The translator maps UTF-8 day names onto gofpdf's cp1252 core
// fonts.
func (e *PDFExporter) Render(grid Grid, title string) ([]byte, error) {
	if len(grid.TimeLabels) == 0 || len(grid.Days) == 0 {
		return nil, fmt.Errorf("pdf grid requires time labels and days")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(strings.ToUpper(title)), "", 1, "C", false, 0, "")
		pdf.Ln(2)
	}

	timeColWidth := 22.0
	dayColWidth := (277.0 - timeColWidth) / float64(len(grid.Days))
	rowHeight := 170.0 / float64(len(grid.TimeLabels)+1)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(timeColWidth, rowHeight, "", "1", 0, "C", false, 0, "")
	for _, day := range grid.Days {
		pdf.CellFormat(dayColWidth, rowHeight, tr(day), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFillColor(225, 235, 245)
	for _, label := range grid.TimeLabels {
		pdf.SetFont("Arial", "B", 7)
		pdf.CellFormat(timeColWidth, rowHeight, label, "1", 0, "C", false, 0, "")
		pdf.SetFont("Arial", "", 7)
		for _, day := range grid.Days {
			text := grid.Cells[GridKey(day, label)]
			pdf.CellFormat(dayColWidth, rowHeight, tr(text), "1", 0, "C", text != "", 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

package notes

import (
	"bytes"

	"github.com/go-pdf/fpdf"
)

const exportTitle = "ClassCapture Smart Summary"

// SummaryPDF renders a normalized summary as a single fixed-font PDF
// document. The summary is passed through SanitizeForExport first, since
// the built-in fonts only cover ASCII.
func SummaryPDF(summary string) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 22)
	doc.Cell(0, 10, exportTitle)
	doc.Ln(18)

	doc.SetFont("Courier", "", 12)
	doc.MultiCell(170, 6, SanitizeForExport(summary), "", "L", false)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

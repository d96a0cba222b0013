package printing

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"

	"github.com/giygas/medsummary/logging"
	"github.com/giygas/medsummary/projection"
)

// Page geometry in millimetres
const (
	pageMargin  = 18.0
	lineHeight  = 5.5
	titleSize   = 18.0
	headingSize = 13.0
	bodySize    = 11.0
)

// PDFHost renders summaries to A4 PDF files under dir
type PDFHost struct {
	dir string
	now func() time.Time
}

func NewPDFHost(dir string) *PDFHost {
	return &PDFHost{dir: dir, now: time.Now}
}

// Dir returns the export directory
func (h *PDFHost) Dir() string { return h.dir }

// RenderAndPrint writes the summary to a new file in the export directory
// and returns its path
func (h *PDFHost) RenderAndPrint(ctx context.Context, s projection.PrintableSummary) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	name := fmt.Sprintf("summary-%s-%s.pdf", h.now().Format("20060102-150405"), uuid.NewString()[:8])
	path := filepath.Join(h.dir, name)

	f, err := os.CreateTemp(h.dir, ".summary-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	tmp := f.Name()

	if err := Render(f, s); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to close export file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to move export file: %w", err)
	}

	logging.Info("Summary exported", "path", path, "sections", len(s.Sections))
	return path, nil
}

// Render writes the summary as a PDF document to w. Text is set in the core
// Helvetica font; characters outside cp1252 are dropped by the translator.
func Render(w io.Writer, s projection.PrintableSummary) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(s.Title, true)
	pdf.SetCreator("medsummary", true)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	width, _ := pdf.GetPageSize()
	width -= 2 * pageMargin

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.CellFormat(width, 10, tr(s.Title), "", 1, "L", false, 0, "")

	if line := s.PatientLine(); line != "" {
		pdf.SetFont("Helvetica", "", bodySize)
		pdf.CellFormat(width, 7, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	for _, sec := range s.Sections {
		pdf.SetFont("Helvetica", "B", headingSize)
		pdf.CellFormat(width, 8, tr(sec.Title), "B", 1, "L", false, 0, "")
		pdf.Ln(1)

		pdf.SetFont("Helvetica", "", bodySize)
		if sec.Text != "" {
			pdf.MultiCell(width, lineHeight, tr(sec.Text), "", "L", false)
		}
		for _, row := range sec.Rows {
			writeRow(pdf, tr, width, row)
		}
		pdf.Ln(3)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	return nil
}

// writeRow prints the lead in bold and the detail in regular weight
func writeRow(pdf *gofpdf.Fpdf, tr func(string) string, width float64, row projection.Row) {
	if row.Lead == "" {
		pdf.MultiCell(width, lineHeight, tr("• "+row.Line()), "", "L", false)
		return
	}
	pdf.SetFont("Helvetica", "B", bodySize)
	pdf.Write(lineHeight, tr("• "+row.Lead))
	pdf.SetFont("Helvetica", "", bodySize)
	pdf.Write(lineHeight, tr(row.Detail))
	pdf.Ln(lineHeight)
}

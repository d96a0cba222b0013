// Package printing turns a PrintableSummary into something a person can
// read: plain text for the terminal and PDF files for the printer.
package printing

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/giygas/medsummary/interfaces"
	"github.com/giygas/medsummary/projection"
)

var (
	_ interfaces.PrintHost = (*TextHost)(nil)
	_ interfaces.PrintHost = (*PDFHost)(nil)
)

// RenderText lays the summary out as plain text, one block per section
func RenderText(s projection.PrintableSummary) string {
	var b strings.Builder
	b.WriteString(s.Title)
	b.WriteByte('\n')
	if line := s.PatientLine(); line != "" {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, sec := range s.Sections {
		b.WriteByte('\n')
		b.WriteString(sec.Title)
		b.WriteByte('\n')
		if sec.Text != "" {
			b.WriteString(sec.Text)
			b.WriteByte('\n')
		}
		for _, row := range sec.Rows {
			b.WriteString("- ")
			b.WriteString(row.Line())
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// TextHost writes the text rendering to an io.Writer. It keeps no artefact.
type TextHost struct {
	w io.Writer
}

func NewTextHost(w io.Writer) *TextHost {
	return &TextHost{w: w}
}

func (h *TextHost) RenderAndPrint(_ context.Context, s projection.PrintableSummary) (string, error) {
	if _, err := io.WriteString(h.w, RenderText(s)); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}
	return "", nil
}

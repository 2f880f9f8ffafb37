// Package report renders tabular history data as a PDF document.
package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

const (
	headerHeight = 10.0 // mm
	rowHeight    = 7.0  // mm
	cellPadding  = 6.0  // mm, horizontal, per cell
	fontSize     = 10.0 // pt
	gridWidth    = 0.35 // mm, about 1pt
)

type rgb struct{ r, g, b int }

var (
	colorGrey       = rgb{128, 128, 128}
	colorWhiteSmoke = rgb{245, 245, 245}
	colorBeige      = rgb{245, 245, 220}
	colorBlack      = rgb{0, 0, 0}
)

// Renderer draws a single table on Letter pages. Tall tables continue on new
// pages through fpdf's automatic page break.
type Renderer struct {
	// Compress enables stream compression in the output.
	Compress bool
}

func NewRenderer() *Renderer {
	return &Renderer{Compress: true}
}

// RenderTable writes a PDF with a styled header row followed by rows.
// Each row must have len(header) cells.
func (r *Renderer) RenderTable(w io.Writer, header []string, rows [][]string) error {
	if len(header) == 0 {
		return errors.New("report: empty header")
	}
	for i, row := range rows {
		if len(row) != len(header) {
			return fmt.Errorf("report: row %d has %d cells, want %d", i, len(row), len(header))
		}
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetCompression(r.Compress)
	pdf.SetCreator("cellscan", true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetDrawColor(colorBlack.r, colorBlack.g, colorBlack.b)
	pdf.SetLineWidth(gridWidth)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	widths := columnWidths(pdf, tr, header, rows)
	left := tableLeft(pdf, widths)

	pdf.SetFont("Helvetica", "B", fontSize)
	pdf.SetFillColor(colorGrey.r, colorGrey.g, colorGrey.b)
	pdf.SetTextColor(colorWhiteSmoke.r, colorWhiteSmoke.g, colorWhiteSmoke.b)
	pdf.SetX(left)
	for i, h := range header {
		pdf.CellFormat(widths[i], headerHeight, fitText(pdf, tr(h), widths[i]), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", fontSize)
	pdf.SetFillColor(colorBeige.r, colorBeige.g, colorBeige.b)
	pdf.SetTextColor(colorBlack.r, colorBlack.g, colorBlack.b)
	for _, row := range rows {
		pdf.SetX(left)
		for i, cell := range row {
			pdf.CellFormat(widths[i], rowHeight, fitText(pdf, tr(cell), widths[i]), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("report: write pdf: %w", err)
	}
	return nil
}

// columnWidths sizes each column to its widest cell. When the table would not
// fit between the margins, columns narrower than an even share keep their
// width and the rest shrink proportionally.
func columnWidths(pdf *fpdf.Fpdf, tr func(string) string, header []string, rows [][]string) []float64 {
	widths := make([]float64, len(header))

	pdf.SetFont("Helvetica", "B", fontSize)
	for i, h := range header {
		widths[i] = pdf.GetStringWidth(tr(h)) + cellPadding
	}
	pdf.SetFont("Helvetica", "", fontSize)
	for _, row := range rows {
		for i, cell := range row {
			if cw := pdf.GetStringWidth(tr(cell)) + cellPadding; cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	shrinkWidths(widths, usableWidth(pdf))
	return widths
}

func shrinkWidths(widths []float64, avail float64) {
	var total float64
	for _, w := range widths {
		total += w
	}
	if total <= avail {
		return
	}
	fixed := make([]bool, len(widths))
	for {
		remaining, open, openTotal := avail, 0, 0.0
		for i, w := range widths {
			if fixed[i] {
				remaining -= w
			} else {
				open++
				openTotal += w
			}
		}
		share := remaining / float64(open)
		changed := false
		for i, w := range widths {
			if !fixed[i] && w <= share {
				fixed[i] = true
				changed = true
			}
		}
		if !changed {
			scale := remaining / openTotal
			for i := range widths {
				if !fixed[i] {
					widths[i] *= scale
				}
			}
			return
		}
	}
}

// fitText cuts s and appends an ellipsis so it fits in a cell of the given
// width with the current font. s is already in the single-byte font encoding.
func fitText(pdf *fpdf.Fpdf, s string, width float64) string {
	const ellipsis = "..."
	avail := width - cellPadding
	if pdf.GetStringWidth(s) <= avail {
		return s
	}
	lo, hi := 0, len(s)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if pdf.GetStringWidth(s[:mid]+ellipsis) <= avail {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	if lo == 0 && pdf.GetStringWidth(ellipsis) > avail {
		return ""
	}
	return s[:lo] + ellipsis
}

func usableWidth(pdf *fpdf.Fpdf) float64 {
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	return pageW - left - right
}

func tableLeft(pdf *fpdf.Fpdf, widths []float64) float64 {
	var total float64
	for _, w := range widths {
		total += w
	}
	pageW, _ := pdf.GetPageSize()
	left, _, _, _ := pdf.GetMargins()
	if x := (pageW - total) / 2; x > left {
		return x
	}
	return left
}

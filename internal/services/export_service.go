package services

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"apiscaffold/internal/domain/models"
	"apiscaffold/internal/utils"

	"github.com/phpdave11/gofpdf"
)

const maxCellChars = 40

// ExportService renders list results as a PDF table.
type ExportService struct {
	RequestID string
	Now       func() time.Time
}

func (s ExportService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// RenderPDF lays out rows under title. With no columns given, the keys of the
// first row are used in sorted order.
func (s ExportService) RenderPDF(title string, columns []string, rows []models.Record) ([]byte, string, error) {
	if len(columns) == 0 && len(rows) > 0 {
		for k := range rows[0] {
			columns = append(columns, k)
		}
		sort.Strings(columns)
	}
	utils.LogEvent(s.RequestID, "export", "render_pdf", fmt.Sprintf("title=%s rows=%d cols=%d", title, len(rows), len(columns)))

	orientation := "P"
	if len(columns) > 5 {
		orientation = "L"
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, strings.ToUpper(safe(title, "export")))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s, %d row(s)", s.now().Format("2006-01-02 15:04"), len(rows)))
	pdf.Ln(10)

	if len(columns) == 0 {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.Cell(0, 8, "No data.")
	} else {
		pageW, _ := pdf.GetPageSize()
		left, _, right, _ := pdf.GetMargins()
		colW := (pageW - left - right) / float64(len(columns))

		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, c := range columns {
			pdf.CellFormat(colW, 7, truncate(c), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 9)
		for _, r := range rows {
			for _, c := range columns {
				pdf.CellFormat(colW, 6, truncate(utils.ToString(r[c])), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("%s_%s.pdf", safeFilenamePart(title), s.now().Format("20060102_150405"))
	return buf.Bytes(), filename, nil
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) > maxCellChars {
		return string(r[:maxCellChars-1]) + "~"
	}
	return s
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}

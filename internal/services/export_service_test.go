package services

import (
	"bytes"
	"testing"
	"time"

	"apiscaffold/internal/domain/models"
)

func TestExportServiceRenderPDF(t *testing.T) {
	svc := ExportService{Now: func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }}

	rows := []models.Record{
		{"id": int64(1), "name": "Acme Corp", "status": "active"},
		{"id": int64(2), "name": "Globex", "status": "inactive"},
	}
	pdf, filename, err := svc.RenderPDF("partners list", nil, rows)
	if err != nil {
		t.Fatalf("RenderPDF returned error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
	if filename != "partners_list_20240301_093000.pdf" {
		t.Fatalf("unexpected filename %q", filename)
	}
}

func TestExportServiceEmpty(t *testing.T) {
	pdf, _, err := ExportService{}.RenderPDF("", nil, nil)
	if err != nil {
		t.Fatalf("RenderPDF returned error: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatalf("expected a PDF even with no rows")
	}
}

func TestTruncate(t *testing.T) {
	long := "abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyz"
	if got := truncate(long); len([]rune(got)) != maxCellChars {
		t.Fatalf("truncate length = %d", len([]rune(got)))
	}
}

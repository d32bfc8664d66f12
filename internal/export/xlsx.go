package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mtlprog/wealth/internal/compare"
)

// XLSXWriter writes each report to a new workbook in a directory.
type XLSXWriter struct {
	dir string
	now func() time.Time
}

// NewXLSXWriter creates a writer that stores workbooks under dir.
func NewXLSXWriter(dir string) *XLSXWriter {
	return &XLSXWriter{dir: dir, now: time.Now}
}

// Write saves the report as <dir>/comparison-<A>-<B>-<date>.xlsx.
func (w *XLSXWriter) Write(_ context.Context, r compare.Report) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	path := filepath.Join(w.dir, FileName(r, w.now()))
	return WriteFile(path, r)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// FileName derives a filesystem-safe workbook name from the snapshot names and date.
func FileName(r compare.Report, at time.Time) string {
	slug := func(s string) string {
		s = strings.Trim(unsafeChars.ReplaceAllString(s, "-"), "-")
		if s == "" {
			return "snapshot"
		}
		return s
	}
	return fmt.Sprintf("comparison-%s-%s-%s.xlsx",
		slug(r.Summary.SnapshotA), slug(r.Summary.SnapshotB), at.UTC().Format("20060102"))
}

// WriteFile saves the report as a workbook at path.
func WriteFile(path string, r compare.Report) error {
	f, err := Workbook(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}

// WriteTo streams the report workbook to w.
func WriteTo(w io.Writer, r compare.Report) error {
	f, err := Workbook(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// Workbook builds an in-memory workbook with one sheet per report table.
// The caller must Close it.
func Workbook(r compare.Report) (*excelize.File, error) {
	f := excelize.NewFile()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	for i, t := range Tables(r) {
		if err := writeSheet(f, t, bold); err != nil {
			f.Close()
			return nil, err
		}
		if i == 0 {
			idx, err := f.GetSheetIndex(t.Name)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("locating sheet %s: %w", t.Name, err)
			}
			f.SetActiveSheet(idx)
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("removing default sheet: %w", err)
	}
	return f, nil
}

func writeSheet(f *excelize.File, t Table, headerStyle int) error {
	if _, err := f.NewSheet(t.Name); err != nil {
		return fmt.Errorf("creating sheet %s: %w", t.Name, err)
	}
	for i, row := range t.Values() {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.Name, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", t.Name, i+1, err)
		}
	}
	if err := f.SetRowStyle(t.Name, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("styling %s header: %w", t.Name, err)
	}
	last, err := excelize.ColumnNumberToName(len(t.Header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(t.Name, "A", last, 18); err != nil {
		return fmt.Errorf("sizing %s columns: %w", t.Name, err)
	}
	return nil
}

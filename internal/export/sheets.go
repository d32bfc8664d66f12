package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/mtlprog/wealth/internal/compare"
)

// SheetsWriter implements ReportWriter using the Google Sheets API.
type SheetsWriter struct {
	spreadsheetID string
	svc           *sheets.Service
}

// NewSheetsWriter authenticates with a service account key and targets one spreadsheet.
func NewSheetsWriter(ctx context.Context, spreadsheetID, credentialsJSON string) (*SheetsWriter, error) {
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet id is required")
	}
	creds, err := google.CredentialsFromJSON(ctx, []byte(credentialsJSON), sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &SheetsWriter{spreadsheetID: spreadsheetID, svc: svc}, nil
}

// Write rewrites every report tab from scratch, creating tabs on first use.
func (w *SheetsWriter) Write(ctx context.Context, r compare.Report) error {
	tables := Tables(r)
	names := lo.Map(tables, func(t Table, _ int) string { return t.Name })

	if err := w.ensureSheets(ctx, names...); err != nil {
		return err
	}

	clear := &sheets.BatchClearValuesRequest{
		Ranges: lo.Map(names, func(n string, _ int) string { return a1(n, "A:Z") }),
	}
	if _, err := w.svc.Spreadsheets.Values.BatchClear(w.spreadsheetID, clear).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clearing report sheets: %w", err)
	}

	update := &sheets.BatchUpdateValuesRequest{ValueInputOption: "RAW", Data: valueRanges(tables)}
	if _, err := w.svc.Spreadsheets.Values.BatchUpdate(w.spreadsheetID, update).Context(ctx).Do(); err != nil {
		return fmt.Errorf("writing report sheets: %w", err)
	}
	slog.Info("comparison report written to google sheets", "spreadsheet", w.spreadsheetID, "sheets", len(tables))
	return nil
}

func valueRanges(tables []Table) []*sheets.ValueRange {
	return lo.Map(tables, func(t Table, _ int) *sheets.ValueRange {
		return &sheets.ValueRange{Range: a1(t.Name, "A1"), Values: t.Values()}
	})
}

// a1 builds an A1-notation range on a sheet whose title may contain spaces or quotes.
func a1(sheet, cells string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + cells
}

// ensureSheets adds the report tabs missing from the spreadsheet.
func (w *SheetsWriter) ensureSheets(ctx context.Context, names ...string) error {
	doc, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("getting spreadsheet metadata: %w", err)
	}

	titles := lo.FilterMap(doc.Sheets, func(s *sheets.Sheet, _ int) (string, bool) {
		if s == nil || s.Properties == nil {
			return "", false
		}
		return s.Properties.Title, true
	})
	requests := addSheetRequests(titles, names)
	if len(requests) == 0 {
		return nil
	}

	if _, err := w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: requests},
	).Context(ctx).Do(); err != nil {
		return fmt.Errorf("adding report sheets: %w", err)
	}
	return nil
}

func addSheetRequests(existing, wanted []string) []*sheets.Request {
	missing, _ := lo.Difference(lo.Uniq(wanted), existing)
	return lo.Map(missing, func(title string, _ int) *sheets.Request {
		return &sheets.Request{AddSheet: &sheets.AddSheetRequest{
			Properties: &sheets.SheetProperties{Title: title},
		}}
	})
}

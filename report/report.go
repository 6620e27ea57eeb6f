// Package report exports the flagged accounts to a new timestamped worksheet.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/uhppoted/gtm-admin-audit/audit"
	"github.com/uhppoted/gtm-admin-audit/log"
)

const TIMESTAMP = "2006-01-02 15:04:05"
const COPY = " (Copy)"

var HEADER = []any{"Account Name", "Account ID", "Admin Count", "Admin Link"}

type Spreadsheet struct {
	ID     string
	URL    string
	Sheets []string
}

// Sheet identifies the worksheet the report was written to.
type Sheet struct {
	SpreadsheetID string
	SheetID       int64
	Title         string
	URL           string
}

// Spreadsheets is the subset of the Google Sheets API used to write a report.
type Spreadsheets interface {
	Open(ctx context.Context, id string) (*Spreadsheet, error)
	AddSheet(ctx context.Context, spreadsheetID string, title string) (int64, error)
	Write(ctx context.Context, spreadsheetID string, title string, rows [][]any) error
	Format(ctx context.Context, spreadsheetID string, sheetID int64, columns int) error
}

type Exporter struct {
	Spreadsheets Spreadsheets
	Location     *time.Location
	Now          func() time.Time
}

func NewExporter(spreadsheets Spreadsheets, location *time.Location) *Exporter {
	if location == nil {
		location = time.Local
	}

	return &Exporter{
		Spreadsheets: spreadsheets,
		Location:     location,
		Now:          time.Now,
	}
}

// Export writes the flagged rows to a new worksheet in the spreadsheet. Export
// failures are logged and reported as a nil sheet, never as an error.
func (x *Exporter) Export(ctx context.Context, spreadsheetID string, rows []audit.FlaggedRow) *Sheet {
	if spreadsheetID == "" {
		log.Infof("No spreadsheet configured - export skipped")
		return nil
	}

	if len(rows) == 0 {
		log.Infof("No flagged accounts - export skipped")
		return nil
	}

	if x.Spreadsheets == nil {
		log.Warnf("No Google Sheets client - export skipped")
		return nil
	}

	spreadsheet, err := x.Spreadsheets.Open(ctx, spreadsheetID)
	if err != nil {
		log.Warnf("Unable to open spreadsheet %v (%v)", spreadsheetID, err)
		return nil
	}

	sheet, err := x.write(ctx, spreadsheet, rows)
	if err != nil {
		log.Warnf("Error writing report to spreadsheet %v (%v)", spreadsheetID, err)
		return nil
	}

	log.Infof("Wrote %v flagged accounts to worksheet '%v'", len(rows), sheet.Title)

	return sheet
}

func (x *Exporter) write(ctx context.Context, spreadsheet *Spreadsheet, rows []audit.FlaggedRow) (*Sheet, error) {
	now := time.Now
	if x.Now != nil {
		now = x.Now
	}

	location := x.Location
	if location == nil {
		location = time.Local
	}

	title := SheetTitle(now().In(location), spreadsheet.Sheets)

	sheetID, err := x.Spreadsheets.AddSheet(ctx, spreadsheet.ID, title)
	if err != nil {
		return nil, fmt.Errorf("unable to add worksheet '%v' (%w)", title, err)
	}

	values := [][]any{HEADER}
	for _, row := range rows {
		values = append(values, []any{row.AccountName, row.AccountID, row.Admins, row.Link})
	}

	if err := x.Spreadsheets.Write(ctx, spreadsheet.ID, title, values); err != nil {
		return nil, fmt.Errorf("unable to write worksheet '%v' (%w)", title, err)
	}

	if err := x.Spreadsheets.Format(ctx, spreadsheet.ID, sheetID, len(HEADER)); err != nil {
		return nil, fmt.Errorf("unable to format worksheet '%v' (%w)", title, err)
	}

	return &Sheet{
		SpreadsheetID: spreadsheet.ID,
		SheetID:       sheetID,
		Title:         title,
		URL:           SheetURL(spreadsheet, sheetID),
	}, nil
}

// SheetTitle returns the timestamp as a worksheet title, suffixed with ' (Copy)'
// for as long as the title is already in use.
func SheetTitle(timestamp time.Time, existing []string) string {
	titles := map[string]bool{}
	for _, s := range existing {
		titles[s] = true
	}

	title := timestamp.Format(TIMESTAMP)
	for titles[title] {
		title += COPY
	}

	return title
}

func SheetURL(spreadsheet *Spreadsheet, sheetID int64) string {
	if spreadsheet.URL != "" {
		return fmt.Sprintf("%v#gid=%v", spreadsheet.URL, sheetID)
	}

	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%v/edit#gid=%v", spreadsheet.ID, sheetID)
}

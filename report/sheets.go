package report

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Google implements Spreadsheets with the Google Sheets v4 API.
type Google struct {
	service *sheets.Service
}

func NewGoogle(ctx context.Context, opts ...option.ClientOption) (*Google, error) {
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create new Sheets client (%w)", err)
	}

	return &Google{
		service: service,
	}, nil
}

func (g *Google) Open(ctx context.Context, id string) (*Spreadsheet, error) {
	response, err := g.service.Spreadsheets.Get(id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spreadsheet (%w)", err)
	}

	spreadsheet := Spreadsheet{
		ID:     response.SpreadsheetId,
		URL:    response.SpreadsheetUrl,
		Sheets: []string{},
	}

	if spreadsheet.ID == "" {
		spreadsheet.ID = id
	}

	for _, sheet := range response.Sheets {
		if sheet != nil && sheet.Properties != nil {
			spreadsheet.Sheets = append(spreadsheet.Sheets, sheet.Properties.Title)
		}
	}

	return &spreadsheet, nil
}

func (g *Google) AddSheet(ctx context.Context, spreadsheetID string, title string) (int64, error) {
	rq := sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			&sheets.Request{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: title,
					},
				},
			},
		},
	}

	response, err := g.service.Spreadsheets.BatchUpdate(spreadsheetID, &rq).Context(ctx).Do()
	if err != nil {
		return 0, err
	}

	if len(response.Replies) == 0 || response.Replies[0].AddSheet == nil || response.Replies[0].AddSheet.Properties == nil {
		return 0, fmt.Errorf("invalid response to 'add sheet' request")
	}

	return response.Replies[0].AddSheet.Properties.SheetId, nil
}

// Write stores the rows starting at A1 of the named worksheet. Values are
// USER_ENTERED so that formulas are evaluated.
func (g *Google) Write(ctx context.Context, spreadsheetID string, title string, rows [][]any) error {
	area := fmt.Sprintf("'%v'!A1", strings.ReplaceAll(title, "'", "''"))

	values := sheets.ValueRange{
		Range:  area,
		Values: rows,
	}

	if _, err := g.service.Spreadsheets.Values.Update(spreadsheetID, area, &values).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do(); err != nil {
		return err
	}

	return nil
}

// Format freezes and bolds the header row and resizes the columns to fit.
func (g *Google) Format(ctx context.Context, spreadsheetID string, sheetID int64, columns int) error {
	rq := sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			&sheets.Request{
				UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
					Properties: &sheets.SheetProperties{
						SheetId: sheetID,
						GridProperties: &sheets.GridProperties{
							FrozenRowCount: 1,
						},
					},
					Fields: "gridProperties.frozenRowCount",
				},
			},
			&sheets.Request{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{
						SheetId:       sheetID,
						StartRowIndex: 0,
						EndRowIndex:   1,
					},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{
							TextFormat: &sheets.TextFormat{
								Bold: true,
							},
						},
					},
					Fields: "userEnteredFormat.textFormat.bold",
				},
			},
			&sheets.Request{
				AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
					Dimensions: &sheets.DimensionRange{
						SheetId:    sheetID,
						Dimension:  "COLUMNS",
						StartIndex: 0,
						EndIndex:   int64(columns),
					},
				},
			},
		},
	}

	if _, err := g.service.Spreadsheets.BatchUpdate(spreadsheetID, &rq).Context(ctx).Do(); err != nil {
		return err
	}

	return nil
}

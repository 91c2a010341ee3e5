// File: internal/sheets/client.go
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Client wraps the Google Sheets API client
type Client struct {
	service       *sheets.Service
	spreadsheetID string
}

// Config holds configuration for the Google Sheets client
type Config struct {
	ServiceAccountKeyPath string
	SpreadsheetID         string
}

// NewClient creates a Google Sheets client from a service account key file
func NewClient(cfg Config) (*Client, error) {
	credentials, err := os.ReadFile(cfg.ServiceAccountKeyPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read service account key file: %v", err)
	}
	return NewClientFromJSON(string(credentials), cfg.SpreadsheetID)
}

// NewClientFromJSON creates a Google Sheets client from JSON credentials
func NewClientFromJSON(credentialsJSON string, spreadsheetID string) (*Client, error) {
	ctx := context.Background()

	config, err := google.JWTConfigFromJSON([]byte(credentialsJSON), sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account key: %v", err)
	}

	return newClient(ctx, spreadsheetID, option.WithHTTPClient(config.Client(ctx)))
}

func newClient(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Client, error) {
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %v", err)
	}

	return &Client{
		service:       service,
		spreadsheetID: spreadsheetID,
	}, nil
}

// GetSpreadsheet retrieves spreadsheet metadata
func (c *Client) GetSpreadsheet(ctx context.Context) (*sheets.Spreadsheet, error) {
	spreadsheet, err := c.service.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve spreadsheet: %v", err)
	}
	return spreadsheet, nil
}

// GetSheetByName retrieves a sheet by title
func (c *Client) GetSheetByName(ctx context.Context, sheetName string) (*sheets.Sheet, error) {
	spreadsheet, err := c.GetSpreadsheet(ctx)
	if err != nil {
		return nil, err
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == sheetName {
			return sheet, nil
		}
	}

	return nil, fmt.Errorf("sheet %s not found", sheetName)
}

// CreateSheet returns the named sheet, adding it first when it does not exist
func (c *Client) CreateSheet(ctx context.Context, sheetName string) (*sheets.Sheet, error) {
	if existing, _ := c.GetSheetByName(ctx, sheetName); existing != nil {
		return existing, nil
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: sheetName},
				},
			},
		},
	}

	resp, err := c.service.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to create sheet: %v", err)
	}

	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil {
		return &sheets.Sheet{Properties: resp.Replies[0].AddSheet.Properties}, nil
	}

	return nil, fmt.Errorf("failed to create sheet")
}

// WriteData writes rows to a sheet starting at startRange
func (c *Client) WriteData(ctx context.Context, sheetName string, startRange string, data [][]interface{}) error {
	valueRange := &sheets.ValueRange{Values: data}
	rangeSpec := fmt.Sprintf("%s!%s", sheetName, startRange)

	_, err := c.service.Spreadsheets.Values.Update(c.spreadsheetID, rangeSpec, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("unable to write data: %v", err)
	}

	return nil
}

// ClearSheet clears every value of a sheet
func (c *Client) ClearSheet(ctx context.Context, sheetName string) error {
	_, err := c.service.Spreadsheets.Values.Clear(c.spreadsheetID, sheetName, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("unable to clear sheet: %v", err)
	}

	return nil
}

// FormatHeader makes the first row bold on a grey background
func (c *Client) FormatHeader(ctx context.Context, sheetID int64, numColumns int) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{
						SheetId:          sheetID,
						StartRowIndex:    0,
						EndRowIndex:      1,
						StartColumnIndex: 0,
						EndColumnIndex:   int64(numColumns),
					},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{
							BackgroundColor: &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9},
							TextFormat:      &sheets.TextFormat{Bold: true},
						},
					},
					Fields: "userEnteredFormat(backgroundColor,textFormat)",
				},
			},
		},
	}

	if _, err := c.service.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to format header: %v", err)
	}

	return nil
}

// ValidateCredentials checks that credentialsJSON is a service account key
func ValidateCredentials(credentialsJSON string) error {
	var creds map[string]interface{}
	if err := json.Unmarshal([]byte(credentialsJSON), &creds); err != nil {
		return fmt.Errorf("invalid JSON: %v", err)
	}

	for _, field := range []string{"type", "project_id", "private_key_id", "private_key", "client_email"} {
		if _, ok := creds[field]; !ok {
			return fmt.Errorf("missing required field: %s", field)
		}
	}

	if creds["type"] != "service_account" {
		return fmt.Errorf("invalid credential type: expected service_account, got %v", creds["type"])
	}

	return nil
}

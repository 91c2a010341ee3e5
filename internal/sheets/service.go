// File: internal/sheets/service.go
package sheets

import (
	"context"
	"fmt"
	"time"
)

// Service exports conversation logs to a Google Sheet
type Service struct {
	client *Client
}

// NewService creates a new sheets service
func NewService(client *Client) *Service {
	return &Service{client: client}
}

// ExportChats replaces the content of sheetName with the given log rows and
// returns the number of conversation turns written.
func (s *Service) ExportChats(ctx context.Context, sheetName string, rows [][]string, exportedBy string) (int, error) {
	sheet, err := s.client.CreateSheet(ctx, sheetName)
	if err != nil {
		return 0, fmt.Errorf("failed to create sheet: %v", err)
	}

	if err := s.client.ClearSheet(ctx, sheetName); err != nil {
		return 0, fmt.Errorf("failed to clear sheet: %v", err)
	}

	formatted := FormatChatRows(rows, exportedBy, time.Now())
	if err := s.client.WriteData(ctx, sheetName, "A1", formatted); err != nil {
		return 0, fmt.Errorf("failed to write data: %v", err)
	}

	if sheet.Properties != nil {
		if err := s.client.FormatHeader(ctx, sheet.Properties.SheetId, len(formatted[0])); err != nil {
			return 0, fmt.Errorf("failed to format header: %v", err)
		}
	}

	return max(len(rows)-1, 0), nil
}

// TestConnection checks that the configured spreadsheet can be read
func (s *Service) TestConnection(ctx context.Context) error {
	_, err := s.client.GetSpreadsheet(ctx)
	return err
}

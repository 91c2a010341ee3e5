// File: internal/sheets/formatter.go
package sheets

import (
	"time"

	"github.com/Pedro-J-Kukul/chatrelay/internal/data"
)

// FormatChatRows converts conversation log rows, header first, into sheet
// values followed by a short export footer.
func FormatChatRows(rows [][]string, exportedBy string, exportedAt time.Time) [][]interface{} {
	if len(rows) == 0 {
		rows = [][]string{data.ChatHeader}
	}

	formatted := make([][]interface{}, 0, len(rows)+4)
	for _, row := range rows {
		formatted = append(formatted, stringsToCells(row))
	}

	turns := len(rows) - 1
	formatted = append(formatted,
		[]interface{}{},
		[]interface{}{"Conversation turns:", turns},
		[]interface{}{"Exported By:", exportedBy},
		[]interface{}{"Export Date:", exportedAt.Format("2006-01-02 15:04:05")},
	)

	return formatted
}

func stringsToCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}

// GenerateSheetName names an export sheet after the time it was taken
func GenerateSheetName(at time.Time) string {
	return "Chats_" + at.Format("2006-01-02_15-04-05")
}

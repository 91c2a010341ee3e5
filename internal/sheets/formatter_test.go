// File: internal/sheets/formatter_test.go
package sheets

import (
	"testing"
	"time"

	"github.com/Pedro-J-Kukul/chatrelay/internal/data"
)

func TestFormatChatRows(t *testing.T) {
	exportedAt := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	rows := [][]string{
		data.ChatHeader,
		{"conv-1", "hello", "greeting", "0.9", "<no entity>", "joy", "Great! Hi", "Mon, 15 Jan 2024 10:00:00 UTC"},
		{"conv-1", "bye", "<no intent>", "0", "<no entity>", "neutral", "Bye", "Mon, 15 Jan 2024 10:01:00 UTC"},
	}

	result := FormatChatRows(rows, "admin", exportedAt)

	headerRow := result[0]
	if len(headerRow) != len(data.ChatHeader) {
		t.Fatalf("Expected %d columns in header, got %d", len(data.ChatHeader), len(headerRow))
	}
	for i, expected := range data.ChatHeader {
		if headerRow[i] != expected {
			t.Errorf("Header column %d: expected %q, got %v", i, expected, headerRow[i])
		}
	}

	if result[1][1] != "hello" || result[2][2] != "<no intent>" {
		t.Errorf("Unexpected data rows %v %v", result[1], result[2])
	}

	// header + 2 rows + blank + 3 footer rows
	if len(result) != 7 {
		t.Fatalf("Expected 7 rows, got %d", len(result))
	}
	if result[4][1] != 2 {
		t.Errorf("Expected 2 conversation turns, got %v", result[4][1])
	}
	if result[6][1] != "2024-01-15 10:30:00" {
		t.Errorf("Unexpected export date %v", result[6][1])
	}
}

func TestFormatChatRowsEmpty(t *testing.T) {
	result := FormatChatRows(nil, "admin", time.Now())
	if len(result[0]) != len(data.ChatHeader) {
		t.Errorf("Expected a header row for an empty export, got %v", result[0])
	}
	if result[2][1] != 0 {
		t.Errorf("Expected 0 conversation turns, got %v", result[2][1])
	}
}

func TestGenerateSheetName(t *testing.T) {
	at := time.Date(2024, 3, 9, 8, 5, 1, 0, time.UTC)
	if got := GenerateSheetName(at); got != "Chats_2024-03-09_08-05-01" {
		t.Errorf("GenerateSheetName() = %q", got)
	}
}

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr bool
	}{
		{"Valid", `{"type":"service_account","project_id":"p","private_key_id":"k","private_key":"x","client_email":"a@b.c"}`, false},
		{"Not JSON", `nope`, true},
		{"Missing field", `{"type":"service_account","project_id":"p"}`, true},
		{"Wrong type", `{"type":"authorized_user","project_id":"p","private_key_id":"k","private_key":"x","client_email":"a@b.c"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCredentials(tt.json)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCredentials() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

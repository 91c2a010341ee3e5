// File: internal/data/logs_test.go
package data

import (
	"database/sql"
	"testing"
	"time"
)

func newTestLogEntry(conversationID, question, reply, emotion string, at time.Time) *LogEntry {
	user := NewUserState()
	if emotion != "" {
		user.Tone.Emotion.Current = &emotion
		user.Tone.Emotion.History = []string{emotion}
	}

	entry := NewLogEntry(
		&MessageRequest{Input: &Input{Text: question}, Context: &Context{ConversationID: conversationID, User: user}},
		&MessageResponse{
			Output:   &Output{Text: NewText(reply)},
			Context:  &Context{ConversationID: conversationID, User: user},
			Intents:  []Intent{{Intent: "greeting", Confidence: 0.92}},
			Entities: []Entity{{Entity: "appliance", Value: "lights"}},
		},
	)
	entry.Time = at
	return entry
}

func TestLogEntryCSVRow(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	t.Run("Full entry", func(t *testing.T) {
		row := newTestLogEntry("conv-1", "hello", "Great! Hi there", "joy", at).CSVRow()

		expected := []string{"conv-1", "hello", "greeting", "0.92", "appliance : lights", "joy", "Great! Hi there", at.Local().Format(time.RFC1123)}
		if len(row) != len(ChatHeader) {
			t.Fatalf("expected %d columns, got %d", len(ChatHeader), len(row))
		}
		for i := range expected {
			if row[i] != expected[i] {
				t.Errorf("column %s: expected %q, got %q", ChatHeader[i], expected[i], row[i])
			}
		}
	})

	t.Run("Empty response", func(t *testing.T) {
		entry := &LogEntry{
			Request:  &MessageRequest{Input: &Input{Text: "anyone?"}},
			Response: &MessageResponse{},
			Time:     at,
		}
		row := entry.CSVRow()

		if row[2] != "<no intent>" {
			t.Errorf("expected <no intent>, got %q", row[2])
		}
		if row[3] != "0" {
			t.Errorf("expected confidence 0, got %q", row[3])
		}
		if row[4] != "<no entity>" {
			t.Errorf("expected <no entity>, got %q", row[4])
		}
		if row[5] != "" {
			t.Errorf("expected empty emotion, got %q", row[5])
		}
		if row[6] != "<no dialog>" {
			t.Errorf("expected <no dialog>, got %q", row[6])
		}
	})
}

func TestChatRowsSortedByTime(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []*LogEntry{
		newTestLogEntry("late", "third", "c", "", base.Add(2*time.Minute)),
		newTestLogEntry("early", "first", "a", "", base),
		newTestLogEntry("middle", "second", "b", "", base.Add(time.Minute)),
	}

	rows := ChatRows(entries)

	if len(rows) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "Id" || rows[0][7] != "Time" {
		t.Errorf("unexpected header %v", rows[0])
	}
	for i, id := range []string{"early", "middle", "late"} {
		if rows[i+1][0] != id {
			t.Errorf("row %d: expected %q, got %q", i+1, id, rows[i+1][0])
		}
	}
	if entries[0].Response.Context.ConversationID != "late" {
		t.Error("ChatRows must not reorder its input")
	}
}

func newTestSQLiteLogModel(t *testing.T) *SQLiteLogModel {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)

	model := &SQLiteLogModel{DB: db}
	if err := model.Init(); err != nil {
		t.Fatalf("Failed to initialise log table: %v", err)
	}

	t.Cleanup(func() {
		model.Close()
	})
	return model
}

func TestSQLiteLogModel(t *testing.T) {
	model := newTestSQLiteLogModel(t)
	base := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)

	for i, question := range []string{"one", "two", "three"} {
		entry := newTestLogEntry("conv", question, "reply "+question, "joy", base.Add(time.Duration(i)*time.Second))
		if err := model.Insert(entry); err != nil {
			t.Fatalf("Failed to insert entry %d: %v", i, err)
		}
	}

	t.Run("Export is ordered oldest first", func(t *testing.T) {
		entries, err := model.Export()
		if err != nil {
			t.Fatalf("Failed to export: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(entries))
		}
		for i, question := range []string{"one", "two", "three"} {
			if entries[i].Request.Input.Text != question {
				t.Errorf("entry %d: expected %q, got %q", i, question, entries[i].Request.Input.Text)
			}
		}
		if !entries[0].Time.Equal(base) {
			t.Errorf("expected time %v, got %v", base, entries[0].Time)
		}
		if entries[0].Response.Context.User.CurrentEmotion() != "joy" {
			t.Error("expected the user state to survive storage")
		}
	})

	t.Run("GetAll paginates newest first", func(t *testing.T) {
		filter := LogFilter{Filter: Filter{Page: 1, PageSize: 2, SortBy: "-time", SortSafeList: []string{"time", "-time"}}}

		entries, metadata, err := model.GetAll(filter)
		if err != nil {
			t.Fatalf("Failed to list: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		if entries[0].Request.Input.Text != "three" {
			t.Errorf("expected newest entry first, got %q", entries[0].Request.Input.Text)
		}
		if metadata.TotalRecords != 3 || metadata.LastPage != 2 {
			t.Errorf("unexpected metadata %+v", metadata)
		}
	})

	t.Run("Clear removes everything", func(t *testing.T) {
		if err := model.Clear(); err != nil {
			t.Fatalf("Failed to clear: %v", err)
		}
		entries, err := model.Export()
		if err != nil {
			t.Fatalf("Failed to export: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("expected no entries, got %d", len(entries))
		}
	})
}

// File: internal/data/logs.go
package data

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ----------------------------------------------------------------------
//
//	Definitions
//
// ----------------------------------------------------------------------

// ChatHeader is the header row of the conversation log export.
var ChatHeader = []string{"Id", "Question", "Intent", "Confidence", "Entity", "Emotion", "Output", "Time"}

// LogEntry is one logged conversation turn.
type LogEntry struct {
	ID       string           `json:"_id"`
	Request  *MessageRequest  `json:"request"`
	Response *MessageResponse `json:"response"`
	Time     time.Time        `json:"time"`
}

// LogFilter holds the pagination and sorting parameters of a log listing.
type LogFilter struct {
	Filter Filter `json:"filter"`
}

// LogStore persists conversation turns. Implementations exist for PostgreSQL
// and SQLite; a nil LogStore means logging is disabled.
type LogStore interface {
	// Init creates the backing table if it does not exist.
	Init() error
	Insert(entry *LogEntry) error
	GetAll(filter LogFilter) ([]*LogEntry, MetaData, error)
	// Export returns every entry ordered by time, oldest first.
	Export() ([]*LogEntry, error)
	Clear() error
	Close() error
}

// ----------------------------------------------------------------------
//
//	Methods
//
// ----------------------------------------------------------------------

// NewLogEntry stamps a request/response pair with a fresh id and the current time.
func NewLogEntry(request *MessageRequest, response *MessageResponse) *LogEntry {
	return &LogEntry{
		ID:       uuid.NewString(),
		Request:  request,
		Response: response,
		Time:     time.Now().UTC(),
	}
}

// CSVRow flattens the entry into the columns of ChatHeader.
func (e *LogEntry) CSVRow() []string {
	var (
		id         string
		question   string
		intent     string
		confidence float64
		entity     string
		emotion    string
		outputText string
	)

	if e.Request != nil && e.Request.Input != nil {
		question = e.Request.Input.Text
	}

	if resp := e.Response; resp != nil {
		if resp.Context != nil {
			id = resp.Context.ConversationID
			emotion = resp.Context.User.CurrentEmotion()
		}

		intent = "<no intent>"
		if len(resp.Intents) > 0 {
			intent = resp.Intents[0].Intent
			confidence = resp.Intents[0].Confidence
		}

		entity = "<no entity>"
		if len(resp.Entities) > 0 {
			entity = resp.Entities[0].Entity + " : " + resp.Entities[0].Value
		}

		outputText = "<no dialog>"
		if resp.Output != nil && len(resp.Output.Text.Lines) > 0 {
			outputText = resp.Output.Text.String()
		}
	}

	return []string{
		id,
		question,
		intent,
		strconv.FormatFloat(confidence, 'f', -1, 64),
		entity,
		emotion,
		outputText,
		e.Time.Local().Format(time.RFC1123),
	}
}

// ChatRows builds the export table, header first, entries sorted oldest first.
func ChatRows(entries []*LogEntry) [][]string {
	sorted := make([]*LogEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	rows := make([][]string, 0, len(sorted)+1)
	rows = append(rows, ChatHeader)
	for _, entry := range sorted {
		rows = append(rows, entry.CSVRow())
	}
	return rows
}

// logSortColumn maps a validated sort key onto a column name.
func logSortColumn(f Filter) string {
	switch f.SortColumn() {
	case "id":
		return "id"
	case "time":
		return "logged_at"
	default:
		panic(fmt.Sprintf("unsafe sort parameter: %s", f.SortBy))
	}
}

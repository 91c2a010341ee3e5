// File: internal/data/logs_sqlite.go
package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// sqliteTimeFormat is fixed width so text ordering matches time ordering.
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z"

// SQLiteLogModel stores conversation turns in a SQLite file or in memory.
type SQLiteLogModel struct {
	DB *sql.DB
}

// Init creates the conversation_logs table when it is missing.
func (m *SQLiteLogModel) Init() error {
	query := `
		CREATE TABLE IF NOT EXISTS conversation_logs (
			id        TEXT PRIMARY KEY,
			request   TEXT NOT NULL,
			response  TEXT NOT NULL,
			logged_at TEXT NOT NULL
		)
	`

	ctx, cancel := getContext()
	defer cancel()

	if _, err := m.DB.ExecContext(ctx, query); err != nil {
		return err
	}
	_, err := m.DB.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_conversation_logs_logged_at ON conversation_logs(logged_at)`)
	return err
}

// Insert adds a conversation turn.
func (m *SQLiteLogModel) Insert(entry *LogEntry) error {
	query := `
		INSERT INTO conversation_logs (id, request, response, logged_at)
		VALUES (?, ?, ?, ?)
	`

	request, response, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err = m.DB.ExecContext(ctx, query, entry.ID, request, response, entry.Time.UTC().Format(sqliteTimeFormat))
	return err
}

// GetAll returns one page of conversation turns.
func (m *SQLiteLogModel) GetAll(filter LogFilter) ([]*LogEntry, MetaData, error) {
	query := fmt.Sprintf(`
		SELECT count(*) OVER(), id, request, response, logged_at
		FROM conversation_logs
		ORDER BY %s %s, id ASC
		LIMIT ? OFFSET ?
	`, logSortColumn(filter.Filter), filter.Filter.SortDirection())

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, query, filter.Filter.Limit(), filter.Filter.Offset())
	if err != nil {
		return nil, MetaData{}, err
	}
	defer rows.Close()

	entries, totalRecords, err := scanEntries(rows, func(dest *time.Time) any { return (*sqliteTime)(dest) })
	if err != nil {
		return nil, MetaData{}, err
	}

	return entries, CalculateMetaData(totalRecords, filter.Filter.Page, filter.Filter.PageSize), nil
}

// Export returns every conversation turn, oldest first.
func (m *SQLiteLogModel) Export() ([]*LogEntry, error) {
	query := `
		SELECT count(*) OVER(), id, request, response, logged_at
		FROM conversation_logs
		ORDER BY logged_at ASC, id ASC
	`

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries, _, err := scanEntries(rows, func(dest *time.Time) any { return (*sqliteTime)(dest) })
	return entries, err
}

// Clear deletes every conversation turn.
func (m *SQLiteLogModel) Clear() error {
	ctx, cancel := getContext()
	defer cancel()

	_, err := m.DB.ExecContext(ctx, `DELETE FROM conversation_logs`)
	return err
}

// Close releases the database handle.
func (m *SQLiteLogModel) Close() error {
	return m.DB.Close()
}

// sqliteTime scans the TEXT timestamp column.
type sqliteTime time.Time

func (t *sqliteTime) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case time.Time:
		*t = sqliteTime(v)
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}

	parsed, err := time.Parse(sqliteTimeFormat, s)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return err
		}
	}
	*t = sqliteTime(parsed)
	return nil
}

// File: internal/data/logs_postgres.go
package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresLogModel stores conversation turns in a JSONB backed table.
type PostgresLogModel struct {
	DB *sql.DB
}

// Init creates the conversation_logs table when it is missing.
func (m *PostgresLogModel) Init() error {
	query := `
		CREATE TABLE IF NOT EXISTS conversation_logs (
			id        uuid PRIMARY KEY,
			request   jsonb NOT NULL,
			response  jsonb NOT NULL,
			logged_at timestamptz NOT NULL DEFAULT NOW()
		)
	`

	ctx, cancel := getContext()
	defer cancel()

	_, err := m.DB.ExecContext(ctx, query)
	return err
}

// Insert adds a conversation turn.
func (m *PostgresLogModel) Insert(entry *LogEntry) error {
	query := `
		INSERT INTO conversation_logs (id, request, response, logged_at)
		VALUES ($1, $2, $3, $4)
	`

	request, response, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err = m.DB.ExecContext(ctx, query, entry.ID, request, response, entry.Time)
	return err
}

// GetAll returns one page of conversation turns.
func (m *PostgresLogModel) GetAll(filter LogFilter) ([]*LogEntry, MetaData, error) {
	query := fmt.Sprintf(`
		SELECT count(*) OVER(), id, request, response, logged_at
		FROM conversation_logs
		ORDER BY %s %s, id ASC
		LIMIT $1 OFFSET $2
	`, logSortColumn(filter.Filter), filter.Filter.SortDirection())

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, query, filter.Filter.Limit(), filter.Filter.Offset())
	if err != nil {
		return nil, MetaData{}, err
	}
	defer rows.Close()

	entries, totalRecords, err := scanEntries(rows, func(dest *time.Time) any { return dest })
	if err != nil {
		return nil, MetaData{}, err
	}

	return entries, CalculateMetaData(totalRecords, filter.Filter.Page, filter.Filter.PageSize), nil
}

// Export returns every conversation turn, oldest first.
func (m *PostgresLogModel) Export() ([]*LogEntry, error) {
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

	entries, _, err := scanEntries(rows, func(dest *time.Time) any { return dest })
	return entries, err
}

// Clear deletes every conversation turn.
func (m *PostgresLogModel) Clear() error {
	ctx, cancel := getContext()
	defer cancel()

	_, err := m.DB.ExecContext(ctx, `TRUNCATE TABLE conversation_logs`)
	return err
}

// Close releases the connection pool.
func (m *PostgresLogModel) Close() error {
	return m.DB.Close()
}

// encodeEntry marshals the request and response documents. Strings are used
// so drivers bind them as text rather than bytea.
func encodeEntry(entry *LogEntry) (string, string, error) {
	request, err := json.Marshal(entry.Request)
	if err != nil {
		return "", "", fmt.Errorf("marshal request: %w", err)
	}
	response, err := json.Marshal(entry.Response)
	if err != nil {
		return "", "", fmt.Errorf("marshal response: %w", err)
	}
	return string(request), string(response), nil
}

// scanEntries reads (total, id, request, response, time) rows. timeDest adapts
// the time column to what the driver returns.
func scanEntries(rows *sql.Rows, timeDest func(*time.Time) any) ([]*LogEntry, int64, error) {
	entries := []*LogEntry{}
	totalRecords := int64(0)

	for rows.Next() {
		var (
			entry    LogEntry
			request  []byte
			response []byte
		)

		if err := rows.Scan(&totalRecords, &entry.ID, &request, &response, timeDest(&entry.Time)); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(request, &entry.Request); err != nil {
			return nil, 0, fmt.Errorf("decode request of %s: %w", entry.ID, err)
		}
		if err := json.Unmarshal(response, &entry.Response); err != nil {
			return nil, 0, fmt.Errorf("decode response of %s: %w", entry.ID, err)
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return entries, totalRecords, nil
}

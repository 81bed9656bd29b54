// Package audit records the commands the bridge sends to the receiver.
//
// Every execution attempt is logged to avr_command_log, including ones the
// bridge rejected, so an operator can see what was asked of the receiver
// and what actually went out on the line.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-avr/internal/bridges/avr"
)

// Status is the outcome of one command attempt.
type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

const (
	defaultLimit = 50
	maxLimit     = 200

	timestampLayout = "2006-01-02T15:04:05.000Z"
)

// Entry is one command audit record.
type Entry struct {
	ID           string         `json:"id"`
	CommandID    string         `json:"command_id"`
	Receiver     string         `json:"receiver"`
	Zone         string         `json:"zone"`
	Setting      string         `json:"setting"`
	Key          string         `json:"key,omitempty"`
	Command      string         `json:"command,omitempty"`
	Source       string         `json:"source"`
	Status       Status         `json:"status"`
	ErrorCode    string         `json:"error_code,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Filter controls which entries to return. Empty fields match everything.
type Filter struct {
	Zone    string
	Setting string
	Status  Status
	Limit   int // default 50, max 200
	Offset  int
}

// ListResult contains a page of entries.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Repository defines the interface for command audit operations.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores the command log for one receiver.
type SQLiteRepository struct {
	db       *sql.DB
	receiver string
}

// NewSQLiteRepository creates a command log repository scoped to receiverID.
func NewSQLiteRepository(db *sql.DB, receiverID string) *SQLiteRepository {
	return &SQLiteRepository{db: db, receiver: receiverID}
}

// RecordCommand logs one bridge execution attempt. It satisfies
// avr.CommandRecorder.
func (r *SQLiteRepository) RecordCommand(ctx context.Context, result avr.CommandResult) error {
	entry := &Entry{
		CommandID: result.Command.ID,
		Receiver:  result.Receiver,
		Zone:      result.Zone.String(),
		Setting:   result.Command.Setting,
		Key:       result.Command.Key,
		Command:   result.Sent,
		Source:    result.Command.Source,
		Status:    StatusSent,
		CreatedAt: result.Timestamp,
	}
	if result.Err != nil {
		entry.Status = StatusFailed
		entry.ErrorCode = result.ErrorCode()
		entry.ErrorMessage = result.Err.Error()
	}
	if result.Command.Value != nil {
		entry.Details = map[string]any{"value": result.Command.Value}
	}
	return r.Create(ctx, entry)
}

// Create inserts an entry. ID, CreatedAt and Receiver are filled if empty.
func (r *SQLiteRepository) Create(ctx context.Context, entry *Entry) error {
	if entry.ID == "" {
		entry.ID = "cmd-" + uuid.NewString()[:8]
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Receiver == "" {
		entry.Receiver = r.receiver
	}
	if entry.Source == "" {
		entry.Source = "unknown"
	}

	var detailsJSON *string
	if entry.Details != nil {
		b, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshalling command details: %w", err)
		}
		s := string(b)
		detailsJSON = &s
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO avr_command_log
		 (id, command_id, receiver, zone, setting, key, command, source, status, error_code, error_message, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.CommandID, entry.Receiver, entry.Zone, entry.Setting,
		nullableString(entry.Key), nullableString(entry.Command),
		entry.Source, string(entry.Status),
		nullableString(entry.ErrorCode), nullableString(entry.ErrorMessage),
		detailsJSON,
		entry.CreatedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting command log: %w", err)
	}
	return nil
}

// nullableString returns nil for empty strings so nullable TEXT columns stay NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns entries matching the filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) { //nolint:gocognit // dynamic query builder
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	conditions := []string{"receiver = ?"}
	args := []any{r.receiver}

	if filter.Zone != "" {
		conditions = append(conditions, "zone = ?")
		args = append(args, filter.Zone)
	}
	if filter.Setting != "" {
		conditions = append(conditions, "setting = ?")
		args = append(args, filter.Setting)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	where := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := "SELECT COUNT(*) FROM avr_command_log " + where //nolint:gosec // WHERE built from parameterised conditions
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting command log: %w", err)
	}

	query := `SELECT id, command_id, receiver, zone, setting, key, command, source, status,
		error_code, error_message, details, created_at
		FROM avr_command_log ` + where + ` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?` //nolint:gosec // as above
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying command log: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating command log: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var e Entry
	var status, createdAt string
	var key, command, errCode, errMsg, details sql.NullString

	if err := rows.Scan(&e.ID, &e.CommandID, &e.Receiver, &e.Zone, &e.Setting,
		&key, &command, &e.Source, &status, &errCode, &errMsg, &details, &createdAt); err != nil {
		return e, fmt.Errorf("scanning command log: %w", err)
	}

	e.Status = Status(status)
	e.Key = key.String
	e.Command = command.String
	e.ErrorCode = errCode.String
	e.ErrorMessage = errMsg.String
	if details.Valid && details.String != "" {
		var d map[string]any
		if json.Unmarshal([]byte(details.String), &d) == nil {
			e.Details = d
		}
	}

	t, err := time.Parse(timestampLayout, createdAt)
	if err != nil {
		t, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return e, fmt.Errorf("parsing command log timestamp %q: %w", createdAt, err)
		}
	}
	e.CreatedAt = t
	return e, nil
}

package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-avr/internal/bridges/avr"
)

// timestampLayout keeps a fixed width so that text order is time order.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// SQLiteRepository implements Repository on the avr_state_history table.
// It is scoped to one receiver.
type SQLiteRepository struct {
	db         *sql.DB
	receiverID string
	now        func() time.Time
}

// NewSQLiteRepository creates a repository for receiverID.
func NewSQLiteRepository(db *sql.DB, receiverID string) *SQLiteRepository {
	return &SQLiteRepository{db: db, receiverID: receiverID, now: time.Now}
}

// RecordStateChange inserts one row. The change's receiver, when set,
// must match the repository's.
func (r *SQLiteRepository) RecordStateChange(ctx context.Context, change avr.StateChange) error {
	if change.Receiver != "" && change.Receiver != r.receiverID {
		return fmt.Errorf("recording state change: receiver %q does not match %q", change.Receiver, r.receiverID)
	}
	if !change.Zone.Valid() {
		return fmt.Errorf("recording state change: %w: %d", avr.ErrUnknownZone, int(change.Zone))
	}

	valueJSON, err := json.Marshal(change.Value)
	if err != nil {
		return fmt.Errorf("marshalling value: %w", err)
	}

	ts := change.Timestamp
	if ts.IsZero() {
		ts = r.now()
	}

	var key sql.NullString
	if change.Value.HasKey() {
		key = sql.NullString{String: change.Value.KeyString(), Valid: true}
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO avr_state_history (receiver, zone, setting, key, raw, value, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.receiverID,
		change.Zone.String(),
		change.Setting.String(),
		key,
		change.Value.Raw,
		string(valueJSON),
		formatTimestamp(ts),
	)
	if err != nil {
		return fmt.Errorf("inserting state history: %w", err)
	}
	return nil
}

// GetHistory returns entries for q.Zone (and q.Setting unless avr.None),
// newest first, at most q.Limit rows (default 50, max 500).
func (r *SQLiteRepository) GetHistory(ctx context.Context, q Query) ([]Entry, error) {
	if !q.Zone.Valid() {
		return nil, fmt.Errorf("querying state history: %w: %d", avr.ErrUnknownZone, int(q.Zone))
	}
	limit := clampLimit(q.Limit)

	var sb strings.Builder
	sb.WriteString(`SELECT id, receiver, zone, setting, key, value, created_at
		FROM avr_state_history
		WHERE receiver = ? AND zone = ?`)
	args := []any{r.receiverID, q.Zone.String()}
	if q.Setting != avr.None {
		sb.WriteString(" AND setting = ?")
		args = append(args, q.Setting.String())
	}
	sb.WriteString(" ORDER BY created_at DESC, id DESC LIMIT ?")
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying state history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			entry     Entry
			key       sql.NullString
			valueJSON string
			createdAt string
		)
		if err := rows.Scan(&entry.ID, &entry.Receiver, &entry.Zone, &entry.Setting, &key, &valueJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning state history: %w", err)
		}
		entry.Key = key.String
		if err := json.Unmarshal([]byte(valueJSON), &entry.Value); err != nil {
			return nil, fmt.Errorf("unmarshalling value: %w", err)
		}
		if entry.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating state history: %w", err)
	}
	return entries, nil
}

// PruneHistory deletes this receiver's entries older than olderThan.
func (r *SQLiteRepository) PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, ErrInvalidRetention
	}

	cutoff := formatTimestamp(r.now().Add(-olderThan))
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM avr_state_history WHERE receiver = ? AND created_at < ?",
		r.receiverID,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting state history: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}

// RunPruner prunes on every tick until ctx is done. Errors go to onError.
func (r *SQLiteRepository) RunPruner(ctx context.Context, interval, retention time.Duration, onError func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.PruneHistory(ctx, retention); err != nil && onError != nil {
				onError(err)
			}
		}
	}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("created_at is empty")
	}
	t, err := time.Parse(timestampLayout, value)
	if err == nil {
		return t, nil
	}
	if fallback, fallbackErr := time.Parse(time.RFC3339, value); fallbackErr == nil {
		return fallback, nil
	}
	return time.Time{}, fmt.Errorf("parsing created_at: %w", err)
}

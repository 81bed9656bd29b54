// Package history stores receiver state changes in SQLite.
//
// Every change the bridge publishes is appended to avr_state_history with
// its full normalised value as JSON. Reads are newest first and capped;
// old rows are pruned by age.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/nerrad567/gray-logic-avr/internal/bridges/avr"
)

const (
	// DefaultLimit is used when a query does not ask for a row count.
	DefaultLimit = 50

	// MaxLimit caps a single query.
	MaxLimit = 500
)

// ErrInvalidRetention is returned by PruneHistory for a non-positive age.
var ErrInvalidRetention = errors.New("history: retention must be positive")

// Entry is one recorded state change.
type Entry struct {
	ID        int64     `json:"id"`
	Receiver  string    `json:"receiver"`
	Zone      string    `json:"zone"`
	Setting   string    `json:"setting"`
	Key       string    `json:"key,omitempty"`
	Value     avr.Value `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// Query selects history rows. A zero Setting (avr.None) matches every
// setting in the zone.
type Query struct {
	Zone    avr.Zone
	Setting avr.Setting
	Limit   int
}

// Repository stores and retrieves receiver state history.
type Repository interface {
	// RecordStateChange appends one change.
	RecordStateChange(ctx context.Context, change avr.StateChange) error

	// GetHistory returns matching entries, newest first.
	GetHistory(ctx context.Context, q Query) ([]Entry, error)

	// PruneHistory deletes entries older than olderThan and returns the count.
	PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-avr/internal/bridges/avr"
)

// Measurement names.
const (
	MeasurementState  = "avr_state"
	MeasurementBridge = "avr_bridge"
)

// WriteStateChange records a numeric state change as an avr_state point.
// Non-numeric changes (source names, surround modes) are skipped.
//
// The write is non-blocking; data is batched and sent asynchronously.
func (c *Client) WriteStateChange(change avr.StateChange) {
	if !c.IsConnected() {
		return
	}
	point, ok := statePoint(change)
	if !ok {
		return
	}
	c.writeAPI.WritePoint(point)
}

// WriteBridgeStats records the bridge counters as an avr_bridge point.
func (c *Client) WriteBridgeStats(receiverID string, stats avr.BridgeStatistics, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(bridgePoint(receiverID, stats, at))
}

// statePoint builds the point for change. Tags are receiver, zone and
// setting, plus key for per-channel settings.
func statePoint(change avr.StateChange) (*write.Point, bool) {
	if change.Value.Numeric == nil {
		return nil, false
	}

	tags := map[string]string{
		"receiver": change.Receiver,
		"zone":     change.Zone.String(),
		"setting":  change.Setting.String(),
	}
	if change.Value.HasKey() {
		tags["key"] = change.Value.KeyString()
	}

	ts := change.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return write.NewPoint(
		MeasurementState,
		tags,
		map[string]interface{}{"value": *change.Value.Numeric},
		ts,
	), true
}

func bridgePoint(receiverID string, stats avr.BridgeStatistics, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementBridge,
		map[string]string{"receiver": receiverID},
		map[string]interface{}{
			"lines_received":  int64(stats.LinesReceived),
			"lines_unhandled": int64(stats.LinesUnhandled),
			"state_changes":   int64(stats.StateChanges),
			"commands_sent":   int64(stats.CommandsSent),
			"errors":          int64(stats.Errors),
		},
		at,
	)
}

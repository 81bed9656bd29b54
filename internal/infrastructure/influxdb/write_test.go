package influxdb

import (
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-avr/internal/bridges/avr"
	"github.com/nerrad567/gray-logic-avr/internal/infrastructure/config"
)

func TestStatePoint(t *testing.T) {
	at := time.Unix(1700000000, 0)

	tests := []struct {
		name   string
		change avr.StateChange
		want   string
		ok     bool
	}{
		{
			name: "half-step volume",
			change: avr.StateChange{
				Receiver: "avr-1", Zone: avr.ZoneMain, Setting: avr.Volume,
				Value: avr.NumericValue(50.5), Timestamp: at,
			},
			want: "avr_state,receiver=avr-1,setting=volume,zone=main value=50.5 1700000000000000000",
			ok:   true,
		},
		{
			name: "keyed channel level",
			change: avr.StateChange{
				Receiver: "avr-1", Zone: avr.Zone2, Setting: avr.ChannelVolume,
				Value: func() avr.Value {
					v := avr.KeyedValue("FL", "50")
					n := 50.0
					v.Numeric = &n
					return v
				}(),
				Timestamp: at,
			},
			want: "avr_state,key=FL,receiver=avr-1,setting=channel_volume,zone=zone2 value=50 1700000000000000000",
			ok:   true,
		},
		{
			name: "text value skipped",
			change: avr.StateChange{
				Receiver: "avr-1", Zone: avr.ZoneMain, Setting: avr.Source,
				Value: avr.TextValue("CD"), Timestamp: at,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := statePoint(tt.change)
			if ok != tt.ok {
				t.Fatalf("statePoint() ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			got := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
			if got != tt.want {
				t.Errorf("line protocol =\n  %s\nwant\n  %s", got, tt.want)
			}
		})
	}
}

func TestStatePoint_ZeroTimestamp(t *testing.T) {
	before := time.Now()
	p, ok := statePoint(avr.StateChange{
		Receiver: "avr-1", Zone: avr.ZoneMain, Setting: avr.Sleep, Value: avr.NumericValue(30),
	})
	if !ok {
		t.Fatal("statePoint() ok = false")
	}
	if p.Time().Before(before) {
		t.Errorf("point time %v predates call", p.Time())
	}
}

func TestBridgePoint(t *testing.T) {
	p := bridgePoint("avr-1", avr.BridgeStatistics{
		LinesReceived: 10, LinesUnhandled: 2, StateChanges: 7, CommandsSent: 3, Errors: 1,
	}, time.Unix(1700000000, 0))

	got := strings.TrimSpace(write.PointToLineProtocol(p, time.Second))
	want := "avr_bridge,receiver=avr-1 commands_sent=3i,errors=1i,lines_received=10i,lines_unhandled=2i,state_changes=7i 1700000000"
	if got != want {
		t.Errorf("line protocol =\n  %s\nwant\n  %s", got, want)
	}
}

func TestWriteOptions_Defaults(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.InfluxDBConfig
		wantBatch uint
		wantFlush uint
	}{
		{"configured", config.InfluxDBConfig{BatchSize: 50, FlushInterval: 2}, 50, 2000},
		{"zero uses defaults", config.InfluxDBConfig{}, defaultBatchSize, defaultFlushInterval * millisecondsPerSecond},
		{"negative uses defaults", config.InfluxDBConfig{BatchSize: -5, FlushInterval: -1}, defaultBatchSize, defaultFlushInterval * millisecondsPerSecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := writeOptions(tt.cfg)
			if opts.BatchSize() != tt.wantBatch {
				t.Errorf("BatchSize() = %d, want %d", opts.BatchSize(), tt.wantBatch)
			}
			if opts.FlushInterval() != tt.wantFlush {
				t.Errorf("FlushInterval() = %d, want %d", opts.FlushInterval(), tt.wantFlush)
			}
		})
	}
}

func TestWrites_Disconnected(t *testing.T) {
	c := &Client{}
	// Must not touch the nil write API.
	c.WriteStateChange(avr.StateChange{Setting: avr.Volume, Value: avr.NumericValue(40)})
	c.WriteBridgeStats("avr-1", avr.BridgeStatistics{}, time.Now())
	c.Flush()
}

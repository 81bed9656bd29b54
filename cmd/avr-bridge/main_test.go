package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-avr/internal/bridges/avr"
)

// writeConfig writes a config file and points AVRBRIDGE_CONFIG at it.
func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("AVRBRIDGE_CONFIG", path)
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("AVRBRIDGE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
	if !strings.Contains(err.Error(), "loading config") {
		t.Errorf("error = %v, want loading config failure", err)
	}
}

func TestRun_InvalidReceiverID(t *testing.T) {
	writeConfig(t, `
receiver:
  id: "living/room"
history:
  enabled: false
`)

	err := run(context.Background())
	if err == nil {
		t.Fatal("run() should reject a receiver id containing a topic separator")
	}
	if !strings.Contains(err.Error(), "receiver.id") {
		t.Errorf("error = %v, want receiver.id validation failure", err)
	}
}

func TestRun_BrokerUnavailable(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the MQTT connect timeout")
	}
	dbPath := filepath.Join(t.TempDir(), "history.db")
	writeConfig(t, `
receiver:
  id: avr-test
database:
  path: "`+dbPath+`"
  busy_timeout: 1
mqtt:
  broker:
    host: "127.0.0.1"
    port: 19999
    client_id: "avr-test"
  qos: 1
api:
  enabled: false
logging:
  level: error
  format: text
  output: stdout
`)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail without a broker")
	}
	if !strings.Contains(err.Error(), "connecting to MQTT") {
		t.Errorf("error = %v, want MQTT connection failure", err)
	}
	if _, statErr := os.Stat(dbPath); statErr != nil {
		t.Errorf("history database should be created before MQTT: %v", statErr)
	}
}

func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("AVRBRIDGE_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("AVRBRIDGE_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

func TestLastWill(t *testing.T) {
	will, err := lastWill("avr-1")
	if err != nil {
		t.Fatalf("lastWill() error = %v", err)
	}
	if will.Topic != avr.HealthTopic("avr-1") {
		t.Errorf("Topic = %q, want %q", will.Topic, avr.HealthTopic("avr-1"))
	}
	if !will.Retained || will.QoS != 1 {
		t.Errorf("QoS/Retained = %d/%v, want 1/true", will.QoS, will.Retained)
	}

	var msg avr.HealthMessage
	if err := json.Unmarshal(will.Payload, &msg); err != nil {
		t.Fatalf("payload is not a health message: %v", err)
	}
	if msg.Status != avr.HealthOffline || msg.Bridge != "avr-1" {
		t.Errorf("payload = %+v, want offline report for avr-1", msg)
	}
}

type fakeStats struct {
	mu     sync.Mutex
	writes []avr.BridgeStatistics
	ids    []string
}

func (f *fakeStats) WriteBridgeStats(receiverID string, stats avr.BridgeStatistics, _ time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, receiverID)
	f.writes = append(f.writes, stats)
}

func (f *fakeStats) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

type fixedSource struct{}

func (fixedSource) ReceiverID() string { return "avr-1" }
func (fixedSource) Stats() avr.BridgeStatistics {
	return avr.BridgeStatistics{LinesReceived: 7, CommandsSent: 2}
}

func TestWriteStatsLoop(t *testing.T) {
	w := &fakeStats{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		writeStatsLoop(ctx, w, fixedSource{}, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for w.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if w.count() < 2 {
		t.Fatalf("writes = %d, want at least 2", w.count())
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ids[0] != "avr-1" || w.writes[0].LinesReceived != 7 {
		t.Errorf("first write = %s %+v", w.ids[0], w.writes[0])
	}
}

func TestWriteStatsLoop_ZeroInterval(t *testing.T) {
	w := &fakeStats{}
	writeStatsLoop(context.Background(), w, fixedSource{}, 0)
	if w.count() != 0 {
		t.Errorf("writes = %d, want 0", w.count())
	}
}

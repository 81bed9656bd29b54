package avr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// historyTimeout bounds a single history write.
const historyTimeout = 2 * time.Second

// Config holds the bridge settings for one receiver.
type Config struct {
	// ReceiverID names the receiver in topics and payloads.
	ReceiverID string

	// Zone2 and Zone3 enable the secondary zone parsers.
	Zone2 bool
	Zone3 bool

	// RefreshOnStart sends the status request list when the bridge starts.
	RefreshOnStart bool

	HealthInterval time.Duration
	Version        string
}

// Logger is the structured logger the bridge writes to.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// MQTTClient is the interface for MQTT operations.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error
	IsConnected() bool
}

// HistoryRecorder persists state changes. Optional.
type HistoryRecorder interface {
	RecordStateChange(ctx context.Context, change StateChange) error
}

// TelemetryWriter forwards state changes to a time-series store. Optional.
type TelemetryWriter interface {
	WriteStateChange(change StateChange)
}

// CommandRecorder keeps an audit trail of executed commands. Optional.
type CommandRecorder interface {
	RecordCommand(ctx context.Context, result CommandResult) error
}

// BridgeOptions holds the dependencies for creating a bridge.
type BridgeOptions struct {
	Config     Config
	MQTTClient MQTTClient
	Logger     Logger

	// History is optional state change persistence.
	History HistoryRecorder

	// Telemetry is optional time-series output.
	Telemetry TelemetryWriter

	// Commands is an optional command audit trail.
	Commands CommandRecorder

	// OnStateChange is called for every published change. Optional.
	OnStateChange func(StateChange)
}

// Bridge connects the receiver line protocol to MQTT.
//
// Receiver output arrives on the rx topic, is parsed by a Manager and every
// resulting change is published as retained state. Commands from Core are
// formatted into receiver commands and published on the tx topic for the
// line transport to write.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	cfg       Config
	mqtt      MQTTClient
	health    *HealthReporter
	history   HistoryRecorder
	telemetry TelemetryWriter
	commands  CommandRecorder
	onChange  func(StateChange)

	// mu serialises all access to manager; paho runs handlers on its own goroutines.
	mu      sync.Mutex
	manager *Manager

	linesReceived  atomic.Uint64
	linesUnhandled atomic.Uint64
	stateChanges   atomic.Uint64
	commandsSent   atomic.Uint64
	errorsTotal    atomic.Uint64

	ctx       context.Context
	ctxCancel context.CancelFunc
	stopOnce  sync.Once

	logger   Logger
	loggerMu sync.RWMutex
}

// NewBridge creates a bridge. Call Start to begin operation.
func NewBridge(opts BridgeOptions) (*Bridge, error) {
	if opts.Config.ReceiverID == "" {
		return nil, fmt.Errorf("receiver id is required")
	}
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}

	mopts := ManagerOptions{Main: NewZoneState()}
	if opts.Config.Zone2 {
		mopts.Zone2 = NewZoneState()
	}
	if opts.Config.Zone3 {
		mopts.Zone3 = NewZoneState()
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		cfg:       opts.Config,
		mqtt:      opts.MQTTClient,
		history:   opts.History,
		telemetry: opts.Telemetry,
		commands:  opts.Commands,
		onChange:  opts.OnStateChange,
		manager:   NewManager(mopts),
		ctx:       ctx,
		ctxCancel: cancel,
		logger:    opts.Logger,
	}

	zones := make([]string, 0, len(b.manager.ConfiguredZones()))
	for _, z := range b.manager.ConfiguredZones() {
		zones = append(zones, z.String())
	}
	b.health = NewHealthReporter(HealthReporterConfig{
		ReceiverID: opts.Config.ReceiverID,
		Version:    opts.Config.Version,
		Interval:   opts.Config.HealthInterval,
		Publisher:  opts.MQTTClient,
		Stats:      b.Stats,
		Zones:      zones,
	})
	if opts.Logger != nil {
		b.health.SetLogger(opts.Logger)
	}
	return b, nil
}

// Start subscribes to the rx and command topics and starts health reporting.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.health.PublishStarting(); err != nil {
		b.logError("failed to publish starting status", err)
	}

	rx := RxTopic(b.cfg.ReceiverID)
	if err := b.mqtt.Subscribe(rx, 1, b.handleRx); err != nil {
		return fmt.Errorf("subscribe to receiver output: %w", err)
	}
	b.logInfo("subscribed to receiver output", "topic", rx)

	commands := CommandSubscribeTopic(b.cfg.ReceiverID)
	if err := b.mqtt.Subscribe(commands, 1, b.handleCommandMessage); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logInfo("subscribed to commands", "topic", commands)

	b.health.Start(ctx)

	if b.cfg.RefreshOnStart {
		if err := b.RefreshAll(); err != nil {
			b.logError("initial refresh failed", err)
		}
	}

	b.logInfo("bridge started",
		"receiver", b.cfg.ReceiverID,
		"zones", len(b.manager.ConfiguredZones()))
	return nil
}

// Stop shuts the bridge down. Safe to call multiple times.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.ctxCancel()
		b.health.Stop()
		b.logInfo("bridge stopped")
	})
}

// Ingest feeds receiver output into the codec. payload may hold several
// CR or LF separated lines. The changes it produced are published and
// returned in drain order.
func (b *Bridge) Ingest(payload string) []StateChange {
	lines := strings.FieldsFunc(payload, func(r rune) bool { return r == '\r' || r == '\n' })

	now := time.Now().UTC()
	var changes []StateChange

	b.mu.Lock()
	for _, line := range lines {
		b.linesReceived.Add(1)
		if _, ok := b.manager.HandleCommand(line); !ok {
			b.linesUnhandled.Add(1)
			b.logDebug("unhandled receiver line", "line", line)
		}
	}
	b.manager.Drain(func(zone Zone, u Update) {
		changes = append(changes, StateChange{
			Receiver:  b.cfg.ReceiverID,
			Zone:      zone,
			Setting:   u.Setting,
			Value:     u.Value,
			Timestamp: now,
		})
	})
	b.mu.Unlock()

	for _, c := range changes {
		b.publishChange(c)
	}
	return changes
}

// Execute formats cmd for zone and hands the result to the line transport.
// It returns the receiver command that was sent. Every attempt, failed or
// not, goes to the command recorder.
func (b *Bridge) Execute(zone Zone, cmd CommandMessage) (string, error) {
	command, err := b.execute(zone, cmd)
	b.recordCommand(CommandResult{
		Receiver:  b.cfg.ReceiverID,
		Zone:      zone,
		Command:   cmd,
		Sent:      command,
		Err:       err,
		Timestamp: time.Now().UTC(),
	})
	return command, err
}

func (b *Bridge) execute(zone Zone, cmd CommandMessage) (string, error) {
	if !b.zoneConfigured(zone) {
		return "", fmt.Errorf("%w: %s", ErrZoneNotConfigured, zone)
	}
	setting, value, err := cmd.ToValue()
	if err != nil {
		return "", err
	}
	command, err := Format(setting, value, zone)
	if err != nil {
		return "", err
	}
	if err := b.sendLine(command); err != nil {
		return "", err
	}
	b.logDebug("command sent", "command_id", cmd.ID, "zone", zone.String(), "command", command)
	return command, nil
}

// RefreshAll sends every status request query.
func (b *Bridge) RefreshAll() error {
	var errs []error
	SendStatusRequests(func(command string) {
		if err := b.sendLine(command); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}

// Refresh sends the status queries for one zone.
func (b *Bridge) Refresh(zone Zone) error {
	if !b.zoneConfigured(zone) {
		return fmt.Errorf("%w: %s", ErrZoneNotConfigured, zone)
	}
	for _, command := range ZoneStatusRequestCommands(zone) {
		if err := b.sendLine(command); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns the current state of zone.
func (b *Bridge) Snapshot(zone Zone) (map[Setting]Value, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state := b.manager.State(zone)
	if state == nil {
		return nil, fmt.Errorf("%w: %s", ErrZoneNotConfigured, zone)
	}
	return state.Snapshot(), nil
}

// Zones returns the configured zones.
func (b *Bridge) Zones() []Zone {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.manager.ConfiguredZones()
}

// ReceiverID returns the configured receiver identifier.
func (b *Bridge) ReceiverID() string {
	return b.cfg.ReceiverID
}

// Stats returns the bridge counters.
func (b *Bridge) Stats() BridgeStatistics {
	return BridgeStatistics{
		LinesReceived:  b.linesReceived.Load(),
		LinesUnhandled: b.linesUnhandled.Load(),
		StateChanges:   b.stateChanges.Load(),
		CommandsSent:   b.commandsSent.Load(),
		Errors:         b.errorsTotal.Load(),
	}
}

// Health returns the current health report.
func (b *Bridge) Health() HealthMessage {
	return b.health.Current()
}

// SetLogger replaces the bridge logger.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()
	b.health.SetLogger(logger)
}

func (b *Bridge) zoneConfigured(zone Zone) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.manager.Configured(zone)
}

func (b *Bridge) handleRx(_ string, payload []byte) {
	b.Ingest(string(payload))
}

// handleCommandMessage processes a command from Core. The zone comes from
// the last topic segment.
func (b *Bridge) handleCommandMessage(topic string, payload []byte) {
	segment := topic[strings.LastIndex(topic, "/")+1:]
	zone, err := ParseZone(segment)
	if err != nil {
		b.logError("command on unknown zone", err)
		return
	}

	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.publishAckError(zone, cmd, ErrCodeInvalidCommand, "malformed command payload")
		b.logError("failed to parse command", err)
		return
	}
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	if cmd.Source == "" {
		cmd.Source = SourceMQTT
	}

	b.logInfo("received command",
		"command_id", cmd.ID,
		"zone", zone.String(),
		"setting", cmd.Setting)

	command, err := b.Execute(zone, cmd)
	if err != nil {
		b.publishAckError(zone, cmd, errorCode(err), err.Error())
		return
	}
	b.publishAck(zone, cmd, command)
}

func (b *Bridge) sendLine(command string) error {
	if !b.mqtt.IsConnected() {
		b.errorsTotal.Add(1)
		return ErrNotConnected
	}
	if err := b.mqtt.Publish(TxTopic(b.cfg.ReceiverID), []byte(command), 1, false); err != nil {
		b.errorsTotal.Add(1)
		return fmt.Errorf("publish receiver command: %w", err)
	}
	b.commandsSent.Add(1)
	return nil
}

func (b *Bridge) publishChange(c StateChange) {
	b.stateChanges.Add(1)

	payload, err := json.Marshal(NewStateMessage(c))
	if err != nil {
		b.logError("failed to marshal state", err)
	} else if err := b.mqtt.Publish(StateTopic(c.Receiver, c.Zone, c.Setting), payload, 1, true); err != nil {
		b.errorsTotal.Add(1)
		b.logError("failed to publish state", err)
	}

	if b.history != nil {
		ctx, cancel := context.WithTimeout(b.ctx, historyTimeout)
		if err := b.history.RecordStateChange(ctx, c); err != nil {
			b.errorsTotal.Add(1)
			b.logError("failed to record state history", err)
		}
		cancel()
	}
	if b.telemetry != nil {
		b.telemetry.WriteStateChange(c)
	}
	if b.onChange != nil {
		b.onChange(c)
	}
}

func (b *Bridge) recordCommand(result CommandResult) {
	if b.commands == nil {
		return
	}
	ctx, cancel := context.WithTimeout(b.ctx, historyTimeout)
	defer cancel()
	if err := b.commands.RecordCommand(ctx, result); err != nil {
		b.errorsTotal.Add(1)
		b.logError("failed to record command", err)
	}
}

func (b *Bridge) publishAck(zone Zone, cmd CommandMessage, command string) {
	payload, err := json.Marshal(NewAckMessage(b.cfg.ReceiverID, zone, cmd, command))
	if err != nil {
		b.logError("failed to marshal ack", err)
		return
	}
	if err := b.mqtt.Publish(AckTopic(b.cfg.ReceiverID, zone), payload, 1, false); err != nil {
		b.logError("failed to publish ack", err)
	}
}

func (b *Bridge) publishAckError(zone Zone, cmd CommandMessage, code, message string) {
	b.errorsTotal.Add(1)

	payload, err := json.Marshal(NewAckError(b.cfg.ReceiverID, zone, cmd, code, message))
	if err != nil {
		b.logError("failed to marshal ack error", err)
		return
	}
	if err := b.mqtt.Publish(AckTopic(b.cfg.ReceiverID, zone), payload, 1, false); err != nil {
		b.logError("failed to publish ack error", err)
	}
	b.logError("command failed", fmt.Errorf("code=%s message=%s", code, message))
}

func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

func (b *Bridge) logError(msg string, err error) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}

func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	logger := b.logger
	b.loggerMu.RUnlock()

	if logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}

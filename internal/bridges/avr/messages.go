package avr

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// MQTT message types exchanged between Core, the line transport and the AVR bridge.

// CommandMessage is sent from Core to the bridge to change a setting.
// Topic: graylogic/command/avr/{receiver}/{zone}
type CommandMessage struct {
	// ID correlates the command with its acknowledgment. Assigned by the
	// bridge when empty.
	ID string `json:"id"`

	// Timestamp is when the command was issued (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Setting is the setting name, e.g. "volume", "source", "channel_volume".
	// "none" sends Value verbatim as a pre-formed receiver command.
	Setting string `json:"setting"`

	// Key addresses a channel, speaker or parameter on keyed settings.
	// Speaker display names ("Front Left") are accepted as well as codes.
	Key string `json:"key,omitempty"`

	// Value is a string, number or boolean.
	//   {"setting": "volume", "value": 50.5}
	//   {"setting": "source", "value": "TUNER"}
	//   {"setting": "channel_volume", "key": "FL", "value": "50"}
	Value any `json:"value,omitempty"`

	// Source indicates where the command originated ("api", "automation", ...).
	Source string `json:"source,omitempty"`
}

// ToValue resolves the command into a setting and a value ready for the
// formatter.
func (c CommandMessage) ToValue() (Setting, Value, error) {
	setting, err := ParseSetting(c.Setting)
	if err != nil {
		return None, Value{}, err
	}

	switch {
	case setting == None:
		raw, ok := c.Value.(string)
		if !ok || raw == "" {
			return None, Value{}, fmt.Errorf("%w: raw command must be a non-empty string", ErrInvalidCommand)
		}
		return None, Value{Raw: raw}, nil

	case setting.Keyed():
		if c.Key == "" {
			return None, Value{}, fmt.Errorf("%w: %s requires a key", ErrInvalidCommand, setting)
		}
		key := c.Key
		if setting != Parameters {
			key = NormalizeSpeaker(key)
		}
		sub, err := subValueString(c.Value)
		if err != nil {
			return None, Value{}, err
		}
		return setting, KeyedValue(key, sub), nil
	}

	switch v := c.Value.(type) {
	case string:
		if v == "" {
			return None, Value{}, fmt.Errorf("%w: empty value", ErrInvalidCommand)
		}
		return setting, TextValue(v), nil
	case float64:
		return setting, NumericValue(v), nil
	case int:
		return setting, NumericValue(float64(v)), nil
	case bool:
		return setting, TextValue(onOff(v)), nil
	default:
		return None, Value{}, fmt.Errorf("%w: unsupported value type %T", ErrInvalidCommand, c.Value)
	}
}

func subValueString(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	case bool:
		return onOff(t), nil
	default:
		return "", fmt.Errorf("%w: unsupported value type %T", ErrInvalidCommand, v)
	}
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

// AckStatus represents the acknowledgment status of a command.
type AckStatus string

const (
	// AckAccepted indicates the command was formatted and handed to the transport.
	AckAccepted AckStatus = "accepted"

	// AckFailed indicates the command could not be executed.
	AckFailed AckStatus = "failed"
)

// AckMessage is sent from the bridge to Core to acknowledge a command.
// Topic: graylogic/ack/avr/{receiver}/{zone}
type AckMessage struct {
	CommandID string    `json:"command_id"`
	Timestamp time.Time `json:"timestamp"`
	Receiver  string    `json:"receiver"`
	Zone      string    `json:"zone"`
	Status    AckStatus `json:"status"`
	Protocol  string    `json:"protocol"`

	// Command is the receiver command that was sent, when accepted.
	Command string `json:"command,omitempty"`

	Error *AckError `json:"error,omitempty"`
}

// AckError contains error details for failed commands.
type AckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes for command failures.
const (
	ErrCodeInvalidCommand = "INVALID_COMMAND"
	ErrCodeUnknownSetting = "UNKNOWN_SETTING"
	ErrCodeNotFormattable = "NOT_FORMATTABLE"
	ErrCodeNotConfigured  = "NOT_CONFIGURED"
	ErrCodeBridgeError    = "BRIDGE_ERROR"
)

// StateMessage is published by the bridge whenever a setting changes.
// Topic: graylogic/state/avr/{receiver}/{zone}/{setting}
// QoS: 1, Retained: Yes
type StateMessage struct {
	Receiver  string    `json:"receiver"`
	Zone      string    `json:"zone"`
	Setting   string    `json:"setting"`
	Timestamp time.Time `json:"timestamp"`
	Value     Value     `json:"value"`
	Protocol  string    `json:"protocol"`

	// Channel is the display name of the addressed speaker on keyed settings.
	Channel string `json:"channel,omitempty"`

	// Command is the receiver command that reproduces this state, when one exists.
	Command string `json:"command,omitempty"`
}

// StateChange is one recorded change, handed to history, telemetry and
// listeners after it has been published.
type StateChange struct {
	Receiver  string
	Zone      Zone
	Setting   Setting
	Value     Value
	Timestamp time.Time
}

// Command sources recorded when a command does not name its own.
const (
	SourceMQTT = "mqtt"
	SourceAPI  = "api"
)

// CommandResult is one command execution attempt, successful or not.
type CommandResult struct {
	Receiver  string
	Zone      Zone
	Command   CommandMessage
	Sent      string // receiver command written to the transport; "" on failure
	Err       error
	Timestamp time.Time
}

// ErrorCode returns the acknowledgment code for a failed attempt, or "".
func (r CommandResult) ErrorCode() string {
	if r.Err == nil {
		return ""
	}
	return errorCode(r.Err)
}

// HealthStatus represents the operational status of the bridge.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthOffline  HealthStatus = "offline"
	HealthStarting HealthStatus = "starting"
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage reports the bridge's operational status.
// Topic: graylogic/health/avr/{receiver}
// QoS: 1, Retained: Yes
type HealthMessage struct {
	Bridge        string            `json:"bridge"`
	Timestamp     time.Time         `json:"timestamp"`
	Status        HealthStatus      `json:"status"`
	Version       string            `json:"version,omitempty"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Zones         []string          `json:"zones,omitempty"`
	Statistics    *BridgeStatistics `json:"statistics,omitempty"`
	Reason        string            `json:"reason,omitempty"`
}

// BridgeStatistics contains operational counters.
type BridgeStatistics struct {
	LinesReceived  uint64 `json:"lines_received"`
	LinesUnhandled uint64 `json:"lines_unhandled"`
	StateChanges   uint64 `json:"state_changes"`
	CommandsSent   uint64 `json:"commands_sent"`
	Errors         uint64 `json:"errors"`
}

// NewAckMessage creates an acknowledgment for an accepted command.
func NewAckMessage(receiverID string, zone Zone, cmd CommandMessage, command string) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		Receiver:  receiverID,
		Zone:      zone.String(),
		Status:    AckAccepted,
		Protocol:  protocolSegment,
		Command:   command,
	}
}

// NewAckError creates a failed acknowledgment with error details.
func NewAckError(receiverID string, zone Zone, cmd CommandMessage, code, message string) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		Receiver:  receiverID,
		Zone:      zone.String(),
		Status:    AckFailed,
		Protocol:  protocolSegment,
		Error:     &AckError{Code: code, Message: message},
	}
}

// NewStateMessage builds the state payload for one change.
func NewStateMessage(c StateChange) StateMessage {
	msg := StateMessage{
		Receiver:  c.Receiver,
		Zone:      c.Zone.String(),
		Setting:   c.Setting.String(),
		Timestamp: c.Timestamp,
		Value:     c.Value,
		Protocol:  protocolSegment,
	}
	if c.Setting.Keyed() && c.Setting != Parameters {
		if name, ok := SpeakerName(c.Value.KeyString()); ok {
			msg.Channel = name
		}
	}
	if cmd, ok := FormatCommand(c.Setting, c.Value, c.Zone); ok {
		msg.Command = cmd
	}
	return msg
}

// NewLWTMessage creates the Last Will and Testament published by the broker
// if the bridge disconnects unexpectedly.
func NewLWTMessage(receiverID string) HealthMessage {
	return HealthMessage{
		Bridge:    receiverID,
		Timestamp: time.Now().UTC(),
		Status:    HealthOffline,
		Reason:    "unexpected_disconnect",
	}
}

// errorCode maps a command error to its acknowledgment code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnknownSetting):
		return ErrCodeUnknownSetting
	case errors.Is(err, ErrNotFormattable):
		return ErrCodeNotFormattable
	case errors.Is(err, ErrZoneNotConfigured):
		return ErrCodeNotConfigured
	case errors.Is(err, ErrInvalidCommand):
		return ErrCodeInvalidCommand
	default:
		return ErrCodeBridgeError
	}
}

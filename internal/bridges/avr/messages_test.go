package avr

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestCommandMessageToValue(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		setting Setting
		command string
	}{
		{"text", `{"setting":"source","value":"TUNER"}`, Source, "SITUNER"},
		{"number", `{"setting":"volume","value":50}`, Volume, "MV50"},
		{"half-step", `{"setting":"volume","value":50.5}`, Volume, "MV505"},
		{"bool", `{"setting":"mute","value":true}`, Mute, "MUON"},
		{"keyed by code", `{"setting":"channel_volume","key":"FL","value":"50"}`, ChannelVolume, "CVFL 50"},
		{"keyed by name", `{"setting":"channel_volume","key":"Front Right","value":52}`, ChannelVolume, "CVFR 52"},
		{"keyed without value", `{"setting":"channel_volume","key":"C"}`, ChannelVolume, "CVC"},
		{"parameter key kept", `{"setting":"parameters","key":"TONE CTRL","value":"ON"}`, Parameters, "PSTONE CTRL ON"},
		{"raw command", `{"setting":"none","value":"MVUP"}`, None, "MVUP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cmd CommandMessage
			if err := json.Unmarshal([]byte(tt.payload), &cmd); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			setting, value, err := cmd.ToValue()
			if err != nil {
				t.Fatalf("ToValue error: %v", err)
			}
			if setting != tt.setting {
				t.Errorf("setting = %v, want %v", setting, tt.setting)
			}
			got, ok := FormatCommand(setting, value, ZoneMain)
			if !ok || got != tt.command {
				t.Errorf("FormatCommand = %q, %v; want %q", got, ok, tt.command)
			}
		})
	}
}

func TestCommandMessageToValueErrors(t *testing.T) {
	tests := []struct {
		name string
		cmd  CommandMessage
		want error
	}{
		{"unknown setting", CommandMessage{Setting: "bass", Value: "1"}, ErrUnknownSetting},
		{"keyed without key", CommandMessage{Setting: "channel_volume", Value: "50"}, ErrInvalidCommand},
		{"empty text", CommandMessage{Setting: "source", Value: ""}, ErrInvalidCommand},
		{"missing value", CommandMessage{Setting: "source"}, ErrInvalidCommand},
		{"raw not a string", CommandMessage{Setting: "none", Value: 5.0}, ErrInvalidCommand},
		{"unsupported type", CommandMessage{Setting: "volume", Value: []any{1}}, ErrInvalidCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.cmd.ToValue()
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewStateMessage(t *testing.T) {
	ts := time.Date(2026, 1, 20, 10, 30, 0, 0, time.UTC)
	v := formatResult(Result{Setting: ChannelVolume, Value: KeyedValue("FL", "50")}).Value

	msg := NewStateMessage(StateChange{
		Receiver:  "living-room",
		Zone:      Zone2,
		Setting:   ChannelVolume,
		Value:     v,
		Timestamp: ts,
	})

	if msg.Zone != "zone2" || msg.Setting != "channel_volume" {
		t.Errorf("zone/setting = %q/%q", msg.Zone, msg.Setting)
	}
	if msg.Channel != "Front Left" {
		t.Errorf("Channel = %q, want Front Left", msg.Channel)
	}
	if msg.Command != "Z2CVFL 50" {
		t.Errorf("Command = %q, want Z2CVFL 50", msg.Command)
	}
	if msg.Protocol != "avr" {
		t.Errorf("Protocol = %q, want avr", msg.Protocol)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if raw["timestamp"] != "2026-01-20T10:30:00Z" {
		t.Errorf("timestamp = %v", raw["timestamp"])
	}
	value, ok := raw["value"].(map[string]any)
	if !ok || value["key"] != "FL" {
		t.Errorf("value = %v", raw["value"])
	}
}

func TestNewStateMessageReportOnly(t *testing.T) {
	msg := NewStateMessage(StateChange{Zone: ZoneMain, Setting: ECOMode, Value: TextValue("AUTO")})
	if msg.Command != "" {
		t.Errorf("Command = %q, want empty for a report-only setting", msg.Command)
	}
}

func TestAckMessages(t *testing.T) {
	cmd := CommandMessage{ID: "cmd-1", Setting: "volume", Value: 50.0}

	ack := NewAckMessage("avr-1", ZoneMain, cmd, "MV50")
	if ack.CommandID != "cmd-1" || ack.Status != AckAccepted || ack.Command != "MV50" {
		t.Errorf("ack = %+v", ack)
	}
	if ack.Error != nil {
		t.Error("accepted ack carries an error")
	}

	fail := NewAckError("avr-1", Zone2, cmd, ErrCodeNotConfigured, "zone2 not configured")
	if fail.Status != AckFailed || fail.Zone != "zone2" {
		t.Errorf("failed ack = %+v", fail)
	}
	if fail.Error == nil || fail.Error.Code != ErrCodeNotConfigured {
		t.Errorf("failed ack error = %+v", fail.Error)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("x: %w", ErrUnknownSetting), ErrCodeUnknownSetting},
		{fmt.Errorf("x: %w", ErrNotFormattable), ErrCodeNotFormattable},
		{fmt.Errorf("x: %w", ErrZoneNotConfigured), ErrCodeNotConfigured},
		{fmt.Errorf("x: %w", ErrInvalidCommand), ErrCodeInvalidCommand},
		{ErrNotConnected, ErrCodeBridgeError},
	}
	for _, tt := range tests {
		if got := errorCode(tt.err); got != tt.want {
			t.Errorf("errorCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestLWTMessage(t *testing.T) {
	msg := NewLWTMessage("avr-1")
	if msg.Status != HealthOffline || msg.Reason != "unexpected_disconnect" {
		t.Errorf("LWT = %+v", msg)
	}
}

func TestTopics(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{RxTopic("avr-1"), "graylogic/rx/avr/avr-1"},
		{TxTopic("avr-1"), "graylogic/tx/avr/avr-1"},
		{StateTopic("avr-1", Zone2, Volume), "graylogic/state/avr/avr-1/zone2/volume"},
		{CommandTopic("avr-1", ZoneMain), "graylogic/command/avr/avr-1/main"},
		{CommandSubscribeTopic("avr-1"), "graylogic/command/avr/avr-1/+"},
		{AckTopic("avr-1", Zone3), "graylogic/ack/avr/avr-1/zone3"},
		{HealthTopic("avr-1"), "graylogic/health/avr/avr-1"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("topic = %q, want %q", tt.got, tt.want)
		}
	}
}

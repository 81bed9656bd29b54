package avr

import "errors"

// Domain errors for the AVR bridge package.
var (
	// ErrUnknownSetting is returned when a setting name does not resolve to
	// one of the declared settings.
	ErrUnknownSetting = errors.New("avr: unknown setting")

	// ErrUnknownZone is returned when a zone name or number is not one of
	// main, zone2 or zone3.
	ErrUnknownZone = errors.New("avr: unknown zone")

	// ErrZoneNotConfigured is returned when a command addresses a secondary
	// zone the bridge was not configured with.
	ErrZoneNotConfigured = errors.New("avr: zone not configured")

	// ErrNotFormattable is returned when a setting/value pair has no
	// outbound command form in the addressed zone.
	ErrNotFormattable = errors.New("avr: value cannot be formatted as a command")

	// ErrInvalidCommand is returned when an inbound command payload is
	// malformed.
	ErrInvalidCommand = errors.New("avr: invalid command")

	// ErrNotConnected is returned when a publish is attempted while the
	// MQTT client is disconnected.
	ErrNotConnected = errors.New("avr: not connected to MQTT broker")
)

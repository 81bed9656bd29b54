package avr

import "fmt"

// Setting identifies one logical receiver attribute.
//
// The set is closed: every grammar and every formatter table is keyed by one
// of the constants below. The numeric values are not part of the wire
// protocol; use String/ParseSetting for anything that leaves the process.
type Setting int

// Receiver settings.
const (
	None Setting = iota
	ChannelSetting
	ChannelVolume
	DigitalInput
	ECOMode
	MainPower
	MaxVolume
	Mute
	Parameters
	Power
	SD
	Sleep
	Source
	SSLevels
	SSSpeakers
	Standby
	SurroundMode
	VideoSelect
	VideoSelectSource
	HPF
	QuickSelect
	Volume
)

var settingNames = [...]string{
	None:              "none",
	ChannelSetting:    "channel_setting",
	ChannelVolume:     "channel_volume",
	DigitalInput:      "digital_input",
	ECOMode:           "eco_mode",
	MainPower:         "main_power",
	MaxVolume:         "max_volume",
	Mute:              "mute",
	Parameters:        "parameters",
	Power:             "power",
	SD:                "sd",
	Sleep:             "sleep",
	Source:            "source",
	SSLevels:          "ss_levels",
	SSSpeakers:        "ss_speakers",
	Standby:           "standby",
	SurroundMode:      "surround_mode",
	VideoSelect:       "video_select",
	VideoSelectSource: "video_select_source",
	HPF:               "hpf",
	QuickSelect:       "quick_select",
	Volume:            "volume",
}

var settingsByName = func() map[string]Setting {
	m := make(map[string]Setting, len(settingNames))
	for s, name := range settingNames {
		m[name] = Setting(s)
	}
	return m
}()

// String returns the snake_case name used in MQTT topics and JSON payloads.
func (s Setting) String() string {
	if s < 0 || int(s) >= len(settingNames) {
		return fmt.Sprintf("setting(%d)", int(s))
	}
	return settingNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Setting) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSetting, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Setting) UnmarshalText(text []byte) error {
	parsed, err := ParseSetting(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Valid reports whether s is one of the declared settings.
func (s Setting) Valid() bool {
	return s >= 0 && int(s) < len(settingNames)
}

// Keyed reports whether the setting is addressed by a sub-key (a channel,
// speaker or parameter name) and therefore keeps a per-key dictionary.
func (s Setting) Keyed() bool {
	switch s {
	case ChannelVolume, SSLevels, SSSpeakers, Parameters:
		return true
	default:
		return false
	}
}

// HalfStep reports whether a three digit numeric suffix on this setting
// encodes tenths (the receiver reports 50.5 as "505").
func (s Setting) HalfStep() bool {
	return s == Volume || s == MaxVolume
}

// ParseSetting resolves a setting from its String form.
func ParseSetting(name string) (Setting, error) {
	s, ok := settingsByName[name]
	if !ok {
		return None, fmt.Errorf("%w: %q", ErrUnknownSetting, name)
	}
	return s, nil
}

// Settings returns every declared setting in declaration order.
func Settings() []Setting {
	out := make([]Setting, len(settingNames))
	for i := range settingNames {
		out[i] = Setting(i)
	}
	return out
}

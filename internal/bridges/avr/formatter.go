package avr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// mainCommands maps settings to their main-zone command prefix.
// ECOMode and MaxVolume are reports only and have no entry.
var mainCommands = map[Setting]string{
	MainPower:         "PW",
	Source:            "SI",
	VideoSelect:       "SV",
	VideoSelectSource: "SV",
	SD:                "SD",
	DigitalInput:      "DC",
	SurroundMode:      "MS",
	Power:             "ZM",
	Mute:              "MU",
	Volume:            "MV",
	ChannelVolume:     "CV",
	Parameters:        "PS",
	SSLevels:          "SSLEV",
	SSSpeakers:        "SSSPC",
	Sleep:             "SLP",
	Standby:           "STBY",
}

// zoneCommands maps settings to their prefix after a "Z<n>" zone tag.
// Power, source and volume are addressed by the bare tag.
var zoneCommands = map[Setting]string{
	Source:         "",
	Power:          "",
	Mute:           "MU",
	Volume:         "",
	ChannelVolume:  "CV",
	ChannelSetting: "CS",
	HPF:            "HPF",
	QuickSelect:    "QUICK",
}

// numericWidth is the zero-padded width some settings use on the wire.
var numericWidth = map[Setting]int{
	Volume:    2,
	MaxVolume: 2,
	Sleep:     3,
}

// statusRequestCommands is sent in order after connecting to refresh every
// zone's state.
var statusRequestCommands = []string{
	"SI?",
	"PW?",
	"MV?",
	"CV?",
	"MU?",
	"ZM?",
	"SR?",
	"SD?",
	"DC?",
	"SV?",
	"SLP?",
	"MS?",
	"Z2?",
	"Z2MU?",
	"Z2CS?",
	"Z2CV?",
	"Z2HPF?",
	"Z2QUICK ?",
	"Z3?",
	"Z3MU?",
	"Z3CS?",
	"Z3CV?",
	"Z3HPF?",
	"Z3QUICK ?",
	"SSSPC ?",
	"PSCLV ?",
	"PSSWL ?",
	"SSLEV ?",
}

// FormatCommand renders setting and v as an outbound command for zone.
// Zone values below 2 address the main zone. It returns false when the
// setting has no command in that zone or the value has nothing to render.
func FormatCommand(setting Setting, v Value, zone Zone) (string, bool) {
	if setting == None {
		return v.Raw, v.Raw != ""
	}

	table, tag := mainCommands, ""
	if zone > ZoneMain {
		table, tag = zoneCommands, zone.Tag()
	}
	prefix, ok := table[setting]
	if !ok {
		return "", false
	}

	rendered, ok := renderValue(setting, v)
	if !ok {
		return "", false
	}
	return tag + prefix + rendered, true
}

// Format is FormatCommand returning ErrNotFormattable instead of false.
func Format(setting Setting, v Value, zone Zone) (string, error) {
	cmd, ok := FormatCommand(setting, v, zone)
	if !ok {
		return "", fmt.Errorf("%w: %s in %s", ErrNotFormattable, setting, zone)
	}
	return cmd, nil
}

func renderValue(setting Setting, v Value) (string, bool) {
	if setting.Keyed() {
		if v.Key == nil {
			return "", false
		}
		if v.ValueString() == "" {
			// No trailing space: the receiver's own form is "CVC".
			return *v.Key, true
		}
		return *v.Key + " " + *v.Value, true
	}
	if v.Text != nil {
		return *v.Text, true
	}
	if v.Numeric != nil {
		return renderNumeric(setting, v), true
	}
	return "", false
}

// renderNumeric writes a numeric value the way the receiver reports it.
// Decimal half-steps are sent in tenths, always three digits ("505" for
// 50.5, "055" for 5.5).
func renderNumeric(setting Setting, v Value) string {
	if v.Numeric == nil {
		return ""
	}
	n := *v.Numeric
	if v.Decimal {
		return fmt.Sprintf("%0*d", halfStepDigits, int(math.Round(n*10)))
	}
	if n != math.Trunc(n) {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	s := strconv.Itoa(int(n))
	if w := numericWidth[setting]; w > 0 && n >= 0 && len(s) < w {
		s = strings.Repeat("0", w-len(s)) + s
	}
	return s
}

// StatusRequestCommands returns a copy of the refresh query list.
func StatusRequestCommands() []string {
	return append([]string(nil), statusRequestCommands...)
}

// SendStatusRequests calls send once per refresh query, in order.
func SendStatusRequests(send func(command string)) {
	for _, cmd := range statusRequestCommands {
		send(cmd)
	}
}

// ZoneStatusRequestCommands returns the refresh queries relevant to zone.
// The main zone gets the full list, which includes the global queries;
// a secondary zone gets only the queries carrying its tag.
func ZoneStatusRequestCommands(zone Zone) []string {
	if zone <= ZoneMain {
		return StatusRequestCommands()
	}
	tag := zone.Tag()
	var out []string
	for _, cmd := range statusRequestCommands {
		if strings.HasPrefix(cmd, tag) {
			out = append(out, cmd)
		}
	}
	return out
}

package avr

import (
	"fmt"
	"strconv"
	"strings"
)

// Zone identifies one receiver output.
type Zone int

// Receiver zones. The numeric values match the zone numbers used on the wire.
const (
	ZoneMain Zone = 1
	Zone2    Zone = 2
	Zone3    Zone = 3
)

// Zones returns every zone in drain order.
func Zones() []Zone {
	return []Zone{ZoneMain, Zone2, Zone3}
}

// Tag returns the wire prefix that addresses the zone ("Z2", "Z3"), or ""
// for the main zone.
func (z Zone) Tag() string {
	if z <= ZoneMain {
		return ""
	}
	return "Z" + strconv.Itoa(int(z))
}

// String returns the name used in MQTT topics and API paths.
func (z Zone) String() string {
	switch z {
	case ZoneMain:
		return "main"
	case Zone2:
		return "zone2"
	case Zone3:
		return "zone3"
	default:
		return fmt.Sprintf("zone(%d)", int(z))
	}
}

// Valid reports whether z is a known zone.
func (z Zone) Valid() bool {
	return z >= ZoneMain && z <= Zone3
}

// ParseZone accepts "main", "zone2", "zone3" or the bare zone number.
func ParseZone(s string) (Zone, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "main", "1":
		return ZoneMain, nil
	case "zone2", "z2", "2":
		return Zone2, nil
	case "zone3", "z3", "3":
		return Zone3, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownZone, s)
	}
}

// literalZeroVolume is the two-character minimum volume report.
const literalZeroVolume = "00"

// ZoneGrammar builds the fixed chain for a secondary zone bound to tag
// ("Z2" or "Z3"). Once the tag matches, the chain always claims the
// command: anything not recognised earlier is taken as a source name.
func ZoneGrammar(tag string) *Grammar {
	return NewTaggedGrammar(tag,
		List(Power, "ON", "OFF"),
		Custom(ChannelVolume, zoneChannelVolume),
		LongPrefix(Mute, "MU"),
		LongPrefix(ChannelSetting, "CS"),
		LongPrefix(HPF, "HPF"),
		LongPrefix(QuickSelect, "QUICK"),
		Custom(Volume, zoneVolume),
		Passthrough(Source),
	)
}

func zoneChannelVolume(suffix string) (Result, bool) {
	rest, ok := strings.CutPrefix(suffix, "CV")
	if !ok {
		return Result{}, false
	}
	key, value := splitFirst(rest)
	return Result{Setting: ChannelVolume, Value: Value{Raw: rest, Key: &key, Value: &value}}, true
}

func zoneVolume(suffix string) (Result, bool) {
	if suffix != literalZeroVolume {
		if _, err := strconv.Atoi(suffix); err != nil {
			return Result{}, false
		}
	}
	return Result{Setting: Volume, Value: Value{Raw: suffix}}, true
}

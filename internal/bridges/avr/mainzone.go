package avr

import (
	"strconv"
	"strings"
)

// sentinelEnd is the receiver's end-of-listing echo. It is never a key.
const sentinelEnd = "END"

// Sub-tags that select a surround sub-grammar under the SS prefix.
const (
	subTagLevels   = "LEV"
	subTagSpeakers = "SPC"
)

// MainGrammar builds the prefix table for main-zone commands.
//
// Registration order matters where prefixes are shared: SV tries the
// ON/OFF toggle before falling back to a source name, and MV tries the
// MAX report before the plain integer volume.
func MainGrammar() *Grammar {
	return NewPrefixGrammar(
		Rule{"SV", List(VideoSelect, "ON", "OFF")},

		Rule{"SI", Passthrough(Source)},
		Rule{"SV", Passthrough(VideoSelectSource)},
		Rule{"SD", Passthrough(SD)},
		Rule{"DC", Passthrough(DigitalInput)},
		Rule{"MS", Passthrough(SurroundMode)},
		Rule{"PW", Passthrough(MainPower)},
		Rule{"ZM", Passthrough(Power)},
		Rule{"MU", Passthrough(Mute)},

		Rule{"MV", Delimited(MaxVolume, "MAX")},

		Rule{"SL", LongPrefix(Sleep, "P")},
		Rule{"ST", LongPrefix(Standby, "BY")},
		Rule{"EC", LongPrefix(ECOMode, "O")},

		Rule{"CV", Custom(ChannelVolume, channelVolume)},
		Rule{"MV", Custom(Volume, mainVolume)},
		Rule{"PS", Custom(Parameters, parameters)},
		Rule{"SS", Custom(SSLevels, surround)},
	)
}

// splitFirst splits "<key>[ <value>]" on the first space. A missing value
// is returned as "" and anything after a second space is dropped.
func splitFirst(s string) (key, value string) {
	parts := strings.Split(s, " ")
	if len(parts) > 1 {
		return parts[0], parts[1]
	}
	return parts[0], ""
}

func channelVolume(suffix string) (Result, bool) {
	if suffix == sentinelEnd {
		return Result{}, false
	}
	key, value := splitFirst(suffix)
	return Result{Setting: ChannelVolume, Value: Value{Raw: suffix, Key: &key, Value: &value}}, true
}

func mainVolume(suffix string) (Result, bool) {
	if _, err := strconv.Atoi(suffix); err != nil {
		return Result{}, false
	}
	return Result{Setting: Volume, Value: Value{Raw: suffix}}, true
}

// parameters splits on the last space: parameter names such as
// "TONE CTRL" contain spaces of their own.
func parameters(suffix string) (Result, bool) {
	if suffix == sentinelEnd {
		return Result{}, false
	}
	key, value := suffix, ""
	if i := strings.LastIndex(suffix, " "); i >= 0 {
		key, value = suffix[:i], suffix[i+1:]
	}
	return Result{Setting: Parameters, Value: Value{Raw: suffix, Key: &key, Value: &value}}, true
}

// surround handles "SSLEV<ch>[ <v>]" and "SSSPC<ch>[ <v>]". Each listing
// ends with "LEV END" or "SPC END"; the space is optional on some firmware.
func surround(suffix string) (Result, bool) {
	var setting Setting
	switch {
	case strings.HasPrefix(suffix, subTagLevels):
		setting = SSLevels
	case strings.HasPrefix(suffix, subTagSpeakers):
		setting = SSSpeakers
	default:
		return Result{}, false
	}
	rest := suffix[len(subTagLevels):]
	if strings.TrimLeft(rest, " ") == sentinelEnd {
		return Result{}, false
	}
	key, value := splitFirst(rest)
	return Result{Setting: setting, Value: Value{Raw: suffix, Key: &key, Value: &value}}, true
}

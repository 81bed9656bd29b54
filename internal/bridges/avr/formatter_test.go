package avr

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestFormatCommand(t *testing.T) {
	tests := []struct {
		name    string
		setting Setting
		value   Value
		zone    Zone
		want    string
		ok      bool
	}{
		{"main power", MainPower, TextValue("STANDBY"), ZoneMain, "PWSTANDBY", true},
		{"zone absent means main", Power, TextValue("ON"), 0, "ZMON", true},
		{"main source", Source, TextValue("TUNER"), ZoneMain, "SITUNER", true},
		{"main volume", Volume, NumericValue(50), ZoneMain, "MV50", true},
		{"main volume padded", Volume, NumericValue(5), ZoneMain, "MV05", true},
		{"main volume half-step", Volume, NumericValue(50.5), ZoneMain, "MV505", true},
		{"main volume low half-step", Volume, NumericValue(5.5), ZoneMain, "MV055", true},
		{"main volume lowest half-step", Volume, NumericValue(0.5), ZoneMain, "MV005", true},
		{"zone2 volume low half-step", Volume, NumericValue(5.5), Zone2, "Z2055", true},
		{"main mute", Mute, TextValue("ON"), ZoneMain, "MUON", true},
		{"video select", VideoSelect, TextValue("OFF"), ZoneMain, "SVOFF", true},
		{"digital input", DigitalInput, TextValue("AUTO"), ZoneMain, "DCAUTO", true},
		{"surround mode", SurroundMode, TextValue("STEREO"), ZoneMain, "MSSTEREO", true},
		{"sleep padded", Sleep, NumericValue(10), ZoneMain, "SLP010", true},
		{"standby", Standby, TextValue("2H"), ZoneMain, "STBY2H", true},
		{"channel volume", ChannelVolume, KeyedValue("FL", "50"), ZoneMain, "CVFL 50", true},
		{"channel volume without level", ChannelVolume, KeyedValue("C", ""), ZoneMain, "CVC", true},
		{"surround level", SSLevels, KeyedValue("FL", "50"), ZoneMain, "SSLEVFL 50", true},
		{"surround speaker", SSSpeakers, KeyedValue("FL", "LAR"), ZoneMain, "SSSPCFL LAR", true},
		{"parameter with spaces", Parameters, KeyedValue("TONE CTRL", "ON"), ZoneMain, "PSTONE CTRL ON", true},
		{"raw escape hatch", None, Value{Raw: "PW?"}, Zone2, "PW?", true},
		{"zone2 power", Power, TextValue("ON"), Zone2, "Z2ON", true},
		{"zone3 power", Power, TextValue("OFF"), Zone3, "Z3OFF", true},
		{"zone2 volume", Volume, NumericValue(50), Zone2, "Z250", true},
		{"zone3 volume zero", Volume, NumericValue(0), Zone3, "Z300", true},
		{"zone2 source", Source, TextValue("CD"), Zone2, "Z2CD", true},
		{"zone2 mute", Mute, TextValue("OFF"), Zone2, "Z2MUOFF", true},
		{"zone2 channel volume", ChannelVolume, KeyedValue("FL", "50"), Zone2, "Z2CVFL 50", true},
		{"zone2 channel setting", ChannelSetting, TextValue("MONO"), Zone2, "Z2CSMONO", true},
		{"zone3 hpf", HPF, TextValue("ON"), Zone3, "Z3HPFON", true},
		{"zone2 quick select", QuickSelect, NumericValue(1), Zone2, "Z2QUICK1", true},

		{"eco mode is report only", ECOMode, TextValue("ON"), ZoneMain, "", false},
		{"max volume is report only", MaxVolume, NumericValue(80), ZoneMain, "", false},
		{"quick select has no main form", QuickSelect, NumericValue(1), ZoneMain, "", false},
		{"main power has no zone form", MainPower, TextValue("ON"), Zone2, "", false},
		{"no text or numeric", Source, Value{Raw: "CD"}, ZoneMain, "", false},
		{"keyed without key", ChannelVolume, TextValue("FL"), ZoneMain, "", false},
		{"empty raw escape hatch", None, Value{}, ZoneMain, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FormatCommand(tt.setting, tt.value, tt.zone)
			if ok != tt.ok {
				t.Fatalf("FormatCommand ok = %v, want %v (got %q)", ok, tt.ok, got)
			}
			if got != tt.want {
				t.Errorf("FormatCommand = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatError(t *testing.T) {
	if _, err := Format(ECOMode, TextValue("ON"), ZoneMain); !errors.Is(err, ErrNotFormattable) {
		t.Errorf("Format(ECOMode) error = %v, want ErrNotFormattable", err)
	}
	cmd, err := Format(Power, TextValue("ON"), Zone2)
	if err != nil {
		t.Fatalf("Format(Power) error: %v", err)
	}
	if cmd != "Z2ON" {
		t.Errorf("Format(Power) = %q, want Z2ON", cmd)
	}
}

// TestFormatRoundTrip formats every parsed value and parses the result
// again; the raw, key and value fields must survive.
func TestFormatRoundTrip(t *testing.T) {
	commands := []string{
		"PWON", "PWSTANDBY", "ZMOFF", "MUON", "SIDVD", "SISAT/CBL",
		"SVON", "SVDVD", "SDAUTO", "DCAUTO", "MSDOLBY DIGITAL",
		"MV50", "MV505", "MV055", "MV005", "MV00",
		"CVFL 50", "CVC", "PSTONE CTRL ON", "PSCLV 50",
		"SSLEVFL 50", "SSSPCFL LAR", "SLP120", "SLPOFF", "STBY2H",
		"Z2ON", "Z2OFF", "Z3MUON", "Z250", "Z200", "Z2505", "Z2055",
		"Z2CVFL 50", "Z3CVC", "Z2CSST", "Z3HPFOFF", "Z2QUICK1",
		"Z2TUNER", "Z3SAT/CBL",
	}

	m := NewManager(ManagerOptions{Zone2: NewZoneState(), Zone3: NewZoneState()})
	for _, cmd := range commands {
		t.Run(cmd, func(t *testing.T) {
			zone, first, ok := m.Parse(cmd)
			if !ok {
				t.Fatalf("Parse(%q) unhandled", cmd)
			}
			formatted, ok := FormatCommand(first.Setting, first.Value, zone)
			if !ok {
				t.Fatalf("FormatCommand(%v) failed", first.Setting)
			}
			if formatted != cmd {
				t.Errorf("formatted = %q, want %q", formatted, cmd)
			}
			zone2, second, ok := m.Parse(formatted)
			if !ok {
				t.Fatalf("re-Parse(%q) unhandled", formatted)
			}
			if zone2 != zone || second.Setting != first.Setting {
				t.Errorf("re-parse = %v/%v, want %v/%v", zone2, second.Setting, zone, first.Setting)
			}
			if second.Value.Raw != first.Value.Raw ||
				second.Value.KeyString() != first.Value.KeyString() ||
				second.Value.ValueString() != first.Value.ValueString() {
				t.Errorf("re-parse value = %+v, want %+v", second.Value, first.Value)
			}
		})
	}
}

func TestSendStatusRequests(t *testing.T) {
	var got []string
	SendStatusRequests(func(cmd string) { got = append(got, cmd) })

	if !slices.Equal(got, statusRequestCommands) {
		t.Errorf("SendStatusRequests = %v, want %v", got, statusRequestCommands)
	}
	if len(got) != 28 {
		t.Errorf("len = %d, want 28", len(got))
	}
	for _, cmd := range got {
		if !strings.HasSuffix(cmd, "?") {
			t.Errorf("%q does not end in ?", cmd)
		}
	}
	if got[0] != "SI?" || got[len(got)-1] != "SSLEV ?" {
		t.Errorf("order = %q...%q, want SI?...SSLEV ?", got[0], got[len(got)-1])
	}
}

func TestStatusRequestCommandsIsCopy(t *testing.T) {
	cmds := StatusRequestCommands()
	cmds[0] = "XX?"
	if statusRequestCommands[0] != "SI?" {
		t.Error("StatusRequestCommands returned the shared slice")
	}
}

func TestZoneStatusRequestCommands(t *testing.T) {
	main := ZoneStatusRequestCommands(ZoneMain)
	if !slices.Equal(main, statusRequestCommands) {
		t.Errorf("main zone = %v, want full list", main)
	}

	want := []string{"Z2?", "Z2MU?", "Z2CS?", "Z2CV?", "Z2HPF?", "Z2QUICK ?"}
	if got := ZoneStatusRequestCommands(Zone2); !slices.Equal(got, want) {
		t.Errorf("zone2 = %v, want %v", got, want)
	}
	for _, cmd := range ZoneStatusRequestCommands(Zone3) {
		if !strings.HasPrefix(cmd, "Z3") {
			t.Errorf("zone3 query %q lacks Z3 tag", cmd)
		}
		if !slices.Contains(main, cmd) {
			t.Errorf("zone3 query %q missing from main list", cmd)
		}
	}
}

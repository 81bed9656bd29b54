package avr

import (
	"slices"
	"testing"
)

func newTestManager() (*Manager, *ZoneState, *ZoneState, *ZoneState) {
	main, z2, z3 := NewZoneState(), NewZoneState(), NewZoneState()
	return NewManager(ManagerOptions{Main: main, Zone2: z2, Zone3: z3}), main, z2, z3
}

func TestHandleCommandRouting(t *testing.T) {
	tests := []struct {
		command string
		zone    Zone
	}{
		{"PWON", ZoneMain},
		{"ZMON", ZoneMain},
		{"MV50", ZoneMain},
		{"Z2ON", Zone2},
		{"Z2TUNER", Zone2},
		{"Z3MUON", Zone3},
		{"Z350", Zone3},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			m, _, _, _ := newTestManager()
			zone, ok := m.HandleCommand(tt.command)
			if !ok {
				t.Fatalf("HandleCommand(%q) unhandled", tt.command)
			}
			if zone != tt.zone {
				t.Errorf("zone = %v, want %v", zone, tt.zone)
			}
			for _, z := range Zones() {
				pending := m.State(z).Pending()
				if z == tt.zone && pending != 1 {
					t.Errorf("%v pending = %d, want 1", z, pending)
				}
				if z != tt.zone && pending != 0 {
					t.Errorf("%v pending = %d, want 0", z, pending)
				}
			}
		})
	}
}

func TestHandleCommandMainPriority(t *testing.T) {
	m, main, z2, z3 := newTestManager()
	m.HandleCommand("PWON")

	v, ok := main.GetState(MainPower)
	if !ok {
		t.Fatal("MainPower not recorded in main zone")
	}
	checkValue(t, v, want{raw: "ON", text: stringPtr("ON")})
	if z2.IsUpdated() || z3.IsUpdated() {
		t.Error("secondary zone claimed a main zone command")
	}
}

func TestHandleCommandUnconfiguredZone(t *testing.T) {
	m := NewManager(ManagerOptions{Zone2: NewZoneState()})

	if _, ok := m.HandleCommand("Z3ON"); ok {
		t.Error("Z3ON handled with zone3 unconfigured")
	}
	if m.State(Zone3) != nil {
		t.Error("State(Zone3) should be nil when unconfigured")
	}
	if m.Configured(Zone3) {
		t.Error("Configured(Zone3) = true")
	}
	if got := m.ConfiguredZones(); !slices.Equal(got, []Zone{ZoneMain, Zone2}) {
		t.Errorf("ConfiguredZones() = %v", got)
	}
}

func TestHandleCommandMainOnly(t *testing.T) {
	m := NewManager(ManagerOptions{})

	if _, ok := m.HandleCommand("Z2ON"); ok {
		t.Error("Z2ON handled with no secondary zones")
	}
	if zone, ok := m.HandleCommand("SICD"); !ok || zone != ZoneMain {
		t.Errorf("HandleCommand(SICD) = %v, %v", zone, ok)
	}
	if m.State(ZoneMain) == nil {
		t.Error("main state should be created when not supplied")
	}
}

func TestSendUpdatesOrder(t *testing.T) {
	m, _, _, _ := newTestManager()
	m.HandleCommand("Z3ON")
	m.HandleCommand("Z2ON")
	m.HandleCommand("PWON")

	var sent []string
	m.SendUpdates(func(cmd string) { sent = append(sent, cmd) })

	want := []string{"PWON", "Z2ON", "Z3ON"}
	if !slices.Equal(sent, want) {
		t.Errorf("SendUpdates = %v, want %v", sent, want)
	}
	for _, z := range Zones() {
		if m.State(z).IsUpdated() {
			t.Errorf("%v still has pending updates", z)
		}
	}
}

func TestSendUpdatesDropsUnformattable(t *testing.T) {
	m, _, _, _ := newTestManager()
	m.HandleCommand("ECOAUTO")
	m.HandleCommand("MVMAX 80")
	m.HandleCommand("MV45")

	var sent []string
	m.SendUpdates(func(cmd string) { sent = append(sent, cmd) })

	if !slices.Equal(sent, []string{"MV45"}) {
		t.Errorf("SendUpdates = %v, want [MV45]", sent)
	}
}

func TestDrain(t *testing.T) {
	m, _, _, _ := newTestManager()
	m.HandleCommand("CVFL 50")
	m.HandleCommand("Z2CVFL 50")

	type drained struct {
		zone    Zone
		setting Setting
	}
	var got []drained
	m.Drain(func(z Zone, u Update) {
		got = append(got, drained{z, u.Setting})
	})

	want := []drained{{ZoneMain, ChannelVolume}, {Zone2, ChannelVolume}}
	if !slices.Equal(got, want) {
		t.Errorf("Drain = %v, want %v", got, want)
	}
}

func TestManagerParseDoesNotRecord(t *testing.T) {
	m, main, _, _ := newTestManager()

	zone, r, ok := m.Parse("MV505")
	if !ok || zone != ZoneMain || r.Setting != Volume {
		t.Fatalf("Parse(MV505) = %v %v %v", zone, r.Setting, ok)
	}
	if main.IsUpdated() {
		t.Error("Parse recorded state")
	}
	if _, _, ok := m.Parse("??"); ok {
		t.Error("Parse(??) handled")
	}
}

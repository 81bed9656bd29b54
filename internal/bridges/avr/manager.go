package avr

// ManagerOptions selects the zone states a Manager drives. Main may be nil,
// in which case a fresh state is created. A nil Zone2 or Zone3 leaves that
// zone unconfigured: its commands go unclaimed and it is never drained.
type ManagerOptions struct {
	Main  *ZoneState
	Zone2 *ZoneState
	Zone3 *ZoneState
}

// zoneSlot pairs a configured zone with its parser.
type zoneSlot struct {
	zone   Zone
	parser *Parser
}

// Manager routes inbound receiver lines to the parser of the zone that
// claims them and drains every zone's pending changes as outbound commands.
//
// Manager is not safe for concurrent use; callers serialise access.
type Manager struct {
	slots []zoneSlot
}

// NewManager builds a manager over the configured zones. Zones are tried
// and drained in main, zone2, zone3 order.
func NewManager(opts ManagerOptions) *Manager {
	main := opts.Main
	if main == nil {
		main = NewZoneState()
	}
	m := &Manager{
		slots: []zoneSlot{{zone: ZoneMain, parser: NewParser(MainGrammar(), main)}},
	}
	if opts.Zone2 != nil {
		m.slots = append(m.slots, zoneSlot{zone: Zone2, parser: NewParser(ZoneGrammar(Zone2.Tag()), opts.Zone2)})
	}
	if opts.Zone3 != nil {
		m.slots = append(m.slots, zoneSlot{zone: Zone3, parser: NewParser(ZoneGrammar(Zone3.Tag()), opts.Zone3)})
	}
	return m
}

// HandleCommand offers command to each configured zone in turn. The first
// parser to claim it records the change; the claiming zone is returned.
func (m *Manager) HandleCommand(command string) (Zone, bool) {
	for _, slot := range m.slots {
		if slot.parser.Handle(command) {
			return slot.zone, true
		}
	}
	return 0, false
}

// Parse resolves command the same way HandleCommand does without recording
// anything.
func (m *Manager) Parse(command string) (Zone, Result, bool) {
	for _, slot := range m.slots {
		if r, ok := slot.parser.Parse(command); ok {
			return slot.zone, r, true
		}
	}
	return 0, Result{}, false
}

// Drain pops every pending update, zone by zone, and passes it to fn.
func (m *Manager) Drain(fn func(zone Zone, u Update)) {
	for _, slot := range m.slots {
		state := slot.parser.State()
		for {
			u, ok := state.PopUpdated()
			if !ok {
				break
			}
			fn(slot.zone, u)
		}
	}
}

// SendUpdates drains every zone and calls send with each update that has
// an outbound command form. Updates without one are dropped.
func (m *Manager) SendUpdates(send func(command string)) {
	m.Drain(func(zone Zone, u Update) {
		if cmd, ok := FormatCommand(u.Setting, u.Value, zone); ok {
			send(cmd)
		}
	})
}

// State returns the state for zone, or nil when the zone is not configured.
func (m *Manager) State(zone Zone) *ZoneState {
	for _, slot := range m.slots {
		if slot.zone == zone {
			return slot.parser.State()
		}
	}
	return nil
}

// Configured reports whether zone has a parser.
func (m *Manager) Configured(zone Zone) bool {
	return m.State(zone) != nil
}

// ConfiguredZones returns the configured zones in routing order.
func (m *Manager) ConfiguredZones() []Zone {
	out := make([]Zone, len(m.slots))
	for i, slot := range m.slots {
		out[i] = slot.zone
	}
	return out
}

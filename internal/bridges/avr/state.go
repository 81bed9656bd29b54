package avr

import "maps"

// ZoneState remembers the last value seen for every setting in one zone and
// queues each real change until it is drained.
//
// Scalar settings change when Raw differs from the stored value. Keyed
// settings keep a per-key dictionary and change when the sub-value for the
// addressed key differs. Dictionaries only grow.
//
// ZoneState is not safe for concurrent use.
type ZoneState struct {
	values  map[Setting]Value
	dicts   map[Setting]map[string]string
	pending []Update
}

// NewZoneState returns an empty zone state.
func NewZoneState() *ZoneState {
	return &ZoneState{
		values: make(map[Setting]Value),
		dicts:  make(map[Setting]map[string]string),
	}
}

// UpdateState records v for setting if it is a change and reports whether
// it was stored and queued.
func (s *ZoneState) UpdateState(setting Setting, v Value) bool {
	if v.Key != nil {
		dict, ok := s.dicts[setting]
		if !ok {
			dict = make(map[string]string)
			s.dicts[setting] = dict
		}
		sub := v.ValueString()
		if prev, seen := dict[*v.Key]; seen && prev == sub {
			return false
		}
		dict[*v.Key] = sub
		v = v.Clone()
		v.Dictionary = maps.Clone(dict)
	} else {
		if prev, ok := s.values[setting]; ok && prev.Raw == v.Raw {
			return false
		}
		v = v.Clone()
	}

	s.values[setting] = v
	s.pending = append(s.pending, Update{Setting: setting, Value: v.Clone()})
	return true
}

// GetState returns the last value stored for setting.
func (s *ZoneState) GetState(setting Setting) (Value, bool) {
	v, ok := s.values[setting]
	if !ok {
		return Value{}, false
	}
	return v.Clone(), true
}

// Snapshot returns a copy of every stored value.
func (s *ZoneState) Snapshot() map[Setting]Value {
	out := make(map[Setting]Value, len(s.values))
	for k, v := range s.values {
		out[k] = v.Clone()
	}
	return out
}

// PopUpdated removes and returns the oldest pending update.
func (s *ZoneState) PopUpdated() (Update, bool) {
	if len(s.pending) == 0 {
		return Update{}, false
	}
	u := s.pending[0]
	s.pending[0] = Update{}
	s.pending = s.pending[1:]
	return u, true
}

// ClearUpdated discards every pending update.
func (s *ZoneState) ClearUpdated() {
	s.pending = nil
}

// IsUpdated reports whether any update is pending.
func (s *ZoneState) IsUpdated() bool {
	return len(s.pending) > 0
}

// Pending returns the number of queued updates.
func (s *ZoneState) Pending() int {
	return len(s.pending)
}

package avr

import (
	"maps"
	"strconv"
)

// halfStepDigits is the suffix length at which a half-step setting carries tenths.
const halfStepDigits = 3

// Value is the normalised form of one parsed command suffix.
//
// Raw is always the suffix text as matched. The optional fields are pointers
// so that "absent" stays distinct from "empty": a keyed command such as
// "CVC" has Key "C" and an empty (but present) Value.
type Value struct {
	Raw        string            `json:"raw"`
	Numeric    *float64          `json:"numeric,omitempty"`
	Decimal    bool              `json:"decimal,omitempty"`
	Text       *string           `json:"text,omitempty"`
	Key        *string           `json:"key,omitempty"`
	Value      *string           `json:"value,omitempty"`
	Dictionary map[string]string `json:"dictionary,omitempty"`
}

// Result is a successful parse: which setting the command addressed and the
// value it carried.
type Result struct {
	Setting Setting `json:"setting"`
	Value   Value   `json:"value"`
}

// Update is one pending state change waiting in a ZoneState queue.
type Update struct {
	Setting Setting
	Value   Value
}

// TextValue builds a scalar value whose raw form is s.
func TextValue(s string) Value {
	return Value{Raw: s, Text: &s}
}

// NumericValue builds a scalar numeric value. Half-step values (x.5) are
// flagged decimal so the formatter renders them in tenths.
func NumericValue(n float64) Value {
	v := Value{Numeric: &n}
	if n != float64(int64(n)) {
		v.Decimal = true
	}
	v.Raw = renderNumeric(None, v)
	return v
}

// KeyedValue builds a keyed value such as a channel level.
func KeyedValue(key, value string) Value {
	raw := key
	if value != "" {
		raw += " " + value
	}
	return Value{Raw: raw, Key: stringPtr(key), Value: stringPtr(value)}
}

// HasKey reports whether the value addresses a sub-key.
func (v Value) HasKey() bool {
	return v.Key != nil
}

// KeyString returns the sub-key or "".
func (v Value) KeyString() string {
	if v.Key == nil {
		return ""
	}
	return *v.Key
}

// ValueString returns the sub-value or "".
func (v Value) ValueString() string {
	if v.Value == nil {
		return ""
	}
	return *v.Value
}

// Clone returns a copy that shares no mutable state with v.
func (v Value) Clone() Value {
	out := v
	if v.Numeric != nil {
		n := *v.Numeric
		out.Numeric = &n
	}
	if v.Text != nil {
		s := *v.Text
		out.Text = &s
	}
	if v.Key != nil {
		s := *v.Key
		out.Key = &s
	}
	if v.Value != nil {
		s := *v.Value
		out.Value = &s
	}
	out.Dictionary = maps.Clone(v.Dictionary)
	return out
}

// formatResult normalises a freshly parsed value into its typed shape.
//
// When no numeric is set it tries the raw text and then, for keyed values,
// the sub-value. A value that ends up with neither a numeric nor a key is
// an enumerated string and gets Text = Raw.
func formatResult(r Result) Result {
	v := r.Value
	if v.Numeric == nil {
		digits := v.Raw
		n, err := strconv.Atoi(digits)
		if err != nil && v.Key != nil && v.Value != nil {
			digits = *v.Value
			n, err = strconv.Atoi(digits)
		}
		if err == nil {
			f := float64(n)
			if r.Setting.HalfStep() && len(digits) == halfStepDigits {
				f /= 10
				v.Decimal = true
			}
			v.Numeric = &f
		}
	}
	if v.Numeric == nil && v.Key == nil {
		text := v.Raw
		v.Text = &text
	}
	r.Value = v
	return r
}

func stringPtr(s string) *string {
	return &s
}

package avr

import "testing"

func TestMatcherStrategies(t *testing.T) {
	tests := []struct {
		name    string
		matcher Matcher
		suffix  string
		ok      bool
		raw     string
	}{
		{"passthrough", Passthrough(Source), "DVD", true, "DVD"},
		{"passthrough empty", Passthrough(Source), "", true, ""},
		{"delimited with value", Delimited(MaxVolume, "MAX"), "MAX 80", true, "80"},
		{"delimited without value", Delimited(MaxVolume, "MAX"), "MAX", true, ""},
		{"delimited wrong marker", Delimited(MaxVolume, "MAX"), "80", false, ""},
		{"list hit", List(VideoSelect, "ON", "OFF"), "OFF", true, "OFF"},
		{"list miss", List(VideoSelect, "ON", "OFF"), "DVD", false, ""},
		{"list is exact", List(VideoSelect, "ON", "OFF"), "ONE", false, ""},
		{"long prefix strips ending", LongPrefix(Standby, "BY"), "BY2H", true, "2H"},
		{"long prefix miss", LongPrefix(Standby, "BY"), "OFF", false, ""},
		{"custom nil func", Custom(Volume, nil), "50", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := tt.matcher.Match(tt.suffix)
			if ok != tt.ok {
				t.Fatalf("Match(%q) ok = %v, want %v", tt.suffix, ok, tt.ok)
			}
			if !ok {
				return
			}
			if r.Setting != tt.matcher.Setting {
				t.Errorf("Setting = %v, want %v", r.Setting, tt.matcher.Setting)
			}
			if r.Value.Raw != tt.raw {
				t.Errorf("Raw = %q, want %q", r.Value.Raw, tt.raw)
			}
		})
	}
}

func TestPrefixGrammarOrder(t *testing.T) {
	g := NewPrefixGrammar(
		Rule{"AB", List(Power, "ON")},
		Rule{"AB", Passthrough(Source)},
	)

	r, ok := g.Parse("ABON")
	if !ok || r.Setting != Power {
		t.Errorf("Parse(ABON) = %v, %v; want Power", r.Setting, ok)
	}
	r, ok = g.Parse("ABCD")
	if !ok || r.Setting != Source {
		t.Errorf("Parse(ABCD) = %v, %v; want Source", r.Setting, ok)
	}
	if got := len(g.Matchers("AB")); got != 2 {
		t.Errorf("Matchers(AB) = %d entries, want 2", got)
	}
}

func TestPrefixGrammarShortCommands(t *testing.T) {
	g := NewPrefixGrammar(Rule{"PW", Passthrough(MainPower)})

	for _, cmd := range []string{"", "P", "PW"} {
		if _, ok := g.Parse(cmd); ok {
			t.Errorf("Parse(%q) handled, want unhandled", cmd)
		}
	}
	if _, ok := g.Parse("XXON"); ok {
		t.Error("Parse(XXON) handled with no registered prefix")
	}
}

func TestTaggedGrammar(t *testing.T) {
	g := NewTaggedGrammar("Z2", List(Power, "ON"), Passthrough(Source))

	if g.Tag() != "Z2" {
		t.Errorf("Tag() = %q, want Z2", g.Tag())
	}
	if _, ok := g.Parse("Z3ON"); ok {
		t.Error("Parse(Z3ON) handled by Z2 grammar")
	}
	r, ok := g.Parse("Z2ON")
	if !ok || r.Setting != Power {
		t.Errorf("Parse(Z2ON) = %v, %v; want Power", r.Setting, ok)
	}
}

func TestParserHandle(t *testing.T) {
	state := NewZoneState()
	p := NewParser(MainGrammar(), state)

	if !p.Handle("PWON") {
		t.Fatal("Handle(PWON) = false, want true")
	}
	if p.Handle("Z2ON") {
		t.Error("Handle(Z2ON) = true on the main parser")
	}

	v, ok := state.GetState(MainPower)
	if !ok {
		t.Fatal("MainPower not recorded")
	}
	checkValue(t, v, want{raw: "ON", text: stringPtr("ON")})
	if state.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", state.Pending())
	}
}

func TestParserParseDoesNotRecord(t *testing.T) {
	state := NewZoneState()
	p := NewParser(MainGrammar(), state)

	if _, ok := p.Parse("PWON"); !ok {
		t.Fatal("Parse(PWON) unhandled")
	}
	if state.IsUpdated() {
		t.Error("Parse should not touch state")
	}
}

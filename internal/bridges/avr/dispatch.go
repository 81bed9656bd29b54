package avr

import "strings"

// prefixLen is the length of the grammar key at the start of a main-zone command.
const prefixLen = 2

// MatcherKind tags the strategy a Matcher applies to a command suffix.
type MatcherKind int

// Matcher strategies.
const (
	// MatchPassthrough always succeeds; raw is the whole suffix.
	MatchPassthrough MatcherKind = iota

	// MatchDelimited succeeds when the suffix starts with Marker; raw is the
	// text after the first space, or "" when there is none.
	MatchDelimited

	// MatchList succeeds when the suffix equals one of Allowed.
	MatchList

	// MatchLongPrefix succeeds when the suffix starts with Marker; raw is the
	// suffix with Marker stripped.
	MatchLongPrefix

	// MatchCustom delegates to Func for grammars the generic strategies
	// cannot express.
	MatchCustom
)

// ParseFunc is a bespoke grammar. It returns false when the suffix is not
// one it recognises.
type ParseFunc func(suffix string) (Result, bool)

// Matcher is one entry in a grammar: a tagged strategy and the data it needs.
type Matcher struct {
	Kind    MatcherKind
	Setting Setting
	Marker  string
	Allowed []string
	Func    ParseFunc
}

// Passthrough returns a matcher that accepts any suffix for setting.
func Passthrough(setting Setting) Matcher {
	return Matcher{Kind: MatchPassthrough, Setting: setting}
}

// Delimited returns a matcher for "<marker>[ <value>]" suffixes.
func Delimited(setting Setting, marker string) Matcher {
	return Matcher{Kind: MatchDelimited, Setting: setting, Marker: marker}
}

// List returns a matcher that accepts only the listed suffixes.
func List(setting Setting, allowed ...string) Matcher {
	return Matcher{Kind: MatchList, Setting: setting, Allowed: allowed}
}

// LongPrefix returns a matcher for suffixes that begin with a literal ending
// which must be stripped before the value.
func LongPrefix(setting Setting, ending string) Matcher {
	return Matcher{Kind: MatchLongPrefix, Setting: setting, Marker: ending}
}

// Custom wraps a bespoke grammar.
func Custom(setting Setting, fn ParseFunc) Matcher {
	return Matcher{Kind: MatchCustom, Setting: setting, Func: fn}
}

// Match applies the strategy to suffix.
func (m Matcher) Match(suffix string) (Result, bool) {
	switch m.Kind {
	case MatchPassthrough:
		return Result{Setting: m.Setting, Value: Value{Raw: suffix}}, true
	case MatchDelimited:
		if !strings.HasPrefix(suffix, m.Marker) {
			return Result{}, false
		}
		_, after, _ := strings.Cut(suffix, " ")
		return Result{Setting: m.Setting, Value: Value{Raw: after}}, true
	case MatchList:
		for _, allowed := range m.Allowed {
			if suffix == allowed {
				return Result{Setting: m.Setting, Value: Value{Raw: suffix}}, true
			}
		}
		return Result{}, false
	case MatchLongPrefix:
		if !strings.HasPrefix(suffix, m.Marker) {
			return Result{}, false
		}
		return Result{Setting: m.Setting, Value: Value{Raw: strings.TrimPrefix(suffix, m.Marker)}}, true
	case MatchCustom:
		if m.Func == nil {
			return Result{}, false
		}
		return m.Func(suffix)
	default:
		return Result{}, false
	}
}

// Rule binds a matcher to the two-character prefix it is registered under.
type Rule struct {
	Prefix  string
	Matcher Matcher
}

// Grammar is an immutable dispatch table.
//
// A grammar either keys matchers by a two-character prefix (the main zone)
// or is bound to a zone tag and runs one ordered chain over whatever follows
// the tag (secondary zones). Within a prefix or chain, matchers are tried in
// registration order and the first success wins.
type Grammar struct {
	tag    string
	prefix map[string][]Matcher
	chain  []Matcher
}

// NewPrefixGrammar builds a prefix-keyed grammar. Rules sharing a prefix are
// tried in the order given.
func NewPrefixGrammar(rules ...Rule) *Grammar {
	g := &Grammar{prefix: make(map[string][]Matcher)}
	for _, r := range rules {
		g.prefix[r.Prefix] = append(g.prefix[r.Prefix], r.Matcher)
	}
	return g
}

// NewTaggedGrammar builds a grammar that only accepts commands starting with
// tag and matches the remainder against chain in order.
func NewTaggedGrammar(tag string, chain ...Matcher) *Grammar {
	return &Grammar{tag: tag, chain: append([]Matcher(nil), chain...)}
}

// Tag returns the zone tag the grammar is bound to, or "" for a prefix grammar.
func (g *Grammar) Tag() string {
	return g.tag
}

// Matchers returns a copy of the matchers registered under prefix.
func (g *Grammar) Matchers(prefix string) []Matcher {
	return append([]Matcher(nil), g.prefix[prefix]...)
}

// Parse resolves command against the grammar. The result is normalised by
// formatResult before it is returned.
func (g *Grammar) Parse(command string) (Result, bool) {
	var candidates []Matcher
	var suffix string

	if g.tag != "" {
		if !strings.HasPrefix(command, g.tag) {
			return Result{}, false
		}
		candidates = g.chain
		suffix = command[len(g.tag):]
	} else {
		if len(command) <= prefixLen {
			return Result{}, false
		}
		candidates = g.prefix[command[:prefixLen]]
		suffix = command[prefixLen:]
	}

	for _, m := range candidates {
		if r, ok := m.Match(suffix); ok {
			return formatResult(r), true
		}
	}
	return Result{}, false
}

// Parser binds a grammar to the ZoneState it feeds.
type Parser struct {
	grammar *Grammar
	state   *ZoneState
}

// NewParser returns a parser that writes successful parses into state.
func NewParser(g *Grammar, state *ZoneState) *Parser {
	return &Parser{grammar: g, state: state}
}

// Parse resolves command without touching state.
func (p *Parser) Parse(command string) (Result, bool) {
	return p.grammar.Parse(command)
}

// Handle parses command and, on success, records the result in the bound
// state. It reports whether the command was claimed.
func (p *Parser) Handle(command string) bool {
	r, ok := p.grammar.Parse(command)
	if !ok {
		return false
	}
	if p.state != nil {
		p.state.UpdateState(r.Setting, r.Value)
	}
	return true
}

// State returns the bound zone state.
func (p *Parser) State() *ZoneState {
	return p.state
}

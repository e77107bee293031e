// Package grammar defines the production model consumed by the action
// compiler. Productions are built once when a grammar is loaded and are
// never modified afterwards.
package grammar

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	EmptyMarker = "%empty"
)

type Symbol struct {
	Name string

	// Optional name used by actions to refer to this symbol (expr[lhs]).
	Alias string
}

// ParseSymbol parses "name" or "name[alias]".
func ParseSymbol(text string) (Symbol, error) {
	open := strings.IndexByte(text, '[')
	if open < 0 {
		if text == "" {
			return Symbol{}, fmt.Errorf("empty symbol name")
		}
		if strings.ContainsAny(text, "[]") {
			return Symbol{}, fmt.Errorf("invalid symbol (%s)", text)
		}
		return Symbol{Name: text}, nil
	}

	if open == 0 || !strings.HasSuffix(text, "]") {
		return Symbol{}, fmt.Errorf("invalid symbol (%s)", text)
	}

	name := text[:open]
	alias := text[open+1 : len(text)-1]
	if !IsIdentifier(alias) {
		return Symbol{}, fmt.Errorf(
			"invalid alias (%s) for symbol %s",
			alias,
			name)
	}

	return Symbol{Name: name, Alias: alias}, nil
}

func (sym Symbol) String() string {
	if sym.Alias == "" {
		return sym.Name
	}
	return sym.Name + "[" + sym.Alias + "]"
}

type Production struct {
	// Position of the production within its grammar.
	Id int

	Lhs string
	Rhs []Symbol

	// Raw, author-written action source. May be empty.
	Action string
}

func (production *Production) IsEpsilon() bool {
	return len(production.Rhs) == 0
}

func (production *Production) Arity() int {
	return len(production.Rhs)
}

func (production *Production) String() string {
	if production == nil {
		return "<no production>"
	}

	builder := &strings.Builder{}
	builder.WriteString(production.Lhs)
	builder.WriteString(" ->")
	if production.IsEpsilon() {
		builder.WriteString(" ")
		builder.WriteString(EmptyMarker)
	}
	for _, sym := range production.Rhs {
		builder.WriteString(" ")
		builder.WriteString(sym.String())
	}
	return builder.String()
}

// NameBindings maps the names usable in $name / @name references to their
// 1-based RHS ordinals.
type NameBindings struct {
	ordinals  map[string]int
	ambiguous map[string]struct{}
}

func (bindings *NameBindings) bind(name string, ordinal int) {
	if !IsIdentifier(name) {
		return
	}

	prev, ok := bindings.ordinals[name]
	if ok && prev != ordinal {
		bindings.ambiguous[name] = struct{}{}
		return
	}
	bindings.ordinals[name] = ordinal
}

// Lookup returns the ordinal bound to name. ambiguous is true when name
// refers to more than one RHS position.
func (bindings *NameBindings) Lookup(name string) (
	ordinal int,
	ambiguous bool,
	found bool,
) {
	_, ambiguous = bindings.ambiguous[name]
	if ambiguous {
		return 0, true, true
	}

	ordinal, found = bindings.ordinals[name]
	return ordinal, false, found
}

func (bindings *NameBindings) Names() []string {
	names := make([]string, 0, len(bindings.ordinals))
	for name := range bindings.ordinals {
		_, ok := bindings.ambiguous[name]
		if !ok {
			names = append(names, name)
		}
	}
	return names
}

// NameBindings computes the production's name bindings. Aliases and symbol
// names bind to their position. A symbol name occurring more than once also
// binds name1, name2, ... in order of occurrence, while the bare name becomes
// ambiguous.
func (production *Production) NameBindings() *NameBindings {
	bindings := &NameBindings{
		ordinals:  map[string]int{},
		ambiguous: map[string]struct{}{},
	}

	counts := map[string]int{}
	for _, sym := range production.Rhs {
		counts[sym.Name]++
	}

	seen := map[string]int{}
	for idx, sym := range production.Rhs {
		ordinal := idx + 1
		if sym.Alias != "" {
			bindings.bind(sym.Alias, ordinal)
		}

		bindings.bind(sym.Name, ordinal)

		if counts[sym.Name] > 1 {
			seen[sym.Name]++
			bindings.bind(sym.Name+strconv.Itoa(seen[sym.Name]), ordinal)
		}
	}

	return bindings
}

type Grammar struct {
	Name string

	// Whether handlers receive per-symbol locations.
	CaptureLocations bool

	// Code evaluated once in the sandbox when a parse begins.
	ModuleInclude string

	Productions []*Production
}

// Add appends a new production and assigns its id.
func (grammar *Grammar) Add(
	lhs string,
	rhs []Symbol,
	action string,
) *Production {
	production := &Production{
		Id:     len(grammar.Productions),
		Lhs:    lhs,
		Rhs:    rhs,
		Action: action,
	}
	grammar.Productions = append(grammar.Productions, production)
	return production
}

func IsIdentifier(name string) bool {
	if name == "" {
		return false
	}

	for idx, char := range name {
		if char == '_' ||
			('a' <= char && char <= 'z') ||
			('A' <= char && char <= 'Z') {
			continue
		}

		if idx > 0 && '0' <= char && char <= '9' {
			continue
		}

		return false
	}

	return true
}

// Package sandbox holds the state shared by every action handler of a parse.
//
// A Sandbox is created per parser instance and mutated throughout the parse;
// it is not safe for concurrent use. Concurrent parses must each own their
// own sandbox.
package sandbox

import (
	"fmt"
	"sort"
	"unicode/utf16"
)

// Names under which the sandbox cells are visible to action code.
const (
	MatchedTextName   = "yytext"
	MatchedLengthName = "yyleng"
	UserDataName      = "yy"
	HooksName         = "yyparse"
	MergeLocationName = "yyloc"
	LastResultName    = "__"
	LastLocationName  = "__loc"
)

var (
	// Cells backed by Sandbox fields. They cannot be rebound.
	fixedCells = map[string]struct{}{
		MatchedTextName:   {},
		MatchedLengthName: {},
		UserDataName:      {},
		LastResultName:    {},
		LastLocationName:  {},
	}
)

// Hooks fire once per parse. Nil hooks are no-ops.
type Hooks struct {
	OnParseBegin func() `json:"onParseBegin"`
	OnParseEnd   func() `json:"onParseEnd"`
}

type Binding struct {
	Name  string
	Value any
}

type Sandbox struct {
	MatchedText   string
	MatchedLength int

	// Author-controlled data shared across all reductions of a parse. Arrays
	// and objects written by action code are stored as evaluator objects.
	UserData map[string]any

	Hooks *Hooks

	// Overrides MergeLocation when set (e.g. by binding yyloc).
	Merge func(*Location, *Location) *Location

	LastResult   any
	LastLocation *Location

	bindings map[string]int // name -> index into ordered
	ordered  []Binding

	// Incremented on every binding change.
	revision int
}

func New() *Sandbox {
	return &Sandbox{
		UserData: map[string]any{},
		Hooks:    &Hooks{},
		bindings: map[string]int{},
	}
}

// SetMatch records the text of the most recently matched token. The length
// is counted in UTF-16 code units so that yyleng == yytext.length.
func (sandbox *Sandbox) SetMatch(text string) {
	length := 0
	for _, char := range text {
		length += utf16.RuneLen(char)
	}

	sandbox.MatchedText = text
	sandbox.MatchedLength = length
}

func (sandbox *Sandbox) MergeLocation(start *Location, end *Location) *Location {
	if sandbox.Merge != nil {
		return sandbox.Merge(start, end)
	}
	return MergeLocation(start, end)
}

// Bind injects a named value visible to action code. A later binding with
// the same name overrides the earlier one. Binding yyloc to a
// func(*Location, *Location) *Location replaces the merge primitive; binding
// yyparse to a *Hooks replaces the hooks.
func (sandbox *Sandbox) Bind(name string, value any) error {
	if name == "" {
		return fmt.Errorf("empty binding name")
	}

	_, ok := fixedCells[name]
	if ok {
		return fmt.Errorf("cannot rebind sandbox cell %s", name)
	}

	switch name {
	case MergeLocationName:
		merge, ok := value.(func(*Location, *Location) *Location)
		if !ok {
			return fmt.Errorf(
				"%s must be a func(*Location, *Location) *Location, got %T",
				name,
				value)
		}
		sandbox.Merge = merge
		sandbox.revision++
		return nil
	case HooksName:
		hooks, ok := value.(*Hooks)
		if !ok || hooks == nil {
			return fmt.Errorf("%s must be a non-nil *Hooks, got %T", name, value)
		}
		sandbox.Hooks = hooks
		sandbox.revision++
		return nil
	}

	idx, ok := sandbox.bindings[name]
	if ok {
		sandbox.ordered[idx].Value = value
	} else {
		sandbox.bindings[name] = len(sandbox.ordered)
		sandbox.ordered = append(sandbox.ordered, Binding{name, value})
	}
	sandbox.revision++
	return nil
}

// SetBindings binds every entry of bindings, in name order.
func (sandbox *Sandbox) SetBindings(bindings map[string]any) error {
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		err := sandbox.Bind(name, bindings[name])
		if err != nil {
			return err
		}
	}
	return nil
}

// Bindings returns the injected bindings in first-bound order.
func (sandbox *Sandbox) Bindings() []Binding {
	result := make([]Binding, len(sandbox.ordered))
	copy(result, sandbox.ordered)
	return result
}

func (sandbox *Sandbox) Lookup(name string) (any, bool) {
	idx, ok := sandbox.bindings[name]
	if !ok {
		return nil, false
	}
	return sandbox.ordered[idx].Value, true
}

// Revision changes whenever a binding, the merge primitive or the hooks are
// replaced. Evaluators use it to resynchronize.
func (sandbox *Sandbox) Revision() int {
	return sandbox.revision
}

func (sandbox *Sandbox) Begin() {
	if sandbox.Hooks != nil && sandbox.Hooks.OnParseBegin != nil {
		sandbox.Hooks.OnParseBegin()
	}
}

func (sandbox *Sandbox) End() {
	if sandbox.Hooks != nil && sandbox.Hooks.OnParseEnd != nil {
		sandbox.Hooks.OnParseEnd()
	}
}

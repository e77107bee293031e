package grammar

import (
	"testing"

	"github.com/pattyshack/semact/internal/test"
)

func TestParseSymbol(t *testing.T) {
	samples := []struct {
		text  string
		name  string
		alias string
		fails bool
	}{
		{"expr", "expr", "", false},
		{"expr[lhs]", "expr", "lhs", false},
		{"'+'", "'+'", "", false},
		{"", "", "", true},
		{"[lhs]", "", "", true},
		{"expr[lhs", "", "", true},
		{"expr[1x]", "", "", true},
		{"ex]pr", "", "", true},
	}

	for _, s := range samples {
		sym, err := ParseSymbol(s.text)
		if s.fails {
			test.Assert(t, err != nil, "expecting error for %q", s.text)
			continue
		}

		test.ExpectNoError(t, err)
		test.ExpectString(t, s.name, sym.Name)
		test.ExpectString(t, s.alias, sym.Alias)
		test.ExpectString(t, s.text, sym.String())
	}
}

func TestProductionString(t *testing.T) {
	g := &Grammar{}
	p := g.Add("expr", []Symbol{{Name: "expr"}, {Name: "PLUS"}, {Name: "expr"}}, "")
	e := g.Add("opt", nil, "")

	test.ExpectString(t, "expr -> expr PLUS expr", p.String())
	test.ExpectString(t, "opt -> %empty", e.String())
	test.ExpectInt(t, 0, p.Id)
	test.ExpectInt(t, 1, e.Id)
	test.Assert(t, e.IsEpsilon(), "expecting epsilon")
	test.ExpectInt(t, 3, p.Arity())

	var missing *Production
	test.ExpectString(t, "<no production>", missing.String())
}

func TestNameBindings(t *testing.T) {
	p := &Production{
		Lhs: "assign",
		Rhs: []Symbol{
			{Name: "expr", Alias: "target"},
			{Name: "ASSIGN"},
			{Name: "expr"},
			{Name: "'+'"},
		},
	}

	bindings := p.NameBindings()

	samples := []struct {
		name      string
		ordinal   int
		ambiguous bool
		found     bool
	}{
		{"target", 1, false, true},
		{"ASSIGN", 2, false, true},
		{"expr", 0, true, true},
		{"expr1", 1, false, true},
		{"expr2", 3, false, true},
		{"expr3", 0, false, false},
		{"missing", 0, false, false},
	}

	for _, s := range samples {
		ordinal, ambiguous, found := bindings.Lookup(s.name)
		test.Assert(
			t,
			ordinal == s.ordinal && ambiguous == s.ambiguous && found == s.found,
			"%s: expecting (%d, %v, %v), got (%d, %v, %v)",
			s.name,
			s.ordinal, s.ambiguous, s.found,
			ordinal, ambiguous, found)
	}

	test.ExpectInt(t, 4, len(bindings.Names()))
}

func TestIsIdentifier(t *testing.T) {
	test.Assert(t, IsIdentifier("_a1"), "_a1")
	test.Assert(t, IsIdentifier("Expr"), "Expr")
	test.Assert(t, !IsIdentifier("1a"), "1a")
	test.Assert(t, !IsIdentifier(""), "empty")
	test.Assert(t, !IsIdentifier("a-b"), "a-b")
	test.Assert(t, !IsIdentifier("a$"), "a$")
}

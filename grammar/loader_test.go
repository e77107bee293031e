package grammar

import (
	"strings"
	"testing"

	"github.com/pattyshack/semact/internal/test"
)

const calcGrammar = `
name: calc
captureLocations: true
moduleInclude: |
  yy.reductions = 0;
productions:
  - lhs: expr
    rhs: expr PLUS expr
    action: "$$ = $1 + $3"
  - lhs: expr
    rhs: [term]
bnf:
  term:
    - NUMBER
    - ["LPAREN expr[inner] RPAREN", "$$ = $inner"]
    - ["", "$$ = 0"]
  opt:
    - ["%empty"]
`

func TestLoad(t *testing.T) {
	g, err := Load("calc.yaml", []byte(calcGrammar))
	test.ExpectNoError(t, err)

	test.ExpectString(t, "calc", g.Name)
	test.Assert(t, g.CaptureLocations, "expecting location capture")
	test.ExpectString(t, "yy.reductions = 0;\n", g.ModuleInclude)

	expected := []struct {
		str    string
		action string
	}{
		{"expr -> expr PLUS expr", "$$ = $1 + $3"},
		{"expr -> term", ""},
		{"term -> NUMBER", ""},
		{"term -> LPAREN expr[inner] RPAREN", "$$ = $inner"},
		{"term -> %empty", "$$ = 0"},
		{"opt -> %empty", ""},
	}

	test.ExpectInt(t, len(expected), len(g.Productions))
	for idx, e := range expected {
		p := g.Productions[idx]
		test.ExpectInt(t, idx, p.Id)
		test.ExpectString(t, e.str, p.String())
		test.ExpectString(t, e.action, p.Action)
	}

	test.ExpectString(t, "inner", g.Productions[3].Rhs[1].Alias)
}

func TestLoadErrors(t *testing.T) {
	samples := []struct {
		content string
		message string
	}{
		{"name: x\n", "no productions"},
		{"productions:\n  - rhs: a\n", "no lhs"},
		{"productions:\n  - lhs: a\n    rhs: {x: y}\n", "rhs must be"},
		{"productions:\n  - lhs: a\n    rhs: \"b[1]\"\n", "invalid alias"},
		{"bnf: [a, b]\n", "bnf must be a mapping"},
		{"bnf:\n  a: b\n", "must be a list"},
		{"bnf:\n  a:\n    - [b, c, d]\n", "alternative must be"},
		{"bnf:\n  a:\n    - [[b], c]\n", "expecting a string"},
		{"name: [\n", "bad.yaml"},
	}

	for _, s := range samples {
		_, err := Load("bad.yaml", []byte(s.content))
		test.Assert(t, err != nil, "expecting error for %q", s.content)
		test.Assert(
			t,
			strings.Contains(err.Error(), s.message),
			"expecting %q in %q",
			s.message,
			err.Error())
	}
}

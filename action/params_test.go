package action

import (
	"testing"

	"github.com/pattyshack/semact/grammar"
	"github.com/pattyshack/semact/internal/test"
)

func newProduction(lhs string, rhs ...string) *grammar.Production {
	symbols := make([]grammar.Symbol, 0, len(rhs))
	for _, text := range rhs {
		sym, err := grammar.ParseSymbol(text)
		if err != nil {
			panic(err)
		}
		symbols = append(symbols, sym)
	}
	return &grammar.Production{Lhs: lhs, Rhs: symbols}
}

func TestProductionParams(t *testing.T) {
	samples := []struct {
		rhs        []string
		locations  bool
		params     []string
		paramsList string
	}{
		{nil, false, []string{}, ""},
		{nil, true, []string{}, ""},
		{[]string{"a"}, false, []string{"_1"}, "_1"},
		{[]string{"a"}, true, []string{"_1", "_1loc"}, "_1, _1loc"},
		{
			[]string{"expr", "PLUS", "expr"},
			false,
			[]string{"_1", "_2", "_3"},
			"_1, _2, _3",
		},
		{
			[]string{"expr", "PLUS", "expr"},
			true,
			[]string{"_1", "_2", "_3", "_1loc", "_2loc", "_3loc"},
			"_1, _2, _3, _1loc, _2loc, _3loc",
		},
	}

	for _, s := range samples {
		p := newProduction("x", s.rhs...)
		params := ProductionParams(p, s.locations)
		test.ExpectStrings(t, s.params, params)
		test.ExpectString(t, s.paramsList, ProductionParamList(p, s.locations))
	}
}

func TestProductionParamsArity(t *testing.T) {
	for arity := 0; arity < 12; arity++ {
		rhs := make([]string, arity)
		for i := range rhs {
			rhs[i] = "sym"
		}
		p := newProduction("x", rhs...)

		test.ExpectInt(t, arity, len(ProductionParams(p, false)))
		test.ExpectInt(t, 2*arity, len(ProductionParams(p, true)))

		params := ProductionParams(p, true)
		for i := 0; i < arity; i++ {
			test.ExpectString(t, ValueParam(i+1), params[i])
			test.ExpectString(t, LocationParam(i+1), params[arity+i])
		}
	}
}

func TestPrologues(t *testing.T) {
	eps := newProduction("opt")
	single := newProduction("x", "a")
	triple := newProduction("x", "a", "b", "c")

	test.ExpectString(t, "__loc = null;", LocationPrologue(eps))
	test.ExpectString(t, "__loc = yyloc(_1loc, _1loc);", LocationPrologue(single))
	test.ExpectString(t, "__loc = yyloc(_1loc, _3loc);", LocationPrologue(triple))

	test.ExpectString(t, "__ = null;", ResultPrologue(eps))
	test.ExpectString(t, "__ = _1;", ResultPrologue(triple))
}

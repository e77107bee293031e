package reducer

import (
	"testing"

	"github.com/pattyshack/gt/parseutil"

	"github.com/pattyshack/semact/action"
	"github.com/pattyshack/semact/grammar"
	"github.com/pattyshack/semact/host"
	"github.com/pattyshack/semact/internal/test"
	"github.com/pattyshack/semact/sandbox"
)

const calcGrammar = `
name: calc
captureLocations: true
moduleInclude: |
  yy.reductions = 0;
  yyparse.onParseEnd = function () { yy.done = true; };
productions:
  - lhs: expr
    rhs: expr[left] PLUS expr[right]
    action: "yy.reductions++; $$ = $left + $right;"
  - lhs: expr
    rhs: NUMBER
    action: "yy.reductions++;"
  - lhs: name
    rhs: NAME
    action: "$$ = yytext.toUpperCase();"
  - lhs: opt
    rhs: "%empty"
  - lhs: broken
    rhs: NUMBER
    action: "$$ = $1.missing.field;"
`

func setup(t *testing.T, content string) (*grammar.Grammar, *Reducer) {
	g, err := grammar.Load("test.yaml", []byte(content))
	test.ExpectNoError(t, err)

	emitter := &parseutil.Emitter{}
	table := action.NewAssembler(g.CaptureLocations, nil).AssembleGrammar(
		g,
		emitter)
	test.Assert(t, table != nil, "failed to assemble: %v", emitter.Errors())

	h, err := host.NewJS(sandbox.New(), nil)
	test.ExpectNoError(t, err)
	h.ModuleInclude = g.ModuleInclude

	return g, New(table, h, nil)
}

func loc(start int, end int) *sandbox.Location {
	return &sandbox.Location{
		StartOffset: start,
		EndOffset:   end,
		StartLine:   1,
		EndLine:     1,
		StartColumn: start,
		EndColumn:   end,
	}
}

func TestParseSum(t *testing.T) {
	g, reducer := setup(t, calcGrammar)
	plus := g.Productions[0]
	number := g.Productions[1]

	// 1+2+3
	item, err := reducer.Parse(func(r *Reducer) error {
		r.Shift("1", 1, loc(0, 1))
		err := r.Reduce(number)
		if err != nil {
			return err
		}

		for idx, value := range []int{2, 3} {
			offset := 2*idx + 1
			r.Shift("+", "+", loc(offset, offset+1))
			r.Shift("x", value, loc(offset+1, offset+2))

			err = r.Reduce(number)
			if err != nil {
				return err
			}

			err = r.Reduce(plus)
			if err != nil {
				return err
			}
		}
		return nil
	})
	test.ExpectNoError(t, err)

	test.Expect(t, item.Value == int64(6), int64(6), item.Value)
	test.Assert(t, item.Loc != nil, "expecting location")
	test.ExpectInt(t, 0, item.Loc.StartOffset)
	test.ExpectInt(t, 5, item.Loc.EndOffset)

	userData := reducer.Host().Sandbox().UserData
	test.Expect(
		t,
		userData["reductions"] == int64(5),
		int64(5),
		userData["reductions"])
	test.Expect(t, userData["done"] == true, true, userData["done"])
}

func TestShiftSetsMatchedText(t *testing.T) {
	g, reducer := setup(t, calcGrammar)

	item, err := reducer.Parse(func(r *Reducer) error {
		r.Shift("foo", nil, loc(0, 3))
		return r.Reduce(g.Productions[2])
	})
	test.ExpectNoError(t, err)
	test.Expect(t, item.Value == "FOO", "FOO", item.Value)

	sb := reducer.Host().Sandbox()
	test.ExpectString(t, "foo", sb.MatchedText)
	test.ExpectInt(t, 3, sb.MatchedLength)
}

func TestReduceEpsilon(t *testing.T) {
	g, reducer := setup(t, calcGrammar)

	item, err := reducer.Parse(func(r *Reducer) error {
		return r.Reduce(g.Productions[3])
	})
	test.ExpectNoError(t, err)
	test.Expect(t, item.Value == nil, nil, item.Value)
	test.Assert(t, item.Loc == nil, "unexpected location %s", item.Loc)
}

func TestReduceErrors(t *testing.T) {
	g, reducer := setup(t, calcGrammar)

	err := reducer.Reduce(g.Productions[0])
	test.Assert(t, err != nil, "expecting stack underflow")

	foreign := &grammar.Production{Id: 1, Lhs: "expr"}
	err = reducer.Reduce(foreign)
	test.Assert(t, err != nil, "expecting unknown production")

	reducer.Shift("1", 1, loc(0, 1))
	err = reducer.Reduce(g.Productions[4])
	evalErr := &host.ActionEvaluationError{}
	test.ExpectError(t, err, &evalErr)
	test.Assert(
		t,
		evalErr.Production == g.Productions[4],
		"unexpected production")

	// failed reductions leave the stack untouched
	test.ExpectInt(t, 1, len(reducer.Stack()))
}

func TestParseFailureRunsEndHook(t *testing.T) {
	g, reducer := setup(t, calcGrammar)

	_, err := reducer.Parse(func(r *Reducer) error {
		r.Shift("1", 1, loc(0, 1))
		return r.Reduce(g.Productions[4])
	})
	evalErr := &host.ActionEvaluationError{}
	test.ExpectError(t, err, &evalErr)

	userData := reducer.Host().Sandbox().UserData
	test.Expect(t, userData["done"] == true, true, userData["done"])
}

func TestParseLeftovers(t *testing.T) {
	_, reducer := setup(t, calcGrammar)

	_, err := reducer.Parse(func(r *Reducer) error {
		r.Shift("1", 1, loc(0, 1))
		r.Shift("2", 2, loc(1, 2))
		return nil
	})
	test.Assert(t, err != nil, "expecting leftover error")
}

func TestWithoutLocations(t *testing.T) {
	g, reducer := setup(t, `
productions:
  - lhs: pair
    rhs: a b
    action: "$$ = $1 * $2;"
`)

	item, err := reducer.Parse(func(r *Reducer) error {
		r.Shift("a", 6, loc(0, 1))
		r.Shift("b", 7, loc(1, 2))

		for _, item := range r.Stack() {
			if item.Loc != nil {
				t.Errorf("unexpected location: %s", item.Loc)
			}
		}

		return r.Reduce(g.Productions[0])
	})
	test.ExpectNoError(t, err)
	test.Expect(t, item.Value == int64(42), int64(42), item.Value)
	test.Assert(t, item.Loc == nil, "unexpected location %s", item.Loc)
}

package action

import (
	"errors"
	"strings"
	"testing"

	"github.com/pattyshack/semact/internal/test"
)

func TestRewrite(t *testing.T) {
	p := newProduction("assign", "expr[target]", "ASSIGN", "expr", "SEMI")

	samples := []struct {
		code     string
		expected string
	}{
		{"$1 + $2", "_1 + _2"},
		{"@1", "_1loc"},
		{"$$ = $target", "__ = _1"},
		{"@$ = yyloc(@target, @SEMI)", "__loc = yyloc(_1loc, _4loc)"},
		{"$$ = $expr1 + $expr2 + $ASSIGN", "__ = _1 + _3 + _2"},
		{"$$ = '$1' + \"@2\" + `$3 ${$4}`", "__ = '$1' + \"@2\" + `$3 ${_4}`"},
		{"// $9 is ignored\n$$ = $1", "// $9 is ignored\n__ = _1"},
		{"/* @9 */ $$ = /$1/.test(yytext)", "/* @9 */ __ = /$1/.test(yytext)"},
		{"a$1 = $1", "a$1 = _1"},
		{"x = i++ / $1 / 2;", "x = i++ / _1 / 2;"},
		{"x = i-- / @2 / 2;", "x = i-- / _2loc / 2;"},
		{"x = a + +$1 - -$2", "x = a + +_1 - -_2"},
		{"", ""},
	}

	rewriter := NewRewriter(p, true)
	for _, s := range samples {
		got, err := rewriter.Rewrite(s.code)
		test.ExpectNoError(t, err)
		test.ExpectString(t, s.expected, got)
	}
}

func TestRewriteIsPure(t *testing.T) {
	p := newProduction("x", "a", "b")
	rewriter := NewRewriter(p, false)

	first, err := rewriter.Rewrite("$$ = [$1, $b];")
	test.ExpectNoError(t, err)
	second, err := rewriter.Rewrite("$$ = [$1, $b];")
	test.ExpectNoError(t, err)

	test.ExpectString(t, "__ = [_1, _2];", first)
	test.ExpectString(t, first, second)
}

func TestRewriteUnresolved(t *testing.T) {
	p := newProduction("expr", "expr", "PLUS", "expr")

	samples := []struct {
		code      string
		locations bool
		reference string
		reason    string
	}{
		{"$$ = $lhs", true, "$lhs", "no symbol with that name"},
		{"$$ = $expr", true, "$expr", "multiple symbols"},
		{"$$ = $4", true, "$4", "3 symbol(s)"},
		{"@$ = @1", false, "@1", "location tracking is disabled"},
		{"@$ = @PLUS", false, "@PLUS", "location tracking is disabled"},
	}

	for _, s := range samples {
		_, err := NewRewriter(p, s.locations).Rewrite(s.code)

		unresolved := &UnresolvedReferenceError{}
		test.ExpectError(t, err, &unresolved)
		test.ExpectString(t, s.reference, unresolved.Reference)
		test.Assert(
			t,
			strings.Contains(unresolved.Reason, s.reason),
			"expecting %q in %q",
			s.reason,
			unresolved.Reason)
		test.Assert(t, unresolved.Production == p, "wrong production")
		test.Assert(
			t,
			strings.Contains(err.Error(), "expr -> expr PLUS expr"),
			"error should name the production: %s",
			err)
	}
}

func TestRewriteMalformed(t *testing.T) {
	p := newProduction("x", "a")

	for _, code := range []string{"$$ = $", "$$ = $0", "$$ = @ 1", "$$ = $1x"} {
		_, err := NewRewriter(p, true).Rewrite(code)

		malformed := &MalformedReferenceError{}
		test.ExpectError(t, err, &malformed)
		test.Assert(t, malformed.Production == p, "wrong production")
	}
}

func TestRewriteReportsAllErrors(t *testing.T) {
	p := newProduction("x", "a")

	_, err := NewRewriter(p, true).Rewrite("$$ = $b + $ + $2")
	test.Assert(t, err != nil, "expecting error")

	joined, ok := err.(interface{ Unwrap() []error })
	test.Assert(t, ok, "expecting joined errors, got %T", err)
	test.ExpectInt(t, 3, len(joined.Unwrap()))
}

func TestRewriteSyntaxError(t *testing.T) {
	p := newProduction("x", "a")

	_, err := NewRewriter(p, true).Rewrite("$$ = \"$1")

	syntaxErr := &ActionSyntaxError{}
	test.ExpectError(t, err, &syntaxErr)
	test.Assert(
		t,
		strings.Contains(syntaxErr.Error(), "string literal not terminated"),
		"unexpected message: %s",
		syntaxErr)
	test.Assert(t, errors.Unwrap(syntaxErr) != nil, "expecting wrapped error")
}

func TestRewriteFree(t *testing.T) {
	got, err := RewriteFree("$$ = $7 + @2")
	test.ExpectNoError(t, err)
	test.ExpectString(t, "__ = _7 + _2loc", got)

	_, err = RewriteFree("$$ = $name")
	unresolved := &UnresolvedReferenceError{}
	test.ExpectError(t, err, &unresolved)
	test.Assert(t, unresolved.Production == nil, "expecting no production")
}

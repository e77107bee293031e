package action

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pattyshack/gt/parseutil"

	"github.com/pattyshack/semact/action/lexer"
	"github.com/pattyshack/semact/grammar"
)

// Rewriter rewrites symbol references in action code into handler parameter
// and sandbox cell names:
//
//	$$ -> __      @$ -> __loc
//	$N -> _N      @N -> _Nloc
//	$name -> _K   @name -> _Kloc  (K = ordinal bound to name)
//
// References inside string, template, comment and regexp literals are left
// untouched.
type Rewriter struct {
	production       *grammar.Production // nil for free-standing code
	bindings         *grammar.NameBindings
	captureLocations bool
}

func NewRewriter(
	production *grammar.Production,
	captureLocations bool,
) *Rewriter {
	return &Rewriter{
		production:       production,
		bindings:         production.NameBindings(),
		captureLocations: captureLocations,
	}
}

// RewriteFree rewrites code that is not attached to any production.
// Positional references are not range checked and named references cannot be
// resolved.
func RewriteFree(code string) (string, error) {
	rewriter := &Rewriter{captureLocations: true}
	return rewriter.Rewrite(code)
}

func (rewriter *Rewriter) sourceName() string {
	if rewriter.production == nil {
		return "<code>"
	}
	return fmt.Sprintf("<action %d>", rewriter.production.Id)
}

// Rewrite returns the rewritten code. All reference errors in code are
// reported, joined into a single error.
func (rewriter *Rewriter) Rewrite(code string) (string, error) {
	lex := lexer.NewLexerFromString(rewriter.sourceName(), code)
	emitter := &parseutil.Emitter{}

	builder := &strings.Builder{}
	for {
		token, err := lex.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			emitter.EmitErrors(
				&ActionSyntaxError{
					Production: rewriter.production,
					Err:        err,
				})
			break
		}

		if !token.SymbolId.IsReference() {
			builder.WriteString(token.Value)
			continue
		}

		replacement, err := rewriter.resolve(token)
		if err != nil {
			emitter.EmitErrors(err)
			continue
		}
		builder.WriteString(replacement)
	}

	if emitter.HasErrors() {
		return "", errors.Join(emitter.Errors()...)
	}

	return builder.String(), nil
}

func (rewriter *Rewriter) resolve(token *lexer.Token) (string, error) {
	switch token.SymbolId {
	case lexer.ResultRefToken:
		return ResultCell, nil
	case lexer.ResultLocationRefToken:
		return ResultLocationCell, nil
	case lexer.MalformedRefToken:
		return "", rewriter.malformed(token)
	}

	isLocation := token.SymbolId == lexer.LocationRefToken
	if isLocation && !rewriter.captureLocations {
		return "", rewriter.unresolved(token, "location tracking is disabled")
	}

	name := token.Value[1:]

	var ordinal int
	if '0' <= name[0] && name[0] <= '9' {
		value, err := strconv.Atoi(name)
		if err != nil || value < 1 {
			return "", rewriter.malformed(token)
		}

		if rewriter.production != nil && value > rewriter.production.Arity() {
			return "", rewriter.unresolved(
				token,
				fmt.Sprintf(
					"production has %d symbol(s)",
					rewriter.production.Arity()))
		}
		ordinal = value
	} else {
		if rewriter.production == nil {
			return "", rewriter.unresolved(token, "no production to resolve names")
		}

		value, ambiguous, found := rewriter.bindings.Lookup(name)
		if ambiguous {
			return "", rewriter.unresolved(
				token,
				"name refers to multiple symbols")
		}
		if !found {
			return "", rewriter.unresolved(token, "no symbol with that name")
		}
		ordinal = value
	}

	if isLocation {
		return LocationParam(ordinal), nil
	}
	return ValueParam(ordinal), nil
}

func (rewriter *Rewriter) unresolved(token *lexer.Token, reason string) error {
	return &UnresolvedReferenceError{
		Production: rewriter.production,
		Reference:  token.Value,
		Loc:        token.Loc(),
		Reason:     reason,
	}
}

func (rewriter *Rewriter) malformed(token *lexer.Token) error {
	return &MalformedReferenceError{
		Production: rewriter.production,
		Reference:  token.Value,
		Loc:        token.Loc(),
	}
}

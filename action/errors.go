package action

import (
	"fmt"

	"github.com/pattyshack/gt/parseutil"

	"github.com/pattyshack/semact/grammar"
)

// UnresolvedReferenceError reports a reference that does not name an RHS
// symbol of its production.
type UnresolvedReferenceError struct {
	Production *grammar.Production // nil for free-standing code
	Reference  string
	Loc        parseutil.Location
	Reason     string
}

func (err *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf(
		"%s: unresolved reference %s in action of (%s): %s",
		err.Loc,
		err.Reference,
		err.Production,
		err.Reason)
}

// MalformedReferenceError reports a '$' / '@' that does not start a valid
// reference.
type MalformedReferenceError struct {
	Production *grammar.Production
	Reference  string
	Loc        parseutil.Location
}

func (err *MalformedReferenceError) Error() string {
	return fmt.Sprintf(
		"%s: malformed reference %q in action of (%s)",
		err.Loc,
		err.Reference,
		err.Production)
}

// ActionSyntaxError reports an action body the lexer cannot tokenize, e.g.
// an unterminated string literal.
type ActionSyntaxError struct {
	Production *grammar.Production
	Err        error
}

func (err *ActionSyntaxError) Error() string {
	return fmt.Sprintf(
		"invalid action of (%s): %s",
		err.Production,
		err.Err)
}

func (err *ActionSyntaxError) Unwrap() error {
	return err.Err
}

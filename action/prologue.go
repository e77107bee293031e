package action

import (
	"github.com/pattyshack/semact/grammar"
)

// LocationPrologue returns the statement that sets the merged location cell.
// Symbol spans of a production are contiguous and ordered, so merging the
// first and last symbol locations covers the whole match.
func LocationPrologue(production *grammar.Production) string {
	if production.IsEpsilon() {
		return ResultLocationCell + " = null;"
	}

	return ResultLocationCell + " = " + MergeLocationFunc + "(" +
		LocationParam(1) + ", " +
		LocationParam(production.Arity()) + ");"
}

// ResultPrologue returns the statement that sets the default semantic value:
// the first RHS value, or null for epsilon productions.
func ResultPrologue(production *grammar.Production) string {
	if production.IsEpsilon() {
		return ResultCell + " = null;"
	}

	return ResultCell + " = " + ValueParam(1) + ";"
}

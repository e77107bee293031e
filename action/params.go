package action

import (
	"strconv"
	"strings"

	"github.com/pattyshack/semact/grammar"
)

const (
	ResultCell         = "__"
	ResultLocationCell = "__loc"
	MergeLocationFunc  = "yyloc"

	locationSuffix = "loc"
)

func ValueParam(ordinal int) string {
	return "_" + strconv.Itoa(ordinal)
}

func LocationParam(ordinal int) string {
	return ValueParam(ordinal) + locationSuffix
}

// ProductionParams returns the handler parameter names: _1.._N followed by
// _1loc.._Nloc when locations are captured. Epsilon productions have no
// parameters. Handlers destructure their arguments in exactly this order.
func ProductionParams(
	production *grammar.Production,
	captureLocations bool,
) []string {
	if production.IsEpsilon() {
		return []string{}
	}

	arity := production.Arity()
	size := arity
	if captureLocations {
		size *= 2
	}

	params := make([]string, 0, size)
	for i := 1; i <= arity; i++ {
		params = append(params, ValueParam(i))
	}

	if captureLocations {
		for i := 1; i <= arity; i++ {
			params = append(params, LocationParam(i))
		}
	}

	return params
}

func ProductionParamList(
	production *grammar.Production,
	captureLocations bool,
) string {
	return strings.Join(ProductionParams(production, captureLocations), ", ")
}

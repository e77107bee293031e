// Package reducer is the parse driver side of action execution: it keeps the
// semantic value and location stacks, and runs a production's handler on
// every reduction.
package reducer

import (
	"fmt"
	"log/slog"

	"github.com/pattyshack/semact/action"
	"github.com/pattyshack/semact/grammar"
	"github.com/pattyshack/semact/host"
	"github.com/pattyshack/semact/sandbox"
)

// Item is one stack entry. Loc is nil when locations are not tracked.
type Item struct {
	Value any
	Loc   *sandbox.Location
}

type Reducer struct {
	table  *action.HandlerTable
	host   *host.Host
	logger *slog.Logger

	stack []Item
}

// New returns a reducer for one parse at a time. Pass nil for logger to
// disable logging.
func New(
	table *action.HandlerTable,
	h *host.Host,
	logger *slog.Logger,
) *Reducer {
	return &Reducer{
		table:  table,
		host:   h,
		logger: logger,
	}
}

func (reducer *Reducer) Host() *host.Host {
	return reducer.host
}

// Shift pushes a matched token. text becomes yytext / yyleng.
func (reducer *Reducer) Shift(text string, value any, loc *sandbox.Location) {
	reducer.host.Sandbox().SetMatch(text)
	if !reducer.table.CaptureLocations {
		loc = nil
	}
	reducer.stack = append(reducer.stack, Item{Value: value, Loc: loc})
}

// Reduce pops the production's right hand side, runs its handler and pushes
// the result together with the handler's merged location.
func (reducer *Reducer) Reduce(production *grammar.Production) error {
	handler, err := reducer.table.Lookup(production)
	if err != nil {
		return err
	}

	arity := production.Arity()
	if len(reducer.stack) < arity {
		return fmt.Errorf(
			"cannot reduce (%s): stack has %d item(s)",
			production,
			len(reducer.stack))
	}

	items := reducer.stack[len(reducer.stack)-arity:]

	size := arity
	if reducer.table.CaptureLocations {
		size *= 2
	}

	args := make([]any, 0, size)
	for _, item := range items {
		args = append(args, item.Value)
	}
	if reducer.table.CaptureLocations {
		for _, item := range items {
			args = append(args, item.Loc)
		}
	}

	result, err := reducer.host.Invoke(handler, args)
	if err != nil {
		return err
	}

	var loc *sandbox.Location
	if reducer.table.CaptureLocations {
		loc = reducer.host.Sandbox().LastLocation
	}

	reducer.stack = append(
		reducer.stack[:len(reducer.stack)-arity],
		Item{Value: result, Loc: loc})

	if reducer.logger != nil {
		reducer.logger.Debug(
			"reduced",
			slog.Int("production", production.Id),
			slog.String("rule", production.String()),
			slog.Int("depth", len(reducer.stack)))
	}

	return nil
}

// Stack returns a copy of the current stack, bottom first.
func (reducer *Reducer) Stack() []Item {
	result := make([]Item, len(reducer.stack))
	copy(result, reducer.stack)
	return result
}

func (reducer *Reducer) Reset() {
	reducer.stack = nil
}

// Parse runs one parse: the module include and begin hook, then drive (which
// issues the shifts and reductions), then the end hook. The end hook runs
// even when drive fails. The result is the single item left on the stack.
func (reducer *Reducer) Parse(drive func(*Reducer) error) (*Item, error) {
	reducer.Reset()

	err := reducer.host.Begin()
	if err != nil {
		return nil, err
	}

	driveErr := drive(reducer)
	endErr := reducer.host.End()
	if driveErr != nil {
		return nil, driveErr
	}
	if endErr != nil {
		return nil, endErr
	}

	if len(reducer.stack) != 1 {
		return nil, fmt.Errorf(
			"parse ended with %d item(s) on the stack, expecting 1",
			len(reducer.stack))
	}

	item := reducer.stack[0]
	return &item, nil
}

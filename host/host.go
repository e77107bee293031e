// Package host submits assembled handlers to an evaluation backend, running
// them against a parse's sandbox.
package host

import (
	"fmt"

	"github.com/pattyshack/semact/action"
	"github.com/pattyshack/semact/grammar"
	"github.com/pattyshack/semact/sandbox"
)

// Evaluator is the evaluation backend. An evaluator is bound to one sandbox;
// the sandbox cells are shared with the evaluated code, not copied.
type Evaluator interface {
	// Evaluate calls the function (params) { body } with args and returns
	// the sandbox's result cell.
	Evaluate(params []string, body string, args []any) (any, error)

	// Run evaluates free-standing code and returns its completion value.
	Run(code string) (any, error)
}

// ActionEvaluationError reports a handler (or free-standing code) that failed
// to compile or run.
type ActionEvaluationError struct {
	Production *grammar.Production // nil for free-standing code
	Source     string
	Err        error
}

func (err *ActionEvaluationError) Error() string {
	if err.Production == nil {
		return fmt.Sprintf("failed to evaluate code: %s", err.Err)
	}
	return fmt.Sprintf(
		"failed to evaluate action of (%s): %s",
		err.Production,
		err.Err)
}

func (err *ActionEvaluationError) Unwrap() error {
	return err.Err
}

type Host struct {
	evaluator Evaluator
	sandbox   *sandbox.Sandbox

	// Code run once in the sandbox by Begin, before the begin hook.
	ModuleInclude string
}

func New(sb *sandbox.Sandbox, evaluator Evaluator) *Host {
	return &Host{
		evaluator: evaluator,
		sandbox:   sb,
	}
}

func (host *Host) Sandbox() *sandbox.Sandbox {
	return host.sandbox
}

// Invoke runs handler with args (values, then locations) and returns the new
// semantic value. The merged location is left in the sandbox's LastLocation.
func (host *Host) Invoke(handler *action.Handler, args []any) (any, error) {
	if len(args) != len(handler.Params) {
		return nil, &ActionEvaluationError{
			Production: handler.Production,
			Source:     handler.Source(),
			Err: fmt.Errorf(
				"expecting %d argument(s), got %d",
				len(handler.Params),
				len(args)),
		}
	}

	result, err := host.evaluator.Evaluate(handler.Params, handler.Body, args)
	if err != nil {
		return nil, &ActionEvaluationError{
			Production: handler.Production,
			Source:     handler.Source(),
			Err:        err,
		}
	}

	return result, nil
}

// Eval evaluates free-standing code in the sandbox, optionally rewriting
// $N / @N / $$ / @$ references first.
func (host *Host) Eval(code string, shouldRewrite bool) (any, error) {
	if shouldRewrite {
		rewritten, err := action.RewriteFree(code)
		if err != nil {
			return nil, err
		}
		code = rewritten
	}

	result, err := host.evaluator.Run(code)
	if err != nil {
		return nil, &ActionEvaluationError{Source: code, Err: err}
	}
	return result, nil
}

// Begin runs the module include code, then the begin hook.
func (host *Host) Begin() (err error) {
	if host.ModuleInclude != "" {
		_, err = host.Eval(host.ModuleInclude, false)
		if err != nil {
			return err
		}
	}

	return host.runHook(host.sandbox.Begin, "onParseBegin")
}

// End runs the end hook.
func (host *Host) End() error {
	return host.runHook(host.sandbox.End, "onParseEnd")
}

func (host *Host) runHook(hook func(), name string) (err error) {
	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}

		cause, ok := recovered.(error)
		if !ok {
			cause = fmt.Errorf("%v", recovered)
		}
		err = &ActionEvaluationError{
			Source: name,
			Err:    cause,
		}
	}()

	hook()
	return nil
}

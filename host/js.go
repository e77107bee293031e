package host

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/dop251/goja"

	"github.com/pattyshack/semact/sandbox"
)

var (
	// Compiled programs are immutable and may be run by any runtime, so they
	// are shared by all evaluators.
	programs = sync.Map{} // source string -> *goja.Program
)

func compileProgram(source string) (*goja.Program, bool, error) {
	cached, ok := programs.Load(source)
	if ok {
		return cached.(*goja.Program), true, nil
	}

	program, err := goja.Compile("handler", source, false)
	if err != nil {
		return nil, false, err
	}

	actual, _ := programs.LoadOrStore(source, program)
	return actual.(*goja.Program), false, nil
}

// JSEvaluator evaluates handlers with an embedded ECMAScript engine. The
// sandbox cells are installed as accessor properties of the global object,
// so reads and writes from action code go straight to the Sandbox fields.
//
// A JSEvaluator owns one runtime and is not safe for concurrent use.
type JSEvaluator struct {
	runtime *goja.Runtime
	sandbox *sandbox.Sandbox
	logger  *slog.Logger

	functions map[string]goja.Callable // keyed by function source

	revision int

	userData *goja.Object // dynamic object backing yy
}

var _ Evaluator = &JSEvaluator{}

// NewJSEvaluator returns an evaluator bound to sb. Pass nil for logger to
// disable logging.
func NewJSEvaluator(
	sb *sandbox.Sandbox,
	logger *slog.Logger,
) (
	*JSEvaluator,
	error,
) {
	runtime := goja.New()
	runtime.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	evaluator := &JSEvaluator{
		runtime:   runtime,
		sandbox:   sb,
		logger:    logger,
		functions: map[string]goja.Callable{},
	}

	err := evaluator.installCells()
	if err != nil {
		return nil, err
	}

	evaluator.installBindings()
	return evaluator, nil
}

// NewJS returns a host backed by a new JSEvaluator.
func NewJS(sb *sandbox.Sandbox, logger *slog.Logger) (*Host, error) {
	evaluator, err := NewJSEvaluator(sb, logger)
	if err != nil {
		return nil, err
	}
	return New(sb, evaluator), nil
}

func (evaluator *JSEvaluator) accessor(
	name string,
	get func() goja.Value,
	set func(goja.Value),
) error {
	runtime := evaluator.runtime
	getter := runtime.ToValue(
		func(call goja.FunctionCall) goja.Value {
			return get()
		})
	setter := runtime.ToValue(
		func(call goja.FunctionCall) goja.Value {
			set(call.Argument(0))
			return goja.Undefined()
		})

	return runtime.GlobalObject().DefineAccessorProperty(
		name,
		getter,
		setter,
		goja.FLAG_FALSE,
		goja.FLAG_TRUE)
}

func (evaluator *JSEvaluator) installCells() error {
	sb := evaluator.sandbox
	runtime := evaluator.runtime

	cells := []struct {
		name string
		get  func() goja.Value
		set  func(goja.Value)
	}{
		{
			name: sandbox.MatchedTextName,
			get:  func() goja.Value { return runtime.ToValue(sb.MatchedText) },
			set:  func(value goja.Value) { sb.MatchedText = value.String() },
		},
		{
			name: sandbox.MatchedLengthName,
			get:  func() goja.Value { return runtime.ToValue(sb.MatchedLength) },
			set: func(value goja.Value) {
				sb.MatchedLength = int(value.ToInteger())
			},
		},
		{
			name: sandbox.UserDataName,
			get:  evaluator.userDataValue,
			set:  evaluator.setUserData,
		},
		{
			name: sandbox.LastResultName,
			get:  func() goja.Value { return evaluator.toValue(sb.LastResult) },
			set: func(value goja.Value) {
				sb.LastResult = evaluator.fromValue(value)
			},
		},
		{
			name: sandbox.LastLocationName,
			get:  func() goja.Value { return evaluator.toValue(sb.LastLocation) },
			set: func(value goja.Value) {
				sb.LastLocation = evaluator.mustLocation(value)
			},
		},
	}

	for _, cell := range cells {
		err := evaluator.accessor(cell.name, cell.get, cell.set)
		if err != nil {
			return fmt.Errorf("failed to install %s: %w", cell.name, err)
		}
	}

	return nil
}

// userDataBag backs yy. Entries are read from and written to
// sandbox.UserData on every access; values are converted with
// toValue / fromValue so arrays and objects keep their identity.
type userDataBag struct {
	evaluator *JSEvaluator
}

var _ goja.DynamicObject = userDataBag{}

func (data userDataBag) entries() map[string]any {
	sb := data.evaluator.sandbox
	if sb.UserData == nil {
		sb.UserData = map[string]any{}
	}
	return sb.UserData
}

func (data userDataBag) Get(key string) goja.Value {
	value, ok := data.entries()[key]
	if !ok {
		return nil
	}
	return data.evaluator.toValue(value)
}

func (data userDataBag) Set(key string, value goja.Value) bool {
	data.entries()[key] = data.evaluator.fromValue(value)
	return true
}

func (data userDataBag) Has(key string) bool {
	_, ok := data.entries()[key]
	return ok
}

func (data userDataBag) Delete(key string) bool {
	delete(data.entries(), key)
	return true
}

func (data userDataBag) Keys() []string {
	entries := data.entries()
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (evaluator *JSEvaluator) userDataValue() goja.Value {
	if evaluator.userData == nil {
		evaluator.userData = evaluator.runtime.NewDynamicObject(
			userDataBag{evaluator: evaluator})
	}
	return evaluator.userData
}

// setUserData replaces the whole bag, e.g. yy = {count: 0}.
func (evaluator *JSEvaluator) setUserData(value goja.Value) {
	data := map[string]any{}
	if !goja.IsUndefined(value) && !goja.IsNull(value) {
		obj, ok := value.(*goja.Object)
		if !ok {
			panic(evaluator.runtime.NewTypeError(
				"yy must be an object, got %s", value))
		}

		for _, key := range obj.Keys() {
			data[key] = evaluator.fromValue(obj.Get(key))
		}
	}
	evaluator.sandbox.UserData = data
}

// installBindings (re)installs yyloc, yyparse and the injected bindings.
func (evaluator *JSEvaluator) installBindings() {
	sb := evaluator.sandbox
	runtime := evaluator.runtime

	_ = runtime.Set(
		sandbox.MergeLocationName,
		func(call goja.FunctionCall) goja.Value {
			start := evaluator.mustLocation(call.Argument(0))
			end := evaluator.mustLocation(call.Argument(1))
			return evaluator.toValue(sb.MergeLocation(start, end))
		})

	if sb.Hooks == nil {
		sb.Hooks = &sandbox.Hooks{}
	}
	_ = runtime.Set(sandbox.HooksName, sb.Hooks)

	for _, binding := range sb.Bindings() {
		_ = runtime.Set(binding.Name, binding.Value)
	}

	evaluator.revision = sb.Revision()
}

func (evaluator *JSEvaluator) sync() {
	if evaluator.revision != evaluator.sandbox.Revision() {
		evaluator.installBindings()
	}
}

func (evaluator *JSEvaluator) toValue(value any) goja.Value {
	switch v := value.(type) {
	case nil:
		return goja.Null()
	case *sandbox.Location:
		if v == nil {
			return goja.Null()
		}
	}
	return evaluator.runtime.ToValue(value)
}

// fromValue converts a value written by action code. Primitives become Go
// values; objects are kept as is so that later handlers see the same object.
func (evaluator *JSEvaluator) fromValue(value goja.Value) any {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil
	}

	obj, ok := value.(*goja.Object)
	if ok {
		switch exported := obj.Export().(type) {
		case *sandbox.Location:
			return exported
		}
		return obj
	}

	return value.Export()
}

func (evaluator *JSEvaluator) toLocation(
	value goja.Value,
) (
	*sandbox.Location,
	error,
) {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil, nil
	}

	switch exported := value.Export().(type) {
	case *sandbox.Location:
		return exported, nil
	case sandbox.Location:
		return &exported, nil
	}

	_, ok := value.(*goja.Object)
	if !ok {
		return nil, fmt.Errorf("expecting a location, got %s", value)
	}

	loc := &sandbox.Location{}
	err := evaluator.runtime.ExportTo(value, loc)
	if err != nil {
		return nil, err
	}
	return loc, nil
}

func (evaluator *JSEvaluator) mustLocation(value goja.Value) *sandbox.Location {
	loc, err := evaluator.toLocation(value)
	if err != nil {
		panic(evaluator.runtime.NewTypeError("%s", err.Error()))
	}
	return loc
}

func (evaluator *JSEvaluator) function(source string) (goja.Callable, error) {
	fn, ok := evaluator.functions[source]
	if ok {
		return fn, nil
	}

	program, cached, err := compileProgram(source)
	if err != nil {
		return nil, err
	}

	value, err := evaluator.runtime.RunProgram(program)
	if err != nil {
		return nil, err
	}

	fn, ok = goja.AssertFunction(value)
	if !ok {
		return nil, fmt.Errorf("handler source is not a function")
	}

	if evaluator.logger != nil {
		evaluator.logger.Debug(
			"loaded handler",
			slog.Bool("cachedProgram", cached),
			slog.Int("size", len(source)))
	}

	evaluator.functions[source] = fn
	return fn, nil
}

// guard converts panics escaping the runtime (e.g. from Go bindings) into
// errors.
func guard(run func() error) (err error) {
	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}

		switch value := recovered.(type) {
		case error:
			err = value
		case *goja.Object:
			err = fmt.Errorf("%s", value)
		default:
			err = fmt.Errorf("%v", value)
		}
	}()

	return run()
}

func (evaluator *JSEvaluator) Evaluate(
	params []string,
	body string,
	args []any,
) (
	any,
	error,
) {
	source := "(function (" + strings.Join(params, ", ") + ") {\n" +
		body + "\n})"

	err := guard(func() error {
		evaluator.sync()

		fn, err := evaluator.function(source)
		if err != nil {
			return err
		}

		values := make([]goja.Value, 0, len(args))
		for _, arg := range args {
			values = append(values, evaluator.toValue(arg))
		}

		_, err = fn(goja.Undefined(), values...)
		return err
	})
	if err != nil {
		return nil, err
	}

	return evaluator.sandbox.LastResult, nil
}

func (evaluator *JSEvaluator) Run(code string) (any, error) {
	var result any
	err := guard(func() error {
		evaluator.sync()

		program, err := goja.Compile("code", code, false)
		if err != nil {
			return err
		}

		value, err := evaluator.runtime.RunProgram(program)
		if err != nil {
			return err
		}

		result = evaluator.fromValue(value)
		return nil
	})
	return result, err
}

// Export converts a semantic value produced by a JSEvaluator into plain Go
// values (maps, slices, numbers, strings).
func Export(value any) any {
	obj, ok := value.(*goja.Object)
	if ok {
		return obj.Export()
	}
	return value
}

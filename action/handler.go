package action

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/pattyshack/semact/grammar"
)

// Handler is the compiled form of a production's action: a parameter list
// and a body. Handlers are immutable and hold no per-parse state.
type Handler struct {
	Production *grammar.Production

	Params []string

	// Result prologue, location prologue, then the rewritten action.
	Body string
}

func (handler *Handler) ParamList() string {
	return strings.Join(handler.Params, ", ")
}

// Source returns the handler as a function expression.
func (handler *Handler) Source() string {
	return "function (" + handler.ParamList() + ") {\n" + handler.Body + "\n}"
}

// Assembler builds handlers and caches them by production identity.
// Assembling is a pure function of the production and the location flag, so
// the cache may be shared by any number of parses.
type Assembler struct {
	captureLocations bool
	logger           *slog.Logger

	mutex    sync.Mutex
	handlers map[*grammar.Production]*Handler
}

// NewAssembler returns an assembler. Pass nil for logger to disable logging.
func NewAssembler(captureLocations bool, logger *slog.Logger) *Assembler {
	return &Assembler{
		captureLocations: captureLocations,
		logger:           logger,
		handlers:         map[*grammar.Production]*Handler{},
	}
}

func (assembler *Assembler) CaptureLocations() bool {
	return assembler.captureLocations
}

func (assembler *Assembler) cached(production *grammar.Production) *Handler {
	assembler.mutex.Lock()
	defer assembler.mutex.Unlock()

	return assembler.handlers[production]
}

// Assemble returns the production's handler, building it on first use.
// Reference errors are returned as UnresolvedReferenceError,
// MalformedReferenceError or ActionSyntaxError (possibly joined).
func (assembler *Assembler) Assemble(
	production *grammar.Production,
) (
	*Handler,
	error,
) {
	handler := assembler.cached(production)
	if handler != nil {
		return handler, nil
	}

	rewriter := NewRewriter(production, assembler.captureLocations)
	body, err := rewriter.Rewrite(production.Action)
	if err != nil {
		return nil, err
	}

	locationPrologue := ResultLocationCell + " = null;"
	if assembler.captureLocations {
		locationPrologue = LocationPrologue(production)
	}

	handler = &Handler{
		Production: production,
		Params:     ProductionParams(production, assembler.captureLocations),
		Body:       ResultPrologue(production) + "\n" + locationPrologue + "\n" + body,
	}

	assembler.mutex.Lock()
	defer assembler.mutex.Unlock()

	prev, ok := assembler.handlers[production]
	if ok { // assembled concurrently
		return prev, nil
	}
	assembler.handlers[production] = handler

	if assembler.logger != nil {
		assembler.logger.Debug(
			"assembled handler",
			slog.Int("production", production.Id),
			slog.String("rule", production.String()),
			slog.Int("params", len(handler.Params)))
	}

	return handler, nil
}

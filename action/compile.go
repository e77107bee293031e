package action

import (
	"fmt"
	"sync"

	"github.com/pattyshack/gt/parseutil"

	"github.com/pattyshack/semact/grammar"
)

// HandlerTable maps every production of a grammar to its handler.
type HandlerTable struct {
	Grammar *grammar.Grammar

	// Whether handlers take location arguments after the values.
	CaptureLocations bool

	handlers []*Handler // indexed by production id
}

func (table *HandlerTable) Lookup(
	production *grammar.Production,
) (
	*Handler,
	error,
) {
	if production == nil ||
		production.Id < 0 ||
		production.Id >= len(table.handlers) ||
		table.handlers[production.Id].Production != production {
		return nil, fmt.Errorf(
			"production (%s) does not belong to grammar %s",
			production,
			table.Grammar.Name)
	}

	return table.handlers[production.Id], nil
}

func (table *HandlerTable) Handlers() []*Handler {
	return table.handlers
}

// AssembleGrammar assembles the handlers of every production in parallel.
// Errors are emitted per production; the table is nil when any production
// failed, so a broken grammar is rejected before any input is parsed.
func (assembler *Assembler) AssembleGrammar(
	g *grammar.Grammar,
	emitter *parseutil.Emitter,
) *HandlerTable {
	if g.CaptureLocations != assembler.captureLocations {
		emitter.EmitErrors(
			fmt.Errorf(
				"grammar %s has captureLocations=%v, assembler expects %v",
				g.Name,
				g.CaptureLocations,
				assembler.captureLocations))
		return nil
	}

	for idx, production := range g.Productions {
		if production.Id != idx {
			emitter.EmitErrors(
				fmt.Errorf(
					"production (%s) has id %d, expecting %d",
					production,
					production.Id,
					idx))
			return nil
		}
	}

	handlers := make([]*Handler, len(g.Productions))

	productionEmitters := make([]*parseutil.Emitter, len(g.Productions))
	for idx := range productionEmitters {
		productionEmitters[idx] = &parseutil.Emitter{}
	}

	ParallelProcess(
		g.Productions,
		func(production *grammar.Production) {
			handler, err := assembler.Assemble(production)
			if err != nil {
				productionEmitters[production.Id].EmitErrors(err)
				return
			}
			handlers[production.Id] = handler
		})

	failed := false
	for _, productionEmitter := range productionEmitters {
		if productionEmitter.HasErrors() {
			failed = true
			emitter.EmitErrors(productionEmitter.Errors()...)
		}
	}

	if failed {
		return nil
	}

	return &HandlerTable{
		Grammar:          g,
		CaptureLocations: assembler.captureLocations,
		handlers:         handlers,
	}
}

func ParallelProcess[T any](
	list []T,
	process func(T),
) {
	wg := sync.WaitGroup{}
	wg.Add(len(list))
	for _, item := range list {
		go func(item T) {
			process(item)
			wg.Done()
		}(item)
	}
	wg.Wait()
}

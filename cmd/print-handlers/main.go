package main

import (
	"fmt"
	"os"

	"github.com/pattyshack/gt/parseutil"

	"github.com/pattyshack/semact/action"
	"github.com/pattyshack/semact/grammar"
)

func main() {
	for _, fileName := range os.Args[1:] {
		fmt.Println("=====================")
		fmt.Println("File name:", fileName)
		fmt.Println("---------------------")
		g, err := grammar.LoadFile(fileName)
		if err != nil {
			fmt.Println("Load error:", err)
			continue
		}

		emitter := &parseutil.Emitter{}
		table := action.NewAssembler(g.CaptureLocations, nil).AssembleGrammar(
			g,
			emitter)

		if table != nil {
			for _, handler := range table.Handlers() {
				fmt.Printf(
					"Production %d: %s\n",
					handler.Production.Id,
					handler.Production)
				fmt.Println(handler.Source())
			}
		}

		errs := emitter.Errors()
		if len(errs) > 0 {
			fmt.Println("---------------------------")
			fmt.Println("Found", len(errs), "errors:")
			fmt.Println("---------------------------")
			for idx, err := range errs {
				fmt.Printf("error %d: %s\n", idx, err)
			}
		}
	}
}

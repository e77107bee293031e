package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pattyshack/semact/action/lexer"
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

		for _, production := range g.Productions {
			fmt.Printf("Production %d: %s\n", production.Id, production)
			if production.Action == "" {
				continue
			}

			lex := lexer.NewLexerFromString(
				fmt.Sprintf("%s:%d", fileName, production.Id),
				production.Action)
			for {
				token, err := lex.Next()
				if err != nil {
					if err != io.EOF {
						fmt.Println("  Lex error:", err)
					}
					break
				}

				fmt.Printf("  %v %s %q\n", token.Loc(), token.SymbolId, token.Value)
			}
		}
	}
}

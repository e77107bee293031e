package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/peterh/liner"

	"github.com/pattyshack/gt/parseutil"

	"github.com/pattyshack/semact/action"
	"github.com/pattyshack/semact/grammar"
	"github.com/pattyshack/semact/host"
	"github.com/pattyshack/semact/reducer"
	"github.com/pattyshack/semact/sandbox"
)

const (
	historyFile = ".action_repl_history"
	promptMain  = "> "
	promptCont  = ". "

	usage = `Enter action code; $$, @$, $N and @N are rewritten unless -raw is set.
End a line with \ to continue it. Commands:
  :shift <text>     push a token whose value and yytext is <text>
  :reduce <id>      reduce production <id>
  :stack            print the value stack
  :handler <id>     print the handler of production <id>
  :reset            clear the stack
  :quit`
)

type session struct {
	host    *host.Host
	table   *action.HandlerTable
	reducer *reducer.Reducer

	raw    bool
	offset int
	column int
}

func main() {
	grammarFile := flag.String("grammar", "", "grammar description (yaml)")
	raw := flag.Bool("raw", false, "evaluate code without rewriting references")
	verbose := flag.Bool("v", false, "log debug records to stderr")
	flag.Parse()

	var logger *slog.Logger
	if *verbose {
		logger = slog.New(
			slog.NewTextHandler(
				os.Stderr,
				&slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	s, err := newSession(*grammarFile, *raw, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	os.Exit(s.loop())
}

func newSession(
	grammarFile string,
	raw bool,
	logger *slog.Logger,
) (
	*session,
	error,
) {
	h, err := host.NewJS(sandbox.New(), logger)
	if err != nil {
		return nil, err
	}

	s := &session{
		host: h,
		raw:  raw,
	}

	if grammarFile == "" {
		return s, nil
	}

	g, err := grammar.LoadFile(grammarFile)
	if err != nil {
		return nil, err
	}

	emitter := &parseutil.Emitter{}
	table := action.NewAssembler(g.CaptureLocations, logger).AssembleGrammar(
		g,
		emitter)
	if table == nil {
		return nil, errors.Join(emitter.Errors()...)
	}

	h.ModuleInclude = g.ModuleInclude
	err = h.Begin()
	if err != nil {
		return nil, err
	}

	s.table = table
	s.reducer = reducer.New(table, h, logger)
	return s, nil
}

func (s *session) loop() int {
	fmt.Println(usage)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		code, ok := readInput(ln)
		if !ok {
			fmt.Println()
			break
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			if s.command(trimmed) {
				break
			}
			continue
		}

		value, err := s.host.Eval(code, !s.raw)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		fmt.Printf("%v\n", host.Export(value))
	}

	if s.reducer != nil {
		err := s.host.End()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	return 0
}

func readInput(ln *liner.State) (string, bool) {
	builder := strings.Builder{}
	prompt := promptMain
	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if !strings.HasSuffix(line, "\\") {
			builder.WriteString(line)
			return builder.String(), true
		}

		builder.WriteString(strings.TrimSuffix(line, "\\"))
		builder.WriteByte('\n')
		prompt = promptCont
	}
}

// command runs a repl command and returns true when the session should end.
func (s *session) command(line string) bool {
	fields := strings.Fields(line)
	name := fields[0]
	args := fields[1:]

	if name == ":quit" {
		return true
	}

	if s.reducer == nil {
		fmt.Println("no grammar loaded (see -grammar)")
		return false
	}

	var err error
	switch name {
	case ":shift":
		if len(args) != 1 {
			err = fmt.Errorf("usage: :shift <text>")
			break
		}
		s.shift(args[0])
	case ":reduce":
		var production *grammar.Production
		production, err = s.production(args)
		if err != nil {
			break
		}
		err = s.reducer.Reduce(production)
		if err == nil {
			s.printStack()
		}
	case ":handler":
		var production *grammar.Production
		production, err = s.production(args)
		if err != nil {
			break
		}

		var handler *action.Handler
		handler, err = s.table.Lookup(production)
		if err == nil {
			fmt.Println(handler.Source())
		}
	case ":stack":
		s.printStack()
	case ":reset":
		s.reducer.Reset()
		s.offset = 0
		s.column = 0
	default:
		err = fmt.Errorf("unknown command %s", name)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return false
}

func (s *session) shift(text string) {
	length := utf8.RuneCountInString(text)
	s.reducer.Shift(
		text,
		text,
		&sandbox.Location{
			StartOffset: s.offset,
			EndOffset:   s.offset + len(text),
			StartLine:   1,
			EndLine:     1,
			StartColumn: s.column,
			EndColumn:   s.column + length,
		})
	s.offset += len(text)
	s.column += length
}

func (s *session) production(args []string) (*grammar.Production, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expecting a production id")
	}

	id, err := strconv.Atoi(args[0])
	productions := s.table.Grammar.Productions
	if err != nil || id < 0 || id >= len(productions) {
		return nil, fmt.Errorf("invalid production id (%s)", args[0])
	}
	return productions[id], nil
}

func (s *session) printStack() {
	for idx, item := range s.reducer.Stack() {
		fmt.Printf("%d: %v @ %s\n", idx, host.Export(item.Value), item.Loc)
	}
}

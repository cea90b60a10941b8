package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/nihei9/lalrgen/driver/parser"
	"github.com/nihei9/lalrgen/render"
	spec "github.com/nihei9/lalrgen/spec/grammar"
	"github.com/npillmayer/schuko/tracing"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "repl <compiled grammar file path>",
		Short: "Parse texts interactively",
		Long: `repl reads a line, parses it, and prints the parse tree. Lines starting with ':' are
commands:
  :json    toggle printing the tree in JSON
  :trace   cycle the trace level
  :quit    exit (or Ctrl-D)`,
		Example: `  lalrgen repl grammar.json`,
		Args:    cobra.ExactArgs(1),
		RunE:    runREPL,
	}
	rootCmd.AddCommand(cmd)
}

type repl struct {
	cgram  *spec.CompiledGrammar
	rl     *readline.Instance
	out    io.Writer
	asJSON bool
}

func runREPL(cmd *cobra.Command, args []string) error {
	cgram, err := render.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("Cannot read a compiled grammar: %w", err)
	}

	var history string
	if home, err := os.UserHomeDir(); err == nil {
		history = filepath.Join(home, ".lalrgen_history")
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      cgram.Name + "> ",
		HistoryFile: history,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	r := &repl{
		cgram: cgram,
		rl:    rl,
		out:   rl.Stdout(),
	}
	fmt.Fprintln(r.out, "Quit with :quit or Ctrl-D")
	return r.loop()
}

func (r *repl) loop() error {
	for {
		line, err := r.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			if quit := r.command(line[1:]); quit {
				return nil
			}
			continue
		}
		r.eval(line)
	}
}

func (r *repl) command(cmd string) bool {
	switch cmd {
	case "quit", "q":
		return true
	case "json":
		r.asJSON = !r.asJSON
		fmt.Fprintf(r.out, "json: %v\n", r.asJSON)
	case "trace":
		t := tracing.Select("lalrgen")
		next := (t.GetTraceLevel() + 1) % (tracing.LevelDebug + 1)
		t.SetTraceLevel(next)
		fmt.Fprintf(r.out, "trace: %v\n", next)
	default:
		fmt.Fprintf(r.out, "unknown command: %v\n", cmd)
	}
	return false
}

func (r *repl) eval(line string) {
	tree, synErrs, err := parseSource(r.cgram, strings.NewReader(line), true)
	if err != nil {
		fmt.Fprintln(r.out, err)
		return
	}
	for _, synErr := range synErrs {
		fmt.Fprintln(r.out, synErr)
	}
	if tree == nil {
		return
	}
	if r.asJSON {
		b, err := tree.MarshalJSON()
		if err != nil {
			fmt.Fprintln(r.out, err)
			return
		}
		fmt.Fprintln(r.out, string(b))
		return
	}
	parser.PrintTree(r.out, tree)
}

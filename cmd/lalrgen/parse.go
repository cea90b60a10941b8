package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/nihei9/lalrgen/driver/parser"
	"github.com/nihei9/lalrgen/render"
	spec "github.com/nihei9/lalrgen/spec/grammar"
	"github.com/spf13/cobra"
)

var parseFlags = struct {
	source    *string
	onlyParse *bool
	json      *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "parse <compiled grammar file path>",
		Short:   "Parse a text stream",
		Example: `  cat src | lalrgen parse grammar.json`,
		Args:    cobra.ExactArgs(1),
		RunE:    runParse,
	}
	parseFlags.source = cmd.Flags().StringP("source", "s", "", "source file path (default stdin)")
	parseFlags.onlyParse = cmd.Flags().Bool("only-parse", false, "when this option is enabled, the parser performs only parse and doesn't build a tree")
	parseFlags.json = cmd.Flags().Bool("json", false, "print the tree in JSON")
	rootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	if *parseFlags.onlyParse && *parseFlags.json {
		return fmt.Errorf("You cannot enable --only-parse and --json at the same time")
	}

	cgram, err := render.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("Cannot read a compiled grammar: %w", err)
	}

	var src io.Reader = os.Stdin
	if *parseFlags.source != "" {
		f, err := os.Open(*parseFlags.source)
		if err != nil {
			return fmt.Errorf("Cannot open the source file %s: %w", *parseFlags.source, err)
		}
		defer f.Close()
		src = f
	}

	tree, synErrs, err := parseSource(cgram, src, !*parseFlags.onlyParse)
	if err != nil {
		return err
	}
	for _, synErr := range synErrs {
		fmt.Fprintln(os.Stderr, synErr)
	}

	if tree == nil || len(synErrs) > 0 {
		return nil
	}
	if *parseFlags.json {
		b, err := json.Marshal(tree)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(b))
		return nil
	}
	parser.PrintTree(os.Stdout, tree)
	return nil
}

// parseSource parses a text and returns its concrete syntax tree, when buildTree is set, and the
// syntax errors the parser recovered from.
func parseSource(cgram *spec.CompiledGrammar, src io.Reader, buildTree bool) (*parser.Node, []*parser.SyntaxError, error) {
	gram := parser.NewGrammar(cgram)
	toks, err := parser.NewTokenStream(cgram, src)
	if err != nil {
		return nil, nil, err
	}

	var opts []parser.ParserOption
	var tb *parser.DefaultSyntaxTreeBuilder
	if buildTree {
		tb = parser.NewDefaultSyntaxTreeBuilder()
		opts = append(opts, parser.SemanticAction(parser.NewSyntaxTreeActionSet(gram, tb)))
	}
	p, err := parser.NewParser(toks, gram, opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := p.Parse(); err != nil {
		return nil, nil, err
	}

	if tb == nil {
		return nil, p.SyntaxErrors(), nil
	}
	return tb.Tree(), p.SyntaxErrors(), nil
}

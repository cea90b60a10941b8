package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	verr "github.com/nihei9/lalrgen/error"
	"github.com/nihei9/lalrgen/grammar"
	"github.com/nihei9/lalrgen/render"
	spec "github.com/nihei9/lalrgen/spec/grammar"
	"github.com/spf13/cobra"
)

var compileFlags = struct {
	output *string
	format *string
	class  *string
	dfa    *bool
	strict *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "compile",
		Short:   "Compile a grammar document into a parsing table",
		Example: `  lalrgen compile grammar.yaml -o grammar.json`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runCompile,
	}
	compileFlags.output = cmd.Flags().StringP("output", "o", "", "output file path (default stdout)")
	compileFlags.format = cmd.Flags().StringP("format", "f", "json", "output format: json or cbor")
	compileFlags.class = cmd.Flags().String("class", "", "class of the parsing table: lalr or slr (default from the settings file)")
	compileFlags.dfa = cmd.Flags().Bool("dfa", false, "compile the lexical specification into a DFA as well")
	compileFlags.strict = cmd.Flags().Bool("strict", false, "fail when a conflict is resolved without precedence or associativity")
	rootCmd.AddCommand(cmd)
}

func runCompile(cmd *cobra.Command, args []string) (retErr error) {
	var grmPath string
	sourceName := "stdin"
	if len(args) > 0 {
		grmPath = args[0]
		sourceName = grmPath
	}
	defer func() {
		if retErr == nil {
			return
		}
		var specErrs verr.SpecErrors
		if errors.As(retErr, &specErrs) {
			for _, err := range specErrs {
				err.FilePath = grmPath
				err.SourceName = sourceName
			}
			return
		}
		var specErr *verr.SpecError
		if errors.As(retErr, &specErr) {
			specErr.FilePath = grmPath
			specErr.SourceName = sourceName
		}
	}()

	var src io.Reader = os.Stdin
	if grmPath != "" {
		f, err := os.Open(grmPath)
		if err != nil {
			return fmt.Errorf("Cannot open the grammar file %s: %w", grmPath, err)
		}
		defer f.Close()
		src = f
	}

	gram, err := readGrammar(src)
	if err != nil {
		return err
	}

	class := cfg.Class
	if *compileFlags.class != "" {
		class = strings.ToLower(*compileFlags.class)
	}
	opts := []grammar.CompileOption{
		grammar.EnableReporting(),
		grammar.SpecifyClass(class),
	}
	if *compileFlags.dfa || cfg.Lexer.DFA {
		opts = append(opts, grammar.EnableDFALexer())
	}
	if *compileFlags.strict {
		opts = append(opts, grammar.DisallowDefaultResolution())
	}
	cgram, report, err := grammar.Compile(gram, opts...)
	if err != nil {
		return err
	}

	err = writeCompiledGrammarAndReport(cgram, report, *compileFlags.output, *compileFlags.format)
	if err != nil {
		return fmt.Errorf("Cannot write an output files: %w", err)
	}

	var defaultedCount int
	for _, c := range report.Conflicts {
		if c.IsDefaulted() {
			defaultedCount++
		}
	}
	if defaultedCount > 0 {
		fmt.Fprintf(os.Stderr, "%v conflicts were resolved by default; run `lalrgen describe` for details\n", defaultedCount)
	}

	return nil
}

// readGrammar reads a grammar document and builds the grammar. The lexer policy of the settings
// file applies when the document doesn't choose one.
func readGrammar(r io.Reader) (*grammar.Grammar, error) {
	gs, err := grammar.ParseDocument(r)
	if err != nil {
		return nil, err
	}
	cfg.ApplyLexerPolicy(gs.Lex)

	b := grammar.GrammarBuilder{
		Spec: gs,
	}
	return b.Build()
}

func readGrammarFile(path string) (*grammar.Grammar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Cannot open the grammar file %s: %w", path, err)
	}
	defer f.Close()
	return readGrammar(f)
}

// writeCompiledGrammarAndReport writes a compiled grammar and a report. This function selects one
// of the following output methods depending on how the path is specified.
//
//  1. When the path is a directory path, this function writes the compiled grammar and the report
//     to <path>/<grammar-name>.<format> and <path>/<grammar-name>-report.json files, respectively.
//  2. When the path is a file path or a non-existent path, the path names the compiled grammar, and
//     the report goes to <grammar-name>-report.json in the same directory.
//  3. When the path is an empty string, this function writes the compiled grammar to the stdout
//     and the report to <current-directory>/<grammar-name>-report.json.
func writeCompiledGrammarAndReport(cgram *spec.CompiledGrammar, report *spec.Report, path string, format string) error {
	var write func(io.Writer, *spec.CompiledGrammar) error
	switch format {
	case "json":
		write = render.JSON
	case "cbor":
		write = render.CBOR
	default:
		return fmt.Errorf("unknown format: %v", format)
	}

	cgramPath, reportPath, err := makeOutputFilePaths(cgram.Name, path, format)
	if err != nil {
		return err
	}

	{
		var cgramW io.Writer
		if cgramPath != "" {
			cgramFile, err := os.OpenFile(cgramPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
			if err != nil {
				return err
			}
			defer cgramFile.Close()
			cgramW = cgramFile
		} else {
			cgramW = os.Stdout
		}

		if err := write(cgramW, cgram); err != nil {
			return err
		}
		if format == "json" {
			fmt.Fprintln(cgramW)
		}
	}

	{
		reportFile, err := os.OpenFile(reportPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer reportFile.Close()

		b, err := json.Marshal(report)
		if err != nil {
			return err
		}
		fmt.Fprintf(reportFile, "%v\n", string(b))
	}

	return nil
}

func makeOutputFilePaths(gramName string, path string, format string) (string, string, error) {
	reportFileName := gramName + "-report.json"

	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", "", err
		}
		return "", filepath.Join(wd, reportFileName), nil
	}

	fi, err := os.Stat(path)
	if err != nil && !os.IsNotExist(err) {
		return "", "", err
	}
	if os.IsNotExist(err) || !fi.IsDir() {
		dir, _ := filepath.Split(path)
		return path, filepath.Join(dir, reportFileName), nil
	}

	return filepath.Join(path, gramName+"."+format), filepath.Join(path, reportFileName), nil
}

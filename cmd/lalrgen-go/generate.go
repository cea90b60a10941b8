package main

import (
	"fmt"
	"os"

	"github.com/nihei9/lalrgen/internal/config"
	"github.com/nihei9/lalrgen/render"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/spf13/cobra"
)

func Execute() error {
	err := generateCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}

var generateFlags = struct {
	config     *string
	convention *string
	name       *string
	output     *string
}{}

var generateCmd = &cobra.Command{
	Use:   "lalrgen-go <compiled grammar file path>",
	Short: "Generate Go source embedding a compiled grammar",
	Long: `lalrgen-go generates a Go source file that carries a compiled grammar and a function returning it.
The convention decides the package and the function:
  plain       package main with a main function parsing stdin
  anonymous   package <name>, func Grammar
  named       package <grammar name>, func <Name>
  namespaced  package <a>, func <B> for --name a.b`,
	Example:       `  lalrgen-go grammar.json --convention named --name Expr`,
	Args:          cobra.ExactArgs(1),
	RunE:          runGenerate,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	generateFlags.config = generateCmd.Flags().String("config", "", "settings file path (default ./"+config.DefaultFileName+" if it exists)")
	generateFlags.convention = generateCmd.Flags().StringP("convention", "c", "", "plain, anonymous, named, or namespaced (default from the settings file)")
	generateFlags.name = generateCmd.Flags().StringP("name", "n", "", "package, function, or qualified name depending on the convention")
	generateFlags.output = generateCmd.Flags().StringP("output", "o", "", "output file path (default <grammar name>_grammar.go)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(*generateFlags.config)
	if err != nil {
		return err
	}
	tracing.SetTraceSelector(tracing.SelectorForAdapter(gologadapter.GetAdapter()))
	tracing.Select("lalrgen").SetTraceLevel(cfg.TraceLevel())

	convName := cfg.Render.Convention
	if *generateFlags.convention != "" {
		convName = *generateFlags.convention
	}
	conv, err := render.ParseConvention(convName)
	if err != nil {
		return err
	}
	name := *generateFlags.name
	if name == "" && conv == render.ConventionAnonymous {
		name = cfg.Render.Package
	}

	cgram, err := render.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("Cannot read a compiled grammar: %w", err)
	}

	src, err := render.GoSource(cgram, conv, name)
	if err != nil {
		return fmt.Errorf("Failed to generate Go source: %w", err)
	}

	filePath := *generateFlags.output
	if filePath == "" {
		filePath = fmt.Sprintf("%v_grammar.go", cgram.Name)
	}
	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("Failed to create an output file: %v", err)
	}
	defer f.Close()

	_, err = f.Write(src)
	if err != nil {
		return fmt.Errorf("Failed to write Go source: %v", err)
	}
	return nil
}

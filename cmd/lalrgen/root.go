package main

import (
	"fmt"
	"os"

	"github.com/nihei9/lalrgen/internal/config"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/spf13/cobra"
)

var rootFlags = struct {
	config *string
	trace  *string
}{}

// cfg holds the settings loaded before any subcommand runs.
var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:   "lalrgen",
	Short: "Generate a portable LALR(1) parsing table from a grammar",
	Long: `lalrgen provides the following features:
- Compiles a grammar document into a parsing table and a lexical specification.
- Describes the automaton and the conflicts of a grammar.
- Parses and tests texts with a compiled grammar.
  These features are primarily aimed at debugging the grammar.`,
	PersistentPreRunE: setUp,
	SilenceErrors:     true,
	SilenceUsage:      true,
}

func init() {
	rootFlags.config = rootCmd.PersistentFlags().String("config", "", "settings file path (default ./"+config.DefaultFileName+" if it exists)")
	rootFlags.trace = rootCmd.PersistentFlags().String("trace", "", "trace level: Error, Info, or Debug (overrides the settings file)")
}

func setUp(cmd *cobra.Command, args []string) error {
	c, err := config.Load(*rootFlags.config)
	if err != nil {
		return err
	}
	if *rootFlags.trace != "" {
		c.Trace.Level = *rootFlags.trace
	}
	cfg = c

	tracing.SetTraceSelector(tracing.SelectorForAdapter(gologadapter.GetAdapter()))
	tracing.Select("lalrgen").SetTraceLevel(cfg.TraceLevel())
	return nil
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}

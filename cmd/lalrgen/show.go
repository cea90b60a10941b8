package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/nihei9/lalrgen/render"
	spec "github.com/nihei9/lalrgen/spec/grammar"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var showFlags = struct {
	summary *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "show <compiled grammar file path>",
		Short:   "Print the parsing table of a compiled grammar",
		Example: `  lalrgen show grammar.json`,
		Args:    cobra.ExactArgs(1),
		RunE:    runShow,
	}
	showFlags.summary = cmd.Flags().Bool("summary", false, "print only the sizes of the grammar")
	rootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	cgram, err := render.LoadFile(args[0])
	if err != nil {
		return fmt.Errorf("Cannot read a compiled grammar: %w", err)
	}
	if *showFlags.summary {
		writeSummary(os.Stdout, cgram)
		return nil
	}
	writeParsingTable(os.Stdout, cgram.ParsingTable)
	return nil
}

func writeSummary(w io.Writer, cgram *spec.CompiledGrammar) {
	tab := cgram.ParsingTable
	trappers := 0
	for _, t := range tab.ErrorTrapperStates {
		if t != 0 {
			trappers++
		}
	}
	lexer := "none"
	if cgram.Lexical != nil {
		lexer = "regex"
		if cgram.Lexical.DFA != nil {
			lexer = "regex, dfa"
		}
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ITEM", "VALUE"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk([][]string{
		{"name", cgram.Name},
		{"class", tab.Class},
		{"states", strconv.Itoa(tab.StateCount)},
		{"terminals", strconv.Itoa(tab.TerminalCount - 1)},
		{"non-terminals", strconv.Itoa(tab.NonTerminalCount - 1)},
		{"productions", strconv.Itoa(len(tab.LHSSymbols))},
		{"error trapper states", strconv.Itoa(trappers)},
		{"lexer", lexer},
	})
	table.Render()
}

// writeParsingTable prints one row per state. An ACTION cell reads sN (shift to state N), rN
// (reduce production N), or acc; a GOTO cell is the next state.
func writeParsingTable(w io.Writer, tab *spec.ParsingTable) {
	header := []string{"STATE"}
	header = append(header, tab.Terminals[1:]...)
	// Non-terminal 1 is the augmented start symbol, which no state goes to.
	header = append(header, tab.NonTerminals[2:]...)

	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for state := 0; state < tab.StateCount; state++ {
		row := []string{strconv.Itoa(state)}
		for term := 1; term < tab.TerminalCount; term++ {
			row = append(row, actionCell(tab, tab.Action[state*tab.TerminalCount+term]))
		}
		for nonTerm := 2; nonTerm < tab.NonTerminalCount; nonTerm++ {
			cell := ""
			if next := tab.GoTo[state*tab.NonTerminalCount+nonTerm]; next != 0 {
				cell = strconv.Itoa(next)
			}
			row = append(row, cell)
		}
		table.Append(row)
	}
	table.Render()
}

func actionCell(tab *spec.ParsingTable, act int) string {
	switch {
	case act < 0:
		return fmt.Sprintf("s%v", -act)
	case act > 0:
		if act-1 == tab.StartProduction {
			return "acc"
		}
		return fmt.Sprintf("r%v", act-1)
	}
	return ""
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nihei9/lalrgen/grammar"
	"github.com/nihei9/lalrgen/tester"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var testFlags = struct {
	inputs *[]string
}{}

func init() {
	cmd := &cobra.Command{
		Use:   "test <grammar file path> [<test file path>|<test directory path>]",
		Short: "Test a grammar",
		Example: `  lalrgen test grammar.yaml test
  lalrgen test grammar.yaml -i '1+2' -i '1+'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runTest,
	}
	testFlags.inputs = cmd.Flags().StringArrayP("input", "i", nil, "an input to check for acceptance (repeatable)")
	rootCmd.AddCommand(cmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	if len(args) < 2 && len(*testFlags.inputs) == 0 {
		return errors.New("Specify test cases or inputs")
	}

	g, err := readGrammarFile(args[0])
	if err != nil {
		return fmt.Errorf("Cannot read a grammar: %w", err)
	}
	cg, _, err := grammar.Compile(g, grammar.SpecifyClass(cfg.Class))
	if err != nil {
		return fmt.Errorf("Cannot compile a grammar: %w", err)
	}

	testFailed := false

	if len(args) == 2 {
		cs := tester.ListTestCases(args[1])
		errOccurred := false
		for _, c := range cs {
			if c.Error != nil {
				fmt.Fprintf(os.Stderr, "Failed to read a test case or a directory: %v\n%v\n", c.FilePath, c.Error)
				errOccurred = true
			}
		}
		if errOccurred {
			return errors.New("Cannot run test")
		}

		t := &tester.Tester{
			Grammar: cg,
			Cases:   cs,
		}
		for _, r := range t.Run() {
			fmt.Fprintln(os.Stdout, r)
			if r.Error != nil {
				testFailed = true
			}
		}
	}

	if len(*testFlags.inputs) > 0 {
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"INPUT", "VERDICT", "REASON"})
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetAutoWrapText(false)
		for _, v := range tester.CheckInputs(cg, *testFlags.inputs) {
			verdict := "accept"
			reason := ""
			if !v.Accepted {
				verdict = "reject"
				reason = v.Err.Error()
			}
			table.Append([]string{fmt.Sprintf("%q", v.Input), verdict, reason})
		}
		table.Render()
	}

	if testFailed {
		return errors.New("Test failed")
	}
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	spec "github.com/nihei9/lalrgen/spec/grammar"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:     "describe <report file path>",
		Short:   "Print a report in a readable format",
		Example: `  lalrgen describe grammar-report.json`,
		Args:    cobra.ExactArgs(1),
		RunE:    runDescribe,
	}
	rootCmd.AddCommand(cmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	report, err := readReport(args[0])
	if err != nil {
		return err
	}
	return writeReport(os.Stdout, report)
}

func readReport(path string) (*spec.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Cannot open the report %s: %w", path, err)
	}
	defer f.Close()

	d, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	report := &spec.Report{}
	err = json.Unmarshal(d, report)
	if err != nil {
		return nil, err
	}

	return report, nil
}

const reportTemplate = `# Class

{{ .Class }}

# Conflicts

{{ printConflictSummary . }}

# Terminals

{{ range slice .Terminals 1 -}}
{{ printTerminal . }}
{{ end }}
# Non-terminals

{{ range slice .NonTerminals 1 -}}
{{ printNonTerminal . }}
{{ end }}
# Productions

{{ range .Productions -}}
{{ printProduction . }}
{{ end }}
# States
{{ range .States }}
## State {{ .Number }}

{{ range .Kernel -}}
{{ printItem . }}
{{ end }}
{{ range .Shift -}}
{{ printShift . }}
{{ end -}}
{{ range .Reduce -}}
{{ printReduce . }}
{{ end -}}
{{ if .Accept -}}
accept      on $end
{{ end -}}
{{ range .GoTo -}}
{{ printGoTo . }}
{{ end }}
{{ range .Conflicts -}}
{{ printConflict . }}
{{ end -}}
{{ end }}`

func writeReport(w io.Writer, report *spec.Report) error {
	termName := func(sym int) string {
		return report.Terminals[sym].Name
	}

	nonTermName := func(sym int) string {
		return report.NonTerminals[sym].Name
	}

	symbolName := func(sym int) string {
		if sym > 0 {
			return termName(sym)
		}
		return nonTermName(sym * -1)
	}

	precAndAssoc := func(prec int, assoc string) string {
		p := " -"
		if prec != 0 {
			p = fmt.Sprintf("%2v", prec)
		}
		if assoc == "" {
			assoc = "-"
		}
		return fmt.Sprintf("%v %v", p, assoc)
	}

	printAction := func(act *spec.Action) string {
		if act == nil {
			return "none"
		}
		switch act.Type {
		case spec.ActionShift:
			return fmt.Sprintf("shift %v", act.State)
		case spec.ActionReduce:
			return fmt.Sprintf("reduce %v", act.Production)
		}
		return act.Type
	}

	fns := template.FuncMap{
		"printConflictSummary": func(report *spec.Report) string {
			var defaulted int
			for _, c := range report.Conflicts {
				if c.IsDefaulted() {
					defaulted++
				}
			}

			count := len(report.Conflicts)
			switch {
			case count == 1:
				return fmt.Sprintf("1 conflict was detected; %v resolved by default.", defaulted)
			case count > 1:
				return fmt.Sprintf("%v conflicts were detected; %v resolved by default.", count, defaulted)
			}
			return "No conflict was detected."
		},
		"printTerminal": func(term *spec.Terminal) string {
			return fmt.Sprintf("%4v %v %v", term.Number, precAndAssoc(term.Precedence, term.Associativity), term.Name)
		},
		"printNonTerminal": func(nonTerm *spec.NonTerminal) string {
			nullable := ""
			if nonTerm.Nullable {
				nullable = " (nullable)"
			}
			return fmt.Sprintf("%4v %v%v\n       FIRST:  %v\n       FOLLOW: %v",
				nonTerm.Number, nonTerm.Name, nullable, strings.Join(nonTerm.First, " "), strings.Join(nonTerm.Follow, " "))
		},
		"printProduction": func(prod *spec.Production) string {
			var b strings.Builder
			fmt.Fprintf(&b, "%v →", nonTermName(prod.LHS))
			if len(prod.RHS) > 0 {
				for _, e := range prod.RHS {
					fmt.Fprintf(&b, " %v", symbolName(e))
				}
			} else {
				fmt.Fprintf(&b, " ε")
			}
			if prod.Action != "" {
				fmt.Fprintf(&b, "  { %v }", strings.TrimSpace(prod.Action))
			}

			return fmt.Sprintf("%4v %v %v", prod.Number, precAndAssoc(prod.Precedence, prod.Associativity), b.String())
		},
		"printItem": func(item *spec.Item) string {
			prod := report.Productions[item.Production]

			var b strings.Builder
			fmt.Fprintf(&b, "%v →", nonTermName(prod.LHS))
			for i, e := range prod.RHS {
				if i == item.Dot {
					fmt.Fprintf(&b, " ・")
				}
				fmt.Fprintf(&b, " %v", symbolName(e))
			}
			if item.Dot >= len(prod.RHS) {
				fmt.Fprintf(&b, " ・")
			}

			return fmt.Sprintf("%4v %v", prod.Number, b.String())
		},
		"printShift": func(tran *spec.Transition) string {
			return fmt.Sprintf("shift  %4v on %v", tran.State, termName(tran.Symbol))
		},
		"printReduce": func(reduce *spec.Reduce) string {
			names := make([]string, len(reduce.LookAhead))
			for i, a := range reduce.LookAhead {
				names[i] = termName(a)
			}
			return fmt.Sprintf("reduce %4v on %v", reduce.Production, strings.Join(names, ", "))
		},
		"printGoTo": func(tran *spec.Transition) string {
			return fmt.Sprintf("goto   %4v on %v", tran.State, nonTermName(tran.Symbol))
		},
		"printConflict": func(c *spec.Conflict) string {
			return fmt.Sprintf("%v conflict on %v: %v adopted over %v (resolved by %v)",
				c.Kind, c.SymbolName, printAction(c.Chosen), printAction(c.Discarded), c.ResolvedBy)
		},
	}

	tmpl, err := template.New("").Funcs(fns).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, report)
}

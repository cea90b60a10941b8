package grammar

import (
	"fmt"
	"sort"

	spec "github.com/nihei9/lalrgen/spec/grammar"
)

func (b *lrTableBuilder) genReport(tab *ParsingTable, gram *Grammar, first *firstSet, follow *followSet, class string) (*spec.Report, error) {
	var terms []*spec.Terminal
	{
		termSyms := b.symTab.TerminalSymbols()
		terms = make([]*spec.Terminal, len(termSyms)+1)

		for _, sym := range termSyms {
			term := &spec.Terminal{
				Number: sym.Num().Int(),
				Name:   b.symbolName(sym),
			}

			prec := b.precAndAssoc.terminalPrecedence(sym.Num())
			if prec != precNil {
				term.Precedence = prec
			}
			term.Associativity = string(b.precAndAssoc.terminalAssociativity(sym.Num()))

			terms[sym.Num()] = term
		}
	}

	var nonTerms []*spec.NonTerminal
	{
		nonTermSyms := b.symTab.NonTerminalSymbols()
		nonTerms = make([]*spec.NonTerminal, len(nonTermSyms)+1)
		for _, sym := range nonTermSyms {
			nonTerm := &spec.NonTerminal{
				Number:   sym.Num().Int(),
				Name:     b.symbolName(sym),
				Nullable: first.nullable(sym),
				First:    []string{},
				Follow:   []string{},
			}
			if e := first.findBySymbol(sym); e != nil {
				nonTerm.First = b.terminalNames(e.symbols)
			}
			if e, err := follow.find(sym); err == nil {
				nonTerm.Follow = b.terminalNames(e.symbols)
			}

			nonTerms[sym.Num()] = nonTerm
		}
	}

	var prods []*spec.Production
	{
		ps := gram.productionSet.getAllProductions()
		prods = make([]*spec.Production, len(ps))
		for _, p := range ps {
			rhs := make([]int, len(p.rhs))
			for i, e := range p.rhs {
				if e.IsTerminal() {
					rhs[i] = e.Num().Int()
				} else {
					rhs[i] = e.Num().Int() * -1
				}
			}

			prod := &spec.Production{
				Number: p.num.Int(),
				LHS:    p.lhs.Num().Int(),
				RHS:    rhs,
				Action: p.action,
			}

			prec := b.precAndAssoc.productionPrecedence(p.num)
			if prec != precNil {
				prod.Precedence = prec
			}
			prod.Associativity = string(b.precAndAssoc.productionAssociativity(p.num))

			prods[p.num.Int()] = prod
		}
	}

	var states []*spec.State
	{
		conflicts := map[int][]*spec.Conflict{}
		for _, c := range b.conflicts {
			conflicts[c.State] = append(conflicts[c.State], c)
		}

		states = make([]*spec.State, len(b.automaton.states))
		for _, s := range b.automaton.states {
			kernel := make([]*spec.Item, len(s.items))
			for i, item := range s.items {
				kernel[i] = &spec.Item{
					Production: item.prod.Int(),
					Dot:        item.dot,
				}
			}

			var shift []*spec.Transition
			var reduce []*spec.Reduce
			var goTo []*spec.Transition
			accept := false
			{
			TERMINALS_LOOP:
				for _, t := range b.symTab.TerminalSymbols() {
					act, next, prod := tab.getAction(s.num, t.Num())
					switch act {
					case ActionTypeShift:
						shift = append(shift, &spec.Transition{
							Symbol: t.Num().Int(),
							State:  next.Int(),
						})
					case ActionTypeAccept:
						accept = true
					case ActionTypeReduce:
						for _, r := range reduce {
							if r.Production == prod.Int() {
								r.LookAhead = append(r.LookAhead, t.Num().Int())
								continue TERMINALS_LOOP
							}
						}
						reduce = append(reduce, &spec.Reduce{
							LookAhead:  []int{t.Num().Int()},
							Production: prod.Int(),
						})
					}
				}

				for _, n := range b.symTab.NonTerminalSymbols() {
					ty, next := tab.getGoTo(s.num, n.Num())
					if ty == GoToTypeRegistered {
						goTo = append(goTo, &spec.Transition{
							Symbol: n.Num().Int(),
							State:  next.Int(),
						})
					}
				}

				sort.Slice(reduce, func(i, j int) bool {
					return reduce[i].Production < reduce[j].Production
				})
			}

			cs := conflicts[s.num.Int()]
			if cs == nil {
				cs = []*spec.Conflict{}
			}

			states[s.num.Int()] = &spec.State{
				Number:    s.num.Int(),
				Kernel:    kernel,
				Shift:     shift,
				Reduce:    reduce,
				GoTo:      goTo,
				Accept:    accept,
				Conflicts: cs,
			}
		}
	}

	conflicts := b.conflicts
	if conflicts == nil {
		conflicts = []*spec.Conflict{}
	}

	return &spec.Report{
		Class:        class,
		Terminals:    terms,
		NonTerminals: nonTerms,
		Productions:  prods,
		States:       states,
		Conflicts:    conflicts,
	}, nil
}

// terminalNames returns the names of the symbols ordered by terminal number.
func (b *lrTableBuilder) terminalNames(syms *symbolSet) []string {
	ss := syms.symbols()
	sort.Slice(ss, func(i, j int) bool {
		return ss[i].Num() < ss[j].Num()
	})
	names := make([]string, len(ss))
	for i, sym := range ss {
		names[i] = b.symbolName(sym)
	}
	return names
}

// ConflictWarning is a conflict the table builder resolved. It is returned as an error only when
// default resolution is disallowed.
type ConflictWarning struct {
	*spec.Conflict
}

func (w *ConflictWarning) Error() string {
	return fmt.Sprintf("%v conflict in state %v on %v: %v adopted over %v (resolved by %v)",
		w.Kind, w.State, w.SymbolName, describeAction(w.Chosen), describeAction(w.Discarded), w.ResolvedBy)
}

// ConflictWarnings lists the conflicts of a report as warnings.
func ConflictWarnings(report *spec.Report) []*ConflictWarning {
	ws := make([]*ConflictWarning, 0, len(report.Conflicts))
	for _, c := range report.Conflicts {
		ws = append(ws, &ConflictWarning{Conflict: c})
	}
	return ws
}

package grammar

import (
	"fmt"

	"github.com/nihei9/lalrgen/grammar/symbol"
	spec "github.com/nihei9/lalrgen/spec/grammar"
)

type ActionType string

const (
	ActionTypeShift  = ActionType(spec.ActionShift)
	ActionTypeReduce = ActionType(spec.ActionReduce)
	ActionTypeAccept = ActionType(spec.ActionAccept)
	ActionTypeError  = ActionType(spec.ActionError)
)

// actionEntry is one cell of the action table. 0 is an error, -s shifts to state s, and p+1 reduces
// production p. Reducing the start production means accepting.
type actionEntry int

const actionEntryEmpty = actionEntry(0)

func newShiftActionEntry(state stateNum) actionEntry {
	return actionEntry(state * -1)
}

func newReduceActionEntry(prod productionNum) actionEntry {
	return actionEntry(prod + 1)
}

func newAcceptActionEntry() actionEntry {
	return newReduceActionEntry(productionNumStart)
}

func (e actionEntry) isEmpty() bool {
	return e == actionEntryEmpty
}

func (e actionEntry) describe() (ActionType, stateNum, productionNum) {
	switch {
	case e == actionEntryEmpty:
		return ActionTypeError, stateNumInitial, productionNumStart
	case e < 0:
		return ActionTypeShift, stateNum(e * -1), productionNumStart
	case productionNum(e-1) == productionNumStart:
		return ActionTypeAccept, stateNumInitial, productionNumStart
	}
	return ActionTypeReduce, stateNumInitial, productionNum(e - 1)
}

func (e actionEntry) toSpec() *spec.Action {
	ty, s, p := e.describe()
	switch ty {
	case ActionTypeShift:
		return &spec.Action{Type: spec.ActionShift, State: s.Int()}
	case ActionTypeReduce:
		return &spec.Action{Type: spec.ActionReduce, Production: p.Int()}
	case ActionTypeAccept:
		return &spec.Action{Type: spec.ActionAccept}
	}
	return &spec.Action{Type: spec.ActionError}
}

type GoToType string

const (
	GoToTypeRegistered = GoToType("registered")
	GoToTypeError      = GoToType("error")
)

type goToEntry uint

const goToEntryEmpty = goToEntry(0)

func newGoToEntry(state stateNum) goToEntry {
	return goToEntry(state)
}

func (e goToEntry) describe() (GoToType, stateNum) {
	if e == goToEntryEmpty {
		return GoToTypeError, stateNumInitial
	}
	return GoToTypeRegistered, stateNum(e)
}

type ParsingTable struct {
	actionTable      []actionEntry
	goToTable        []goToEntry
	stateCount       int
	terminalCount    int
	nonTerminalCount int

	// errorTrapperStates's index means a state number, and when `errorTrapperStates[stateNum]` is `1`,
	// the state has an item having the following form. The `α` and `β` can be empty.
	//
	// A → α・error β
	errorTrapperStates []int

	InitialState stateNum
}

func (t *ParsingTable) getAction(state stateNum, sym symbol.SymbolNum) (ActionType, stateNum, productionNum) {
	pos := state.Int()*t.terminalCount + sym.Int()
	return t.actionTable[pos].describe()
}

func (t *ParsingTable) getGoTo(state stateNum, sym symbol.SymbolNum) (GoToType, stateNum) {
	pos := state.Int()*t.nonTerminalCount + sym.Int()
	return t.goToTable[pos].describe()
}

func (t *ParsingTable) readAction(row int, col int) actionEntry {
	return t.actionTable[row*t.terminalCount+col]
}

func (t *ParsingTable) writeAction(row int, col int, act actionEntry) {
	t.actionTable[row*t.terminalCount+col] = act
}

func (t *ParsingTable) writeGoTo(state stateNum, sym symbol.Symbol, nextState stateNum) {
	pos := state.Int()*t.nonTerminalCount + sym.Num().Int()
	t.goToTable[pos] = newGoToEntry(nextState)
}

// lookAheadFunc returns the symbols on which a state reduces a production. The LALR(1) and SLR(1)
// classes differ only in this function.
type lookAheadFunc func(state *lrState, prod productionNum) ([]symbol.Symbol, error)

type lrTableBuilder struct {
	automaton    *lr0Automaton
	lookAhead    lookAheadFunc
	prods        *productionSet
	termCount    int
	nonTermCount int
	symTab       *symbol.SymbolTableReader
	precAndAssoc *precAndAssoc

	// explicitErrors holds the cells a non-associative operator turned into errors. Later reduce
	// actions must not fill them again.
	explicitErrors map[int]struct{}

	conflicts []*spec.Conflict
}

func (b *lrTableBuilder) build() (*ParsingTable, error) {
	var ptab *ParsingTable
	{
		ptab = &ParsingTable{
			actionTable:        make([]actionEntry, len(b.automaton.states)*b.termCount),
			goToTable:          make([]goToEntry, len(b.automaton.states)*b.nonTermCount),
			stateCount:         len(b.automaton.states),
			terminalCount:      b.termCount,
			nonTerminalCount:   b.nonTermCount,
			errorTrapperStates: make([]int, len(b.automaton.states)),
			InitialState:       b.automaton.initialState,
		}
	}
	b.explicitErrors = map[int]struct{}{}

	for _, state := range b.automaton.states {
		if state.isErrorTrapper {
			ptab.errorTrapperStates[state.num] = 1
		}

		for _, sym := range state.transitionSymbols() {
			nextState := state.next[sym]
			if sym.IsTerminal() {
				ptab.writeAction(state.num.Int(), sym.Num().Int(), newShiftActionEntry(nextState))
			} else {
				ptab.writeGoTo(state.num, sym, nextState)
			}
		}

		if state.accepting {
			ptab.writeAction(state.num.Int(), symbol.SymbolEOF.Num().Int(), newAcceptActionEntry())
		}

		for _, prod := range state.reducibleProductions() {
			if prod == productionNumStart {
				continue
			}
			syms, err := b.lookAhead(state, prod)
			if err != nil {
				return nil, err
			}
			for _, a := range syms {
				b.writeReduceAction(ptab, state.num, a, prod)
			}
		}
	}

	return ptab, nil
}

// writeReduceAction writes a reduce action to the parsing table. When the cell is already occupied,
// the conflict is resolved and recorded.
func (b *lrTableBuilder) writeReduceAction(tab *ParsingTable, state stateNum, sym symbol.Symbol, prod productionNum) {
	row := state.Int()
	col := sym.Num().Int()
	if _, ok := b.explicitErrors[row*b.termCount+col]; ok {
		tracer().Debugf("state %v, %v: reduction of production %v dropped by a non-associative operator", state, b.symbolName(sym), prod)
		return
	}

	act := tab.readAction(row, col)
	if act.isEmpty() {
		tab.writeAction(row, col, newReduceActionEntry(prod))
		return
	}

	reduce := newReduceActionEntry(prod)
	ty, _, p := act.describe()
	switch ty {
	case ActionTypeReduce:
		if p == prod {
			return
		}

		chosen, discarded := act, reduce
		if prod < p {
			chosen, discarded = reduce, act
		}
		tab.writeAction(row, col, chosen)
		b.recordConflict(state, sym, spec.ConflictReduceReduce, chosen, discarded, spec.ResolvedByProdOrder)
	case ActionTypeShift, ActionTypeAccept:
		result, method := b.resolveSRConflict(sym.Num(), prod)
		switch result {
		case ActionTypeShift:
			b.recordConflict(state, sym, spec.ConflictShiftReduce, act, reduce, method)
		case ActionTypeReduce:
			tab.writeAction(row, col, reduce)
			b.recordConflict(state, sym, spec.ConflictShiftReduce, reduce, act, method)
		case ActionTypeError:
			tab.writeAction(row, col, actionEntryEmpty)
			b.explicitErrors[row*b.termCount+col] = struct{}{}
			b.recordConflict(state, sym, spec.ConflictShiftReduce, actionEntryEmpty, act, method)
		}
	}
}

// resolveSRConflict compares the precedence of the look-ahead terminal with that of the production.
// Without precedence on both sides, shift wins. On equal precedence the associativity of the level
// decides: left reduces, right shifts, and non-associative yields an error entry.
func (b *lrTableBuilder) resolveSRConflict(sym symbol.SymbolNum, prod productionNum) (ActionType, string) {
	symPrec := b.precAndAssoc.terminalPrecedence(sym)
	prodPrec := b.precAndAssoc.productionPrecedence(prod)
	if symPrec == precNil || prodPrec == precNil {
		return ActionTypeShift, spec.ResolvedByShift
	}
	if symPrec == prodPrec {
		switch b.precAndAssoc.terminalAssociativity(sym) {
		case assocTypeLeft:
			return ActionTypeReduce, spec.ResolvedByAssociativity
		case assocTypeNonAssoc:
			return ActionTypeError, spec.ResolvedByAssociativity
		}
		return ActionTypeShift, spec.ResolvedByAssociativity
	}
	if symPrec > prodPrec {
		return ActionTypeShift, spec.ResolvedByPrecedence
	}
	return ActionTypeReduce, spec.ResolvedByPrecedence
}

func (b *lrTableBuilder) recordConflict(state stateNum, sym symbol.Symbol, kind string, chosen, discarded actionEntry, method string) {
	c := &spec.Conflict{
		State:      state.Int(),
		Symbol:     sym.Num().Int(),
		SymbolName: b.symbolName(sym),
		Kind:       kind,
		Chosen:     chosen.toSpec(),
		Discarded:  discarded.toSpec(),
		ResolvedBy: method,
	}
	b.conflicts = append(b.conflicts, c)
	tracer().Debugf("state %v, %v: %v conflict resolved by %v; chosen: %v, discarded: %v",
		c.State, c.SymbolName, c.Kind, c.ResolvedBy, describeAction(c.Chosen), describeAction(c.Discarded))
}

func (b *lrTableBuilder) symbolName(sym symbol.Symbol) string {
	name, ok := b.symTab.ToText(sym)
	if !ok {
		return sym.String()
	}
	return name
}

func describeAction(act *spec.Action) string {
	switch act.Type {
	case spec.ActionShift:
		return fmt.Sprintf("shift %v", act.State)
	case spec.ActionReduce:
		return fmt.Sprintf("reduce %v", act.Production)
	}
	return act.Type
}

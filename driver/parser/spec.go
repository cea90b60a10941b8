package parser

import spec "github.com/nihei9/lalrgen/spec/grammar"

// Grammar is the read-only view of a parsing table the parser runs on.
type Grammar interface {
	// InitialState returns the initial state of the parser.
	InitialState() int

	// StartProduction returns the augmented start production. Reducing it accepts the input.
	StartProduction() int

	// Action returns the ACTION entry for a state and a terminal. 0 means an error, -s means
	// shifting to state s, and p+1 means reducing production p.
	Action(state int, terminal int) int

	// GoTo returns the GOTO entry for a state and a non-terminal.
	GoTo(state int, lhs int) int

	// ErrorTrapperState reports whether a state can shift the error symbol.
	ErrorTrapperState(state int) bool

	// LHS returns the LHS symbol of a production.
	LHS(prod int) int

	// AlternativeSymbolCount returns the length of the RHS of a production.
	AlternativeSymbolCount(prod int) int

	// ProductionAction returns the action text attached to a production.
	ProductionAction(prod int) string

	ProductionCount() int
	TerminalCount() int
	Terminal(terminal int) string
	NonTerminal(nonTerminal int) string
	EOF() int
	Error() int
}

var _ Grammar = &grammarImpl{}

type grammarImpl struct {
	tab *spec.ParsingTable
}

// NewGrammar wraps a compiled grammar. The compiled grammar must not be modified while parsers use
// it, and then any number of parsers may share it.
func NewGrammar(g *spec.CompiledGrammar) *grammarImpl {
	return &grammarImpl{
		tab: g.ParsingTable,
	}
}

func (g *grammarImpl) InitialState() int {
	return g.tab.InitialState
}

func (g *grammarImpl) StartProduction() int {
	return g.tab.StartProduction
}

func (g *grammarImpl) Action(state int, terminal int) int {
	return g.tab.Action[state*g.tab.TerminalCount+terminal]
}

func (g *grammarImpl) GoTo(state int, lhs int) int {
	return g.tab.GoTo[state*g.tab.NonTerminalCount+lhs]
}

func (g *grammarImpl) ErrorTrapperState(state int) bool {
	return g.tab.ErrorTrapperStates[state] != 0
}

func (g *grammarImpl) LHS(prod int) int {
	return g.tab.LHSSymbols[prod]
}

func (g *grammarImpl) AlternativeSymbolCount(prod int) int {
	return g.tab.AlternativeSymbolCounts[prod]
}

func (g *grammarImpl) ProductionAction(prod int) string {
	if prod < 0 || prod >= len(g.tab.ProductionActions) {
		return ""
	}
	return g.tab.ProductionActions[prod]
}

func (g *grammarImpl) ProductionCount() int {
	return len(g.tab.LHSSymbols)
}

func (g *grammarImpl) TerminalCount() int {
	return g.tab.TerminalCount
}

func (g *grammarImpl) Terminal(terminal int) string {
	return g.tab.Terminals[terminal]
}

func (g *grammarImpl) NonTerminal(nonTerminal int) string {
	return g.tab.NonTerminals[nonTerminal]
}

func (g *grammarImpl) EOF() int {
	return g.tab.EOFSymbol
}

func (g *grammarImpl) Error() int {
	return g.tab.ErrorSymbol
}

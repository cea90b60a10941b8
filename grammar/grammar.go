package grammar

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nihei9/lalrgen/driver/lexer"
	verr "github.com/nihei9/lalrgen/error"
	"github.com/nihei9/lalrgen/grammar/symbol"
	spec "github.com/nihei9/lalrgen/spec/grammar"
)

type assocType string

const (
	assocTypeNil      = assocType("")
	assocTypeLeft     = assocType(spec.AssocLeft)
	assocTypeRight    = assocType(spec.AssocRight)
	assocTypeNonAssoc = assocType(spec.AssocNonAssoc)
)

const (
	precNil = 0
	precMin = 1
)

// precAndAssoc represents precedence and associativities of terminal symbols and productions.
// We use the priority of the production to resolve shift/reduce conflicts.
type precAndAssoc struct {
	// termPrec and termAssoc represent the precedence of the terminal symbols.
	termPrec  map[symbol.SymbolNum]int
	termAssoc map[symbol.SymbolNum]assocType

	// prodPrec and prodAssoc represent the precedence and the associativities of the production.
	// These values are inherited from the right-most terminal symbols having precedence in the RHS
	// of the productions, or from the symbol named by an explicit precedence.
	prodPrec  map[productionNum]int
	prodAssoc map[productionNum]assocType
}

func (pa *precAndAssoc) terminalPrecedence(sym symbol.SymbolNum) int {
	prec, ok := pa.termPrec[sym]
	if !ok {
		return precNil
	}

	return prec
}

func (pa *precAndAssoc) terminalAssociativity(sym symbol.SymbolNum) assocType {
	assoc, ok := pa.termAssoc[sym]
	if !ok {
		return assocTypeNil
	}

	return assoc
}

func (pa *precAndAssoc) productionPrecedence(prod productionNum) int {
	prec, ok := pa.prodPrec[prod]
	if !ok {
		return precNil
	}

	return prec
}

func (pa *precAndAssoc) productionAssociativity(prod productionNum) assocType {
	assoc, ok := pa.prodAssoc[prod]
	if !ok {
		return assocTypeNil
	}

	return assoc
}

const reservedSymbolNameError = "error"

type Grammar struct {
	name                 string
	lexSpec              *spec.LexSpec
	productionSet        *productionSet
	augmentedStartSymbol symbol.Symbol
	errorSymbol          symbol.Symbol
	symbolTable          *symbol.SymbolTableReader
	precAndAssoc         *precAndAssoc
	actionInclude        string
}

type GrammarBuilder struct {
	Spec *spec.GrammarSpec

	errs verr.SpecErrors
}

func (b *GrammarBuilder) Build() (*Grammar, error) {
	if b.Spec == nil || len(b.Spec.Rules) == 0 {
		return nil, verr.SpecErrors{
			&verr.SpecError{
				Cause: semErrNoProduction,
			},
		}
	}

	rules := b.parseRules()
	if len(b.errs) > 0 {
		return nil, b.errs
	}

	symTab, nonTerms, err := b.genSymbolTable(rules)
	if err != nil {
		return nil, err
	}
	if len(b.errs) > 0 {
		return nil, b.errs
	}

	start := b.Spec.Start
	if start == "" {
		start = b.Spec.Rules[0].LHS
	}
	startSym, ok := symTab.Reader().ToSymbol(start)
	if !ok || !startSym.IsNonTerminal() || startSym.IsStart() {
		b.errs = append(b.errs, &verr.SpecError{
			Cause:  semErrUndefinedStart,
			Detail: start,
		})
		return nil, b.errs
	}

	prods, err := b.genProductions(rules, symTab.Reader(), startSym)
	if err != nil {
		return nil, err
	}
	if len(b.errs) > 0 {
		return nil, b.errs
	}

	pa := b.genPrecAndAssoc(rules, symTab.Reader(), nonTerms)
	if len(b.errs) > 0 {
		return nil, b.errs
	}

	b.checkUsefulness(symTab.Reader(), prods, startSym)
	b.checkLexSpec(symTab.Reader())
	if len(b.errs) > 0 {
		return nil, b.errs
	}

	errSym, _ := symTab.Reader().ToSymbol(reservedSymbolNameError)

	tracer().Debugf("grammar %v: %v productions, %v terminals, %v non-terminals",
		b.Spec.Name, len(prods.getAllProductions()), symTab.Reader().TerminalCount(), symTab.Reader().NonTerminalCount())

	return &Grammar{
		name:                 b.Spec.Name,
		lexSpec:              b.Spec.Lex,
		productionSet:        prods,
		augmentedStartSymbol: symbol.SymbolStart,
		errorSymbol:          errSym,
		symbolTable:          symTab.Reader(),
		precAndAssoc:         pa,
		actionInclude:        b.Spec.ActionInclude,
	}, nil
}

type rhsSymbol struct {
	text   string
	quoted bool
}

type parsedAlternative struct {
	rhs    []rhsSymbol
	prec   string
	action string
}

type parsedRule struct {
	lhs  string
	alts []*parsedAlternative
}

func (b *GrammarBuilder) parseRules() []*parsedRule {
	var rules []*parsedRule
	for i, r := range b.Spec.Rules {
		if r == nil || r.LHS == "" {
			b.errs = append(b.errs, &verr.SpecError{
				Cause:  semErrEmptyLHS,
				Detail: fmt.Sprintf("rule #%v", i+1),
			})
			continue
		}
		if isReservedName(r.LHS) {
			b.errs = append(b.errs, &verr.SpecError{
				Cause:  semErrReservedName,
				Detail: r.LHS,
			})
			continue
		}
		if len(r.Alternatives) == 0 {
			b.errs = append(b.errs, &verr.SpecError{
				Cause:  semErrNoAlternative,
				Detail: r.LHS,
			})
			continue
		}

		rule := &parsedRule{
			lhs: r.LHS,
		}
		for _, alt := range r.Alternatives {
			syms, prec, err := splitRHS(alt.RHS)
			if err != nil {
				b.errs = append(b.errs, &verr.SpecError{
					Cause:  err,
					Detail: fmt.Sprintf("%v: %v", r.LHS, alt.RHS),
				})
				continue
			}
			if alt.Prec != "" {
				prec = alt.Prec
			}
			for _, sym := range syms {
				if sym.text == symbol.SymbolNameStart || sym.text == symbol.SymbolNameEOF {
					b.errs = append(b.errs, &verr.SpecError{
						Cause:  semErrReservedName,
						Detail: sym.text,
					})
				}
			}
			rule.alts = append(rule.alts, &parsedAlternative{
				rhs:    syms,
				prec:   prec,
				action: alt.Action,
			})
		}
		rules = append(rules, rule)
	}
	return rules
}

func isReservedName(name string) bool {
	switch name {
	case symbol.SymbolNameStart, symbol.SymbolNameEOF, reservedSymbolNameError:
		return true
	}
	return false
}

// splitRHS splits a right-hand side into symbols. `%prec X` at the end of the sequence names the
// precedence symbol of the alternative.
func splitRHS(rhs string) ([]rhsSymbol, string, error) {
	var syms []rhsSymbol
	src := []rune(rhs)
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '\'' || c == '"':
			j := i + 1
			for j < len(src) && src[j] != c {
				j++
			}
			if j >= len(src) || j == i+1 {
				return nil, "", semErrUnclosedQuote
			}
			syms = append(syms, rhsSymbol{
				text:   string(src[i+1 : j]),
				quoted: true,
			})
			i = j + 1
		default:
			j := i
			for j < len(src) && src[j] != ' ' && src[j] != '\t' && src[j] != '\n' && src[j] != '\r' {
				j++
			}
			syms = append(syms, rhsSymbol{
				text: string(src[i:j]),
			})
			i = j
		}
	}

	for i, sym := range syms {
		if sym.quoted || sym.text != "%prec" {
			continue
		}
		if i != len(syms)-2 {
			return nil, "", semErrInvalidPrecMarker
		}
		return syms[:i], syms[i+1].text, nil
	}
	return syms, "", nil
}

// genSymbolTable registers symbols. The error symbol gets the first user terminal number, then
// come declared tokens, then terminals in order of appearance. Non-terminals are numbered in
// rule order.
func (b *GrammarBuilder) genSymbolTable(rules []*parsedRule) (*symbol.SymbolTable, map[string]struct{}, error) {
	symTab := symbol.NewSymbolTable()
	w := symTab.Writer()

	if _, err := w.RegisterTerminalSymbol(reservedSymbolNameError); err != nil {
		return nil, nil, err
	}

	nonTerms := map[string]struct{}{}
	for _, r := range rules {
		nonTerms[r.lhs] = struct{}{}
	}

	declared := map[string]struct{}{}
	for _, t := range b.Spec.Tokens {
		if t == reservedSymbolNameError {
			continue
		}
		if t == symbol.SymbolNameStart || t == symbol.SymbolNameEOF {
			b.errs = append(b.errs, &verr.SpecError{
				Cause:  semErrReservedName,
				Detail: t,
			})
			continue
		}
		if _, ok := nonTerms[t]; ok {
			b.errs = append(b.errs, &verr.SpecError{
				Cause:  semErrDuplicateName,
				Detail: t,
			})
			continue
		}
		declared[t] = struct{}{}
		if _, err := w.RegisterTerminalSymbol(t); err != nil {
			return nil, nil, err
		}
	}

	for _, r := range rules {
		if _, err := w.RegisterNonTerminalSymbol(r.lhs); err != nil {
			return nil, nil, err
		}
	}

	explicit := len(b.Spec.Tokens) > 0
	for _, r := range rules {
		for _, alt := range r.alts {
			for _, sym := range alt.rhs {
				if _, ok := nonTerms[sym.text]; ok {
					if sym.quoted {
						b.errs = append(b.errs, &verr.SpecError{
							Cause:  semErrDuplicateName,
							Detail: sym.text,
						})
					}
					continue
				}
				if sym.text == reservedSymbolNameError {
					continue
				}
				if explicit && !sym.quoted {
					if _, ok := declared[sym.text]; !ok {
						b.errs = append(b.errs, &verr.SpecError{
							Cause:  semErrUndefinedSym,
							Detail: sym.text,
						})
						continue
					}
				}
				if _, err := w.RegisterTerminalSymbol(sym.text); err != nil {
					return nil, nil, err
				}
			}
		}
	}

	return symTab, nonTerms, nil
}

func (b *GrammarBuilder) genProductions(rules []*parsedRule, symTab *symbol.SymbolTableReader, startSym symbol.Symbol) (*productionSet, error) {
	prods := newProductionSet()

	startProd, err := newProduction(symbol.SymbolStart, []symbol.Symbol{startSym, symbol.SymbolEOF})
	if err != nil {
		return nil, err
	}
	prods.append(startProd)

	for _, r := range rules {
		lhs, ok := symTab.ToSymbol(r.lhs)
		if !ok {
			return nil, fmt.Errorf("symbol '%v' is undefined", r.lhs)
		}
		for _, alt := range r.alts {
			rhs := make([]symbol.Symbol, 0, len(alt.rhs))
			for _, s := range alt.rhs {
				sym, ok := symTab.ToSymbol(s.text)
				if !ok {
					return nil, fmt.Errorf("symbol '%v' is undefined", s.text)
				}
				rhs = append(rhs, sym)
			}

			p, err := newProduction(lhs, rhs)
			if err != nil {
				return nil, err
			}
			p.action = alt.action
			if !prods.append(p) {
				b.errs = append(b.errs, &verr.SpecError{
					Cause:  semErrDuplicateProduction,
					Detail: fmt.Sprintf("%v → %v", r.lhs, joinRHS(alt.rhs)),
				})
			}
		}
	}

	return prods, nil
}

func joinRHS(rhs []rhsSymbol) string {
	if len(rhs) == 0 {
		return "ε"
	}
	texts := make([]string, len(rhs))
	for i, s := range rhs {
		texts[i] = s.text
	}
	return strings.Join(texts, " ")
}

// genPrecAndAssoc numbers alternatives the same way genProductions does, so it must run only
// after duplicate productions have been rejected.
func (b *GrammarBuilder) genPrecAndAssoc(rules []*parsedRule, symTab *symbol.SymbolTableReader, nonTerms map[string]struct{}) *precAndAssoc {
	// Operator symbols are kept by name because a symbol used only as an explicit precedence is
	// never registered as a terminal.
	opPrec := map[string]int{}
	opAssoc := map[string]assocType{}
	for i, op := range b.Spec.Operators {
		var assoc assocType
		switch op.Assoc {
		case spec.AssocLeft, spec.AssocRight, spec.AssocNonAssoc:
			assoc = assocType(op.Assoc)
		default:
			b.errs = append(b.errs, &verr.SpecError{
				Cause:  semErrInvalidAssoc,
				Detail: op.Assoc,
			})
			continue
		}

		for _, sym := range op.Symbols {
			if _, ok := nonTerms[sym]; ok {
				b.errs = append(b.errs, &verr.SpecError{
					Cause:  semErrAssocNonTerminal,
					Detail: sym,
				})
				continue
			}
			if _, ok := opPrec[sym]; ok {
				b.errs = append(b.errs, &verr.SpecError{
					Cause:  semErrDuplicateAssoc,
					Detail: sym,
				})
				continue
			}
			opPrec[sym] = precMin + i
			opAssoc[sym] = assoc
		}
	}

	termPrec := map[symbol.SymbolNum]int{}
	termAssoc := map[symbol.SymbolNum]assocType{}
	for name, prec := range opPrec {
		sym, ok := symTab.ToSymbol(name)
		if !ok || !sym.IsTerminal() {
			continue
		}
		termPrec[sym.Num()] = prec
		termAssoc[sym.Num()] = opAssoc[name]
	}

	prodPrec := map[productionNum]int{}
	prodAssoc := map[productionNum]assocType{}
	num := productionNumMin
	for _, r := range rules {
		for _, alt := range r.alts {
			if alt.prec != "" {
				prec, ok := opPrec[alt.prec]
				if !ok {
					b.errs = append(b.errs, &verr.SpecError{
						Cause:  semErrUndefinedPrec,
						Detail: alt.prec,
					})
				} else {
					prodPrec[num] = prec
					prodAssoc[num] = opAssoc[alt.prec]
				}
				num++
				continue
			}

			for i := len(alt.rhs) - 1; i >= 0; i-- {
				name := alt.rhs[i].text
				if _, ok := nonTerms[name]; ok {
					continue
				}
				prec, ok := opPrec[name]
				if !ok {
					continue
				}
				prodPrec[num] = prec
				prodAssoc[num] = opAssoc[name]
				break
			}
			num++
		}
	}
	return &precAndAssoc{
		termPrec:  termPrec,
		termAssoc: termAssoc,
		prodPrec:  prodPrec,
		prodAssoc: prodAssoc,
	}
}

// checkUsefulness reports non-terminals unreachable from the start symbol and non-terminals from
// which no terminal string can be derived.
func (b *GrammarBuilder) checkUsefulness(symTab *symbol.SymbolTableReader, prods *productionSet, startSym symbol.Symbol) {
	reachable := map[symbol.Symbol]struct{}{
		startSym: {},
	}
	queue := []symbol.Symbol{startSym}
	for len(queue) > 0 {
		lhs := queue[0]
		queue = queue[1:]
		ps, _ := prods.findByLHS(lhs)
		for _, p := range ps {
			for _, sym := range p.rhs {
				if !sym.IsNonTerminal() {
					continue
				}
				if _, ok := reachable[sym]; ok {
					continue
				}
				reachable[sym] = struct{}{}
				queue = append(queue, sym)
			}
		}
	}

	productive := map[symbol.Symbol]struct{}{}
	for changed := true; changed; {
		changed = false
		for _, p := range prods.getAllProductions() {
			if p.isStart() {
				continue
			}
			if _, ok := productive[p.lhs]; ok {
				continue
			}
			ok := true
			for _, sym := range p.rhs {
				if sym.IsTerminal() {
					continue
				}
				if _, found := productive[sym]; !found {
					ok = false
					break
				}
			}
			if ok {
				productive[p.lhs] = struct{}{}
				changed = true
			}
		}
	}

	for _, sym := range symTab.NonTerminalSymbols() {
		if sym.IsStart() {
			continue
		}
		name, _ := symTab.ToText(sym)
		if _, ok := reachable[sym]; !ok {
			b.errs = append(b.errs, &verr.SpecError{
				Cause:  semErrUnusedProduction,
				Detail: name,
			})
			continue
		}
		if _, ok := productive[sym]; !ok {
			b.errs = append(b.errs, &verr.SpecError{
				Cause:  semErrNonProductive,
				Detail: name,
			})
		}
	}
}

func (b *GrammarBuilder) checkLexSpec(symTab *symbol.SymbolTableReader) {
	ls := b.Spec.Lex
	if ls == nil {
		return
	}

	for i, r := range ls.Rules {
		if r == nil {
			b.errs = append(b.errs, &verr.SpecError{
				Cause:  semErrInvalidLexRule,
				Detail: fmt.Sprintf("rule #%v is empty", i+1),
			})
			continue
		}
		if !r.IsDeclarative() || r.Skip || r.Token == "" {
			continue
		}
		// Such a token is a syntax error wherever it appears in input.
		if sym, ok := symTab.ToSymbol(r.Token); !ok || !sym.IsTerminal() {
			tracer().Infof("lexical rule #%v emits %v, which the grammar doesn't use", i+1, r.Token)
		}
	}
	if len(b.errs) > 0 {
		return
	}

	if _, err := lexer.CompileSpec(ls); err != nil {
		b.errs = append(b.errs, &verr.SpecError{
			Cause:  semErrInvalidLexRule,
			Detail: err.Error(),
		})
	}
}

type compileConfig struct {
	isReportingEnabled          bool
	class                       string
	isDefaultResolutionDisabled bool
	isDFAEnabled                bool
}

type CompileOption func(config *compileConfig)

func EnableReporting() CompileOption {
	return func(config *compileConfig) {
		config.isReportingEnabled = true
	}
}

// SpecifyClass selects the class of the parsing table, spec.ClassLALR or spec.ClassSLR.
func SpecifyClass(class string) CompileOption {
	return func(config *compileConfig) {
		config.class = class
	}
}

// DisallowDefaultResolution makes Compile fail when a conflict was resolved without declared
// precedence or associativity.
func DisallowDefaultResolution() CompileOption {
	return func(config *compileConfig) {
		config.isDefaultResolutionDisabled = true
	}
}

// EnableDFALexer compiles the lexical specification into a DFA as well. Every lexical rule must
// be declarative.
func EnableDFALexer() CompileOption {
	return func(config *compileConfig) {
		config.isDFAEnabled = true
	}
}

func Compile(gram *Grammar, opts ...CompileOption) (*spec.CompiledGrammar, *spec.Report, error) {
	config := &compileConfig{
		class: spec.ClassLALR,
	}
	for _, opt := range opts {
		opt(config)
	}

	terms := gram.symbolTable.TerminalTexts()
	nonTerms := gram.symbolTable.NonTerminalTexts()

	firstSet, err := genFirstSet(gram.productionSet)
	if err != nil {
		return nil, nil, err
	}

	followSet, err := genFollowSet(gram.productionSet, firstSet)
	if err != nil {
		return nil, nil, err
	}

	lr0, err := genLR0Automaton(gram.productionSet, gram.augmentedStartSymbol, gram.errorSymbol)
	if err != nil {
		return nil, nil, err
	}

	var lookAhead lookAheadFunc
	switch config.class {
	case spec.ClassLALR:
		lalr1, err := genLALR1Automaton(lr0, gram.productionSet, firstSet)
		if err != nil {
			return nil, nil, err
		}
		lookAhead = lalr1.lookAheadOf
	case spec.ClassSLR:
		slr1, err := genSLR1Automaton(lr0, gram.productionSet, followSet)
		if err != nil {
			return nil, nil, err
		}
		lookAhead = slr1.lookAheadOf
	default:
		return nil, nil, fmt.Errorf("invalid class: %v", config.class)
	}

	var tab *ParsingTable
	var report *spec.Report
	{
		b := &lrTableBuilder{
			automaton:    lr0,
			lookAhead:    lookAhead,
			prods:        gram.productionSet,
			termCount:    len(terms),
			nonTermCount: len(nonTerms),
			symTab:       gram.symbolTable,
			precAndAssoc: gram.precAndAssoc,
		}
		tab, err = b.build()
		if err != nil {
			return nil, nil, err
		}

		if config.isDefaultResolutionDisabled {
			var errs []error
			for _, c := range b.conflicts {
				if c.IsDefaulted() {
					errs = append(errs, &ConflictWarning{Conflict: c})
				}
			}
			if len(errs) > 0 {
				return nil, nil, errors.Join(errs...)
			}
		}

		if config.isReportingEnabled {
			report, err = b.genReport(tab, gram, firstSet, followSet, config.class)
			if err != nil {
				return nil, nil, err
			}
		}
	}

	action := make([]int, len(tab.actionTable))
	for i, e := range tab.actionTable {
		action[i] = int(e)
	}
	goTo := make([]int, len(tab.goToTable))
	for i, e := range tab.goToTable {
		goTo[i] = int(e)
	}

	allProds := gram.productionSet.getAllProductions()
	lhsSyms := make([]int, len(allProds))
	altSymCounts := make([]int, len(allProds))
	prodActs := make([]string, len(allProds))
	for _, p := range allProds {
		lhsSyms[p.num] = p.lhs.Num().Int()
		altSymCounts[p.num] = p.rhsLen
		prodActs[p.num] = p.action
	}

	var lexical *spec.LexicalSpec
	if gram.lexSpec != nil {
		lexical = &spec.LexicalSpec{
			Spec: gram.lexSpec,
		}
		if config.isDFAEnabled {
			dfa, err := lexer.CompileDFA(gram.lexSpec, terms)
			switch {
			case errors.Is(err, lexer.ErrDFAUnsupported):
				tracer().Infof("falling back to the regex lexer: %v", err)
			case err != nil:
				return nil, nil, err
			default:
				lexical.DFA = dfa
			}
		}
	}

	return &spec.CompiledGrammar{
		Name:    gram.name,
		Lexical: lexical,
		ParsingTable: &spec.ParsingTable{
			Class:                   config.class,
			Action:                  action,
			GoTo:                    goTo,
			StateCount:              tab.stateCount,
			InitialState:            tab.InitialState.Int(),
			StartProduction:         productionNumStart.Int(),
			LHSSymbols:              lhsSyms,
			AlternativeSymbolCounts: altSymCounts,
			ProductionActions:       prodActs,
			Terminals:               terms,
			TerminalCount:           tab.terminalCount,
			NonTerminals:            nonTerms,
			NonTerminalCount:        tab.nonTerminalCount,
			EOFSymbol:               symbol.SymbolEOF.Num().Int(),
			ErrorSymbol:             gram.errorSymbol.Num().Int(),
			ErrorTrapperStates:      tab.errorTrapperStates,
		},
		ActionInclude: gram.actionInclude,
	}, report, nil
}

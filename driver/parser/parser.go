package parser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrParserUsed is returned when Parse is called on a parser that already ran.
var ErrParserUsed = errors.New("a parser can run only once")

// ErrReturn is returned by SemanticActionSet.Reduce to accept the input at once. The action set
// holds the accepted value.
var ErrReturn = errors.New("an action returned a value")

// recoveryShiftCount is the number of shifts that take the parser out of error recovery.
const recoveryShiftCount = 3

type SyntaxError struct {
	Row               int
	Col               int
	Message           string
	Token             VToken
	ExpectedTerminals []string
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v:%v: %v: ", e.Row+1, e.Col+1, e.Message)
	if e.Token == nil || e.Token.EOF() {
		b.WriteString("$end")
	} else {
		fmt.Fprintf(&b, "%v %q", e.Token.Name(), e.Token.Text())
	}
	if len(e.ExpectedTerminals) > 0 {
		fmt.Fprintf(&b, "; expected: %v", strings.Join(e.ExpectedTerminals, ", "))
	}
	return b.String()
}

// ActionError wraps an error a semantic action returned.
type ActionError struct {
	Production int
	LHS        string
	Err        error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action of production %v (%v) failed: %v", e.Production, e.LHS, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

type ParserOption func(p *Parser) error

// SemanticAction sets a semantic action set. Without one, the parser only recognizes its input.
func SemanticAction(semAct SemanticActionSet) ParserOption {
	return func(p *Parser) error {
		if semAct == nil {
			return fmt.Errorf("semantic action set is nil")
		}
		p.semAct = semAct
		return nil
	}
}

// Parser is a table-driven LR parser. A parser holds the state of one parse and can't be reused.
type Parser struct {
	toks       TokenStream
	gram       Grammar
	stateStack *stateStack
	semAct     SemanticActionSet
	onError    bool
	shiftCount int
	synErrs    []*SyntaxError
	used       bool
}

func NewParser(toks TokenStream, gram Grammar, opts ...ParserOption) (*Parser, error) {
	p := &Parser{
		toks:       toks,
		gram:       gram,
		stateStack: &stateStack{},
	}

	for _, opt := range opts {
		err := opt(p)
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Parse runs the parser to the end of input. It returns a *SyntaxError when a syntax error can't
// be recovered, a *lexer.LexicalError when the lexer fails, and an *ActionError when a semantic
// action fails.
func (p *Parser) Parse() error {
	if p.used {
		return ErrParserUsed
	}
	p.used = true

	p.stateStack.push(p.gram.InitialState())
	tok, err := p.nextToken()
	if err != nil {
		return err
	}

ACTION_LOOP:
	for {
		act := p.lookupAction(tok)

		switch {
		case act < 0: // Shift
			nextState := act * -1

			recovered := false
			if p.onError {
				p.shiftCount++

				// When the parser performs shift three times, the parser recovers from the error state.
				if p.shiftCount >= recoveryShiftCount {
					recovered = true
					p.onError = false
					p.shiftCount = 0
				}
			}

			p.shift(nextState)
			tracer().Debugf("shift %v %q; state: %v", p.gram.Terminal(tok.TerminalID()), tok.Text(), nextState)

			if p.semAct != nil {
				if err := p.semAct.Shift(tok, recovered); err != nil {
					return err
				}
			}

			tok, err = p.nextToken()
			if err != nil {
				return err
			}
		case act > 0: // Reduce
			prodNum := act - 1

			accepted := p.reduce(prodNum)
			if accepted {
				tracer().Debugf("accept")
				if p.semAct != nil {
					if err := p.semAct.Accept(); err != nil {
						return err
					}
				}

				return nil
			}
			tracer().Debugf("reduce %v; state: %v", prodNum, p.stateStack.top())

			if p.semAct != nil {
				err := p.semAct.Reduce(prodNum, p.onError)
				if errors.Is(err, ErrReturn) {
					tracer().Debugf("accept by an action of production %v", prodNum)
					return nil
				}
				if err != nil {
					return err
				}
			}
		default: // Error
			if p.onError {
				tracer().Debugf("discard %v %q", tok.Name(), tok.Text())
				if tok.EOF() {
					row, col := tok.Position()
					return &SyntaxError{
						Row:               row,
						Col:               col,
						Message:           "parsing halted while recovering from an error",
						Token:             tok,
						ExpectedTerminals: p.searchLookahead(p.stateStack.top()),
					}
				}

				tok, err = p.nextToken()
				if err != nil {
					return err
				}

				continue ACTION_LOOP
			}

			row, col := tok.Position()
			synErr := &SyntaxError{
				Row:               row,
				Col:               col,
				Message:           "unexpected token",
				Token:             tok,
				ExpectedTerminals: p.searchLookahead(p.stateStack.top()),
			}

			popped, ok := p.trapError()
			if !ok {
				if p.semAct != nil {
					p.semAct.MissError(tok)
				}

				return synErr
			}
			p.synErrs = append(p.synErrs, synErr)

			p.onError = true
			p.shiftCount = 0

			act, err := p.lookupActionOnError()
			if err != nil {
				return err
			}

			p.shift(act * -1)
			tracer().Debugf("trap an error; popped: %v, state: %v", popped, p.stateStack.top())

			if p.semAct != nil {
				if err := p.semAct.TrapAndShiftError(tok, popped); err != nil {
					return err
				}
			}
		}
	}
}

func (p *Parser) nextToken() (VToken, error) {
	return p.toks.Next()
}

func (p *Parser) lookupAction(tok VToken) int {
	return p.gram.Action(p.stateStack.top(), tok.TerminalID())
}

func (p *Parser) lookupActionOnError() (int, error) {
	errSym := p.gram.Error()
	act := p.gram.Action(p.stateStack.top(), errSym)
	if act >= 0 {
		return 0, fmt.Errorf("an entry must be a shift action by the error symbol; entry: %v, state: %v, symbol: %v", act, p.stateStack.top(), p.gram.Terminal(errSym))
	}

	return act, nil
}

func (p *Parser) shift(nextState int) {
	p.stateStack.push(nextState)
}

func (p *Parser) reduce(prodNum int) bool {
	if prodNum == p.gram.StartProduction() {
		return true
	}
	lhs := p.gram.LHS(prodNum)
	n := p.gram.AlternativeSymbolCount(prodNum)
	p.stateStack.pop(n)
	nextState := p.gram.GoTo(p.stateStack.top(), lhs)
	p.stateStack.push(nextState)
	return false
}

// trapError pops the state stack until a state that can shift the error symbol appears. It
// returns the number of popped states.
func (p *Parser) trapError() (int, bool) {
	count := 0
	for {
		if p.gram.ErrorTrapperState(p.stateStack.top()) {
			return count, true
		}

		if p.stateStack.top() != p.gram.InitialState() {
			p.stateStack.pop(1)
			count++
		} else {
			return 0, false
		}
	}
}

// SyntaxErrors returns the syntax errors the parser recovered from.
func (p *Parser) SyntaxErrors() []*SyntaxError {
	return p.synErrs
}

// searchLookahead returns the terminals a state can act on, in terminal-number order. The error
// symbol is left out since input can't spell it.
func (p *Parser) searchLookahead(state int) []string {
	kinds := []string{}
	termCount := p.gram.TerminalCount()
	for term := 0; term < termCount; term++ {
		if p.gram.Action(state, term) == 0 {
			continue
		}
		if term == p.gram.Error() {
			continue
		}
		kinds = append(kinds, p.gram.Terminal(term))
	}

	return kinds
}

type stateStack struct {
	items []int
}

func (s *stateStack) top() int {
	return s.items[len(s.items)-1]
}

func (s *stateStack) push(state int) {
	s.items = append(s.items, state)
}

func (s *stateStack) pop(n int) {
	s.items = s.items[:len(s.items)-n]
}

package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nihei9/lalrgen/driver/lexer"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ActionFunc evaluates the action of a production. It reads the values of the RHS symbols from
// the context and sets ctx.Result. A non-nil error stops the parse.
type ActionFunc func(ctx *ReductionContext) error

// ActionFuncs maps production numbers to action functions. A production without a function keeps
// the value of its first RHS symbol.
type ActionFuncs map[int]ActionFunc

// BindActions resolves action functions by the action texts of productions. Action texts are
// compared with leading and trailing white spaces trimmed. Every action text the grammar has must
// be bound.
func BindActions(gram Grammar, acts map[string]ActionFunc) (ActionFuncs, error) {
	byText := make(map[string]ActionFunc, len(acts))
	for text, f := range acts {
		if f == nil {
			return nil, fmt.Errorf("action %q is nil", text)
		}
		byText[strings.TrimSpace(text)] = f
	}

	funcs := ActionFuncs{}
	var unbound []string
	for prod := 0; prod < gram.ProductionCount(); prod++ {
		text := strings.TrimSpace(gram.ProductionAction(prod))
		if text == "" {
			continue
		}
		f, ok := byText[text]
		if !ok {
			unbound = append(unbound, text)
			continue
		}
		funcs[prod] = f
	}
	if len(unbound) > 0 {
		slices.Sort(unbound)
		return nil, fmt.Errorf("actions are not bound: %q", slices.Compact(unbound))
	}

	return funcs, nil
}

// ReductionContext is what an action function sees when its production is reduced.
type ReductionContext struct {
	Production int
	LHS        string

	// Values holds the values of the RHS symbols. A terminal's value is its text.
	Values []any

	// Locations holds the spans of the RHS symbols.
	Locations []lexer.Location

	// Text and Leng are the text and the length of the most recently shifted token.
	Text string
	Leng int

	// Loc spans all RHS symbols. For an empty production it is the empty span after the most
	// recently shifted token.
	Loc lexer.Location

	// Result is the value of the LHS. It starts as the value of the first RHS symbol, or nil for
	// an empty production.
	Result any

	returned bool
}

// Arg returns the value of the n-th RHS symbol, counted from 1.
func (c *ReductionContext) Arg(n int) any {
	if n < 1 || n > len(c.Values) {
		return nil
	}
	return c.Values[n-1]
}

// Return sets the result and makes the parser accept the input right after this reduction.
func (c *ReductionContext) Return(v any) {
	c.Result = v
	c.returned = true
}

var _ SemanticActionSet = &ValueActionSet{}

// ValueActionSet evaluates action functions and propagates their values up the parse.
type ValueActionSet struct {
	gram     Grammar
	funcs    ActionFuncs
	values   *semanticStack[any]
	locs     *semanticStack[lexer.Location]
	lastText string
	lastLoc  lexer.Location
	result   any
	accepted bool
}

func NewValueActionSet(gram Grammar, funcs ActionFuncs) *ValueActionSet {
	fs := ActionFuncs{}
	if funcs != nil {
		fs = maps.Clone(funcs)
	}
	return &ValueActionSet{
		gram:   gram,
		funcs:  fs,
		values: newSemanticStack[any](),
		locs:   newSemanticStack[lexer.Location](),
	}
}

func (a *ValueActionSet) Shift(tok VToken, recovered bool) error {
	a.lastText = tok.Text()
	a.lastLoc = tok.Location()
	a.values.push(tok.Text())
	a.locs.push(tok.Location())
	return nil
}

func (a *ValueActionSet) Reduce(prodNum int, recovering bool) error {
	n := a.gram.AlternativeSymbolCount(prodNum)
	ctx := &ReductionContext{
		Production: prodNum,
		LHS:        a.gram.NonTerminal(a.gram.LHS(prodNum)),
		Values:     make([]any, n),
		Locations:  make([]lexer.Location, n),
		Text:       a.lastText,
		Leng:       utf8.RuneCountInString(a.lastText),
	}
	copy(ctx.Values, a.values.pop(n))
	copy(ctx.Locations, a.locs.pop(n))
	if n > 0 {
		ctx.Result = ctx.Values[0]
		ctx.Loc = lexer.Location{
			First: ctx.Locations[0].First,
			Last:  ctx.Locations[n-1].Last,
		}
	} else {
		ctx.Loc = lexer.Location{
			First: a.lastLoc.Last,
			Last:  a.lastLoc.Last,
		}
	}

	if f, ok := a.funcs[prodNum]; ok {
		if err := f(ctx); err != nil {
			return &ActionError{
				Production: prodNum,
				LHS:        ctx.LHS,
				Err:        err,
			}
		}
	}

	a.values.push(ctx.Result)
	a.locs.push(ctx.Loc)

	if ctx.returned {
		a.result = ctx.Result
		a.accepted = true
		return ErrReturn
	}
	return nil
}

func (a *ValueActionSet) Accept() error {
	v, _ := a.values.top()
	a.result = v
	a.accepted = true
	return nil
}

func (a *ValueActionSet) TrapAndShiftError(cause VToken, popped int) error {
	a.values.pop(popped)
	a.locs.pop(popped)
	a.values.push(nil)
	a.locs.push(cause.Location())
	return nil
}

func (a *ValueActionSet) MissError(cause VToken) {
}

// Result returns the accepted value. The second return value is false until the parser accepts
// the input.
func (a *ValueActionSet) Result() (any, bool) {
	return a.result, a.accepted
}

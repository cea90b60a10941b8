package parser

import (
	"fmt"
	"io"

	"github.com/nihei9/lalrgen/driver/lexer"
	spec "github.com/nihei9/lalrgen/spec/grammar"
)

type parseConfig struct {
	actions     map[string]ActionFunc
	funcs       ActionFuncs
	lexOpts     []lexer.LexerOption
	onRecovered func([]*SyntaxError)
}

type ParseOption func(c *parseConfig) error

// WithActions binds action functions by the action texts of productions.
func WithActions(acts map[string]ActionFunc) ParseOption {
	return func(c *parseConfig) error {
		if c.funcs != nil {
			return fmt.Errorf("WithActions and WithActionFuncs are exclusive")
		}
		c.actions = acts
		return nil
	}
}

// WithActionFuncs binds action functions by production numbers.
func WithActionFuncs(funcs ActionFuncs) ParseOption {
	return func(c *parseConfig) error {
		if c.actions != nil {
			return fmt.Errorf("WithActions and WithActionFuncs are exclusive")
		}
		c.funcs = funcs
		return nil
	}
}

// WithLexerOptions passes options to the regex lexer, typically to bind procedural lexical
// actions.
func WithLexerOptions(opts ...lexer.LexerOption) ParseOption {
	return func(c *parseConfig) error {
		c.lexOpts = append(c.lexOpts, opts...)
		return nil
	}
}

// OnRecoveredErrors registers a function receiving the syntax errors the parser recovered from.
// The function runs only when the parse succeeds.
func OnRecoveredErrors(f func([]*SyntaxError)) ParseOption {
	return func(c *parseConfig) error {
		c.onRecovered = f
		return nil
	}
}

// Parse reads src with the lexical specification of a compiled grammar, parses it, and returns the
// value of the start symbol. It is safe to call Parse concurrently with the same compiled grammar.
func Parse(cg *spec.CompiledGrammar, src io.Reader, opts ...ParseOption) (any, error) {
	c := &parseConfig{}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	gram := NewGrammar(cg)
	funcs := c.funcs
	if c.actions != nil {
		var err error
		funcs, err = BindActions(gram, c.actions)
		if err != nil {
			return nil, err
		}
	}

	toks, err := NewTokenStream(cg, src, c.lexOpts...)
	if err != nil {
		return nil, err
	}
	semAct := NewValueActionSet(gram, funcs)
	p, err := NewParser(toks, gram, SemanticAction(semAct))
	if err != nil {
		return nil, err
	}
	if err := p.Parse(); err != nil {
		return nil, err
	}
	if c.onRecovered != nil && len(p.SyntaxErrors()) > 0 {
		c.onRecovered(p.SyntaxErrors())
	}

	v, _ := semAct.Result()
	return v, nil
}

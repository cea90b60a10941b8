package parser

import (
	"fmt"
	"io"

	"github.com/nihei9/lalrgen/driver/lexer"
	spec "github.com/nihei9/lalrgen/spec/grammar"
)

// VToken is a token the parser consumes.
type VToken interface {
	// TerminalID returns the terminal number of the token. A token the grammar doesn't know has
	// the terminal number 0, which has no ACTION entry in any state.
	TerminalID() int

	// Name returns the name the lexer gave the token.
	Name() string

	// Text returns the matched text.
	Text() string

	// EOF reports whether the token is the end of input.
	EOF() bool

	// Position returns the 0-based row and column of the token.
	Position() (int, int)

	// Location returns the span of the token.
	Location() lexer.Location
}

type TokenStream interface {
	Next() (VToken, error)
}

// TokenSource is a lexer the parser can pull tokens from. Both lexer.Lexer and lexer.DFALexer
// implement it.
type TokenSource interface {
	Next() (*lexer.Token, error)
}

type vToken struct {
	terminalID int
	tok        *lexer.Token
}

func (t *vToken) TerminalID() int {
	return t.terminalID
}

func (t *vToken) Name() string {
	return t.tok.Name
}

func (t *vToken) Text() string {
	return t.tok.Text
}

func (t *vToken) EOF() bool {
	return t.tok.EOF
}

func (t *vToken) Position() (int, int) {
	return t.tok.Row, t.tok.Col
}

func (t *vToken) Location() lexer.Location {
	return t.tok.Loc
}

type tokenStream struct {
	src       TokenSource
	terminals map[string]int
	eof       int
}

// NewTokenStream returns a token stream reading src with the lexical specification of a compiled
// grammar. It runs the DFA lexer when the grammar carries one and no lexer option is given, since
// the DFA lexer cannot run procedural actions. Otherwise it runs the regex lexer.
func NewTokenStream(g *spec.CompiledGrammar, src io.Reader, opts ...lexer.LexerOption) (TokenStream, error) {
	if g.Lexical == nil || g.Lexical.Spec == nil {
		return nil, fmt.Errorf("grammar %v has no lexical specification", g.Name)
	}

	gram := NewGrammar(g)
	if g.Lexical.DFA != nil && len(opts) == 0 {
		lex, err := lexer.NewDFALexer(g.Lexical.DFA, src)
		if err != nil {
			return nil, err
		}
		return NewTokenStreamFromLexer(gram, lex), nil
	}

	ls, err := lexer.CompileSpec(g.Lexical.Spec)
	if err != nil {
		return nil, err
	}
	lex, err := lexer.NewLexer(ls, src, opts...)
	if err != nil {
		return nil, err
	}
	return NewTokenStreamFromLexer(gram, lex), nil
}

// NewTokenStreamFromLexer adapts any lexer to the terminal numbering of a grammar. Tokens are
// matched to terminals by name.
func NewTokenStreamFromLexer(gram Grammar, src TokenSource) TokenStream {
	terms := make(map[string]int, gram.TerminalCount())
	for i := 1; i < gram.TerminalCount(); i++ {
		// Input can't spell the error symbol.
		if i == gram.Error() {
			continue
		}
		terms[gram.Terminal(i)] = i
	}
	return &tokenStream{
		src:       src,
		terminals: terms,
		eof:       gram.EOF(),
	}
}

func (s *tokenStream) Next() (VToken, error) {
	tok, err := s.src.Next()
	if err != nil {
		return nil, err
	}
	if tok.EOF {
		return &vToken{
			terminalID: s.eof,
			tok:        tok,
		}, nil
	}
	return &vToken{
		terminalID: s.terminals[tok.Name],
		tok:        tok,
	}, nil
}

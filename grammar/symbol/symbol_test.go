package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbol(t *testing.T) {
	tab := NewSymbolTable()
	w := tab.Writer()
	_, _ = w.RegisterNonTerminalSymbol("expr")
	_, _ = w.RegisterNonTerminalSymbol("term")
	_, _ = w.RegisterNonTerminalSymbol("factor")
	_, _ = w.RegisterTerminalSymbol("id")
	_, _ = w.RegisterTerminalSymbol("+")
	_, _ = w.RegisterTerminalSymbol("*")
	_, _ = w.RegisterTerminalSymbol("(")
	_, _ = w.RegisterTerminalSymbol(")")

	nonTermTexts := []string{
		"", // Nil
		SymbolNameStart,
		"expr",
		"term",
		"factor",
	}

	termTexts := []string{
		"", // Nil
		SymbolNameEOF,
		"id",
		"+",
		"*",
		"(",
		")",
	}

	tests := []struct {
		text          string
		isStart       bool
		isEOF         bool
		isNonTerminal bool
		isTerminal    bool
	}{
		{
			text:          SymbolNameStart,
			isStart:       true,
			isNonTerminal: true,
		},
		{
			text:       SymbolNameEOF,
			isEOF:      true,
			isTerminal: true,
		},
		{
			text:          "expr",
			isNonTerminal: true,
		},
		{
			text:          "factor",
			isNonTerminal: true,
		},
		{
			text:       "id",
			isTerminal: true,
		},
		{
			text:       ")",
			isTerminal: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			r := tab.Reader()
			sym, ok := r.ToSymbol(tt.text)
			require.True(t, ok, "symbol was not found")
			testSymbolProperty(t, sym, false, tt.isStart, tt.isEOF, tt.isNonTerminal, tt.isTerminal)
			text, ok := r.ToText(sym)
			require.True(t, ok, "text was not found")
			assert.Equal(t, tt.text, text)
		})
	}

	t.Run("Nil", func(t *testing.T) {
		testSymbolProperty(t, SymbolNil, true, false, false, false, false)
	})

	t.Run("texts and counts", func(t *testing.T) {
		r := tab.Reader()
		assert.Equal(t, nonTermTexts, r.NonTerminalTexts())
		assert.Equal(t, termTexts, r.TerminalTexts())
		assert.Equal(t, len(termTexts), r.TerminalCount())
		assert.Equal(t, len(nonTermTexts), r.NonTerminalCount())
	})

	t.Run("symbols are ordered by number", func(t *testing.T) {
		r := tab.Reader()
		terms := r.TerminalSymbols()
		require.Len(t, terms, len(termTexts)-1)
		for i, sym := range terms {
			assert.Equal(t, i+1, sym.Num().Int())
		}
		nonTerms := r.NonTerminalSymbols()
		require.Len(t, nonTerms, len(nonTermTexts)-1)
		assert.True(t, nonTerms[0].IsStart())
	})

	t.Run("a name cannot be both a terminal and a non-terminal", func(t *testing.T) {
		_, err := tab.Writer().RegisterTerminalSymbol("expr")
		assert.Error(t, err)
		_, err = tab.Writer().RegisterNonTerminalSymbol("id")
		assert.Error(t, err)
	})
}

func testSymbolProperty(t *testing.T, sym Symbol, isNil, isStart, isEOF, isNonTerminal, isTerminal bool) {
	t.Helper()

	assert.Equal(t, isNil, sym.IsNil(), "isNil property is mismatched")
	assert.Equal(t, isStart, sym.IsStart(), "isStart property is mismatched")
	assert.Equal(t, isEOF, sym.IsEOF(), "isEOF property is mismatched")
	assert.Equal(t, isNonTerminal, sym.IsNonTerminal(), "isNonTerminal property is mismatched")
	assert.Equal(t, isTerminal, sym.IsTerminal(), "isTerminal property is mismatched")
}

package lexer

import (
	"strings"
	"testing"

	spec "github.com/nihei9/lalrgen/spec/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDFALexer_Next(t *testing.T) {
	terminals := []string{"", TokenNameEOF, "error", "NUM", "ID", "STRING"}
	tests := []struct {
		caption string
		lspec   *spec.LexSpec
		src     string
	}{
		{
			caption: "declarative rules",
			lspec: &spec.LexSpec{
				Macros: map[string]string{
					"digit": "[0-9]",
				},
				Rules: []*spec.LexRule{
					newRule("{digit}+", "NUM"),
					newRule("[a-z]+", "ID"),
					newRule(" +", ""),
				},
			},
			src: "ab 12 c",
		},
		{
			caption: "start conditions become lex modes",
			lspec: &spec.LexSpec{
				StartConditions: map[string]bool{
					"str": true,
				},
				Rules: []*spec.LexRule{
					{Pattern: `"`, Push: "str"},
					{Conditions: []string{"str"}, Pattern: `[^"]+`, Token: "STRING"},
					{Conditions: []string{"str"}, Pattern: `"`, Pop: true},
					newRule("[a-z]+", "ID"),
					newRule(" +", ""),
				},
			},
			src: `ab "x y" c`,
		},
		{
			caption: "Perl classes and escapes",
			lspec: &spec.LexSpec{
				Rules: []*spec.LexRule{
					newRule(`\d+(\.\d+)?`, "NUM"),
					newRule(`\w+`, "ID"),
					newRule(`\s+`, ""),
				},
			},
			src: "x1 3.14\t_y\n42",
		},
		{
			caption: "counted repetitions and case folding",
			lspec: &spec.LexSpec{
				Options: &spec.LexOptions{
					CaseInsensitive: true,
				},
				Rules: []*spec.LexRule{
					newRule(`[0-9]{2,3}`, "NUM"),
					newRule(`id`, "ID"),
					newRule(` `, ""),
				},
			},
			src: "ID 12 iD 345",
		},
		{
			caption: "a token the grammar doesn't know keeps its name",
			lspec: &spec.LexSpec{
				Rules: []*spec.LexRule{
					newRule(`[a-z]+`, "ID"),
					newRule(`;`, "SEMICOLON"),
				},
			},
			src: "a;b",
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			dfa, err := CompileDFA(tt.lspec, terminals)
			require.NoError(t, err)

			dl, err := NewDFALexer(dfa, strings.NewReader(tt.src))
			require.NoError(t, err)
			actual := readAll(t, dl)

			s, err := CompileSpec(tt.lspec)
			require.NoError(t, err)
			rl, err := NewLexer(s, strings.NewReader(tt.src))
			require.NoError(t, err)
			expected := readAll(t, rl)

			require.Len(t, actual, len(expected))
			for i, e := range expected {
				a := actual[i]
				assert.Equal(t, e.Name, a.Name)
				assert.Equal(t, e.Text, a.Text)
				if !e.EOF {
					assert.Equal(t, e.Row, a.Row)
					assert.Equal(t, e.Col, a.Col)
				}
			}

			_, err = dl.Next()
			assert.ErrorIs(t, err, ErrEndOfInput)
		})
	}
}

func TestCompileDFA_Unsupported(t *testing.T) {
	tests := []struct {
		caption string
		lspec   *spec.LexSpec
	}{
		{
			caption: "a procedural action",
			lspec: &spec.LexSpec{
				Rules: []*spec.LexRule{
					newActionRule("a", "act"),
				},
			},
		},
		{
			caption: "the first-match policy",
			lspec: &spec.LexSpec{
				Rules: []*spec.LexRule{
					newRule("a", "ID"),
				},
				Options: &spec.LexOptions{
					Policy: spec.PolicyFirstMatch,
				},
			},
		},
		{
			caption: "a rule matching the empty string",
			lspec: &spec.LexSpec{
				Rules: []*spec.LexRule{
					newRule("a*", "ID"),
				},
			},
		},
		{
			caption: "an anchor",
			lspec: &spec.LexSpec{
				Rules: []*spec.LexRule{
					newRule("^a", "ID"),
				},
			},
		},
		{
			caption: "a word boundary",
			lspec: &spec.LexSpec{
				Rules: []*spec.LexRule{
					newRule(`a\b`, "ID"),
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			_, err := CompileDFA(tt.lspec, []string{"", TokenNameEOF, "ID"})
			assert.ErrorIs(t, err, ErrDFAUnsupported)
		})
	}
}

func TestDFAPattern(t *testing.T) {
	tests := []struct {
		caption  string
		pattern  string
		expected string
	}{
		{
			caption:  "special characters are escaped",
			pattern:  `\(\*\)|\.`,
			expected: `\(\*\)|\.`,
		},
		{
			caption:  "white spaces become code points",
			pattern:  `\s`,
			expected: `[\u{0009}-\u{000A}\u{000C}-\u{000D}\u{0020}]`,
		},
		{
			caption:  "a repeated group keeps its parentheses",
			pattern:  `(?:ab)+`,
			expected: `(ab)+`,
		},
		{
			caption:  "case folding expands into brackets",
			pattern:  `(?i)k`,
			expected: "[Kk\u212a]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			actual, err := dfaPattern(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, actual)
		})
	}
}

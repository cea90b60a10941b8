package grammar

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	verr "github.com/nihei9/lalrgen/error"
	spec "github.com/nihei9/lalrgen/spec/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrammarBuilder_SemanticErrors(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		cause   error
	}{
		{
			caption: "a grammar without rules",
			src: `
name: test
`,
			cause: semErrNoProduction,
		},
		{
			caption: "an undefined start symbol",
			src: `
name: test
start: foo
bnf:
  s: a
`,
			cause: semErrUndefinedStart,
		},
		{
			caption: "a terminal cannot be the start symbol",
			src: `
name: test
start: a
bnf:
  s: a
`,
			cause: semErrUndefinedStart,
		},
		{
			caption: "error is reserved as a non-terminal name",
			src: `
name: test
bnf:
  s: a
  error: b
`,
			cause: semErrReservedName,
		},
		{
			caption: "$end cannot appear in a right-hand side",
			src: `
name: test
bnf:
  s: a $end
`,
			cause: semErrReservedName,
		},
		{
			caption: "a rule without alternatives",
			src: `
name: test
bnf:
  s: []
`,
			cause: semErrNoAlternative,
		},
		{
			caption: "duplicate productions",
			src: `
name: test
bnf:
  s:
    - a
    - a
`,
			cause: semErrDuplicateProduction,
		},
		{
			caption: "an unreachable non-terminal",
			src: `
name: test
bnf:
  s: a
  t: b
`,
			cause: semErrUnusedProduction,
		},
		{
			caption: "a non-terminal deriving no terminal string",
			src: `
name: test
bnf:
  s: a t
  t: t b
`,
			cause: semErrNonProductive,
		},
		{
			caption: "a symbol that is neither a declared token nor a non-terminal",
			src: `
name: test
tokens: a
bnf:
  s: a b
`,
			cause: semErrUndefinedSym,
		},
		{
			caption: "a token with the name of a non-terminal",
			src: `
name: test
tokens: a s
bnf:
  s: a
`,
			cause: semErrDuplicateName,
		},
		{
			caption: "an invalid associativity",
			src: `
name: test
operators:
  - [middle, a]
bnf:
  s: a
`,
			cause: semErrInvalidAssoc,
		},
		{
			caption: "associativity of a non-terminal",
			src: `
name: test
operators:
  - [left, s]
bnf:
  s: a
`,
			cause: semErrAssocNonTerminal,
		},
		{
			caption: "a symbol in two operator lines",
			src: `
name: test
operators:
  - [left, a]
  - [right, a]
bnf:
  s: a
`,
			cause: semErrDuplicateAssoc,
		},
		{
			caption: "%prec names a symbol without precedence",
			src: `
name: test
bnf:
  s: a %prec UMINUS
`,
			cause: semErrUndefinedPrec,
		},
		{
			caption: "%prec without a symbol",
			src: `
name: test
bnf:
  s: a %prec
`,
			cause: semErrInvalidPrecMarker,
		},
		{
			caption: "an unclosed quote",
			src: `
name: test
bnf:
  s: "'a"
`,
			cause: semErrUnclosedQuote,
		},
		{
			caption: "a lexical rule with an invalid pattern",
			src: `
name: test
bnf:
  s: a
lex:
  rules:
    - ["(", a]
`,
			cause: semErrInvalidLexRule,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			gs, err := ParseDocument(strings.NewReader(tt.src))
			require.NoError(t, err)

			b := GrammarBuilder{
				Spec: gs,
			}
			_, err = b.Build()
			require.Error(t, err)

			var specErrs verr.SpecErrors
			require.True(t, errors.As(err, &specErrs), "unexpected error type: %T", err)
			found := false
			for _, e := range specErrs {
				if errors.Is(e, tt.cause) {
					found = true
					break
				}
			}
			assert.True(t, found, "%v was not reported: %v", tt.cause, err)
		})
	}
}

func TestGrammarBuilder_SymbolNumbering(t *testing.T) {
	gram := buildTestGrammar(t, `
name: test
tokens: NUM
bnf:
  e: e '+' t | t
  t: NUM | '(' e ')'
`)

	terms := gram.symbolTable.TerminalTexts()
	assert.Equal(t, []string{"", "$end", "error", "NUM", "+", "(", ")"}, terms)

	nonTerms := gram.symbolTable.NonTerminalTexts()
	assert.Equal(t, []string{"", "$accept", "e", "t"}, nonTerms)

	start, ok := gram.productionSet.findByNum(productionNumStart)
	require.True(t, ok)
	assert.True(t, start.isStart())
	assert.Equal(t, 2, start.rhsLen)
}

func TestGrammarBuilder_NullableGrammar(t *testing.T) {
	gram := buildTestGrammar(t, `
name: nullable
tokens: [x]
startSymbol: S
bnf:
  S:
    - [A, "return $1"]
  A:
    - ["x A", "$$ = $2+'x'"]
    - ["", "$$ = '->'"]
lex:
  rules:
    - [x, x]
    - [y, y]
`)

	assert.Equal(t, []string{"", "$end", "error", "x"}, gram.symbolTable.TerminalTexts())
	assert.Equal(t, []string{"", "$accept", "S", "A"}, gram.symbolTable.NonTerminalTexts())

	start, ok := gram.productionSet.findByNum(productionNumStart)
	require.True(t, ok)
	lhs, ok := gram.symbolTable.ToText(start.rhs[0])
	require.True(t, ok)
	assert.Equal(t, "S", lhs)
}

func compileTestGrammar(t *testing.T, src string, opts ...CompileOption) (*spec.CompiledGrammar, *spec.Report) {
	t.Helper()

	gram := buildTestGrammar(t, src)
	cg, report, err := Compile(gram, append(opts, EnableReporting())...)
	require.NoError(t, err)
	require.NotNil(t, report)
	return cg, report
}

func TestCompile_Precedence(t *testing.T) {
	src := `
name: calc
operators:
  - [nonassoc, "<"]
  - [left, "+", "-"]
  - [left, "*", "/"]
  - [right, "^"]
  - [right, UMINUS]
bnf:
  e:
    - "e '<' e"
    - "e '+' e"
    - "e '-' e"
    - "e '*' e"
    - "e '/' e"
    - "e '^' e"
    - ["'-' e", "", {prec: UMINUS}]
    - NUM
`
	_, report := compileTestGrammar(t, src, DisallowDefaultResolution())

	require.NotEmpty(t, report.Conflicts)
	for _, c := range report.Conflicts {
		assert.False(t, c.IsDefaulted(), "state %v on %v was resolved by default", c.State, c.SymbolName)
	}

	type resolution struct {
		prod   string
		symbol string
	}
	prodOf := func(c *spec.Conflict) string {
		var act *spec.Action
		if c.Chosen.Type == spec.ActionReduce {
			act = c.Chosen
		} else {
			act = c.Discarded
		}
		if act.Type != spec.ActionReduce {
			return ""
		}
		p := report.Productions[act.Production]
		var b strings.Builder
		for i, sym := range p.RHS {
			if i > 0 {
				b.WriteString(" ")
			}
			if sym > 0 {
				b.WriteString(report.Terminals[sym].Name)
			} else {
				b.WriteString(report.NonTerminals[-sym].Name)
			}
		}
		return b.String()
	}

	chosen := map[resolution]string{}
	for _, c := range report.Conflicts {
		chosen[resolution{prod: prodOf(c), symbol: c.SymbolName}] = c.Chosen.Type
	}

	tests := []struct {
		caption string
		prod    string
		symbol  string
		action  string
	}{
		{
			caption: "+ is left-associative",
			prod:    "e + e",
			symbol:  "+",
			action:  spec.ActionReduce,
		},
		{
			caption: "* binds tighter than +",
			prod:    "e + e",
			symbol:  "*",
			action:  spec.ActionShift,
		},
		{
			caption: "+ binds looser than *",
			prod:    "e * e",
			symbol:  "+",
			action:  spec.ActionReduce,
		},
		{
			caption: "^ is right-associative",
			prod:    "e ^ e",
			symbol:  "^",
			action:  spec.ActionShift,
		},
		{
			caption: "< is non-associative",
			prod:    "",
			symbol:  "<",
			action:  spec.ActionError,
		},
		{
			caption: "unary minus takes the precedence of UMINUS",
			prod:    "- e",
			symbol:  "^",
			action:  spec.ActionReduce,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			act, ok := chosen[resolution{prod: tt.prod, symbol: tt.symbol}]
			require.True(t, ok, "no conflict between %v and %v", tt.prod, tt.symbol)
			assert.Equal(t, tt.action, act)
		})
	}

	t.Run("precedence levels in the report", func(t *testing.T) {
		levels := map[string]int{}
		for _, term := range report.Terminals[1:] {
			levels[term.Name] = term.Precedence
		}
		assert.Equal(t, 1, levels["<"])
		assert.Equal(t, 2, levels["+"])
		assert.Equal(t, 2, levels["-"])
		assert.Equal(t, 3, levels["*"])
		assert.Equal(t, 4, levels["^"])
		assert.Equal(t, 0, levels["NUM"])
	})
}

func TestCompile_Class(t *testing.T) {
	t.Run("LALR(1) resolves the grammar without conflicts", func(t *testing.T) {
		cg, report := compileTestGrammar(t, testLALRNotSLRGrammar)
		assert.Equal(t, spec.ClassLALR, cg.ParsingTable.Class)
		assert.Empty(t, report.Conflicts)
		assert.Equal(t, 10, cg.ParsingTable.StateCount)
	})

	t.Run("SLR(1) leaves a shift/reduce conflict", func(t *testing.T) {
		cg, report := compileTestGrammar(t, testLALRNotSLRGrammar, SpecifyClass(spec.ClassSLR))
		assert.Equal(t, spec.ClassSLR, cg.ParsingTable.Class)
		require.Len(t, report.Conflicts, 1)
		c := report.Conflicts[0]
		assert.Equal(t, spec.ConflictShiftReduce, c.Kind)
		assert.Equal(t, "eq", c.SymbolName)
		assert.Equal(t, spec.ActionShift, c.Chosen.Type)
		assert.Equal(t, spec.ResolvedByShift, c.ResolvedBy)
	})

	t.Run("an unknown class", func(t *testing.T) {
		gram := buildTestGrammar(t, testLALRNotSLRGrammar)
		_, _, err := Compile(gram, SpecifyClass("lr"))
		assert.Error(t, err)
	})
}

func TestCompile_DefaultResolution(t *testing.T) {
	danglingElse := `
name: test
bnf:
  s: i s | i s e s | o
`
	reduceReduce := `
name: test
bnf:
  s: a | b
  a: x
  b: x
`

	t.Run("shift wins a shift/reduce conflict", func(t *testing.T) {
		cg, report := compileTestGrammar(t, danglingElse)
		require.Len(t, report.Conflicts, 1)
		c := report.Conflicts[0]
		assert.Equal(t, spec.ConflictShiftReduce, c.Kind)
		assert.Equal(t, "e", c.SymbolName)
		assert.Equal(t, spec.ActionShift, c.Chosen.Type)
		assert.Equal(t, spec.ActionReduce, c.Discarded.Type)
		assert.True(t, c.IsDefaulted())

		tab := cg.ParsingTable
		assert.Less(t, tab.Action[c.State*tab.TerminalCount+c.Symbol], 0)
	})

	t.Run("the production declared first wins a reduce/reduce conflict", func(t *testing.T) {
		_, report := compileTestGrammar(t, reduceReduce)
		require.Len(t, report.Conflicts, 1)
		c := report.Conflicts[0]
		assert.Equal(t, spec.ConflictReduceReduce, c.Kind)
		assert.Equal(t, "$end", c.SymbolName)
		assert.Equal(t, 3, c.Chosen.Production)
		assert.Equal(t, 4, c.Discarded.Production)
		assert.Equal(t, spec.ResolvedByProdOrder, c.ResolvedBy)
	})

	t.Run("defaulted conflicts are errors when default resolution is disallowed", func(t *testing.T) {
		for _, src := range []string{danglingElse, reduceReduce} {
			gram := buildTestGrammar(t, src)
			_, _, err := Compile(gram, DisallowDefaultResolution())
			require.Error(t, err)
			var w *ConflictWarning
			require.True(t, errors.As(err, &w))
			assert.True(t, w.IsDefaulted())
		}
	})
}

func TestCompile_ParsingTable(t *testing.T) {
	src := `
name: test
actionInclude: "function helper() {}"
bnf:
  s:
    - ["a ';'", "$$ = $1"]
    - ["error ';'", "recover"]
lex:
  rules:
    - ['\s+', ""]
    - [a, a]
    - [";", ";"]
`
	cg, report := compileTestGrammar(t, src)
	tab := cg.ParsingTable

	assert.Equal(t, "test", cg.Name)
	assert.Equal(t, "function helper() {}", cg.ActionInclude)
	assert.Equal(t, []string{"", "$end", "error", "a", ";"}, tab.Terminals)
	assert.Equal(t, []string{"", "$accept", "s"}, tab.NonTerminals)
	assert.Equal(t, 1, tab.EOFSymbol)
	assert.Equal(t, 2, tab.ErrorSymbol)
	assert.Equal(t, 0, tab.StartProduction)
	assert.Equal(t, len(tab.Terminals), tab.TerminalCount)
	assert.Equal(t, len(tab.NonTerminals), tab.NonTerminalCount)
	assert.Len(t, tab.Action, tab.StateCount*tab.TerminalCount)
	assert.Len(t, tab.GoTo, tab.StateCount*tab.NonTerminalCount)
	assert.Equal(t, []int{1, 2, 2}, tab.LHSSymbols)
	assert.Equal(t, []int{2, 2, 2}, tab.AlternativeSymbolCounts)
	assert.Equal(t, []string{"", "$$ = $1", "recover"}, tab.ProductionActions)
	assert.Equal(t, 1, tab.ErrorTrapperStates[tab.InitialState])
	assert.Len(t, report.States, tab.StateCount)

	accepts := 0
	for _, act := range tab.Action {
		if act == 1 {
			accepts++
		}
	}
	assert.Equal(t, 1, accepts)

	require.NotNil(t, cg.Lexical)
	assert.Nil(t, cg.Lexical.DFA)
}

func TestCompile_DFALexer(t *testing.T) {
	src := `
name: test
bnf:
  s: a b
lex:
  rules:
    - [" +", ""]
    - [a, a]
    - [b, b]
`
	cg, _ := compileTestGrammar(t, src, EnableDFALexer())
	require.NotNil(t, cg.Lexical)
	require.NotNil(t, cg.Lexical.DFA)
	assert.NotEmpty(t, cg.Lexical.DFA.Spec)
}

func TestCompile_Deterministic(t *testing.T) {
	src := `
name: calc
operators:
  - [left, "+"]
  - [left, "*"]
bnf:
  e: e '+' e | e '*' e | '(' e ')' | NUM
`
	cg1, _ := compileTestGrammar(t, src)
	cg2, _ := compileTestGrammar(t, src)

	j1, err := json.Marshal(cg1)
	require.NoError(t, err)
	j2, err := json.Marshal(cg2)
	require.NoError(t, err)
	assert.Equal(t, string(j1), string(j2))

	f1, err := Fingerprint(cg1.ParsingTable)
	require.NoError(t, err)
	f2, err := Fingerprint(cg2.ParsingTable)
	require.NoError(t, err)
	assert.Equal(t, f1, f2)

	other, _ := compileTestGrammar(t, testLALRNotSLRGrammar)
	f3, err := Fingerprint(other.ParsingTable)
	require.NoError(t, err)
	assert.NotEqual(t, f1, f3)
}

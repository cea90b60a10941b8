package grammar

import (
	"testing"

	"github.com/nihei9/lalrgen/grammar/symbol"
)

type follow struct {
	nonTermText string
	symbols     []string
}

func TestFollowSet(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		follow  []follow
	}{
		{
			caption: "productions contain only non-empty productions",
			src: `
name: test
bnf:
  expr: expr add term | term
  term: term mul factor | factor
  factor: l_paren expr r_paren | id
`,
			follow: []follow{
				{nonTermText: "$accept", symbols: []string{}},
				{nonTermText: "expr", symbols: []string{"add", "r_paren", "$end"}},
				{nonTermText: "term", symbols: []string{"add", "mul", "r_paren", "$end"}},
				{nonTermText: "factor", symbols: []string{"add", "mul", "r_paren", "$end"}},
			},
		},
		{
			caption: "productions contain an empty start production",
			src: `
name: test
bnf:
  s: ""
`,
			follow: []follow{
				{nonTermText: "$accept", symbols: []string{}},
				{nonTermText: "s", symbols: []string{"$end"}},
			},
		},
		{
			caption: "productions contain an empty production",
			src: `
name: test
bnf:
  s: foo
  foo: ""
`,
			follow: []follow{
				{nonTermText: "$accept", symbols: []string{}},
				{nonTermText: "s", symbols: []string{"$end"}},
				{nonTermText: "foo", symbols: []string{"$end"}},
			},
		},
		{
			caption: "a nullable non-terminal passes FOLLOW through",
			src: `
name: test
bnf:
  s: foo bar baz
  bar:
    - bar_x
    - ""
  foo: foo_x
  baz: baz_x
`,
			follow: []follow{
				{nonTermText: "$accept", symbols: []string{}},
				{nonTermText: "s", symbols: []string{"$end"}},
				{nonTermText: "foo", symbols: []string{"bar_x", "baz_x"}},
				{nonTermText: "bar", symbols: []string{"baz_x"}},
				{nonTermText: "baz", symbols: []string{"$end"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			flw, gram := genActualFollow(t, tt.src)

			for _, ttFollow := range tt.follow {
				sym, ok := gram.symbolTable.ToSymbol(ttFollow.nonTermText)
				if !ok {
					t.Fatalf("a symbol '%v' was not found", ttFollow.nonTermText)
				}

				actualFollow, err := flw.find(sym)
				if err != nil {
					t.Fatalf("failed to get a FOLLOW entry; non-terminal symbol: %v (%v), error: %v", ttFollow.nonTermText, sym, err)
				}

				expectedFollow := genExpectedFollowEntry(t, ttFollow.symbols, gram.symbolTable)

				testFollow(t, actualFollow, expectedFollow)
			}
		})
	}
}

func genActualFollow(t *testing.T, src string) (*followSet, *Grammar) {
	gram := buildTestGrammar(t, src)
	fst, err := genFirstSet(gram.productionSet)
	if err != nil {
		t.Fatal(err)
	}
	flw, err := genFollowSet(gram.productionSet, fst)
	if err != nil {
		t.Fatal(err)
	}
	if flw == nil {
		t.Fatal("genFollowSet returned nil without any error")
	}

	return flw, gram
}

func genExpectedFollowEntry(t *testing.T, symbols []string, symTab *symbol.SymbolTableReader) *followEntry {
	t.Helper()

	entry := newFollowEntry()
	for _, sym := range symbols {
		s, ok := symTab.ToSymbol(sym)
		if !ok {
			t.Fatalf("a symbol '%v' was not found", sym)
		}

		entry.add(s)
	}

	return entry
}

func testFollow(t *testing.T, actual, expected *followEntry) {
	t.Helper()

	if !actual.symbols.equals(expected.symbols) {
		t.Fatalf("invalid FOLLOW entry; want: %v, got: %v", expected.symbols.symbols(), actual.symbols.symbols())
	}
}

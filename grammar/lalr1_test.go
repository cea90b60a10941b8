package grammar

import (
	"testing"

	"github.com/nihei9/lalrgen/grammar/symbol"
)

// This grammar belongs to the LALR(1) class, not SLR(1).
const testLALRNotSLRGrammar = `
name: test
bnf:
  S: L eq R | R
  L: ref R | id
  R: L
`

func TestGenLALR1Automaton(t *testing.T) {
	gram := buildTestGrammar(t, testLALRNotSLRGrammar)

	var automaton *lalr1Automaton
	{
		lr0, err := genLR0Automaton(gram.productionSet, gram.augmentedStartSymbol, gram.errorSymbol)
		if err != nil {
			t.Fatalf("failed to create a LR0 automaton: %v", err)
		}

		firstSet, err := genFirstSet(gram.productionSet)
		if err != nil {
			t.Fatalf("failed to create a FIRST set: %v", err)
		}

		automaton, err = genLALR1Automaton(lr0, gram.productionSet, firstSet)
		if err != nil {
			t.Fatalf("failed to create a LALR1 automaton: %v", err)
		}
		if automaton == nil {
			t.Fatalf("genLALR1Automaton returns nil without any error")
		}
	}

	genSym := newTestSymbolGenerator(t, gram.symbolTable)
	genProd := newTestProductionGenerator(t, genSym, gram.productionSet)
	genLR0Item := newTestLR0ItemGenerator(t, genProd)

	eof := symbol.SymbolEOF
	eq := genSym("eq")

	kernels := [][]*lrItem{
		{
			genLR0Item("$accept", 0, "S", "$end"),
		},
		{
			genLR0Item("$accept", 1, "S", "$end"),
		},
		{
			genLR0Item("S", 1, "L", "eq", "R"),
			withLookAhead(genLR0Item("R", 1, "L"), eof),
		},
		{
			withLookAhead(genLR0Item("S", 1, "R"), eof),
		},
		{
			withLookAhead(genLR0Item("L", 1, "ref", "R"), eq, eof),
		},
		{
			withLookAhead(genLR0Item("L", 1, "id"), eq, eof),
		},
		{
			withLookAhead(genLR0Item("S", 2, "L", "eq", "R"), eof),
		},
		{
			withLookAhead(genLR0Item("L", 2, "ref", "R"), eq, eof),
		},
		{
			withLookAhead(genLR0Item("R", 1, "L"), eq, eof),
		},
		{
			withLookAhead(genLR0Item("S", 3, "L", "eq", "R"), eof),
		},
	}

	expectedStates := []*expectedLRState{
		{
			kernelItems: kernels[0],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("S"):   kernels[1],
				genSym("L"):   kernels[2],
				genSym("R"):   kernels[3],
				genSym("ref"): kernels[4],
				genSym("id"):  kernels[5],
			},
		},
		{
			kernelItems: kernels[1],
		},
		{
			kernelItems: kernels[2],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("eq"): kernels[6],
			},
			reducibleProds: []*production{
				genProd("R", "L"),
			},
		},
		{
			kernelItems: kernels[3],
			reducibleProds: []*production{
				genProd("S", "R"),
			},
		},
		{
			kernelItems: kernels[4],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("R"):   kernels[7],
				genSym("L"):   kernels[8],
				genSym("ref"): kernels[4],
				genSym("id"):  kernels[5],
			},
		},
		{
			kernelItems: kernels[5],
			reducibleProds: []*production{
				genProd("L", "id"),
			},
		},
		{
			kernelItems: kernels[6],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("R"):   kernels[9],
				genSym("L"):   kernels[8],
				genSym("ref"): kernels[4],
				genSym("id"):  kernels[5],
			},
		},
		{
			kernelItems: kernels[7],
			reducibleProds: []*production{
				genProd("L", "ref", "R"),
			},
		},
		{
			kernelItems: kernels[8],
			reducibleProds: []*production{
				genProd("R", "L"),
			},
		},
		{
			kernelItems: kernels[9],
			reducibleProds: []*production{
				genProd("S", "L", "eq", "R"),
			},
		},
	}

	testLRAutomaton(t, expectedStates, automaton.lr0Automaton)
}

func TestGenLALR1Automaton_EmptyProductions(t *testing.T) {
	src := `
name: test
bnf:
  s: foo bar
  foo:
    - foo_x
    - ""
  bar:
    - bar_x
    - ""
`

	gram := buildTestGrammar(t, src)
	lr0, err := genLR0Automaton(gram.productionSet, gram.augmentedStartSymbol, gram.errorSymbol)
	if err != nil {
		t.Fatal(err)
	}
	firstSet, err := genFirstSet(gram.productionSet)
	if err != nil {
		t.Fatal(err)
	}
	automaton, err := genLALR1Automaton(lr0, gram.productionSet, firstSet)
	if err != nil {
		t.Fatal(err)
	}

	genSym := newTestSymbolGenerator(t, gram.symbolTable)
	genProd := newTestProductionGenerator(t, genSym, gram.productionSet)

	eof := symbol.SymbolEOF
	barX := genSym("bar_x")

	tests := []struct {
		caption   string
		kernel    []string
		dot       int
		prod      []string
		lookAhead []symbol.Symbol
	}{
		{
			caption:   "foo → ε in the initial state",
			kernel:    []string{"$accept", "s", "$end"},
			dot:       0,
			prod:      []string{"foo"},
			lookAhead: []symbol.Symbol{eof, barX},
		},
		{
			caption:   "foo → foo_x",
			kernel:    []string{"foo", "foo_x"},
			dot:       1,
			prod:      []string{"foo", "foo_x"},
			lookAhead: []symbol.Symbol{eof, barX},
		},
		{
			caption:   "bar → ε after foo",
			kernel:    []string{"s", "foo", "bar"},
			dot:       1,
			prod:      []string{"bar"},
			lookAhead: []symbol.Symbol{eof},
		},
		{
			caption:   "bar → bar_x",
			kernel:    []string{"bar", "bar_x"},
			dot:       1,
			prod:      []string{"bar", "bar_x"},
			lookAhead: []symbol.Symbol{eof},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			kItem, err := newLR0Item(genProd(tt.kernel[0], tt.kernel[1:]...), tt.dot)
			if err != nil {
				t.Fatal(err)
			}
			k, err := newKernel([]*lrItem{kItem})
			if err != nil {
				t.Fatal(err)
			}
			state, ok := automaton.stateByKernel(k.id)
			if !ok {
				t.Fatalf("a state was not found")
			}
			la, err := automaton.lookAheadOf(state, genProd(tt.prod[0], tt.prod[1:]...).num)
			if err != nil {
				t.Fatal(err)
			}
			if !newSymbolSet(la...).equals(newSymbolSet(tt.lookAhead...)) {
				t.Errorf("unexpected look-ahead symbols; want: %v, got: %v", tt.lookAhead, la)
			}
		})
	}
}

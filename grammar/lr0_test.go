package grammar

import (
	"testing"

	"github.com/nihei9/lalrgen/grammar/symbol"
)

func TestGenLR0Automaton(t *testing.T) {
	src := `
name: test
bnf:
  expr: expr add term | term
  term: term mul factor | factor
  factor: l_paren expr r_paren | id
`

	gram := buildTestGrammar(t, src)
	automaton, err := genLR0Automaton(gram.productionSet, gram.augmentedStartSymbol, gram.errorSymbol)
	if err != nil {
		t.Fatalf("failed to create a LR0 automaton: %v", err)
	}
	if automaton == nil {
		t.Fatalf("genLR0Automaton returns nil without any error")
	}

	genSym := newTestSymbolGenerator(t, gram.symbolTable)
	genProd := newTestProductionGenerator(t, genSym, gram.productionSet)
	genLR0Item := newTestLR0ItemGenerator(t, genProd)

	initialState := automaton.states[automaton.initialState]
	if initialState.findItem(genLR0Item("$accept", 0, "expr", "$end").id) == nil {
		t.Errorf("the initial state doesn't have the start item")
	}

	kernels := [][]*lrItem{
		{
			genLR0Item("$accept", 0, "expr", "$end"),
		},
		{
			genLR0Item("$accept", 1, "expr", "$end"),
			genLR0Item("expr", 1, "expr", "add", "term"),
		},
		{
			genLR0Item("expr", 1, "term"),
			genLR0Item("term", 1, "term", "mul", "factor"),
		},
		{
			genLR0Item("term", 1, "factor"),
		},
		{
			genLR0Item("factor", 1, "l_paren", "expr", "r_paren"),
		},
		{
			genLR0Item("factor", 1, "id"),
		},
		{
			genLR0Item("expr", 2, "expr", "add", "term"),
		},
		{
			genLR0Item("term", 2, "term", "mul", "factor"),
		},
		{
			genLR0Item("expr", 1, "expr", "add", "term"),
			genLR0Item("factor", 2, "l_paren", "expr", "r_paren"),
		},
		{
			genLR0Item("expr", 3, "expr", "add", "term"),
			genLR0Item("term", 1, "term", "mul", "factor"),
		},
		{
			genLR0Item("term", 3, "term", "mul", "factor"),
		},
		{
			genLR0Item("factor", 3, "l_paren", "expr", "r_paren"),
		},
	}

	expectedStates := []*expectedLRState{
		{
			kernelItems: kernels[0],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("expr"):    kernels[1],
				genSym("term"):    kernels[2],
				genSym("factor"):  kernels[3],
				genSym("l_paren"): kernels[4],
				genSym("id"):      kernels[5],
			},
		},
		{
			kernelItems: kernels[1],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("add"): kernels[6],
			},
		},
		{
			kernelItems: kernels[2],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("mul"): kernels[7],
			},
			reducibleProds: []*production{
				genProd("expr", "term"),
			},
		},
		{
			kernelItems: kernels[3],
			reducibleProds: []*production{
				genProd("term", "factor"),
			},
		},
		{
			kernelItems: kernels[4],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("expr"):    kernels[8],
				genSym("term"):    kernels[2],
				genSym("factor"):  kernels[3],
				genSym("l_paren"): kernels[4],
				genSym("id"):      kernels[5],
			},
		},
		{
			kernelItems: kernels[5],
			reducibleProds: []*production{
				genProd("factor", "id"),
			},
		},
		{
			kernelItems: kernels[6],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("term"):    kernels[9],
				genSym("factor"):  kernels[3],
				genSym("l_paren"): kernels[4],
				genSym("id"):      kernels[5],
			},
		},
		{
			kernelItems: kernels[7],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("factor"):  kernels[10],
				genSym("l_paren"): kernels[4],
				genSym("id"):      kernels[5],
			},
		},
		{
			kernelItems: kernels[8],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("add"):     kernels[6],
				genSym("r_paren"): kernels[11],
			},
		},
		{
			kernelItems: kernels[9],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("mul"): kernels[7],
			},
			reducibleProds: []*production{
				genProd("expr", "expr", "add", "term"),
			},
		},
		{
			kernelItems: kernels[10],
			reducibleProds: []*production{
				genProd("term", "term", "mul", "factor"),
			},
		},
		{
			kernelItems: kernels[11],
			reducibleProds: []*production{
				genProd("factor", "l_paren", "expr", "r_paren"),
			},
		},
	}

	testLRAutomaton(t, expectedStates, automaton)

	acceptings := 0
	for _, state := range automaton.states {
		if state.accepting {
			acceptings++
		}
	}
	if acceptings != 1 {
		t.Errorf("unexpected accepting state count; want: 1, got: %v", acceptings)
	}
}

func TestGenLR0Automaton_EmptyProductions(t *testing.T) {
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
	automaton, err := genLR0Automaton(gram.productionSet, gram.augmentedStartSymbol, gram.errorSymbol)
	if err != nil {
		t.Fatalf("failed to create a LR0 automaton: %v", err)
	}

	genSym := newTestSymbolGenerator(t, gram.symbolTable)
	genProd := newTestProductionGenerator(t, genSym, gram.productionSet)
	genLR0Item := newTestLR0ItemGenerator(t, genProd)

	kernels := [][]*lrItem{
		{
			genLR0Item("$accept", 0, "s", "$end"),
		},
		{
			genLR0Item("$accept", 1, "s", "$end"),
		},
		{
			genLR0Item("s", 1, "foo", "bar"),
		},
		{
			genLR0Item("foo", 1, "foo_x"),
		},
		{
			genLR0Item("s", 2, "foo", "bar"),
		},
		{
			genLR0Item("bar", 1, "bar_x"),
		},
	}

	expectedStates := []*expectedLRState{
		{
			kernelItems: kernels[0],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("s"):     kernels[1],
				genSym("foo"):   kernels[2],
				genSym("foo_x"): kernels[3],
			},
			reducibleProds: []*production{
				genProd("foo"),
			},
			emptyProdItems: []*lrItem{
				genLR0Item("foo", 0),
			},
		},
		{
			kernelItems: kernels[1],
		},
		{
			kernelItems: kernels[2],
			nextStates: map[symbol.Symbol][]*lrItem{
				genSym("bar"):   kernels[4],
				genSym("bar_x"): kernels[5],
			},
			reducibleProds: []*production{
				genProd("bar"),
			},
			emptyProdItems: []*lrItem{
				genLR0Item("bar", 0),
			},
		},
		{
			kernelItems: kernels[3],
			reducibleProds: []*production{
				genProd("foo", "foo_x"),
			},
		},
		{
			kernelItems: kernels[4],
			reducibleProds: []*production{
				genProd("s", "foo", "bar"),
			},
		},
		{
			kernelItems: kernels[5],
			reducibleProds: []*production{
				genProd("bar", "bar_x"),
			},
		},
	}

	testLRAutomaton(t, expectedStates, automaton)
}

func TestGenLR0Automaton_StateNumbering(t *testing.T) {
	src := `
name: test
bnf:
  expr: expr add term | term
  term: term mul factor | factor
  factor: l_paren expr r_paren | id
`

	gram := buildTestGrammar(t, src)
	a1, err := genLR0Automaton(gram.productionSet, gram.augmentedStartSymbol, gram.errorSymbol)
	if err != nil {
		t.Fatal(err)
	}
	a2, err := genLR0Automaton(gram.productionSet, gram.augmentedStartSymbol, gram.errorSymbol)
	if err != nil {
		t.Fatal(err)
	}
	if len(a1.states) != len(a2.states) {
		t.Fatalf("state count is mismatched: %v, %v", len(a1.states), len(a2.states))
	}
	for i, s := range a1.states {
		if s.num.Int() != i {
			t.Errorf("state %v is stored at %v", s.num, i)
		}
		if a2.states[i].id != s.id {
			t.Errorf("state %v has a different kernel in another run", i)
		}
	}
}

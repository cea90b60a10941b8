package grammar

import (
	"strings"
	"testing"

	"github.com/nihei9/lalrgen/grammar/symbol"
)

// buildTestGrammar builds a grammar from a YAML document.
func buildTestGrammar(t *testing.T, src string) *Grammar {
	t.Helper()

	gs, err := ParseDocument(strings.NewReader(src))
	if err != nil {
		t.Fatalf("failed to parse a grammar document: %v", err)
	}
	b := GrammarBuilder{
		Spec: gs,
	}
	gram, err := b.Build()
	if err != nil {
		t.Fatalf("failed to build a grammar: %v", err)
	}
	return gram
}

type testSymbolGenerator func(text string) symbol.Symbol

func newTestSymbolGenerator(t *testing.T, symTab *symbol.SymbolTableReader) testSymbolGenerator {
	return func(text string) symbol.Symbol {
		t.Helper()

		sym, ok := symTab.ToSymbol(text)
		if !ok {
			t.Fatalf("symbol was not found: %v", text)
		}
		return sym
	}
}

type testProductionGenerator func(lhs string, rhs ...string) *production

// newTestProductionGenerator looks productions up in prods so that the generated productions carry
// their real numbers.
func newTestProductionGenerator(t *testing.T, genSym testSymbolGenerator, prods *productionSet) testProductionGenerator {
	return func(lhs string, rhs ...string) *production {
		t.Helper()

		rhsSym := []symbol.Symbol{}
		for _, text := range rhs {
			rhsSym = append(rhsSym, genSym(text))
		}
		prod, ok := prods.findByID(genProductionID(genSym(lhs), rhsSym))
		if !ok {
			t.Fatalf("production was not found: %v → %v", lhs, rhs)
		}

		return prod
	}
}

type testLR0ItemGenerator func(lhs string, dot int, rhs ...string) *lrItem

func newTestLR0ItemGenerator(t *testing.T, genProd testProductionGenerator) testLR0ItemGenerator {
	return func(lhs string, dot int, rhs ...string) *lrItem {
		t.Helper()

		prod := genProd(lhs, rhs...)
		item, err := newLR0Item(prod, dot)
		if err != nil {
			t.Fatalf("failed to create a LR0 item: %v", err)
		}

		return item
	}
}

func withLookAhead(item *lrItem, lookAhead ...symbol.Symbol) *lrItem {
	for _, a := range lookAhead {
		item.lookAhead.symbols.add(a)
	}

	return item
}

type expectedLRState struct {
	kernelItems    []*lrItem
	nextStates     map[symbol.Symbol][]*lrItem
	reducibleProds []*production
	emptyProdItems []*lrItem
}

// testLRAutomaton compares states by their kernels, not by their numbers.
func testLRAutomaton(t *testing.T, expected []*expectedLRState, automaton *lr0Automaton) {
	t.Helper()

	if len(automaton.states) != len(expected) {
		t.Errorf("state count is mismatched; want: %v, got: %v", len(expected), len(automaton.states))
	}

	for _, eState := range expected {
		eKernel, err := newKernel(eState.kernelItems)
		if err != nil {
			t.Fatalf("failed to create a kernel item: %v", err)
		}

		state, ok := automaton.stateByKernel(eKernel.id)
		if !ok {
			t.Errorf("a state was not found; kernel: %v", eState.kernelItems)
			continue
		}

		if len(state.items) != len(eKernel.items) {
			t.Errorf("kernel item count is mismatched; state: %v, want: %v, got: %v", state.num, len(eKernel.items), len(state.items))
		}
		for _, eKItem := range eKernel.items {
			kItem := state.findItem(eKItem.id)
			if kItem == nil {
				t.Errorf("kernel item was not found; state: %v, item: %v", state.num, eKItem.id)
				continue
			}
			if eKItem.lookAhead.symbols.len() == 0 {
				continue
			}
			if !kItem.lookAhead.symbols.equals(eKItem.lookAhead.symbols) {
				t.Errorf("look-ahead symbols are mismatched; state: %v, item: %v, want: %v, got: %v",
					state.num, eKItem.id, eKItem.lookAhead.symbols.symbols(), kItem.lookAhead.symbols.symbols())
			}
		}

		if len(state.next) != len(eState.nextStates) {
			t.Errorf("next state count is mismatched; state: %v, want: %v, got: %v", state.num, len(eState.nextStates), len(state.next))
		}
		for sym, eNextItems := range eState.nextStates {
			eNextKernel, err := newKernel(eNextItems)
			if err != nil {
				t.Fatalf("failed to create a kernel item: %v", err)
			}
			nextNum, ok := state.next[sym]
			if !ok {
				t.Errorf("next state was not found; state: %v, symbol: %v", state.num, sym)
				continue
			}
			if automaton.states[nextNum].id != eNextKernel.id {
				t.Errorf("next state is mismatched; state: %v, symbol: %v", state.num, sym)
			}
		}

		if len(state.reducible) != len(eState.reducibleProds) {
			t.Errorf("reducible production count is mismatched; state: %v, want: %v, got: %v", state.num, len(eState.reducibleProds), len(state.reducible))
		}
		for _, eProd := range eState.reducibleProds {
			if _, ok := state.reducible[eProd.num]; !ok {
				t.Errorf("reducible production was not found; state: %v, production: %v", state.num, eProd.num)
			}
		}

		if len(state.emptyProdItems) != len(eState.emptyProdItems) {
			t.Errorf("empty production item count is mismatched; state: %v, want: %v, got: %v", state.num, len(eState.emptyProdItems), len(state.emptyProdItems))
		}
		for _, eItem := range eState.emptyProdItems {
			found := false
			for _, item := range state.emptyProdItems {
				if item.id != eItem.id {
					continue
				}
				found = true
				if eItem.lookAhead.symbols.len() > 0 && !item.lookAhead.symbols.equals(eItem.lookAhead.symbols) {
					t.Errorf("look-ahead symbols of an empty production item are mismatched; state: %v, item: %v", state.num, eItem.id)
				}
			}
			if !found {
				t.Errorf("empty production item was not found; state: %v, item: %v", state.num, eItem.id)
			}
		}
	}
}

package grammar

import (
	"fmt"

	"github.com/nihei9/lalrgen/grammar/symbol"
)

type slr1Automaton struct {
	*lr0Automaton
	prods  *productionSet
	follow *followSet
}

// genSLR1Automaton uses FOLLOW of the LHS as the look-ahead of every reducible item. It accepts a
// strict subset of the LALR(1) grammars but needs no propagation pass.
func genSLR1Automaton(lr0 *lr0Automaton, prods *productionSet, follow *followSet) (*slr1Automaton, error) {
	for _, state := range lr0.states {
		for _, prodNum := range state.reducibleProductions() {
			prod, ok := prods.findByNum(prodNum)
			if !ok {
				return nil, fmt.Errorf("reducible production not found: %v", prodNum)
			}
			if prod.isStart() {
				continue
			}

			flw, err := follow.find(prod.lhs)
			if err != nil {
				return nil, err
			}

			reducibleItem := state.findReducibleItem(prodNum)
			if reducibleItem == nil {
				return nil, fmt.Errorf("reducible item not found; state: %v, production: %v", state.num, prodNum)
			}
			reducibleItem.lookAhead.symbols.merge(flw.symbols)
		}
	}

	return &slr1Automaton{
		lr0Automaton: lr0,
		prods:        prods,
		follow:       follow,
	}, nil
}

func (a *slr1Automaton) lookAheadOf(state *lrState, prod productionNum) ([]symbol.Symbol, error) {
	item := state.findReducibleItem(prod)
	if item == nil {
		return nil, fmt.Errorf("reducible item not found; state: %v, production: %v", state.num, prod)
	}
	return item.lookAhead.symbols.symbols(), nil
}

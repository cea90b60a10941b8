package grammar

import (
	"fmt"

	"github.com/nihei9/lalrgen/grammar/symbol"
)

type stateAndLRItem struct {
	state  stateNum
	itemID lrItemID
}

type propagation struct {
	src  *stateAndLRItem
	dest []*stateAndLRItem
}

type lalr1Automaton struct {
	*lr0Automaton
}

// genLALR1Automaton attaches LALR(1) look-ahead symbols to the LR(0) automaton. For each kernel item
// it computes an LR(1) closure with a placeholder look-ahead: symbols generated inside the closure are
// spontaneous, and items inheriting the placeholder propagate the kernel item's look-ahead to their
// goto targets. The propagation links are then iterated to a fixed point. The result equals merging
// the canonical LR(1) states that share a core.
func genLALR1Automaton(lr0 *lr0Automaton, prods *productionSet, first *firstSet) (*lalr1Automaton, error) {
	var props []*propagation
	for _, state := range lr0.states {
		for _, kItem := range state.items {
			items, err := genLALR1Closure(kItem, prods, first)
			if err != nil {
				return nil, err
			}

			kItem.lookAhead.propagation = true

			var propDests []*stateAndLRItem
			for _, item := range items {
				if item.accepting {
					continue
				}

				if item.reducible {
					p, ok := prods.findByNum(item.prod)
					if !ok {
						return nil, fmt.Errorf("production not found: %v", item.prod)
					}

					if p.isEmpty() {
						var reducibleItem *lrItem
						for _, it := range state.emptyProdItems {
							if it.id != item.id {
								continue
							}

							reducibleItem = it
							break
						}
						if reducibleItem == nil {
							return nil, fmt.Errorf("reducible item not found: %v", item.id)
						}
						reducibleItem.lookAhead.symbols.merge(item.lookAhead.symbols)

						if item.lookAhead.propagation {
							propDests = append(propDests, &stateAndLRItem{
								state:  state.num,
								itemID: item.id,
							})
						}
					}

					continue
				}

				nextState, ok := state.next[item.dottedSymbol]
				if !ok {
					return nil, fmt.Errorf("no transition on %v from state %v", item.dottedSymbol, state.num)
				}
				nextItemID := lrItemID{
					prod: item.prod,
					dot:  item.dot + 1,
				}

				if item.lookAhead.propagation {
					propDests = append(propDests, &stateAndLRItem{
						state:  nextState,
						itemID: nextItemID,
					})
					continue
				}

				nextItem := lr0.states[nextState].findItem(nextItemID)
				if nextItem == nil {
					return nil, fmt.Errorf("item not found: %v", nextItemID)
				}
				nextItem.lookAhead.symbols.merge(item.lookAhead.symbols)
			}
			if len(propDests) == 0 {
				continue
			}

			props = append(props, &propagation{
				src: &stateAndLRItem{
					state:  state.num,
					itemID: kItem.id,
				},
				dest: propDests,
			})
		}
	}

	err := propagateLookAhead(lr0, props)
	if err != nil {
		return nil, fmt.Errorf("failed to propagate look-ahead symbols: %v", err)
	}

	return &lalr1Automaton{
		lr0Automaton: lr0,
	}, nil
}

// genLALR1Closure computes the closure of a single kernel item. Items whose look-ahead set contains the
// placeholder are marked with propagation instead of carrying a symbol.
func genLALR1Closure(srcItem *lrItem, prods *productionSet, first *firstSet) ([]*lrItem, error) {
	items := []*lrItem{}
	knownItems := map[lrItemID]*symbolSet{}
	knownItemsProp := map[lrItemID]struct{}{}
	uncheckedItems := []*lrItem{}

	// The kernel item itself only carries the placeholder.
	src := &lrItem{}
	*src = *srcItem
	src.lookAhead = lookAhead{
		symbols:     newSymbolSet(),
		propagation: true,
	}
	items = append(items, src)
	uncheckedItems = append(uncheckedItems, src)
	for len(uncheckedItems) > 0 {
		nextUncheckedItems := []*lrItem{}
		for _, item := range uncheckedItems {
			if !item.dottedSymbol.IsNonTerminal() {
				continue
			}

			p, ok := prods.findByNum(item.prod)
			if !ok {
				return nil, fmt.Errorf("production not found: %v", item.prod)
			}

			fst, err := first.find(p, item.dot+1)
			if err != nil {
				return nil, err
			}

			lookAheadSyms := fst.symbols.clone()
			if fst.empty {
				lookAheadSyms.merge(item.lookAhead.symbols)
			}

			ps, _ := prods.findByLHS(item.dottedSymbol)
			for _, prod := range ps {
				for _, a := range lookAheadSyms.symbols() {
					newItem, err := newLR0Item(prod, 0)
					if err != nil {
						return nil, err
					}
					known, exist := knownItems[newItem.id]
					if exist && known.contains(a) {
						continue
					}
					if !exist {
						known = newSymbolSet()
						knownItems[newItem.id] = known
					}
					known.add(a)

					newItem.lookAhead.symbols.add(a)
					items = append(items, newItem)
					nextUncheckedItems = append(nextUncheckedItems, newItem)
				}

				if fst.empty && item.lookAhead.propagation {
					newItem, err := newLR0Item(prod, 0)
					if err != nil {
						return nil, err
					}
					if _, exist := knownItemsProp[newItem.id]; exist {
						continue
					}

					newItem.lookAhead.propagation = true

					items = append(items, newItem)
					knownItemsProp[newItem.id] = struct{}{}
					nextUncheckedItems = append(nextUncheckedItems, newItem)
				}
			}
		}
		uncheckedItems = nextUncheckedItems
	}

	return items, nil
}

func propagateLookAhead(lr0 *lr0Automaton, props []*propagation) error {
	for {
		changed := false
		for _, prop := range props {
			srcItem := lr0.states[prop.src.state].findItem(prop.src.itemID)
			if srcItem == nil {
				return fmt.Errorf("source item not found: %v", prop.src.itemID)
			}

			for _, dest := range prop.dest {
				destState := lr0.states[dest.state]
				destItem := destState.findItem(dest.itemID)
				if destItem == nil {
					for _, item := range destState.emptyProdItems {
						if item.id != dest.itemID {
							continue
						}
						destItem = item
						break
					}
					if destItem == nil {
						return fmt.Errorf("destination item not found: %v", dest.itemID)
					}
				}

				if destItem.lookAhead.symbols.merge(srcItem.lookAhead.symbols) {
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}

	return nil
}

// lookAheadOf returns the look-ahead symbols of a reducible item of a state.
func (a *lalr1Automaton) lookAheadOf(state *lrState, prod productionNum) ([]symbol.Symbol, error) {
	item := state.findReducibleItem(prod)
	if item == nil {
		return nil, fmt.Errorf("reducible item not found; state: %v, production: %v", state.num, prod)
	}
	return item.lookAhead.symbols.symbols(), nil
}

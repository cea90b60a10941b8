package grammar

import (
	"fmt"

	"github.com/nihei9/lalrgen/grammar/symbol"
)

// lr0Automaton is the canonical collection of LR(0) item sets. States live in an arena indexed by
// state number; kernelIndex maps a canonical kernel key to its state.
type lr0Automaton struct {
	initialState stateNum
	states       []*lrState
	kernelIndex  map[kernelID]stateNum
}

func (a *lr0Automaton) stateByKernel(id kernelID) (*lrState, bool) {
	num, ok := a.kernelIndex[id]
	if !ok {
		return nil, false
	}
	return a.states[num], true
}

// genLR0Automaton discovers states breadth-first from the closure of the start item. Neighbour kernels
// are visited in ascending symbol order, so the state numbering is a function of the grammar alone.
func genLR0Automaton(prods *productionSet, startSym symbol.Symbol, errSym symbol.Symbol) (*lr0Automaton, error) {
	if !startSym.IsStart() {
		return nil, fmt.Errorf("passed symbol is not a start symbol")
	}

	automaton := &lr0Automaton{
		initialState: stateNumInitial,
		kernelIndex:  map[kernelID]stateNum{},
	}

	uncheckedKernels := []*kernel{}
	{
		prods, _ := prods.findByLHS(startSym)
		initialItem, err := newLR0Item(prods[0], 0)
		if err != nil {
			return nil, err
		}

		k, err := newKernel([]*lrItem{initialItem})
		if err != nil {
			return nil, err
		}

		automaton.kernelIndex[k.id] = stateNumInitial
		uncheckedKernels = append(uncheckedKernels, k)
	}

	nextNum := stateNumInitial.next()
	for len(uncheckedKernels) > 0 {
		nextUncheckedKernels := []*kernel{}
		for _, k := range uncheckedKernels {
			state, neighbours, err := genStateAndNeighbourKernels(k, prods, errSym)
			if err != nil {
				return nil, err
			}
			state.num = automaton.kernelIndex[k.id]

			for _, n := range neighbours {
				num, known := automaton.kernelIndex[n.kernel.id]
				if !known {
					num = nextNum
					nextNum = nextNum.next()
					automaton.kernelIndex[n.kernel.id] = num
					nextUncheckedKernels = append(nextUncheckedKernels, n.kernel)
				}
				state.next[n.symbol] = num
			}

			automaton.states = append(automaton.states, state)
			if automaton.states[state.num] != state {
				return nil, fmt.Errorf("state %v was discovered out of order", state.num)
			}
		}
		uncheckedKernels = nextUncheckedKernels
	}

	tracer().Debugf("LR(0) automaton: %v states", len(automaton.states))

	return automaton, nil
}

func genStateAndNeighbourKernels(k *kernel, prods *productionSet, errSym symbol.Symbol) (*lrState, []*neighbourKernel, error) {
	items, err := genLR0Closure(k, prods)
	if err != nil {
		return nil, nil, err
	}
	neighbours, err := genNeighbourKernels(items, prods)
	if err != nil {
		return nil, nil, err
	}

	reducible := map[productionNum]struct{}{}
	var emptyProdItems []*lrItem
	isErrorTrapper := false
	accepting := false
	for _, item := range items {
		if item.dottedSymbol == errSym {
			isErrorTrapper = true
		}
		if item.accepting {
			accepting = true
		}

		if item.reducible {
			reducible[item.prod] = struct{}{}

			prod, ok := prods.findByNum(item.prod)
			if !ok {
				return nil, nil, fmt.Errorf("reducible production not found: %v", item.prod)
			}
			if prod.isEmpty() {
				emptyProdItems = append(emptyProdItems, item)
			}
		}
	}

	return &lrState{
		kernel:         k,
		next:           map[symbol.Symbol]stateNum{},
		reducible:      reducible,
		emptyProdItems: emptyProdItems,
		isErrorTrapper: isErrorTrapper,
		accepting:      accepting,
	}, neighbours, nil
}

func genLR0Closure(k *kernel, prods *productionSet) ([]*lrItem, error) {
	items := []*lrItem{}
	knownItems := map[lrItemID]struct{}{}
	uncheckedItems := []*lrItem{}
	for _, item := range k.items {
		items = append(items, item)
		knownItems[item.id] = struct{}{}
		uncheckedItems = append(uncheckedItems, item)
	}
	for len(uncheckedItems) > 0 {
		nextUncheckedItems := []*lrItem{}
		for _, item := range uncheckedItems {
			if !item.dottedSymbol.IsNonTerminal() {
				continue
			}

			ps, _ := prods.findByLHS(item.dottedSymbol)
			for _, prod := range ps {
				item, err := newLR0Item(prod, 0)
				if err != nil {
					return nil, err
				}
				if _, exist := knownItems[item.id]; exist {
					continue
				}
				items = append(items, item)
				knownItems[item.id] = struct{}{}
				nextUncheckedItems = append(nextUncheckedItems, item)
			}
		}
		uncheckedItems = nextUncheckedItems
	}

	return items, nil
}

type neighbourKernel struct {
	symbol symbol.Symbol
	kernel *kernel
}

// genNeighbourKernels computes goto on every dotted symbol. $end never gets a transition: the
// item $accept → S・$end is the accept action.
func genNeighbourKernels(items []*lrItem, prods *productionSet) ([]*neighbourKernel, error) {
	kItemMap := map[symbol.Symbol][]*lrItem{}
	for _, item := range items {
		if item.dottedSymbol.IsNil() || item.dottedSymbol.IsEOF() {
			continue
		}
		prod, ok := prods.findByNum(item.prod)
		if !ok {
			return nil, fmt.Errorf("a production was not found: %v", item.prod)
		}
		kItem, err := newLR0Item(prod, item.dot+1)
		if err != nil {
			return nil, err
		}
		kItemMap[item.dottedSymbol] = append(kItemMap[item.dottedSymbol], kItem)
	}

	nextSyms := make([]symbol.Symbol, 0, len(kItemMap))
	for sym := range kItemMap {
		nextSyms = append(nextSyms, sym)
	}
	nextSyms = newSymbolSet(nextSyms...).symbols()

	kernels := make([]*neighbourKernel, 0, len(nextSyms))
	for _, sym := range nextSyms {
		k, err := newKernel(kItemMap[sym])
		if err != nil {
			return nil, err
		}
		kernels = append(kernels, &neighbourKernel{
			symbol: sym,
			kernel: k,
		})
	}

	return kernels, nil
}

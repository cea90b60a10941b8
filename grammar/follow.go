package grammar

import (
	"fmt"

	"github.com/nihei9/lalrgen/grammar/symbol"
)

type followEntry struct {
	symbols *symbolSet
}

func newFollowEntry() *followEntry {
	return &followEntry{
		symbols: newSymbolSet(),
	}
}

func (e *followEntry) add(sym symbol.Symbol) bool {
	return e.symbols.add(sym)
}

func (e *followEntry) merge(fst *firstEntry, flw *followEntry) bool {
	changed := false
	if fst != nil && e.symbols.merge(fst.symbols) {
		changed = true
	}
	if flw != nil && e.symbols.merge(flw.symbols) {
		changed = true
	}
	return changed
}

// followSet holds FOLLOW of every non-terminal. Because the augmented start production is
// `$accept → start $end`, `$end` reaches FOLLOW(start) through FIRST($end) without special casing.
type followSet struct {
	set map[symbol.Symbol]*followEntry
}

func newFollow(prods *productionSet) *followSet {
	flw := &followSet{
		set: map[symbol.Symbol]*followEntry{},
	}
	for _, prod := range prods.getAllProductions() {
		if _, ok := flw.set[prod.lhs]; ok {
			continue
		}
		flw.set[prod.lhs] = newFollowEntry()
	}
	return flw
}

func (flw *followSet) find(sym symbol.Symbol) (*followEntry, error) {
	e, ok := flw.set[sym]
	if !ok {
		return nil, fmt.Errorf("an entry of FOLLOW was not found; symbol: %s", sym)
	}
	return e, nil
}

func (flw *followSet) equals(other *followSet) bool {
	if len(flw.set) != len(other.set) {
		return false
	}
	for sym, e := range flw.set {
		o, ok := other.set[sym]
		if !ok || !e.symbols.equals(o.symbols) {
			return false
		}
	}
	return true
}

func (flw *followSet) clone() *followSet {
	c := &followSet{
		set: make(map[symbol.Symbol]*followEntry, len(flw.set)),
	}
	for sym, e := range flw.set {
		c.set[sym] = &followEntry{
			symbols: e.symbols.clone(),
		}
	}
	return c
}

func genFollowSet(prods *productionSet, first *firstSet) (*followSet, error) {
	return genFollowSetFrom(prods, first, newFollow(prods))
}

func genFollowSetFrom(prods *productionSet, first *firstSet, seed *followSet) (*followSet, error) {
	follow := seed.clone()
	for {
		more := false
		for _, prod := range prods.getAllProductions() {
			for i, sym := range prod.rhs {
				if !sym.IsNonTerminal() {
					continue
				}
				e, err := follow.find(sym)
				if err != nil {
					return nil, err
				}
				fst, err := first.find(prod, i+1)
				if err != nil {
					return nil, err
				}
				if e.merge(fst, nil) {
					more = true
				}
				if !fst.empty {
					continue
				}
				flw, err := follow.find(prod.lhs)
				if err != nil {
					return nil, err
				}
				if e.merge(nil, flw) {
					more = true
				}
			}
		}
		if !more {
			break
		}
	}

	return follow, nil
}

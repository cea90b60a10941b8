package grammar

import (
	"fmt"

	"github.com/nihei9/lalrgen/grammar/symbol"
)

type firstEntry struct {
	symbols *symbolSet

	// empty is true when the sequence the entry belongs to can derive the empty string.
	empty bool
}

func newFirstEntry() *firstEntry {
	return &firstEntry{
		symbols: newSymbolSet(),
		empty:   false,
	}
}

func (e *firstEntry) add(sym symbol.Symbol) bool {
	return e.symbols.add(sym)
}

func (e *firstEntry) addEmpty() bool {
	if !e.empty {
		e.empty = true
		return true
	}
	return false
}

func (e *firstEntry) mergeExceptEmpty(target *firstEntry) bool {
	if target == nil {
		return false
	}
	return e.symbols.merge(target.symbols)
}

func (e *firstEntry) equals(f *firstEntry) bool {
	return e.empty == f.empty && e.symbols.equals(f.symbols)
}

func (e *firstEntry) clone() *firstEntry {
	return &firstEntry{
		symbols: e.symbols.clone(),
		empty:   e.empty,
	}
}

// firstSet holds FIRST of every non-terminal. The nullable set is folded into it: a non-terminal
// is nullable exactly when its entry's empty flag is set.
type firstSet struct {
	set map[symbol.Symbol]*firstEntry
}

func newFirstSet(prods *productionSet) *firstSet {
	fst := &firstSet{
		set: map[symbol.Symbol]*firstEntry{},
	}
	for _, prod := range prods.getAllProductions() {
		if _, ok := fst.set[prod.lhs]; ok {
			continue
		}
		fst.set[prod.lhs] = newFirstEntry()
	}

	return fst
}

// find returns FIRST of the RHS suffix of prod starting at head.
func (fst *firstSet) find(prod *production, head int) (*firstEntry, error) {
	entry := newFirstEntry()
	if prod.rhsLen <= head {
		entry.addEmpty()
		return entry, nil
	}
	for _, sym := range prod.rhs[head:] {
		if sym.IsTerminal() {
			entry.add(sym)
			return entry, nil
		}

		e := fst.findBySymbol(sym)
		if e == nil {
			return nil, fmt.Errorf("an entry of FIRST was not found; symbol: %s", sym)
		}
		entry.mergeExceptEmpty(e)
		if !e.empty {
			return entry, nil
		}
	}
	entry.addEmpty()
	return entry, nil
}

func (fst *firstSet) findBySymbol(sym symbol.Symbol) *firstEntry {
	return fst.set[sym]
}

func (fst *firstSet) nullable(sym symbol.Symbol) bool {
	e, ok := fst.set[sym]
	if !ok {
		return false
	}
	return e.empty
}

func (fst *firstSet) equals(other *firstSet) bool {
	if len(fst.set) != len(other.set) {
		return false
	}
	for sym, e := range fst.set {
		o, ok := other.set[sym]
		if !ok || !e.equals(o) {
			return false
		}
	}
	return true
}

func (fst *firstSet) clone() *firstSet {
	c := &firstSet{
		set: make(map[symbol.Symbol]*firstEntry, len(fst.set)),
	}
	for sym, e := range fst.set {
		c.set[sym] = e.clone()
	}
	return c
}

func genFirstSet(prods *productionSet) (*firstSet, error) {
	return genFirstSetFrom(prods, newFirstSet(prods))
}

// genFirstSetFrom runs the fixed point starting from seed. Starting from a converged set must not
// change it.
func genFirstSetFrom(prods *productionSet, seed *firstSet) (*firstSet, error) {
	first := seed.clone()
	for {
		more := false
		for _, prod := range prods.getAllProductions() {
			e := first.findBySymbol(prod.lhs)
			if e == nil {
				return nil, fmt.Errorf("an entry of FIRST was not found; symbol: %s", prod.lhs)
			}
			if genProdFirstEntry(first, e, prod) {
				more = true
			}
		}
		if !more {
			break
		}
	}
	return first, nil
}

func genProdFirstEntry(first *firstSet, acc *firstEntry, prod *production) bool {
	if prod.isEmpty() {
		return acc.addEmpty()
	}

	changed := false
	for _, sym := range prod.rhs {
		if sym.IsTerminal() {
			return acc.add(sym) || changed
		}

		e := first.findBySymbol(sym)
		if acc.mergeExceptEmpty(e) {
			changed = true
		}
		if e == nil || !e.empty {
			return changed
		}
	}
	return acc.addEmpty() || changed
}

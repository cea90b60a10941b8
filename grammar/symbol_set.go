package grammar

import (
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/nihei9/lalrgen/grammar/symbol"
)

func symbolComparator(a, b interface{}) int {
	x := a.(symbol.Symbol)
	y := b.(symbol.Symbol)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// symbolSet is an ordered set of symbols. Iterating over it always yields the symbols in ascending
// order, which keeps table construction independent of map iteration order.
type symbolSet struct {
	set *treeset.Set
}

func newSymbolSet(syms ...symbol.Symbol) *symbolSet {
	s := &symbolSet{
		set: treeset.NewWith(symbolComparator),
	}
	for _, sym := range syms {
		s.set.Add(sym)
	}
	return s
}

func (s *symbolSet) add(sym symbol.Symbol) bool {
	if s.set.Contains(sym) {
		return false
	}
	s.set.Add(sym)
	return true
}

// merge adds all symbols of t and reports whether s grew.
func (s *symbolSet) merge(t *symbolSet) bool {
	if t == nil {
		return false
	}
	changed := false
	for _, v := range t.set.Values() {
		if s.add(v.(symbol.Symbol)) {
			changed = true
		}
	}
	return changed
}

func (s *symbolSet) contains(sym symbol.Symbol) bool {
	return s.set.Contains(sym)
}

func (s *symbolSet) len() int {
	return s.set.Size()
}

func (s *symbolSet) symbols() []symbol.Symbol {
	vs := s.set.Values()
	syms := make([]symbol.Symbol, len(vs))
	for i, v := range vs {
		syms[i] = v.(symbol.Symbol)
	}
	return syms
}

func (s *symbolSet) equals(t *symbolSet) bool {
	if s.len() != t.len() {
		return false
	}
	for _, sym := range s.symbols() {
		if !t.contains(sym) {
			return false
		}
	}
	return true
}

func (s *symbolSet) clone() *symbolSet {
	return newSymbolSet(s.symbols()...)
}

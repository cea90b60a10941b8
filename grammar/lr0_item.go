package grammar

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"

	"github.com/nihei9/lalrgen/grammar/symbol"
)

// lrItemID identifies an item by its core. Two items with the same production and dot are the same
// item no matter which lookahead symbols they carry.
type lrItemID struct {
	prod productionNum
	dot  int
}

func (id lrItemID) String() string {
	return fmt.Sprintf("%v.%v", id.prod, id.dot)
}

func (id lrItemID) less(other lrItemID) bool {
	if id.prod != other.prod {
		return id.prod < other.prod
	}
	return id.dot < other.dot
}

type lookAhead struct {
	symbols *symbolSet

	// When propagation is true, an item propagates look-ahead symbols to other items.
	propagation bool
}

type lrItem struct {
	id   lrItemID
	prod productionNum

	// E → E + T
	//
	// Dot | Dotted Symbol | Item
	// ----+---------------+------------
	// 0   | E             | E →・E + T
	// 1   | +             | E → E・+ T
	// 2   | T             | E → E +・T
	// 3   | Nil           | E → E + T・
	dot          int
	dottedSymbol symbol.Symbol

	// When initial is true, the LHS of the production is the augmented start symbol and dot is 0.
	// It looks like $accept →・S $end.
	initial bool

	// When reducible is true, the item looks like E → E + T・.
	reducible bool

	// When kernel is true, the item is kernel item.
	kernel bool

	// accepting is true for $accept → S・$end. The parser accepts instead of shifting $end.
	accepting bool

	lookAhead lookAhead
}

func newLR0Item(prod *production, dot int) (*lrItem, error) {
	if prod == nil {
		return nil, fmt.Errorf("production must be non-nil")
	}

	if dot < 0 || dot > prod.rhsLen {
		return nil, fmt.Errorf("dot must be between 0 and %v", prod.rhsLen)
	}

	dottedSymbol := symbol.SymbolNil
	if dot < prod.rhsLen {
		dottedSymbol = prod.rhs[dot]
	}

	initial := prod.isStart() && dot == 0

	return &lrItem{
		id: lrItemID{
			prod: prod.num,
			dot:  dot,
		},
		prod:         prod.num,
		dot:          dot,
		dottedSymbol: dottedSymbol,
		initial:      initial,
		reducible:    dot == prod.rhsLen,
		kernel:       initial || dot > 0,
		accepting:    prod.isStart() && dottedSymbol.IsEOF(),
		lookAhead: lookAhead{
			symbols: newSymbolSet(),
		},
	}, nil
}

type kernelID [32]byte

func (id kernelID) String() string {
	return fmt.Sprintf("%x", binary.LittleEndian.Uint32(id[:]))
}

type kernel struct {
	id    kernelID
	items []*lrItem
}

// newKernel sorts the items by core and derives the kernel ID from the sorted cores, so the ID does
// not depend on the order in which the items were discovered.
func newKernel(items []*lrItem) (*kernel, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("a kernel need at least one item")
	}

	var sortedItems []*lrItem
	{
		m := map[lrItemID]*lrItem{}
		for _, item := range items {
			if !item.kernel {
				return nil, fmt.Errorf("not a kernel item: %v", item.id)
			}
			m[item.id] = item
		}
		sortedItems = make([]*lrItem, 0, len(m))
		for _, item := range m {
			sortedItems = append(sortedItems, item)
		}
		sort.Slice(sortedItems, func(i, j int) bool {
			return sortedItems[i].id.less(sortedItems[j].id)
		})
	}

	var id kernelID
	{
		b := make([]byte, 0, len(sortedItems)*16)
		for _, item := range sortedItems {
			b = binary.LittleEndian.AppendUint64(b, uint64(item.id.prod))
			b = binary.LittleEndian.AppendUint64(b, uint64(item.id.dot))
		}
		id = sha256.Sum256(b)
	}

	return &kernel{
		id:    id,
		items: sortedItems,
	}, nil
}

func (k *kernel) findItem(id lrItemID) *lrItem {
	for _, item := range k.items {
		if item.id == id {
			return item
		}
	}
	return nil
}

type stateNum int

const stateNumInitial = stateNum(0)

func (n stateNum) Int() int {
	return int(n)
}

func (n stateNum) String() string {
	return strconv.Itoa(int(n))
}

func (n stateNum) next() stateNum {
	return stateNum(n + 1)
}

type lrState struct {
	*kernel
	num stateNum

	// next maps a symbol to the state reached by goto on it. Targets are indices into the
	// automaton's state arena.
	next map[symbol.Symbol]stateNum

	reducible map[productionNum]struct{}

	// emptyProdItems holds the items of empty productions of the closure. Their look-ahead
	// symbols are computed like those of kernel items.
	emptyProdItems []*lrItem

	// When isErrorTrapper is `true`, the item can shift the `error` symbol. The item has the following form.
	// The `α` and `β` can be empty.
	//
	// A → α・error β
	isErrorTrapper bool

	// accepting is true when the state holds $accept → S・$end.
	accepting bool
}

func (s *lrState) findReducibleItem(prod productionNum) *lrItem {
	for _, item := range s.items {
		if item.prod == prod && item.reducible {
			return item
		}
	}
	for _, item := range s.emptyProdItems {
		if item.prod == prod {
			return item
		}
	}
	return nil
}

// transitionSymbols returns the symbols having outgoing transitions, in ascending order.
func (s *lrState) transitionSymbols() []symbol.Symbol {
	syms := make([]symbol.Symbol, 0, len(s.next))
	for sym := range s.next {
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool {
		return syms[i] < syms[j]
	})
	return syms
}

func (s *lrState) reducibleProductions() []productionNum {
	prods := make([]productionNum, 0, len(s.reducible))
	for p := range s.reducible {
		prods = append(prods, p)
	}
	sort.Slice(prods, func(i, j int) bool {
		return prods[i] < prods[j]
	})
	return prods
}

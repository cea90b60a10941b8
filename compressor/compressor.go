// Package compressor shrinks the ACTION and GOTO tables of a parsing table. Both tables are
// row-major and mostly empty, so a generated parser can embed a compressed form and expand it
// when it loads.
package compressor

import (
	"encoding/binary"
	"fmt"
	"sort"

	spec "github.com/nihei9/lalrgen/spec/grammar"
)

type OriginalTable struct {
	entries  []int
	rowCount int
	colCount int
}

func NewOriginalTable(entries []int, colCount int) (*OriginalTable, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("entries is empty")
	}
	if colCount <= 0 {
		return nil, fmt.Errorf("colCount must be >=1")
	}
	if len(entries)%colCount != 0 {
		return nil, fmt.Errorf("entries length or column count are incorrect; entries length: %v, column count: %v", len(entries), colCount)
	}

	return &OriginalTable{
		entries:  entries,
		rowCount: len(entries) / colCount,
		colCount: colCount,
	}, nil
}

type Compressor interface {
	Compress(orig *OriginalTable) error
	Lookup(row, col int) (int, error)
	OriginalTableSize() (int, int)
}

var (
	_ Compressor = &UniqueEntriesTable{}
	_ Compressor = &RowDisplacementTable{}
)

// Expand restores the original row-major table from a compressed one.
func Expand(c Compressor) ([]int, error) {
	rowCount, colCount := c.OriginalTableSize()
	entries := make([]int, rowCount*colCount)
	for row := 0; row < rowCount; row++ {
		for col := 0; col < colCount; col++ {
			v, err := c.Lookup(row, col)
			if err != nil {
				return nil, err
			}
			entries[row*colCount+col] = v
		}
	}
	return entries, nil
}

// UniqueEntriesTable stores each distinct row once. Parsing tables of grammars with many similar
// states, such as states reached by shifting the same operator, shrink well.
type UniqueEntriesTable struct {
	UniqueEntries    []int `json:"unique_entries"`
	RowNums          []int `json:"row_nums"`
	OriginalRowCount int   `json:"original_row_count"`
	OriginalColCount int   `json:"original_col_count"`
}

func NewUniqueEntriesTable() *UniqueEntriesTable {
	return &UniqueEntriesTable{}
}

func (tab *UniqueEntriesTable) Lookup(row, col int) (int, error) {
	if row < 0 || row >= tab.OriginalRowCount || col < 0 || col >= tab.OriginalColCount {
		return 0, fmt.Errorf("indexes are out of range: [%v, %v]", row, col)
	}
	return tab.UniqueEntries[tab.RowNums[row]*tab.OriginalColCount+col], nil
}

func (tab *UniqueEntriesTable) OriginalTableSize() (int, int) {
	return tab.OriginalRowCount, tab.OriginalColCount
}

func (tab *UniqueEntriesTable) Compress(orig *OriginalTable) error {
	var uniqueEntries []int
	rowNums := make([]int, orig.rowCount)
	key2RowNum := map[string]int{}
	buf := make([]byte, binary.MaxVarintLen64)
	for row := 0; row < orig.rowCount; row++ {
		start := row * orig.colCount
		cells := orig.entries[start : start+orig.colCount]

		// Action entries are negative for shifts, so the key uses the signed encoding.
		key := make([]byte, 0, orig.colCount*2)
		for _, v := range cells {
			n := binary.PutVarint(buf, int64(v))
			key = append(key, buf[:n]...)
		}

		rowNum, ok := key2RowNum[string(key)]
		if !ok {
			rowNum = len(key2RowNum)
			key2RowNum[string(key)] = rowNum
			uniqueEntries = append(uniqueEntries, cells...)
		}
		rowNums[row] = rowNum
	}

	tab.UniqueEntries = uniqueEntries
	tab.RowNums = rowNums
	tab.OriginalRowCount = orig.rowCount
	tab.OriginalColCount = orig.colCount

	tracer().Debugf("unique entries: %vx%v -> %v rows", orig.rowCount, orig.colCount, len(key2RowNum))

	return nil
}

// ForbiddenValue marks a cell of RowDisplacementTable.Bounds that belongs to no row.
const ForbiddenValue = -1

// RowDisplacementTable overlays the rows of a sparse table so that the non-empty cells of
// different rows never collide. Bounds records the row owning each cell.
type RowDisplacementTable struct {
	OriginalRowCount int   `json:"original_row_count"`
	OriginalColCount int   `json:"original_col_count"`
	EmptyValue       int   `json:"empty_value"`
	Entries          []int `json:"entries"`
	Bounds           []int `json:"bounds"`
	RowDisplacement  []int `json:"row_displacement"`
}

func NewRowDisplacementTable(emptyValue int) *RowDisplacementTable {
	return &RowDisplacementTable{
		EmptyValue: emptyValue,
	}
}

func (tab *RowDisplacementTable) Lookup(row int, col int) (int, error) {
	if row < 0 || row >= tab.OriginalRowCount || col < 0 || col >= tab.OriginalColCount {
		return tab.EmptyValue, fmt.Errorf("indexes are out of range: [%v, %v]", row, col)
	}
	d := tab.RowDisplacement[row]
	if d+col >= len(tab.Bounds) || tab.Bounds[d+col] != row {
		return tab.EmptyValue, nil
	}
	return tab.Entries[d+col], nil
}

func (tab *RowDisplacementTable) OriginalTableSize() (int, int) {
	return tab.OriginalRowCount, tab.OriginalColCount
}

type rowInfo struct {
	rowNum      int
	nonEmptyCol []int
}

func (tab *RowDisplacementTable) Compress(orig *OriginalTable) error {
	rows := make([]rowInfo, orig.rowCount)
	for row := 0; row < orig.rowCount; row++ {
		rows[row].rowNum = row
		for col := 0; col < orig.colCount; col++ {
			if orig.entries[row*orig.colCount+col] != tab.EmptyValue {
				rows[row].nonEmptyCol = append(rows[row].nonEmptyCol, col)
			}
		}
	}

	// Dense rows go first; they are the hardest to fit.
	sort.SliceStable(rows, func(i int, j int) bool {
		return len(rows[i].nonEmptyCol) > len(rows[j].nonEmptyCol)
	})

	var entries []int
	var bounds []int
	grow := func(size int) {
		for len(entries) < size {
			entries = append(entries, tab.EmptyValue)
			bounds = append(bounds, ForbiddenValue)
		}
	}
	grow(orig.colCount)

	rowDisplacement := make([]int, orig.rowCount)
	nextRowDisplacement := 0
	for _, r := range rows {
		if len(r.nonEmptyCol) == 0 {
			continue
		}

		d := nextRowDisplacement
		for {
			grow(d + orig.colCount)
			fits := true
			for _, col := range r.nonEmptyCol {
				if bounds[d+col] != ForbiddenValue {
					fits = false
					break
				}
			}
			if fits {
				break
			}
			d++
		}

		rowDisplacement[r.rowNum] = d
		for _, col := range r.nonEmptyCol {
			entries[d+col] = orig.entries[r.rowNum*orig.colCount+col]
			bounds[d+col] = r.rowNum
		}
		nextRowDisplacement = d + 1
	}

	tab.OriginalRowCount = orig.rowCount
	tab.OriginalColCount = orig.colCount
	tab.Entries = entries
	tab.Bounds = bounds
	tab.RowDisplacement = rowDisplacement

	tracer().Debugf("row displacement: %vx%v -> %v cells", orig.rowCount, orig.colCount, len(entries))

	return nil
}

// ParsingTable is the compressed form of the ACTION and GOTO tables. The ACTION table is compressed
// by row displacement and the GOTO table by unique rows. Both keep 0 as the empty entry.
type ParsingTable struct {
	Action *RowDisplacementTable `json:"action"`
	GoTo   *UniqueEntriesTable   `json:"goto"`
}

// CompressParsingTable compresses the ACTION and GOTO tables of a parsing table. The parsing table
// itself is left unchanged.
func CompressParsingTable(tab *spec.ParsingTable) (*ParsingTable, error) {
	actOrig, err := NewOriginalTable(tab.Action, tab.TerminalCount)
	if err != nil {
		return nil, fmt.Errorf("action table: %w", err)
	}
	act := NewRowDisplacementTable(0)
	if err := act.Compress(actOrig); err != nil {
		return nil, err
	}

	goToOrig, err := NewOriginalTable(tab.GoTo, tab.NonTerminalCount)
	if err != nil {
		return nil, fmt.Errorf("goto table: %w", err)
	}
	goTo := NewUniqueEntriesTable()
	if err := goTo.Compress(goToOrig); err != nil {
		return nil, err
	}

	return &ParsingTable{
		Action: act,
		GoTo:   goTo,
	}, nil
}

// ExpandInto restores the ACTION and GOTO tables into tab. The other fields of tab must already
// describe the same grammar.
func (c *ParsingTable) ExpandInto(tab *spec.ParsingTable) error {
	rows, cols := c.Action.OriginalTableSize()
	if rows != tab.StateCount || cols != tab.TerminalCount {
		return fmt.Errorf("action table size mismatch; want: %vx%v, got: %vx%v", tab.StateCount, tab.TerminalCount, rows, cols)
	}
	rows, cols = c.GoTo.OriginalTableSize()
	if rows != tab.StateCount || cols != tab.NonTerminalCount {
		return fmt.Errorf("goto table size mismatch; want: %vx%v, got: %vx%v", tab.StateCount, tab.NonTerminalCount, rows, cols)
	}

	act, err := Expand(c.Action)
	if err != nil {
		return err
	}
	goTo, err := Expand(c.GoTo)
	if err != nil {
		return err
	}
	tab.Action = act
	tab.GoTo = goTo
	return nil
}

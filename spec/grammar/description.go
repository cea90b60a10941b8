package grammar

type Terminal struct {
	Number        int    `json:"number"`
	Name          string `json:"name"`
	Precedence    int    `json:"prec"`
	Associativity string `json:"assoc"`
}

// NonTerminal carries the sets computed for a non-terminal. First and Follow hold terminal names
// ordered by terminal number.
type NonTerminal struct {
	Number   int      `json:"number"`
	Name     string   `json:"name"`
	Nullable bool     `json:"nullable"`
	First    []string `json:"first"`
	Follow   []string `json:"follow"`
}

type Production struct {
	Number        int    `json:"number"`
	LHS           int    `json:"lhs"`
	RHS           []int  `json:"rhs"`
	Precedence    int    `json:"prec"`
	Associativity string `json:"assoc"`
	Action        string `json:"action,omitempty"`
}

type Item struct {
	Production int `json:"production"`
	Dot        int `json:"dot"`
}

type Transition struct {
	Symbol int `json:"symbol"`
	State  int `json:"state"`
}

type Reduce struct {
	LookAhead  []int `json:"look_ahead"`
	Production int   `json:"production"`
}

const (
	ActionShift  = "shift"
	ActionReduce = "reduce"
	ActionAccept = "accept"
	ActionError  = "error"
)

// Action is one side of a conflict. State is set for shift actions and Production for reduce
// actions.
type Action struct {
	Type       string `json:"type"`
	State      int    `json:"state,omitempty"`
	Production int    `json:"production,omitempty"`
}

const (
	ConflictShiftReduce  = "shift/reduce"
	ConflictReduceReduce = "reduce/reduce"
)

const (
	ResolvedByPrecedence    = "precedence"
	ResolvedByAssociativity = "associativity"
	ResolvedByShift         = "shift"
	ResolvedByProdOrder     = "production order"
)

// Conflict records how a conflicting table cell was resolved.
type Conflict struct {
	State      int     `json:"state"`
	Symbol     int     `json:"symbol"`
	SymbolName string  `json:"symbol_name"`
	Kind       string  `json:"kind"`
	Chosen     *Action `json:"chosen"`
	Discarded  *Action `json:"discarded"`
	ResolvedBy string  `json:"resolved_by"`
}

// IsDefaulted reports whether the conflict was resolved by a default policy rather than by declared
// precedence or associativity.
func (c *Conflict) IsDefaulted() bool {
	return c.ResolvedBy == ResolvedByShift || c.ResolvedBy == ResolvedByProdOrder
}

type State struct {
	Number    int           `json:"number"`
	Kernel    []*Item       `json:"kernel"`
	Shift     []*Transition `json:"shift"`
	Reduce    []*Reduce     `json:"reduce"`
	GoTo      []*Transition `json:"goto"`
	Accept    bool          `json:"accept"`
	Conflicts []*Conflict   `json:"conflicts"`
}

type Report struct {
	Class        string         `json:"class"`
	Terminals    []*Terminal    `json:"terminals"`
	NonTerminals []*NonTerminal `json:"non_terminals"`
	Productions  []*Production  `json:"productions"`
	States       []*State       `json:"states"`
	Conflicts    []*Conflict    `json:"conflicts"`
}

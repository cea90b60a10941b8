package grammar

// GrammarSpec is the in-memory form of a grammar document. Rules keep their declaration order
// because production numbers, and therefore the generated tables, depend on it.
type GrammarSpec struct {
	Name          string      `json:"name" mapstructure:"name"`
	Tokens        []string    `json:"tokens,omitempty" mapstructure:"tokens"`
	Start         string      `json:"start,omitempty" mapstructure:"startSymbol"`
	Rules         []*Rule     `json:"rules" mapstructure:"-"`
	Operators     []*Operator `json:"operators,omitempty" mapstructure:"-"`
	ActionInclude string      `json:"action_include,omitempty" mapstructure:"actionInclude"`
	Lex           *LexSpec    `json:"lex,omitempty" mapstructure:"-"`
}

type Rule struct {
	LHS          string         `json:"lhs"`
	Alternatives []*Alternative `json:"alternatives"`
}

// Alternative is one right-hand side of a rule. RHS is a whitespace-separated sequence of symbols;
// a symbol may be quoted with ' or " to spell punctuation. An empty RHS denotes an empty production.
type Alternative struct {
	RHS    string `json:"rhs" mapstructure:"rhs"`
	Action string `json:"action,omitempty" mapstructure:"action"`
	Prec   string `json:"prec,omitempty" mapstructure:"prec"`
}

const (
	AssocLeft     = "left"
	AssocRight    = "right"
	AssocNonAssoc = "nonassoc"
)

// Operator is one line of a precedence declaration. Lines are ordered from the lowest precedence
// to the highest.
type Operator struct {
	Assoc   string   `json:"assoc"`
	Symbols []string `json:"symbols"`
}

const (
	PolicyLongestMatch = "longest"
	PolicyFirstMatch   = "first"
)

const ConditionInitial = "INITIAL"

// ConditionAny makes a rule visible in every condition.
const ConditionAny = "*"

type LexSpec struct {
	Macros          map[string]string `json:"macros,omitempty" mapstructure:"macros"`
	StartConditions map[string]bool   `json:"start_conditions,omitempty" mapstructure:"startConditions"`
	Rules           []*LexRule        `json:"rules" mapstructure:"-"`
	Options         *LexOptions       `json:"options,omitempty" mapstructure:"options"`
}

type LexOptions struct {
	Policy          string `json:"policy,omitempty" mapstructure:"policy"`
	CaseInsensitive bool   `json:"case_insensitive,omitempty" mapstructure:"caseInsensitive"`
}

// LexRule is a lexical rule. A rule without Action is declarative: it emits Token, or skips the
// match when Token is empty or Skip is set, and then applies Push and Pop. A rule with Action
// delegates all of that to the action bound under that name.
type LexRule struct {
	Conditions []string `json:"conditions,omitempty" mapstructure:"conditions"`
	Pattern    string   `json:"pattern" mapstructure:"pattern"`
	Token      string   `json:"token,omitempty" mapstructure:"token"`
	Skip       bool     `json:"skip,omitempty" mapstructure:"skip"`
	Push       string   `json:"push,omitempty" mapstructure:"push"`
	Pop        bool     `json:"pop,omitempty" mapstructure:"pop"`
	Action     string   `json:"action,omitempty" mapstructure:"action"`
}

func (r *LexRule) IsDeclarative() bool {
	return r.Action == ""
}

const (
	ClassLALR = "lalr"
	ClassSLR  = "slr"
)

type CompiledGrammar struct {
	Name          string        `json:"name"`
	Lexical       *LexicalSpec  `json:"lexical,omitempty"`
	ParsingTable  *ParsingTable `json:"parsing_table"`
	ActionInclude string        `json:"action_include,omitempty"`
}

type LexicalSpec struct {
	Spec *LexSpec `json:"spec"`
	DFA  *DFA     `json:"dfa,omitempty"`
}

// DFA is a lexical specification compiled into a DFA by maleeni. Spec holds the JSON form of
// maleeni's compiled lexical specification, kept opaque here so that this package stays free of
// lexer dependencies. KindToToken holds the token name of each lex kind; KindToTerminal holds its
// terminal number, or 0 when the token isn't a terminal of the grammar.
type DFA struct {
	Spec           []byte   `json:"spec"`
	KindToTerminal []int    `json:"kind_to_terminal"`
	KindToToken    []string `json:"kind_to_token"`
	Skip           []int    `json:"skip"`
}

// ParsingTable is the frozen action/goto table.
//
// Action is a row-major table of StateCount x TerminalCount entries. A zero entry is an error, a
// negative entry -s shifts to state s, and a positive entry p+1 reduces production p. Reducing
// production 0, the augmented start production, accepts the input.
//
// GoTo is a row-major table of StateCount x NonTerminalCount entries. A zero entry means that
// there is no transition.
type ParsingTable struct {
	Class                   string   `json:"class"`
	Action                  []int    `json:"action"`
	GoTo                    []int    `json:"goto"`
	StateCount              int      `json:"state_count"`
	InitialState            int      `json:"initial_state"`
	StartProduction         int      `json:"start_production"`
	LHSSymbols              []int    `json:"lhs_symbols"`
	AlternativeSymbolCounts []int    `json:"alternative_symbol_counts"`
	ProductionActions       []string `json:"production_actions"`
	Terminals               []string `json:"terminals"`
	TerminalCount           int      `json:"terminal_count"`
	NonTerminals            []string `json:"non_terminals"`
	NonTerminalCount        int      `json:"non_terminal_count"`
	EOFSymbol               int      `json:"eof_symbol"`
	ErrorSymbol             int      `json:"error_symbol"`
	ErrorTrapperStates      []int    `json:"error_trapper_states"`
}

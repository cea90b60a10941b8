package lexer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	spec "github.com/nihei9/lalrgen/spec/grammar"
	mlcompiler "github.com/nihei9/maleeni/compiler"
	mldriver "github.com/nihei9/maleeni/driver"
	mlspec "github.com/nihei9/maleeni/spec"
)

var ErrDFAUnsupported = errors.New("the lexical specification cannot be compiled into a DFA")

const (
	dfaSpecName    = "lalrgen"
	dfaModeDefault = "default"
)

func dfaKindName(rule int) string {
	return fmt.Sprintf("kind_%v", rule+1)
}

// CompileDFA compiles a lexical specification into a DFA with maleeni. Only declarative rules
// under the longest-match policy can be compiled. Start conditions become lex modes. Patterns are
// rewritten in maleeni's dialect; a pattern that has no counterpart there yields ErrDFAUnsupported.
// A token that isn't a terminal keeps its name and gets the terminal number 0.
func CompileDFA(ls *spec.LexSpec, terminals []string) (*spec.DFA, error) {
	if ls == nil {
		return nil, fmt.Errorf("lexical specification is missing")
	}
	caseInsensitive := false
	if ls.Options != nil {
		if ls.Options.Policy == spec.PolicyFirstMatch {
			return nil, fmt.Errorf("%w: the first-match policy is not supported", ErrDFAUnsupported)
		}
		caseInsensitive = ls.Options.CaseInsensitive
	}

	term2Num := map[string]int{}
	for i, t := range terminals {
		if t == "" {
			continue
		}
		term2Num[t] = i
	}

	modes := map[string]mlspec.LexModeName{
		spec.ConditionInitial: mlspec.LexModeName(dfaModeDefault),
	}
	var condNames []string
	for name := range ls.StartConditions {
		condNames = append(condNames, name)
	}
	sort.Strings(condNames)
	for i, name := range condNames {
		modes[name] = mlspec.LexModeName(fmt.Sprintf("mode_%v", i+1))
	}
	inclusive := []mlspec.LexModeName{
		mlspec.LexModeName(dfaModeDefault),
	}
	all := []mlspec.LexModeName{
		mlspec.LexModeName(dfaModeDefault),
	}
	for _, name := range condNames {
		all = append(all, modes[name])
		if !ls.StartConditions[name] {
			inclusive = append(inclusive, modes[name])
		}
	}

	macros, err := expandMacros(ls.Macros, groupPlain)
	if err != nil {
		return nil, err
	}

	kind2Rule := map[string]*spec.LexRule{}
	var entries []*mlspec.LexEntry
	for i, r := range ls.Rules {
		if r == nil || r.Pattern == "" {
			return nil, fmt.Errorf("rule #%v: a pattern is required", i+1)
		}
		if !r.IsDeclarative() {
			return nil, fmt.Errorf("%w: rule #%v has a procedural action", ErrDFAUnsupported, i+1)
		}
		pattern := expandPattern(r.Pattern, macros, groupPlain)
		if caseInsensitive {
			pattern = "(?i:" + pattern + ")"
		}
		if re, err := regexp.Compile("^(?:" + pattern + ")$"); err == nil && re.MatchString("") {
			return nil, fmt.Errorf("%w: rule #%v matches the empty string", ErrDFAUnsupported, i+1)
		}
		pattern, err = dfaPattern(pattern)
		if err != nil {
			return nil, fmt.Errorf("rule #%v: %w", i+1, err)
		}

		var ms []mlspec.LexModeName
		switch {
		case containsCondition(r.Conditions, spec.ConditionAny):
			ms = all
		case len(r.Conditions) == 0:
			ms = inclusive
		default:
			for _, c := range r.Conditions {
				m, ok := modes[c]
				if !ok {
					return nil, fmt.Errorf("rule #%v: undefined start condition: %v", i+1, c)
				}
				ms = append(ms, m)
			}
		}

		var push mlspec.LexModeName
		if r.Push != "" {
			m, ok := modes[r.Push]
			if !ok {
				return nil, fmt.Errorf("rule #%v: undefined start condition: %v", i+1, r.Push)
			}
			push = m
		}

		kind := dfaKindName(i)
		kind2Rule[kind] = r
		entries = append(entries, &mlspec.LexEntry{
			Modes:   ms,
			Kind:    mlspec.LexKindName(kind),
			Pattern: mlspec.LexPattern(pattern),
			Push:    push,
			Pop:     r.Pop,
		})
	}

	clspec, err, cErrs := mlcompiler.Compile(&mlspec.LexSpec{
		Name:    dfaSpecName,
		Entries: entries,
	}, mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
	if err != nil {
		if len(cErrs) > 0 {
			var b strings.Builder
			writeCompileError(&b, cErrs[0])
			for _, cerr := range cErrs[1:] {
				fmt.Fprintf(&b, "\n")
				writeCompileError(&b, cerr)
			}
			return nil, fmt.Errorf("%w: %v", ErrDFAUnsupported, b.String())
		}
		return nil, fmt.Errorf("%w: %v", ErrDFAUnsupported, err)
	}

	kind2Term := make([]int, len(clspec.KindNames))
	kind2Tok := make([]string, len(clspec.KindNames))
	skip := make([]int, len(clspec.KindNames))
	for i, k := range clspec.KindNames {
		if k == mlspec.LexKindNameNil {
			continue
		}
		r, ok := kind2Rule[k.String()]
		if !ok {
			return nil, fmt.Errorf("unknown lex kind: %v", k)
		}
		if r.Skip || r.Token == "" {
			skip[i] = 1
			continue
		}
		kind2Term[i] = term2Num[r.Token]
		kind2Tok[i] = r.Token
	}

	b, err := json.Marshal(clspec)
	if err != nil {
		return nil, err
	}

	tracer().Debugf("DFA: %v lex kinds, %v lex modes", len(clspec.KindNames)-1, len(all))

	return &spec.DFA{
		Spec:           b,
		KindToTerminal: kind2Term,
		KindToToken:    kind2Tok,
		Skip:           skip,
	}, nil
}

func containsCondition(conds []string, cond string) bool {
	for _, c := range conds {
		if c == cond {
			return true
		}
	}
	return false
}

func writeCompileError(w io.Writer, cErr *mlcompiler.CompileError) {
	if cErr.Fragment {
		fmt.Fprintf(w, "fragment ")
	}
	fmt.Fprintf(w, "%v: %v", cErr.Kind, cErr.Cause)
	if cErr.Detail != "" {
		fmt.Fprintf(w, ": %v", cErr.Detail)
	}
}

// DFALexer runs a lexical specification compiled by CompileDFA. It returns the same tokens as
// Lexer does for the same specification.
type DFALexer struct {
	lex  *mldriver.Lexer
	dfa  *spec.DFA
	done bool
	err  error
}

func NewDFALexer(dfa *spec.DFA, src io.Reader) (*DFALexer, error) {
	clspec := &mlspec.CompiledLexSpec{}
	if err := json.Unmarshal(dfa.Spec, clspec); err != nil {
		return nil, err
	}
	lex, err := mldriver.NewLexer(mldriver.NewLexSpec(clspec), src)
	if err != nil {
		return nil, err
	}
	return &DFALexer{
		lex: lex,
		dfa: dfa,
	}, nil
}

func (l *DFALexer) Next() (*Token, error) {
	if l.err != nil {
		return nil, l.err
	}
	if l.done {
		return nil, ErrEndOfInput
	}

	for {
		tok, err := l.lex.Next()
		if err != nil {
			l.err = err
			return nil, err
		}
		first := Position{
			Row: tok.Row,
			Col: tok.Col,
		}
		if tok.EOF {
			l.done = true
			return &Token{
				Name: TokenNameEOF,
				Row:  first.Row,
				Col:  first.Col,
				Loc: Location{
					First: first,
					Last:  first,
				},
				EOF: true,
			}, nil
		}
		if tok.Invalid {
			snippet := string(tok.Lexeme)
			if utf8.RuneCountInString(snippet) > 10 {
				snippet = string([]rune(snippet)[:10])
			}
			l.err = &LexicalError{
				Row:       first.Row,
				Col:       first.Col,
				Snippet:   snippet,
				Condition: spec.ConditionInitial,
			}
			return nil, l.err
		}
		if l.dfa.Skip[tok.KindID] == 1 {
			continue
		}

		text := string(tok.Lexeme)
		return &Token{
			Name: l.dfa.KindToToken[tok.KindID],
			Text: text,
			Row:  first.Row,
			Col:  first.Col,
			Loc: Location{
				First: first,
				Last:  advance(first, text),
			},
		}, nil
	}
}

package lexer

import (
	"fmt"
	"regexp"
	"strings"

	spec "github.com/nihei9/lalrgen/spec/grammar"
)

// Spec is a lexical specification whose patterns are compiled. It is read-only and can be shared
// among lexers.
type Spec struct {
	rules []*rule

	// conditions maps a start condition to whether it is exclusive.
	conditions map[string]bool
	policy     string
}

type rule struct {
	num  int
	src  *spec.LexRule
	re   *regexp.Regexp
	any  bool
	cond map[string]struct{}
}

// activeIn reports whether the rule is visible in a start condition. A rule without conditions is
// visible in INITIAL and in every inclusive condition.
func (r *rule) activeIn(cond string, exclusive bool) bool {
	if r.any {
		return true
	}
	if len(r.cond) == 0 {
		return !exclusive
	}
	_, ok := r.cond[cond]
	return ok
}

var macroRefPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_\-]*)\}`)

// CompileSpec expands macros and compiles every rule of a lexical specification.
func CompileSpec(ls *spec.LexSpec) (*Spec, error) {
	if ls == nil {
		return nil, fmt.Errorf("lexical specification is missing")
	}

	policy := spec.PolicyLongestMatch
	caseInsensitive := false
	if ls.Options != nil {
		if ls.Options.Policy != "" {
			policy = ls.Options.Policy
		}
		caseInsensitive = ls.Options.CaseInsensitive
	}
	if policy != spec.PolicyLongestMatch && policy != spec.PolicyFirstMatch {
		return nil, fmt.Errorf("invalid policy: %v", policy)
	}

	conds := map[string]bool{
		spec.ConditionInitial: false,
	}
	for name, exclusive := range ls.StartConditions {
		if name == spec.ConditionAny || name == "" {
			return nil, fmt.Errorf("invalid start condition name: %q", name)
		}
		conds[name] = exclusive
	}

	macros, err := expandMacros(ls.Macros, groupNonCapturing)
	if err != nil {
		return nil, err
	}

	s := &Spec{
		conditions: conds,
		policy:     policy,
	}
	for i, src := range ls.Rules {
		if src == nil || src.Pattern == "" {
			return nil, fmt.Errorf("rule #%v: a pattern is required", i+1)
		}

		r := &rule{
			num:  i,
			src:  src,
			cond: map[string]struct{}{},
		}
		for _, c := range src.Conditions {
			if c == spec.ConditionAny {
				r.any = true
				continue
			}
			if _, ok := conds[c]; !ok {
				return nil, fmt.Errorf("rule #%v: undefined start condition: %v", i+1, c)
			}
			r.cond[c] = struct{}{}
		}
		if src.Push != "" {
			if _, ok := conds[src.Push]; !ok {
				return nil, fmt.Errorf("rule #%v: undefined start condition: %v", i+1, src.Push)
			}
		}

		pattern := expandPattern(src.Pattern, macros, groupNonCapturing)
		flags := ""
		if caseInsensitive {
			flags = "(?i)"
		}
		re, err := regexp.Compile(flags + "^(?:" + pattern + ")")
		if err != nil {
			return nil, fmt.Errorf("rule #%v: %w", i+1, err)
		}
		r.re = re
		s.rules = append(s.rules, r)
	}

	return s, nil
}

const (
	groupNonCapturing = "(?:"
	groupPlain        = "("
)

// expandMacros resolves macros referring to other macros. A cycle is an error.
func expandMacros(macros map[string]string, open string) (map[string]string, error) {
	resolved := map[string]string{}
	visiting := map[string]bool{}

	var resolve func(name string) (string, error)
	resolve = func(name string) (string, error) {
		if p, ok := resolved[name]; ok {
			return p, nil
		}
		if visiting[name] {
			return "", fmt.Errorf("macro %v refers to itself", name)
		}
		visiting[name] = true
		defer delete(visiting, name)

		var err error
		p := macroRefPattern.ReplaceAllStringFunc(macros[name], func(ref string) string {
			n := ref[1 : len(ref)-1]
			if _, ok := macros[n]; !ok {
				return ref
			}
			e, rerr := resolve(n)
			if rerr != nil && err == nil {
				err = rerr
			}
			return open + e + ")"
		})
		if err != nil {
			return "", err
		}
		resolved[name] = p
		return p, nil
	}

	for name := range macros {
		if _, err := resolve(name); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

func expandPattern(pattern string, macros map[string]string, open string) string {
	if len(macros) == 0 || !strings.Contains(pattern, "{") {
		return pattern
	}
	return macroRefPattern.ReplaceAllStringFunc(pattern, func(ref string) string {
		p, ok := macros[ref[1:len(ref)-1]]
		if !ok {
			return ref
		}
		return open + p + ")"
	})
}

// ActionNames returns the names of the procedural actions the rules refer to.
func (s *Spec) ActionNames() []string {
	var names []string
	seen := map[string]struct{}{}
	for _, r := range s.rules {
		if r.src.IsDeclarative() {
			continue
		}
		if _, ok := seen[r.src.Action]; ok {
			continue
		}
		seen[r.src.Action] = struct{}{}
		names = append(names, r.src.Action)
	}
	return names
}

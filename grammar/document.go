package grammar

import (
	"errors"
	"io"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	verr "github.com/nihei9/lalrgen/error"
	spec "github.com/nihei9/lalrgen/spec/grammar"
	"gopkg.in/yaml.v3"
)

var (
	errDocNotMapping     = errors.New("a document must be a mapping")
	errDocInvalidRule    = errors.New("invalid rule")
	errDocInvalidAlt     = errors.New("invalid alternative")
	errDocInvalidOp      = errors.New("invalid operator declaration")
	errDocInvalidLex     = errors.New("invalid lexical specification")
	errDocInvalidLexRule = errors.New("invalid lexical rule")
	errDocDuplicateKey   = errors.New("duplicate key")
	errDocInvalidField   = errors.New("invalid field")
)

// ParseDocument reads a grammar document written in YAML or JSON. The document follows the
// layout of jison's JSON grammars:
//
//	name: calc
//	operators:
//	  - [left, "+", "-"]
//	bnf:
//	  e:
//	    - ["e '+' e", "plus"]
//	    - NUMBER
//	lex:
//	  rules:
//	    - ['\s+', ""]
//	    - ['[0-9]+', NUMBER]
//
// Rules keep the order in which they appear in bnf. The start symbol is given by startSymbol, or
// by its short form start. A key the layout doesn't define is an error.
func ParseDocument(r io.Reader) (*spec.GrammarSpec, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		return nil, err
	}
	doc := &root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return nil, nodeError(doc, errDocNotMapping, "")
	}

	gram := &spec.GrammarSpec{}
	loose := map[string]interface{}{}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i]
		val := doc.Content[i+1]
		if key.Value == "start" {
			key = &yaml.Node{
				Kind:   key.Kind,
				Value:  "startSymbol",
				Line:   key.Line,
				Column: key.Column,
			}
		}
		if _, ok := loose[key.Value]; ok {
			return nil, nodeError(key, errDocDuplicateKey, key.Value)
		}
		var err error
		switch key.Value {
		case "bnf":
			gram.Rules, err = parseBNF(val)
		case "operators":
			gram.Operators, err = parseOperators(val)
		case "lex":
			gram.Lex, err = parseLex(val)
		default:
			var v interface{}
			err = val.Decode(&v)
			loose[key.Value] = v
		}
		if err != nil {
			return nil, err
		}
	}

	if err := decodeLoose(loose, gram); err != nil {
		return nil, nodeError(doc, errDocInvalidField, err.Error())
	}

	return gram, nil
}

func nodeError(n *yaml.Node, cause error, detail string) *verr.SpecError {
	return &verr.SpecError{
		Cause:  cause,
		Detail: detail,
		Row:    n.Line,
		Col:    n.Column,
	}
}

// decodeLoose decodes plain fields. A space-separated string is accepted wherever a list of
// strings is expected, as jison does for tokens. Keys without a field are rejected.
func decodeLoose(input interface{}, result interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       stringToFieldsHook,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           result,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func stringToFieldsHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf([]string{}) {
		return data, nil
	}
	return strings.Fields(data.(string)), nil
}

func parseBNF(n *yaml.Node) ([]*spec.Rule, error) {
	if n.Kind != yaml.MappingNode {
		return nil, nodeError(n, errDocInvalidRule, "bnf must be a mapping")
	}

	var rules []*spec.Rule
	for i := 0; i+1 < len(n.Content); i += 2 {
		lhs := n.Content[i]
		body := n.Content[i+1]
		rule := &spec.Rule{
			LHS: lhs.Value,
		}
		switch body.Kind {
		case yaml.ScalarNode:
			for _, rhs := range splitAlternatives(body.Value) {
				rule.Alternatives = append(rule.Alternatives, &spec.Alternative{
					RHS: rhs,
				})
			}
		case yaml.SequenceNode:
			for _, e := range body.Content {
				alt, err := parseAlternative(e)
				if err != nil {
					return nil, err
				}
				rule.Alternatives = append(rule.Alternatives, alt)
			}
		default:
			return nil, nodeError(body, errDocInvalidRule, lhs.Value)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// splitAlternatives splits `a b | c` into alternatives. A quoted `|` is a symbol.
func splitAlternatives(body string) []string {
	var alts []string
	var quote rune
	start := 0
	for i, c := range body {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '|':
			alts = append(alts, strings.TrimSpace(body[start:i]))
			start = i + 1
		}
	}
	return append(alts, strings.TrimSpace(body[start:]))
}

func parseAlternative(n *yaml.Node) (*spec.Alternative, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return &spec.Alternative{
			RHS: n.Value,
		}, nil
	case yaml.MappingNode:
		var v map[string]interface{}
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		alt := &spec.Alternative{}
		if err := decodeLoose(v, alt); err != nil {
			return nil, nodeError(n, errDocInvalidAlt, err.Error())
		}
		return alt, nil
	case yaml.SequenceNode:
		if len(n.Content) == 0 || len(n.Content) > 3 {
			return nil, nodeError(n, errDocInvalidAlt, "an alternative takes [rhs, action, options]")
		}
		alt := &spec.Alternative{}
		for i, e := range n.Content {
			if i < 2 && e.Kind != yaml.ScalarNode {
				return nil, nodeError(e, errDocInvalidAlt, "rhs and action must be strings")
			}
			switch i {
			case 0:
				alt.RHS = e.Value
			case 1:
				alt.Action = e.Value
			case 2:
				var v map[string]interface{}
				if err := e.Decode(&v); err != nil {
					return nil, nodeError(e, errDocInvalidAlt, err.Error())
				}
				if err := decodeLoose(v, alt); err != nil {
					return nil, nodeError(e, errDocInvalidAlt, err.Error())
				}
			}
		}
		return alt, nil
	}
	return nil, nodeError(n, errDocInvalidAlt, "")
}

func parseOperators(n *yaml.Node) ([]*spec.Operator, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, nodeError(n, errDocInvalidOp, "operators must be a list")
	}

	var ops []*spec.Operator
	for _, e := range n.Content {
		switch e.Kind {
		case yaml.SequenceNode:
			var v []string
			if err := e.Decode(&v); err != nil {
				return nil, nodeError(e, errDocInvalidOp, err.Error())
			}
			if len(v) < 2 {
				return nil, nodeError(e, errDocInvalidOp, "an operator line takes an associativity and symbols")
			}
			ops = append(ops, &spec.Operator{
				Assoc:   v[0],
				Symbols: v[1:],
			})
		case yaml.MappingNode:
			var v map[string]interface{}
			if err := e.Decode(&v); err != nil {
				return nil, nodeError(e, errDocInvalidOp, err.Error())
			}
			op := &spec.Operator{}
			if err := decodeLoose(v, op); err != nil {
				return nil, nodeError(e, errDocInvalidOp, err.Error())
			}
			ops = append(ops, op)
		default:
			return nil, nodeError(e, errDocInvalidOp, "")
		}
	}
	return ops, nil
}

func parseLex(n *yaml.Node) (*spec.LexSpec, error) {
	if n.Kind != yaml.MappingNode {
		return nil, nodeError(n, errDocInvalidLex, "lex must be a mapping")
	}

	lex := &spec.LexSpec{}
	loose := map[string]interface{}{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i]
		val := n.Content[i+1]
		if key.Value != "rules" {
			var v interface{}
			if err := val.Decode(&v); err != nil {
				return nil, err
			}
			loose[key.Value] = v
			continue
		}

		if val.Kind != yaml.SequenceNode {
			return nil, nodeError(val, errDocInvalidLex, "rules must be a list")
		}
		for _, e := range val.Content {
			r, err := parseLexRule(e)
			if err != nil {
				return nil, err
			}
			lex.Rules = append(lex.Rules, r)
		}
	}

	if err := decodeLoose(loose, lex); err != nil {
		return nil, nodeError(n, errDocInvalidLex, err.Error())
	}

	return lex, nil
}

// parseLexRule accepts [pattern, token], [[conditions], pattern, token], and the mapping form.
func parseLexRule(n *yaml.Node) (*spec.LexRule, error) {
	switch n.Kind {
	case yaml.MappingNode:
		var v map[string]interface{}
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		r := &spec.LexRule{}
		if err := decodeLoose(v, r); err != nil {
			return nil, nodeError(n, errDocInvalidLexRule, err.Error())
		}
		return r, nil
	case yaml.SequenceNode:
		elems := n.Content
		r := &spec.LexRule{}
		if len(elems) > 0 && elems[0].Kind == yaml.SequenceNode {
			if err := elems[0].Decode(&r.Conditions); err != nil {
				return nil, nodeError(elems[0], errDocInvalidLexRule, err.Error())
			}
			elems = elems[1:]
		}
		if len(elems) == 0 || len(elems) > 2 {
			return nil, nodeError(n, errDocInvalidLexRule, "a rule takes [conditions], pattern, and token")
		}
		for _, e := range elems {
			if e.Kind != yaml.ScalarNode {
				return nil, nodeError(e, errDocInvalidLexRule, "pattern and token must be strings")
			}
		}
		r.Pattern = elems[0].Value
		if len(elems) == 2 {
			r.Token = elems[1].Value
		}
		return r, nil
	}
	return nil, nodeError(n, errDocInvalidLexRule, "")
}

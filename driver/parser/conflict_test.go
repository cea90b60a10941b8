package parser

import (
	"fmt"
	"strings"
	"testing"
)

// operatorLex returns a lexical specification recognizing the given one-character operators and
// identifiers.
func operatorLex(ops ...string) string {
	var b strings.Builder
	b.WriteString("lex:\n  rules:\n")
	for _, op := range ops {
		fmt.Fprintf(&b, "    - ['[%v]', '%v']\n", op, op)
	}
	b.WriteString("    - ['[a-z]+', id]\n")
	return b.String()
}

func TestParserWithConflicts(t *testing.T) {
	tests := []struct {
		caption string
		specSrc string
		src     string
		cst     *Node
	}{
		{
			caption: "without precedence, a shift/reduce conflict goes to the shift",
			specSrc: `
name: test
bnf:
  expr: expr assign expr | id
lex:
  rules:
    - ['=', assign]
    - ['[a-z]+', id]
`,
			src: `foo=bar=baz`,
			cst: nonTermNode("expr",
				nonTermNode("expr",
					termNode("id", "foo"),
				),
				termNode("assign", "="),
				nonTermNode("expr",
					nonTermNode("expr",
						termNode("id", "bar"),
					),
					termNode("assign", "="),
					nonTermNode("expr",
						termNode("id", "baz"),
					),
				),
			),
		},
		{
			caption: "a reduce/reduce conflict goes to the earlier production",
			specSrc: `
name: test
bnf:
  s: a | b
  a: id
  b: id
lex:
  rules:
    - ['[a-z]+', id]
`,
			src: `foo`,
			cst: nonTermNode("s",
				nonTermNode("a",
					termNode("id", "foo"),
				),
			),
		},
		{
			caption: "left-associative operators on one line share a level",
			specSrc: `
name: test
operators:
  - [left, '+', '-']
bnf:
  expr: expr '+' expr | expr '-' expr | id
` + operatorLex("+", "-"),
			src: `a+b-c`,
			cst: nonTermNode("expr",
				nonTermNode("expr",
					nonTermNode("expr",
						termNode("id", "a"),
					),
					termNode("+", "+"),
					nonTermNode("expr",
						termNode("id", "b"),
					),
				),
				termNode("-", "-"),
				nonTermNode("expr",
					termNode("id", "c"),
				),
			),
		},
		{
			caption: "right-associative operators on one line share a level",
			specSrc: `
name: test
operators:
  - [right, '+', '-']
bnf:
  expr: expr '+' expr | expr '-' expr | id
` + operatorLex("+", "-"),
			src: `a+b-c`,
			cst: nonTermNode("expr",
				nonTermNode("expr",
					termNode("id", "a"),
				),
				termNode("+", "+"),
				nonTermNode("expr",
					nonTermNode("expr",
						termNode("id", "b"),
					),
					termNode("-", "-"),
					nonTermNode("expr",
						termNode("id", "c"),
					),
				),
			),
		},
		{
			caption: "operators declared later have higher precedence",
			specSrc: `
name: test
operators:
  - [left, '+']
  - [left, '*']
bnf:
  expr: expr '+' expr | expr '*' expr | id
` + operatorLex("+", "*"),
			src: `a*b+c*d`,
			cst: nonTermNode("expr",
				nonTermNode("expr",
					nonTermNode("expr",
						termNode("id", "a"),
					),
					termNode("*", "*"),
					nonTermNode("expr",
						termNode("id", "b"),
					),
				),
				termNode("+", "+"),
				nonTermNode("expr",
					nonTermNode("expr",
						termNode("id", "c"),
					),
					termNode("*", "*"),
					nonTermNode("expr",
						termNode("id", "d"),
					),
				),
			),
		},
		{
			caption: "an alternative with an explicit precedence takes the precedence of the named operator",
			specSrc: `
name: test
operators:
  - [left, '-']
  - [right, UMINUS]
bnf:
  expr:
    - "expr '-' expr"
    - ["'-' expr", "", {prec: UMINUS}]
    - id
` + operatorLex("-"),
			src: `-a-b`,
			cst: nonTermNode("expr",
				nonTermNode("expr",
					termNode("-", "-"),
					nonTermNode("expr",
						termNode("id", "a"),
					),
				),
				termNode("-", "-"),
				nonTermNode("expr",
					termNode("id", "b"),
				),
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			cg := compileTestGrammar(t, tt.specSrc)
			testTree(t, parseTree(t, cg, tt.src), tt.cst)
		})
	}
}

package tester

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/nihei9/lalrgen/driver/parser"
	"github.com/nihei9/lalrgen/grammar"
	spec "github.com/nihei9/lalrgen/spec/grammar"
)

type TreeDiff struct {
	ExpectedPath string
	ActualPath   string
	Message      string
}

func newTreeDiff(expected, actual *Tree, message string) *TreeDiff {
	return &TreeDiff{
		ExpectedPath: expected.path(),
		ActualPath:   actual.path(),
		Message:      message,
	}
}

// Tree is the notation-independent form of a syntax tree. A terminal carries its text in Lexeme.
type Tree struct {
	Parent   *Tree
	Offset   int
	Kind     string
	Children []*Tree
	Lexeme   string
}

func NewNonTerminalTree(kind string, children ...*Tree) *Tree {
	return &Tree{
		Kind:     kind,
		Children: children,
	}
}

func NewTerminalTree(kind string, lexeme string) *Tree {
	return &Tree{
		Kind:   kind,
		Lexeme: lexeme,
	}
}

// ConvertTree converts a concrete syntax tree the parser built.
func ConvertTree(node *parser.Node) *Tree {
	if node == nil {
		return nil
	}
	if node.Type != parser.NodeTypeNonTerminal {
		return NewTerminalTree(node.KindName, node.Text)
	}
	var children []*Tree
	for _, c := range node.Children {
		children = append(children, ConvertTree(c))
	}
	return NewNonTerminalTree(node.KindName, children...)
}

// Fill sets the parent links and offsets of the whole tree.
func (t *Tree) Fill() *Tree {
	for i, c := range t.Children {
		c.Parent = t
		c.Offset = i
		c.Fill()
	}
	return t
}

func (t *Tree) path() string {
	if t.Parent == nil {
		return t.Kind
	}
	return fmt.Sprintf("%v.[%v]%v", t.Parent.path(), t.Offset, t.Kind)
}

// Format writes the tree in the notation ParseTree reads.
func (t *Tree) Format() []byte {
	var b bytes.Buffer
	t.format(&b, 0)
	return b.Bytes()
}

func (t *Tree) format(buf *bytes.Buffer, depth int) {
	buf.WriteString(strings.Repeat("    ", depth))
	buf.WriteString("(")
	buf.WriteString(formatKind(t.Kind))
	if t.Lexeme != "" {
		buf.WriteString(" ")
		buf.WriteString(strconv.Quote(t.Lexeme))
	}
	for _, c := range t.Children {
		buf.WriteString("\n")
		c.format(buf, depth+1)
	}
	buf.WriteString(")")
}

func formatKind(kind string) string {
	if kind == "" || strings.ContainsAny(kind, " \t\r\n()'\"") {
		return strconv.Quote(kind)
	}
	return kind
}

// DiffTree compares an actual tree with an expected one. The kind `_` in an expected tree matches
// any kind.
func DiffTree(expected, actual *Tree) []*TreeDiff {
	if expected == nil && actual == nil {
		return nil
	}
	if expected == nil || actual == nil {
		return []*TreeDiff{
			{
				Message: fmt.Sprintf("unexpected tree: expected %v but got %v", expected != nil, actual != nil),
			},
		}
	}
	if expected.Kind != "_" && actual.Kind != expected.Kind {
		msg := fmt.Sprintf("unexpected kind: expected '%v' but got '%v'", expected.Kind, actual.Kind)
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	if expected.Lexeme != actual.Lexeme {
		msg := fmt.Sprintf("unexpected lexeme: expected '%v' but got '%v'", expected.Lexeme, actual.Lexeme)
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	if len(actual.Children) != len(expected.Children) {
		msg := fmt.Sprintf("unexpected node count: expected %v but got %v", len(expected.Children), len(actual.Children))
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	var diffs []*TreeDiff
	for i, exp := range expected.Children {
		if ds := DiffTree(exp, actual.Children[i]); len(ds) > 0 {
			diffs = append(diffs, ds...)
		}
	}
	return diffs
}

// treeGrammarSrc describes the tree notation:
//
//	(expr
//	    (expr (id "a"))
//	    ('+' "+")
//	    (expr (id 'b')))
const treeGrammarSrc = `
name: tree
bnf:
  tree:
    - ["'(' kind ')'", node]
    - ["'(' kind STRING ')'", leaf]
    - ["'(' kind trees ')'", parent]
  kind:
    - ID
    - [STRING, unquote]
  trees:
    - ["trees tree", append]
    - [tree, single]
lex:
  rules:
    - ['\s+', ""]
    - ['\(', '(']
    - ['\)', ')']
    - ["'[^']*'", STRING]
    - ['"(\\.|[^"\\])*"', STRING]
    - ['[^\s()''"]+', ID]
`

var (
	treeGrammarOnce sync.Once
	treeGrammar     *spec.CompiledGrammar
	treeGrammarErr  error
)

func compileTreeGrammar() (*spec.CompiledGrammar, error) {
	treeGrammarOnce.Do(func() {
		gs, err := grammar.ParseDocument(strings.NewReader(treeGrammarSrc))
		if err != nil {
			treeGrammarErr = err
			return
		}
		b := grammar.GrammarBuilder{
			Spec: gs,
		}
		gram, err := b.Build()
		if err != nil {
			treeGrammarErr = err
			return
		}
		treeGrammar, _, treeGrammarErr = grammar.Compile(gram)
	})
	return treeGrammar, treeGrammarErr
}

func unquote(s string) (string, error) {
	if strings.HasPrefix(s, "'") {
		return strings.TrimSuffix(strings.TrimPrefix(s, "'"), "'"), nil
	}
	return strconv.Unquote(s)
}

var treeActions = map[string]parser.ActionFunc{
	"node": func(ctx *parser.ReductionContext) error {
		ctx.Result = NewNonTerminalTree(ctx.Arg(2).(string))
		return nil
	},
	"leaf": func(ctx *parser.ReductionContext) error {
		lexeme, err := unquote(ctx.Arg(3).(string))
		if err != nil {
			pos := ctx.Locations[2].First
			return fmt.Errorf("%v:%v: invalid string: %w", pos.Row+1, pos.Col+1, err)
		}
		ctx.Result = NewTerminalTree(ctx.Arg(2).(string), lexeme)
		return nil
	},
	"parent": func(ctx *parser.ReductionContext) error {
		ctx.Result = NewNonTerminalTree(ctx.Arg(2).(string), ctx.Arg(3).([]*Tree)...)
		return nil
	},
	"unquote": func(ctx *parser.ReductionContext) error {
		s, err := unquote(ctx.Arg(1).(string))
		if err != nil {
			pos := ctx.Loc.First
			return fmt.Errorf("%v:%v: invalid string: %w", pos.Row+1, pos.Col+1, err)
		}
		ctx.Result = s
		return nil
	},
	"append": func(ctx *parser.ReductionContext) error {
		ctx.Result = append(ctx.Arg(1).([]*Tree), ctx.Arg(2).(*Tree))
		return nil
	},
	"single": func(ctx *parser.ReductionContext) error {
		ctx.Result = []*Tree{ctx.Arg(1).(*Tree)}
		return nil
	},
}

// ParseTree reads a tree written in the tree notation.
func ParseTree(src io.Reader) (*Tree, error) {
	cg, err := compileTreeGrammar()
	if err != nil {
		return nil, fmt.Errorf("failed to compile the tree notation: %w", err)
	}
	v, err := parser.Parse(cg, src, parser.WithActions(treeActions))
	if err != nil {
		return nil, err
	}
	t, ok := v.(*Tree)
	if !ok {
		return nil, fmt.Errorf("a tree notation must have a root node")
	}
	return t.Fill(), nil
}

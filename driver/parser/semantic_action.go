package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nihei9/lalrgen/driver/lexer"
)

// SemanticActionSet receives the parser's moves. An implementation keeps its own value stack in
// step with the state stack: one frame per shifted or reduced symbol.
type SemanticActionSet interface {
	// Shift pushes a value for tok. recovered is set on the shift that leaves error recovery.
	Shift(tok VToken, recovered bool) error

	// Reduce replaces the values of the RHS of production prodNum with one value for its LHS.
	// Returning ErrReturn ends the parse and accepts.
	Reduce(prodNum int, recovering bool) error

	Accept() error

	// TrapAndShiftError drops popped frames and pushes a value for the error symbol.
	TrapAndShiftError(cause VToken, popped int) error

	// MissError is the last call of a parse that fails on cause.
	MissError(cause VToken)
}

var _ SemanticActionSet = &SyntaxTreeActionSet{}

type SyntaxTreeNode interface {
	ChildCount() int
}

var _ SyntaxTreeNode = &Node{}

// SyntaxTreeBuilder makes the nodes of a concrete syntax tree. Implement it to build trees of
// your own node type.
type SyntaxTreeBuilder interface {
	Shift(kindName string, text string, loc lexer.Location) SyntaxTreeNode
	ShiftError(kindName string) SyntaxTreeNode
	Reduce(kindName string, children []SyntaxTreeNode) SyntaxTreeNode
	Accept(root SyntaxTreeNode)
}

var _ SyntaxTreeBuilder = &DefaultSyntaxTreeBuilder{}

// DefaultSyntaxTreeBuilder builds a tree of *Node.
type DefaultSyntaxTreeBuilder struct {
	root *Node
}

func NewDefaultSyntaxTreeBuilder() *DefaultSyntaxTreeBuilder {
	return &DefaultSyntaxTreeBuilder{}
}

func (b *DefaultSyntaxTreeBuilder) Shift(kindName string, text string, loc lexer.Location) SyntaxTreeNode {
	return &Node{
		Type:     NodeTypeTerminal,
		KindName: kindName,
		Text:     text,
		Loc:      loc,
	}
}

func (b *DefaultSyntaxTreeBuilder) ShiftError(kindName string) SyntaxTreeNode {
	return &Node{
		Type:     NodeTypeError,
		KindName: kindName,
	}
}

func (b *DefaultSyntaxTreeBuilder) Reduce(kindName string, children []SyntaxTreeNode) SyntaxTreeNode {
	n := &Node{
		Type:     NodeTypeNonTerminal,
		KindName: kindName,
		Children: make([]*Node, 0, len(children)),
	}
	for _, c := range children {
		n.Children = append(n.Children, c.(*Node))
	}
	return n
}

func (b *DefaultSyntaxTreeBuilder) Accept(root SyntaxTreeNode) {
	b.root = root.(*Node)
}

// Tree returns the root, or nil unless the input was accepted.
func (b *DefaultSyntaxTreeBuilder) Tree() *Node {
	return b.root
}

// SyntaxTreeActionSet builds a concrete syntax tree and ignores the action texts of productions.
type SyntaxTreeActionSet struct {
	gram    Grammar
	builder SyntaxTreeBuilder
	nodes   *semanticStack[SyntaxTreeNode]
}

func NewSyntaxTreeActionSet(gram Grammar, builder SyntaxTreeBuilder) *SyntaxTreeActionSet {
	return &SyntaxTreeActionSet{
		gram:    gram,
		builder: builder,
		nodes:   newSemanticStack[SyntaxTreeNode](),
	}
}

func (a *SyntaxTreeActionSet) Shift(tok VToken, recovered bool) error {
	a.nodes.push(a.builder.Shift(a.gram.Terminal(tok.TerminalID()), tok.Text(), tok.Location()))
	return nil
}

func (a *SyntaxTreeActionSet) Reduce(prodNum int, recovering bool) error {
	// pop shares storage with the stack; the builder gets its own copy.
	rhs := a.nodes.pop(a.gram.AlternativeSymbolCount(prodNum))
	children := append([]SyntaxTreeNode(nil), rhs...)
	a.nodes.push(a.builder.Reduce(a.gram.NonTerminal(a.gram.LHS(prodNum)), children))
	return nil
}

func (a *SyntaxTreeActionSet) Accept() error {
	root, ok := a.nodes.top()
	if !ok {
		return fmt.Errorf("no node is left to accept")
	}
	a.builder.Accept(root)
	return nil
}

func (a *SyntaxTreeActionSet) TrapAndShiftError(cause VToken, popped int) error {
	a.nodes.pop(popped)
	a.nodes.push(a.builder.ShiftError(a.gram.Terminal(a.gram.Error())))
	return nil
}

func (a *SyntaxTreeActionSet) MissError(cause VToken) {
}

type semanticStack[T any] struct {
	frames []T
}

func newSemanticStack[T any]() *semanticStack[T] {
	return &semanticStack[T]{
		frames: make([]T, 0, 64),
	}
}

func (s *semanticStack[T]) push(f T) {
	s.frames = append(s.frames, f)
}

// pop removes the top n frames and returns them. The returned slice shares the storage of the
// stack, so a later push overwrites it.
func (s *semanticStack[T]) pop(n int) []T {
	rest := len(s.frames) - n
	fs := s.frames[rest:]
	s.frames = s.frames[:rest]
	return fs
}

func (s *semanticStack[T]) top() (T, bool) {
	if len(s.frames) == 0 {
		var zero T
		return zero, false
	}
	return s.frames[len(s.frames)-1], true
}

type NodeType int

const (
	NodeTypeError NodeType = iota
	NodeTypeTerminal
	NodeTypeNonTerminal
)

func (t NodeType) String() string {
	switch t {
	case NodeTypeError:
		return "error"
	case NodeTypeTerminal:
		return "terminal"
	case NodeTypeNonTerminal:
		return "non-terminal"
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// Node is a node of a concrete syntax tree. Text and Loc are set on terminal nodes only.
type Node struct {
	Type     NodeType
	KindName string
	Text     string
	Loc      lexer.Location
	Children []*Node
}

type jsonPosition struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type jsonNode struct {
	Type     string        `json:"type"`
	KindName string        `json:"kind_name"`
	Text     *string       `json:"text,omitempty"`
	First    *jsonPosition `json:"first,omitempty"`
	Last     *jsonPosition `json:"last,omitempty"`
	Children *[]*Node      `json:"children,omitempty"`
}

func (n *Node) MarshalJSON() ([]byte, error) {
	j := jsonNode{
		Type:     n.Type.String(),
		KindName: n.KindName,
	}
	switch n.Type {
	case NodeTypeError:
	case NodeTypeTerminal:
		j.Text = &n.Text
		j.First = &jsonPosition{Row: n.Loc.First.Row, Col: n.Loc.First.Col}
		j.Last = &jsonPosition{Row: n.Loc.Last.Row, Col: n.Loc.Last.Col}
	case NodeTypeNonTerminal:
		children := n.Children
		if children == nil {
			children = []*Node{}
		}
		j.Children = &children
	default:
		return nil, fmt.Errorf("invalid node type: %v", n.Type)
	}
	return json.Marshal(j)
}

func (n *Node) ChildCount() int {
	return len(n.Children)
}

// PrintTree writes the tree rooted at node with box-drawing rules, one node per line.
func PrintTree(w io.Writer, node *Node) {
	printTree(w, node, nil, "")
}

// indent holds, per ancestor level, whether that ancestor was the last child.
func printTree(w io.Writer, node *Node, indent []bool, branch string) {
	if node == nil {
		return
	}

	var b strings.Builder
	for _, last := range indent {
		if last {
			b.WriteString("   ")
		} else {
			b.WriteString("│  ")
		}
	}
	b.WriteString(branch)
	b.WriteString(node.KindName)
	if node.Type == NodeTypeTerminal {
		b.WriteString(" ")
		b.WriteString(strconv.Quote(node.Text))
	}
	fmt.Fprintln(w, b.String())

	if node.Type != NodeTypeNonTerminal {
		return
	}
	var childIndent []bool
	if branch != "" {
		childIndent = append(append([]bool(nil), indent...), branch == "└─ ")
	}
	for i, c := range node.Children {
		br := "├─ "
		if i == len(node.Children)-1 {
			br = "└─ "
		}
		printTree(w, c, childIndent, br)
	}
}

package parser

import (
	"strings"
	"testing"

	"github.com/nihei9/lalrgen/grammar"
	spec "github.com/nihei9/lalrgen/spec/grammar"
)

func compileTestGrammar(t *testing.T, src string, opts ...grammar.CompileOption) *spec.CompiledGrammar {
	t.Helper()

	gs, err := grammar.ParseDocument(strings.NewReader(src))
	if err != nil {
		t.Fatalf("failed to parse a grammar document: %v", err)
	}
	b := grammar.GrammarBuilder{
		Spec: gs,
	}
	gram, err := b.Build()
	if err != nil {
		t.Fatalf("failed to build a grammar: %v", err)
	}
	cg, _, err := grammar.Compile(gram, opts...)
	if err != nil {
		t.Fatalf("failed to compile a grammar: %v", err)
	}
	return cg
}

func termNode(kind string, text string) *Node {
	return &Node{
		Type:     NodeTypeTerminal,
		KindName: kind,
		Text:     text,
	}
}

func errorNode() *Node {
	return &Node{
		Type:     NodeTypeError,
		KindName: "error",
	}
}

func nonTermNode(kind string, children ...*Node) *Node {
	return &Node{
		Type:     NodeTypeNonTerminal,
		KindName: kind,
		Children: children,
	}
}

func testTree(t *testing.T, node, expected *Node) {
	t.Helper()

	if node == nil || expected == nil {
		if node != expected {
			t.Fatalf("unexpected node; want: %+v, got: %+v", expected, node)
		}
		return
	}
	if node.Type != expected.Type || node.KindName != expected.KindName || node.Text != expected.Text {
		t.Fatalf("unexpected node; want: %+v, got: %+v", expected, node)
	}
	if len(node.Children) != len(expected.Children) {
		t.Fatalf("unexpected children; want: %v, got: %v", len(expected.Children), len(node.Children))
	}
	for i, c := range node.Children {
		testTree(t, c, expected.Children[i])
	}
}

// parseTree parses src and returns its concrete syntax tree.
func parseTree(t *testing.T, cg *spec.CompiledGrammar, src string) *Node {
	t.Helper()

	toks, err := NewTokenStream(cg, strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	gram := NewGrammar(cg)
	tb := NewDefaultSyntaxTreeBuilder()
	p, err := NewParser(toks, gram, SemanticAction(NewSyntaxTreeActionSet(gram, tb)))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Parse(); err != nil {
		t.Fatal(err)
	}
	return tb.Tree()
}

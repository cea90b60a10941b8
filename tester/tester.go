// Package tester checks compiled grammars against test cases: sources paired with the verdict or
// the parse tree they should produce.
package tester

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nihei9/lalrgen/driver/lexer"
	"github.com/nihei9/lalrgen/driver/parser"
	spec "github.com/nihei9/lalrgen/spec/grammar"
)

type TestResult struct {
	TestCasePath string
	Error        error
	Diffs        []*TreeDiff
}

func (r *TestResult) String() string {
	if r.Error != nil {
		const indent1 = "    "
		const indent2 = indent1 + indent1

		msgLines := strings.Split(r.Error.Error(), "\n")
		msg := fmt.Sprintf("Failed %v:\n%v%v", r.TestCasePath, indent1, strings.Join(msgLines, "\n"+indent1))
		if len(r.Diffs) == 0 {
			return msg
		}
		var diffLines []string
		for _, diff := range r.Diffs {
			diffLines = append(diffLines, diff.Message)
			diffLines = append(diffLines, fmt.Sprintf("%vexpected path: %v", indent1, diff.ExpectedPath))
			diffLines = append(diffLines, fmt.Sprintf("%vactual path:   %v", indent1, diff.ActualPath))
		}
		return fmt.Sprintf("%v\n%v%v", msg, indent2, strings.Join(diffLines, "\n"+indent2))
	}
	return fmt.Sprintf("Passed %v", r.TestCasePath)
}

type TestCaseWithMetadata struct {
	TestCase *TestCase
	FilePath string
	Error    error
}

// ListTestCases reads a test case file, or all test case files under a directory.
func ListTestCases(testPath string) []*TestCaseWithMetadata {
	fi, err := os.Stat(testPath)
	if err != nil {
		return []*TestCaseWithMetadata{
			{
				FilePath: testPath,
				Error:    err,
			},
		}
	}
	if !fi.IsDir() {
		c, err := parseTestCase(testPath)
		return []*TestCaseWithMetadata{
			{
				TestCase: c,
				FilePath: testPath,
				Error:    err,
			},
		}
	}

	es, err := os.ReadDir(testPath)
	if err != nil {
		return []*TestCaseWithMetadata{
			{
				FilePath: testPath,
				Error:    err,
			},
		}
	}
	var cases []*TestCaseWithMetadata
	for _, e := range es {
		cases = append(cases, ListTestCases(filepath.Join(testPath, e.Name()))...)
	}
	return cases
}

func parseTestCase(testCasePath string) (*TestCase, error) {
	f, err := os.Open(testCasePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseTestCase(f)
}

type Tester struct {
	Grammar *spec.CompiledGrammar
	Cases   []*TestCaseWithMetadata
}

func (t *Tester) Run() []*TestResult {
	var rs []*TestResult
	for _, c := range t.Cases {
		rs = append(rs, runTest(t.Grammar, c))
	}
	return rs
}

func runTest(g *spec.CompiledGrammar, c *TestCaseWithMetadata) *TestResult {
	fail := func(err error) *TestResult {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        err,
		}
	}

	if c.Error != nil {
		return fail(c.Error)
	}

	tree, synErrs, err := parse(g, c.TestCase.Source)
	if err != nil {
		if c.TestCase.Expect == ExpectReject && isInputError(err) {
			return &TestResult{
				TestCasePath: c.FilePath,
			}
		}
		return fail(err)
	}

	switch c.TestCase.Expect {
	case ExpectAccept:
		if len(synErrs) > 0 {
			return fail(fmt.Errorf("the source was rejected: %w", errors.Join(synErrs...)))
		}
	case ExpectReject:
		if len(synErrs) == 0 {
			return fail(fmt.Errorf("the source was accepted"))
		}
	case ExpectTree:
		if tree == nil {
			return fail(fmt.Errorf("parse tree was not generated"))
		}
		// A recovered parse still has a tree, so the comparison goes on regardless of syntax errors.
		diffs := DiffTree(c.TestCase.Output, ConvertTree(tree).Fill())
		if len(diffs) > 0 {
			return &TestResult{
				TestCasePath: c.FilePath,
				Error:        fmt.Errorf("output mismatch"),
				Diffs:        diffs,
			}
		}
	}
	return &TestResult{
		TestCasePath: c.FilePath,
	}
}

// parse returns the concrete syntax tree of src and the syntax errors the parser recovered from.
func parse(g *spec.CompiledGrammar, src []byte) (*parser.Node, []error, error) {
	gram := parser.NewGrammar(g)
	toks, err := parser.NewTokenStream(g, bytes.NewReader(src))
	if err != nil {
		return nil, nil, err
	}
	tb := parser.NewDefaultSyntaxTreeBuilder()
	p, err := parser.NewParser(toks, gram, parser.SemanticAction(parser.NewSyntaxTreeActionSet(gram, tb)))
	if err != nil {
		return nil, nil, err
	}
	if err := p.Parse(); err != nil {
		return nil, nil, err
	}
	var synErrs []error
	for _, e := range p.SyntaxErrors() {
		synErrs = append(synErrs, e)
	}
	return tb.Tree(), synErrs, nil
}

func isInputError(err error) bool {
	var synErr *parser.SyntaxError
	var lexErr *lexer.LexicalError
	return errors.As(err, &synErr) || errors.As(err, &lexErr)
}

// Verdict is the outcome of parsing one input.
type Verdict struct {
	Input    string
	Accepted bool

	// Err explains a rejection. It is nil for accepted inputs.
	Err error
}

// CheckInputs parses every input against a compiled grammar and reports whether each one is
// accepted. An input is accepted only when it parses without any syntax error. Inputs are parsed
// concurrently; the verdicts keep the order of the inputs.
func CheckInputs(g *spec.CompiledGrammar, inputs []string) []*Verdict {
	verdicts := make([]*Verdict, len(inputs))
	var wg sync.WaitGroup
	for i, input := range inputs {
		wg.Add(1)
		go func(i int, input string) {
			defer wg.Done()
			v := &Verdict{
				Input: input,
			}
			_, synErrs, err := parse(g, []byte(input))
			switch {
			case err != nil:
				v.Err = err
			case len(synErrs) > 0:
				v.Err = errors.Join(synErrs...)
			default:
				v.Accepted = true
			}
			verdicts[i] = v
		}(i, input)
	}
	wg.Wait()
	return verdicts
}

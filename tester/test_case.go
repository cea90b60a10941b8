package tester

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Expectation is what a test case expects from parsing its source.
type Expectation int

const (
	// ExpectAccept expects the source to parse without any syntax error.
	ExpectAccept Expectation = iota
	// ExpectReject expects a lexical or syntax error, including one the parser recovered from.
	ExpectReject
	// ExpectTree expects the parse tree to match Output. Recovered errors are allowed.
	ExpectTree
)

func (e Expectation) String() string {
	switch e {
	case ExpectAccept:
		return "accept"
	case ExpectReject:
		return "reject"
	case ExpectTree:
		return "tree"
	}
	return fmt.Sprintf("<unknown expectation: %d>", int(e))
}

// TestCase consists of a description, a source, and an expected output separated by lines of
// three or more hyphens:
//
//	Adds two numbers
//	---
//	1+2
//	---
//	(e (e (t (NUM "1"))) ('+' "+") (t (NUM "2")))
//
// The expected output is `accept`, `reject`, or a tree. A case without the third part expects
// acceptance.
type TestCase struct {
	Description string
	Source      []byte
	Expect      Expectation
	Output      *Tree
}

func ParseTestCase(r io.Reader) (*TestCase, error) {
	parts, err := splitIntoParts(r)
	if err != nil {
		return nil, err
	}
	if len(parts) < 2 || len(parts) > 3 {
		return nil, fmt.Errorf("too many or too few part delimiters: a test case consists of two or three parts: %v parts found", len(parts))
	}

	c := &TestCase{
		Description: string(parts[0].buf),
		Source:      parts[1].buf,
		Expect:      ExpectAccept,
	}
	if len(parts) == 2 {
		return c, nil
	}

	out := strings.TrimSpace(string(parts[2].buf))
	switch out {
	case "", ExpectAccept.String():
	case ExpectReject.String():
		c.Expect = ExpectReject
	default:
		tree, err := ParseTree(strings.NewReader(out))
		if err != nil {
			lineOffset := parts[0].lineCount + parts[1].lineCount + 2
			return nil, fmt.Errorf("output part starting at line %v: %w", lineOffset+1, err)
		}
		c.Expect = ExpectTree
		c.Output = tree
	}
	return c, nil
}

type testCasePart struct {
	buf       []byte
	lineCount int
}

func splitIntoParts(r io.Reader) ([]*testCasePart, error) {
	var parts []*testCasePart
	s := bufio.NewScanner(r)
	for {
		buf, lineCount, err := readPart(s)
		if err != nil {
			return nil, err
		}
		if buf == nil {
			break
		}
		parts = append(parts, &testCasePart{
			buf:       buf,
			lineCount: lineCount,
		})
	}
	return parts, nil
}

var reDelim = regexp.MustCompile(`^\s*---+\s*$`)

func readPart(s *bufio.Scanner) ([]byte, int, error) {
	if !s.Scan() {
		return nil, 0, s.Err()
	}
	line := s.Bytes()
	if reDelim.Match(line) {
		// An empty part; bytes.Buffer would return nil here.
		return []byte{}, 0, nil
	}
	var buf bytes.Buffer
	buf.Write(line)
	lineCount := 1
	for s.Scan() {
		line := s.Bytes()
		if reDelim.Match(line) {
			return buf.Bytes(), lineCount, nil
		}
		buf.WriteByte('\n')
		buf.Write(line)
		lineCount++
	}
	if err := s.Err(); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), lineCount, nil
}

package lexer

import (
	"fmt"
	"regexp/syntax"
	"strings"
	"unicode"
)

// dfaPattern rewrites a Go regular expression in maleeni's pattern dialect. The expression is
// parsed and simplified first, so Perl classes, counted repetitions, and case folding turn into
// brackets, concatenations, and options that maleeni understands. Anchors and empty alternatives
// have no counterpart and yield ErrDFAUnsupported.
func dfaPattern(pattern string) (string, error) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := writeDFAPattern(&b, re.Simplify()); err != nil {
		return "", fmt.Errorf("%w: %v: %v", ErrDFAUnsupported, pattern, err)
	}
	return b.String(), nil
}

func writeDFAPattern(b *strings.Builder, re *syntax.Regexp) error {
	switch re.Op {
	case syntax.OpLiteral:
		for _, r := range re.Rune {
			if re.Flags&syntax.FoldCase != 0 {
				if orbit := foldOrbit(r); len(orbit) > 1 {
					b.WriteString("[")
					for _, o := range orbit {
						writeDFAClassRune(b, o)
					}
					b.WriteString("]")
					continue
				}
			}
			writeDFARune(b, r)
		}
	case syntax.OpCharClass:
		if len(re.Rune) == 0 {
			return fmt.Errorf("an empty character class")
		}
		b.WriteString("[")
		for i := 0; i+1 < len(re.Rune); i += 2 {
			for _, rng := range withoutSurrogates(re.Rune[i], re.Rune[i+1]) {
				writeDFAClassRune(b, rng[0])
				if rng[1] != rng[0] {
					b.WriteString("-")
					writeDFAClassRune(b, rng[1])
				}
			}
		}
		b.WriteString("]")
	case syntax.OpAnyCharNotNL:
		b.WriteString(`[^\u{000A}]`)
	case syntax.OpAnyChar:
		b.WriteString(".")
	case syntax.OpCapture:
		b.WriteString("(")
		if err := writeDFAPattern(b, re.Sub[0]); err != nil {
			return err
		}
		b.WriteString(")")
	case syntax.OpStar, syntax.OpPlus, syntax.OpQuest:
		if err := writeDFAAtom(b, re.Sub[0]); err != nil {
			return err
		}
		switch re.Op {
		case syntax.OpStar:
			b.WriteString("*")
		case syntax.OpPlus:
			b.WriteString("+")
		default:
			b.WriteString("?")
		}
	case syntax.OpConcat:
		for _, sub := range re.Sub {
			if sub.Op == syntax.OpAlternate {
				if err := writeDFAGroup(b, sub); err != nil {
					return err
				}
				continue
			}
			if err := writeDFAPattern(b, sub); err != nil {
				return err
			}
		}
	case syntax.OpAlternate:
		for i, sub := range re.Sub {
			if i > 0 {
				b.WriteString("|")
			}
			if err := writeDFAPattern(b, sub); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%v is not supported", re)
	}
	return nil
}

// writeDFAAtom writes re so that a following repetition operator applies to all of it.
func writeDFAAtom(b *strings.Builder, re *syntax.Regexp) error {
	switch {
	case re.Op == syntax.OpLiteral && len(re.Rune) == 1:
	case re.Op == syntax.OpCharClass, re.Op == syntax.OpAnyChar, re.Op == syntax.OpAnyCharNotNL, re.Op == syntax.OpCapture:
	default:
		return writeDFAGroup(b, re)
	}
	return writeDFAPattern(b, re)
}

func writeDFAGroup(b *strings.Builder, re *syntax.Regexp) error {
	b.WriteString("(")
	if err := writeDFAPattern(b, re); err != nil {
		return err
	}
	b.WriteString(")")
	return nil
}

func writeDFARune(b *strings.Builder, r rune) {
	switch {
	case strings.ContainsRune(`\.*+?|()[]`, r):
		b.WriteRune('\\')
		b.WriteRune(r)
	case !unicode.IsPrint(r) || r == ' ':
		writeDFACodePoint(b, r)
	default:
		b.WriteRune(r)
	}
}

func writeDFAClassRune(b *strings.Builder, r rune) {
	switch {
	case strings.ContainsRune(`\^-]`, r):
		b.WriteRune('\\')
		b.WriteRune(r)
	case !unicode.IsPrint(r) || r == ' ':
		writeDFACodePoint(b, r)
	default:
		b.WriteRune(r)
	}
}

func writeDFACodePoint(b *strings.Builder, r rune) {
	if r <= 0xffff {
		fmt.Fprintf(b, `\u{%04X}`, r)
		return
	}
	fmt.Fprintf(b, `\u{%06X}`, r)
}

// foldOrbit returns r and the runes it folds to, in ascending order.
func foldOrbit(r rune) []rune {
	orbit := []rune{r}
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		orbit = append(orbit, f)
	}
	for i := 1; i < len(orbit); i++ {
		for j := i; j > 0 && orbit[j] < orbit[j-1]; j-- {
			orbit[j], orbit[j-1] = orbit[j-1], orbit[j]
		}
	}
	return orbit
}

// withoutSurrogates splits a range around U+D800..U+DFFF, which maleeni rejects when spelled out.
func withoutSurrogates(lo, hi rune) [][2]rune {
	const surLo, surHi = 0xd800, 0xdfff
	if hi < surLo || lo > surHi {
		return [][2]rune{{lo, hi}}
	}
	var rs [][2]rune
	if lo < surLo {
		rs = append(rs, [2]rune{lo, surLo - 1})
	}
	if hi > surHi {
		rs = append(rs, [2]rune{surHi + 1, hi})
	}
	return rs
}

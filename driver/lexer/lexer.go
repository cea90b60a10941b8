package lexer

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"unicode/utf8"

	"github.com/emirpasic/gods/stacks/arraystack"
	spec "github.com/nihei9/lalrgen/spec/grammar"
)

// TokenNameEOF is the name of the token a lexer returns at the end of input.
const TokenNameEOF = "$end"

var ErrEndOfInput = errors.New("the end of input has already been reached")

var ErrUndefinedCondition = errors.New("undefined start condition")

// Position is a location in the source. Row and Col are 0-based, and Col is counted in code
// points, not bytes.
type Position struct {
	Row int
	Col int
}

// Location is the span a token covers. Last is the position just after the token.
type Location struct {
	First Position
	Last  Position
}

type Token struct {
	Name string
	Text string
	Row  int
	Col  int
	Loc  Location

	// When this field is true, it means the token is the EOF token.
	EOF bool
}

// Length returns the length of the token text in code points.
func (t *Token) Length() int {
	return utf8.RuneCountInString(t.Text)
}

// LexicalError reports input that no rule matches. A lexer that returned a LexicalError keeps
// returning it.
type LexicalError struct {
	Row       int
	Col       int
	Snippet   string
	Condition string
}

func (e *LexicalError) Error() string {
	return fmt.Sprintf("%v:%v: lexical error: unrecognized text %q (condition: %v)", e.Row+1, e.Col+1, e.Snippet, e.Condition)
}

// Action is a procedural lexical action. It returns the name of the token to emit, or an empty
// string to discard the match and continue scanning.
type Action func(ctx *Context) (string, error)

type LexerOption func(l *Lexer) error

// BindAction binds a procedural action to the name used by lexical rules.
func BindAction(name string, act Action) LexerOption {
	return func(l *Lexer) error {
		if act == nil {
			return fmt.Errorf("action %v is nil", name)
		}
		l.actions[name] = act
		return nil
	}
}

func BindActions(acts map[string]Action) LexerOption {
	return func(l *Lexer) error {
		for name, act := range acts {
			if err := BindAction(name, act)(l); err != nil {
				return err
			}
		}
		return nil
	}
}

type Lexer struct {
	spec    *Spec
	actions map[string]Action

	// input is the whole source and pos is the cursor in bytes. Unput inserts text at the cursor.
	input string
	pos   int
	cur   Position

	// unput holds the byte ranges of the text inserted by Unput that the cursor hasn't passed, in
	// ascending order. The cursor position doesn't move over them.
	unput [][2]int

	conds *arraystack.Stack

	// moreText and moreStart hold the text accumulated by More.
	moreText  string
	moreStart Position
	more      bool

	eofRuleTried bool
	done         bool
	err          error
}

// NewLexer returns a new lexer. Every procedural action the specification refers to must be
// bound.
func NewLexer(s *Spec, src io.Reader, opts ...LexerOption) (*Lexer, error) {
	b, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	l := &Lexer{
		spec:    s,
		actions: map[string]Action{},
		input:   string(b),
		conds:   arraystack.New(),
	}
	l.conds.Push(spec.ConditionInitial)
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	for _, name := range s.ActionNames() {
		if _, ok := l.actions[name]; !ok {
			return nil, fmt.Errorf("action %v is not bound", name)
		}
	}

	return l, nil
}

type candidate struct {
	rule   *rule
	length int
}

// Next returns the next token. At the end of input it returns the EOF token once, and
// ErrEndOfInput after that.
func (l *Lexer) Next() (*Token, error) {
	if l.err != nil {
		return nil, l.err
	}
	if l.done {
		return nil, ErrEndOfInput
	}

	for {
		atEOF := l.pos >= len(l.input)
		if atEOF && l.eofRuleTried {
			l.done = true
			tracer().Debugf("%v:%v: %v", l.cur.Row, l.cur.Col, TokenNameEOF)
			return &Token{
				Name: TokenNameEOF,
				Row:  l.cur.Row,
				Col:  l.cur.Col,
				Loc: Location{
					First: l.cur,
					Last:  l.cur,
				},
				EOF: true,
			}, nil
		}
		if atEOF {
			l.eofRuleTried = true
		}

		cands := l.candidates(atEOF)
		if len(cands) == 0 {
			if atEOF {
				continue
			}
			l.err = l.lexicalError()
			return nil, l.err
		}

		tok, accepted, err := l.apply(cands)
		if err != nil {
			l.err = err
			return nil, err
		}
		if !accepted {
			if atEOF {
				continue
			}
			l.err = l.lexicalError()
			return nil, l.err
		}
		if tok != nil {
			return tok, nil
		}
	}
}

// candidates lists the rules matching at the cursor in the order they are tried. A zero-length
// match is a candidate only at the end of input.
func (l *Lexer) candidates(atEOF bool) []*candidate {
	cond := l.TopCondition()
	exclusive := l.spec.conditions[cond]
	rest := l.input[l.pos:]

	var cands []*candidate
	for _, r := range l.spec.rules {
		if !r.activeIn(cond, exclusive) {
			continue
		}
		loc := r.re.FindStringIndex(rest)
		if loc == nil {
			continue
		}
		if loc[1] == 0 && !atEOF {
			continue
		}
		cands = append(cands, &candidate{
			rule:   r,
			length: loc[1],
		})
	}

	if l.spec.policy == spec.PolicyLongestMatch {
		sort.SliceStable(cands, func(i, j int) bool {
			return cands[i].length > cands[j].length
		})
	}
	return cands
}

// apply runs candidates until one is not rejected. It returns a nil token when the accepted rule
// discards its match.
func (l *Lexer) apply(cands []*candidate) (*Token, bool, error) {
	for _, c := range cands {
		ctx := &Context{
			l:     l,
			rule:  c.rule,
			start: l.pos,
			match: l.input[l.pos : l.pos+c.length],
		}

		var name string
		if c.rule.src.IsDeclarative() {
			if !c.rule.src.Skip {
				name = c.rule.src.Token
			}
			if c.rule.src.Pop {
				ctx.PopCondition()
			}
			if c.rule.src.Push != "" {
				if err := ctx.PushCondition(c.rule.src.Push); err != nil {
					return nil, false, err
				}
			}
		} else {
			var err error
			name, err = l.actions[c.rule.src.Action](ctx)
			if err == nil {
				err = ctx.err
			}
			if err != nil {
				return nil, false, fmt.Errorf("lexical action %v: %w", c.rule.src.Action, err)
			}
			if ctx.rejected {
				tracer().Debugf("%v:%v: rule #%v rejected", l.cur.Row, l.cur.Col, c.rule.num+1)
				continue
			}
		}

		return l.accept(ctx, name), true, nil
	}
	return nil, false, nil
}

func (l *Lexer) accept(ctx *Context, name string) *Token {
	first := l.cur
	if l.more {
		first = l.moreStart
	}
	text := ctx.Text()

	l.consume(ctx.start, ctx.start+len(ctx.match))

	if ctx.more {
		if !l.more {
			l.moreStart = first
		}
		l.more = true
		l.moreText = text
	} else {
		l.more = false
		l.moreText = ""
	}

	if name == "" {
		return nil
	}

	tracer().Debugf("%v:%v: %v %q", first.Row, first.Col, name, text)
	return &Token{
		Name: name,
		Text: text,
		Row:  first.Row,
		Col:  first.Col,
		Loc: Location{
			First: first,
			Last:  l.cur,
		},
	}
}

// consume moves the cursor over input[start:end]. Text inserted by Unput doesn't move the position.
func (l *Lexer) consume(start, end int) {
	var rest [][2]int
	from := start
	for _, r := range l.unput {
		if r[1] <= start {
			continue
		}
		if r[0] >= end {
			rest = append(rest, r)
			continue
		}
		if r[0] > from {
			l.cur = advance(l.cur, l.input[from:r[0]])
		}
		from = max(from, min(r[1], end))
		if r[1] > end {
			rest = append(rest, r)
		}
	}
	if from < end {
		l.cur = advance(l.cur, l.input[from:end])
	}
	l.pos = end
	l.unput = rest
}

// insert puts text at a byte offset of the input and records it as unput text.
func (l *Lexer) insert(at int, text string) {
	if text == "" {
		return
	}
	l.input = l.input[:at] + text + l.input[at:]
	n := len(text)
	extended := false
	for i, r := range l.unput {
		switch {
		case r[0] >= at:
			l.unput[i] = [2]int{r[0] + n, r[1] + n}
		case r[1] >= at:
			l.unput[i][1] += n
			extended = true
		}
	}
	if !extended {
		l.unput = append(l.unput, [2]int{at, at + n})
		sort.Slice(l.unput, func(i, j int) bool {
			return l.unput[i][0] < l.unput[j][0]
		})
	}
}

func advance(pos Position, text string) Position {
	for _, r := range text {
		if r == '\n' {
			pos.Row++
			pos.Col = 0
			continue
		}
		pos.Col++
	}
	return pos
}

func (l *Lexer) lexicalError() *LexicalError {
	snippet := l.input[l.pos:]
	n := 0
	for i := range snippet {
		if n == 10 {
			snippet = snippet[:i]
			break
		}
		n++
	}
	return &LexicalError{
		Row:       l.cur.Row,
		Col:       l.cur.Col,
		Snippet:   snippet,
		Condition: l.TopCondition(),
	}
}

// TopCondition returns the current start condition.
func (l *Lexer) TopCondition() string {
	v, ok := l.conds.Peek()
	if !ok {
		return spec.ConditionInitial
	}
	return v.(string)
}

// Context gives a procedural action access to the match and to the lexer state.
type Context struct {
	l     *Lexer
	rule  *rule
	start int

	// match is the part of the input consumed by this rule. Input and Less change it.
	match string

	text     *string
	more     bool
	rejected bool

	// err is set by a failed condition change and stops the lexer after the action returns.
	err error
}

// Text returns yytext, which includes the text accumulated by More.
func (c *Context) Text() string {
	if c.text != nil {
		return *c.text
	}
	if c.l.more {
		return c.l.moreText + c.match
	}
	return c.match
}

// SetText replaces yytext. The consumed input does not change.
func (c *Context) SetText(text string) {
	c.text = &text
}

// Leng returns yyleng in code points.
func (c *Context) Leng() int {
	return utf8.RuneCountInString(c.Text())
}

// Match returns the input consumed by the current rule.
func (c *Context) Match() string {
	return c.match
}

// More keeps yytext so that the next match is appended to it.
func (c *Context) More() {
	c.more = true
}

// Less keeps the first n code points of the match and returns the rest to the input.
func (c *Context) Less(n int) {
	if n < 0 {
		n = 0
	}
	i := 0
	for off := range c.match {
		if i == n {
			c.match = c.match[:off]
			return
		}
		i++
	}
}

// Input consumes one code point following the match and returns it. It returns false at the end
// of input.
func (c *Context) Input() (rune, bool) {
	end := c.start + len(c.match)
	if end >= len(c.l.input) {
		return 0, false
	}
	r, size := utf8.DecodeRuneInString(c.l.input[end:])
	c.match = c.l.input[c.start : end+size]
	return r, true
}

// Unput pushes text back so that it is scanned next. The text doesn't count toward the positions
// of later tokens.
func (c *Context) Unput(text string) {
	c.l.insert(c.start+len(c.match), text)
}

// Reject discards the match and lets the next candidate rule try.
func (c *Context) Reject() {
	c.rejected = true
}

// Begin replaces the current start condition. The condition must be declared; otherwise the
// lexer stops with ErrUndefinedCondition once the action returns.
func (c *Context) Begin(cond string) error {
	if err := c.checkCondition(cond); err != nil {
		return err
	}
	c.l.conds.Pop()
	c.l.conds.Push(cond)
	return nil
}

func (c *Context) PushCondition(cond string) error {
	if err := c.checkCondition(cond); err != nil {
		return err
	}
	c.l.conds.Push(cond)
	return nil
}

func (c *Context) checkCondition(cond string) error {
	if _, ok := c.l.spec.conditions[cond]; !ok {
		c.err = fmt.Errorf("%w: %v", ErrUndefinedCondition, cond)
		return c.err
	}
	return nil
}

// PopCondition leaves the current start condition. The bottom condition is never popped.
func (c *Context) PopCondition() string {
	if c.l.conds.Size() > 1 {
		c.l.conds.Pop()
	}
	return c.l.TopCondition()
}

func (c *Context) TopCondition() string {
	return c.l.TopCondition()
}

// Position returns the position where the match starts.
func (c *Context) Position() Position {
	return c.l.cur
}

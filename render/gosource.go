package render

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/fxamacker/cbor/v2"
	"github.com/nihei9/lalrgen/compressor"
	spec "github.com/nihei9/lalrgen/spec/grammar"
)

// Convention decides the shape of a generated Go source: its package and the name of the function
// returning the grammar.
type Convention string

const (
	// ConventionPlain generates a runnable `package main` that parses stdin and prints the tree.
	ConventionPlain = Convention("plain")
	// ConventionAnonymous generates `Grammar()` in a package named after the grammar.
	ConventionAnonymous = Convention("anonymous")
	// ConventionNamed generates a function named after the given name.
	ConventionNamed = Convention("named")
	// ConventionNamespaced takes a dotted name such as `compiler.parser`; the prefix names the
	// package and the last segment names the function.
	ConventionNamespaced = Convention("namespaced")
)

func ParseConvention(s string) (Convention, error) {
	switch c := Convention(strings.ToLower(strings.TrimSpace(s))); c {
	case ConventionPlain, ConventionAnonymous, ConventionNamed, ConventionNamespaced:
		return c, nil
	}
	return "", fmt.Errorf("unknown convention: %v", s)
}

// goSourceData is what a generated source embeds. The parsing table travels without its ACTION
// and GOTO tables; Tables carries their compressed forms.
type goSourceData struct {
	Grammar *spec.CompiledGrammar    `json:"grammar"`
	Tables  *compressor.ParsingTable `json:"tables"`
}

const goSourceTmpl = `// Code generated by lalrgen-go. DO NOT EDIT.

package {{ .Package }}

import (
{{- if .Main }}
	"fmt"
	"os"

	"github.com/nihei9/lalrgen/driver/parser"
{{- end }}
	"github.com/nihei9/lalrgen/render"
	spec "github.com/nihei9/lalrgen/spec/grammar"
	"sync"
)

{{ if .ActionInclude }}{{ .ActionInclude }}

{{ end -}}
const {{ .DataName }} = {{ .Data }}

var {{ .LoaderName }} = sync.OnceValues(func() (*spec.CompiledGrammar, error) {
	return render.LoadGoSourceData({{ .DataName }})
})

// {{ .Func }} returns the compiled grammar {{ .Name }}. The grammar is decoded once and shared;
// callers must not modify it.
func {{ .Func }}() (*spec.CompiledGrammar, error) {
	return {{ .LoaderName }}()
}
{{- if .Main }}

func main() {
	cg, err := {{ .Func }}()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	gram := parser.NewGrammar(cg)
	toks, err := parser.NewTokenStream(cg, os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	tb := parser.NewDefaultSyntaxTreeBuilder()
	p, err := parser.NewParser(toks, gram, parser.SemanticAction(parser.NewSyntaxTreeActionSet(gram, tb)))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := p.Parse(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, synErr := range p.SyntaxErrors() {
		fmt.Fprintln(os.Stderr, synErr)
	}
	if tree := tb.Tree(); tree != nil {
		parser.PrintTree(os.Stdout, tree)
	}
}
{{- end }}
`

var goSourceTemplate = template.Must(template.New("gosource").Parse(goSourceTmpl))

// GoSource generates a Go source file embedding a compiled grammar. The name is interpreted
// according to the convention; see GoSourceNames.
func GoSource(cg *spec.CompiledGrammar, conv Convention, name string) ([]byte, error) {
	if err := validate(cg); err != nil {
		return nil, err
	}
	pkg, fn, err := GoSourceNames(cg, conv, name)
	if err != nil {
		return nil, err
	}
	data, err := encodeGoSourceData(cg)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	err = goSourceTemplate.Execute(&b, struct {
		Package       string
		Main          bool
		Name          string
		Func          string
		DataName      string
		LoaderName    string
		Data          string
		ActionInclude string
	}{
		Package:       pkg,
		Main:          conv == ConventionPlain,
		Name:          cg.Name,
		Func:          fn,
		DataName:      lowerFirst(fn) + "Data",
		LoaderName:    lowerFirst(fn) + "Once",
		Data:          strconv.Quote(string(data)),
		ActionInclude: strings.TrimSpace(cg.ActionInclude),
	})
	if err != nil {
		return nil, err
	}

	src, err := format.Source(b.Bytes())
	if err != nil {
		return nil, fmt.Errorf("generated source is broken: %w", err)
	}
	tracer().Debugf("generated %v bytes of Go source; package: %v, func: %v", len(src), pkg, fn)
	return src, nil
}

// GoSourceNames returns the package name and the function name a generated source takes.
//
//	plain:      package main, func grammar
//	anonymous:  package <name or grammar name>, func Grammar
//	named:      package <grammar name>, func <Name>
//	namespaced: package <a>, func <B> for the name a.b
func GoSourceNames(cg *spec.CompiledGrammar, conv Convention, name string) (string, string, error) {
	switch conv {
	case ConventionPlain:
		return "main", "grammar", nil
	case ConventionAnonymous:
		if name == "" {
			name = cg.Name
		}
		return packageName(name), "Grammar", nil
	case ConventionNamed:
		if name == "" {
			name = cg.Name
		}
		fn := exportedName(name)
		if fn == "" {
			return "", "", fmt.Errorf("invalid function name: %q", name)
		}
		return packageName(cg.Name), fn, nil
	case ConventionNamespaced:
		i := strings.LastIndex(name, ".")
		if i <= 0 || i == len(name)-1 {
			return "", "", fmt.Errorf("a namespaced name takes the form <package>.<function>: %q", name)
		}
		prefix := name[:i]
		if j := strings.LastIndex(prefix, "."); j >= 0 {
			prefix = prefix[j+1:]
		}
		fn := exportedName(name[i+1:])
		if fn == "" {
			return "", "", fmt.Errorf("invalid function name: %q", name)
		}
		return packageName(prefix), fn, nil
	}
	return "", "", fmt.Errorf("unknown convention: %v", conv)
}

// packageName makes a lower-case package name out of a grammar name.
func packageName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	pkg := b.String()
	if pkg == "" {
		return "grammar"
	}
	if unicode.IsDigit([]rune(pkg)[0]) || token.IsKeyword(pkg) {
		pkg = "_" + pkg
	}
	return pkg
}

// exportedName turns `my-parser` or `my_parser` into `MyParser`.
func exportedName(name string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		rs := []rune(part)
		rs[0] = unicode.ToUpper(rs[0])
		b.WriteString(string(rs))
	}
	fn := b.String()
	if fn == "" || !unicode.IsUpper([]rune(fn)[0]) {
		return ""
	}
	return fn
}

func lowerFirst(s string) string {
	rs := []rune(s)
	rs[0] = unicode.ToLower(rs[0])
	return string(rs)
}

func encodeGoSourceData(cg *spec.CompiledGrammar) ([]byte, error) {
	tables, err := compressor.CompressParsingTable(cg.ParsingTable)
	if err != nil {
		return nil, err
	}
	tab := *cg.ParsingTable
	tab.Action = nil
	tab.GoTo = nil
	g := *cg
	g.ParsingTable = &tab
	return cborEncMode.Marshal(&goSourceData{
		Grammar: &g,
		Tables:  tables,
	})
}

// LoadGoSourceData decodes the data a generated Go source embeds.
func LoadGoSourceData(data string) (*spec.CompiledGrammar, error) {
	d := &goSourceData{}
	if err := cbor.Unmarshal([]byte(data), d); err != nil {
		return nil, err
	}
	if d.Grammar == nil || d.Grammar.ParsingTable == nil || d.Tables == nil || d.Tables.Action == nil || d.Tables.GoTo == nil {
		return nil, fmt.Errorf("embedded grammar data is incomplete")
	}
	if err := d.Tables.ExpandInto(d.Grammar.ParsingTable); err != nil {
		return nil, err
	}
	if err := validate(d.Grammar); err != nil {
		return nil, err
	}
	return d.Grammar, nil
}

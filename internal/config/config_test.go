package config

import (
	"os"
	"path/filepath"
	"testing"

	spec "github.com/nihei9/lalrgen/spec/grammar"
	"github.com/npillmayer/schuko/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, src string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "lalrgen.toml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		caption  string
		src      string
		expected func() *Config
		err      bool
	}{
		{
			caption: "an empty file keeps the defaults",
			src:     ``,
			expected: func() *Config {
				return Default()
			},
		},
		{
			caption: "every section is read",
			src: `
class = "SLR"

[lexer]
policy = "first"
dfa = true

[trace]
level = "Debug"

[render]
package = "calc"
convention = "named"
`,
			expected: func() *Config {
				c := Default()
				c.Class = spec.ClassSLR
				c.Lexer.Policy = spec.PolicyFirstMatch
				c.Lexer.DFA = true
				c.Trace.Level = "Debug"
				c.Render.Package = "calc"
				c.Render.Convention = "named"
				return c
			},
		},
		{
			caption: "an unknown class",
			src:     `class = "lr1"`,
			err:     true,
		},
		{
			caption: "an unknown policy",
			src: `
[lexer]
policy = "shortest"
`,
			err: true,
		},
		{
			caption: "an unknown key",
			src: `
[lexer]
backtrack = true
`,
			err: true,
		},
		{
			caption: "a broken file",
			src:     `class = `,
			err:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			c, err := Load(writeFile(t, tt.src))
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected(), c)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestConfig_TraceLevel(t *testing.T) {
	c := Default()
	assert.Equal(t, tracing.LevelError, c.TraceLevel())
	c.Trace.Level = "debug"
	assert.Equal(t, tracing.LevelDebug, c.TraceLevel())
}

func TestConfig_ApplyLexerPolicy(t *testing.T) {
	c := Default()
	c.Lexer.Policy = spec.PolicyFirstMatch

	ls := &spec.LexSpec{}
	c.ApplyLexerPolicy(ls)
	assert.Equal(t, spec.PolicyFirstMatch, ls.Options.Policy)

	ls = &spec.LexSpec{
		Options: &spec.LexOptions{
			Policy: spec.PolicyLongestMatch,
		},
	}
	c.ApplyLexerPolicy(ls)
	assert.Equal(t, spec.PolicyLongestMatch, ls.Options.Policy, "a policy the grammar chose wins")

	c.ApplyLexerPolicy(nil)
}

// Package config reads lalrgen.toml, the settings file shared by the command line tools.
//
//	class = "lalr"
//
//	[lexer]
//	policy = "longest"
//	dfa = false
//
//	[trace]
//	level = "Error"
//
//	[render]
//	package = "parser"
//	convention = "anonymous"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"
	spec "github.com/nihei9/lalrgen/spec/grammar"
	"github.com/npillmayer/schuko/tracing"
)

// DefaultFileName is looked up in the working directory when no path is given.
const DefaultFileName = "lalrgen.toml"

type Config struct {
	Class string `toml:"class"`

	Lexer struct {
		Policy string `toml:"policy"`
		DFA    bool   `toml:"dfa"`
	} `toml:"lexer"`

	Trace struct {
		Level string `toml:"level"`
	} `toml:"trace"`

	Render struct {
		Package    string `toml:"package"`
		Convention string `toml:"convention"`
	} `toml:"render"`
}

func Default() *Config {
	c := &Config{
		Class: spec.ClassLALR,
	}
	c.Lexer.Policy = spec.PolicyLongestMatch
	c.Trace.Level = tracing.LevelError.String()
	c.Render.Convention = "anonymous"
	return c
}

// Load reads a settings file over the defaults. An empty path reads DefaultFileName if it exists.
func Load(path string) (*Config, error) {
	c := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("cannot read the settings file %v: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%v: unknown settings: %v", path, strings.Join(keys, ", "))
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}
	return c, nil
}

func (c *Config) validate() error {
	c.Class = strings.ToLower(c.Class)
	if c.Class != spec.ClassLALR && c.Class != spec.ClassSLR {
		return fmt.Errorf("class must be %v or %v: %v", spec.ClassLALR, spec.ClassSLR, c.Class)
	}
	if c.Lexer.Policy != spec.PolicyLongestMatch && c.Lexer.Policy != spec.PolicyFirstMatch {
		return fmt.Errorf("lexer.policy must be %v or %v: %v", spec.PolicyLongestMatch, spec.PolicyFirstMatch, c.Lexer.Policy)
	}
	return nil
}

// TraceLevel returns the configured level. An unknown name reads as the info level.
func (c *Config) TraceLevel() tracing.TraceLevel {
	return tracing.TraceLevelFromString(c.Trace.Level)
}

// ApplyLexerPolicy sets the configured policy on a lexical specification that doesn't choose one.
func (c *Config) ApplyLexerPolicy(ls *spec.LexSpec) {
	if ls == nil {
		return
	}
	if ls.Options == nil {
		ls.Options = &spec.LexOptions{}
	}
	if ls.Options.Policy == "" {
		ls.Options.Policy = c.Lexer.Policy
	}
}

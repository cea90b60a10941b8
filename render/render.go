// Package render writes compiled grammars out as JSON, CBOR, or Go source, and reads them back.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
	spec "github.com/nihei9/lalrgen/spec/grammar"
)

// JSON writes a compiled grammar as a JSON document.
func JSON(w io.Writer, cg *spec.CompiledGrammar) error {
	if err := validate(cg); err != nil {
		return err
	}
	b, err := json.Marshal(cg)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func LoadJSON(r io.Reader) (*spec.CompiledGrammar, error) {
	cg := &spec.CompiledGrammar{}
	if err := json.NewDecoder(r).Decode(cg); err != nil {
		return nil, err
	}
	if err := validate(cg); err != nil {
		return nil, err
	}
	return cg, nil
}

var cborEncMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// CBOR writes a compiled grammar in the deterministic CBOR encoding, so the same grammar always
// yields the same bytes. Field names follow the JSON form.
func CBOR(w io.Writer, cg *spec.CompiledGrammar) error {
	if err := validate(cg); err != nil {
		return err
	}
	return cborEncMode.NewEncoder(w).Encode(cg)
}

func LoadCBOR(r io.Reader) (*spec.CompiledGrammar, error) {
	cg := &spec.CompiledGrammar{}
	if err := cbor.NewDecoder(r).Decode(cg); err != nil {
		return nil, err
	}
	if err := validate(cg); err != nil {
		return nil, err
	}
	return cg, nil
}

// LoadFile reads a compiled grammar written by JSON or CBOR. A JSON document begins with `{`;
// anything else is read as CBOR.
func LoadFile(path string) (*spec.CompiledGrammar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return LoadJSON(bytes.NewReader(data))
	}
	return LoadCBOR(bytes.NewReader(data))
}

// validate checks that the dimensions of a parsing table agree with each other, so that a loaded
// grammar can't index out of its tables.
func validate(cg *spec.CompiledGrammar) error {
	if cg == nil || cg.ParsingTable == nil {
		return fmt.Errorf("a compiled grammar must have a parsing table")
	}
	tab := cg.ParsingTable
	if tab.StateCount <= 0 || tab.TerminalCount <= 0 || tab.NonTerminalCount <= 0 {
		return fmt.Errorf("invalid table size; states: %v, terminals: %v, non-terminals: %v", tab.StateCount, tab.TerminalCount, tab.NonTerminalCount)
	}
	if len(tab.Action) != tab.StateCount*tab.TerminalCount {
		return fmt.Errorf("action table has %v entries; want: %v", len(tab.Action), tab.StateCount*tab.TerminalCount)
	}
	if len(tab.GoTo) != tab.StateCount*tab.NonTerminalCount {
		return fmt.Errorf("goto table has %v entries; want: %v", len(tab.GoTo), tab.StateCount*tab.NonTerminalCount)
	}
	if len(tab.Terminals) != tab.TerminalCount {
		return fmt.Errorf("%v terminal names for %v terminals", len(tab.Terminals), tab.TerminalCount)
	}
	if len(tab.NonTerminals) != tab.NonTerminalCount {
		return fmt.Errorf("%v non-terminal names for %v non-terminals", len(tab.NonTerminals), tab.NonTerminalCount)
	}
	if len(tab.ErrorTrapperStates) != tab.StateCount {
		return fmt.Errorf("%v error trapper flags for %v states", len(tab.ErrorTrapperStates), tab.StateCount)
	}
	prodCount := len(tab.LHSSymbols)
	if len(tab.AlternativeSymbolCounts) != prodCount || len(tab.ProductionActions) != prodCount {
		return fmt.Errorf("production attributes disagree; lhs: %v, symbol counts: %v, actions: %v", prodCount, len(tab.AlternativeSymbolCounts), len(tab.ProductionActions))
	}
	if tab.InitialState < 0 || tab.InitialState >= tab.StateCount {
		return fmt.Errorf("initial state %v is out of range", tab.InitialState)
	}
	if tab.StartProduction < 0 || tab.StartProduction >= prodCount {
		return fmt.Errorf("start production %v is out of range", tab.StartProduction)
	}
	for _, e := range tab.Action {
		if e < -(tab.StateCount-1) || e > prodCount {
			return fmt.Errorf("action entry %v is out of range", e)
		}
	}
	for _, e := range tab.GoTo {
		if e < 0 || e >= tab.StateCount {
			return fmt.Errorf("goto entry %v is out of range", e)
		}
	}
	return nil
}

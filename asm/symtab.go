// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"io"
	"strings"
)

// A Symbol associates a label with the address allocated to it during the
// first pass.
type Symbol struct {
	Name    string
	Address int
}

// A SymbolTable is an ordered, case-insensitive mapping from label names
// to addresses. Symbols are added once and never modified.
type SymbolTable struct {
	symbols []Symbol
	index   map[string]int // upper-case name -> position in symbols
}

func newSymbolTable() *SymbolTable {
	return &SymbolTable{index: make(map[string]int)}
}

// Add inserts a new symbol. It returns false if a symbol with the same
// name (ignoring case) already exists.
func (t *SymbolTable) Add(name string, addr int) bool {
	key := strings.ToUpper(name)
	if _, ok := t.index[key]; ok {
		return false
	}
	t.index[key] = len(t.symbols)
	t.symbols = append(t.symbols, Symbol{Name: name, Address: addr})
	return true
}

// Lookup returns the symbol with the requested name, ignoring case.
func (t *SymbolTable) Lookup(name string) (Symbol, bool) {
	i, ok := t.index[strings.ToUpper(name)]
	if !ok {
		return Symbol{}, false
	}
	return t.symbols[i], true
}

// Contains returns true if a symbol with the requested name exists.
func (t *SymbolTable) Contains(name string) bool {
	_, ok := t.index[strings.ToUpper(name)]
	return ok
}

// Symbols returns all symbols in the order they were added.
func (t *SymbolTable) Symbols() []Symbol {
	return append([]Symbol(nil), t.symbols...)
}

// Len returns the number of symbols in the table.
func (t *SymbolTable) Len() int {
	return len(t.symbols)
}

// Clear removes all symbols.
func (t *SymbolTable) Clear() {
	t.symbols = t.symbols[:0]
	clear(t.index)
}

// WriteTo writes one "NAME ADDRESS" line per symbol.
func (t *SymbolTable) WriteTo(w io.Writer) (n int64, err error) {
	for _, s := range t.symbols {
		nn, err := fmt.Fprintf(w, "%-10s %06X\n", s.Name, s.Address)
		n += int64(nn)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"io"
	"strings"
)

type progState byte

const (
	beforeStart progState = iota
	inProgram
	afterEnd
)

// A Context holds the state of a single translation run: the program
// counter, the start and entry addresses, the symbol table, the relocation
// table and the intermediate code. A new Context is created by every call
// to FirstPass and is consumed by SecondPass.
type Context struct {
	table        *OpTable     // opcode table snapshot used for the run
	out          io.Writer    // output used for verbose logging
	verbose      bool         // verbose logging
	src          string       // source code being translated
	source       [][]string   // tokens of each non-blank source line
	row          int          // 1-based number of the line being processed
	tokens       []string     // tokens of the line being processed
	state        progState    // position relative to START and END
	name         string       // program name (the START label)
	ip           int          // the program counter
	start        int          // program start address
	end          int          // program entry address
	symbols      *SymbolTable // label -> address
	relocs       []int        // addresses requiring relocation
	intermediate []string     // first pass output
	sourceLines  []SourceLine // address -> source line mappings
}

func newContext(table *OpTable, out io.Writer, verbose bool) *Context {
	return &Context{
		table:   table,
		out:     out,
		verbose: verbose,
		symbols: newSymbolTable(),
	}
}

// OpTable returns the opcode table snapshot used by the run.
func (c *Context) OpTable() *OpTable {
	return c.table
}

// Name returns the program name declared by the START directive.
func (c *Context) Name() string {
	return c.name
}

// Start returns the program's start address.
func (c *Context) Start() int {
	return c.start
}

// Entry returns the program's entry point, as declared by END.
func (c *Context) Entry() int {
	return c.end
}

// IP returns the program counter after the last allocated byte.
func (c *Context) IP() int {
	return c.ip
}

// Length returns the number of bytes allocated by the program.
func (c *Context) Length() int {
	return c.ip - c.start
}

// Symbols returns the symbol table built by the first pass.
func (c *Context) Symbols() *SymbolTable {
	return c.symbols
}

// Intermediate returns the intermediate code produced by the first pass.
func (c *Context) Intermediate() []string {
	return append([]string(nil), c.intermediate...)
}

// Relocations returns the addresses recorded by the last second pass.
func (c *Context) Relocations() []int {
	return append([]int(nil), c.relocs...)
}

// SourceMap returns a source map describing the translated program.
func (c *Context) SourceMap() *SourceMap {
	return &SourceMap{
		Program:     c.name,
		Start:       c.start,
		Length:      c.Length(),
		Entry:       c.end,
		Symbols:     c.symbols.Symbols(),
		Relocations: c.Relocations(),
		Lines:       append([]SourceLine(nil), c.sourceLines...),
	}
}

// Bind an error to the line currently being processed.
func (c *Context) fail(e *Error) error {
	return e.at(c.row, c.tokens)
}

// Fail if the address lies beyond the end of memory.
func (c *Context) checkOverflow(addr int) error {
	if addr > maxAddress {
		return c.fail(&Error{Kind: KindMemoryOverflow, Value: addr})
	}
	return nil
}

// In verbose mode, log a string to the output.
func (c *Context) log(format string, args ...any) {
	if c.verbose {
		fmt.Fprintf(c.out, format, args...)
		fmt.Fprintf(c.out, "\n")
	}
}

// In verbose mode, log a string and its associated line of source code.
func (c *Context) logLine(row int, tokens []string, format string, args ...any) {
	if c.verbose {
		detail := fmt.Sprintf(format, args...)
		fmt.Fprintf(c.out, "%-3d | %-24s | %s\n", row, detail, strings.Join(tokens, " "))
	}
}

// In verbose mode, log a section header to the output.
func (c *Context) logSection(name string) {
	if c.verbose {
		fmt.Fprintln(c.out, strings.Repeat("-", len(name)+6))
		fmt.Fprintf(c.out, "-- %s --\n", name)
		fmt.Fprintln(c.out, strings.Repeat("-", len(name)+6))
	}
}

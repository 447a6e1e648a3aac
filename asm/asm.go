// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm implements a two-pass assembler for a small 24-bit machine.
//
// The first pass splits source code into tokens, classifies each line,
// allocates addresses, builds the symbol table and emits intermediate code.
// The second pass reparses the intermediate code, resolves labels and
// produces header, text, modification and end object records.
//
// Instructions are described by a user-configurable opcode table. The
// directives START, END, WORD, BYTE, RESB and RESW are built in.
package asm

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
)

// Option type used by the New function.
type Option uint

// Options for the New function.
const (
	Verbose Option = 1 << iota // verbose output during assembly
)

// An Assembler translates programs using its current opcode table. The
// table may be replaced between runs; every run works on the snapshot that
// was current when its first pass began.
type Assembler struct {
	table   atomic.Pointer[OpTable] // current opcode table
	out     io.Writer               // output used for verbose output
	options atomic.Uint32           // Option flags
}

// New creates an assembler that uses the default opcode table. Verbose
// output, if requested, is written to out.
func New(out io.Writer, options Option) *Assembler {
	if out == nil {
		out = os.Stdout
	}
	a := &Assembler{out: out}
	a.table.Store(DefaultOpTable())
	a.options.Store(uint32(options))
	return a
}

// SetOptions replaces the assembler's options.
func (a *Assembler) SetOptions(options Option) {
	a.options.Store(uint32(options))
}

// Options returns the assembler's options.
func (a *Assembler) Options() Option {
	return Option(a.options.Load())
}

// OpTable returns the current opcode table.
func (a *Assembler) OpTable() *OpTable {
	return a.table.Load()
}

// SetOpTable validates the command specifications and, if they are valid,
// replaces the opcode table. On error the current table is left in place.
func (a *Assembler) SetOpTable(specs []CommandSpec) error {
	t, err := NewOpTable(specs)
	if err != nil {
		return err
	}
	a.table.Store(t)
	return nil
}

// FirstPass runs the first pass over source code and returns a new
// translation context holding the symbol table and intermediate code.
func (a *Assembler) FirstPass(src string) (*Context, error) {
	c := newContext(a.OpTable(), a.out, a.Options()&Verbose != 0)
	c.src = src

	// The first pass consists of the following steps
	steps := []func(c *Context) error{
		(*Context).tokenize, // Split the source into lines of tokens
		(*Context).allocate, // Allocate addresses and build the symbol table
		(*Context).checkEnd, // Require a terminating END directive
	}

	// Execute each step, breaking if an error is encountered in any one
	// of them.
	for _, step := range steps {
		if err := step(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Assemble runs both passes over source code.
func (a *Assembler) Assemble(src string) (*Context, *Object, error) {
	c, err := a.FirstPass(src)
	if err != nil {
		return nil, nil, err
	}
	obj, err := c.SecondPass(c.intermediate)
	if err != nil {
		return c, nil, err
	}
	return c, obj, nil
}

// AssembleFile reads a file containing assembly code, assembles it, and
// produces an object file and a source map file. Status messages are
// written to the assembler's output.
func (a *Assembler) AssembleFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c, obj, err := a.Assemble(string(src))
	if err != nil {
		return err
	}
	return a.Save(path, c, obj)
}

// Save writes the object code and source map of a translated program next
// to its source file, replacing the source file's extension with .obj and
// .map. A status message is written to the assembler's output.
func (a *Assembler) Save(path string, c *Context, obj *Object) error {
	ext := filepath.Ext(path)
	prefix := path[:len(path)-len(ext)]
	objPath := prefix + ".obj"
	if err := writeFile(objPath, obj); err != nil {
		return err
	}

	mapPath := prefix + ".map"
	if err := writeFile(mapPath, c.SourceMap()); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Assembled '%s' to produce '%s' and '%s'.\n",
		filepath.Base(path),
		filepath.Base(objPath),
		filepath.Base(mapPath))
	return nil
}

func writeFile(path string, w io.WriterTo) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = w.WriteTo(file)
	return err
}

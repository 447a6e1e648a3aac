// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"encoding/json"
	"io"
	"sort"
)

// A SourceMap describes a translated program: its name and layout, its
// symbols and relocations, and the mapping between object code addresses
// and source code line numbers.
type SourceMap struct {
	Program     string
	Start       int
	Length      int
	Entry       int
	Symbols     []Symbol
	Relocations []int
	Lines       []SourceLine
}

// A SourceLine represents a mapping between an object code address and the
// source code line used to generate it.
type SourceLine struct {
	Address int // Object code address
	Line    int // 1-based source line number, over non-blank lines
}

// Search searches the source map for a mapping with the requested address.
// It returns -1 if there is none.
func (s *SourceMap) Search(addr int) (line int) {
	i := sort.Search(len(s.Lines), func(i int) bool {
		return s.Lines[i].Address >= addr
	})
	if i < len(s.Lines) && s.Lines[i].Address == addr {
		return s.Lines[i].Line
	}
	return -1
}

// ReadFrom reads the contents of an exported source map file.
func (s *SourceMap) ReadFrom(r io.Reader) (n int64, err error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	err = json.Unmarshal(b, s)
	if err != nil {
		return 0, err
	}
	return int64(len(b)), nil
}

// WriteTo writes the contents of the source map to an output stream.
func (s *SourceMap) WriteTo(w io.Writer) (n int64, err error) {
	b, err := json.Marshal(*s)
	if err != nil {
		return 0, err
	}

	nn, err := w.Write(b)
	return int64(nn), err
}

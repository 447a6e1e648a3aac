// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"sort"
	"strings"
)

// A Command describes a single machine instruction: its mnemonic, its
// numeric code and its encoded length in bytes (1, 2 or 4).
type Command struct {
	Name   string // upper-case mnemonic
	Code   byte   // numeric opcode, 0-255
	Length int    // encoded length in bytes
}

// A CommandSpec is the textual description of a command, as read from an
// opcode table. Code and Length are hexadecimal strings.
type CommandSpec struct {
	Name   string
	Code   string
	Length string
}

func (s CommandSpec) String() string {
	return s.Name + " " + s.Code + " " + s.Length
}

// Directives are the fixed set of assembler pseudo-operations.
var directives = map[string]bool{
	"START": true,
	"END":   true,
	"WORD":  true,
	"BYTE":  true,
	"RESB":  true,
	"RESW":  true,
}

// IsDirective returns true if s names a directive. The comparison is case
// insensitive.
func IsDirective(s string) bool {
	return directives[strings.ToUpper(s)]
}

// IsRegister returns true if s names one of the registers R0 through R15.
// The comparison is case insensitive.
func IsRegister(s string) bool {
	_, ok := registerNumber(s)
	return ok
}

func registerNumber(s string) (int, bool) {
	if len(s) < 2 || len(s) > 3 || (s[0] != 'R' && s[0] != 'r') {
		return 0, false
	}
	d := s[1:]
	if !all(d, decimal) || (len(d) == 2 && d[0] != '1') {
		return 0, false
	}
	n := 0
	for i := 0; i < len(d); i++ {
		n = n*10 + int(d[i]-'0')
	}
	if n > 15 {
		return 0, false
	}
	return n, true
}

// NewCommand validates a command specification and converts it into a
// Command. The name must start with a letter and contain only letters and
// digits; the code must be hexadecimal in the range 0-FF; the length must
// be hexadecimal and equal to 1, 2 or 4.
func NewCommand(spec CommandSpec) (Command, error) {
	switch {
	case spec.Name == "":
		return Command{}, configError("command name cannot be empty: %s", spec)
	case !labelStartChar(spec.Name[0]):
		return Command{}, configError("command name must start with a letter: %s", spec)
	case !all(spec.Name, commandChar):
		return Command{}, configError("command name may contain only letters and digits: %s", spec)
	case IsDirective(spec.Name):
		return Command{}, configError("command name collides with a directive: %s", spec)
	case IsRegister(spec.Name):
		return Command{}, configError("command name collides with a register: %s", spec)
	}

	code, ok := parseHex(spec.Code)
	if !ok {
		return Command{}, configError("command code must be a hexadecimal integer: %s", spec)
	}
	if code > 0xff {
		return Command{}, configError("command code must be in the range 0-FF: %s", spec)
	}

	length, ok := parseHex(spec.Length)
	if !ok {
		return Command{}, configError("command length must be a hexadecimal integer: %s", spec)
	}
	if length != 1 && length != 2 && length != 4 {
		return Command{}, configError("command length must be 1, 2 or 4: %s", spec)
	}

	return Command{
		Name:   strings.ToUpper(spec.Name),
		Code:   byte(code),
		Length: length,
	}, nil
}

// An OpTable is an immutable set of commands available to the assembler,
// indexed by name and by code.
type OpTable struct {
	commands []Command      // commands in table order
	byName   map[string]int // upper-case name -> index
	byCode   map[byte]int   // code -> index
}

var defaultSpecs = []CommandSpec{
	{"JMP", "1", "4"},
	{"LOADR1", "2", "4"},
	{"LOADR2", "3", "4"},
	{"ADD", "4", "2"},
	{"SAVER1", "5", "4"},
	{"INT", "6", "2"},
}

// DefaultSpecs returns a copy of the built-in command specifications.
func DefaultSpecs() []CommandSpec {
	return append([]CommandSpec(nil), defaultSpecs...)
}

// DefaultOpTable returns the built-in opcode table.
func DefaultOpTable() *OpTable {
	t, err := NewOpTable(defaultSpecs)
	if err != nil {
		panic(err)
	}
	return t
}

// NewOpTable validates a list of command specifications and builds an
// opcode table from them. Names must be unique without regard to case, and
// codes must be unique.
func NewOpTable(specs []CommandSpec) (*OpTable, error) {
	commands := make([]Command, 0, len(specs))
	for _, s := range specs {
		c, err := NewCommand(s)
		if err != nil {
			return nil, err
		}
		commands = append(commands, c)
	}

	t := &OpTable{
		commands: commands,
		byName:   make(map[string]int, len(commands)),
		byCode:   make(map[byte]int, len(commands)),
	}

	nameCount := make(map[string]int)
	codeUsers := make(map[byte][]string)
	var names []string
	var codes []byte
	for i, c := range commands {
		if nameCount[c.Name]++; nameCount[c.Name] == 2 {
			names = append(names, c.Name)
		}
		if codeUsers[c.Code] = append(codeUsers[c.Code], c.Name); len(codeUsers[c.Code]) == 2 {
			codes = append(codes, c.Code)
		}
		t.byName[c.Name] = i
		t.byCode[c.Code] = i
	}

	if len(names) > 0 {
		dups := make([]string, len(names))
		for i, n := range names {
			dups[i] = fmt.Sprintf("'%s' (%d times)", n, nameCount[n])
		}
		return nil, configError("duplicate command names: %s", strings.Join(dups, ", "))
	}
	if len(codes) > 0 {
		dups := make([]string, len(codes))
		for i, c := range codes {
			dups[i] = fmt.Sprintf("%02X (commands: %s)", c, strings.Join(codeUsers[c], ", "))
		}
		return nil, configError("duplicate command codes: %s", strings.Join(dups, ", "))
	}

	return t, nil
}

// ParseOpTable parses the text form of an opcode table. Each non-blank line
// holds three whitespace-separated columns: name, hexadecimal code and
// hexadecimal length. Text following a semicolon is ignored.
func ParseOpTable(text string) ([]CommandSpec, error) {
	var specs []CommandSpec
	row := 0
	for _, line := range strings.Split(text, "\n") {
		row++
		if i := strings.IndexByte(line, ';'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		switch len(fields) {
		case 0:
			continue
		case 3:
			specs = append(specs, CommandSpec{fields[0], fields[1], fields[2]})
		default:
			return nil, configError("opcode table row %d must have 3 columns (name code length): %s",
				row, strings.TrimSpace(line))
		}
	}
	return specs, nil
}

// IsCommand returns true if s names a command in the table. The comparison
// is case insensitive.
func (t *OpTable) IsCommand(s string) bool {
	_, ok := t.byName[strings.ToUpper(s)]
	return ok
}

// Lookup returns the command with the requested name.
func (t *OpTable) Lookup(name string) (Command, bool) {
	i, ok := t.byName[strings.ToUpper(name)]
	if !ok {
		return Command{}, false
	}
	return t.commands[i], true
}

// LookupCode returns the command with the requested numeric code.
func (t *OpTable) LookupCode(code byte) (Command, bool) {
	i, ok := t.byCode[code]
	if !ok {
		return Command{}, false
	}
	return t.commands[i], true
}

// Commands returns the table's commands in table order.
func (t *OpTable) Commands() []Command {
	return append([]Command(nil), t.commands...)
}

// Specs returns the table in its textual specification form.
func (t *OpTable) Specs() []CommandSpec {
	specs := make([]CommandSpec, len(t.commands))
	for i, c := range t.commands {
		specs[i] = CommandSpec{c.Name, fmt.Sprintf("%02X", c.Code), fmt.Sprintf("%X", c.Length)}
	}
	return specs
}

// String renders the table in the text form accepted by ParseOpTable,
// ordered by code.
func (t *OpTable) String() string {
	specs := t.Specs()
	sort.Slice(specs, func(i, j int) bool { return specs[i].Code < specs[j].Code })

	var b strings.Builder
	for _, s := range specs {
		fmt.Fprintf(&b, "%-10s %s %s\n", s.Name, s.Code, s.Length)
	}
	return b.String()
}

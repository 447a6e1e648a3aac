// Copyright 2014 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm decodes object code text records back into assembly
// language, using an opcode table to name the commands.
package disasm

import (
	"fmt"
	"strconv"

	"github.com/beevik/asm24/asm"
)

const maxAddress = 0xffffff

// Disassembler formatting for addressing types
var modeFormat = []string{
	"%s",   // no symbol
	"%s",   // direct
	"[%s]", // relative
}

// Format a value as a hexadecimal literal that the assembler accepts.
func hexLiteral(v int, digits int) string {
	s := fmt.Sprintf("%0*Xh", digits, v)
	if s[0] > '9' {
		s = "0" + s
	}
	return s
}

// A Disassembler decodes text records using an opcode table. Addresses
// that match a symbol are shown by name.
type Disassembler struct {
	table  *asm.OpTable
	labels map[int]string
}

// New creates a disassembler. The symbols may be nil.
func New(table *asm.OpTable, symbols []asm.Symbol) *Disassembler {
	d := &Disassembler{table: table, labels: make(map[int]string)}
	for _, s := range symbols {
		d.labels[s.Address] = s.Name
	}
	return d
}

// Disassemble decodes a text record. It returns the record's address and a
// line of assembly code. Records that do not decode to a command in the
// opcode table are shown as data.
func (d *Disassembler) Disassemble(r asm.Record) (addr int, line string, err error) {
	if r.Type != 'T' || len(r.Fields) < 2 || len(r.Fields) > 3 {
		return 0, "", fmt.Errorf("not a text record: %s", r)
	}

	a, err := strconv.ParseUint(r.Fields[0], 16, 24)
	if err != nil {
		return 0, "", fmt.Errorf("invalid address in record: %s", r)
	}
	size, err := strconv.ParseUint(r.Fields[1], 16, 8)
	if err != nil {
		return 0, "", fmt.Errorf("invalid size in record: %s", r)
	}
	addr = int(a)

	if len(r.Fields) == 2 {
		return addr, fmt.Sprintf("RESB %d", size), nil
	}

	payload := r.Fields[2]
	if line, ok := d.instruction(addr, int(size), payload); ok {
		return addr, line, nil
	}
	return addr, d.data(int(size), payload), nil
}

func (d *Disassembler) instruction(addr, size int, payload string) (string, bool) {
	if size != 1 && size != 2 && size != 4 {
		return "", false
	}

	// The opcode field holds code*4 plus the addressing bits, so it may be
	// two or three digits wide.
	n := len(payload) - 2*(size-1)
	if n != 2 && n != 3 {
		return "", false
	}
	opcode, err := strconv.ParseUint(payload[:n], 16, 16)
	if err != nil || opcode>>2 > 0xff {
		return "", false
	}
	cmd, ok := d.table.LookupCode(byte(opcode >> 2))
	if !ok || cmd.Length != size {
		return "", false
	}

	bits := int(opcode & 3)
	operand := payload[n:]
	switch {
	case size == 1 && bits == 0:
		return cmd.Name, true

	case size == 2 && bits == 0:
		v, _ := strconv.ParseUint(operand, 16, 8)
		return fmt.Sprintf("%s %s", cmd.Name, hexLiteral(int(v), 2)), true

	case size == 4 && bits < len(modeFormat):
		v, err := strconv.ParseUint(operand, 16, 24)
		if err != nil {
			return "", false
		}
		target := int(v)
		if bits == 2 {
			target = (addr + 4 + target) & maxAddress
		}
		return cmd.Name + " " + fmt.Sprintf(modeFormat[bits], d.label(target, bits != 0)), true
	}
	return "", false
}

// Return the label for an address if it has one and the operand refers to
// a symbol, or a numeric literal otherwise.
func (d *Disassembler) label(addr int, symbolic bool) string {
	if name, ok := d.labels[addr]; ok && symbolic {
		return name
	}
	return hexLiteral(addr, 6)
}

func (d *Disassembler) data(size int, payload string) string {
	switch {
	case size == 1:
		return "BYTE " + hexLiteral(parseHex(payload), 2)
	case size == 3 && len(payload) == 6:
		return fmt.Sprintf("WORD %d", parseHex(payload))
	default:
		return `BYTE X"` + payload + `"`
	}
}

func parseHex(s string) int {
	v, _ := strconv.ParseUint(s, 16, 32)
	return int(v)
}

// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// SecondPass translates intermediate code produced by FirstPass into object
// records, resolving labels against the context's symbol table. The
// intermediate code is reparsed as text, so it may come from an earlier
// call to Intermediate or from an external listing in the same format.
//
// The relocation table is cleared on entry and rebuilt from every
// directly addressed operand.
func (c *Context) SecondPass(intermediate []string) (*Object, error) {
	c.logSection("Second pass")
	c.relocs = c.relocs[:0]

	lines, err := Split(strings.Join(intermediate, "\n"))
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, &Error{Kind: KindSyntax, Detail: "intermediate code is empty"}
	}

	obj := &Object{}
	for i, tokens := range lines {
		c.row, c.tokens = i+1, tokens

		l, err := ParseIntermediate(tokens, c.row)
		if err != nil {
			return nil, err
		}

		var r Record
		if i == 0 {
			r, err = c.genHeader(l)
		} else {
			r, err = c.genText(l)
		}
		if err != nil {
			return nil, err
		}

		obj.Records = append(obj.Records, r)
		c.logLine(c.row, tokens, "%s", r)
	}

	if c.end < c.start || c.end > c.ip {
		return nil, &Error{Kind: KindEntryPointOutOfRange, Value: c.end, Start: c.start, End: c.ip}
	}

	for _, addr := range c.relocs {
		obj.Records = append(obj.Records, Record{Type: 'M', Fields: []string{fmt.Sprintf("%06X", addr)}})
	}
	obj.Records = append(obj.Records, Record{Type: 'E', Fields: []string{fmt.Sprintf("%06X", c.end)}})

	if c.verbose {
		c.log("Relocations:")
		spew.Fdump(c.out, c.relocs)
	}
	return obj, nil
}

func (c *Context) genHeader(l Line) (Record, error) {
	if l.Command != "START" {
		return Record{}, c.fail(&Error{
			Kind:   KindSyntax,
			Detail: "the first line of intermediate code must be the START line",
		})
	}
	return Record{
		Type:   'H',
		Fields: []string{l.Label, fmt.Sprintf("%06X", c.start), fmt.Sprintf("%06X", c.ip-c.start)},
	}, nil
}

func (c *Context) genText(l Line) (Record, error) {
	text := func(fields ...string) (Record, error) {
		return Record{Type: 'T', Fields: append([]string{l.Label}, fields...)}, nil
	}

	switch l.Command {
	case "WORD":
		if err := c.checkHexField(l.Operand1, 6); err != nil {
			return Record{}, err
		}
		return text("03", l.Operand1)

	case "BYTE":
		op := l.Operand1
		if v, ok := parseHex(op); ok {
			return text("01", fmt.Sprintf("%02X", v))
		}
		switch {
		case hasPrefixFold(op, `C"`):
			body := literalBody(op)
			return text(fmt.Sprintf("%02X", len(body)), asciiString(body))
		case hasPrefixFold(op, `X"`):
			body := strings.ToUpper(literalBody(op))
			return text(fmt.Sprintf("%02X", len(body)/2), body)
		}
		return Record{}, c.fail(&Error{Kind: KindInvalidFormat, Token: op, Expected: "a number, a C-string or an X-string"})

	case "RESB", "RESW":
		n, ok := parseHex(l.Operand1)
		if !ok {
			return Record{}, c.fail(&Error{Kind: KindInvalidFormat, Token: l.Operand1, Expected: "a hexadecimal number"})
		}
		if l.Command == "RESW" {
			n *= 3
		}
		return text(fmt.Sprintf("%02X", n))
	}

	return c.genInstruction(l)
}

func (c *Context) genInstruction(l Line) (Record, error) {
	opcode, ok := parseHex(l.Command)
	if !ok {
		return Record{}, c.fail(&Error{Kind: KindUnknownCommand, Token: l.Command})
	}
	addr, ok := parseHex(l.Label)
	if !ok {
		return Record{}, c.fail(&Error{Kind: KindInvalidFormat, Token: l.Label, Expected: "a hexadecimal address"})
	}

	text := func(size int, payload string) (Record, error) {
		return Record{Type: 'T', Fields: []string{l.Label, fmt.Sprintf("%02X", size), l.Command + payload}}, nil
	}

	switch opcode & 3 {
	case 0:
		switch {
		case l.Operand1 == "" && l.Operand2 == "":
			return text(1, "")
		case l.Operand2 != "":
			r1, ok1 := registerNumber(l.Operand1)
			r2, ok2 := registerNumber(l.Operand2)
			if !ok1 || !ok2 {
				return Record{}, c.fail(&Error{Kind: KindInvalidOperands, Command: l.Command, Expected: "two registers (R0-R15)"})
			}
			return text(2, fmt.Sprintf("%X%X", r1, r2))
		default:
			cmd, ok := c.table.LookupCode(byte(opcode >> 2))
			if !ok {
				return Record{}, c.fail(&Error{Kind: KindUnknownCommand, Token: l.Command})
			}
			if err := c.checkHexField(l.Operand1, 2*(cmd.Length-1)); err != nil {
				return Record{}, err
			}
			return text(cmd.Length, l.Operand1)
		}

	case 1:
		sym, err := c.resolve(l.Operand1)
		if err != nil {
			return Record{}, err
		}
		c.relocs = append(c.relocs, addr)
		return text(4, fmt.Sprintf("%06X", sym.Address))

	case 2:
		sym, err := c.resolve(l.Operand1)
		if err != nil {
			return Record{}, err
		}
		disp := (sym.Address - (addr + 4)) & maxAddress
		return text(4, fmt.Sprintf("%06X", disp))

	default:
		return Record{}, c.fail(&Error{Kind: KindInvalidAddressingType, Token: l.Command})
	}
}

// Look up a label operand, which may be wrapped in brackets.
func (c *Context) resolve(operand string) (Symbol, error) {
	name, _ := stripBrackets(operand)
	sym, ok := c.symbols.Lookup(name)
	if !ok {
		return Symbol{}, c.fail(&Error{Kind: KindUnresolvedLabel, Token: name})
	}
	return sym, nil
}

// Fail unless a field of intermediate code holds exactly the given number
// of hex digits.
func (c *Context) checkHexField(s string, digits int) error {
	if _, ok := parseHex(s); !ok || len(s) != digits {
		return c.fail(&Error{Kind: KindInvalidFormat, Token: s, Expected: fmt.Sprintf("%d hexadecimal digits", digits)})
	}
	return nil
}

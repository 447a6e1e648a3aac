// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// Directive handlers used by the first pass.
var directiveFns = map[string]func(c *Context, l Line) (string, error){
	"START": (*Context).parseStart,
	"WORD":  (*Context).parseWord,
	"BYTE":  (*Context).parseByte,
	"RESB":  (*Context).parseReserve,
	"RESW":  (*Context).parseReserve,
	"END":   (*Context).parseEnd,
}

// Split the source code into lines of tokens.
func (c *Context) tokenize() error {
	c.logSection("Splitting source code")
	lines, err := Split(c.src)
	if err != nil {
		return err
	}
	c.source = lines
	c.log("%d lines", len(lines))
	return nil
}

// Classify each line, allocate addresses to instructions and data, build
// the symbol table and produce the intermediate code.
func (c *Context) allocate() error {
	c.logSection("First pass")

	c.ip, c.start, c.end = 0, 0, 0
	c.state = beforeStart
	c.symbols.Clear()
	c.intermediate = c.intermediate[:0]
	c.sourceLines = c.sourceLines[:0]

	for i, tokens := range c.source {
		if c.state == afterEnd {
			break
		}

		c.row, c.tokens = i+1, tokens
		if c.state == inProgram {
			if err := c.checkOverflow(c.ip); err != nil {
				return err
			}
		}

		l, err := c.table.Classify(tokens, c.row)
		if err != nil {
			return err
		}

		if l.Label != "" {
			if c.symbols.Contains(l.Label) {
				return c.fail(&Error{Kind: KindDuplicateLabel, Token: l.Label})
			}
			if c.state == inProgram {
				c.symbols.Add(l.Label, c.ip)
			}
		}

		addr := c.ip
		var out string
		switch {
		case IsDirective(l.Command):
			out, err = directiveFns[l.Command](c, l)
		case c.table.IsCommand(l.Command):
			out, err = c.parseInstruction(l)
		default:
			err = c.fail(&Error{Kind: KindUnknownCommand, Token: l.Command})
		}
		if err != nil {
			return err
		}

		if out != "" {
			c.intermediate = append(c.intermediate, out)
			if l.Command != "START" {
				c.sourceLines = append(c.sourceLines, SourceLine{Address: addr, Line: c.row})
			}
		}
		c.logLine(c.row, tokens, "%s", out)
	}
	return nil
}

// Fail if the program was never terminated by END.
func (c *Context) checkEnd() error {
	if c.state != afterEnd {
		return &Error{Kind: KindEndMissing}
	}
	if c.verbose {
		c.log("Symbols:")
		spew.Fdump(c.out, c.symbols.Symbols())
	}
	return nil
}

// Every directive other than START and END requires a started program.
func (c *Context) requireStarted() error {
	if c.state != inProgram {
		return c.fail(&Error{Kind: KindStartNotFirst})
	}
	return nil
}

// Check a directive's operand count: exactly one operand is required.
func (c *Context) requireOneOperand(l Line) error {
	switch {
	case l.Operand1 == "":
		return c.fail(&Error{Kind: KindOperandMissing, Command: l.Command, Expected: directiveFormat[l.Command]})
	case l.Operand2 != "":
		return c.fail(&Error{Kind: KindTooManyOperands, Command: l.Command})
	}
	return nil
}

// Parse a numeric operand and check that it lies within [min, max].
func (c *Context) parseValue(command, operand string, min, max int) (int, error) {
	v, err := ParseNumber(operand)
	if err != nil {
		return 0, c.fail(&Error{Kind: KindInvalidFormat, Token: operand, Expected: numberFormat})
	}
	if v < min || v > max {
		return 0, c.fail(&Error{Kind: KindValueOutOfRange, Command: command, Value: v, Min: min, Max: max})
	}
	return v, nil
}

func (c *Context) parseStart(l Line) (string, error) {
	if err := c.requireOneOperand(l); err != nil {
		return "", err
	}
	if c.state != beforeStart {
		return "", c.fail(&Error{Kind: KindStartNotFirst})
	}

	addr, err := ParseNumber(l.Operand1)
	if err != nil {
		return "", c.fail(&Error{Kind: KindInvalidFormat, Token: l.Operand1, Expected: numberFormat})
	}
	if err := c.checkOverflow(addr); err != nil {
		return "", err
	}
	if addr <= 0 {
		return "", c.fail(&Error{Kind: KindStartAddressZero})
	}
	if l.Label == "" {
		return "", c.fail(&Error{Kind: KindLabelRequired, Command: l.Command})
	}

	c.state = inProgram
	c.name = l.Label
	c.ip, c.start = addr, addr
	return fmt.Sprintf("%s START %06X", l.Label, addr), nil
}

func (c *Context) parseWord(l Line) (string, error) {
	if err := c.requireStarted(); err != nil {
		return "", err
	}
	if err := c.requireOneOperand(l); err != nil {
		return "", err
	}
	v, err := c.parseValue(l.Command, l.Operand1, 1, maxAddress)
	if err != nil {
		return "", err
	}
	if err := c.checkOverflow(c.ip + 3); err != nil {
		return "", err
	}

	out := fmt.Sprintf("%06X WORD %06X", c.ip, v)
	c.ip += 3
	return out, nil
}

func (c *Context) parseByte(l Line) (string, error) {
	if err := c.requireStarted(); err != nil {
		return "", err
	}
	if err := c.requireOneOperand(l); err != nil {
		return "", err
	}

	op := l.Operand1
	var out string
	var size int
	v, isNum := TryParseNumber(op)
	switch {
	case isNum:
		if v < 0 || v > 0xff {
			return "", c.fail(&Error{Kind: KindValueOutOfRange, Command: l.Command, Value: v, Min: 0, Max: 0xff})
		}
		out, size = fmt.Sprintf("%06X BYTE %02X", c.ip, v), 1

	case hasPrefixFold(op, `C"`):
		if err := c.validateCString(op); err != nil {
			return "", err
		}
		out, size = fmt.Sprintf("%06X BYTE %s", c.ip, op), len(literalBody(op))

	case hasPrefixFold(op, `X"`):
		if err := c.validateXString(op); err != nil {
			return "", err
		}
		out, size = fmt.Sprintf("%06X BYTE %s", c.ip, strings.ToUpper(op)), len(literalBody(op))/2

	default:
		return "", c.fail(&Error{Kind: KindInvalidFormat, Token: op, Expected: directiveFormat["BYTE"]})
	}

	if err := c.checkOverflow(c.ip + size); err != nil {
		return "", err
	}
	c.ip += size
	return out, nil
}

func (c *Context) parseReserve(l Line) (string, error) {
	if err := c.requireStarted(); err != nil {
		return "", err
	}
	if err := c.requireOneOperand(l); err != nil {
		return "", err
	}
	v, err := c.parseValue(l.Command, l.Operand1, 1, 0xff)
	if err != nil {
		return "", err
	}

	size := v
	if l.Command == "RESW" {
		size = v * 3
	}
	if err := c.checkOverflow(c.ip + size); err != nil {
		return "", err
	}

	out := fmt.Sprintf("%06X %s %02X", c.ip, l.Command, v)
	c.ip += size
	return out, nil
}

func (c *Context) parseEnd(l Line) (string, error) {
	if l.Operand2 != "" {
		return "", c.fail(&Error{Kind: KindNoOperandsAllowed, Command: l.Command, Expected: directiveFormat[l.Command]})
	}
	if c.state != inProgram {
		return "", c.fail(&Error{Kind: KindEndBeforeStart})
	}

	if l.Operand1 == "" {
		c.end = c.start
	} else {
		addr, err := ParseNumber(l.Operand1)
		if err != nil {
			return "", c.fail(&Error{Kind: KindInvalidFormat, Token: l.Operand1, Expected: numberFormat})
		}
		if addr < 0 || addr > maxAddress {
			return "", c.fail(&Error{Kind: KindAddressOutOfRange, Value: addr, Min: 0, Max: maxAddress})
		}
		c.end = addr
	}

	c.state = afterEnd
	return "", nil
}

// Instructions are encoded by their length. The low two bits of the
// encoded opcode byte select the addressing type: 00 for no symbol, 01 for
// direct and 10 for relative addressing.
func (c *Context) parseInstruction(l Line) (string, error) {
	if err := c.requireStarted(); err != nil {
		return "", err
	}

	cmd, _ := c.table.Lookup(l.Command)
	opcode := int(cmd.Code) * 4

	var out string
	switch cmd.Length {
	case 1:
		if l.Operand1 != "" {
			return "", c.fail(&Error{Kind: KindNoOperandsAllowed, Command: cmd.Name})
		}
		out = fmt.Sprintf("%06X %02X", c.ip, opcode)

	case 2:
		switch {
		case l.Operand1 == "":
			return "", c.fail(&Error{Kind: KindOperandMissing, Command: cmd.Name, Expected: "two registers or one value"})
		case l.Operand2 != "":
			if !IsRegister(l.Operand1) || !IsRegister(l.Operand2) {
				return "", c.fail(&Error{Kind: KindInvalidOperands, Command: cmd.Name, Expected: "two registers (R0-R15)"})
			}
			out = fmt.Sprintf("%06X %02X %s %s", c.ip, opcode,
				strings.ToUpper(l.Operand1), strings.ToUpper(l.Operand2))
		default:
			v, err := c.parseValue(cmd.Name, l.Operand1, 0, 0xff)
			if err != nil {
				return "", err
			}
			out = fmt.Sprintf("%06X %02X %02X", c.ip, opcode, v)
		}

	case 4:
		switch {
		case l.Operand1 == "":
			return "", c.fail(&Error{Kind: KindOperandMissing, Command: cmd.Name, Expected: "label or address"})
		case l.Operand2 != "":
			return "", c.fail(&Error{Kind: KindTooManyOperands, Command: cmd.Name})
		}

		op := l.Operand1
		if v, ok := TryParseNumber(op); ok {
			if v < 0 || v > maxAddress {
				return "", c.fail(&Error{Kind: KindAddressOutOfRange, Value: v, Min: 0, Max: maxAddress})
			}
			out = fmt.Sprintf("%06X %02X %06X", c.ip, opcode, v)
		} else if label, rel := stripBrackets(op); rel && c.table.IsLabel(label) {
			out = fmt.Sprintf("%06X %02X %s", c.ip, opcode+2, op)
		} else if c.table.IsLabel(op) {
			out = fmt.Sprintf("%06X %02X %s", c.ip, opcode+1, op)
		} else {
			return "", c.fail(&Error{Kind: KindInvalidFormat, Token: op, Expected: "label, [label] or numeric address"})
		}
	}

	if err := c.checkOverflow(c.ip + cmd.Length); err != nil {
		return "", err
	}
	c.ip += cmd.Length
	return out, nil
}

func (c *Context) validateCString(s string) error {
	switch {
	case len(s) < 3 || s[len(s)-1] != '"':
		return c.fail(&Error{Kind: KindStringNotClosed, Token: s})
	case len(s) == 3:
		return c.fail(&Error{Kind: KindStringEmpty, Token: s})
	}

	var bad []string
	for _, r := range literalBody(s) {
		if r > 0x7f {
			bad = append(bad, fmt.Sprintf("'%c'", r))
		}
	}
	if len(bad) > 0 {
		return c.fail(&Error{Kind: KindStringNonASCII, Token: s, Detail: strings.Join(bad, ", ")})
	}
	return nil
}

func (c *Context) validateXString(s string) error {
	switch {
	case len(s) < 3 || s[len(s)-1] != '"':
		return c.fail(&Error{Kind: KindStringNotClosed, Token: s})
	case len(s) == 3:
		return c.fail(&Error{Kind: KindStringEmpty, Token: s})
	case len(literalBody(s))%2 != 0:
		return c.fail(&Error{Kind: KindHexStringOddLength, Token: s})
	case !all(literalBody(s), hexadecimal):
		return c.fail(&Error{Kind: KindHexStringInvalidChars, Token: s})
	}
	return nil
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

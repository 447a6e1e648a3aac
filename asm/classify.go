// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"strings"
)

// A Line is a classified line of assembly code. Command is always present
// and upper-case. Label, if present, is upper-case and has been validated.
// Absent fields are empty strings. Operands keep their original case.
type Line struct {
	Label    string
	Command  string
	Operand1 string
	Operand2 string
}

func (l Line) String() string {
	fields := make([]string, 0, 4)
	for _, f := range []string{l.Label, l.Command, l.Operand1, l.Operand2} {
		if f != "" {
			fields = append(fields, f)
		}
	}
	return strings.Join(fields, " ")
}

const maxLabelLength = 10

const numberFormat = "a decimal number or a hexadecimal number with an 'h' suffix"

// Expected operand formats, by directive.
var directiveFormat = map[string]string{
	"START": "nonzero address",
	"WORD":  "number 1-16777215",
	"BYTE":  `number 0-255, C"text" or X"AB12..."`,
	"RESB":  "number of bytes 1-255",
	"RESW":  "number of words 1-255",
	"END":   "optional entry point address",
}

// IsLabel returns true if s can be used as a label: at most 10 characters,
// starting with a letter, made of letters, digits and underscores, and not
// the name of a register, command or directive.
func (t *OpTable) IsLabel(s string) bool {
	return t.checkLabel(s) == nil
}

// ValidateLabel checks that s can be used as a label and returns an error
// describing the first problem found.
func (t *OpTable) ValidateLabel(s string, line int, tokens []string) error {
	if e := t.checkLabel(s); e != nil {
		return e.at(line, tokens)
	}
	return nil
}

func (t *OpTable) checkLabel(s string) *Error {
	var kind ErrorKind
	switch {
	case s == "":
		kind = KindLabelMissing
	case len(s) > maxLabelLength:
		kind = KindLabelTooLong
	case !labelStartChar(s[0]):
		kind = KindLabelInvalidStart
	case !all(s, labelChar):
		kind = KindLabelInvalidChars
	case IsRegister(s):
		kind = KindLabelIsRegister
	case t.IsCommand(s):
		kind = KindLabelIsCommand
	case IsDirective(s):
		kind = KindLabelIsDirective
	default:
		return nil
	}
	return &Error{Kind: kind, Token: s}
}

// Classify determines the role of each token on a line of source code and
// returns the classified line. The line number is used only for error
// reporting. Operands are not validated.
func (t *OpTable) Classify(tokens []string, line int) (Line, error) {
	syntaxError := func(format string, args ...any) (Line, error) {
		e := &Error{Kind: KindSyntax, Detail: fmt.Sprintf(format, args...)}
		return Line{}, e.at(line, tokens)
	}
	labeled := func(label, command string, operands ...string) (Line, error) {
		if err := t.ValidateLabel(label, line, tokens); err != nil {
			return Line{}, err
		}
		l := Line{Label: strings.ToUpper(label), Command: strings.ToUpper(command)}
		if len(operands) > 0 {
			l.Operand1 = operands[0]
		}
		if len(operands) > 1 {
			l.Operand2 = operands[1]
		}
		return l, nil
	}

	switch len(tokens) {
	case 0:
		return syntaxError("empty line")

	case 1:
		if t.IsCommand(tokens[0]) || strings.EqualFold(tokens[0], "END") {
			return Line{Command: strings.ToUpper(tokens[0])}, nil
		}
		return syntaxError("'%s' is not a known command or directive, expected a command without operands or END",
			tokens[0])

	case 2:
		switch {
		case t.IsCommand(tokens[0]) || IsDirective(tokens[0]):
			return Line{Command: strings.ToUpper(tokens[0]), Operand1: tokens[1]}, nil
		case t.IsCommand(tokens[1]) || strings.EqualFold(tokens[1], "START") || strings.EqualFold(tokens[1], "END"):
			return labeled(tokens[0], tokens[1])
		}
		return syntaxError("'%s' is not a command or directive, expected [label command] or [command operand]",
			tokens[1])

	case 3:
		switch {
		case t.IsCommand(tokens[0]):
			return Line{Command: strings.ToUpper(tokens[0]), Operand1: tokens[1], Operand2: tokens[2]}, nil
		case IsDirective(tokens[0]):
			return Line{}, splitOperandError(tokens[0], tokens[1:], line, tokens)
		case t.IsCommand(tokens[1]) || IsDirective(tokens[1]):
			return labeled(tokens[0], tokens[1], tokens[2])
		}
		return syntaxError("'%s' is not a command or directive, expected [label command operand] or [command operand1 operand2]",
			tokens[1])

	case 4:
		switch {
		case t.IsCommand(tokens[1]):
			return labeled(tokens[0], tokens[1], tokens[2], tokens[3])
		case IsDirective(tokens[1]):
			return Line{}, splitOperandError(tokens[1], tokens[2:], line, tokens)
		}
		return syntaxError("'%s' is not a command, expected [label command operand1 operand2]", tokens[1])

	default:
		return syntaxError("too many elements on line (%d), maximum is 4: [label] command [operand1] [operand2]",
			len(tokens))
	}
}

// A directive followed by two operand tokens usually means its single
// operand contained an unquoted space.
func splitOperandError(directive string, operands []string, line int, tokens []string) error {
	d := strings.ToUpper(directive)
	e := &Error{
		Kind:     KindSplitOperand,
		Command:  d,
		Token:    strings.Join(operands, " "),
		Expected: directiveFormat[d],
	}
	return e.at(line, tokens)
}

// ParseIntermediate classifies a line of intermediate code produced by the
// first pass. The first field is an address (or the program name on the
// START line) and the second is a directive or an opcode in hexadecimal.
func ParseIntermediate(tokens []string, line int) (Line, error) {
	if len(tokens) < 2 || len(tokens) > 4 {
		e := &Error{
			Kind:   KindSyntax,
			Detail: fmt.Sprintf("intermediate line has %d fields, expected 2-4", len(tokens)),
		}
		return Line{}, e.at(line, tokens)
	}

	l := Line{
		Label:   strings.ToUpper(tokens[0]),
		Command: strings.ToUpper(tokens[1]),
	}
	if len(tokens) > 2 {
		l.Operand1 = tokens[2]
	}
	if len(tokens) > 3 {
		l.Operand2 = tokens[3]
	}
	return l, nil
}

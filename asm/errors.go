// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNumberFormat is returned (wrapped) by ParseNumber when its input is not
// a decimal or h-suffixed hexadecimal literal.
var ErrNumberFormat = errors.New("invalid number format")

// An ErrorKind identifies the category of an assembly error.
type ErrorKind byte

// All assembly error kinds.
const (
	KindSyntax ErrorKind = iota
	KindUnknownCommand
	KindDuplicateLabel
	KindUnresolvedLabel
	KindLabelMissing
	KindLabelTooLong
	KindLabelInvalidStart
	KindLabelInvalidChars
	KindLabelIsRegister
	KindLabelIsCommand
	KindLabelIsDirective
	KindLabelRequired
	KindOperandMissing
	KindTooManyOperands
	KindNoOperandsAllowed
	KindInvalidOperands
	KindInvalidFormat
	KindSplitOperand
	KindValueOutOfRange
	KindAddressOutOfRange
	KindStringNotClosed
	KindStringEmpty
	KindHexStringOddLength
	KindHexStringInvalidChars
	KindStringNonASCII
	KindStartNotFirst
	KindStartAddressZero
	KindEndBeforeStart
	KindEndMissing
	KindEntryPointOutOfRange
	KindMemoryOverflow
	KindInvalidAddressingType
	KindConfig
	KindNumberFormat
)

var kindName = []string{
	"syntax",
	"unknown command",
	"duplicate label",
	"unresolved label",
	"label missing",
	"label too long",
	"label invalid start",
	"label invalid characters",
	"label is register",
	"label is command",
	"label is directive",
	"label required",
	"operand missing",
	"too many operands",
	"no operands allowed",
	"invalid operands",
	"invalid format",
	"split operand",
	"value out of range",
	"address out of range",
	"string not closed",
	"string empty",
	"hex string odd length",
	"hex string invalid characters",
	"string non-ascii",
	"start not first",
	"start address zero",
	"end before start",
	"end missing",
	"entry point out of range",
	"memory overflow",
	"invalid addressing type",
	"config",
	"number format",
}

func (k ErrorKind) String() string {
	if int(k) < len(kindName) {
		return kindName[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// An Error describes a single failure encountered while configuring the
// opcode table or translating a program. The first error aborts the pass
// that produced it.
type Error struct {
	Kind     ErrorKind // category of the error
	Line     int       // 1-based line number over non-blank lines, 0 if none
	Source   string    // text of the offending line, tokens joined by spaces
	Token    string    // offending token, if any
	Command  string    // command or directive involved, if any
	Expected string    // description of the expected operand format
	Detail   string    // free-form detail (syntax errors, config errors)
	Value    int       // offending numeric value
	Min, Max int       // valid range for Value
	Start    int       // program start address (entry point checks)
	End      int       // program end address (entry point checks)
}

// Error renders the error as a human-readable message. When the error is
// bound to a source line, the line number and the line text are included.
func (e *Error) Error() string {
	msg := e.message()
	if e.Line <= 0 {
		return msg
	}
	s := fmt.Sprintf("line %d: %s", e.Line, msg)
	if e.Source != "" {
		s += "\n    " + e.Source
	}
	return s
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// Unwrap exposes ErrNumberFormat for number format errors.
func (e *Error) Unwrap() error {
	if e.Kind == KindNumberFormat {
		return ErrNumberFormat
	}
	return nil
}

func (e *Error) message() string {
	switch e.Kind {
	case KindSyntax:
		return e.Detail
	case KindUnknownCommand:
		return fmt.Sprintf("unknown command or directive '%s'", e.Token)
	case KindDuplicateLabel:
		return fmt.Sprintf("label '%s' is already defined", e.Token)
	case KindUnresolvedLabel:
		return fmt.Sprintf("label '%s' is not defined", e.Token)
	case KindLabelMissing:
		return "label missing"
	case KindLabelTooLong:
		return fmt.Sprintf("label '%s' is %d characters long, maximum is 10", e.Token, len(e.Token))
	case KindLabelInvalidStart:
		return fmt.Sprintf("label '%s' must start with a letter", e.Token)
	case KindLabelInvalidChars:
		return fmt.Sprintf("label '%s' may contain only letters, digits and underscores", e.Token)
	case KindLabelIsRegister:
		return fmt.Sprintf("label '%s' is a register name", e.Token)
	case KindLabelIsCommand:
		return fmt.Sprintf("label '%s' is a command name", e.Token)
	case KindLabelIsDirective:
		return fmt.Sprintf("label '%s' is a directive name", e.Token)
	case KindLabelRequired:
		return fmt.Sprintf("%s requires a label", e.Command)
	case KindOperandMissing:
		return fmt.Sprintf("%s requires an operand (%s)", e.Command, e.Expected)
	case KindTooManyOperands:
		return fmt.Sprintf("too many operands for %s", e.Command)
	case KindNoOperandsAllowed:
		if e.Expected != "" {
			return fmt.Sprintf("%s accepts at most one operand (%s)", e.Command, e.Expected)
		}
		return fmt.Sprintf("%s takes no operands", e.Command)
	case KindInvalidOperands:
		return fmt.Sprintf("invalid operands for %s, expected %s", e.Command, e.Expected)
	case KindInvalidFormat:
		return fmt.Sprintf("invalid format '%s', expected %s", e.Token, e.Expected)
	case KindSplitOperand:
		return fmt.Sprintf("invalid operand format '%s' (an unquoted space may have split it), expected %s",
			e.Token, e.Expected)
	case KindValueOutOfRange:
		return fmt.Sprintf("value %d out of range, %s accepts %d-%d", e.Value, e.Command, e.Min, e.Max)
	case KindAddressOutOfRange:
		return fmt.Sprintf("address %d out of range %d-%d", e.Value, e.Min, e.Max)
	case KindStringNotClosed:
		return fmt.Sprintf("string '%s' is not closed with a quote", e.Token)
	case KindStringEmpty:
		return "string literal is empty"
	case KindHexStringOddLength:
		return fmt.Sprintf("hex string '%s' has an odd number of digits", e.Token)
	case KindHexStringInvalidChars:
		return fmt.Sprintf("hex string '%s' contains non-hexadecimal characters", e.Token)
	case KindStringNonASCII:
		return fmt.Sprintf("string '%s' contains non-ASCII characters: %s", e.Token, e.Detail)
	case KindStartNotFirst:
		return "START must be the first directive of the program"
	case KindStartAddressZero:
		return "START address cannot be zero"
	case KindEndBeforeStart:
		return "END must follow START and appear only once"
	case KindEndMissing:
		return "program must end with an END directive"
	case KindEntryPointOutOfRange:
		return fmt.Sprintf("entry point %06X is outside the program (%06X-%06X)", e.Value, e.Start, e.End)
	case KindMemoryOverflow:
		return fmt.Sprintf("address %06X exceeds available memory (max %06X)", e.Value, maxAddress)
	case KindInvalidAddressingType:
		return fmt.Sprintf("invalid addressing type in opcode '%s'", e.Token)
	case KindConfig:
		return e.Detail
	case KindNumberFormat:
		return fmt.Sprintf("'%s' is not a number", e.Token)
	default:
		return e.Kind.String()
	}
}

// at binds the error to a source line.
func (e *Error) at(line int, tokens []string) *Error {
	e.Line = line
	e.Source = strings.Join(tokens, " ")
	return e
}

func configError(format string, args ...any) *Error {
	return &Error{Kind: KindConfig, Detail: fmt.Sprintf(format, args...)}
}

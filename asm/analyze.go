// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"strings"
)

// An AddressingMode describes which kinds of label addressing a program
// uses in its 4-byte instructions.
type AddressingMode byte

// Addressing modes.
const (
	DirectOnly   AddressingMode = iota // only direct addressing (LABEL)
	RelativeOnly                       // only relative addressing ([LABEL])
	Mixed                              // both
)

var modeName = []string{
	"direct",
	"relative",
	"mixed",
}

var modeDescription = []string{
	"Direct addressing only. Relative addressing is not allowed.",
	"Relative addressing only. Direct addressing is not allowed.",
	"Mixed addressing. Both direct and relative addressing are allowed.",
}

func (m AddressingMode) String() string {
	if int(m) < len(modeName) {
		return modeName[m]
	}
	return fmt.Sprintf("AddressingMode(%d)", int(m))
}

// Description returns a human-readable description of the mode.
func (m AddressingMode) Description() string {
	if int(m) < len(modeDescription) {
		return modeDescription[m]
	}
	return "Unknown addressing mode."
}

// ParseAddressingMode converts a mode name ("direct", "relative" or
// "mixed") into an AddressingMode. Any unique prefix is accepted.
func ParseAddressingMode(s string) (AddressingMode, error) {
	s = strings.ToLower(s)
	if s != "" {
		for i, n := range modeName {
			if strings.HasPrefix(n, s) {
				return AddressingMode(i), nil
			}
		}
	}
	return 0, fmt.Errorf("unknown addressing mode '%s'", s)
}

// A Violation reports a line that does not conform to a required
// addressing mode.
type Violation struct {
	Line    int    // 1-based line number over non-blank lines
	Message string // description of the violation
}

func (v Violation) String() string {
	return fmt.Sprintf("line %d: %s", v.Line, v.Message)
}

// Visit every 4-byte instruction with an operand, reporting whether the
// operand uses relative addressing. Lines that cannot be classified are
// skipped; the passes report those.
func (t *OpTable) scanAddressing(lines [][]string, fn func(row int, relative bool)) {
	for i, tokens := range lines {
		l, err := t.Classify(tokens, i+1)
		if err != nil || l.Operand1 == "" {
			continue
		}
		cmd, ok := t.Lookup(l.Command)
		if !ok || cmd.Length != 4 {
			continue
		}
		_, relative := stripBrackets(l.Operand1)
		fn(i+1, relative)
	}
}

// DetermineAddressing scans a program split into lines of tokens and
// reports which addressing mode it uses. A program without any addressed
// operands is considered DirectOnly.
func (t *OpTable) DetermineAddressing(lines [][]string) AddressingMode {
	var direct, relative bool
	t.scanAddressing(lines, func(row int, rel bool) {
		if rel {
			relative = true
		} else {
			direct = true
		}
	})

	switch {
	case direct && relative:
		return Mixed
	case relative:
		return RelativeOnly
	default:
		return DirectOnly
	}
}

// CheckAddressing scans a program split into lines of tokens and returns
// every line that violates the required addressing mode. It never fails;
// an empty result means the program conforms.
func (t *OpTable) CheckAddressing(lines [][]string, required AddressingMode) []Violation {
	var violations []Violation
	t.scanAddressing(lines, func(row int, rel bool) {
		switch {
		case required == DirectOnly && rel:
			violations = append(violations, Violation{
				Line:    row,
				Message: "relative addressing is not allowed in direct-only mode, use a label without brackets",
			})
		case required == RelativeOnly && !rel:
			violations = append(violations, Violation{
				Line:    row,
				Message: "direct addressing is not allowed in relative-only mode, use a bracketed [label]",
			})
		}
	})
	return violations
}

// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"strconv"
	"strings"
)

// ParseNumber parses a numeric literal. A literal is either a string of
// decimal digits with an optional sign, or a string of hexadecimal digits
// followed by an 'h' or 'H' suffix. Values must fit in 32 bits.
//
// On failure the returned error is an *Error of kind KindNumberFormat that
// wraps ErrNumberFormat.
func ParseNumber(s string) (int, error) {
	fail := &Error{Kind: KindNumberFormat, Token: s}
	if strings.TrimSpace(s) == "" {
		return 0, fail
	}

	var v int64
	var err error
	switch last := s[len(s)-1]; {
	case last == 'h' || last == 'H':
		digits := s[:len(s)-1]
		if digits == "" || !all(digits, hexadecimal) {
			return 0, fail
		}
		v, err = strconv.ParseInt(digits, 16, 32)
	default:
		digits := s
		if digits[0] == '-' || digits[0] == '+' {
			digits = digits[1:]
		}
		if digits == "" || !all(digits, decimal) {
			return 0, fail
		}
		v, err = strconv.ParseInt(s, 10, 32)
	}
	if err != nil {
		return 0, fail
	}
	return int(v), nil
}

// TryParseNumber is like ParseNumber but reports success instead of
// returning an error.
func TryParseNumber(s string) (int, bool) {
	v, err := ParseNumber(s)
	return v, err == nil
}

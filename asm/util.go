// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import "strings"

var hex = "0123456789ABCDEF"

// The largest addressable memory location. Addresses are 24 bits wide.
const maxAddress = 0xffffff

func hexchar(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

// Parse a string of hexadecimal digits without a suffix. Used to reparse
// the fields of intermediate lines, which are always written in hex.
func parseHex(s string) (int, bool) {
	if s == "" || len(s) > 8 {
		return 0, false
	}
	v := 0
	for i := 0; i < len(s); i++ {
		if !hexadecimal(s[i]) {
			return 0, false
		}
		v = v<<4 | int(hexchar(s[i]))
	}
	return v, true
}

// Return the uppercase hexadecimal ASCII codes of a string's characters.
func asciiString(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for i := 0; i < len(s); i++ {
		b.WriteByte(hex[s[i]>>4])
		b.WriteByte(hex[s[i]&0x0f])
	}
	return b.String()
}

// Return the contents of a quoted C"..." or X"..." literal.
func literalBody(s string) string {
	if len(s) < 3 {
		return ""
	}
	return s[2 : len(s)-1]
}

// Strip the brackets from a relative operand such as [LOOP].
func stripBrackets(s string) (string, bool) {
	if len(s) >= 2 && s[0] == '[' && s[len(s)-1] == ']' {
		return s[1 : len(s)-1], true
	}
	return s, false
}

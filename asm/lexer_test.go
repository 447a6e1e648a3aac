// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		src string
		exp [][]string
	}{
		{"", nil},
		{"  \n\t\r\n", nil},
		{"a\n\n  \r\nb c\r\n", [][]string{{"a"}, {"b", "c"}}},
		{"L1\tADD  R1 R2", [][]string{{"L1", "ADD", "R1", "R2"}}},
		{`S BYTE C"A B"`, [][]string{{"S", "BYTE", `C"A B"`}}},
		{`byte c"x y"`, [][]string{{"byte", `c"x y"`}}},
		{`BYTE X"0A 0B"`, [][]string{{"BYTE", `X"0A 0B"`}}},
		{`BYTE C"a"b"`, [][]string{{"BYTE", `C"a"b"`}}},
		{`BYTE C"open`, [][]string{{"BYTE", `C"open`}}},
		{`BYTE C"`, [][]string{{"BYTE", `C"`}}},
		{`C BYTE 1`, [][]string{{"C", "BYTE", "1"}}},
		{`JMP [LOOP]`, [][]string{{"JMP", "[LOOP]"}}},
	}

	for _, test := range tests {
		lines, err := Split(test.src)
		if err != nil {
			t.Errorf("Split(%q) failed: %v", test.src, err)
			continue
		}
		if !reflect.DeepEqual(lines, test.exp) {
			t.Errorf("Split(%q) = %q, expected %q", test.src, lines, test.exp)
		}
	}
}

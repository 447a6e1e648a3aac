// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestDefaultOpTable(t *testing.T) {
	table := DefaultOpTable()

	exp := "JMP        01 4\n" +
		"LOADR1     02 4\n" +
		"LOADR2     03 4\n" +
		"ADD        04 2\n" +
		"SAVER1     05 4\n" +
		"INT        06 2\n"
	if s := table.String(); s != exp {
		t.Errorf("got:\n%s\nexp:\n%s", s, exp)
	}

	cmd, ok := table.Lookup("loadr2")
	if !ok || cmd.Code != 3 || cmd.Length != 4 {
		t.Errorf("Lookup(loadr2) = %+v, %v", cmd, ok)
	}
	cmd, ok = table.LookupCode(6)
	if !ok || cmd.Name != "INT" {
		t.Errorf("LookupCode(6) = %+v, %v", cmd, ok)
	}
	if _, ok := table.LookupCode(7); ok {
		t.Error("LookupCode(7) found a command")
	}
}

func TestOpTableRoundTrip(t *testing.T) {
	specs, err := ParseOpTable(DefaultOpTable().String())
	if err != nil {
		t.Fatal(err)
	}
	table, err := NewOpTable(specs)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(table.Commands(), DefaultOpTable().Commands()) {
		t.Errorf("round trip changed the table:\n%s", table)
	}
}

func TestParseOpTable(t *testing.T) {
	text := `
; name  code  length
MOV     0A    2     ; register move
nop     0     1

CALL    3F    4`

	specs, err := ParseOpTable(text)
	if err != nil {
		t.Fatal(err)
	}
	exp := []CommandSpec{
		{"MOV", "0A", "2"},
		{"nop", "0", "1"},
		{"CALL", "3F", "4"},
	}
	if !reflect.DeepEqual(specs, exp) {
		t.Errorf("got %v, expected %v", specs, exp)
	}

	table, err := NewOpTable(specs)
	if err != nil {
		t.Fatal(err)
	}
	if !table.IsCommand("Nop") || !table.IsCommand("call") || table.IsCommand("JMP") {
		t.Error("unexpected command set")
	}

	_, err = ParseOpTable("MOV 0A\n")
	if err == nil || !strings.Contains(err.Error(), "row 1") {
		t.Errorf("expected a row error, got %v", err)
	}
}

func TestOpTableErrors(t *testing.T) {
	tests := []struct {
		specs []CommandSpec
		msg   string
	}{
		{[]CommandSpec{{"", "1", "1"}}, "cannot be empty"},
		{[]CommandSpec{{"1AB", "1", "1"}}, "must start with a letter"},
		{[]CommandSpec{{"A_B", "1", "1"}}, "only letters and digits"},
		{[]CommandSpec{{"word", "1", "1"}}, "collides with a directive"},
		{[]CommandSpec{{"R7", "1", "1"}}, "collides with a register"},
		{[]CommandSpec{{"A", "G", "1"}}, "hexadecimal integer"},
		{[]CommandSpec{{"A", "100", "1"}}, "range 0-FF"},
		{[]CommandSpec{{"A", "1", "3"}}, "must be 1, 2 or 4"},
		{[]CommandSpec{{"A", "1", "x"}}, "hexadecimal integer"},
		{[]CommandSpec{{"A", "1", "1"}, {"a", "2", "1"}}, "duplicate command names: 'A' (2 times)"},
		{[]CommandSpec{{"A", "1", "1"}, {"B", "01", "2"}}, "duplicate command codes: 01 (commands: A, B)"},
	}

	for _, test := range tests {
		_, err := NewOpTable(test.specs)
		if err == nil {
			t.Errorf("NewOpTable(%v) succeeded, expected failure", test.specs)
			continue
		}
		if !errors.Is(err, &Error{Kind: KindConfig}) {
			t.Errorf("NewOpTable(%v) returned %v, expected a config error", test.specs, err)
		}
		if !strings.Contains(err.Error(), test.msg) {
			t.Errorf("NewOpTable(%v) = %q, expected it to contain %q", test.specs, err, test.msg)
		}
	}
}

func TestRegisters(t *testing.T) {
	for _, s := range []string{"R0", "r9", "R10", "r15"} {
		if !IsRegister(s) {
			t.Errorf("IsRegister(%s) = false", s)
		}
	}
	for _, s := range []string{"R", "R16", "R01", "R20", "RX", "X1", "R100"} {
		if IsRegister(s) {
			t.Errorf("IsRegister(%s) = true", s)
		}
	}
}

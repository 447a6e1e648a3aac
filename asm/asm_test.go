// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func assemble(code string) (*Context, *Object, error) {
	return New(os.Stdout, 0).Assemble(code)
}

func checkObject(t *testing.T, code string, expected ...string) {
	t.Helper()
	_, obj, err := assemble(code)
	if err != nil {
		t.Error(err)
		return
	}

	got := obj.Lines()
	if !reflect.DeepEqual(got, expected) {
		t.Error("object code doesn't match expected")
		t.Errorf("got:\n%s\n", strings.Join(got, "\n"))
		t.Errorf("exp:\n%s\n", strings.Join(expected, "\n"))
	}
}

func checkError(t *testing.T, code string, kind ErrorKind, line int) {
	t.Helper()
	_, _, err := assemble(code)
	if err == nil {
		t.Errorf("Expected error on %s, didn't get one\n", code)
		return
	}

	var e *Error
	if !errors.As(err, &e) {
		t.Errorf("Expected *Error, got %T: %v\n", err, err)
		return
	}
	if e.Kind != kind || e.Line != line {
		t.Errorf("Expected %s error on line %d, got %s on line %d: %v\n", kind, line, e.Kind, e.Line, err)
	}
}

func TestHeaderTextEnd(t *testing.T) {
	code := `
	PROG START 1000h
	L1   ADD   R1 R2
	     END`

	checkObject(t, code,
		"H PROG 001000 000002",
		"T 001000 02 1012",
		"E 001000")
}

func TestFullProgram(t *testing.T) {
	code := `
PROG  START  100h
      JMP    L2
L1    LOADR1 DATA
      INT    21h

DATA  WORD   5
STR   BYTE   C"AB"
HEX   BYTE   X"48656C6C6F"
NUM   BYTE   0FFh
BUF   RESB   2
WBUF  RESW   2
L2    ADD    R0 R15
      END    104h
`

	checkObject(t, code,
		"H PROG 000100 00001F",
		"T 000100 04 0500011D",
		"T 000104 04 0900010A",
		"T 000108 02 1821",
		"T 00010A 03 000005",
		"T 00010D 02 4142",
		"T 00010F 05 48656C6C6F",
		"T 000114 01 FF",
		"T 000115 02",
		"T 000117 06",
		"T 00011D 02 100F",
		"M 000100",
		"M 000104",
		"E 000104")
}

func TestIntermediate(t *testing.T) {
	code := `
PROG  START  100h
      JMP    L2
L1    LOADR1 [L1]
      INT    21h
      SAVER1 200h
DATA  WORD   5
STR   BYTE   C"A B"
HEX   BYTE   x"0a0b"
L2    ADD    r3 R4
      END`

	c, err := New(os.Stdout, 0).FirstPass(code)
	if err != nil {
		t.Fatal(err)
	}

	expected := []string{
		"PROG START 000100",
		"000100 05 L2",
		"000104 0A [L1]",
		"000108 18 21",
		"00010A 14 000200",
		"00010E WORD 000005",
		`000111 BYTE C"A B"`,
		`000114 BYTE X"0A0B"`,
		"000116 10 R3 R4",
	}
	if got := c.Intermediate(); !reflect.DeepEqual(got, expected) {
		t.Errorf("got:\n%s\nexp:\n%s\n", strings.Join(got, "\n"), strings.Join(expected, "\n"))
	}

	// The START label is the program name, not a symbol.
	if c.Symbols().Contains("PROG") {
		t.Error("START label was added to the symbol table")
	}
	if c.Name() != "PROG" || c.Start() != 0x100 || c.Entry() != 0x100 || c.Length() != 0x18 {
		t.Errorf("unexpected program layout: %s %X %X %X", c.Name(), c.Start(), c.Entry(), c.Length())
	}

	sym, ok := c.Symbols().Lookup("l2")
	if !ok || sym.Address != 0x116 {
		t.Errorf("L2 = %v, %v", sym, ok)
	}
}

func TestStringLiterals(t *testing.T) {
	code := `
	P START 10h
	  BYTE X"48656C6C6F"
	  BYTE C"AB"
	  BYTE C"a "quoted" b"
	  END`

	checkObject(t, code,
		"H P 000010 000013",
		"T 000010 05 48656C6C6F",
		"T 000015 02 4142",
		"T 000017 0C 61202271756F746564222062",
		"E 000010")
}

func TestDirectAddressing(t *testing.T) {
	code := `
	P     START 2000h
	      LOADR1 VALUE
	      SAVER1 VALUE
	VALUE WORD  7
	      END`

	checkObject(t, code,
		"H P 002000 00000B",
		"T 002000 04 09002008",
		"T 002004 04 15002008",
		"T 002008 03 000007",
		"M 002000",
		"M 002004",
		"E 002000")
}

func TestRelativeAddressing(t *testing.T) {
	code := `
	P   START 10h
	L0  JMP   [FWD]
	    JMP   [L0]
	FWD INT   1
	    END`

	checkObject(t, code,
		"H P 000010 00000A",
		"T 000010 04 06000004",
		"T 000014 04 06FFFFF8",
		"T 000018 02 1801",
		"E 000010")
}

func TestRelocationTableCleared(t *testing.T) {
	code := `
	P START 10h
	  JMP L
	L INT 1
	  END`

	c, err := New(os.Stdout, 0).FirstPass(code)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if _, err := c.SecondPass(c.Intermediate()); err != nil {
			t.Fatal(err)
		}
		if r := c.Relocations(); len(r) != 1 || r[0] != 0x10 {
			t.Errorf("run %d: relocations = %v", i, r)
		}
	}
}

func TestDeterminism(t *testing.T) {
	code := `
	P    START 100h
	A    JMP   B
	B    WORD  10
	C    BYTE  C"xyz"
	     END`

	a := New(os.Stdout, 0)
	c1, err := a.FirstPass(code)
	if err != nil {
		t.Fatal(err)
	}
	c2, err := a.FirstPass(code)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(c1.Intermediate(), c2.Intermediate()) {
		t.Error("intermediate code differs between runs")
	}
	if !reflect.DeepEqual(c1.Symbols().Symbols(), c2.Symbols().Symbols()) {
		t.Error("symbol table differs between runs")
	}
}

func TestForwardReferenceUnresolved(t *testing.T) {
	code := `
	P START 100h
	  JMP NOWHERE
	  END`

	c, err := New(os.Stdout, 0).FirstPass(code)
	if err != nil {
		t.Fatalf("first pass failed: %v", err)
	}

	_, err = c.SecondPass(c.Intermediate())
	if !errors.Is(err, &Error{Kind: KindUnresolvedLabel}) {
		t.Errorf("expected unresolved label error, got %v", err)
	}
	var e *Error
	if errors.As(err, &e) && (e.Line != 2 || e.Token != "NOWHERE") {
		t.Errorf("unexpected error details: %+v", e)
	}
}

func TestSecondPassErrors(t *testing.T) {
	c, err := New(os.Stdout, 0).FirstPass("P START 100h\nL JMP L\nEND")
	if err != nil {
		t.Fatalf("first pass failed: %v", err)
	}

	tests := []struct {
		line string
		kind ErrorKind
	}{
		{"000100 10 R1 FOO", KindInvalidOperands},
		{"000100 10 R16 R1", KindInvalidOperands},
		{"000100 WORD ZZ", KindInvalidFormat},
		{"000100 WORD 5", KindInvalidFormat},
		{"000100 18 1", KindInvalidFormat},
		{"000100 18 0100", KindInvalidFormat},
		{"000100 04 ZZZZZZ", KindInvalidFormat},
		{"000100 04 0100", KindInvalidFormat},
		{"000100 07 L", KindInvalidAddressingType},
	}

	for _, test := range tests {
		_, err := c.SecondPass([]string{"P START 000100", test.line})
		if !errors.Is(err, &Error{Kind: test.kind}) {
			t.Errorf("SecondPass(%s) = %v, expected %s error", test.line, err, test.kind)
			continue
		}
		var e *Error
		if errors.As(err, &e) && e.Line != 2 {
			t.Errorf("SecondPass(%s) failed on line %d, expected line 2", test.line, e.Line)
		}
	}

	_, err = c.SecondPass(nil)
	if !errors.Is(err, &Error{Kind: KindSyntax}) {
		t.Errorf("SecondPass(nil) = %v, expected syntax error", err)
	}

	if _, err := c.SecondPass(c.Intermediate()); err != nil {
		t.Errorf("SecondPass failed after rejected input: %v", err)
	}
}

func TestStartLabelNotSymbol(t *testing.T) {
	code := `
	PROG START 100h
	PROG INT   1
	     END`

	checkObject(t, code,
		"H PROG 000100 000002",
		"T 000100 02 1801",
		"E 000100")

	c, _, err := assemble(code)
	if err != nil {
		t.Fatal(err)
	}
	if s, ok := c.Symbols().Lookup("PROG"); !ok || s.Address != 0x100 || c.Symbols().Len() != 1 {
		t.Errorf("symbols = %v, expected only PROG at 000100", c.Symbols().Symbols())
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		code string
		kind ErrorKind
		line int
	}{
		{"P START 100h\nX1 INT 1\nx1 INT 2\nEND", KindDuplicateLabel, 3},
		{"P START 100h\nBYTE 256\nEND", KindValueOutOfRange, 2},
		{"P START 100h\nBYTE -1\nEND", KindValueOutOfRange, 2},
		{"P START 100h\nWORD 0\nEND", KindValueOutOfRange, 2},
		{"P START 100h\nWORD 16777216\nEND", KindValueOutOfRange, 2},
		{"P START 100h\nRESB 256\nEND", KindValueOutOfRange, 2},
		{"P START 100h\nRESW 0\nEND", KindValueOutOfRange, 2},
		{"P START 100h\nINT 256\nEND", KindValueOutOfRange, 2},
		{"P START 100h\nINT 1\n", KindEndMissing, 0},
		{"INT 1\nP START 100h\nEND", KindStartNotFirst, 1},
		{"P START 100h\nQ START 200h\nEND", KindStartNotFirst, 2},
		{"END", KindEndBeforeStart, 1},
		{"P START 0\nEND", KindStartAddressZero, 1},
		{"START 100h\nEND", KindLabelRequired, 1},
		{"P START\nEND", KindOperandMissing, 1},
		{"P START 10G\nEND", KindInvalidFormat, 1},
		{"P START 100h\nWORD\nEND", KindSyntax, 2},
		{"P START 100h\nL WORD\nEND", KindSyntax, 2},
		{"P START 100h\nBYTE hello world\nEND", KindSplitOperand, 2},
		{"P START 100h\nS BYTE C\"a\" b\nEND", KindSplitOperand, 2},
		{"P START 100h\nBYTE hello\nEND", KindInvalidFormat, 2},
		{"P START 100h\nBYTE C\"abc\nEND", KindStringNotClosed, 2},
		{"P START 100h\nBYTE C\"\"\nEND", KindStringEmpty, 2},
		{"P START 100h\nBYTE X\"ABC\"\nEND", KindHexStringOddLength, 2},
		{"P START 100h\nBYTE X\"GG\"\nEND", KindHexStringInvalidChars, 2},
		{"P START 100h\nBYTE C\"hé\"\nEND", KindStringNonASCII, 2},
		{"P START 100h\nABCDEFGHIJK INT 1\nEND", KindLabelTooLong, 2},
		{"P START 100h\n_L INT 1\nEND", KindLabelInvalidStart, 2},
		{"P START 100h\nL$ INT 1\nEND", KindLabelInvalidChars, 2},
		{"P START 100h\nR1 INT 1\nEND", KindLabelIsRegister, 2},
		{"P START 100h\nADD ADD R1 R2\nEND", KindLabelIsCommand, 2},
		{"P START 100h\nBYTE ADD R1 R2\nEND", KindLabelIsDirective, 2},
		{"P START 100h\nINT\nEND", KindOperandMissing, 2},
		{"P START 100h\nL INT\nEND", KindOperandMissing, 2},
		{"P START 100h\nADD R1 5\nEND", KindInvalidOperands, 2},
		{"P START 100h\nJMP A B\nEND", KindTooManyOperands, 2},
		{"P START 100h\nJMP 1000000h\nEND", KindAddressOutOfRange, 2},
		{"P START 100h\nJMP 1LABEL\nEND", KindInvalidFormat, 2},
		{"P START 100h\nFOO 1\nEND", KindSyntax, 2},
		{"P START 100h\nA B C D E\nEND", KindSyntax, 2},
		{"P START 100h\nEND 1 2", KindSplitOperand, 2},
		{"P START 100h\nEND 1000000h", KindAddressOutOfRange, 2},
		{"P START 0FFFFFEh\nJMP 0\nEND", KindMemoryOverflow, 2},
		{"P START 1000000h\nEND", KindMemoryOverflow, 1},
		{"P START 100h\nINT 1\nEND 200h", KindEntryPointOutOfRange, 0},
		{"P START 100h\nJMP MISSING\nEND", KindUnresolvedLabel, 2},
	}

	for _, test := range tests {
		checkError(t, test.code, test.kind, test.line)
	}
}

func TestErrorMessage(t *testing.T) {
	_, _, err := assemble("P START 100h\nX1 INT 1\nx1 INT 2\nEND")
	if err == nil {
		t.Fatal("expected error")
	}

	exp := "line 3: label 'X1' is already defined\n    x1 INT 2"
	if err.Error() != exp {
		t.Errorf("Expected '%s', got '%v'\n", exp, err)
	}
}

func TestLinesAfterEndIgnored(t *testing.T) {
	code := `
	P START 100h
	  INT 1
	  END
	  this line is not parsed at all`

	checkObject(t, code,
		"H P 000100 000002",
		"T 000100 02 1801",
		"E 000100")
}

func TestSetOpTable(t *testing.T) {
	a := New(os.Stdout, 0)
	err := a.SetOpTable([]CommandSpec{
		{"NOP", "0", "1"},
		{"MOV", "0A", "2"},
		{"CALL", "3F", "4"},
	})
	if err != nil {
		t.Fatal(err)
	}

	code := `
	P   START 40h
	    NOP
	    MOV R10 R11
	    CALL SUB
	SUB NOP
	    END`

	_, obj, err := a.Assemble(code)
	if err != nil {
		t.Fatal(err)
	}

	exp := []string{
		"H P 000040 000008",
		"T 000040 01 00",
		"T 000041 02 28AB",
		"T 000043 04 FD000047",
		"T 000047 01 00",
		"M 000043",
		"E 000040",
	}
	if got := obj.Lines(); !reflect.DeepEqual(got, exp) {
		t.Errorf("got:\n%s\nexp:\n%s\n", strings.Join(got, "\n"), strings.Join(exp, "\n"))
	}

	// A rejected table leaves the current one in place.
	before := a.OpTable()
	if err := a.SetOpTable([]CommandSpec{{"A", "1", "1"}, {"a", "2", "1"}}); err == nil {
		t.Error("expected duplicate name error")
	}
	if a.OpTable() != before {
		t.Error("opcode table replaced after failed validation")
	}
}

func TestContextKeepsTableSnapshot(t *testing.T) {
	a := New(os.Stdout, 0)
	c, err := a.FirstPass("P START 10h\nADD 5\nEND")
	if err != nil {
		t.Fatal(err)
	}

	// Replace ADD with a 4-byte command using the same code.
	if err := a.SetOpTable([]CommandSpec{{"ADD", "4", "4"}}); err != nil {
		t.Fatal(err)
	}

	obj, err := c.SecondPass(c.Intermediate())
	if err != nil {
		t.Fatal(err)
	}
	if got := obj.Records[1].String(); got != "T 000010 02 1005" {
		t.Errorf("got %s", got)
	}
}

func TestVerbose(t *testing.T) {
	var buf bytes.Buffer
	a := New(&buf, Verbose)
	if _, _, err := a.Assemble("P START 10h\nL JMP L\nEND"); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	exp := []string{
		"-- First pass --",
		"-- Second pass --",
		"Symbols:",
		`Name: (string) (len=1) "L"`,
		"Address: (int) 16",
		"Relocations:",
		"([]int) (len=1",
	}
	for _, s := range exp {
		if !strings.Contains(out, s) {
			t.Errorf("verbose output missing %q", s)
		}
	}
}

func TestAssembleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.asm")
	err := os.WriteFile(path, []byte("P START 10h\nL JMP L\nEND\n"), 0600)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := New(&out, 0).AssembleFile(path); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "to produce 'prog.obj' and 'prog.map'") {
		t.Errorf("unexpected output: %s", out.String())
	}

	f, err := os.Open(filepath.Join(dir, "prog.obj"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var obj Object
	if _, err := obj.ReadFrom(f); err != nil {
		t.Fatal(err)
	}
	exp := []string{"H P 000010 000004", "T 000010 04 05000010", "M 000010", "E 000010"}
	if !reflect.DeepEqual(obj.Lines(), exp) {
		t.Errorf("got %v", obj.Lines())
	}

	m, err := os.Open(filepath.Join(dir, "prog.map"))
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	var sm SourceMap
	if _, err := sm.ReadFrom(m); err != nil {
		t.Fatal(err)
	}
	if sm.Program != "P" || sm.Search(0x10) != 2 || sm.Search(0x11) != -1 {
		t.Errorf("unexpected source map: %+v", sm)
	}
	if len(sm.Relocations) != 1 || sm.Relocations[0] != 0x10 {
		t.Errorf("unexpected relocations: %v", sm.Relocations)
	}
}

func TestNoOperandCommand(t *testing.T) {
	a := New(os.Stdout, 0)
	if err := a.SetOpTable([]CommandSpec{{"HALT", "FF", "1"}}); err != nil {
		t.Fatal(err)
	}

	_, _, err := a.Assemble("P START 10h\nHALT 5\nEND")
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindNoOperandsAllowed || e.Line != 2 {
		t.Errorf("expected no operands error on line 2, got %v", err)
	}

	// Codes of 40h and above produce opcode fields wider than two digits.
	_, obj, err := a.Assemble("P START 10h\nHALT\nEND")
	if err != nil {
		t.Fatal(err)
	}
	if got := obj.Records[1].String(); got != "T 000010 01 3FC" {
		t.Errorf("got %s", got)
	}
}

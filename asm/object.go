// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// A Record is a single line of object code. Type is one of 'H' (header),
// 'T' (text), 'M' (modification) or 'E' (end). Fields hold fixed-width
// upper-case hexadecimal values, except for the program name in the
// header record.
type Record struct {
	Type   byte
	Fields []string
}

func (r Record) String() string {
	if len(r.Fields) == 0 {
		return string(r.Type)
	}
	return string(r.Type) + " " + strings.Join(r.Fields, " ")
}

// An Object contains the records produced by the second pass.
type Object struct {
	Records []Record
}

// Lines returns the records rendered as text, one record per line.
func (o *Object) Lines() []string {
	lines := make([]string, len(o.Records))
	for i, r := range o.Records {
		lines[i] = r.String()
	}
	return lines
}

func (o *Object) String() string {
	return strings.Join(o.Lines(), "\n")
}

// WriteTo writes the object records, one per line.
func (o *Object) WriteTo(w io.Writer) (n int64, err error) {
	for _, r := range o.Records {
		nn, err := fmt.Fprintln(w, r)
		n += int64(nn)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// ReadFrom reads object records previously written by WriteTo.
func (o *Object) ReadFrom(r io.Reader) (n int64, err error) {
	o.Records = o.Records[:0]
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		n += int64(len(line)) + 1
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields[0]) != 1 || !strings.Contains("HTME", fields[0]) {
			return n, fmt.Errorf("invalid object record: %s", line)
		}
		o.Records = append(o.Records, Record{Type: fields[0][0], Fields: fields[1:]})
	}
	return n, scanner.Err()
}

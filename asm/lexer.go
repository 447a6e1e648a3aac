// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"strings"

	"github.com/alecthomas/participle/lexer"
)

// Token patterns for a single source line. A string literal begins with C"
// or X" and extends to the last quote on the line, so literals may contain
// spaces and embedded quotes. Whitespace is matched by an anonymous group
// and discarded.
const lineRegex = `(?P<Literal>[CcXx]"[^"]*(?:"[^"]*)*")|` +
	`(?P<Word>\S+)|` +
	`(\s+)`

var lineLexer = lexer.Must(lexer.Regexp(lineRegex))

// Split breaks source text into lines and each line into tokens. Lines
// that are empty or contain only whitespace are dropped, so the index of a
// line in the result is its 0-based number over non-blank lines.
func Split(src string) ([][]string, error) {
	var lines [][]string
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		tokens, err := splitLine(line)
		if err != nil {
			return nil, err
		}
		lines = append(lines, tokens)
	}
	return lines, nil
}

func splitLine(line string) ([]string, error) {
	lex, err := lineLexer.Lex(strings.NewReader(line))
	if err != nil {
		return nil, err
	}
	toks, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, err
	}

	tokens := make([]string, 0, len(toks))
	for _, t := range toks {
		if t.EOF() {
			break
		}
		tokens = append(tokens, t.Value)
	}
	return tokens, nil
}

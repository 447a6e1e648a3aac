// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"fmt"
	"path/filepath"
	"strings"
)

func stringToBool(s string) (bool, error) {
	s = strings.ToLower(s)
	switch s {
	case "0", "false", "off", "no":
		return false, nil
	case "1", "true", "on", "yes":
		return true, nil
	default:
		return false, fmt.Errorf("invalid bool value '%s'", s)
	}
}

// Word-wrap a block of text to 80 columns, indenting every line.
func indentWrap(indent int, s string) string {
	const width = 80
	prefix := strings.Repeat(" ", indent)

	var b strings.Builder
	col := 0
	for _, w := range strings.Fields(s) {
		switch {
		case col == 0:
			b.WriteString(prefix)
			col = indent
		case col+1+len(w) > width:
			b.WriteString("\n")
			b.WriteString(prefix)
			col = indent
		default:
			b.WriteByte(' ')
			col++
		}
		b.WriteString(w)
		col += len(w)
	}
	return b.String()
}

// Add a default extension to a filename that doesn't have one.
func withExt(filename, ext string) string {
	if filepath.Ext(filename) == "" && ext != "" {
		if ext[0] != '.' {
			ext = "." + ext
		}
		filename += ext
	}
	return filename
}

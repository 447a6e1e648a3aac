// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"bufio"
	"io"
	"os"

	xterm "golang.org/x/term"
)

// RunTerminal runs an interactive session on a terminal. The terminal is
// put into raw mode for line editing and command history, and restored
// when the session ends with quit or ctrl-D.
func (h *Host) RunTerminal(in *os.File, out io.Writer) error {
	fd := int(in.Fd())
	oldState, err := xterm.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer xterm.Restore(fd, oldState)

	rw := struct {
		io.Reader
		io.Writer
	}{in, out}
	t := xterm.NewTerminal(rw, "* ")

	h.output = bufio.NewWriter(t)
	h.interactive = false
	h.tty = true
	h.onSettingsUpdate()

	h.println()
	for {
		line, err := t.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if h.runCommand(line) != nil {
			return nil
		}
	}
}

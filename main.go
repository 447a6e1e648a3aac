// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/beevik/asm24/host"
	"github.com/beevik/term"
)

var (
	assemble string
	config   string
	optable  string
	verbose  bool
)

func init() {
	flag.StringVar(&assemble, "a", "", "assemble file")
	flag.StringVar(&config, "c", "", "Lua configuration script")
	flag.StringVar(&optable, "t", "", "opcode table file")
	flag.BoolVar(&verbose, "v", false, "verbose assembler output")
	flag.CommandLine.Usage = func() {
		fmt.Println("Usage: asm24 [script] ..\nOptions:")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	h := host.New()

	if config != "" {
		if err := h.LoadConfig(config); err != nil {
			exitOnError(err)
		}
	}
	if optable != "" {
		if err := h.LoadOpTable(optable); err != nil {
			exitOnError(err)
		}
	}
	if verbose {
		h.Set("verbose", "true")
	}

	// Do command-line assemble if requested.
	if assemble != "" {
		err := h.AssembleFile(assemble)
		if err != nil {
			fmt.Printf("Failed to assemble file '%s'.\n", assemble)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Run commands contained in command-line files.
	args := flag.Args()
	if len(args) > 0 {
		for _, filename := range args {
			file, err := os.Open(filename)
			if err != nil {
				exitOnError(err)
			}
			h.RunCommands(file, os.Stdout, false)
			file.Close()
		}
	}

	// Run commands interactively.
	if term.IsTerminal(int(os.Stdin.Fd())) {
		if err := h.RunTerminal(os.Stdin, os.Stdout); err == nil {
			return
		}
	}
	h.RunCommands(os.Stdin, os.Stdout, true)
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}

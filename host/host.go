// Copyright 2018 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host allows you to create a "host" that drives the two-pass
// assembler interactively or from scripts.
//
// Within the host it is possible to assemble files to object code, run
// each assembler pass separately, inspect the symbol and relocation tables,
// load and display opcode tables, analyze a program's addressing modes, and
// configure the assembler from Lua scripts.
package host

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/beevik/asm24/asm"
	"github.com/beevik/asm24/disasm"
	"github.com/beevik/cmd"
	"github.com/beevik/term"
	"github.com/logrusorgru/aurora"
)

var errQuit = errors.New("Exiting program")

// A Host holds an assembler, the state of the last translation, and the
// settings used to drive it.
type Host struct {
	input       *bufio.Scanner
	output      *bufio.Writer
	interactive bool
	tty         bool // output is a terminal
	asm         *asm.Assembler
	lastCmd     *cmd.Selection
	settings    *settings
	color       aurora.Aurora
	ctx         *asm.Context // translation context of the last first pass
	obj         *asm.Object  // object code of the last second pass
}

// New creates a new assembler host. Output goes to stdout until
// RunCommands or RunTerminal is called.
func New() *Host {
	h := &Host{
		output:   bufio.NewWriter(os.Stdout),
		settings: newSettings(),
	}
	h.asm = asm.New(hostWriter{h}, 0)
	h.tty = term.IsTerminal(int(os.Stdout.Fd()))
	h.onSettingsUpdate()
	return h
}

// Route assembler output through the host's buffered output.
type hostWriter struct {
	h *Host
}

func (w hostWriter) Write(p []byte) (int, error) {
	n, err := w.h.write(p)
	w.h.flush()
	return n, err
}

// RunCommands accepts host commands from a reader and outputs the results
// to a writer. If the commands are interactive, a prompt is displayed while
// the host waits for the the next command to be entered.
func (h *Host) RunCommands(r io.Reader, w io.Writer, interactive bool) {
	h.input = bufio.NewScanner(r)
	h.output = bufio.NewWriter(w)
	h.interactive = interactive
	h.tty = false
	if f, ok := w.(*os.File); ok {
		h.tty = term.IsTerminal(int(f.Fd()))
	}
	h.onSettingsUpdate()

	if interactive {
		h.println()
	}

	for {
		h.prompt()

		line, err := h.getLine()
		if err != nil {
			break
		}

		if h.runCommand(line) != nil {
			break
		}
	}
}

// Look up and run a single command line. An empty line repeats the last
// command. The only error returned is errQuit.
func (h *Host) runCommand(line string) error {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "#") {
		return nil
	}

	var c cmd.Selection
	if line != "" {
		var err error
		c, err = cmds.Lookup(line)
		switch {
		case err == cmd.ErrNotFound:
			h.println("Command not found.")
			return nil
		case err == cmd.ErrAmbiguous:
			h.println("Command is ambiguous.")
			return nil
		case err != nil:
			h.printf("ERROR: %v.\n", err)
			return nil
		}
	} else if h.lastCmd != nil {
		c = *h.lastCmd
	}

	if c.Command == nil {
		return nil
	}

	cm, ok := c.Command.Data.(*command)
	if !ok {
		// A subtree was selected without one of its commands.
		h.displayCommands(findCommands(line + " "))
		return nil
	}
	h.lastCmd = &c

	return cm.handler(h, c)
}

// AssembleFile assembles a file and saves the resulting object code and
// source map next to it.
func (h *Host) AssembleFile(filename string) error {
	filename = withExt(filename, h.settings.SourceExt)

	src, err := h.readSource(filename)
	if err != nil {
		return err
	}

	ctx, obj, err := h.asm.Assemble(src)
	if err != nil {
		h.printf("Failed to assemble '%s'.\n", filepath.Base(filename))
		h.displayError(err)
		return err
	}
	h.ctx, h.obj = ctx, obj

	if err := h.asm.Save(filename, ctx, obj); err != nil {
		h.printf("Failed to save object code: %v\n", err)
		return err
	}
	return nil
}

// Set changes the value of a setting. Keys may be abbreviated to any
// unique prefix.
func (h *Host) Set(key, value string) error {
	err := h.applySetting(key, value)
	h.onSettingsUpdate()
	return err
}

// LoadOpTable replaces the assembler's opcode table with the one stored
// in a text file.
func (h *Host) LoadOpTable(filename string) error {
	b, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	specs, err := asm.ParseOpTable(string(b))
	if err != nil {
		return err
	}
	return h.asm.SetOpTable(specs)
}

func (h *Host) applySetting(key, value string) error {
	var err error
	switch h.settings.Kind(key) {
	case reflect.Invalid:
		err = fmt.Errorf("setting '%s' not found", key)
	case reflect.String:
		if h.settings.Name(key) == "Addressing" {
			var m asm.AddressingMode
			if m, err = asm.ParseAddressingMode(value); err == nil {
				value = m.String()
			}
		}
		if err == nil {
			err = h.settings.Set(key, value)
		}
	case reflect.Bool:
		var v bool
		v, err = stringToBool(value)
		if err == nil {
			err = h.settings.Set(key, v)
		}
	default:
		var v int
		v, err = asm.ParseNumber(value)
		if err == nil {
			err = h.settings.Set(key, v)
		}
	}
	return err
}

func (h *Host) onSettingsUpdate() {
	h.color = aurora.NewAurora(h.settings.Color && h.tty)

	var options asm.Option
	if h.settings.Verbose {
		options |= asm.Verbose
	}
	h.asm.SetOptions(options)
}

func (h *Host) write(p []byte) (n int, err error) {
	return h.output.Write(p)
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintf(h.output, format, args...)
	h.flush()
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
	h.flush()
}

func (h *Host) flush() {
	h.output.Flush()
}

func (h *Host) getLine() (string, error) {
	if h.input.Scan() {
		return h.input.Text(), nil
	}
	if h.input.Err() != nil {
		return "", h.input.Err()
	}
	return "", io.EOF
}

func (h *Host) prompt() {
	if h.interactive {
		h.printf("* ")
		h.flush()
	}
}

func (h *Host) readSource(filename string) (string, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		h.printf("Failed to open '%s': %v\n", filepath.Base(filename), err)
		return "", err
	}
	src := string(b)

	if h.settings.LintOnAssemble {
		h.lint(src)
	}
	return src, nil
}

// Report addressing violations against the required addressing mode. The
// report is advisory and never stops assembly.
func (h *Host) lint(src string) {
	required, err := asm.ParseAddressingMode(h.settings.Addressing)
	if err != nil {
		return
	}
	lines, err := asm.Split(src)
	if err != nil {
		return
	}
	for _, v := range h.asm.OpTable().CheckAddressing(lines, required) {
		h.println(h.color.Brown("warning: " + v.String()).String())
	}
}

func (h *Host) cmdAssembleFile(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	if len(c.Args) >= 2 {
		verbose, err := stringToBool(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		if verbose {
			h.asm.SetOptions(h.asm.Options() | asm.Verbose)
			defer h.onSettingsUpdate()
		}
	}

	h.AssembleFile(c.Args[0])
	return nil
}

func (h *Host) cmdAssembleSource(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	filename := withExt(c.Args[0], h.settings.SourceExt)
	src, err := h.readSource(filename)
	if err != nil {
		return nil
	}

	ctx, obj, err := h.asm.Assemble(src)
	if err != nil {
		h.displayError(err)
		return nil
	}
	h.ctx, h.obj = ctx, obj
	h.displayRecords(obj)
	return nil
}

func (h *Host) cmdPass1(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	filename := withExt(c.Args[0], h.settings.SourceExt)
	src, err := h.readSource(filename)
	if err != nil {
		return nil
	}

	ctx, err := h.asm.FirstPass(src)
	if err != nil {
		h.displayError(err)
		return nil
	}
	h.ctx, h.obj = ctx, nil

	for _, line := range ctx.Intermediate() {
		h.println(line)
	}
	h.printf("First pass complete: %d bytes, %d symbols.\n", ctx.Length(), ctx.Symbols().Len())
	return nil
}

func (h *Host) cmdPass2(c cmd.Selection) error {
	if h.ctx == nil {
		h.println("No intermediate code. Run pass1 first.")
		return nil
	}

	obj, err := h.ctx.SecondPass(h.ctx.Intermediate())
	if err != nil {
		h.displayError(err)
		return nil
	}
	h.obj = obj
	h.displayRecords(obj)
	return nil
}

func (h *Host) cmdSymbols(c cmd.Selection) error {
	if h.ctx == nil {
		h.println("No symbol table. Run pass1 first.")
		return nil
	}

	symbols := h.ctx.Symbols().Symbols()
	if len(symbols) == 0 {
		h.println("No symbols.")
		return nil
	}

	h.println("Label      Addr")
	h.println("---------- ------")
	for _, s := range symbols {
		h.printf("%s %06X\n", h.color.Cyan(fmt.Sprintf("%-10s", s.Name)).String(), s.Address)
	}
	return nil
}

func (h *Host) cmdRelocations(c cmd.Selection) error {
	if h.obj == nil {
		h.println("No relocation table. Run pass2 first.")
		return nil
	}

	relocs := h.ctx.Relocations()
	if len(relocs) == 0 {
		h.println("No relocations.")
		return nil
	}
	for _, addr := range relocs {
		h.printf("%06X\n", addr)
	}
	return nil
}

func (h *Host) cmdDisassemble(c cmd.Selection) error {
	obj := h.obj
	var symbols []asm.Symbol
	if h.ctx != nil {
		symbols = h.ctx.Symbols().Symbols()
	}

	if len(c.Args) > 0 {
		filename := withExt(c.Args[0], ".obj")
		var err error
		obj, symbols, err = loadObject(filename)
		if err != nil {
			h.printf("Failed to load '%s': %v\n", filepath.Base(filename), err)
			return nil
		}
	}
	if obj == nil {
		h.println("No object code. Run pass2 or specify an object file.")
		return nil
	}

	d := disasm.New(h.asm.OpTable(), symbols)
	for _, r := range obj.Records {
		if r.Type != 'T' {
			continue
		}
		addr, line, err := d.Disassemble(r)
		if err != nil {
			h.displayError(err)
			continue
		}
		code := strings.Join(r.Fields[1:], " ")
		h.printf("%06X  %-20s %s\n", addr, code, h.color.Green(line).String())
	}
	return nil
}

// Read an object file and the symbols from its source map, if there is
// one.
func loadObject(filename string) (*asm.Object, []asm.Symbol, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	obj := &asm.Object{}
	if _, err := obj.ReadFrom(file); err != nil {
		return nil, nil, err
	}

	ext := filepath.Ext(filename)
	mapFile, err := os.Open(filename[:len(filename)-len(ext)] + ".map")
	if err != nil {
		return obj, nil, nil
	}
	defer mapFile.Close()

	var m asm.SourceMap
	if _, err := m.ReadFrom(mapFile); err != nil {
		return nil, nil, err
	}
	return obj, m.Symbols, nil
}

func (h *Host) cmdOpcodesList(c cmd.Selection) error {
	h.println("Name       Code Len")
	h.println("---------- ---- ---")
	for _, line := range strings.SplitAfter(h.asm.OpTable().String(), "\n") {
		if line == "" {
			continue
		}
		h.printf("%s", line)
	}
	return nil
}

func (h *Host) cmdOpcodesLoad(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	if err := h.LoadOpTable(c.Args[0]); err != nil {
		h.displayError(err)
		return nil
	}
	h.printf("Loaded %d commands from '%s'.\n", len(h.asm.OpTable().Commands()), filepath.Base(c.Args[0]))
	return nil
}

func (h *Host) cmdOpcodesReset(c cmd.Selection) error {
	if err := h.asm.SetOpTable(asm.DefaultSpecs()); err != nil {
		h.displayError(err)
		return nil
	}
	h.println("Opcode table reset.")
	return nil
}

func (h *Host) cmdAnalyze(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	mode := h.settings.Addressing
	if len(c.Args) >= 2 {
		mode = c.Args[1]
	}
	required, err := asm.ParseAddressingMode(mode)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	filename := withExt(c.Args[0], h.settings.SourceExt)
	b, err := os.ReadFile(filename)
	if err != nil {
		h.printf("Failed to open '%s': %v\n", filepath.Base(filename), err)
		return nil
	}
	lines, err := asm.Split(string(b))
	if err != nil {
		h.displayError(err)
		return nil
	}

	table := h.asm.OpTable()
	used := table.DetermineAddressing(lines)
	h.printf("Addressing used: %s. %s\n", used, used.Description())

	violations := table.CheckAddressing(lines, required)
	if len(violations) == 0 {
		h.printf("No violations of %s addressing.\n", required)
		return nil
	}
	for _, v := range violations {
		h.println(h.color.Red(v.String()).String())
	}
	return nil
}

func (h *Host) cmdConfigLoad(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	if err := h.LoadConfig(c.Args[0]); err != nil {
		h.displayError(err)
		return nil
	}
	h.println("Configuration loaded.")
	return nil
}

func (h *Host) cmdExecute(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	file, err := os.Open(c.Args[0])
	if err != nil {
		h.printf("Failed to open '%s': %v\n", filepath.Base(c.Args[0]), err)
		return nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "" {
			continue
		}
		if err := h.runCommand(scanner.Text()); err != nil {
			return err
		}
	}
	return nil
}

func (h *Host) cmdReset(c cmd.Selection) error {
	h.ctx, h.obj = nil, nil
	h.lastCmd = nil
	h.println("Translation state cleared.")
	return nil
}

func (h *Host) cmdSet(c cmd.Selection) error {
	switch len(c.Args) {
	case 0:
		h.println("Variables:")
		h.settings.Display(h.output)
		h.flush()

	case 1:
		h.displayUsage(c)

	default:
		key, value := strings.ToLower(c.Args[0]), strings.Join(c.Args[1:], " ")
		if err := h.Set(key, value); err != nil {
			h.printf("%v\n", err)
		} else {
			h.println("Setting updated.")
		}
	}
	return nil
}

func (h *Host) cmdQuit(c cmd.Selection) error {
	return errQuit
}

func (h *Host) cmdHelp(c cmd.Selection) error {
	if len(c.Args) == 0 {
		h.displayCommands(commandList)
		return nil
	}

	matches := findCommands(strings.Join(c.Args, " "))
	switch len(matches) {
	case 0:
		h.println("Command not found.")
	case 1:
		d := matches[0].desc
		if d.Usage != "" {
			h.printf("Syntax: %s\n\n", d.Usage)
		}
		switch {
		case d.Description != "":
			h.printf("Description:\n%s\n\n", indentWrap(3, d.Description))
		case d.Brief != "":
			h.printf("Description:\n%s.\n\n", indentWrap(3, d.Brief))
		}
	default:
		h.displayCommands(matches)
	}
	return nil
}

func (h *Host) displayUsage(c cmd.Selection) {
	if cm, ok := c.Command.Data.(*command); ok && cm.desc.Usage != "" {
		h.printf("Syntax: %s\n", cm.desc.Usage)
	} else {
		h.println("<no help text>")
	}
}

func (h *Host) displayCommands(commands []*command) {
	h.println("Commands:")
	for _, c := range commands {
		if c.desc.Brief != "" {
			h.printf("    %-18s  %s\n", c.Path(), c.desc.Brief)
		}
	}
}

func (h *Host) displayRecords(obj *asm.Object) {
	for _, r := range obj.Records {
		s := r.String()
		switch r.Type {
		case 'H':
			s = h.color.Cyan(s).String()
		case 'T':
			s = h.color.Green(s).String()
		case 'M':
			s = h.color.Magenta(s).String()
		case 'E':
			s = h.color.Blue(s).String()
		}
		h.println(s)
	}
}

func (h *Host) displayError(err error) {
	h.println(h.color.Red(err.Error()).String())
}

// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/beevik/asm24/asm"
	"github.com/beevik/cmd"
	lua "github.com/yuin/gopher-lua"
)

// LoadConfig runs a Lua configuration script. The script may assign two
// globals:
//
//	settings = { verbose = true, addressing = "direct" }
//	opcodes  = { {"JMP", 1, 4}, {"ADD", "04", "2"} }
//
// Settings are applied by name, and names may be abbreviated. Opcode codes
// and lengths given as numbers are converted to hex; strings are taken as
// hex already. The opcode table is replaced only if every row is valid.
func (h *Host) LoadConfig(filename string) error {
	L := lua.NewState()
	defer L.Close()

	if err := L.DoFile(filename); err != nil {
		return fmt.Errorf("%s: %v", filename, err)
	}

	if t, ok := L.GetGlobal("settings").(*lua.LTable); ok {
		var err error
		t.ForEach(func(k, v lua.LValue) {
			if err == nil {
				err = h.applySetting(k.String(), v.String())
			}
		})
		h.onSettingsUpdate()
		if err != nil {
			return fmt.Errorf("%s: %v", filename, err)
		}
	}

	switch v := L.GetGlobal("opcodes").(type) {
	case *lua.LNilType:
	case *lua.LTable:
		specs, err := luaOpcodes(v)
		if err != nil {
			return fmt.Errorf("%s: %v", filename, err)
		}
		if err := h.asm.SetOpTable(specs); err != nil {
			return fmt.Errorf("%s: %v", filename, err)
		}
	default:
		return fmt.Errorf("%s: opcodes must be a table, got %s", filename, v.Type())
	}
	return nil
}

func luaOpcodes(t *lua.LTable) ([]asm.CommandSpec, error) {
	specs := make([]asm.CommandSpec, 0, t.Len())
	for i := 1; i <= t.Len(); i++ {
		row, ok := t.RawGetInt(i).(*lua.LTable)
		if !ok || row.Len() != 3 {
			return nil, fmt.Errorf("opcodes[%d] must be a table of 3 values (name code length)", i)
		}

		var fields [3]string
		for j := range fields {
			switch v := row.RawGetInt(j + 1).(type) {
			case lua.LString:
				fields[j] = string(v)
			case lua.LNumber:
				fields[j] = fmt.Sprintf("%X", int(v))
			default:
				return nil, fmt.Errorf("opcodes[%d][%d] must be a string or a number", i, j+1)
			}
		}
		specs = append(specs, asm.CommandSpec{Name: fields[0], Code: fields[1], Length: fields[2]})
	}
	return specs, nil
}

func (h *Host) cmdConfigDump(c cmd.Selection) error {
	h.println("settings = {")
	for _, f := range settingsFields {
		h.printf("    %s = %s,\n", f.name, luaValue(h.settings, f))
	}
	h.println("}")

	h.println("opcodes = {")
	for _, s := range h.asm.OpTable().Specs() {
		h.printf("    {%q, %q, %q},\n", s.Name, s.Code, s.Length)
	}
	h.println("}")
	return nil
}

func luaValue(s *settings, f settingsField) string {
	v := reflect.ValueOf(s).Elem().Field(f.index)
	if f.kind == reflect.String {
		return strconv.Quote(v.String())
	}
	return fmt.Sprint(v.Interface())
}

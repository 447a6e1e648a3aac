package host

import (
	"strings"

	"github.com/beevik/cmd"
	"github.com/beevik/prefixtree/v2"
)

// A command pairs a command descriptor with the host function that handles
// it. The descriptor's Data field points back at the command.
type command struct {
	tree    string // name of the subtree holding the command, if any
	desc    cmd.CommandDescriptor
	handler func(*Host, cmd.Selection) error
}

// Path returns the command's full name, e.g. "opcodes load".
func (c *command) Path() string {
	if c.tree == "" {
		return c.desc.Name
	}
	return c.tree + " " + c.desc.Name
}

var (
	cmds        *cmd.Tree
	commandList []*command
	helpTree    = prefixtree.New[*command]()
)

func init() {
	commandList = []*command{
		{
			desc: cmd.CommandDescriptor{
				Name:        "help",
				Description: "Display help for a command.",
				Usage:       "help [<command>]",
			},
			handler: (*Host).cmdHelp,
		},
		{
			tree: "assemble",
			desc: cmd.CommandDescriptor{
				Name:  "file",
				Brief: "Assemble a file and save the object code",
				Description: "Run both assembler passes on the specified file," +
					" producing an object file and a source map file if" +
					" successful. If you want verbose output, specify true as a" +
					" second parameter.",
				Usage: "assemble file <filename> [<verbose>]",
			},
			handler: (*Host).cmdAssembleFile,
		},
		{
			tree: "assemble",
			desc: cmd.CommandDescriptor{
				Name:  "source",
				Brief: "Assemble a file and display the object code",
				Description: "Run both assembler passes on the specified file" +
					" and display the resulting object records without saving" +
					" them.",
				Usage: "assemble source <filename>",
			},
			handler: (*Host).cmdAssembleSource,
		},
		{
			desc: cmd.CommandDescriptor{
				Name:  "pass1",
				Brief: "Run the first pass",
				Description: "Run the first assembler pass on the specified file" +
					" and display the intermediate code. The symbol table and" +
					" intermediate code are kept for the second pass.",
				Usage: "pass1 <filename>",
			},
			handler: (*Host).cmdPass1,
		},
		{
			desc: cmd.CommandDescriptor{
				Name:  "pass2",
				Brief: "Run the second pass",
				Description: "Run the second assembler pass on the intermediate" +
					" code produced by the last first pass and display the" +
					" object records.",
				Usage: "pass2",
			},
			handler: (*Host).cmdPass2,
		},
		{
			desc: cmd.CommandDescriptor{
				Name:        "symbols",
				Brief:       "Display the symbol table",
				Description: "Display the symbol table built by the last first pass.",
				Usage:       "symbols",
			},
			handler: (*Host).cmdSymbols,
		},
		{
			desc: cmd.CommandDescriptor{
				Name:  "relocations",
				Brief: "Display the relocation table",
				Description: "Display the addresses of all directly addressed" +
					" instructions found by the last second pass.",
				Usage: "relocations",
			},
			handler: (*Host).cmdRelocations,
		},
		{
			desc: cmd.CommandDescriptor{
				Name:  "disassemble",
				Brief: "Disassemble object code",
				Description: "Decode the text records of an object file back into" +
					" assembly code. Without a filename, the object code of the" +
					" last second pass is used. Symbols are read from the" +
					" object file's source map when it exists.",
				Usage: "disassemble [<filename>]",
			},
			handler: (*Host).cmdDisassemble,
		},
		{
			tree: "opcodes",
			desc: cmd.CommandDescriptor{
				Name:        "list",
				Brief:       "List the opcode table",
				Description: "Display the current opcode table in its text form.",
				Usage:       "opcodes list",
			},
			handler: (*Host).cmdOpcodesList,
		},
		{
			tree: "opcodes",
			desc: cmd.CommandDescriptor{
				Name:  "load",
				Brief: "Load an opcode table",
				Description: "Load an opcode table from a text file. Each row" +
					" holds a command name, a hexadecimal code and a" +
					" hexadecimal length. The current table is replaced only" +
					" if the whole file is valid.",
				Usage: "opcodes load <filename>",
			},
			handler: (*Host).cmdOpcodesLoad,
		},
		{
			tree: "opcodes",
			desc: cmd.CommandDescriptor{
				Name:        "reset",
				Brief:       "Restore the default opcode table",
				Description: "Replace the current opcode table with the built-in one.",
				Usage:       "opcodes reset",
			},
			handler: (*Host).cmdOpcodesReset,
		},
		{
			desc: cmd.CommandDescriptor{
				Name:  "analyze",
				Brief: "Analyze a file's addressing",
				Description: "Determine which addressing modes a source file uses" +
					" and report every line that violates the required" +
					" addressing mode. The required mode is taken from the" +
					" second parameter or from the addressing setting.",
				Usage: "analyze <filename> [direct|relative|mixed]",
			},
			handler: (*Host).cmdAnalyze,
		},
		{
			tree: "config",
			desc: cmd.CommandDescriptor{
				Name:  "load",
				Brief: "Run a Lua configuration script",
				Description: "Run a Lua script that may assign a settings table" +
					" and an opcodes table. Settings are applied by name and" +
					" the opcode table replaces the current one.",
				Usage: "config load <filename>",
			},
			handler: (*Host).cmdConfigLoad,
		},
		{
			tree: "config",
			desc: cmd.CommandDescriptor{
				Name:  "dump",
				Brief: "Display the configuration as a Lua script",
				Description: "Display the current settings and opcode table as a" +
					" Lua script that config load accepts.",
				Usage: "config dump",
			},
			handler: (*Host).cmdConfigDump,
		},
		{
			desc: cmd.CommandDescriptor{
				Name:  "execute",
				Brief: "Execute a script file",
				Description: "Load a script file from disk and execute the" +
					" commands it contains.",
				Usage: "execute <filename>",
			},
			handler: (*Host).cmdExecute,
		},
		{
			desc: cmd.CommandDescriptor{
				Name:  "reset",
				Brief: "Discard the translation state",
				Description: "Discard the symbol table, intermediate code and" +
					" object code of the last translation.",
				Usage: "reset",
			},
			handler: (*Host).cmdReset,
		},
		{
			desc: cmd.CommandDescriptor{
				Name:  "set",
				Brief: "Set a configuration variable",
				Description: "Set the value of a configuration variable. To see" +
					" the current values of all configuration variables, type" +
					" set without any arguments.",
				Usage: "set [<var> <value>]",
			},
			handler: (*Host).cmdSet,
		},
		{
			desc: cmd.CommandDescriptor{
				Name:        "quit",
				Brief:       "Quit the program",
				Description: "Quit the program.",
				Usage:       "quit",
			},
			handler: (*Host).cmdQuit,
		},
	}

	root := cmd.NewTree(cmd.TreeDescriptor{Name: "asm24"})
	as := root.AddSubtree(cmd.TreeDescriptor{Name: "assemble", Brief: "Assemble commands"})
	op := root.AddSubtree(cmd.TreeDescriptor{Name: "opcodes", Brief: "Opcode table commands"})
	cf := root.AddSubtree(cmd.TreeDescriptor{Name: "config", Brief: "Configuration commands"})

	for _, c := range commandList {
		c.desc.Data = c
		switch c.tree {
		case "assemble":
			as.AddCommand(c.desc)
		case "opcodes":
			op.AddCommand(c.desc)
		case "config":
			cf.AddCommand(c.desc)
		default:
			root.AddCommand(c.desc)
		}
		helpTree.Add(c.Path(), c)
	}

	root.AddShortcut("a", "assemble file")
	root.AddShortcut("as", "assemble source")
	root.AddShortcut("p1", "pass1")
	root.AddShortcut("p2", "pass2")
	root.AddShortcut("d", "disassemble")
	root.AddShortcut("o", "opcodes list")
	root.AddShortcut("ol", "opcodes load")
	root.AddShortcut("c", "config load")
	root.AddShortcut("q", "quit")
	root.AddShortcut("?", "help")

	cmds = root
}

// Find the commands whose full names begin with the given prefix.
func findCommands(prefix string) []*command {
	prefix = strings.ToLower(prefix)
	if c, err := helpTree.FindValue(prefix); err == nil {
		return []*command{c}
	}

	var matches []*command
	for _, c := range commandList {
		if strings.HasPrefix(c.Path(), prefix) {
			matches = append(matches, c)
		}
	}
	return matches
}

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chazu/tinyvm/bytecode"
	"github.com/chazu/tinyvm/vm"
)

// handleDisasmCommand processes the `tvm disasm` subcommand. The sidecar
// next to the program image (demo.tvd for demo.tvp) is used for label
// annotations when present.
func handleDisasmCommand(args []string) {
	fs := flag.NewFlagSet("disasm", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: disasm requires exactly one program file")
		os.Exit(1)
	}
	programPath := fs.Arg(0)

	program, err := bytecode.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var dbg *bytecode.DebugInfo
	debugPath := replaceExt(programPath, ".tvd")
	if d, err := bytecode.LoadDebugInfo(debugPath); err == nil {
		dbg = d
	} else {
		log.Debugf("no debug info: %v", err)
	}

	machine := vm.NewBlank()
	listing, err := machine.Disassemble(program, dbg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", programPath, err)
		os.Exit(1)
	}

	fmt.Print(listing)
}

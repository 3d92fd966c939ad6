package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chazu/tinyvm/bytecode"
	"github.com/chazu/tinyvm/vm"
)

// handleRunCommand processes the `tvm run` subcommand.
// Usage:
//
//	tvm run demo.tvp
//	tvm -v run demo.tvp -trace
func handleRunCommand(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	trace := fs.Bool("trace", false, "Log every instruction before dispatch")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: run requires exactly one program file")
		os.Exit(1)
	}
	programPath := fs.Arg(0)

	program, err := bytecode.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	machine := vm.NewBlank()
	if *trace {
		machine.Trace = func(addr int64, op vm.Operation, args []bytecode.Value) {
			log.Infof("@%d %s %s", addr, op.Mnemonic, renderArgs(op, args))
		}
	}

	if err := machine.Start(program); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", programPath, err)
		os.Exit(1)
	}
}

// renderArgs renders an instruction's declared arguments for trace output.
func renderArgs(op vm.Operation, args []bytecode.Value) string {
	var parts []string
	for i := 0; i < len(args) && op.Params[i] != vm.ParamNone; i++ {
		parts = append(parts, args[i].String())
	}
	return strings.Join(parts, ", ")
}

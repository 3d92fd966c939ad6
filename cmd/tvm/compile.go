package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chazu/tinyvm/asm"
	"github.com/chazu/tinyvm/vm"
)

// handleCompileCommand processes the `tvm compile` subcommand.
// Usage:
//
//	tvm compile demo.tva                  # writes demo.tvp
//	tvm compile demo.tva -o out.tvp -debug-info
func handleCompileCommand(args []string) {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	output := fs.String("o", "", "Output program path (default: source with .tvp)")
	debugInfo := fs.Bool("debug-info", false, "Write the .tvd debug sidecar next to the output")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: compile requires exactly one source file")
		os.Exit(1)
	}
	sourcePath := fs.Arg(0)

	source, err := os.ReadFile(sourcePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	machine := vm.NewBlank()
	assembler := asm.New(machine.Operations())

	program, err := assembler.Assemble(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", sourcePath, err)
		os.Exit(1)
	}

	outputPath := *output
	if outputPath == "" {
		outputPath = replaceExt(sourcePath, ".tvp")
	}

	if err := program.Save(outputPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log.Infof("compiled %s to %s (%d instructions)", sourcePath, outputPath, program.InstructionCount())

	if *debugInfo {
		debugPath := replaceExt(outputPath, ".tvd")
		if err := assembler.Debug().Save(debugPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		log.Infof("wrote debug info to %s", debugPath)
	}
}

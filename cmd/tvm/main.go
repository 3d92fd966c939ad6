// TinyVM CLI - compiles, runs and inspects TinyVM programs
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("tvm")

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	veryVerbose := flag.Bool("vv", false, "Very verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tvm [options] <command> [arguments]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  compile <source.tva>   Assemble a source file into a program image\n")
		fmt.Fprintf(os.Stderr, "  run <program.tvp>      Load a program image and execute it\n")
		fmt.Fprintf(os.Stderr, "  disasm <program.tvp>   Print a listing of a program image\n")
		fmt.Fprintf(os.Stderr, "  build                  Compile the project described by tinyvm.toml\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tvm compile demo.tva -o demo.tvp -debug-info\n")
		fmt.Fprintf(os.Stderr, "  tvm -v run demo.tvp -trace\n")
		fmt.Fprintf(os.Stderr, "  tvm disasm demo.tvp\n")
		fmt.Fprintf(os.Stderr, "  tvm build\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 1
	}
	if *veryVerbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	switch args[0] {
	case "compile":
		handleCompileCommand(args[1:])
	case "run":
		handleRunCommand(args[1:])
	case "disasm":
		handleDisasmCommand(args[1:])
	case "build":
		handleBuildCommand(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", args[0])
		flag.Usage()
		os.Exit(1)
	}
}

// replaceExt swaps the extension of path, appending when there is none.
func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

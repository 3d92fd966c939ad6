package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"github.com/chazu/tinyvm/asm"
	"github.com/chazu/tinyvm/cache"
	"github.com/chazu/tinyvm/manifest"
	"github.com/chazu/tinyvm/vm"
)

// handleBuildCommand processes the `tvm build` subcommand: compile the
// project described by the nearest tinyvm.toml, going through the compile
// cache when the manifest enables one.
// Usage:
//
//	tvm build
//	tvm build -f path/to/tinyvm.toml
func handleBuildCommand(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	manifestPath := fs.String("f", "", "Manifest file (default: nearest tinyvm.toml)")
	fs.Parse(args)

	var m *manifest.Manifest
	var err error
	if *manifestPath != "" {
		m, err = manifest.LoadFile(*manifestPath)
	} else {
		m, err = manifest.FindAndLoad(".")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}
	if m == nil {
		fmt.Fprintln(os.Stderr, "Error: no tinyvm.toml found")
		os.Exit(1)
	}

	source, err := os.ReadFile(m.EntryPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	machine := vm.NewBlank()
	key := cache.Key(source, machine.Fingerprint())

	var store *cache.Cache
	if path := m.CachePath(); path != "" {
		store, err = cache.Open(path)
		if err != nil {
			// A broken cache degrades to a full compile.
			log.Warningf("cache unavailable: %v", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	if store != nil {
		image, hit, err := store.Get(key)
		if err != nil {
			log.Warningf("cache lookup failed: %v", err)
		} else if hit {
			// A hit reuses whatever sidecar the previous build left behind.
			if err := os.WriteFile(m.OutputPath(), image, 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			log.Infof("cache hit, wrote %s", m.OutputPath())
			return
		}
	}

	assembler := asm.New(machine.Operations())
	program, err := assembler.Assemble(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", m.EntryPath(), err)
		os.Exit(1)
	}

	var image bytes.Buffer
	if err := program.SaveTo(&image); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(m.OutputPath(), image.Bytes(), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log.Infof("compiled %s to %s (%d instructions)", m.EntryPath(), m.OutputPath(), program.InstructionCount())

	if m.WriteDebugInfo() {
		if err := assembler.Debug().Save(m.DebugPath()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if store != nil {
		if err := store.Put(key, image.Bytes()); err != nil {
			log.Warningf("cache store failed: %v", err)
		}
	}
}

// Package manifest handles tinyvm.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file name looked up in a project directory.
const FileName = "tinyvm.toml"

// Manifest represents a tinyvm.toml project configuration.
type Manifest struct {
	Project Project `toml:"project"`
	Build   Build   `toml:"build"`

	// Dir is the directory containing the tinyvm.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Build configures how the project's assembly source is compiled.
type Build struct {
	Entry     string  `toml:"entry"`
	Output    string  `toml:"output"`
	DebugInfo *bool   `toml:"debug-info"`
	Cache     *string `toml:"cache"`
}

// Load parses a tinyvm.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile parses a manifest from the given file path, whatever its name.
// Derived paths resolve relative to the file's directory.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	// Defaults
	if m.Build.Entry == "" {
		m.Build.Entry = "main.tva"
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a tinyvm.toml file, then loads
// and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// EntryPath returns the absolute path of the assembly source entry point.
func (m *Manifest) EntryPath() string {
	return filepath.Join(m.Dir, m.Build.Entry)
}

// OutputPath returns the absolute path of the program image to write. It
// defaults to the entry path with a .tvp extension.
func (m *Manifest) OutputPath() string {
	if m.Build.Output != "" {
		return filepath.Join(m.Dir, m.Build.Output)
	}
	return replaceExt(m.EntryPath(), ".tvp")
}

// DebugPath returns the path of the debug sidecar next to the output image.
func (m *Manifest) DebugPath() string {
	return replaceExt(m.OutputPath(), ".tvd")
}

// WriteDebugInfo reports whether the build should write the debug sidecar.
// The default is true.
func (m *Manifest) WriteDebugInfo() bool {
	return m.Build.DebugInfo == nil || *m.Build.DebugInfo
}

// CachePath returns the absolute path of the compile cache database, or ""
// when caching is disabled (cache = "" in the manifest). The default is
// .tinyvm/cache.db under the manifest directory.
func (m *Manifest) CachePath() string {
	if m.Build.Cache == nil {
		return filepath.Join(m.Dir, ".tinyvm", "cache.db")
	}
	if *m.Build.Cache == "" {
		return ""
	}
	return filepath.Join(m.Dir, *m.Build.Cache)
}

// replaceExt swaps the extension of path, appending when there is none.
func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

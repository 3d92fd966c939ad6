package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "demo"
version = "0.1.0"

[build]
entry = "src/demo.tva"
output = "out/demo.tvp"
debug-info = false
cache = "build-cache.db"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if m.Project.Name != "demo" {
		t.Errorf("Project.Name = %q, want %q", m.Project.Name, "demo")
	}
	if m.Project.Version != "0.1.0" {
		t.Errorf("Project.Version = %q, want %q", m.Project.Version, "0.1.0")
	}
	if m.EntryPath() != filepath.Join(dir, "src", "demo.tva") {
		t.Errorf("EntryPath() = %q", m.EntryPath())
	}
	if m.OutputPath() != filepath.Join(dir, "out", "demo.tvp") {
		t.Errorf("OutputPath() = %q", m.OutputPath())
	}
	if m.DebugPath() != filepath.Join(dir, "out", "demo.tvd") {
		t.Errorf("DebugPath() = %q", m.DebugPath())
	}
	if m.WriteDebugInfo() {
		t.Error("WriteDebugInfo() = true, want false")
	}
	if m.CachePath() != filepath.Join(dir, "build-cache.db") {
		t.Errorf("CachePath() = %q", m.CachePath())
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "minimal"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if m.Build.Entry != "main.tva" {
		t.Errorf("Build.Entry = %q, want %q", m.Build.Entry, "main.tva")
	}
	if m.OutputPath() != filepath.Join(dir, "main.tvp") {
		t.Errorf("OutputPath() = %q, want entry with .tvp", m.OutputPath())
	}
	if !m.WriteDebugInfo() {
		t.Error("WriteDebugInfo() = false, want true by default")
	}
	if m.CachePath() != filepath.Join(dir, ".tinyvm", "cache.db") {
		t.Errorf("CachePath() = %q, want the default", m.CachePath())
	}
}

func TestLoadFileCustomName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "other.toml")
	if err := os.WriteFile(path, []byte(`
[project]
name = "custom"

[build]
entry = "src/demo.tva"
`), 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}

	m, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if m.Project.Name != "custom" {
		t.Errorf("Project.Name = %q, want %q", m.Project.Name, "custom")
	}
	if m.EntryPath() != filepath.Join(dir, "src", "demo.tva") {
		t.Errorf("EntryPath() = %q, want it resolved against the file's directory", m.EntryPath())
	}
}

func TestLoadCacheDisabled(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[build]
cache = ""
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m.CachePath() != "" {
		t.Errorf("CachePath() = %q, want \"\" (disabled)", m.CachePath())
	}
}

func TestLoadToleratesUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "demo"
future-key = "ignored"
`)

	if _, err := Load(dir); err != nil {
		t.Errorf("Load() error = %v, want unknown keys tolerated", err)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load() of an empty directory succeeded, want error")
	}
}

func TestFindAndLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `
[project]
name = "above"
`)

	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	m, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad() error = %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad() = nil, want the manifest two levels up")
	}
	if m.Project.Name != "above" {
		t.Errorf("Project.Name = %q, want %q", m.Project.Name, "above")
	}
}

func TestFindAndLoadAbsent(t *testing.T) {
	m, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatalf("FindAndLoad() error = %v", err)
	}
	if m != nil {
		t.Errorf("FindAndLoad() = %+v, want nil when no manifest exists", m)
	}
}

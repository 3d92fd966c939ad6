package bytecode

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode is the CBOR encoding mode for debug sidecars, canonical for
// deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// DebugInfo is the optional sidecar the assembler produces next to a program
// image: the label table and the source line of each instruction. By
// convention a program saved as x.tvp has its sidecar at x.tvd.
type DebugInfo struct {
	// Labels maps label names to 1-based instruction addresses.
	Labels map[string]int64 `cbor:"labels"`

	// Lines holds the 1-based source line of each instruction, indexed by
	// zero-based instruction position.
	Lines []int64 `cbor:"lines"`
}

// Marshal serializes the debug info to CBOR bytes.
func (d *DebugInfo) Marshal() ([]byte, error) {
	return cborEncMode.Marshal(d)
}

// UnmarshalDebugInfo deserializes debug info from CBOR bytes.
func UnmarshalDebugInfo(data []byte) (*DebugInfo, error) {
	var d DebugInfo
	if err := cbor.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal debug info: %w", err)
	}
	return &d, nil
}

// Save writes the debug sidecar to the given file path.
func (d *DebugInfo) Save(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return fmt.Errorf("bytecode: marshal debug info: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}

// LoadDebugInfo reads a debug sidecar from the given file path.
func LoadDebugInfo(path string) (*DebugInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return UnmarshalDebugInfo(data)
}

// LabelAt returns a label bound to the given 1-based instruction address.
// When several labels share an address the lexicographically smallest name
// is returned, so listings are deterministic.
func (d *DebugInfo) LabelAt(addr int64) (string, bool) {
	name := ""
	found := false
	for label, labelAddr := range d.Labels {
		if labelAddr != addr {
			continue
		}
		if !found || label < name {
			name = label
			found = true
		}
	}
	return name, found
}

// LineAt returns the source line of the instruction at the given 1-based
// address, or 0 when unknown.
func (d *DebugInfo) LineAt(addr int64) int64 {
	if addr < 1 || addr > int64(len(d.Lines)) {
		return 0
	}
	return d.Lines[addr-1]
}

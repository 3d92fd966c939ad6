package vm

import (
	"crypto/sha256"
	"encoding/binary"
)

// Fingerprint computes the SHA-256 content hash of the machine's operation
// table: every opcode, mnemonic and parameter signature in table order.
// Two machines with the same registered operation set produce the same
// fingerprint, so it can key caches of compiled programs. Call it after
// BuildOperationTable.
func (m *VM) Fingerprint() [32]byte {
	h := sha256.New()

	var scratch [8]byte
	for _, op := range m.table {
		binary.LittleEndian.PutUint64(scratch[:], uint64(op.Opcode))
		h.Write(scratch[:])

		binary.LittleEndian.PutUint64(scratch[:], uint64(len(op.Mnemonic)))
		h.Write(scratch[:])
		h.Write([]byte(op.Mnemonic))

		for _, p := range op.Params {
			h.Write([]byte{byte(p)})
		}
	}

	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

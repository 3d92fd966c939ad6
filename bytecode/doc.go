// Package bytecode defines the binary program format: fixed-width
// instructions, an interned string table, and the TVMP image layout used to
// save and load compiled programs.
//
// A Program owns three independently growable sections:
//
//   - code: a sequence of 40-byte instructions (opcode plus four
//     parameter slots, int64 each, little-endian)
//   - string data: the concatenated raw bytes of unique string literals
//   - string index: one (start, length) record per unique string, in
//     first-use order
//
// Instruction parameter slots are raw int64s; their meaning comes from the
// matched operation's declared parameter types: ints and addresses store
// the integer, floats store their IEEE-754 bit pattern, bools store 0 or 1,
// and identifiers and strings store a 1-based string table index.
//
// The saved image is fully self-contained; no token or source text survives
// assembly. The optional DebugInfo sidecar carries the label table and
// source line map for tooling.
package bytecode

// Package capn implements the Cap'n Proto wire format: a self-describing,
// segmented, pointer-tagged binary serialization.
//
// A Message owns a set of Segments identified by a numeric id. Objects
// (structs and lists) live at byte offsets within a segment and are
// referenced by 64-bit pointer words that select among near, far and
// double-far forms. Callers navigate an already-decoded message with Getp,
// build new objects with NewStruct/NewList/NewBitList/NewPtrList/NewString,
// and install or copy sub-graphs across segments and messages with SetPtr.
//
// This package does not generate typed accessors from schemas, does not
// perform message framing or segment I/O (the host supplies Create and
// Lookup callbacks for that), and does not implement RPC. See README-style
// notes in DESIGN.md for the rationale behind each of these boundaries.
package capn

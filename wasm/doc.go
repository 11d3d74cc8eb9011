// Package wasm provides a programmatic builder and binary encoder for
// WebAssembly modules.
//
// This package is write-only: it assembles a typed, in-memory module
// description and emits canonical WebAssembly binary according to the
// 2.0 core specification, with support for several post-2.0 proposals.
// It does not parse, decode, validate typing/stack discipline, or
// execute WebAssembly.
//
// # Supported Features
//
//	WebAssembly 2.0:
//	  - Core value types (i32, i64, f32, f64)
//	  - Functions, tables, memories, globals
//	  - Control flow, calls, local/global access
//	  - Memory and table operations
//	  - Import/export of all definitions
//
//	Post-2.0 Proposals:
//	  - GC (structs, arrays, typed references, heap types)
//	  - Exception handling (tags, try_table, throw)
//	  - Tail calls (return_call, return_call_indirect)
//	  - Threads (atomic operations, shared memory)
//	  - Bulk memory (memory.copy, memory.fill, data.drop)
//	  - Reference types (funcref, externref, ref.null, ref.is_null)
//	  - Multi-memory (multiple memory instances)
//	  - Memory64 (64-bit memory addressing)
//
// # Building a module
//
// Construct a module directly, or through the Builder convenience
// methods (NewModule, AddGlobal, ...):
//
//	b := wasm.NewModule()
//	idx, err := b.AddGlobal(wasm.MutVar, wasm.ValI32, wasm.ConstI32(0), "counter")
//
// # Encoding
//
// Emit the module as a binary blob with Encode, which never fails (it
// logs a warning through Logger for divergent-but-representable shapes):
//
//	data := module.Encode()
//
// Callers who want those shapes rejected instead of warned about, or who
// want to pass a logger or other option, use EncodeBinary directly:
//
//	data, err := wasm.EncodeBinary(module, wasm.WithStrict(true))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Encoding is all-or-nothing: a failure never returns a partial buffer.
//
// # Module Structure
//
// A Module aggregates every section kind:
//
//	module.Types      []FuncType    // Function signatures
//	module.Funcs      []uint32      // Type indices for functions
//	module.Tables     []TableType   // Table definitions
//	module.Memories   []MemoryType  // Memory definitions
//	module.Globals    []Global      // Global definitions
//	module.Imports    []Import      // Imported definitions
//	module.Exports    []Export      // Exported definitions
//	module.Code       []FuncBody    // Function bodies
//	module.Data       []DataSegment // Data segments
//	module.Elements   []Element     // Element segments
//
// Cross-section index references (a function body's local.get index, a
// call's function index, and so on) are trusted: the encoder does not
// validate them against the rest of the module. That is a caller
// invariant, not an enforced one.
//
// # Instructions
//
// Build an instruction sequence as a tagged-union slice and encode it:
//
//	code := []wasm.Instruction{
//	    {Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 0}},
//	    {Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 1}},
//	    {Opcode: wasm.OpI32Add},
//	    {Opcode: wasm.OpEnd},
//	}
//	encoded := wasm.EncodeInstructions(code)
//
// # LEB128 Encoding
//
// The package exposes its LEB128 primitives directly, since they are
// the trust root the rest of the encoder is built on:
//
//	b := wasm.EncodeLEB128u(v)   // unsigned
//	b := wasm.EncodeLEB128s(v)   // signed
package wasm

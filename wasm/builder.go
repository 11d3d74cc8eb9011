package wasm

import (
	werr "github.com/wasmgen/wasmgen/errors"
)

// Mutability classifies a global as constant or variable, mirroring the
// two-value vocabulary exposed to callers constructing modules by hand.
type Mutability string

const (
	MutConst Mutability = "const"
	MutVar   Mutability = "var"
)

func (m Mutability) valid() bool {
	return m == MutConst || m == MutVar
}

// NewModule returns an empty Module ready for incremental construction.
func NewModule() *Module {
	return &Module{}
}

// AddGlobal appends a new global of the given mutability and value type,
// initialized by init (a constant expression, including its terminating
// OpEnd), and returns its index in the global index space (which includes
// any imported globals ahead of module-defined ones). If exportName is
// non-empty, the global is also exported under that name.
//
// AddGlobal fails with an invalid-argument error if mutability or valType
// is not one recognized by the binary format; it never partially mutates
// the module on failure.
func (m *Module) AddGlobal(mutability Mutability, valType ValType, init []Instruction, exportName string) (uint32, error) {
	if !mutability.valid() {
		return 0, werr.New(werr.PhaseBuild, werr.KindInvalidArgument).
			Path("globals", "mutability").
			Value(mutability).
			Detail("mutability must be %q or %q", MutConst, MutVar).
			Build()
	}
	if !isValidValType(valType) {
		return 0, werr.New(werr.PhaseBuild, werr.KindInvalidArgument).
			Path("globals", "valType").
			Value(valType).
			Detail("unrecognized value type 0x%02x", byte(valType)).
			Build()
	}

	idx := uint32(m.NumImportedGlobals()) + uint32(len(m.Globals))
	m.Globals = append(m.Globals, Global{
		Type: GlobalType{ValType: valType, Mutable: mutability == MutVar},
		Init: EncodeInstructions(init),
	})

	if exportName != "" {
		m.Exports = append(m.Exports, Export{Name: exportName, Kind: KindGlobal, Idx: idx})
	}

	return idx, nil
}

// AddMemory appends a new memory with the given limits and returns its
// index in the memory index space. Shared memory without a declared
// maximum is rejected at construction time with an invalid-argument
// error: the binary format can represent it (flags byte 0x02), but no
// Wasm engine accepts it, so callers are stopped here rather than at
// instantiation time in whatever consumes the encoded module.
func (m *Module) AddMemory(limits Limits) (uint32, error) {
	if limits.Shared && limits.Max == nil {
		return 0, werr.New(werr.PhaseBuild, werr.KindInvalidArgument).
			Path("memories", "limits").
			Detail("shared memory requires a declared maximum").
			Build()
	}

	idx := uint32(m.NumImportedMemories()) + uint32(len(m.Memories))
	m.Memories = append(m.Memories, MemoryType{Limits: limits})
	return idx, nil
}

// AddImportedMemory appends a memory import from moduleName/name with the
// given limits and returns its index in the memory index space. Imported
// memories are numbered ahead of module-defined ones, so this index is
// stable regardless of how many AddMemory calls follow it.
//
// As with AddMemory, shared memory without a declared maximum is rejected
// at construction time with an invalid-argument error.
func (m *Module) AddImportedMemory(moduleName, name string, limits Limits) (uint32, error) {
	if limits.Shared && limits.Max == nil {
		return 0, werr.New(werr.PhaseBuild, werr.KindInvalidArgument).
			Path("imports", "memory", "limits").
			Detail("shared memory requires a declared maximum").
			Build()
	}

	idx := uint32(m.NumImportedMemories())
	m.Imports = append(m.Imports, Import{
		Module: moduleName,
		Name:   name,
		Desc:   ImportDesc{Kind: KindMemory, Memory: &MemoryType{Limits: limits}},
	})
	return idx, nil
}

// CoalesceLocals groups a flat list of local value types into the
// run-length-encoded LocalEntry form the binary format requires, merging
// adjacent locals of the same type into a single entry.
func CoalesceLocals(types []ValType) []LocalEntry {
	if len(types) == 0 {
		return nil
	}
	entries := make([]LocalEntry, 0, len(types))
	cur := LocalEntry{ValType: types[0], Count: 1}
	for _, t := range types[1:] {
		if t == cur.ValType {
			cur.Count++
			continue
		}
		entries = append(entries, cur)
		cur = LocalEntry{ValType: t, Count: 1}
	}
	entries = append(entries, cur)
	return entries
}

// ConstI32 returns a constant expression initializing an i32 global or
// offset to v.
func ConstI32(v int32) []Instruction {
	return []Instruction{
		{Opcode: OpI32Const, Imm: I32Imm{Value: v}},
		{Opcode: OpEnd},
	}
}

// ConstI64 returns a constant expression initializing an i64 global or
// offset to v.
func ConstI64(v int64) []Instruction {
	return []Instruction{
		{Opcode: OpI64Const, Imm: I64Imm{Value: v}},
		{Opcode: OpEnd},
	}
}

// ConstF32 returns a constant expression initializing an f32 global to v.
func ConstF32(v float32) []Instruction {
	return []Instruction{
		{Opcode: OpF32Const, Imm: F32Imm{Value: v}},
		{Opcode: OpEnd},
	}
}

// ConstF64 returns a constant expression initializing an f64 global to v.
func ConstF64(v float64) []Instruction {
	return []Instruction{
		{Opcode: OpF64Const, Imm: F64Imm{Value: v}},
		{Opcode: OpEnd},
	}
}

// isValidValType reports whether vt is one of the value type bytes defined
// by the binary format, including GC/typed-reference extensions.
func isValidValType(vt ValType) bool {
	switch vt {
	case ValI32, ValI64, ValF32, ValF64, ValV128,
		ValFuncRef, ValExtern,
		ValRefNull, ValRef, ValNullFuncRef, ValNullExternRef, ValNullRef,
		ValEqRef, ValI31Ref, ValStructRef, ValArrayRef, ValAnyRef:
		return true
	default:
		return false
	}
}

// Package wat renders a wasm.Module as a syntactically plausible
// WebAssembly text format (WAT) for human inspection. It is not a parser:
// the output is not guaranteed to be re-parseable by conforming WAT
// tooling, and nothing here reads text back into a Module. The binary
// encoder in package wasm remains the authoritative interchange format.
package wat

import (
	"fmt"
	"strings"

	"github.com/wasmgen/wasmgen/wasm"
	"github.com/wasmgen/wasmgen/wat/internal/opcode"
)

// Encode renders m as an indented S-expression text form.
func Encode(m *wasm.Module) string {
	var b strings.Builder
	b.WriteString("(module\n")

	writeTypes(&b, m)
	writeImports(&b, m)
	writeFunctions(&b, m)
	writeTables(&b, m)
	writeMemories(&b, m)
	writeTags(&b, m)
	writeGlobals(&b, m)
	writeExports(&b, m)
	writeStart(&b, m)
	writeElements(&b, m)
	writeData(&b, m)

	b.WriteString(")\n")
	return b.String()
}

func indent(n int) string { return strings.Repeat("  ", n) }

func writeTypes(b *strings.Builder, m *wasm.Module) {
	if len(m.TypeDefs) > 0 {
		for i, td := range m.TypeDefs {
			fmt.Fprintf(b, "%s(type (;%d;) %s)\n", indent(1), i, renderTypeDef(td))
		}
		return
	}
	for i, ft := range m.Types {
		fmt.Fprintf(b, "%s(type (;%d;) %s)\n", indent(1), i, renderFuncType(ft))
	}
}

func renderTypeDef(td wasm.TypeDef) string {
	switch td.Kind {
	case wasm.TypeDefKindFunc:
		return renderFuncType(*td.Func)
	case wasm.TypeDefKindSub:
		return renderSubType(*td.Sub)
	case wasm.TypeDefKindRec:
		parts := make([]string, len(td.Rec.Types))
		for i, st := range td.Rec.Types {
			parts[i] = renderSubType(st)
		}
		return "(rec " + strings.Join(parts, " ") + ")"
	default:
		return "(unknown-type)"
	}
}

func renderSubType(st wasm.SubType) string {
	inner := renderCompType(st.CompType)
	if len(st.Parents) == 0 && st.Final {
		return inner
	}
	kw := "sub"
	if st.Final {
		kw = "sub final"
	}
	parents := make([]string, len(st.Parents))
	for i, p := range st.Parents {
		parents[i] = fmt.Sprintf("%d", p)
	}
	return fmt.Sprintf("(%s %s %s)", kw, strings.Join(parents, " "), inner)
}

func renderCompType(ct wasm.CompType) string {
	switch ct.Kind {
	case wasm.CompKindFunc:
		return renderFuncType(*ct.Func)
	case wasm.CompKindStruct:
		return renderStructType(*ct.Struct)
	case wasm.CompKindArray:
		return renderArrayType(*ct.Array)
	default:
		return "(unknown-comp)"
	}
}

func renderStructType(st wasm.StructType) string {
	fields := make([]string, len(st.Fields))
	for i, f := range st.Fields {
		fields[i] = renderFieldType(f)
	}
	return "(struct " + strings.Join(fields, " ") + ")"
}

func renderArrayType(at wasm.ArrayType) string {
	return "(array " + renderFieldType(at.Element) + ")"
}

func renderFieldType(f wasm.FieldType) string {
	s := renderStorageType(f.Type)
	if f.Mutable {
		return "(mut " + s + ")"
	}
	return s
}

func renderStorageType(s wasm.StorageType) string {
	switch s.Kind {
	case wasm.StorageKindPacked:
		if s.Packed == wasm.PackedI8 {
			return "i8"
		}
		return "i16"
	case wasm.StorageKindRef:
		return renderRefType(s.RefType)
	default:
		return s.ValType.String()
	}
}

func renderRefType(rt wasm.RefType) string {
	ht := renderHeapType(rt.HeapType)
	if rt.Nullable {
		return "(ref null " + ht + ")"
	}
	return "(ref " + ht + ")"
}

func renderHeapType(ht int64) string {
	switch ht {
	case wasm.HeapTypeFunc:
		return "func"
	case wasm.HeapTypeExtern:
		return "extern"
	case wasm.HeapTypeAny:
		return "any"
	case wasm.HeapTypeEq:
		return "eq"
	case wasm.HeapTypeI31:
		return "i31"
	case wasm.HeapTypeStruct:
		return "struct"
	case wasm.HeapTypeArray:
		return "array"
	case wasm.HeapTypeExn:
		return "exn"
	case wasm.HeapTypeNone:
		return "none"
	case wasm.HeapTypeNoExtern:
		return "noextern"
	case wasm.HeapTypeNoFunc:
		return "nofunc"
	case wasm.HeapTypeNoExn:
		return "noexn"
	default:
		return fmt.Sprintf("%d", ht)
	}
}

func renderFuncType(ft wasm.FuncType) string {
	var params, results []string
	if len(ft.ExtParams) > 0 || len(ft.ExtResults) > 0 {
		for _, p := range ft.ExtParams {
			params = append(params, renderExtValType(p))
		}
		for _, r := range ft.ExtResults {
			results = append(results, renderExtValType(r))
		}
	} else {
		for _, p := range ft.Params {
			params = append(params, p.String())
		}
		for _, r := range ft.Results {
			results = append(results, r.String())
		}
	}
	s := "(func"
	if len(params) > 0 {
		s += " (param " + strings.Join(params, " ") + ")"
	}
	if len(results) > 0 {
		s += " (result " + strings.Join(results, " ") + ")"
	}
	return s + ")"
}

func renderExtValType(vt wasm.ExtValType) string {
	if vt.Kind == wasm.ExtValKindRef {
		return renderRefType(vt.RefType)
	}
	return vt.ValType.String()
}

func writeImports(b *strings.Builder, m *wasm.Module) {
	for _, imp := range m.Imports {
		var desc string
		switch imp.Desc.Kind {
		case wasm.KindFunc:
			desc = fmt.Sprintf("(func (type %d))", imp.Desc.TypeIdx)
		case wasm.KindTable:
			desc = "(table" + renderLimits(imp.Desc.Table.Limits) + ")"
		case wasm.KindMemory:
			desc = "(memory" + renderLimits(imp.Desc.Memory.Limits) + ")"
		case wasm.KindGlobal:
			desc = "(global " + renderGlobalType(*imp.Desc.Global) + ")"
		case wasm.KindTag:
			desc = fmt.Sprintf("(tag (type %d))", imp.Desc.Tag.TypeIdx)
		}
		fmt.Fprintf(b, "%s(import %q %q %s)\n", indent(1), imp.Module, imp.Name, desc)
	}
}

func renderGlobalType(gt wasm.GlobalType) string {
	vt := gt.ValType.String()
	if gt.ExtType != nil {
		vt = renderExtValType(*gt.ExtType)
	}
	if gt.Mutable {
		return "(mut " + vt + ")"
	}
	return vt
}

func renderLimits(l wasm.Limits) string {
	s := fmt.Sprintf(" %d", l.Min)
	if l.Max != nil {
		s += fmt.Sprintf(" %d", *l.Max)
	}
	if l.Shared {
		s += " shared"
	}
	return s
}

func writeFunctions(b *strings.Builder, m *wasm.Module) {
	numImportedFuncs := m.NumImportedFuncs()
	for i, body := range m.Code {
		idx := numImportedFuncs + i
		typeIdx := uint32(0)
		if i < len(m.Funcs) {
			typeIdx = m.Funcs[i]
		}
		fmt.Fprintf(b, "%s(func (;%d;) (type %d)\n", indent(1), idx, typeIdx)
		for _, loc := range body.Locals {
			vt := loc.ValType.String()
			if loc.ExtType != nil {
				vt = renderExtValType(*loc.ExtType)
			}
			fmt.Fprintf(b, "%s(local %s) ;; x%d\n", indent(2), vt, loc.Count)
		}
		writeInstructions(b, body.Code, 2)
		fmt.Fprintf(b, "%s)\n", indent(1))
	}
}

func writeTables(b *strings.Builder, m *wasm.Module) {
	for i, t := range m.Tables {
		elemType := "funcref"
		if t.RefElemType != nil {
			elemType = renderRefType(*t.RefElemType)
		}
		fmt.Fprintf(b, "%s(table (;%d;)%s %s)\n", indent(1), i, renderLimits(t.Limits), elemType)
	}
}

func writeMemories(b *strings.Builder, m *wasm.Module) {
	for i, mem := range m.Memories {
		fmt.Fprintf(b, "%s(memory (;%d;)%s)\n", indent(1), i, renderLimits(mem.Limits))
	}
}

func writeTags(b *strings.Builder, m *wasm.Module) {
	for i, tag := range m.Tags {
		fmt.Fprintf(b, "%s(tag (;%d;) (type %d))\n", indent(1), i, tag.TypeIdx)
	}
}

func writeGlobals(b *strings.Builder, m *wasm.Module) {
	for i, g := range m.Globals {
		fmt.Fprintf(b, "%s(global (;%d;) %s) ;; init: %s\n", indent(1), i, renderGlobalType(g.Type), hexBytes(g.Init))
	}
}

func writeExports(b *strings.Builder, m *wasm.Module) {
	kinds := map[byte]string{
		wasm.KindFunc: "func", wasm.KindTable: "table",
		wasm.KindMemory: "memory", wasm.KindGlobal: "global",
		wasm.KindTag: "tag",
	}
	for _, e := range m.Exports {
		fmt.Fprintf(b, "%s(export %q (%s %d))\n", indent(1), e.Name, kinds[e.Kind], e.Idx)
	}
}

func writeStart(b *strings.Builder, m *wasm.Module) {
	if m.Start != nil {
		fmt.Fprintf(b, "%s(start %d)\n", indent(1), *m.Start)
	}
}

// writeElements renders each element segment's mode, target table, offset,
// and item list. Flags follows the binary format's own encoding (see the
// element section in wasm.EncodeBinary): bit 0 set means non-active, bit 1
// (when bit 0 is set) distinguishes declared from passive, and bit 2 means
// the items are given as expressions rather than bare function indices.
func writeElements(b *strings.Builder, m *wasm.Module) {
	for i, e := range m.Elements {
		mode := "active"
		if e.Flags&0x01 != 0 {
			if e.Flags&0x02 != 0 {
				mode = "declared"
			} else {
				mode = "passive"
			}
		}

		line := fmt.Sprintf("%s(elem (;%d;) %s", indent(1), i, mode)
		if e.Flags&0x02 != 0 && e.Flags&0x01 == 0 {
			line += fmt.Sprintf(" (table %d)", e.TableIdx)
		}
		if e.Flags&0x01 == 0 {
			line += fmt.Sprintf(" (offset: %s)", hexBytes(e.Offset))
		}
		if e.Flags&0x04 != 0 {
			items := make([]string, len(e.Exprs))
			for j, expr := range e.Exprs {
				items[j] = hexBytes(expr)
			}
			line += " (item-exprs: " + strings.Join(items, " | ") + ")"
		} else {
			idxs := make([]string, len(e.FuncIdxs))
			for j, idx := range e.FuncIdxs {
				idxs[j] = fmt.Sprintf("%d", idx)
			}
			line += " (func " + strings.Join(idxs, " ") + ")"
		}
		fmt.Fprintf(b, "%s)\n", line)
	}
}

// writeData renders each data segment's mode, target memory, offset, and
// already-encoded byte payload. Flags follows the binary format's own
// encoding: 0 is active against memory 0, 1 is passive, 2 is active
// against an explicit memory index (see the data section in wasm.EncodeBinary).
func writeData(b *strings.Builder, m *wasm.Module) {
	for i, d := range m.Data {
		mode := "active"
		if d.Flags == 1 {
			mode = "passive"
		}

		line := fmt.Sprintf("%s(data (;%d;) %s", indent(1), i, mode)
		if d.Flags == 2 {
			line += fmt.Sprintf(" (memory %d)", d.MemIdx)
		}
		if d.Flags != 1 {
			line += fmt.Sprintf(" (offset: %s)", hexBytes(d.Offset))
		}
		fmt.Fprintf(b, "%s (bytes: %s))\n", line, hexBytes(d.Init))
	}
}

// hexBytes renders a constant expression's already-encoded bytes as hex.
// Global.Init is stored post-encoding (see wasm.AddGlobal), so the text
// renderer has no structural access to the original instruction sequence
// and falls back to showing the raw bytes rather than disassembling them.
func hexBytes(init []byte) string {
	parts := make([]string, len(init))
	for i, x := range init {
		parts[i] = fmt.Sprintf("%02x", x)
	}
	return strings.Join(parts, " ")
}

func writeInstructions(b *strings.Builder, instrs []wasm.Instruction, base int) {
	depth := 0
	for _, instr := range instrs {
		cur := depth
		switch instr.Opcode {
		case wasm.OpEnd:
			cur = depth - 1
			depth--
		case wasm.OpElse, wasm.OpCatch, wasm.OpCatchAll:
			cur = depth - 1
		}
		if cur < 0 {
			cur = 0
		}
		fmt.Fprintf(b, "%s%s\n", indent(base+cur), renderInstruction(instr))
		switch instr.Opcode {
		case wasm.OpBlock, wasm.OpLoop, wasm.OpIf, wasm.OpTry:
			depth++
		}
	}
}

func renderInstruction(instr wasm.Instruction) string {
	name := mnemonic(instr.Opcode, instr.Imm)
	switch imm := instr.Imm.(type) {
	case wasm.BlockImm:
		if imm.Type == wasm.BlockTypeVoid {
			return name
		}
		return fmt.Sprintf("%s (result %s)", name, blockTypeName(imm.Type))
	case wasm.BranchImm:
		return fmt.Sprintf("%s %d", name, imm.LabelIdx)
	case wasm.BrTableImm:
		labels := make([]string, len(imm.Labels))
		for i, l := range imm.Labels {
			labels[i] = fmt.Sprintf("%d", l)
		}
		return fmt.Sprintf("%s %s %d", name, strings.Join(labels, " "), imm.Default)
	case wasm.CallImm:
		return fmt.Sprintf("%s %d", name, imm.FuncIdx)
	case wasm.CallIndirectImm:
		return fmt.Sprintf("%s (type %d) (table %d)", name, imm.TypeIdx, imm.TableIdx)
	case wasm.CallRefImm:
		return fmt.Sprintf("%s (type %d)", name, imm.TypeIdx)
	case wasm.LocalImm:
		return fmt.Sprintf("%s %d", name, imm.LocalIdx)
	case wasm.GlobalImm:
		return fmt.Sprintf("%s %d", name, imm.GlobalIdx)
	case wasm.TableImm:
		return fmt.Sprintf("%s %d", name, imm.TableIdx)
	case wasm.MemoryImm:
		return fmt.Sprintf("%s%s", name, renderMemArg(imm))
	case wasm.MemoryIdxImm:
		if imm.MemIdx == 0 {
			return name
		}
		return fmt.Sprintf("%s %d", name, imm.MemIdx)
	case wasm.I32Imm:
		return fmt.Sprintf("%s %d", name, imm.Value)
	case wasm.I64Imm:
		return fmt.Sprintf("%s %d", name, imm.Value)
	case wasm.F32Imm:
		return fmt.Sprintf("%s %g", name, imm.Value)
	case wasm.F64Imm:
		return fmt.Sprintf("%s %g", name, imm.Value)
	case wasm.RefNullImm:
		return fmt.Sprintf("%s %s", name, renderHeapType(imm.HeapType))
	case wasm.RefFuncImm:
		return fmt.Sprintf("%s %d", name, imm.FuncIdx)
	case wasm.ThrowImm:
		return fmt.Sprintf("%s %d", name, imm.TagIdx)
	case wasm.SelectTypeImm:
		return fmt.Sprintf("%s", name)
	case wasm.GCImm:
		return renderGCInstruction(name, imm)
	case wasm.AtomicImm:
		if imm.MemArg != nil {
			return fmt.Sprintf("%s%s", name, renderMemArg(*imm.MemArg))
		}
		return name
	case wasm.SIMDImm:
		if imm.MemArg != nil {
			return fmt.Sprintf("%s%s", name, renderMemArg(*imm.MemArg))
		}
		return name
	case wasm.TryTableImm:
		return fmt.Sprintf("%s (catches: %d)", name, len(imm.Catches))
	default:
		return name
	}
}

func renderGCInstruction(name string, imm wasm.GCImm) string {
	switch imm.SubOpcode {
	case wasm.GCStructNew, wasm.GCStructNewDefault, wasm.GCArrayNew, wasm.GCArrayNewDefault:
		return fmt.Sprintf("%s %d", name, imm.TypeIdx)
	case wasm.GCStructGet, wasm.GCStructGetS, wasm.GCStructGetU, wasm.GCStructSet:
		return fmt.Sprintf("%s %d %d", name, imm.TypeIdx, imm.FieldIdx)
	case wasm.GCRefI31, wasm.GCI31GetS, wasm.GCI31GetU, wasm.GCAnyConvertExtern, wasm.GCExternConvertAny:
		return name
	case wasm.GCRefTest, wasm.GCRefTestNull, wasm.GCRefCast, wasm.GCRefCastNull:
		return fmt.Sprintf("%s %s", name, renderHeapType(imm.HeapType))
	default:
		return fmt.Sprintf("%s %d", name, imm.TypeIdx)
	}
}

func renderMemArg(imm wasm.MemoryImm) string {
	s := ""
	if imm.Offset != 0 {
		s += fmt.Sprintf(" offset=%d", imm.Offset)
	}
	if imm.Align != 0 {
		s += fmt.Sprintf(" align=%d", uint64(1)<<imm.Align)
	}
	return s
}

func blockTypeName(bt int32) string {
	switch bt {
	case wasm.BlockTypeI32:
		return "i32"
	case wasm.BlockTypeI64:
		return "i64"
	case wasm.BlockTypeF32:
		return "f32"
	case wasm.BlockTypeF64:
		return "f64"
	case wasm.BlockTypeV128:
		return "v128"
	default:
		return fmt.Sprintf("(type %d)", bt)
	}
}

// controlMnemonics covers opcodes not present in the opcode package's
// mnemonic table: block structure, branches needing special rendering,
// and reference/table instructions the folded-form table doesn't track.
var controlMnemonics = map[byte]string{
	wasm.OpBlock:             "block",
	wasm.OpLoop:              "loop",
	wasm.OpIf:                "if",
	wasm.OpElse:              "else",
	wasm.OpTry:               "try",
	wasm.OpCatch:             "catch",
	wasm.OpThrow:             "throw",
	wasm.OpRethrow:           "rethrow",
	wasm.OpEnd:               "end",
	wasm.OpBrTable:           "br_table",
	wasm.OpCallIndirect:      "call_indirect",
	wasm.OpReturnCallIndirect: "return_call_indirect",
	wasm.OpCallRef:           "call_ref",
	wasm.OpReturnCallRef:     "return_call_ref",
	wasm.OpDelegate:          "delegate",
	wasm.OpCatchAll:          "catch_all",
	wasm.OpThrowRef:          "throw_ref",
	wasm.OpTryTable:          "try_table",
	wasm.OpRefNull:           "ref.null",
	wasm.OpRefFunc:           "ref.func",
	wasm.OpRefAsNonNull:      "ref.as_non_null",
	wasm.OpRefEq:             "ref.eq",
	wasm.OpBrOnNull:          "br_on_null",
	wasm.OpBrOnNonNull:       "br_on_non_null",
	wasm.OpSelect:            "select",
	wasm.OpSelectType:        "select",
	wasm.OpTableGet:          "table.get",
	wasm.OpTableSet:          "table.set",
}

func mnemonic(op byte, imm interface{}) string {
	if name, ok := controlMnemonics[op]; ok {
		return name
	}
	if name, ok := opcode.Name(op); ok {
		return name
	}
	switch op {
	case wasm.OpPrefixMisc:
		if mi, ok := imm.(wasm.MiscImm); ok {
			if name, ok := opcode.PrefixedName(mi.SubOpcode); ok {
				return name
			}
			return fmt.Sprintf("misc.0x%02x", mi.SubOpcode)
		}
	case wasm.OpPrefixGC:
		if gi, ok := imm.(wasm.GCImm); ok {
			if name, ok := gcMnemonics[gi.SubOpcode]; ok {
				return name
			}
			return fmt.Sprintf("gc.0x%02x", gi.SubOpcode)
		}
	case wasm.OpPrefixAtomic:
		if ai, ok := imm.(wasm.AtomicImm); ok {
			if name, ok := atomicMnemonics[ai.SubOpcode]; ok {
				return name
			}
			return fmt.Sprintf("atomic.0x%02x", ai.SubOpcode)
		}
	}
	if name, ok := opcode.MemoryName(op); ok {
		return name
	}
	return fmt.Sprintf("op.0x%02x", op)
}

var gcMnemonics = map[uint32]string{
	wasm.GCStructNew:        "struct.new",
	wasm.GCStructNewDefault: "struct.new_default",
	wasm.GCStructGet:        "struct.get",
	wasm.GCStructGetS:       "struct.get_s",
	wasm.GCStructGetU:       "struct.get_u",
	wasm.GCStructSet:        "struct.set",
	wasm.GCArrayNew:         "array.new",
	wasm.GCArrayNewDefault:  "array.new_default",
	wasm.GCArrayNewFixed:    "array.new_fixed",
	wasm.GCArrayNewData:     "array.new_data",
	wasm.GCArrayNewElem:     "array.new_elem",
	wasm.GCArrayGet:         "array.get",
	wasm.GCArrayGetS:        "array.get_s",
	wasm.GCArrayGetU:        "array.get_u",
	wasm.GCArraySet:         "array.set",
	wasm.GCArrayLen:         "array.len",
	wasm.GCArrayFill:        "array.fill",
	wasm.GCArrayCopy:        "array.copy",
	wasm.GCArrayInitData:    "array.init_data",
	wasm.GCArrayInitElem:    "array.init_elem",
	wasm.GCRefTest:          "ref.test",
	wasm.GCRefTestNull:      "ref.test null",
	wasm.GCRefCast:          "ref.cast",
	wasm.GCRefCastNull:      "ref.cast null",
	wasm.GCBrOnCast:         "br_on_cast",
	wasm.GCBrOnCastFail:     "br_on_cast_fail",
	wasm.GCAnyConvertExtern: "any.convert_extern",
	wasm.GCExternConvertAny: "extern.convert_any",
	wasm.GCRefI31:           "ref.i31",
	wasm.GCI31GetS:          "i31.get_s",
	wasm.GCI31GetU:          "i31.get_u",
}

var atomicMnemonics = map[uint32]string{
	wasm.AtomicNotify:   "memory.atomic.notify",
	wasm.AtomicWait32:   "memory.atomic.wait32",
	wasm.AtomicWait64:   "memory.atomic.wait64",
	wasm.AtomicFence:    "atomic.fence",
	wasm.AtomicI32Load:  "i32.atomic.load",
	wasm.AtomicI64Load:  "i64.atomic.load",
	wasm.AtomicI32Store: "i32.atomic.store",
	wasm.AtomicI64Store: "i64.atomic.store",
}

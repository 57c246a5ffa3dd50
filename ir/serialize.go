// Copyright 2025 gpuir Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ir

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// --- a DTO tree shared by the JSON and binary dumps -------------------

type typeDTO struct {
	Kind      TypeKind   `json:"kind"`
	Primitive Primitive  `json:"primitive,omitempty"`
	Elem      *typeDTO   `json:"elem,omitempty"`
	Length    uint32     `json:"length,omitempty"`
	IsVecElem bool       `json:"is_vec_elem,omitempty"`
	Fields    []*typeDTO `json:"fields,omitempty"`
	Size      int        `json:"size,omitempty"`
	Alignment int        `json:"alignment,omitempty"`
	ArrayLen  int        `json:"array_len,omitempty"`
	Opaque    string     `json:"opaque,omitempty"`
}

func typeToDTO(t *Type) *typeDTO {
	d := &typeDTO{Kind: t.Kind}
	switch t.Kind {
	case KindPrimitive:
		d.Primitive = t.Primitive
	case KindVector:
		d.Length = t.Vector.Length
		d.Elem = vectorElemToDTO(t.Vector.Element)
	case KindMatrix:
		d.Length = t.Matrix.Dimension
		d.Elem = vectorElemToDTO(t.Matrix.Element)
	case KindStruct:
		for _, f := range t.Struct.Fields {
			d.Fields = append(d.Fields, typeToDTO(f))
		}
		d.Size = t.Struct.Size
		d.Alignment = t.Struct.Alignment
	case KindArray:
		d.Elem = typeToDTO(t.Array.Element)
		d.ArrayLen = t.Array.Length
	case KindOpaque:
		d.Opaque = t.Opaque
	}
	return d
}

func vectorElemToDTO(e VectorElementType) *typeDTO {
	if e.Kind == ElemScalar {
		return &typeDTO{Kind: KindPrimitive, Primitive: e.Scalar}
	}
	d := typeToDTO(&Type{Kind: KindVector, Vector: *e.Vector})
	d.IsVecElem = true
	return d
}

func typeFromDTO(d *typeDTO) *Type {
	switch d.Kind {
	case KindVoid:
		return VoidType()
	case KindUserData:
		return UserDataType()
	case KindPrimitive:
		return PrimitiveType(d.Primitive)
	case KindVector:
		elem := vectorElemFromDTO(d.Elem)
		return RegisterType(&Type{Kind: KindVector, Vector: VectorType{Element: elem, Length: d.Length}})
	case KindMatrix:
		elem := vectorElemFromDTO(d.Elem)
		return RegisterType(&Type{Kind: KindMatrix, Matrix: MatrixType{Element: elem, Dimension: d.Length}})
	case KindStruct:
		fields := make([]*Type, len(d.Fields))
		for i, f := range d.Fields {
			fields[i] = typeFromDTO(f)
		}
		return StructOf(fields, d.Size, d.Alignment)
	case KindArray:
		return ArrayOf(typeFromDTO(d.Elem), d.ArrayLen)
	case KindOpaque:
		return OpaqueType(d.Opaque)
	default:
		panic("ir: decode: unknown type kind in serialized data")
	}
}

func vectorElemFromDTO(d *typeDTO) VectorElementType {
	if d.Kind == KindVector {
		vt := typeFromDTO(d).Vector
		return VectorElementType{Kind: ElemVector, Vector: &vt}
	}
	return scalarElem(d.Primitive)
}

type constDTO struct {
	Kind    ConstKind `json:"kind"`
	Type    *typeDTO  `json:"type"`
	Bits    uint64    `json:"bits,omitempty"`
	Generic []byte    `json:"generic,omitempty"`
}

func constToDTO(c Const) *constDTO {
	return &constDTO{Kind: c.Kind, Type: typeToDTO(c.Type), Bits: c.Bits, Generic: c.Generic}
}

func constFromDTO(d *constDTO) Const {
	return Const{Kind: d.Kind, Type: typeFromDTO(d.Type), Bits: d.Bits, Generic: d.Generic}
}

type caseDTO struct {
	Value int32     `json:"value"`
	Block *blockDTO `json:"block"`
}

type incomingDTO struct {
	Value uint64 `json:"value"`
}

// callableDTO is the serialized form of a Call(Callable) target: the
// callable's return type, the ids of its argument nodes (which live inside
// its own entry block), and the entry block itself. Captures and nested
// callables of the target are not carried; like pool identity, they are
// re-bound by the host when a cached module is rehydrated.
type callableDTO struct {
	RetType *typeDTO  `json:"ret_type"`
	Entry   *blockDTO `json:"entry"`
	Args    []uint64  `json:"args,omitempty"`
}

type nodeDTO struct {
	ID           uint64          `json:"id"`
	Type         *typeDTO        `json:"type"`
	Kind         InstructionKind `json:"kind"`
	ByValue      bool            `json:"by_value,omitempty"`
	Init         uint64          `json:"init,omitempty"`
	Const        *constDTO       `json:"const,omitempty"`
	Func         Func            `json:"func,omitempty"`
	Args         []uint64        `json:"args,omitempty"`
	Callable     *callableDTO    `json:"callable,omitempty"`
	CustomOp     string          `json:"custom_op,omitempty"`
	Incoming     []incomingDTO   `json:"incoming,omitempty"`
	Var          uint64          `json:"var,omitempty"`
	Value        uint64          `json:"value,omitempty"`
	Cond         uint64          `json:"cond,omitempty"`
	TrueBranch   *blockDTO       `json:"true_branch,omitempty"`
	FalseBranch  *blockDTO       `json:"false_branch,omitempty"`
	Body         *blockDTO       `json:"body,omitempty"`
	Prepare      *blockDTO       `json:"prepare,omitempty"`
	UpdateBlock  *blockDTO       `json:"update,omitempty"`
	Default      *blockDTO       `json:"default,omitempty"`
	Cases        []caseDTO       `json:"cases,omitempty"`
	Scope        *blockDTO       `json:"scope,omitempty"`
	RayQuery     uint64          `json:"ray_query,omitempty"`
	OnTriangle   *blockDTO       `json:"on_triangle_hit,omitempty"`
	OnProcedural *blockDTO       `json:"on_procedural_hit,omitempty"`
	ReturnValue  uint64          `json:"return_value,omitempty"`
}

type blockDTO struct {
	Nodes []nodeDTO `json:"nodes"`
}

func refID(n NodeRef) uint64 {
	if !Valid(n) {
		return 0
	}
	return n.ID()
}

func blockToDTO(bb *BasicBlock) *blockDTO {
	d := &blockDTO{}
	for _, n := range bb.Iter() {
		d.Nodes = append(d.Nodes, nodeToDTO(n))
	}
	return d
}

func nodeToDTO(n NodeRef) nodeDTO {
	i := n.Instruction
	d := nodeDTO{ID: n.ID(), Type: typeToDTO(n.Type), Kind: i.Kind}
	switch i.Kind {
	case InstArgument:
		d.ByValue = i.ByValue
	case InstLocal:
		d.Init = refID(i.Init)
	case InstConst:
		d.Const = constToDTO(i.Const)
	case InstCall:
		d.Func = i.Func
		for _, a := range i.Args {
			d.Args = append(d.Args, refID(a))
		}
		if i.Callable != nil {
			cd := &callableDTO{RetType: typeToDTO(i.Callable.RetType), Entry: blockToDTO(i.Callable.Entry)}
			for _, a := range i.Callable.Args {
				cd.Args = append(cd.Args, refID(a))
			}
			d.Callable = cd
		}
		if i.CustomOp != nil {
			d.CustomOp = i.CustomOp.Name
		}
	case InstPhi:
		for _, inc := range i.Incoming {
			d.Incoming = append(d.Incoming, incomingDTO{Value: refID(inc.Value)})
		}
	case InstUpdate:
		d.Var = refID(i.Var)
		d.Value = refID(i.Value)
	case InstIf:
		d.Cond = refID(i.Cond)
		d.TrueBranch = blockToDTO(i.TrueBranch)
		d.FalseBranch = blockToDTO(i.FalseBranch)
	case InstLoop:
		d.Cond = refID(i.Cond)
		d.Body = blockToDTO(i.Body)
	case InstGenericLoop:
		d.Cond = refID(i.Cond)
		d.Prepare = blockToDTO(i.Prepare)
		d.Body = blockToDTO(i.Body)
		d.UpdateBlock = blockToDTO(i.Update2)
	case InstSwitch:
		d.Var = refID(i.Var)
		d.Default = blockToDTO(i.Default)
		for _, c := range i.Cases {
			d.Cases = append(d.Cases, caseDTO{Value: c.Value, Block: blockToDTO(c.Block)})
		}
	case InstAdScope, InstAdDetach:
		d.Scope = blockToDTO(i.Scope)
	case InstRayQuery:
		d.RayQuery = refID(i.RayQueryValue)
		d.OnTriangle = blockToDTO(i.OnTriangleHit)
		d.OnProcedural = blockToDTO(i.OnProceduralHit)
	case InstReturn:
		d.ReturnValue = refID(i.ReturnValue)
	}
	return d
}

// dtoToBlock reconstructs a BasicBlock from its DTO, allocating fresh pool
// storage from pools. Node ids are preserved by reference but cross-node
// links are resolved through the id->NodeRef map built incrementally.
func dtoToBlock(d *blockDTO, pools *ModulePools, byID map[uint64]NodeRef) *BasicBlock {
	bb := NewBasicBlock(pools)
	for _, nd := range d.Nodes {
		n := dtoToNode(nd, pools, byID)
		bb.Push(n)
		byID[nd.ID] = n
	}
	return bb
}

func resolve(byID map[uint64]NodeRef, id uint64) NodeRef {
	if id == 0 {
		return nil
	}
	return byID[id]
}

func dtoToNode(nd nodeDTO, pools *ModulePools, byID map[uint64]NodeRef) NodeRef {
	n := pools.Nodes.Alloc()
	restoreID(n, nd.ID)
	n.Type = typeFromDTO(nd.Type)
	inst := &Instruction{Kind: nd.Kind}
	switch nd.Kind {
	case InstArgument:
		inst.ByValue = nd.ByValue
	case InstLocal:
		inst.Init = resolve(byID, nd.Init)
	case InstConst:
		inst.Const = constFromDTO(nd.Const)
	case InstCall:
		inst.Func = nd.Func
		for _, a := range nd.Args {
			inst.Args = append(inst.Args, resolve(byID, a))
		}
		if nd.Callable != nil {
			cm := &CallableModule{
				Module:  Module{Kind: KindFunction, Pools: pools},
				RetType: typeFromDTO(nd.Callable.RetType),
			}
			cm.Entry = dtoToBlock(nd.Callable.Entry, pools, byID)
			for _, a := range nd.Callable.Args {
				cm.Args = append(cm.Args, resolve(byID, a))
			}
			inst.Callable = cm
		}
		if nd.CustomOp != "" {
			inst.CustomOp = &CpuCustomOp{Name: nd.CustomOp}
		}
	case InstPhi:
		for _, inc := range nd.Incoming {
			inst.Incoming = append(inst.Incoming, PhiIncoming{Value: resolve(byID, inc.Value)})
		}
	case InstUpdate:
		inst.Var = resolve(byID, nd.Var)
		inst.Value = resolve(byID, nd.Value)
	case InstIf:
		inst.Cond = resolve(byID, nd.Cond)
		inst.TrueBranch = dtoToBlock(nd.TrueBranch, pools, byID)
		inst.FalseBranch = dtoToBlock(nd.FalseBranch, pools, byID)
	case InstLoop:
		inst.Cond = resolve(byID, nd.Cond)
		inst.Body = dtoToBlock(nd.Body, pools, byID)
	case InstGenericLoop:
		inst.Cond = resolve(byID, nd.Cond)
		inst.Prepare = dtoToBlock(nd.Prepare, pools, byID)
		inst.Body = dtoToBlock(nd.Body, pools, byID)
		inst.Update2 = dtoToBlock(nd.UpdateBlock, pools, byID)
	case InstSwitch:
		inst.Var = resolve(byID, nd.Var)
		inst.Default = dtoToBlock(nd.Default, pools, byID)
		for _, c := range nd.Cases {
			inst.Cases = append(inst.Cases, SwitchCase{Value: c.Value, Block: dtoToBlock(c.Block, pools, byID)})
		}
	case InstAdScope, InstAdDetach:
		inst.Scope = dtoToBlock(nd.Scope, pools, byID)
	case InstRayQuery:
		inst.RayQueryValue = resolve(byID, nd.RayQuery)
		inst.OnTriangleHit = dtoToBlock(nd.OnTriangle, pools, byID)
		inst.OnProceduralHit = dtoToBlock(nd.OnProcedural, pools, byID)
	case InstReturn:
		inst.ReturnValue = resolve(byID, nd.ReturnValue)
	}
	n.Instruction = inst
	return n
}

// DumpJSON renders bb as a structural dump: a recursive
// {"nodes":[{id,data}]} encoding. Pool fields are never included.
func DumpJSON(bb *BasicBlock) ([]byte, error) {
	return json.Marshal(blockToDTO(bb))
}

// LoadJSON parses a JSON dump produced by DumpJSON back into a fresh block
// allocated from pools.
func LoadJSON(data []byte, pools *ModulePools) (*BasicBlock, error) {
	var d blockDTO
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("ir: load json: %w", err)
	}
	return dtoToBlock(&d, pools, make(map[uint64]NodeRef)), nil
}

// --- compact binary form ----------------------------------------------
//
// A hand-rolled, deterministic framing over encoding/binary: every block
// is a varint node count followed by that many node records; every node
// record is its id, its type (recursively framed the same way), its
// InstructionKind tag, and a tag-specific payload. Stable across builds of
// the same version; the host's shader cache keys on it.

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func writeVarint(buf *bytes.Buffer, v int64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutVarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	writeUvarint(buf, uint64(len(b)))
	buf.Write(b)
}

func writeString(buf *bytes.Buffer, s string) { writeBytes(buf, []byte(s)) }

func writeType(buf *bytes.Buffer, t *Type) {
	writeUvarint(buf, uint64(t.Kind))
	switch t.Kind {
	case KindPrimitive:
		writeUvarint(buf, uint64(t.Primitive))
	case KindVector:
		writeVectorElem(buf, t.Vector.Element)
		writeUvarint(buf, uint64(t.Vector.Length))
	case KindMatrix:
		writeVectorElem(buf, t.Matrix.Element)
		writeUvarint(buf, uint64(t.Matrix.Dimension))
	case KindStruct:
		writeUvarint(buf, uint64(len(t.Struct.Fields)))
		for _, f := range t.Struct.Fields {
			writeType(buf, f)
		}
		writeVarint(buf, int64(t.Struct.Size))
		writeVarint(buf, int64(t.Struct.Alignment))
	case KindArray:
		writeType(buf, t.Array.Element)
		writeVarint(buf, int64(t.Array.Length))
	case KindOpaque:
		writeString(buf, t.Opaque)
	}
}

func writeVectorElem(buf *bytes.Buffer, e VectorElementType) {
	writeUvarint(buf, uint64(e.Kind))
	if e.Kind == ElemScalar {
		writeUvarint(buf, uint64(e.Scalar))
	} else {
		writeType(buf, &Type{Kind: KindVector, Vector: *e.Vector})
	}
}

type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("ir: load binary: unexpected end of input")
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *byteReader) uvarint() uint64 {
	v, err := binary.ReadUvarint(r)
	if err != nil {
		panic(fmt.Errorf("ir: load binary: %w", err))
	}
	return v
}

func (r *byteReader) varint() int64 {
	v, err := binary.ReadVarint(r)
	if err != nil {
		panic(fmt.Errorf("ir: load binary: %w", err))
	}
	return v
}

func (r *byteReader) bytes() []byte {
	n := int(r.uvarint())
	if r.pos+n > len(r.data) {
		panic(fmt.Errorf("ir: load binary: truncated byte run"))
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *byteReader) string() string { return string(r.bytes()) }

func readType(r *byteReader) *Type {
	kind := TypeKind(r.uvarint())
	switch kind {
	case KindVoid:
		return VoidType()
	case KindUserData:
		return UserDataType()
	case KindPrimitive:
		return PrimitiveType(Primitive(r.uvarint()))
	case KindVector:
		elem := readVectorElem(r)
		return RegisterType(&Type{Kind: KindVector, Vector: VectorType{Element: elem, Length: uint32(r.uvarint())}})
	case KindMatrix:
		elem := readVectorElem(r)
		return RegisterType(&Type{Kind: KindMatrix, Matrix: MatrixType{Element: elem, Dimension: uint32(r.uvarint())}})
	case KindStruct:
		n := int(r.uvarint())
		fields := make([]*Type, n)
		for i := range fields {
			fields[i] = readType(r)
		}
		size := int(r.varint())
		align := int(r.varint())
		return StructOf(fields, size, align)
	case KindArray:
		elem := readType(r)
		length := int(r.varint())
		return ArrayOf(elem, length)
	case KindOpaque:
		return OpaqueType(r.string())
	default:
		panic(fmt.Sprintf("ir: load binary: unknown type kind %d", int(kind)))
	}
}

func readVectorElem(r *byteReader) VectorElementType {
	kind := VectorElementKind(r.uvarint())
	if kind == ElemScalar {
		return scalarElem(Primitive(r.uvarint()))
	}
	vt := readType(r).Vector
	return VectorElementType{Kind: ElemVector, Vector: &vt}
}

func writeBlock(buf *bytes.Buffer, bb *BasicBlock) {
	nodes := bb.Iter()
	writeUvarint(buf, uint64(len(nodes)))
	for _, n := range nodes {
		writeNode(buf, n)
	}
}

func writeRef(buf *bytes.Buffer, n NodeRef) { writeUvarint(buf, refID(n)) }

func writeNode(buf *bytes.Buffer, n NodeRef) {
	i := n.Instruction
	writeUvarint(buf, n.ID())
	writeType(buf, n.Type)
	writeUvarint(buf, uint64(i.Kind))
	switch i.Kind {
	case InstArgument:
		if i.ByValue {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case InstLocal:
		writeRef(buf, i.Init)
	case InstConst:
		writeUvarint(buf, uint64(i.Const.Kind))
		writeType(buf, i.Const.Type)
		writeUvarint(buf, i.Const.Bits)
		writeBytes(buf, i.Const.Generic)
	case InstCall:
		writeUvarint(buf, uint64(i.Func))
		writeUvarint(buf, uint64(len(i.Args)))
		for _, a := range i.Args {
			writeRef(buf, a)
		}
		if i.Callable != nil {
			buf.WriteByte(1)
			writeType(buf, i.Callable.RetType)
			writeBlock(buf, i.Callable.Entry)
			writeUvarint(buf, uint64(len(i.Callable.Args)))
			for _, a := range i.Callable.Args {
				writeRef(buf, a)
			}
		} else {
			buf.WriteByte(0)
		}
		if i.CustomOp != nil {
			buf.WriteByte(1)
			writeString(buf, i.CustomOp.Name)
		} else {
			buf.WriteByte(0)
		}
	case InstPhi:
		writeUvarint(buf, uint64(len(i.Incoming)))
		for _, inc := range i.Incoming {
			writeRef(buf, inc.Value)
		}
	case InstUpdate:
		writeRef(buf, i.Var)
		writeRef(buf, i.Value)
	case InstIf:
		writeRef(buf, i.Cond)
		writeBlock(buf, i.TrueBranch)
		writeBlock(buf, i.FalseBranch)
	case InstLoop:
		writeRef(buf, i.Cond)
		writeBlock(buf, i.Body)
	case InstGenericLoop:
		writeRef(buf, i.Cond)
		writeBlock(buf, i.Prepare)
		writeBlock(buf, i.Body)
		writeBlock(buf, i.Update2)
	case InstSwitch:
		writeRef(buf, i.Var)
		writeBlock(buf, i.Default)
		writeUvarint(buf, uint64(len(i.Cases)))
		for _, c := range i.Cases {
			writeVarint(buf, int64(c.Value))
			writeBlock(buf, c.Block)
		}
	case InstAdScope, InstAdDetach:
		writeBlock(buf, i.Scope)
	case InstRayQuery:
		writeRef(buf, i.RayQueryValue)
		writeBlock(buf, i.OnTriangleHit)
		writeBlock(buf, i.OnProceduralHit)
	case InstReturn:
		writeRef(buf, i.ReturnValue)
	}
}

func readBlock(r *byteReader, pools *ModulePools, byID map[uint64]NodeRef) *BasicBlock {
	bb := NewBasicBlock(pools)
	count := int(r.uvarint())
	for k := 0; k < count; k++ {
		n := readNode(r, pools, byID)
		bb.Push(n)
	}
	return bb
}

func readNode(r *byteReader, pools *ModulePools, byID map[uint64]NodeRef) NodeRef {
	id := r.uvarint()
	t := readType(r)
	kind := InstructionKind(r.uvarint())
	inst := &Instruction{Kind: kind}
	switch kind {
	case InstArgument:
		b, _ := r.ReadByte()
		inst.ByValue = b != 0
	case InstLocal:
		inst.Init = resolve(byID, r.uvarint())
	case InstConst:
		ck := ConstKind(r.uvarint())
		ct := readType(r)
		bits := r.uvarint()
		generic := r.bytes()
		inst.Const = Const{Kind: ck, Type: ct, Bits: bits, Generic: generic}
	case InstCall:
		inst.Func = Func(r.uvarint())
		n := int(r.uvarint())
		for k := 0; k < n; k++ {
			inst.Args = append(inst.Args, resolve(byID, r.uvarint()))
		}
		if b, _ := r.ReadByte(); b != 0 {
			cm := &CallableModule{
				Module:  Module{Kind: KindFunction, Pools: pools},
				RetType: readType(r),
			}
			cm.Entry = readBlock(r, pools, byID)
			argc := int(r.uvarint())
			for k := 0; k < argc; k++ {
				cm.Args = append(cm.Args, resolve(byID, r.uvarint()))
			}
			inst.Callable = cm
		}
		if b, _ := r.ReadByte(); b != 0 {
			inst.CustomOp = &CpuCustomOp{Name: r.string()}
		}
	case InstPhi:
		n := int(r.uvarint())
		for k := 0; k < n; k++ {
			inst.Incoming = append(inst.Incoming, PhiIncoming{Value: resolve(byID, r.uvarint())})
		}
	case InstUpdate:
		inst.Var = resolve(byID, r.uvarint())
		inst.Value = resolve(byID, r.uvarint())
	case InstIf:
		inst.Cond = resolve(byID, r.uvarint())
		inst.TrueBranch = readBlock(r, pools, byID)
		inst.FalseBranch = readBlock(r, pools, byID)
	case InstLoop:
		inst.Cond = resolve(byID, r.uvarint())
		inst.Body = readBlock(r, pools, byID)
	case InstGenericLoop:
		inst.Cond = resolve(byID, r.uvarint())
		inst.Prepare = readBlock(r, pools, byID)
		inst.Body = readBlock(r, pools, byID)
		inst.Update2 = readBlock(r, pools, byID)
	case InstSwitch:
		inst.Var = resolve(byID, r.uvarint())
		inst.Default = readBlock(r, pools, byID)
		n := int(r.uvarint())
		for k := 0; k < n; k++ {
			inst.Cases = append(inst.Cases, SwitchCase{Value: int32(r.varint()), Block: readBlock(r, pools, byID)})
		}
	case InstAdScope, InstAdDetach:
		inst.Scope = readBlock(r, pools, byID)
	case InstRayQuery:
		inst.RayQueryValue = resolve(byID, r.uvarint())
		inst.OnTriangleHit = readBlock(r, pools, byID)
		inst.OnProceduralHit = readBlock(r, pools, byID)
	case InstReturn:
		inst.ReturnValue = resolve(byID, r.uvarint())
	}
	n := pools.Nodes.Alloc()
	restoreID(n, id)
	n.Type = t
	n.Instruction = inst
	byID[id] = n
	return n
}

// DumpBinary renders bb as the compact deterministic binary form used to
// cache shader builds.
func DumpBinary(bb *BasicBlock) []byte {
	var buf bytes.Buffer
	writeBlock(&buf, bb)
	return buf.Bytes()
}

// LoadBinary parses a dump produced by DumpBinary back into a fresh block
// allocated from pools. Panics on malformed input (a corrupt cache entry is
// a build-system bug, not a recoverable IR condition).
func LoadBinary(data []byte, pools *ModulePools) *BasicBlock {
	r := &byteReader{data: data}
	return readBlock(r, pools, make(map[uint64]NodeRef))
}

// --- human-readable printer --------------------------------------------

// printer is a buffer plus an indent level for the textual dump.
type printer struct {
	buf    bytes.Buffer
	indent int
}

func (p *printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("  ")
	}
}

func (p *printer) line(format string, args ...interface{}) {
	p.writeIndent()
	fmt.Fprintf(&p.buf, format, args...)
	p.buf.WriteByte('\n')
}

// DumpHumanReadable renders bb as an indented textual dump with instruction
// mnemonics and node-id references, for debugging.
func DumpHumanReadable(bb *BasicBlock) string {
	p := &printer{}
	p.printBlock(bb)
	return p.buf.String()
}

func (p *printer) printBlock(bb *BasicBlock) {
	p.line("block {")
	p.indent++
	for _, n := range bb.Iter() {
		p.printNode(n)
	}
	p.indent--
	p.line("}")
}

func (p *printer) printNode(n NodeRef) {
	i := n.Instruction
	switch i.Kind {
	case InstConst:
		p.line("%%%d = const %s : %s", n.ID(), i.Const.Type.String(), n.Type.String())
	case InstLocal:
		p.line("%%%d = local(init=%%%d) : %s", n.ID(), refID(i.Init), n.Type.String())
	case InstCall:
		switch {
		case i.CustomOp != nil:
			p.line("%%%d = call %v[%s](%s) : %s", n.ID(), i.Func, i.CustomOp.Name, joinRefs(i.Args), n.Type.String())
		case i.Callable != nil:
			p.line("%%%d = call %v(%s) : %s", n.ID(), i.Func, joinRefs(i.Args), n.Type.String())
			p.indent++
			p.printBlock(i.Callable.Entry)
			p.indent--
		default:
			p.line("%%%d = call %v(%s) : %s", n.ID(), i.Func, joinRefs(i.Args), n.Type.String())
		}
	case InstUpdate:
		p.line("update %%%d = %%%d", refID(i.Var), refID(i.Value))
	case InstPhi:
		p.line("%%%d = phi(%d incoming) : %s", n.ID(), len(i.Incoming), n.Type.String())
	case InstIf:
		p.line("%%%d = if %%%d", n.ID(), refID(i.Cond))
		p.indent++
		p.line("then:")
		p.indent++
		p.printBlock(i.TrueBranch)
		p.indent--
		p.line("else:")
		p.indent++
		p.printBlock(i.FalseBranch)
		p.indent--
		p.indent--
	case InstLoop:
		p.line("%%%d = loop", n.ID())
		p.indent++
		p.printBlock(i.Body)
		p.line("cond %%%d", refID(i.Cond))
		p.indent--
	case InstGenericLoop:
		p.line("%%%d = generic_loop", n.ID())
		p.indent++
		p.line("prepare:")
		p.printBlock(i.Prepare)
		p.line("cond %%%d", refID(i.Cond))
		p.line("body:")
		p.printBlock(i.Body)
		p.line("update:")
		p.printBlock(i.Update2)
		p.indent--
	case InstSwitch:
		p.line("%%%d = switch %%%d", n.ID(), refID(i.Var))
		p.indent++
		for _, c := range i.Cases {
			p.line("case %d:", c.Value)
			p.indent++
			p.printBlock(c.Block)
			p.indent--
		}
		p.line("default:")
		p.indent++
		p.printBlock(i.Default)
		p.indent--
		p.indent--
	case InstAdScope:
		p.line("%%%d = ad_scope", n.ID())
		p.indent++
		p.printBlock(i.Scope)
		p.indent--
	case InstAdDetach:
		p.line("%%%d = ad_detach", n.ID())
		p.indent++
		p.printBlock(i.Scope)
		p.indent--
	case InstRayQuery:
		p.line("%%%d = ray_query %%%d : %s", n.ID(), refID(i.RayQueryValue), n.Type.String())
	case InstBreak:
		p.line("break")
	case InstContinue:
		p.line("continue")
	case InstReturn:
		p.line("return %%%d", refID(i.ReturnValue))
	default:
		p.line("%%%d = <%v> : %s", n.ID(), i.Kind, n.Type.String())
	}
}

func joinRefs(refs []NodeRef) string {
	var buf bytes.Buffer
	for idx, r := range refs {
		if idx > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%%%d", refID(r))
	}
	return buf.String()
}

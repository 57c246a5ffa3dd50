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
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// cTypeName returns the C typedef used for a decoded scalar of primitive p.
func cTypeName(p Primitive) string {
	switch p {
	case Bool:
		return "bool"
	case Int16:
		return "int16_t"
	case Uint16:
		return "uint16_t"
	case Int32:
		return "int32_t"
	case Uint32:
		return "uint32_t"
	case Int64:
		return "int64_t"
	case Uint64:
		return "uint64_t"
	case Float32:
		return "float"
	case Float64:
		return "double"
	default:
		panic(fmt.Sprintf("ir: decode: unknown primitive %d", int(p)))
	}
}

// laneTypeName returns the vector-constructor lane name used by lc_<name><N>,
// which differs from the scalar cTypeName for the integer families.
func laneTypeName(p Primitive) string {
	switch p {
	case Bool:
		return "bool"
	case Int16:
		return "short"
	case Uint16:
		return "ushort"
	case Int32:
		return "int"
	case Uint32:
		return "uint"
	case Int64:
		return "longlong"
	case Uint64:
		return "ulonglong"
	case Float32:
		return "float"
	case Float64:
		return "double"
	default:
		panic(fmt.Sprintf("ir: decode: unknown primitive %d", int(p)))
	}
}

func decodePrimitiveLiteral(data []byte, p Primitive) string {
	switch p {
	case Bool:
		if data[0] != 0 {
			return "true"
		}
		return "false"
	case Int16:
		return fmt.Sprintf("%d", int16(binary.LittleEndian.Uint16(data)))
	case Uint16:
		return fmt.Sprintf("%d", binary.LittleEndian.Uint16(data))
	case Int32:
		return fmt.Sprintf("%d", int32(binary.LittleEndian.Uint32(data)))
	case Uint32:
		return fmt.Sprintf("%d", binary.LittleEndian.Uint32(data))
	case Int64:
		return fmt.Sprintf("%d", int64(binary.LittleEndian.Uint64(data)))
	case Uint64:
		return fmt.Sprintf("%d", binary.LittleEndian.Uint64(data))
	case Float32:
		return formatFloat(float64(math.Float32frombits(binary.LittleEndian.Uint32(data))))
	case Float64:
		return formatFloat(math.Float64frombits(binary.LittleEndian.Uint64(data)))
	default:
		panic(fmt.Sprintf("ir: decode: unknown primitive %d", int(p)))
	}
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}

// DecodeConstData renders data (a little-endian typed byte blob) as a
// C++-expression string usable inside generated source.
func DecodeConstData(data []byte, t *Type) string {
	switch t.Kind {
	case KindPrimitive:
		return fmt.Sprintf("%s(%s)", cTypeName(t.Primitive), decodePrimitiveLiteral(data, t.Primitive))
	case KindVector:
		return decodeVector(data, &t.Vector)
	case KindStruct:
		return decodeStruct(data, &t.Struct)
	case KindArray:
		return decodeArray(data, &t.Array)
	case KindMatrix:
		panic("ir: decode: matrix constant decoding is unimplemented")
	case KindVoid, KindUserData, KindOpaque:
		panic("ir: decode: Void/UserData/Opaque are never decoded")
	default:
		panic("ir: decode: unknown type kind")
	}
}

func decodeVector(data []byte, vt *VectorType) string {
	if vt.Element.Kind == ElemVector {
		panic("ir: decode: vector-of-vectors constant decoding is unimplemented")
	}
	p := vt.Element.Scalar
	stride := p.Size()
	parts := make([]string, vt.Length)
	for i := uint32(0); i < vt.Length; i++ {
		parts[i] = decodePrimitiveLiteral(data[int(i)*stride:], p)
	}
	return fmt.Sprintf("lc_%s%d(%s)", laneTypeName(p), vt.Length, strings.Join(parts, ", "))
}

func decodeStruct(data []byte, st *StructType) string {
	parts := make([]string, len(st.Fields))
	offset := 0
	for i, f := range st.Fields {
		parts[i] = DecodeConstData(data[offset:offset+f.Size()], f)
		offset += f.Size()
	}
	if offset != len(data) {
		panic(fmt.Sprintf("ir: decode: struct field offsets sum to %d, want %d", offset, len(data)))
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func decodeArray(data []byte, at *ArrayType) string {
	elemSize := at.Element.Size()
	parts := make([]string, at.Length)
	for i := 0; i < at.Length; i++ {
		parts[i] = DecodeConstData(data[i*elemSize:(i+1)*elemSize], at.Element)
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

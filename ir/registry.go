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
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"
)

// registry is a process-wide structural interner for *Type. Structurally
// equal types always resolve to the same *Type, so handles can be compared
// by pointer identity.
type registry struct {
	mu      sync.Mutex
	buckets map[uint64][]*Type
	group   singleflight.Group
}

var globalRegistry = &registry{buckets: make(map[uint64][]*Type)}

func (r *registry) lookupLocked(key string, hash uint64) *Type {
	for _, existing := range r.buckets[hash] {
		if existing.key() == key {
			return existing
		}
	}
	return nil
}

// intern returns the canonical handle for a structurally-equal candidate,
// inserting candidate as that handle on first sight. Safe for concurrent
// use: concurrent first-sight registrations of the identical structural key
// are collapsed onto one allocation via singleflight.
func (r *registry) intern(candidate *Type) *Type {
	key := candidate.key()
	hash := xxhash.Sum64String(key)

	r.mu.Lock()
	if existing := r.lookupLocked(key, hash); existing != nil {
		r.mu.Unlock()
		return existing
	}
	r.mu.Unlock()

	v, _, _ := r.group.Do(key, func() (interface{}, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if existing := r.lookupLocked(key, hash); existing != nil {
			return existing, nil
		}
		r.buckets[hash] = append(r.buckets[hash], candidate)
		return candidate, nil
	})
	return v.(*Type)
}

// RegisterType interns t in the process-wide type registry, returning the
// shared handle. Repeated calls with structurally equal inputs return the
// identical *Type; nested interned handles participate in the structural
// key via their own canonical encoding, so equality never needs to chase
// cycles (the type graph is acyclic by construction).
func RegisterType(t *Type) *Type {
	return globalRegistry.intern(t)
}

// VoidType returns the interned Void type.
func VoidType() *Type { return RegisterType(&Type{Kind: KindVoid}) }

// UserDataType returns the interned UserData type.
func UserDataType() *Type { return RegisterType(&Type{Kind: KindUserData}) }

// PrimitiveType returns the interned handle for a scalar primitive.
func PrimitiveType(p Primitive) *Type {
	return RegisterType(&Type{Kind: KindPrimitive, Primitive: p})
}

// VectorOf returns the interned Vector{Scalar(p), n} handle.
func VectorOf(p Primitive, n uint32) *Type {
	return RegisterType(&Type{Kind: KindVector, Vector: VectorType{Element: scalarElem(p), Length: n}})
}

// VectorOfVector returns the interned Vector{elem, n} handle where elem is
// itself an already-interned vector type (vector of vectors).
func VectorOfVector(elem *Type, n uint32) *Type {
	if elem.Kind != KindVector {
		panic("ir: VectorOfVector requires a Vector element type")
	}
	vt := elem.Vector
	return RegisterType(&Type{Kind: KindVector, Vector: VectorType{
		Element: VectorElementType{Kind: ElemVector, Vector: &vt},
		Length:  n,
	}})
}

// MatrixOf returns the interned Matrix{Scalar(Float32), dim} handle.
func MatrixOf(dim uint32) *Type {
	return RegisterType(&Type{Kind: KindMatrix, Matrix: MatrixType{Element: scalarElem(Float32), Dimension: dim}})
}

// StructOf returns the interned Struct handle. size/alignment are
// front-end-authoritative and are never recomputed by this package.
func StructOf(fields []*Type, size, alignment int) *Type {
	return RegisterType(&Type{Kind: KindStruct, Struct: StructType{Fields: fields, Size: size, Alignment: alignment}})
}

// ArrayOf returns the interned Array{element, length} handle.
func ArrayOf(element *Type, length int) *Type {
	return RegisterType(&Type{Kind: KindArray, Array: ArrayType{Element: element, Length: length}})
}

// OpaqueType returns the interned nominal Opaque(name) handle.
func OpaqueType(name string) *Type {
	return RegisterType(&Type{Kind: KindOpaque, Opaque: name})
}

// BoolType returns the boolean-projection of a scalar or vector type: Bool
// for a primitive, Vector(Bool, n) for a vector of length n. Panics for any
// other kind.
func BoolType(from *Type) *Type {
	switch from.Kind {
	case KindPrimitive:
		return PrimitiveType(Bool)
	case KindVector:
		return VectorOf(Bool, from.Vector.Length)
	default:
		panic("ir: BoolType() undefined for type kind " + from.key())
	}
}

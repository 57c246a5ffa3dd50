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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorSizing(t *testing.T) {
	// non-bool scalars pad to ceil3(length); bool
	// vectors never pad.
	tests := []struct {
		name      string
		primitive Primitive
		length    uint32
		wantSize  int
		wantAlign int
	}{
		{"f32x1", Float32, 1, 4, 4},
		{"f32x2", Float32, 2, 8, 4},
		{"f32x3", Float32, 3, 16, 4}, // the length-3 case pads to 4 lanes
		{"f32x4", Float32, 4, 16, 4},
		{"f32x5", Float32, 5, 20, 4},
		{"i32x3", Int32, 3, 16, 4},
		{"i16x3", Int16, 3, 8, 2},
		{"boolx3", Bool, 3, 3, 1},
		{"boolx5", Bool, 5, 5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ := VectorOf(tt.primitive, tt.length)
			assert.Equal(t, tt.wantSize, typ.Size())
			assert.Equal(t, tt.wantAlign, typ.Alignment())
		})
	}
}

func TestMatrixSizing(t *testing.T) {
	tests := []struct {
		dim      uint32
		wantSize int
	}{
		{2, 2 * 2 * 4},
		{3, 4 * 3 * 4},
		{4, 4 * 4 * 4},
	}
	for _, tt := range tests {
		typ := MatrixOf(tt.dim)
		assert.Equal(t, tt.wantSize, typ.Size())
	}
}

func TestTypeInterningIdentity(t *testing.T) {
	// structurally equal types share one handle.
	a := VectorOf(Float32, 3)
	b := VectorOf(Float32, 3)
	assert.Same(t, a, b)

	c := VectorOf(Float32, 4)
	assert.NotSame(t, a, c)

	s1 := StructOf([]*Type{PrimitiveType(Int32), PrimitiveType(Float32)}, 8, 4)
	s2 := StructOf([]*Type{PrimitiveType(Int32), PrimitiveType(Float32)}, 8, 4)
	assert.Same(t, s1, s2)
}

func TestTypeInterningConcurrent(t *testing.T) {
	const n = 64
	var wg sync.WaitGroup
	handles := make([]*Type, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i] = VectorOf(Uint64, 7)
		}(i)
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		require.Same(t, handles[0], handles[i])
	}
}

func TestVectorOfVector(t *testing.T) {
	inner := VectorOf(Float32, 2)
	outer := VectorOfVector(inner, 3)
	require.Equal(t, KindVector, outer.Kind)
	// vectors-of-vectors do not pad.
	assert.Equal(t, inner.Size()*3, outer.Size())
}

func TestBoolTypeProjection(t *testing.T) {
	assert.Equal(t, PrimitiveType(Bool), BoolType(PrimitiveType(Float32)))
	assert.Equal(t, VectorOf(Bool, 3), BoolType(VectorOf(Int32, 3)))
}

func TestExtractTraps(t *testing.T) {
	assert.Panics(t, func() { VoidType().Size() })
	assert.Panics(t, func() { OpaqueType("Texture").Alignment() })
	assert.Panics(t, func() { UserDataType().Element() })
}

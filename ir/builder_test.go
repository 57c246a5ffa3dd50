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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstLocalStoreOrder(t *testing.T) {
	pools := NewModulePools()
	b := NewBuilder(pools)

	c := b.Const_(ConstInt32(5))
	l := b.Local(c)
	b.Store(l, b.Const_(ConstInt32(7)))
	bb := b.Finish()

	require.Len(t, bb.Iter(), 4) // const(5), local, const(7), update
	assert.True(t, l.IsLValue())
	assert.Same(t, PrimitiveType(Int32), l.Type)
}

func TestCollectOrderThroughIf(t *testing.T) {
	pools := NewModulePools()
	b := NewBuilder(pools)
	cond := b.Const_(ConstBool(true))

	tb := NewBuilder(pools)
	ret := tb.Return_(nil)
	trueBranch := tb.Finish()

	falseBranch := NewBasicBlock(pools)

	ifNode := b.If_(cond, trueBranch, falseBranch)
	bb := b.Finish()

	order := CollectNodes(bb)
	require.Len(t, order, 3)
	assert.Same(t, cond, order[0])
	assert.Same(t, ifNode, order[1])
	assert.Same(t, ret, order[2])
}

func TestCollectNodesVisitsSharedNodeOnce(t *testing.T) {
	// a block reachable through two structural positions
	// contributes each of its nodes to the discovery order exactly once.
	pools := NewModulePools()
	b := NewBuilder(pools)
	cond := b.Const_(ConstBool(true))

	sb := NewBuilder(pools)
	shared := sb.Const_(ConstInt32(1))
	sharedBlock := sb.Finish()

	ifNode := b.If_(cond, sharedBlock, sharedBlock)
	bb := b.Finish()

	order := CollectNodes(bb)
	count := 0
	for _, n := range order {
		if n == shared {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Contains(t, order, ifNode)
}

func TestUsageReadWriteBuffer(t *testing.T) {
	pools := NewModulePools()
	b := NewBuilder(pools)

	buffer := b.Buffer(OpaqueType("Buffer"))
	idx := b.Const_(ConstInt32(0))
	val := b.Const_(ConstFloat32(1))
	b.Call(FuncBufferRead, []NodeRef{buffer, idx}, PrimitiveType(Float32))
	b.Call(FuncBufferWrite, []NodeRef{buffer, idx, val}, VoidType())
	bb := b.Finish()

	km := &KernelModule{
		Module:   Module{Kind: KindKernel, Entry: bb, Pools: pools},
		Captures: []Capture{{Node: buffer, Binding: Binding{Kind: BindBuffer}}},
	}
	captures, args := DetectUsage(km)
	require.Len(t, captures, 1)
	assert.Equal(t, uint8(UsageReadWrite), captures[0])
	assert.Empty(t, args)
}

func TestUsageByValueArgumentIsRead(t *testing.T) {
	pools := NewModulePools()
	b := NewBuilder(pools)

	scale := b.Argument(PrimitiveType(Float32), true)
	buffer := b.Buffer(OpaqueType("Buffer"))
	idx := b.Const_(ConstInt32(0))
	read := b.Call(FuncBufferRead, []NodeRef{buffer, idx}, PrimitiveType(Float32))
	b.Call(FuncMul, []NodeRef{read, scale}, PrimitiveType(Float32))
	bb := b.Finish()

	km := &KernelModule{
		Module:   Module{Kind: KindKernel, Entry: bb, Pools: pools},
		Captures: []Capture{{Node: buffer, Binding: Binding{Kind: BindBuffer}}},
		Args:     []NodeRef{scale},
	}
	captures, args := DetectUsage(km)
	require.Len(t, captures, 1)
	assert.Equal(t, uint8(UsageRead), captures[0])
	require.Len(t, args, 1)
	assert.Equal(t, uint8(UsageRead), args[0])
}

func TestUsageLatticeFold(t *testing.T) {
	// folding marks from NONE yields the least upper bound in the lattice.
	tests := []struct {
		name string
		in   []Usage
		want Usage
	}{
		{"none", nil, UsageNone},
		{"read-only", []Usage{UsageRead, UsageRead}, UsageRead},
		{"write-only", []Usage{UsageWrite}, UsageWrite},
		{"read-then-write", []Usage{UsageRead, UsageWrite}, UsageReadWrite},
		{"write-then-read", []Usage{UsageWrite, UsageRead}, UsageReadWrite},
		{"already-read-write", []Usage{UsageReadWrite, UsageRead, UsageWrite}, UsageReadWrite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := UsageNone
			for _, m := range tt.in {
				acc = Mark(acc, m)
			}
			assert.Equal(t, tt.want, acc)
		})
	}
}

func TestMissingUsageEntryPanics(t *testing.T) {
	pools := NewModulePools()
	b := NewBuilder(pools)
	buffer := b.Buffer(OpaqueType("Buffer"))
	bb := b.Finish()

	km := &KernelModule{
		Module:   Module{Kind: KindKernel, Entry: bb, Pools: pools},
		Captures: []Capture{{Node: buffer}},
	}
	assert.Panics(t, func() { DetectUsage(km) })
}

func TestPhiUserDataElision(t *testing.T) {
	pools := NewModulePools()
	b := NewBuilder(pools)

	eq := func(a, b uintptr) bool { return a == b }
	v1 := b.newNode(UserDataType(), &Instruction{Kind: InstUserData, UserData: UserData{Tag: 1, Data: 42, Eq: eq}})
	v2 := b.newNode(UserDataType(), &Instruction{Kind: InstUserData, UserData: UserData{Tag: 1, Data: 42, Eq: eq}})

	result := b.Phi([]PhiIncoming{{Value: v1}, {Value: v2}}, UserDataType())
	assert.Same(t, v1, result)
}

func TestPhiUserDataMismatchPanics(t *testing.T) {
	pools := NewModulePools()
	b := NewBuilder(pools)
	eq := func(a, b uintptr) bool { return a == b }
	v1 := b.newNode(UserDataType(), &Instruction{Kind: InstUserData, UserData: UserData{Tag: 1, Data: 1, Eq: eq}})
	v2 := b.newNode(UserDataType(), &Instruction{Kind: InstUserData, UserData: UserData{Tag: 1, Data: 2, Eq: eq}})
	assert.Panics(t, func() {
		b.Phi([]PhiIncoming{{Value: v1}, {Value: v2}}, UserDataType())
	})
}

func TestStoreRequiresLValue(t *testing.T) {
	pools := NewModulePools()
	b := NewBuilder(pools)
	c := b.Const_(ConstInt32(1))
	assert.Panics(t, func() { b.Store(c, c) })
}

func TestCallCpuCustomOpCarriesPayload(t *testing.T) {
	pools := NewModulePools()
	b := NewBuilder(pools)
	op := &CpuCustomOp{Name: "fft_radix2"}
	x := b.Const_(ConstFloat32(1))
	n := b.CallCpuCustomOp(op, []NodeRef{x}, PrimitiveType(Float32))
	require.Equal(t, FuncCpuCustomOp, n.Instruction.Func)
	assert.Same(t, op, n.Instruction.CustomOp)
}

func TestCloneNodeIsShallowCopy(t *testing.T) {
	pools := NewModulePools()
	b := NewBuilder(pools)
	c := b.Const_(ConstInt32(9))
	clone := b.CloneNode(c)
	assert.NotSame(t, c, clone)
	assert.Equal(t, c.Instruction.Const, clone.Instruction.Const)
}

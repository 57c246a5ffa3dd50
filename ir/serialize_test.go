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

func sameShape(t *testing.T, original, loaded *BasicBlock) {
	t.Helper()
	originalNodes := original.Iter()
	loadedNodes := loaded.Iter()
	require.Len(t, loadedNodes, len(originalNodes))
	for i := range originalNodes {
		assert.Equal(t, originalNodes[i].ID(), loadedNodes[i].ID())
		assert.Equal(t, originalNodes[i].Instruction.Kind, loadedNodes[i].Instruction.Kind)
		assert.Equal(t, originalNodes[i].Type.key(), loadedNodes[i].Type.key())
	}
}

func buildRoundTripFixture(t *testing.T) (*ModulePools, *BasicBlock) {
	t.Helper()
	pools := NewModulePools()
	b := NewBuilder(pools)
	c := b.Const_(ConstInt32(5))
	l := b.Local(c)
	b.Store(l, b.Const_(ConstInt32(7)))
	return pools, b.Finish()
}

func TestJSONRoundTrip(t *testing.T) {
	// a dump/load round trip preserves ids, instructions, and types.
	pools, bb := buildRoundTripFixture(t)
	data, err := DumpJSON(bb)
	require.NoError(t, err)

	loadPools := NewModulePools()
	loaded, err := LoadJSON(data, loadPools)
	require.NoError(t, err)

	sameShape(t, bb, loaded)
	_ = pools
}

func TestBinaryRoundTrip(t *testing.T) {
	// a dump/load round trip preserves ids, instructions, and types.
	_, bb := buildRoundTripFixture(t)
	data := DumpBinary(bb)

	loadPools := NewModulePools()
	loaded := LoadBinary(data, loadPools)

	sameShape(t, bb, loaded)
}

func TestJSONRoundTripWithControlFlow(t *testing.T) {
	pools := NewModulePools()
	b := NewBuilder(pools)
	cond := b.Const_(ConstBool(true))

	tb := NewBuilder(pools)
	tb.Return_(nil)
	trueBranch := tb.Finish()
	falseBranch := NewBasicBlock(pools)

	b.If_(cond, trueBranch, falseBranch)
	bb := b.Finish()

	data, err := DumpJSON(bb)
	require.NoError(t, err)

	loadPools := NewModulePools()
	loaded, err := LoadJSON(data, loadPools)
	require.NoError(t, err)
	sameShape(t, bb, loaded)

	loadedIf := loaded.Iter()[1]
	require.Equal(t, InstIf, loadedIf.Instruction.Kind)
	assert.Len(t, loadedIf.Instruction.TrueBranch.Iter(), 1)
	assert.True(t, loadedIf.Instruction.FalseBranch.IsEmpty() || len(loadedIf.Instruction.FalseBranch.Iter()) == 0)
}

func TestBinaryRoundTripWithCallableCall(t *testing.T) {
	pools := NewModulePools()

	cb := NewBuilder(pools)
	arg := cb.Argument(PrimitiveType(Float32), true)
	cb.Return_(arg)
	callable := &CallableModule{
		Module:  Module{Kind: KindFunction, Entry: cb.Finish(), Pools: pools},
		RetType: PrimitiveType(Float32),
		Args:    []NodeRef{arg},
	}

	b := NewBuilder(pools)
	x := b.Const_(ConstFloat32(2))
	b.CallCallable(callable, []NodeRef{x}, PrimitiveType(Float32))
	bb := b.Finish()

	loadPools := NewModulePools()
	loaded := LoadBinary(DumpBinary(bb), loadPools)
	sameShape(t, bb, loaded)

	call := loaded.Iter()[1]
	require.Equal(t, InstCall, call.Instruction.Kind)
	require.Equal(t, FuncCallable, call.Instruction.Func)
	require.NotNil(t, call.Instruction.Callable)
	assert.Same(t, PrimitiveType(Float32), call.Instruction.Callable.RetType)
	require.Len(t, call.Instruction.Callable.Args, 1)
	assert.Equal(t, arg.ID(), call.Instruction.Callable.Args[0].ID())
}

func TestHumanReadableDumpContainsMnemonics(t *testing.T) {
	_, bb := buildRoundTripFixture(t)
	s := DumpHumanReadable(bb)
	assert.Contains(t, s, "const")
	assert.Contains(t, s, "local")
	assert.Contains(t, s, "update")
}

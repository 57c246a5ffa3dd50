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

func buildThreeConstBlock(t *testing.T, pools *ModulePools) (*BasicBlock, []NodeRef) {
	t.Helper()
	b := NewBuilder(pools)
	n1 := b.Const_(ConstInt32(1))
	n2 := b.Const_(ConstInt32(2))
	n3 := b.Const_(ConstInt32(3))
	return b.Finish(), []NodeRef{n1, n2, n3}
}

func TestLinkIntegrity(t *testing.T) {
	// every linked node is reachable and consistently back-linked.
	pools := NewModulePools()
	bb, nodes := buildThreeConstBlock(t, pools)

	assert.False(t, Valid(bb.First.prev))
	assert.False(t, Valid(bb.Last.next))

	for _, n := range nodes {
		assert.Same(t, n, n.prev.next)
		assert.Same(t, n, n.next.prev)
	}

	steps := 0
	for it := bb.First.next; it != bb.Last; it = it.next {
		steps++
		require.LessOrEqual(t, steps, bb.Len()+1)
	}
	assert.Equal(t, len(nodes), steps)
}

func TestPushOrderIsProgramOrder(t *testing.T) {
	pools := NewModulePools()
	bb, nodes := buildThreeConstBlock(t, pools)
	assert.Equal(t, nodes, bb.Iter())
}

func TestSplitMerge(t *testing.T) {
	// split followed by merge restores the original node sequence.
	pools := NewModulePools()
	bb, nodes := buildThreeConstBlock(t, pools)
	at := nodes[1] // split after the 2nd node

	tail := bb.Split(at, pools)
	assert.Equal(t, nodes[:2], bb.Iter())
	assert.Equal(t, nodes[2:], tail.Iter())

	bb.Merge(tail)
	assert.Equal(t, nodes, bb.Iter())
	assert.True(t, tail.IsEmpty())
}

func TestSplitAtLastNode(t *testing.T) {
	pools := NewModulePools()
	bb, nodes := buildThreeConstBlock(t, pools)
	tail := bb.Split(nodes[2], pools)
	assert.Equal(t, nodes, bb.Iter())
	assert.Empty(t, tail.Iter())
}

func TestRemoveUnlinksNode(t *testing.T) {
	pools := NewModulePools()
	bb, nodes := buildThreeConstBlock(t, pools)
	nodes[1].Remove()
	assert.Equal(t, []NodeRef{nodes[0], nodes[2]}, bb.Iter())
	assert.False(t, nodes[1].IsLinked())
}

func TestInsertAlreadyLinkedPanics(t *testing.T) {
	pools := NewModulePools()
	bb, nodes := buildThreeConstBlock(t, pools)
	assert.Panics(t, func() { bb.Push(nodes[0]) })
}

func TestSplitRequiresLinkedNode(t *testing.T) {
	pools := NewModulePools()
	bb, _ := buildThreeConstBlock(t, pools)
	detached := pools.Nodes.Alloc()
	assignID(detached)
	detached.Type = VoidType()
	detached.Instruction = &Instruction{Kind: InstConst, Const: ConstInt32(9)}
	assert.Panics(t, func() { bb.Split(detached, pools) })
}

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

// BasicBlock is an ordered, intrusively-linked sequence of nodes bounded by
// two sentinel nodes (both instruction Invalid, type Void): First.Next ↔
// Last. Real nodes lie strictly between; iteration begins at First.next
// and stops at Last. The sentinel pattern makes insertion unconditional and
// branch-free and makes the empty block distinguishable from a non-empty
// one without a special case.
type BasicBlock struct {
	First, Last NodeRef
}

func sentinel(pools *ModulePools) NodeRef {
	n := pools.Nodes.Alloc()
	assignID(n)
	n.Type = VoidType()
	n.Instruction = &Instruction{Kind: InstInvalid}
	return n
}

// NewBasicBlock allocates two sentinels, links them, and returns a new
// empty block.
func NewBasicBlock(pools *ModulePools) *BasicBlock {
	bb := pools.Blocks.Alloc()
	bb.First = sentinel(pools)
	bb.Last = sentinel(pools)
	bb.First.next = bb.Last
	bb.Last.prev = bb.First
	return bb
}

// IsEmpty reports whether the block holds no real nodes: the head
// sentinel's successor is the tail sentinel, which Push/Remove maintain.
func (bb *BasicBlock) IsEmpty() bool {
	return bb.First.next == bb.Last
}

// Len reports the number of real (non-sentinel) nodes.
func (bb *BasicBlock) Len() int {
	n := 0
	for it := bb.First.next; it != bb.Last; it = it.next {
		n++
	}
	return n
}

// Iter returns the real nodes in forward program order. Safe to observe
// but not to mutate block links while ranging over the result — callers
// that need to mutate during traversal should snapshot via IntoVec first.
func (bb *BasicBlock) Iter() []NodeRef {
	var nodes []NodeRef
	for it := bb.First.next; it != bb.Last; it = it.next {
		nodes = append(nodes, it)
	}
	return nodes
}

// Phis returns the subset of Iter() whose instruction is Phi.
func (bb *BasicBlock) Phis() []NodeRef {
	var phis []NodeRef
	for _, n := range bb.Iter() {
		if n.IsPhi() {
			phis = append(phis, n)
		}
	}
	return phis
}

// Push appends n immediately before the tail sentinel.
func (bb *BasicBlock) Push(n NodeRef) {
	bb.Last.InsertBeforeSelf(n)
}

// IntoVec drains all real nodes into a returned, unlinked sequence and
// re-seals the sentinels so bb becomes empty.
func (bb *BasicBlock) IntoVec() []NodeRef {
	nodes := bb.Iter()
	for _, n := range nodes {
		n.prev, n.next = nil, nil
	}
	bb.First.next = bb.Last
	bb.Last.prev = bb.First
	return nodes
}

// Split partitions bb at at: the returned block contains (at.next ..
// old last), and at remains in bb as its new last real element. Panics if
// at is not linked in bb.
func (bb *BasicBlock) Split(at NodeRef, pools *ModulePools) *BasicBlock {
	if !Valid(at.prev) && !Valid(at.next) {
		panic("ir: Split() called with an unlinked node")
	}
	found := false
	for it := bb.First.next; it != bb.Last; it = it.next {
		if it == at {
			found = true
			break
		}
	}
	if !found {
		panic("ir: Split() called with a node not linked in this block")
	}

	tail := NewBasicBlock(pools)
	rest := at.next // first node of the tail, possibly Last
	if rest != bb.Last {
		// Splice (rest .. old last) into tail, between its sentinels.
		oldLast := bb.Last.prev
		tail.First.next = rest
		rest.prev = tail.First
		tail.Last.prev = oldLast
		oldLast.next = tail.Last
	}
	at.next = bb.Last
	bb.Last.prev = at
	return tail
}

// Merge drains other into bb, appending in order; other is emptied
// (resealed to an empty block of its own sentinels).
func (bb *BasicBlock) Merge(other *BasicBlock) {
	for _, n := range other.IntoVec() {
		bb.Push(n)
	}
}

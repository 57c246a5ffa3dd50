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

// ModuleKind discriminates Block/Function/Kernel modules.
type ModuleKind int

const (
	KindBlock ModuleKind = iota
	KindFunction
	KindKernel
)

// Module is the shared core every module kind embeds: the pools it owns
// and its entry block.
type Module struct {
	Kind  ModuleKind
	Entry *BasicBlock
	Pools *ModulePools
}

// BindingKind discriminates the four concrete host-resource bindings a
// Capture may carry.
type BindingKind int

const (
	BindBuffer BindingKind = iota
	BindTexture
	BindBindlessArray
	BindAccel
)

// Binding is the concrete host-side resource a Capture's node stands for.
type Binding struct {
	Kind BindingKind

	// Buffer
	Handle uint64
	Offset uint64
	Size   uint64

	// Texture
	Level uint32
}

// Capture binds a resource marker node (Buffer/Bindless/Texture2D/
// Texture3D/Accel) to a concrete host Binding. The node's lifetime is the
// enclosing module.
type Capture struct {
	Node    NodeRef
	Binding Binding
}

// KernelModule is a dispatchable compute kernel: captures, value
// arguments, group-shared memory, nested callables/CPU custom ops, and the
// dispatch block size.
type KernelModule struct {
	Module
	Captures     []Capture
	Args         []NodeRef
	Shared       []NodeRef
	Callables    []*CallableModule
	CpuCustomOps []*CpuCustomOp
	BlockSize    [3]uint32
}

// CallableModule is a function callable from kernels and other callables:
// a return type, arguments, and its own captures (callables may themselves
// reference resources bound at the call site).
type CallableModule struct {
	Module
	RetType      *Type
	Args         []NodeRef
	Captures     []Capture
	Callables    []*CallableModule
	CpuCustomOps []*CpuCustomOp
}

// BlockModule wraps an already-built, free-standing block (e.g. the body
// of a callable fragment under analysis outside a full kernel/callable
// context).
type BlockModule struct {
	Module
}

// FromFragment produces a BlockModule wrapping an already-built entry
// block, per the Module construction contract: kernel and callable modules
// are assembled directly by the caller, but a bare fragment is wrapped
// here.
func FromFragment(entry *BasicBlock, pools *ModulePools) *BlockModule {
	return &BlockModule{Module: Module{Kind: KindBlock, Entry: entry, Pools: pools}}
}

// nestedBlocks returns the child blocks directly owned by n's instruction,
// in the order a depth-first walk should descend into them.
func nestedBlocks(n NodeRef) []*BasicBlock {
	i := n.Instruction
	switch i.Kind {
	case InstIf:
		return []*BasicBlock{i.TrueBranch, i.FalseBranch}
	case InstLoop:
		return []*BasicBlock{i.Body}
	case InstGenericLoop:
		return []*BasicBlock{i.Prepare, i.Body, i.Update2}
	case InstSwitch:
		blocks := make([]*BasicBlock, 0, len(i.Cases)+1)
		blocks = append(blocks, i.Default)
		for _, c := range i.Cases {
			blocks = append(blocks, c.Block)
		}
		return blocks
	case InstAdScope, InstAdDetach:
		return []*BasicBlock{i.Scope}
	case InstRayQuery:
		return []*BasicBlock{i.OnTriangleHit, i.OnProceduralHit}
	default:
		return nil
	}
}

// CollectNodes performs a depth-first traversal over the entry block's
// nodes plus the nested blocks reachable through If/Loop/GenericLoop/
// Switch/AdScope/AdDetach/RayQuery, visiting each node at most once and
// returning the discovery order. The visited set guards against blocks
// shared across structural positions.
func CollectNodes(entry *BasicBlock) []NodeRef {
	visited := make(map[NodeRef]bool)
	var order []NodeRef

	var walk func(bb *BasicBlock)
	walk = func(bb *BasicBlock) {
		if bb == nil {
			return
		}
		for _, n := range bb.Iter() {
			if visited[n] {
				continue
			}
			visited[n] = true
			order = append(order, n)
			for _, child := range nestedBlocks(n) {
				walk(child)
			}
		}
	}
	walk(entry)
	return order
}

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

import "github.com/ajroetker/gpuir/internal/irlog"

// Builder is the typed construction API for every instruction. It holds an
// insertion cursor that always lies inside its block (including the head
// sentinel, for an empty block); Append inserts immediately after the
// cursor and advances it, so sequential calls produce forward program
// order.
type Builder struct {
	bb             *BasicBlock
	insertionPoint NodeRef
	pools          *ModulePools
}

// BuilderOption configures a Builder at construction time.
type BuilderOption func(*Builder)

// WithExistingBlock resumes construction into an already-built block,
// positioning the cursor at its current last real node (or the head
// sentinel if bb is empty) instead of starting a fresh block.
func WithExistingBlock(bb *BasicBlock) BuilderOption {
	return func(b *Builder) {
		b.bb = bb
		if bb.IsEmpty() {
			b.insertionPoint = bb.First
		} else {
			b.insertionPoint = bb.Last.prev
		}
	}
}

// NewBuilder returns a Builder over a fresh, empty basic block allocated
// from pools, or over an existing block if WithExistingBlock is supplied.
func NewBuilder(pools *ModulePools, opts ...BuilderOption) *Builder {
	bb := NewBasicBlock(pools)
	b := &Builder{bb: bb, insertionPoint: bb.First, pools: pools}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetInsertPoint repositions the cursor to n, which must already be linked
// in the builder's block (or be the block's head sentinel).
func (b *Builder) SetInsertPoint(n NodeRef) {
	if n != b.bb.First && !n.IsLinked() {
		panic("ir: SetInsertPoint() given a node not linked in this builder's block")
	}
	b.insertionPoint = n
}

func (b *Builder) newNode(t *Type, inst *Instruction) NodeRef {
	n := b.pools.Nodes.Alloc()
	assignID(n)
	n.Type = t
	n.Instruction = inst
	return n
}

// append inserts n immediately after the cursor and advances the cursor to
// n, the single choke point every construction method below routes
// through. If the cursor has gone stale (unlinked from bb without going
// through SetInsertPoint, e.g. a caller removed it directly), this falls
// back to the block's last real node rather than panicking, logging the
// fallback at Debug since it signals a construction-order bug worth
// noticing but not worth failing the build over.
func (b *Builder) append(n NodeRef) NodeRef {
	if b.insertionPoint != b.bb.First && !b.insertionPoint.IsLinked() {
		irlog.Debug("ir: builder append: insertion point unlinked from its block, falling back to block tail")
		b.insertionPoint = b.bb.Last.prev
	}
	b.insertionPoint.InsertAfterSelf(n)
	b.insertionPoint = n
	return n
}

// Const_ appends a constant-value node.
func (b *Builder) Const_(c Const) NodeRef {
	return b.append(b.newNode(c.Type, &Instruction{Kind: InstConst, Const: c}))
}

// resourceMarker appends one of the nullary resource-binding leaves that
// identify a node as a resource root for capture binding and usage
// analysis.
func (b *Builder) resourceMarker(kind InstructionKind, t *Type) NodeRef {
	return b.append(b.newNode(t, &Instruction{Kind: kind}))
}

func (b *Builder) Buffer(t *Type) NodeRef     { return b.resourceMarker(InstBuffer, t) }
func (b *Builder) Bindless(t *Type) NodeRef   { return b.resourceMarker(InstBindless, t) }
func (b *Builder) Texture2D(t *Type) NodeRef  { return b.resourceMarker(InstTexture2D, t) }
func (b *Builder) Texture3D(t *Type) NodeRef  { return b.resourceMarker(InstTexture3D, t) }
func (b *Builder) Accel(t *Type) NodeRef      { return b.resourceMarker(InstAccel, t) }
func (b *Builder) Shared(t *Type) NodeRef     { return b.resourceMarker(InstShared, t) }
func (b *Builder) Uniform(t *Type) NodeRef    { return b.resourceMarker(InstUniform, t) }

// Argument appends a callable-parameter marker. byValue distinguishes a
// plain value parameter from a by-reference (l-value) one.
func (b *Builder) Argument(t *Type, byValue bool) NodeRef {
	return b.append(b.newNode(t, &Instruction{Kind: InstArgument, ByValue: byValue}))
}

// Local appends an allocation initialized from init.
func (b *Builder) Local(init NodeRef) NodeRef {
	return b.append(b.newNode(init.Type, &Instruction{Kind: InstLocal, Init: init}))
}

// LocalZeroInit appends a zero-initialized allocation of type t.
func (b *Builder) LocalZeroInit(t *Type) NodeRef {
	zero := b.ZeroInitializer(t)
	return b.append(b.newNode(t, &Instruction{Kind: InstLocal, Init: zero}))
}

// ZeroInitializer emits Call(ZeroInitializer, [], t).
func (b *Builder) ZeroInitializer(t *Type) NodeRef {
	return b.Call(FuncZeroInitializer, nil, t)
}

// CloneNode shallow-copies n's instruction and type into a fresh node with
// its own links, appended at the cursor.
func (b *Builder) CloneNode(n NodeRef) NodeRef {
	instCopy := *n.Instruction
	return b.append(b.newNode(n.Type, &instCopy))
}

// Call is the single entry point for every Func intrinsic; it appends and
// returns the resulting node.
func (b *Builder) Call(f Func, args []NodeRef, ret *Type) NodeRef {
	return b.append(b.newNode(ret, &Instruction{Kind: InstCall, Func: f, Args: args}))
}

// CallCallable appends a Call(Callable) node targeting callable.
func (b *Builder) CallCallable(callable *CallableModule, args []NodeRef, ret *Type) NodeRef {
	return b.append(b.newNode(ret, &Instruction{Kind: InstCall, Func: FuncCallable, Args: args, Callable: callable}))
}

// CallCpuCustomOp appends a Call(CpuCustomOp) node targeting op. The op's
// callback is invoked by a CPU backend driver, never by this package.
func (b *Builder) CallCpuCustomOp(op *CpuCustomOp, args []NodeRef, ret *Type) NodeRef {
	return b.append(b.newNode(ret, &Instruction{Kind: InstCall, Func: FuncCpuCustomOp, Args: args, CustomOp: op}))
}

// Store/Update require var.IsLValue(); they emit Update{var, value} with
// void type. Store and Update are the same operation under two names.
func (b *Builder) Store(v NodeRef, value NodeRef) NodeRef { return b.Update(v, value) }

func (b *Builder) Update(v NodeRef, value NodeRef) NodeRef {
	if !v.IsLValue() {
		panic("ir: Update() target is not an l-value")
	}
	return b.append(b.newNode(VoidType(), &Instruction{Kind: InstUpdate, Var: v, Value: value}))
}

// Load emits an explicit Call(Load) of the value behind an l-value.
func (b *Builder) Load(v NodeRef) NodeRef {
	if !v.IsLValue() {
		panic("ir: Load() source is not an l-value")
	}
	return b.Call(FuncLoad, []NodeRef{v}, v.Type)
}

// Cast/Bitcast wrap Func Cast/Bitcast.
func (b *Builder) Cast(n NodeRef, t *Type) NodeRef    { return b.Call(FuncCast, []NodeRef{n}, t) }
func (b *Builder) Bitcast(n NodeRef, t *Type) NodeRef { return b.Call(FuncBitcast, []NodeRef{n}, t) }

// Extract emits Call(ExtractElement, [n, const Int32(index)], t).
func (b *Builder) Extract(n NodeRef, index int32, t *Type) NodeRef {
	idx := b.Const_(ConstInt32(index))
	return b.Call(FuncExtractElement, []NodeRef{n, idx}, t)
}

// Phi appends incoming (value, predecessor-block) pairs as an SSA merge of
// type t. Special case: when t is the UserData type, all non-unreachable
// incoming values must share tag, equality function, and equal data; if so
// Phi elides the merge node entirely and returns the first incoming value.
func (b *Builder) Phi(incoming []PhiIncoming, t *Type) NodeRef {
	if t.Kind == KindUserData {
		var live []PhiIncoming
		for _, inc := range incoming {
			if Valid(inc.Value) {
				live = append(live, inc)
			}
		}
		if len(live) == 0 {
			panic("ir: Phi() of userdata type has no reachable incoming value")
		}
		first := live[0].Value.Instruction.UserData
		for _, inc := range live[1:] {
			ud := inc.Value.Instruction.UserData
			if ud.Tag != first.Tag {
				panic("ir: Phi() userdata incoming values carry different tags")
			}
			if first.Eq == nil || !first.Eq(first.Data, ud.Data) {
				panic("ir: Phi() userdata incoming values are not equal")
			}
		}
		return live[0].Value
	}
	return b.append(b.newNode(t, &Instruction{Kind: InstPhi, Incoming: incoming}))
}

// If_ appends a structured If statement node (type Void).
func (b *Builder) If_(cond NodeRef, trueBranch, falseBranch *BasicBlock) NodeRef {
	return b.append(b.newNode(VoidType(), &Instruction{Kind: InstIf, Cond: cond, TrueBranch: trueBranch, FalseBranch: falseBranch}))
}

// Switch_ appends a structured Switch statement node (type Void).
func (b *Builder) Switch_(value NodeRef, dflt *BasicBlock, cases []SwitchCase) NodeRef {
	return b.append(b.newNode(VoidType(), &Instruction{Kind: InstSwitch, Var: value, Default: dflt, Cases: cases}))
}

// Loop_ appends a post-test structured Loop statement node (type Void).
func (b *Builder) Loop_(body *BasicBlock, cond NodeRef) NodeRef {
	return b.append(b.newNode(VoidType(), &Instruction{Kind: InstLoop, Body: body, Cond: cond}))
}

// GenericLoop_ appends a pre-test structured loop with an explicit update
// block run on Continue (type Void).
func (b *Builder) GenericLoop_(prepare *BasicBlock, cond NodeRef, body, update *BasicBlock) NodeRef {
	return b.append(b.newNode(VoidType(), &Instruction{Kind: InstGenericLoop, Prepare: prepare, Cond: cond, Body: body, Update2: update}))
}

// AdScope_ appends an automatic-differentiation scope node (type Void).
func (b *Builder) AdScope_(body *BasicBlock) NodeRef {
	return b.append(b.newNode(VoidType(), &Instruction{Kind: InstAdScope, Scope: body}))
}

// AdDetach_ appends an automatic-differentiation detach node (type Void).
func (b *Builder) AdDetach_(body *BasicBlock) NodeRef {
	return b.append(b.newNode(VoidType(), &Instruction{Kind: InstAdDetach, Scope: body}))
}

// RayQuery appends a ray-query statement with an explicit result type
// (unlike the other control-flow statements, which are always Void).
func (b *Builder) RayQuery(query NodeRef, onTriangleHit, onProceduralHit *BasicBlock, t *Type) NodeRef {
	return b.append(b.newNode(t, &Instruction{Kind: InstRayQuery, RayQueryValue: query, OnTriangleHit: onTriangleHit, OnProceduralHit: onProceduralHit}))
}

// Break_/Continue_ append their respective terminators (type Void).
func (b *Builder) Break_() NodeRef    { return b.append(b.newNode(VoidType(), &Instruction{Kind: InstBreak})) }
func (b *Builder) Continue_() NodeRef { return b.append(b.newNode(VoidType(), &Instruction{Kind: InstContinue})) }

// Return_ appends a Return terminator carrying an optional value (type
// Void; value may be the invalid reference for a value-less return).
func (b *Builder) Return_(value NodeRef) NodeRef {
	return b.append(b.newNode(VoidType(), &Instruction{Kind: InstReturn, ReturnValue: value}))
}

// Finish surrenders the built block to the caller.
func (b *Builder) Finish() *BasicBlock {
	return b.bb
}

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

import "fmt"

// Usage is the lattice {NONE, READ, WRITE, READ_WRITE} tracking how a
// resource node is accessed in a kernel.
type Usage int

const (
	UsageNone Usage = iota
	UsageRead
	UsageWrite
	UsageReadWrite
)

// ToU8 encodes u as the 0/1/2/3 wire form expected by the C ABI.
func (u Usage) ToU8() uint8 { return uint8(u) }

// Mark joins cur with m in the usage lattice: NONE sits below both READ
// and WRITE, and READ/WRITE are incomparable, joining to READ_WRITE.
func Mark(cur, m Usage) Usage {
	switch {
	case cur == m:
		return cur
	case cur == UsageNone:
		return m
	case m == UsageNone:
		return cur
	default:
		return UsageReadWrite
	}
}

func isResourceKind(k InstructionKind) bool {
	switch k {
	case InstBuffer, InstBindless, InstTexture2D, InstTexture3D, InstAccel, InstShared, InstUniform, InstArgument:
		return true
	default:
		return false
	}
}

// resourceRoot unwraps a chain of GetElementPtr calls down to the
// resource-marker node it ultimately indexes into, reporting ok=false if
// the chain does not bottom out on a resource-kind node.
func resourceRoot(n NodeRef) (NodeRef, bool) {
	cur := n
	for cur.Instruction.Kind == InstCall && cur.Instruction.Func == FuncGetElementPtr {
		if len(cur.Instruction.Args) == 0 {
			return nil, false
		}
		cur = cur.Instruction.Args[0]
	}
	if isResourceKind(cur.Instruction.Kind) {
		return cur, true
	}
	return nil, false
}

var pureReadFuncs = map[Func]bool{
	FuncBufferRead:                   true,
	FuncBufferSize:                   true,
	FuncTexture2DRead:                true,
	FuncTexture3DRead:                true,
	FuncBindlessBufferRead:           true,
	FuncBindlessBufferSize:           true,
	FuncBindlessTexture2DSample:      true,
	FuncBindlessTexture2DSampleLevel: true,
	FuncBindlessTexture2DRead:        true,
	FuncBindlessTexture3DSample:      true,
	FuncBindlessTexture3DSampleLevel: true,
	FuncBindlessTexture3DRead:        true,
	FuncRayTracingTraceClosest:       true,
	FuncRayTracingTraceAny:           true,
	FuncRayTracingQueryAll:           true,
	FuncRayTracingQueryAny:           true,
	FuncRayTracingInstanceTransform:  true,
}

var pureWriteFuncs = map[Func]bool{
	FuncBufferWrite:                     true,
	FuncTexture2DWrite:                  true,
	FuncTexture3DWrite:                  true,
	FuncRayTracingSetInstanceTransform:  true,
	FuncRayTracingSetInstanceVisibility: true,
	FuncIndirectClearDispatchBuffer:     true,
	FuncIndirectEmplaceDispatchKernel:   true,
	FuncRasterDiscard:                   true,
}

var atomicFuncs = map[Func]bool{
	FuncAtomicExchange:        true,
	FuncAtomicCompareExchange: true,
	FuncAtomicFetchAdd:        true,
	FuncAtomicFetchSub:        true,
	FuncAtomicFetchAnd:        true,
	FuncAtomicFetchOr:         true,
	FuncAtomicFetchXor:        true,
	FuncAtomicFetchMin:        true,
	FuncAtomicFetchMax:        true,
}

// usageVisitor accumulates the resource -> Usage map for one kernel.
type usageVisitor struct {
	marks map[NodeRef]Usage
}

func (v *usageVisitor) mark(n NodeRef, u Usage) {
	v.marks[n] = Mark(v.marks[n], u)
}

// implicitLoad applies the "reading a scalar/value from an l-value" rule:
// if operand is an l-value rooted at a resource node, that root is READ. A
// resource-kind node referenced directly as an r-value operand (a by-value
// Argument or a bare Uniform marker, neither of which is ever an l-value)
// is itself the thing being read, so it is marked READ too.
func (v *usageVisitor) implicitLoad(operand NodeRef) {
	if !Valid(operand) {
		return
	}
	if operand.IsLValue() {
		if root, ok := resourceRoot(operand); ok {
			v.mark(root, UsageRead)
		}
		return
	}
	if isResourceKind(operand.Instruction.Kind) {
		v.mark(operand, UsageRead)
	}
}

func (v *usageVisitor) visitCall(n NodeRef) {
	i := n.Instruction
	args := i.Args
	switch {
	case pureReadFuncs[i.Func]:
		if len(args) > 0 {
			if root, ok := resourceRoot(args[0]); ok {
				v.mark(root, UsageRead)
			}
			for _, a := range args[1:] {
				v.implicitLoad(a)
			}
		}
	case pureWriteFuncs[i.Func]:
		if len(args) > 0 {
			if root, ok := resourceRoot(args[0]); ok {
				v.mark(root, UsageWrite)
			}
			for _, a := range args[1:] {
				v.implicitLoad(a)
			}
		}
	case atomicFuncs[i.Func]:
		if len(args) > 0 {
			if root, ok := resourceRoot(args[0]); ok {
				v.mark(root, UsageReadWrite)
			}
			for _, a := range args[1:] {
				v.implicitLoad(a)
			}
		}
	default:
		for _, a := range args {
			v.implicitLoad(a)
		}
	}
}

func (v *usageVisitor) visit(n NodeRef) {
	i := n.Instruction
	switch i.Kind {
	case InstCall:
		v.visitCall(n)
	case InstUpdate:
		if root, ok := resourceRoot(i.Var); ok {
			v.mark(root, UsageWrite)
		}
		v.implicitLoad(i.Value)
	case InstLocal:
		v.implicitLoad(i.Init)
	case InstIf:
		v.implicitLoad(i.Cond)
	case InstLoop:
		v.implicitLoad(i.Cond)
	case InstGenericLoop:
		v.implicitLoad(i.Cond)
	case InstSwitch:
		v.implicitLoad(i.Var)
	case InstReturn:
		v.implicitLoad(i.ReturnValue)
	case InstRayQuery:
		v.implicitLoad(i.RayQueryValue)
	case InstPhi:
		for _, inc := range i.Incoming {
			v.implicitLoad(inc.Value)
		}
	}
}

// DetectUsage walks km's entry block (and every nested control-flow block)
// and classifies every captured/argument resource node as NONE/READ/WRITE/
// READ_WRITE. It returns two parallel u8 sequences (captures then args)
// matching the order of km.Captures and km.Args. Panics with a descriptive
// message naming the missing node if a capture or argument never appears
// in the computed usage map.
func DetectUsage(km *KernelModule) (captures []uint8, args []uint8) {
	v := &usageVisitor{marks: make(map[NodeRef]Usage)}
	for _, n := range CollectNodes(km.Entry) {
		v.visit(n)
	}

	captures = make([]uint8, len(km.Captures))
	for idx, c := range km.Captures {
		u, ok := v.marks[c.Node]
		if !ok {
			panic(fmt.Sprintf("ir: requested resource %d not exist in usage map", c.Node.ID()))
		}
		captures[idx] = u.ToU8()
	}

	args = make([]uint8, len(km.Args))
	for idx, a := range km.Args {
		u, ok := v.marks[a]
		if !ok {
			panic(fmt.Sprintf("ir: requested argument %d not exist in usage map", a.ID()))
		}
		args[idx] = u.ToU8()
	}
	return captures, args
}

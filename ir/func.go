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

// Func enumerates the closed set of intrinsics usable inside a Call
// instruction, organized in families.
type Func int

const (
	// Arithmetic and bitwise binary/unary ops.
	FuncAdd Func = iota
	FuncSub
	FuncMul
	FuncDiv
	FuncRem
	FuncNeg
	FuncNot
	FuncBitAnd
	FuncBitOr
	FuncBitXor
	FuncBitNot
	FuncShl
	FuncShr
	FuncAnd // logical, scalar/vector bool
	FuncOr

	// Comparisons.
	FuncLess
	FuncLessEqual
	FuncGreater
	FuncGreaterEqual
	FuncEqual
	FuncNotEqual

	// Reductions over a vector operand.
	FuncReduceSum
	FuncReduceProd
	FuncReduceMin
	FuncReduceMax

	// Math / transcendental.
	FuncAbs
	FuncSqrt
	FuncRsqrt
	FuncSin
	FuncCos
	FuncTan
	FuncAsin
	FuncAcos
	FuncAtan
	FuncAtan2
	FuncExp
	FuncExp2
	FuncLog
	FuncLog2
	FuncLog10
	FuncPow
	FuncFloor
	FuncCeil
	FuncRound
	FuncTrunc
	// FuncFma computes a*b+c in one fused step; argument order is (a, b, c).
	FuncFma
	FuncCopysign
	FuncClamp
	FuncLerp
	FuncMin
	FuncMax
	FuncSelect

	// Vector/matrix builders and shape ops.
	FuncVec
	FuncVecSplat
	FuncMat
	FuncMatCompMul
	FuncDeterminant
	FuncTranspose
	FuncInverse
	FuncDot
	FuncCross
	FuncLength
	FuncLengthSquared
	FuncNormalize
	FuncFaceforward

	// Composite/structural access. Load is the explicit form of the
	// implicit l-value-in-r-value-position load; backends may emit either.
	FuncLoad
	FuncExtractElement
	FuncInsertElement
	FuncGetElementPtr
	FuncPermute
	FuncStruct
	FuncArray

	// Casts.
	FuncCast
	FuncBitcast

	// Zero-initialization.
	FuncZeroInitializer

	// Buffer access.
	FuncBufferRead
	FuncBufferWrite
	FuncBufferSize

	// Texture access (2D and 3D share the op set; dimensionality is implied
	// by the resource's own type).
	FuncTexture2DRead
	FuncTexture2DWrite
	FuncTexture3DRead
	FuncTexture3DWrite

	// Bindless array access: a single bindless handle indexes into a
	// heterogeneous table of buffers/textures chosen at runtime.
	FuncBindlessBufferRead
	FuncBindlessBufferSize
	FuncBindlessTexture2DSample
	FuncBindlessTexture2DSampleLevel
	FuncBindlessTexture2DRead
	FuncBindlessTexture3DSample
	FuncBindlessTexture3DSampleLevel
	FuncBindlessTexture3DRead

	// Atomics. Exchange/CompareExchange operate on arbitrary scalar types;
	// FetchXxx perform the named op and return the previous value.
	FuncAtomicExchange
	FuncAtomicCompareExchange
	FuncAtomicFetchAdd
	FuncAtomicFetchSub
	FuncAtomicFetchAnd
	FuncAtomicFetchOr
	FuncAtomicFetchXor
	FuncAtomicFetchMin
	FuncAtomicFetchMax

	// Ray tracing.
	FuncRayTracingTraceClosest
	FuncRayTracingTraceAny
	FuncRayTracingQueryAll
	FuncRayTracingQueryAny
	FuncRayTracingInstanceTransform
	FuncRayTracingSetInstanceTransform
	FuncRayTracingSetInstanceVisibility
	FuncRayTracingProceduralCandidateHit
	FuncRayTracingTriangleCandidateHit
	FuncRayTracingCommitTriangle
	FuncRayTracingCommitProcedural

	// Indirect dispatch.
	FuncIndirectClearDispatchBuffer
	FuncIndirectEmplaceDispatchKernel

	// Rasterizer control.
	FuncRasterDiscard

	// Autodiff markers.
	FuncRequiresGradient
	FuncGradient
	FuncGradientMarker
	FuncAccGrad
	FuncDetach

	// Synchronization.
	FuncSynchronizeBlock

	// Calls into user code. Both carry a payload on the Call instruction
	// itself (Instruction.Callable / Instruction.CustomOp).
	FuncCallable
	FuncCpuCustomOp
)

// funcNames maps each Func to its printer mnemonic, indexed by the enum
// value. Kept in declaration order above.
var funcNames = [...]string{
	FuncAdd:          "add",
	FuncSub:          "sub",
	FuncMul:          "mul",
	FuncDiv:          "div",
	FuncRem:          "rem",
	FuncNeg:          "neg",
	FuncNot:          "not",
	FuncBitAnd:       "bit_and",
	FuncBitOr:        "bit_or",
	FuncBitXor:       "bit_xor",
	FuncBitNot:       "bit_not",
	FuncShl:          "shl",
	FuncShr:          "shr",
	FuncAnd:          "and",
	FuncOr:           "or",
	FuncLess:         "less",
	FuncLessEqual:    "less_equal",
	FuncGreater:      "greater",
	FuncGreaterEqual: "greater_equal",
	FuncEqual:        "equal",
	FuncNotEqual:     "not_equal",
	FuncReduceSum:    "reduce_sum",
	FuncReduceProd:   "reduce_prod",
	FuncReduceMin:    "reduce_min",
	FuncReduceMax:    "reduce_max",
	FuncAbs:          "abs",
	FuncSqrt:         "sqrt",
	FuncRsqrt:        "rsqrt",
	FuncSin:          "sin",
	FuncCos:          "cos",
	FuncTan:          "tan",
	FuncAsin:         "asin",
	FuncAcos:         "acos",
	FuncAtan:         "atan",
	FuncAtan2:        "atan2",
	FuncExp:          "exp",
	FuncExp2:         "exp2",
	FuncLog:          "log",
	FuncLog2:         "log2",
	FuncLog10:        "log10",
	FuncPow:          "pow",
	FuncFloor:        "floor",
	FuncCeil:         "ceil",
	FuncRound:        "round",
	FuncTrunc:        "trunc",
	FuncFma:          "fma",
	FuncCopysign:     "copysign",
	FuncClamp:        "clamp",
	FuncLerp:         "lerp",
	FuncMin:          "min",
	FuncMax:          "max",
	FuncSelect:       "select",

	FuncVec:           "vec",
	FuncVecSplat:      "vec_splat",
	FuncMat:           "mat",
	FuncMatCompMul:    "mat_comp_mul",
	FuncDeterminant:   "determinant",
	FuncTranspose:     "transpose",
	FuncInverse:       "inverse",
	FuncDot:           "dot",
	FuncCross:         "cross",
	FuncLength:        "length",
	FuncLengthSquared: "length_squared",
	FuncNormalize:     "normalize",
	FuncFaceforward:   "faceforward",

	FuncLoad:           "load",
	FuncExtractElement: "extract_element",
	FuncInsertElement:  "insert_element",
	FuncGetElementPtr:  "get_element_ptr",
	FuncPermute:        "permute",
	FuncStruct:         "struct",
	FuncArray:          "array",

	FuncCast:            "cast",
	FuncBitcast:         "bitcast",
	FuncZeroInitializer: "zero_initializer",

	FuncBufferRead:  "buffer_read",
	FuncBufferWrite: "buffer_write",
	FuncBufferSize:  "buffer_size",

	FuncTexture2DRead:  "texture2d_read",
	FuncTexture2DWrite: "texture2d_write",
	FuncTexture3DRead:  "texture3d_read",
	FuncTexture3DWrite: "texture3d_write",

	FuncBindlessBufferRead:           "bindless_buffer_read",
	FuncBindlessBufferSize:           "bindless_buffer_size",
	FuncBindlessTexture2DSample:      "bindless_texture2d_sample",
	FuncBindlessTexture2DSampleLevel: "bindless_texture2d_sample_level",
	FuncBindlessTexture2DRead:        "bindless_texture2d_read",
	FuncBindlessTexture3DSample:      "bindless_texture3d_sample",
	FuncBindlessTexture3DSampleLevel: "bindless_texture3d_sample_level",
	FuncBindlessTexture3DRead:        "bindless_texture3d_read",

	FuncAtomicExchange:        "atomic_exchange",
	FuncAtomicCompareExchange: "atomic_compare_exchange",
	FuncAtomicFetchAdd:        "atomic_fetch_add",
	FuncAtomicFetchSub:        "atomic_fetch_sub",
	FuncAtomicFetchAnd:        "atomic_fetch_and",
	FuncAtomicFetchOr:         "atomic_fetch_or",
	FuncAtomicFetchXor:        "atomic_fetch_xor",
	FuncAtomicFetchMin:        "atomic_fetch_min",
	FuncAtomicFetchMax:        "atomic_fetch_max",

	FuncRayTracingTraceClosest:           "ray_tracing_trace_closest",
	FuncRayTracingTraceAny:               "ray_tracing_trace_any",
	FuncRayTracingQueryAll:               "ray_tracing_query_all",
	FuncRayTracingQueryAny:               "ray_tracing_query_any",
	FuncRayTracingInstanceTransform:      "ray_tracing_instance_transform",
	FuncRayTracingSetInstanceTransform:   "ray_tracing_set_instance_transform",
	FuncRayTracingSetInstanceVisibility:  "ray_tracing_set_instance_visibility",
	FuncRayTracingProceduralCandidateHit: "ray_tracing_procedural_candidate_hit",
	FuncRayTracingTriangleCandidateHit:   "ray_tracing_triangle_candidate_hit",
	FuncRayTracingCommitTriangle:         "ray_tracing_commit_triangle",
	FuncRayTracingCommitProcedural:       "ray_tracing_commit_procedural",

	FuncIndirectClearDispatchBuffer:   "indirect_clear_dispatch_buffer",
	FuncIndirectEmplaceDispatchKernel: "indirect_emplace_dispatch_kernel",

	FuncRasterDiscard: "raster_discard",

	FuncRequiresGradient: "requires_gradient",
	FuncGradient:         "gradient",
	FuncGradientMarker:   "gradient_marker",
	FuncAccGrad:          "acc_grad",
	FuncDetach:           "detach",

	FuncSynchronizeBlock: "synchronize_block",

	FuncCallable:    "callable",
	FuncCpuCustomOp: "cpu_custom_op",
}

// String returns f's printer mnemonic.
func (f Func) String() string {
	if int(f) < len(funcNames) && funcNames[f] != "" {
		return funcNames[f]
	}
	return fmt.Sprintf("func(%d)", int(f))
}

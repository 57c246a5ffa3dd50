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

// Package abi is the C ABI boundary: the host compiler driver's sole
// supported way to construct, traverse, and analyze ir.Module values from
// outside the Go runtime.
//
// Handles crossing the boundary are runtime/cgo.Handle values, cast to
// uintptr_t on the C side: the idiomatic way to pass a Go-side object
// identity across cgo without violating the cgo pointer-passing rules.
// The caller must release every handle it receives with gpuir_ir_release
// exactly once; handles are otherwise opaque and must never be
// dereferenced on the C side.
package abi

/*
#include <stdint.h>
#include <stdlib.h>

typedef struct {
	uint8_t *data;
	size_t len;
} gpuir_bytes;
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"

	"github.com/ajroetker/gpuir/ir"
)

// handleOf wraps v in a cgo.Handle and returns its boundary-crossing form.
func handleOf(v interface{}) C.uintptr_t {
	return C.uintptr_t(cgo.NewHandle(v))
}

func valueOf(h C.uintptr_t) interface{} {
	return cgo.Handle(h).Value()
}

//export gpuir_ir_release
// gpuir_ir_release deletes the Go-side object identity behind h. Safe to
// call exactly once per handle returned by any function below; calling it
// a second time on the same handle panics (cgo.Handle.Delete's own
// contract); boundary misuse is a caller bug, not a recoverable
// condition.
func gpuir_ir_release(h C.uintptr_t) {
	cgo.Handle(h).Delete()
}

//export gpuir_ir_register_type
// gpuir_ir_register_type interns the *ir.Type behind tyHandle and returns a
// handle to the canonical, possibly-shared result.
func gpuir_ir_register_type(tyHandle C.uintptr_t) C.uintptr_t {
	t := valueOf(tyHandle).(*ir.Type)
	return handleOf(ir.RegisterType(t))
}

//export gpuir_ir_void_type
func gpuir_ir_void_type() C.uintptr_t { return handleOf(ir.VoidType()) }

//export gpuir_ir_primitive_type
func gpuir_ir_primitive_type(p C.int) C.uintptr_t {
	return handleOf(ir.PrimitiveType(ir.Primitive(p)))
}

//export gpuir_ir_vector_type
func gpuir_ir_vector_type(p C.int, length C.uint32_t) C.uintptr_t {
	return handleOf(ir.VectorOf(ir.Primitive(p), uint32(length)))
}

//export gpuir_ir_new_module_pools
func gpuir_ir_new_module_pools() C.uintptr_t {
	return handleOf(ir.NewModulePools())
}

//export gpuir_ir_new_builder
// gpuir_ir_new_builder returns a fresh Builder over an empty block allocated
// from poolsHandle.
func gpuir_ir_new_builder(poolsHandle C.uintptr_t) C.uintptr_t {
	pools := valueOf(poolsHandle).(*ir.ModulePools)
	return handleOf(ir.NewBuilder(pools))
}

//export gpuir_ir_build_const_i32
func gpuir_ir_build_const_i32(builderHandle C.uintptr_t, v C.int32_t) C.uintptr_t {
	b := valueOf(builderHandle).(*ir.Builder)
	return handleOf(b.Const_(ir.ConstInt32(int32(v))))
}

//export gpuir_ir_build_local
func gpuir_ir_build_local(builderHandle, initHandle C.uintptr_t) C.uintptr_t {
	b := valueOf(builderHandle).(*ir.Builder)
	init := valueOf(initHandle).(ir.NodeRef)
	return handleOf(b.Local(init))
}

//export gpuir_ir_build_buffer
// gpuir_ir_build_buffer appends a buffer resource-marker node of the type
// behind typeHandle; the returned node handle is what a capture binds to.
func gpuir_ir_build_buffer(builderHandle, typeHandle C.uintptr_t) C.uintptr_t {
	b := valueOf(builderHandle).(*ir.Builder)
	return handleOf(b.Buffer(valueOf(typeHandle).(*ir.Type)))
}

//export gpuir_ir_build_texture2d
func gpuir_ir_build_texture2d(builderHandle, typeHandle C.uintptr_t) C.uintptr_t {
	b := valueOf(builderHandle).(*ir.Builder)
	return handleOf(b.Texture2D(valueOf(typeHandle).(*ir.Type)))
}

//export gpuir_ir_build_argument
// gpuir_ir_build_argument appends a parameter marker node; byValue zero
// makes it a by-reference (l-value) parameter.
func gpuir_ir_build_argument(builderHandle, typeHandle C.uintptr_t, byValue C.int) C.uintptr_t {
	b := valueOf(builderHandle).(*ir.Builder)
	return handleOf(b.Argument(valueOf(typeHandle).(*ir.Type), byValue != 0))
}

//export gpuir_ir_build_update
func gpuir_ir_build_update(builderHandle, varHandle, valueHandle C.uintptr_t) {
	b := valueOf(builderHandle).(*ir.Builder)
	v := valueOf(varHandle).(ir.NodeRef)
	val := valueOf(valueHandle).(ir.NodeRef)
	b.Update(v, val)
}

//export gpuir_ir_build_call
// gpuir_ir_build_call appends a Call node for func_ over the nodes whose
// handles are packed into argHandles (argCount entries), returning a handle
// to the resulting node.
func gpuir_ir_build_call(builderHandle C.uintptr_t, func_ C.int, argHandles *C.uintptr_t, argCount C.int, retTypeHandle C.uintptr_t) C.uintptr_t {
	b := valueOf(builderHandle).(*ir.Builder)
	retType := valueOf(retTypeHandle).(*ir.Type)
	n := int(argCount)
	args := make([]ir.NodeRef, n)
	if n > 0 {
		slice := unsafe.Slice(argHandles, n)
		for i, h := range slice {
			args[i] = valueOf(h).(ir.NodeRef)
		}
	}
	return handleOf(b.Call(ir.Func(func_), args, retType))
}

//export gpuir_ir_build_finish
func gpuir_ir_build_finish(builderHandle C.uintptr_t) C.uintptr_t {
	b := valueOf(builderHandle).(*ir.Builder)
	return handleOf(b.Finish())
}

//export gpuir_ir_new_kernel_module
// gpuir_ir_new_kernel_module assembles a kernel module over a finished
// entry block and the pools it was built from. Captures, arguments, and
// group-shared nodes are attached afterwards with the add functions below,
// before the module is handed to usage computation or the dumps.
func gpuir_ir_new_kernel_module(poolsHandle, entryHandle C.uintptr_t, blockX, blockY, blockZ C.uint32_t) C.uintptr_t {
	pools := valueOf(poolsHandle).(*ir.ModulePools)
	entry := valueOf(entryHandle).(*ir.BasicBlock)
	km := &ir.KernelModule{
		Module:    ir.Module{Kind: ir.KindKernel, Entry: entry, Pools: pools},
		BlockSize: [3]uint32{uint32(blockX), uint32(blockY), uint32(blockZ)},
	}
	return handleOf(km)
}

//export gpuir_ir_kernel_module_add_capture
// gpuir_ir_kernel_module_add_capture binds the resource-marker node behind
// nodeHandle to a concrete host binding. kind follows the ir.BindingKind
// encoding (0 buffer, 1 texture, 2 bindless array, 3 accel); offset/size
// apply to buffer bindings and level to texture bindings, zero otherwise.
func gpuir_ir_kernel_module_add_capture(kernelHandle, nodeHandle C.uintptr_t, kind C.int, resource, offset, size C.uint64_t, level C.uint32_t) {
	km := valueOf(kernelHandle).(*ir.KernelModule)
	km.Captures = append(km.Captures, ir.Capture{
		Node: valueOf(nodeHandle).(ir.NodeRef),
		Binding: ir.Binding{
			Kind:   ir.BindingKind(kind),
			Handle: uint64(resource),
			Offset: uint64(offset),
			Size:   uint64(size),
			Level:  uint32(level),
		},
	})
}

//export gpuir_ir_kernel_module_add_arg
func gpuir_ir_kernel_module_add_arg(kernelHandle, nodeHandle C.uintptr_t) {
	km := valueOf(kernelHandle).(*ir.KernelModule)
	km.Args = append(km.Args, valueOf(nodeHandle).(ir.NodeRef))
}

//export gpuir_ir_kernel_module_add_shared
func gpuir_ir_kernel_module_add_shared(kernelHandle, nodeHandle C.uintptr_t) {
	km := valueOf(kernelHandle).(*ir.KernelModule)
	km.Shared = append(km.Shared, valueOf(nodeHandle).(ir.NodeRef))
}

//export gpuir_ir_new_callable_module
// gpuir_ir_new_callable_module assembles a callable module over a finished
// entry block, its pools, and a return type handle. Arguments are attached
// with gpuir_ir_callable_module_add_arg.
func gpuir_ir_new_callable_module(poolsHandle, entryHandle, retTypeHandle C.uintptr_t) C.uintptr_t {
	pools := valueOf(poolsHandle).(*ir.ModulePools)
	entry := valueOf(entryHandle).(*ir.BasicBlock)
	cm := &ir.CallableModule{
		Module:  ir.Module{Kind: ir.KindFunction, Entry: entry, Pools: pools},
		RetType: valueOf(retTypeHandle).(*ir.Type),
	}
	return handleOf(cm)
}

//export gpuir_ir_callable_module_add_arg
func gpuir_ir_callable_module_add_arg(callableHandle, nodeHandle C.uintptr_t) {
	cm := valueOf(callableHandle).(*ir.CallableModule)
	cm.Args = append(cm.Args, valueOf(nodeHandle).(ir.NodeRef))
}

//export gpuir_ir_new_block_module
// gpuir_ir_new_block_module wraps an already-built free-standing block as a
// block module.
func gpuir_ir_new_block_module(poolsHandle, entryHandle C.uintptr_t) C.uintptr_t {
	pools := valueOf(poolsHandle).(*ir.ModulePools)
	entry := valueOf(entryHandle).(*ir.BasicBlock)
	return handleOf(ir.FromFragment(entry, pools))
}

//export gpuir_ir_node_usage
// gpuir_ir_node_usage computes usage for kernelHandle's captures and
// arguments and returns the concatenated (captures..., args...) u8 encoding
// as an owned gpuir_bytes the caller must free with
// gpuir_ir_free_bytes.
func gpuir_ir_node_usage(kernelHandle C.uintptr_t) C.gpuir_bytes {
	km := valueOf(kernelHandle).(*ir.KernelModule)
	captures, args := ir.DetectUsage(km)
	combined := make([]byte, 0, len(captures)+len(args))
	combined = append(combined, captures...)
	combined = append(combined, args...)
	return bytesToC(combined)
}

//export gpuir_ir_decode_const_data
// gpuir_ir_decode_const_data renders the typed byte blob at data/len as a
// C++ literal expression, returned as an owned gpuir_bytes (not
// NUL-terminated; len is authoritative). The caller frees it with
// gpuir_ir_free_bytes.
func gpuir_ir_decode_const_data(data *C.uint8_t, length C.size_t, typeHandle C.uintptr_t) C.gpuir_bytes {
	t := valueOf(typeHandle).(*ir.Type)
	blob := unsafe.Slice((*byte)(data), int(length))
	return bytesToC([]byte(ir.DecodeConstData(blob, t)))
}

//export gpuir_ir_dump_json
func gpuir_ir_dump_json(blockHandle C.uintptr_t) C.gpuir_bytes {
	bb := valueOf(blockHandle).(*ir.BasicBlock)
	data, err := ir.DumpJSON(bb)
	if err != nil {
		return C.gpuir_bytes{}
	}
	return bytesToC(data)
}

//export gpuir_ir_dump_binary
func gpuir_ir_dump_binary(blockHandle C.uintptr_t) C.gpuir_bytes {
	bb := valueOf(blockHandle).(*ir.BasicBlock)
	return bytesToC(ir.DumpBinary(bb))
}

//export gpuir_ir_dump_human_readable
func gpuir_ir_dump_human_readable(blockHandle C.uintptr_t) C.gpuir_bytes {
	bb := valueOf(blockHandle).(*ir.BasicBlock)
	return bytesToC([]byte(ir.DumpHumanReadable(bb)))
}

// bytesToC copies a Go byte slice into a malloc'd C buffer; ownership
// transfers to the caller, who must release it via gpuir_ir_free_bytes.
func bytesToC(b []byte) C.gpuir_bytes {
	if len(b) == 0 {
		return C.gpuir_bytes{}
	}
	ptr := C.malloc(C.size_t(len(b)))
	copy(unsafe.Slice((*byte)(ptr), len(b)), b)
	return C.gpuir_bytes{data: (*C.uint8_t)(ptr), len: C.size_t(len(b))}
}

//export gpuir_ir_free_bytes
// gpuir_ir_free_bytes releases a gpuir_bytes returned by any function
// above (usage, decode, and the dump_* functions). Calling it twice on the same buffer, or on a buffer not returned by
// this package, is undefined behavior (ordinary C free() semantics).
func gpuir_ir_free_bytes(b C.gpuir_bytes) {
	if b.data != nil {
		C.free(unsafe.Pointer(b.data))
	}
}

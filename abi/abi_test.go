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

// Test files cannot import "C", but they can exercise the exported surface
// through type inference over the handle values the boundary functions
// return, which is the only way to reach //export-ed functions from Go.
package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/gpuir/ir"
)

func TestBuildConstLocalUpdateRoundTrip(t *testing.T) {
	poolsHandle := gpuir_ir_new_module_pools()
	defer gpuir_ir_release(poolsHandle)

	builderHandle := gpuir_ir_new_builder(poolsHandle)
	defer gpuir_ir_release(builderHandle)

	c5 := gpuir_ir_build_const_i32(builderHandle, 5)
	defer gpuir_ir_release(c5)
	local := gpuir_ir_build_local(builderHandle, c5)
	defer gpuir_ir_release(local)
	c7 := gpuir_ir_build_const_i32(builderHandle, 7)
	defer gpuir_ir_release(c7)
	gpuir_ir_build_update(builderHandle, local, c7)

	blockHandle := gpuir_ir_build_finish(builderHandle)
	defer gpuir_ir_release(blockHandle)

	bb := valueOf(blockHandle).(*ir.BasicBlock)
	assert.Len(t, bb.Iter(), 4) // const(5), local, const(7), update

	human := gpuir_ir_dump_human_readable(blockHandle)
	defer gpuir_ir_free_bytes(human)
	require.NotZero(t, human.len)
}

func TestRegisterTypeReturnsSharedHandle(t *testing.T) {
	tyHandle := handleOf(ir.PrimitiveType(ir.Int32))
	defer gpuir_ir_release(tyHandle)

	got := gpuir_ir_register_type(tyHandle)
	defer gpuir_ir_release(got)

	assert.Same(t, ir.PrimitiveType(ir.Int32), valueOf(got).(*ir.Type))
}

func TestKernelModuleAssemblyAcrossBoundary(t *testing.T) {
	poolsHandle := gpuir_ir_new_module_pools()
	defer gpuir_ir_release(poolsHandle)
	builderHandle := gpuir_ir_new_builder(poolsHandle)
	defer gpuir_ir_release(builderHandle)

	bufType := handleOf(ir.OpaqueType("Buffer"))
	defer gpuir_ir_release(bufType)
	f32Type := handleOf(ir.PrimitiveType(ir.Float32))
	defer gpuir_ir_release(f32Type)

	buf := gpuir_ir_build_buffer(builderHandle, bufType)
	defer gpuir_ir_release(buf)
	scale := gpuir_ir_build_argument(builderHandle, f32Type, 1)
	defer gpuir_ir_release(scale)
	idx := gpuir_ir_build_const_i32(builderHandle, 0)
	defer gpuir_ir_release(idx)

	b := valueOf(builderHandle).(*ir.Builder)
	read := b.Call(ir.FuncBufferRead,
		[]ir.NodeRef{valueOf(buf).(ir.NodeRef), valueOf(idx).(ir.NodeRef)},
		ir.PrimitiveType(ir.Float32))
	b.Call(ir.FuncMul,
		[]ir.NodeRef{read, valueOf(scale).(ir.NodeRef)},
		ir.PrimitiveType(ir.Float32))

	entryHandle := gpuir_ir_build_finish(builderHandle)
	defer gpuir_ir_release(entryHandle)

	kernelHandle := gpuir_ir_new_kernel_module(poolsHandle, entryHandle, 64, 1, 1)
	defer gpuir_ir_release(kernelHandle)
	gpuir_ir_kernel_module_add_capture(kernelHandle, buf, 0, 1, 0, 4096, 0)
	gpuir_ir_kernel_module_add_arg(kernelHandle, scale)

	usage := gpuir_ir_node_usage(kernelHandle)
	defer gpuir_ir_free_bytes(usage)
	require.EqualValues(t, 2, usage.len)

	km := valueOf(kernelHandle).(*ir.KernelModule)
	captures, args := ir.DetectUsage(km)
	assert.Equal(t, []uint8{uint8(ir.UsageRead)}, captures)
	assert.Equal(t, []uint8{uint8(ir.UsageRead)}, args)
	assert.Equal(t, [3]uint32{64, 1, 1}, km.BlockSize)
}

func TestCallableModuleAssemblyAcrossBoundary(t *testing.T) {
	poolsHandle := gpuir_ir_new_module_pools()
	defer gpuir_ir_release(poolsHandle)
	builderHandle := gpuir_ir_new_builder(poolsHandle)
	defer gpuir_ir_release(builderHandle)

	f32Type := handleOf(ir.PrimitiveType(ir.Float32))
	defer gpuir_ir_release(f32Type)

	arg := gpuir_ir_build_argument(builderHandle, f32Type, 1)
	defer gpuir_ir_release(arg)
	entryHandle := gpuir_ir_build_finish(builderHandle)
	defer gpuir_ir_release(entryHandle)

	callableHandle := gpuir_ir_new_callable_module(poolsHandle, entryHandle, f32Type)
	defer gpuir_ir_release(callableHandle)
	gpuir_ir_callable_module_add_arg(callableHandle, arg)

	cm := valueOf(callableHandle).(*ir.CallableModule)
	require.Len(t, cm.Args, 1)
	assert.Same(t, ir.PrimitiveType(ir.Float32), cm.RetType)
	assert.Equal(t, ir.KindFunction, cm.Kind)
}

func TestNodeUsageEncodesLattice(t *testing.T) {
	poolsHandle := gpuir_ir_new_module_pools()
	defer gpuir_ir_release(poolsHandle)
	pools := valueOf(poolsHandle).(*ir.ModulePools)

	b := ir.NewBuilder(pools)
	buf := b.Buffer(ir.OpaqueType("Buffer"))
	idx := b.Const_(ir.ConstInt32(0))
	b.Call(ir.FuncBufferRead, []ir.NodeRef{buf, idx}, ir.PrimitiveType(ir.Float32))
	entry := b.Finish()

	km := &ir.KernelModule{
		Module:   ir.Module{Kind: ir.KindKernel, Entry: entry, Pools: pools},
		Captures: []ir.Capture{{Node: buf}},
	}
	kernelHandle := handleOf(km)
	defer gpuir_ir_release(kernelHandle)

	usage := gpuir_ir_node_usage(kernelHandle)
	defer gpuir_ir_free_bytes(usage)
	require.EqualValues(t, 1, usage.len)
}

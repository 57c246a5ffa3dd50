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

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ajroetker/gpuir/ir"
)

// manifest is the declarative description of a toy kernel, loaded from a
// YAML file.
type manifest struct {
	Name      string          `yaml:"name"`
	BlockSize [3]uint32       `yaml:"block_size"`
	Captures  []captureConfig `yaml:"captures"`
	Args      []argConfig     `yaml:"args"`
}

type captureConfig struct {
	Binding bindingConfig `yaml:"binding"`
}

type bindingConfig struct {
	Kind   string `yaml:"kind"` // buffer | texture | bindless_array | accel
	Handle uint64 `yaml:"handle"`
	Offset uint64 `yaml:"offset"`
	Size   uint64 `yaml:"size"`
	Level  uint32 `yaml:"level"`
}

type argConfig struct {
	Name      string `yaml:"name"`
	Primitive string `yaml:"primitive"`
}

// loadManifest reads and parses a kernel manifest from path.
func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("irtool: load manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("irtool: parse manifest %s: %w", path, err)
	}
	if len(m.Args) == 0 {
		return nil, fmt.Errorf("irtool: manifest %s declares no args", path)
	}
	return &m, nil
}

func parsePrimitive(name string) (ir.Primitive, error) {
	switch name {
	case "bool":
		return ir.Bool, nil
	case "int16":
		return ir.Int16, nil
	case "uint16":
		return ir.Uint16, nil
	case "int32":
		return ir.Int32, nil
	case "uint32":
		return ir.Uint32, nil
	case "int64":
		return ir.Int64, nil
	case "uint64":
		return ir.Uint64, nil
	case "float32":
		return ir.Float32, nil
	case "float64":
		return ir.Float64, nil
	default:
		return 0, fmt.Errorf("irtool: unknown primitive %q", name)
	}
}

func parseBindingKind(name string) (ir.BindingKind, error) {
	switch name {
	case "buffer":
		return ir.BindBuffer, nil
	case "texture":
		return ir.BindTexture, nil
	case "bindless_array":
		return ir.BindBindlessArray, nil
	case "accel":
		return ir.BindAccel, nil
	default:
		return 0, fmt.Errorf("irtool: unknown binding kind %q", name)
	}
}

// buildKernel constructs a canonical "sum every declared buffer capture,
// scale by the kernel's first argument, write the result back into the
// first capture" kernel from m, exercising the builder's resource markers,
// argument nodes, buffer read/write calls, and arithmetic in one pass. This
// mirrors the scope of a real front end emitting IR directly from builder
// calls, not from parsed source. Every declared capture is wired into the
// body so usage computation has a real answer for each of them.
func buildKernel(m *manifest) (*ir.KernelModule, error) {
	if len(m.Captures) == 0 {
		return nil, fmt.Errorf("irtool: manifest declares no captures")
	}

	pools := ir.NewModulePools()
	b := ir.NewBuilder(pools)

	elemPrim, err := parsePrimitive(m.Args[0].Primitive)
	if err != nil {
		return nil, err
	}
	elemType := ir.PrimitiveType(elemPrim)
	scale := b.Argument(elemType, true)
	idx := b.Const_(ir.ConstInt32(0))

	captures := make([]ir.Capture, len(m.Captures))
	var sum ir.NodeRef
	for i, c := range m.Captures {
		kind, err := parseBindingKind(c.Binding.Kind)
		if err != nil {
			return nil, err
		}
		node := b.Buffer(ir.OpaqueType("Buffer"))
		captures[i] = ir.Capture{
			Node: node,
			Binding: ir.Binding{
				Kind:   kind,
				Handle: c.Binding.Handle,
				Offset: c.Binding.Offset,
				Size:   c.Binding.Size,
				Level:  c.Binding.Level,
			},
		}
		read := b.Call(ir.FuncBufferRead, []ir.NodeRef{node, idx}, elemType)
		if sum == nil {
			sum = read
		} else {
			sum = b.Call(ir.FuncAdd, []ir.NodeRef{sum, read}, elemType)
		}
	}

	scaled := b.Call(ir.FuncMul, []ir.NodeRef{sum, scale}, elemType)
	b.Call(ir.FuncBufferWrite, []ir.NodeRef{captures[0].Node, idx, scaled}, ir.VoidType())
	entry := b.Finish()

	return &ir.KernelModule{
		Module:    ir.Module{Kind: ir.KindKernel, Entry: entry, Pools: pools},
		Captures:  captures,
		Args:      []ir.NodeRef{scale},
		BlockSize: m.BlockSize,
	}, nil
}

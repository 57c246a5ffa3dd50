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

// Command libgpuir is the link target for the C ABI in package abi: a
// //export directive only does something once it is reachable from a
// package main built with -buildmode=c-archive or -buildmode=c-shared.
// This command has no behavior of its own; it exists purely to pull the
// abi package's exported functions into the final shared object (e.g. `go
// build -buildmode=c-shared -o libgpuir.so ./cmd/libgpuir`).
package main

import (
	_ "github.com/ajroetker/gpuir/abi"
)

func main() {}

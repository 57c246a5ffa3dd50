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

	"github.com/spf13/cobra"

	"github.com/ajroetker/gpuir/internal/irlog"
)

func runBuild(cmd *cobra.Command, args []string) error {
	m, err := loadManifest(args[0])
	if err != nil {
		return err
	}
	km, err := buildKernel(m)
	if err != nil {
		return fmt.Errorf("irtool: build %s: %w", args[0], err)
	}

	irlog.Info("built kernel %q: %d nodes, %d captures, %d args", m.Name, km.Entry.Len(), len(km.Captures), len(km.Args))
	fmt.Printf("kernel:   %s\n", m.Name)
	fmt.Printf("nodes:    %d\n", km.Entry.Len())
	fmt.Printf("captures: %d\n", len(km.Captures))
	fmt.Printf("args:     %d\n", len(km.Args))
	return nil
}

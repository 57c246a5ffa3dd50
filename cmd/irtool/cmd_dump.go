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

	"github.com/spf13/cobra"

	"github.com/ajroetker/gpuir/ir"
)

func runDump(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}

	m, err := loadManifest(args[0])
	if err != nil {
		return err
	}
	km, err := buildKernel(m)
	if err != nil {
		return fmt.Errorf("irtool: build %s: %w", args[0], err)
	}

	switch format {
	case "human":
		fmt.Print(ir.DumpHumanReadable(km.Entry))
	case "json":
		data, err := ir.DumpJSON(km.Entry)
		if err != nil {
			return fmt.Errorf("irtool: dump json: %w", err)
		}
		os.Stdout.Write(data)
		fmt.Println()
	case "binary":
		os.Stdout.Write(ir.DumpBinary(km.Entry))
	default:
		return fmt.Errorf("irtool: unknown dump format %q (want human, json, or binary)", format)
	}
	return nil
}

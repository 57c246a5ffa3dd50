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

// Command irtool builds, dumps, and inspects usage of toy kernels
// described by a YAML manifest, exercising the ir package end to end
// without going through the C ABI.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "irtool",
		Short: "Build and inspect GPU compute IR kernels from a manifest",
		Long: `irtool drives the ir package from the command line: it builds a
kernel module from a declarative YAML manifest, dumps it in any of the
three supported formats, and reports the resource/argument usage
lattice computed for it.`,
	}

	buildCmd := &cobra.Command{
		Use:   "build [manifest]",
		Short: "Build a kernel module from a manifest and print its node count",
		Args:  cobra.ExactArgs(1),
		RunE:  runBuild,
	}
	rootCmd.AddCommand(buildCmd)

	dumpCmd := &cobra.Command{
		Use:   "dump [manifest]",
		Short: "Build a kernel module and dump its entry block",
		Args:  cobra.ExactArgs(1),
		RunE:  runDump,
	}
	dumpCmd.Flags().String("format", "human", "Dump format: human, json, or binary")
	rootCmd.AddCommand(dumpCmd)

	usageCmd := &cobra.Command{
		Use:   "usage [manifest]",
		Short: "Build a kernel module and print its capture/argument usage",
		Args:  cobra.ExactArgs(1),
		RunE:  runUsage,
	}
	rootCmd.AddCommand(usageCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

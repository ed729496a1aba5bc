// Copyright 2024 The Cockroach Authors
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
//
// SPDX-License-Identifier: Apache-2.0

// Package dumphelp contains a hidden command to write the help strings
// for all commands to an output directory.
package dumphelp

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Command returns the dumphelp command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:    "dumphelp",
		Short:  "write command help strings to files",
		Args:   cobra.ExactArgs(1),
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			base := args[0]
			if err := os.MkdirAll(base, 0755); err != nil {
				return errors.WithStack(err)
			}
			return dump(base, cmd.Parent(), cmd)
		},
	}
}

// dump writes a file for each visible command below parent. Nested
// commands are named by their path, e.g. loadgen_run.help.txt.
func dump(base string, parent, self *cobra.Command) error {
	for _, toDump := range parent.Commands() {
		if toDump == self || toDump.Hidden {
			continue
		}
		name := strings.ReplaceAll(toDump.CommandPath(), " ", "_")
		if root := parent.Root().Name() + "_"; strings.HasPrefix(name, root) {
			name = strings.TrimPrefix(name, root)
		}
		if err := write(filepath.Join(base, name+".help.txt"), toDump.UsageString()); err != nil {
			return err
		}
		if err := dump(base, toDump, self); err != nil {
			return err
		}
	}
	return nil
}

func write(path, text string) error {
	out, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = io.WriteString(out, text)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return errors.WithStack(err)
}

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

// Package version contains a command to print the build's
// bill-of-materials.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// BuildVersion is set by the go linker at build time
var BuildVersion = "<unknown>"

// Command returns a command to print the build's bill-of-materials.
func Command() *cobra.Command {
	var deps bool
	cmd := &cobra.Command{
		Args:  cobra.NoArgs,
		Short: "print the build's version and, optionally, its dependencies",
		Use:   "version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fields := log.Fields{
				"build":   BuildVersion,
				"runtime": runtime.Version(),
				"arch":    runtime.GOARCH,
				"os":      runtime.GOOS,
			}
			bi, ok := debug.ReadBuildInfo()
			if ok {
				for _, s := range bi.Settings {
					switch s.Key {
					case "vcs.revision", "vcs.time", "vcs.modified":
						fields[s.Key] = s.Value
					}
				}
			}
			log.WithFields(fields).Info("csvpipe")
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "csvpipe %s %s %s/%s\n",
				BuildVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH); err != nil {
				return errors.WithStack(err)
			}

			if !deps || !ok {
				return nil
			}
			for _, m := range bi.Deps {
				for m.Replace != nil {
					m = m.Replace
				}
				log.WithFields(log.Fields{
					"sum":     m.Sum,
					"version": m.Version,
				}).Info(m.Path)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&deps, "deps", false, "also log the module dependencies")
	return cmd
}

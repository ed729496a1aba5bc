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

// Package start contains the command to start the notification
// server.
package start

import (
	"github.com/cockroachdb/csvpipe/internal/source/webhook"
	"github.com/cockroachdb/csvpipe/internal/util/stdlogical"
	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/spf13/cobra"
)

// Command returns the command to start the server.
func Command() *cobra.Command {
	cfg := &webhook.Config{}
	return stdlogical.New(&stdlogical.Template{
		Config: cfg,
		Short:  "start an HTTP server that receives storage notifications",
		Start: func(ctx *stopper.Context, cmd *cobra.Command) (any, error) {
			return webhook.NewServer(ctx, cfg)
		},
		Use: "start",
	})
}

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

package preflight

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreflight(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "incoming"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "incoming", "a.csv"), []byte("x"), 0644))

	tests := []struct {
		name   string
		args   []string
		errMsg string
	}{
		{
			name: "list and write",
			args: []string{"--container", "incoming", "--destination", "processed", "--write"},
		},
		{
			name: "unknown flags are ignored",
			args: []string{"--container", "incoming", "--bindAddr", ":8080"},
		},
		{
			name: "nothing to test",
		},
		{
			name:   "bad container",
			args:   []string{"--container", "../escape"},
			errMsg: "unable to list ../escape",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := Command()
			cmd.SetArgs(append([]string{"--storageURL", "file://" + root}, tt.args...))
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			err := cmd.ExecuteContext(context.Background())
			if tt.errMsg != "" {
				assert.ErrorContains(t, err, tt.errMsg)
				return
			}
			require.NoError(t, err)
		})
	}

	// The probe object was removed.
	entries, err := os.ReadDir(filepath.Join(root, "processed"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

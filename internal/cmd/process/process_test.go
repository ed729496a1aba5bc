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

package process

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) ([]map[string]string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := Command()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.ExecuteContext(context.Background())

	var ret []map[string]string
	dec := json.NewDecoder(&out)
	for dec.More() {
		var res map[string]string
		require.NoError(t, dec.Decode(&res))
		ret = append(ret, res)
	}
	return ret, err
}

func TestProcess(t *testing.T) {
	root := t.TempDir()
	r := require.New(t)
	r.NoError(os.MkdirAll(filepath.Join(root, "incoming"), 0755))
	write := func(key, data string) {
		r.NoError(os.WriteFile(filepath.Join(root, "incoming", key), []byte(data), 0644))
	}
	write("good.csv", "value,data_id\n1,x\n")
	write("bad.csv", "value,other\n1,x\n")
	write("notes.txt", "hello")
	write("stdin.csv", "data_id,value\ny,2\n")

	base := []string{"--storageURL", "file://" + root, "--destination", "processed"}

	tests := []struct {
		name    string
		args    []string
		stdin   string
		outcome string
		errMsg  string
	}{
		{
			name:    "completed",
			args:    []string{"--container", "incoming", "--key", "good.csv"},
			outcome: "completed",
		},
		{
			name:    "redelivered",
			args:    []string{"--container", "incoming", "--key", "good.csv"},
			outcome: "skipped",
		},
		{
			name:    "aborted",
			args:    []string{"--container", "incoming", "--key", "notes.txt"},
			outcome: "aborted",
		},
		{
			name:    "schema",
			args:    []string{"--container", "incoming", "--key", "bad.csv"},
			outcome: "failed",
			errMsg:  "unexpected columns",
		},
		{
			name:    "stdin",
			stdin:   `{"kind":"storage#object","bucket":"incoming","name":"stdin.csv"}`,
			outcome: "completed",
		},
		{
			name:   "key without container",
			args:   []string{"--key", "good.csv"},
			errMsg: "container and key must be specified together",
		},
		{
			name:   "bad stdin",
			stdin:  `{"hello":"world"}`,
			errMsg: "unrecognized notification payload",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := assert.New(t)
			results, err := execute(t, tt.stdin, append(append([]string(nil), base...), tt.args...)...)
			if tt.errMsg != "" {
				a.ErrorContains(err, tt.errMsg)
			} else {
				a.NoError(err)
			}
			if tt.outcome == "" {
				a.Empty(results)
				return
			}
			require.Len(t, results, 1)
			a.Equal(tt.outcome, results[0]["outcome"])
		})
	}

	_, err := os.Stat(filepath.Join(root, "processed", "good.csv"))
	r.NoError(err)
	_, err = os.Stat(filepath.Join(root, "processed", "stdin.csv"))
	r.NoError(err)
}

// Errors must not leave usage or error text on stdout.
func TestProcessStdoutOnlyResults(t *testing.T) {
	root := t.TempDir()
	r := require.New(t)
	r.NoError(os.MkdirAll(filepath.Join(root, "incoming"), 0755))
	r.NoError(os.WriteFile(filepath.Join(root, "incoming", "bad.csv"), []byte("value,other\n1,x\n"), 0644))

	tests := []struct {
		name  string
		args  []string
		stdin string
		lines int
	}{
		{name: "failed run", args: []string{"--container", "incoming", "--key", "bad.csv"}, lines: 1},
		{name: "preflight", args: []string{"--key", "bad.csv"}},
		{name: "bad stdin", stdin: "not json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := assert.New(t)
			var out, stderr bytes.Buffer
			cmd := Command()
			cmd.SetArgs(append([]string{
				"--storageURL", "file://" + root, "--destination", "processed"}, tt.args...))
			cmd.SetIn(strings.NewReader(tt.stdin))
			cmd.SetOut(&out)
			cmd.SetErr(&stderr)
			a.Error(cmd.ExecuteContext(context.Background()))

			a.NotContains(out.String(), "Usage:")
			a.NotContains(out.String(), "Error:")
			a.Empty(stderr.String())
			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			if tt.lines == 0 {
				a.Empty(strings.TrimSpace(out.String()))
				return
			}
			a.Len(lines, tt.lines)
			for _, line := range lines {
				a.True(json.Valid([]byte(line)), line)
			}
		})
	}
}

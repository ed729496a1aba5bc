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

package stdlogical

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

type tokenOnly string

func (t tokenOnly) GetToken() string { return string(t) }

func TestSmoke(t *testing.T) {
	r := require.New(t)

	ctx := stopper.WithContext(context.Background())
	defer ctx.Stop(0)

	ready := make(chan struct{})

	cmd := New(&Template{
		Metrics: "127.0.0.1:13013",
		Start: func(*stopper.Context, *cobra.Command) (any, error) {
			return tokenOnly("s3cret"), nil
		},
		Use: "test",
		testCallback: func() {
			close(ready)
		},
	})
	// Override os.Args.
	cmd.SetArgs([]string{})

	// Start the server in the background.
	errs := make(chan error, 1)
	go func() {
		errs <- cmd.ExecuteContext(ctx)
	}()

	select {
	case <-time.After(5 * time.Second):
		r.Fail("timed out waiting for server")
	case <-ready:
	}

	resp, err := http.Get("http://127.0.0.1:13013/_/healthz")
	r.NoError(err)
	_ = resp.Body.Close()
	r.Equal(http.StatusOK, resp.StatusCode)

	resp, err = http.Get("http://127.0.0.1:13013/_/diag")
	r.NoError(err)
	_ = resp.Body.Close()
	r.Equal(http.StatusForbidden, resp.StatusCode)

	resp, err = http.Get("http://127.0.0.1:13013/_/diag?access_token=s3cret")
	r.NoError(err)
	body, err := io.ReadAll(resp.Body)
	r.NoError(err)
	_ = resp.Body.Close()
	r.Equal(http.StatusOK, resp.StatusCode)
	r.Contains(string(body), "cmd")

	resp, err = http.Get("http://127.0.0.1:13013/_/varz")
	r.NoError(err)
	_ = resp.Body.Close()
	r.Equal(http.StatusOK, resp.StatusCode)

	ctx.Stop(time.Second)
	select {
	case err := <-errs:
		r.NoError(err)
	case <-time.After(5 * time.Second):
		r.Fail("command did not exit")
	}
}

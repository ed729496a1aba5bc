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

package pipeline

import (
	"context"

	"github.com/cockroachdb/csvpipe/internal/source/objstore/bucket"
	"github.com/cockroachdb/csvpipe/internal/types"
	log "github.com/sirupsen/logrus"
)

// Cleanup removes source objects once their output has been written.
type Cleanup struct {
	store bucket.Store
}

// NewCleanup constructs a Cleanup.
func NewCleanup(store bucket.Store) *Cleanup {
	return &Cleanup{store: store}
}

// Delete removes the source object. An object that is already absent
// is not an error, since a previous delivery of the same event may have
// removed it. Other failures are reported as a *CleanupError.
func (c *Cleanup) Delete(ctx context.Context, ref *types.ObjectRef) error {
	err := c.store.Remove(ctx, ref.Container, ref.Key)
	switch {
	case err == nil:
		return nil
	case bucket.IsNotFound(err):
		log.WithField("key", ref.Key).Debug("source object already deleted")
		return nil
	default:
		return &CleanupError{Container: ref.Container, Key: ref.Key, Err: err}
	}
}

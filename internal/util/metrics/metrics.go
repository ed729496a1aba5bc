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

// Package metrics contains some common utility functions for
// constructing performance-monitoring metrics.
package metrics

import (
	"math"
	"time"
)

const (
	containerLabel = "container"
	providerLabel  = "provider"
)

var (
	// LatencyBuckets is a default collection of histogram buckets
	// for latency metrics. The values in this slice assume that the
	// metric's base units are measured in seconds.
	LatencyBuckets = Buckets(time.Millisecond.Seconds(), time.Minute.Seconds())
	// SizeBuckets is a collection of histogram buckets for object
	// sizes, measured in bytes, from 1KB to 1GB.
	SizeBuckets = Buckets(1e3, 1e9)
	// ContainerLabels are the labels to be applied to
	// container-specific, vector metrics.
	ContainerLabels = []string{containerLabel}
	// ProviderLabels are the labels to be applied to metrics that
	// describe a storage provider.
	ProviderLabels = []string{providerLabel}
)

// Buckets computes a linear log10 sequence of buckets, starting
// from the base unit, up to the specified maximum.
func Buckets(base, max float64) []float64 {
	var ret []float64
	for {
		for i := 0; i < 9; i++ {
			// next = i*base + base
			next := math.FMA(float64(i), base, base)
			if next > max {
				return ret
			}
			// Round to three decimal places to avoid awkward mantissas.
			next = math.Round(next*1000) / 1000
			ret = append(ret, next)
		}
		base *= 10
	}
}

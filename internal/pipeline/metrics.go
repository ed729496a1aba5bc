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
	"github.com/cockroachdb/csvpipe/internal/types"
	"github.com/cockroachdb/csvpipe/internal/util/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	outcomeLabels = []string{"outcome"}
)
var (
	outcomeCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_outcomes_total",
		Help: "the number of pipeline runs that ended in the given outcome",
	}, outcomeLabels)
	rowCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_rows_total",
		Help: "the number of rows written to destination objects",
	})
	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_run_seconds",
		Help:    "the time spent processing one event, by outcome",
		Buckets: metrics.LatencyBuckets,
	}, outcomeLabels)
	sourceBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipeline_source_bytes",
		Help:    "the size of source objects that passed validation",
		Buckets: metrics.SizeBuckets,
	})
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_stage_seconds",
		Help:    "the time spent reaching each stage of a run",
		Buckets: metrics.LatencyBuckets,
	}, []string{"stage"})
	validationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_validation_failures_total",
		Help: "the number of objects that failed the named validation rule",
	}, []string{"rule"})
)

func init() {
	// Ensure all outcomes are populated so we can graph a zero value.
	for _, kind := range types.OutcomeKinds {
		outcomeCount.WithLabelValues(kind.String()).Add(0)
	}
}

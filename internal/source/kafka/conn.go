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

package kafka

import (
	"time"

	"github.com/IBM/sarama"
	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Conn encapsulates the consumer group membership. If more than one
// process is started with the same group id, the partitions within the
// topics are allocated to each process based on the chosen rebalance
// strategy.
type Conn struct {
	// The connector configuration.
	config *Config
	// The group joined when connecting to the brokers.
	group sarama.ConsumerGroup
	// The handler that processes the messages.
	handler *Handler
	// Delays the next session after a Failed run.
	retry backoff.BackOff
}

// newRetry returns the delay policy between a failed session and the
// next one. It never gives up.
func newRetry() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// Start the consumer loop in the background. The group is closed once
// the context begins to stop.
func (c *Conn) Start(ctx *stopper.Context) {
	ctx.Go(func(ctx *stopper.Context) error {
		<-ctx.Stopping()
		if err := c.group.Close(); err != nil {
			log.WithError(err).Warn("could not close consumer group")
		}
		return nil
	})
	ctx.Go(func(ctx *stopper.Context) error {
		for !ctx.IsStopping() {
			err := c.group.Consume(ctx, c.config.Topics, c.handler)
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			failed := c.handler.failed.Swap(false)
			if err == nil && !failed {
				c.retry.Reset()
				continue
			}
			delay := c.retry.NextBackOff()
			if err != nil {
				log.WithError(err).Warnf("error while consuming messages; will retry in %s", delay)
			} else {
				log.Debugf("session ended by a failed run; resuming in %s", delay)
			}
			select {
			case <-ctx.Stopping():
			case <-time.After(delay):
			}
		}
		return nil
	})
}

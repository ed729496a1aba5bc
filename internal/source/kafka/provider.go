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
	"github.com/IBM/sarama"
	"github.com/cockroachdb/csvpipe/internal/types"
	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/google/wire"
	"github.com/pkg/errors"
)

// Set is used by Wire.
var Set = wire.NewSet(
	ProvideConn,
	ProvideConsumerGroup,
	ProvideHandler,
)

// ProvideConsumerGroup is called by Wire to join the consumer group.
func ProvideConsumerGroup(ctx *stopper.Context, config *Config) (sarama.ConsumerGroup, error) {
	if err := config.Preflight(ctx); err != nil {
		return nil, err
	}
	group, err := sarama.NewConsumerGroup(config.Brokers, config.Group, config.saramaConfig)
	if err != nil {
		return nil, errors.Wrap(err, "error creating consumer group client")
	}
	return group, nil
}

// ProvideHandler is called by Wire.
func ProvideHandler(processor types.Processor) *Handler {
	return NewHandler(processor)
}

// ProvideConn is called by Wire to construct and start the consumer
// loop.
func ProvideConn(
	ctx *stopper.Context, config *Config, group sarama.ConsumerGroup, handler *Handler,
) *Conn {
	ret := &Conn{
		config:  config,
		group:   group,
		handler: handler,
		retry:   newRetry(),
	}
	ret.Start(ctx)
	return ret
}

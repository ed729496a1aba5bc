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

package mocks

import "github.com/IBM/sarama"

// Claim implements sarama.ConsumerGroupClaim for a fixed set of
// messages. The message channel is closed once they have all been
// delivered.
type Claim struct {
	topic     string
	partition int32
	messages  chan *sarama.ConsumerMessage
}

var _ sarama.ConsumerGroupClaim = (*Claim)(nil)

// NewClaim creates a claim that delivers the given values, with
// consecutive offsets starting at zero.
func NewClaim(topic string, partition int32, values ...[]byte) *Claim {
	ch := make(chan *sarama.ConsumerMessage, len(values))
	for i, value := range values {
		ch <- &sarama.ConsumerMessage{
			Topic:     topic,
			Partition: partition,
			Offset:    int64(i),
			Value:     value,
		}
	}
	close(ch)
	return &Claim{topic: topic, partition: partition, messages: ch}
}

// HighWaterMarkOffset implements sarama.ConsumerGroupClaim.
func (c *Claim) HighWaterMarkOffset() int64 {
	return int64(cap(c.messages))
}

// InitialOffset implements sarama.ConsumerGroupClaim.
func (c *Claim) InitialOffset() int64 {
	return 0
}

// Messages implements sarama.ConsumerGroupClaim.
func (c *Claim) Messages() <-chan *sarama.ConsumerMessage {
	return c.messages
}

// Partition implements sarama.ConsumerGroupClaim.
func (c *Claim) Partition() int32 {
	return c.partition
}

// Topic implements sarama.ConsumerGroupClaim.
func (c *Claim) Topic() string {
	return c.topic
}

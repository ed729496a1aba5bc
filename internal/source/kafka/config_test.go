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
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreflight(t *testing.T) {
	base := []string{
		"--broker", "localhost:9092",
		"--destination", "processed",
		"--group", "csvpipe",
		"--storageURL", "file:///tmp/csvpipe",
		"--topic", "uploads",
	}
	tests := []struct {
		name   string
		args   []string
		check  func(*assert.Assertions, *sarama.Config)
		errMsg string
	}{
		{
			name: "defaults",
			check: func(a *assert.Assertions, sc *sarama.Config) {
				a.Equal(sarama.OffsetOldest, sc.Consumer.Offsets.Initial)
				a.False(sc.Net.TLS.Enable)
				a.False(sc.Net.SASL.Enable)
				a.Len(sc.Consumer.Group.Rebalance.GroupStrategies, 1)
				a.Equal(sarama.StickyBalanceStrategyName,
					sc.Consumer.Group.Rebalance.GroupStrategies[0].Name())
			},
		},
		{
			name: "round robin",
			args: []string{"--strategy", "roundrobin"},
			check: func(a *assert.Assertions, sc *sarama.Config) {
				a.Equal(sarama.RoundRobinBalanceStrategyName,
					sc.Consumer.Group.Rebalance.GroupStrategies[0].Name())
			},
		},
		{
			name:   "bad strategy",
			args:   []string{"--strategy", "random"},
			errMsg: "unrecognized consumer rebalance strategy",
		},
		{
			name: "version",
			args: []string{"--kafkaVersion", "3.6.0"},
			check: func(a *assert.Assertions, sc *sarama.Config) {
				a.Equal(sarama.V3_6_0_0, sc.Version)
			},
		},
		{
			name:   "bad version",
			args:   []string{"--kafkaVersion", "banana"},
			errMsg: "invalid kafkaVersion",
		},
		{
			name: "tls",
			args: []string{
				"--tlsCACertificate", "./testdata/ca.crt",
				"--tlsClientCertificate", "./testdata/test.crt",
				"--tlsClientKey", "./testdata/test.key",
			},
			check: func(a *assert.Assertions, sc *sarama.Config) {
				a.True(sc.Net.TLS.Enable)
				a.NotNil(sc.Net.TLS.Config.RootCAs)
				a.Len(sc.Net.TLS.Config.Certificates, 1)
			},
		},
		{
			name: "scram",
			args: []string{
				"--saslMechanism", sarama.SASLTypeSCRAMSHA512,
				"--saslUser", "user",
				"--saslPassword", "pass",
			},
			check: func(a *assert.Assertions, sc *sarama.Config) {
				a.True(sc.Net.SASL.Enable)
				a.Equal(sarama.SASLMechanism(sarama.SASLTypeSCRAMSHA512), sc.Net.SASL.Mechanism)
				a.NotNil(sc.Net.SASL.SCRAMClientGeneratorFunc)
			},
		},
		{
			name: "oauth",
			args: []string{
				"--saslMechanism", sarama.SASLTypeOAuth,
				"--saslClientId", "client",
				"--saslClientSecret", "secret",
				"--saslTokenURL", "https://example.com/token",
			},
			check: func(a *assert.Assertions, sc *sarama.Config) {
				a.True(sc.Net.SASL.Enable)
				a.IsType(&tokenProvider{}, sc.Net.SASL.TokenProvider)
			},
		},
		{
			name: "oauth without url",
			args: []string{
				"--saslMechanism", sarama.SASLTypeOAuth,
				"--saslClientId", "client",
				"--saslClientSecret", "secret",
			},
			errMsg: "OAUTH2 requires a token URL",
		},
		{
			name: "oauth without secret",
			args: []string{
				"--saslMechanism", sarama.SASLTypeOAuth,
				"--saslClientId", "client",
				"--saslTokenURL", "https://example.com/token",
			},
			errMsg: "OAUTH2 requires a client secret",
		},
		{
			name:   "unknown mechanism",
			args:   []string{"--saslMechanism", "KERBEROS"},
			errMsg: "unsupported SASL mechanism",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := assert.New(t)
			r := require.New(t)
			cfg := &Config{}
			flags := pflag.NewFlagSet("kafka", pflag.ContinueOnError)
			cfg.Bind(flags)
			r.NoError(flags.Parse(append(append([]string(nil), base...), tt.args...)))
			err := cfg.Preflight(context.Background())
			if tt.errMsg != "" {
				r.ErrorContains(err, tt.errMsg)
				return
			}
			r.NoError(err)
			r.NotNil(cfg.saramaConfig)
			tt.check(a, cfg.saramaConfig)
		})
	}
}

func TestPreflightRequired(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		errMsg string
	}{
		{"group", Config{Brokers: []string{"b"}, Topics: []string{"t"}}, "no group"},
		{"brokers", Config{Group: "g", Topics: []string{"t"}}, "no brokers"},
		{"topics", Config{Group: "g", Brokers: []string{"b"}}, "no topics"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.config
			assert.ErrorContains(t, cfg.preflight(context.Background()), tt.errMsg)
		})
	}
}

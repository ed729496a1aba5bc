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
	"net/url"

	"github.com/IBM/sarama"
	"github.com/cockroachdb/csvpipe/internal/pipeline"
	"github.com/cockroachdb/csvpipe/internal/source/objstore"
	"github.com/cockroachdb/csvpipe/internal/util/secure"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"golang.org/x/oauth2/clientcredentials"
)

// Config contains the configuration necessary for consuming object
// notifications from a Kafka cluster.
type Config struct {
	Pipeline pipeline.Config
	Storage  objstore.Config
	TLS      secure.Config

	Brokers  []string // The address of the Kafka brokers
	Group    string   // The Kafka consumer group id.
	Strategy string   // Kafka consumer group re-balance strategy
	Topics   []string // The list of topics that the consumer should use.
	Version  string   // The Kafka protocol version, if not the default.

	// SASL
	saslClientID     string
	saslClientSecret string
	saslGrantType    string
	saslMechanism    string
	saslScopes       []string
	saslTokenURL     string
	saslUser         string
	saslPassword     string

	// The kafka connector configuration, computed by Preflight.
	saramaConfig *sarama.Config
}

// Bind adds flags to the set.
func (c *Config) Bind(f *pflag.FlagSet) {
	c.Pipeline.Bind(f)
	c.Storage.Bind(f)
	c.TLS.Bind(f)

	f.StringArrayVar(&c.Brokers, "broker", nil, "address of Kafka broker(s)")
	f.StringVar(&c.Group, "group", "", "the Kafka consumer group id")
	f.StringVar(&c.Strategy, "strategy", "sticky",
		"Kafka consumer group re-balance strategy; one of sticky, roundrobin, or range")
	f.StringArrayVar(&c.Topics, "topic", nil, "the topic(s) that carry object notifications")
	f.StringVar(&c.Version, "kafkaVersion", "", "the Kafka protocol version to use")

	// SASL
	f.StringVar(&c.saslClientID, "saslClientId", "", "client ID for OAuth authentication from a third-party provider")
	f.StringVar(&c.saslClientSecret, "saslClientSecret", "", "client secret for OAuth authentication from a third-party provider")
	f.StringVar(&c.saslGrantType, "saslGrantType", "", "override the default OAuth client credentials grant type")
	f.StringVar(&c.saslMechanism, "saslMechanism", "", "can be set to OAUTHBEARER, SCRAM-SHA-256, SCRAM-SHA-512, or PLAIN")
	f.StringArrayVar(&c.saslScopes, "saslScope", nil, "scopes that the OAuth token should have access for")
	f.StringVar(&c.saslTokenURL, "saslTokenURL", "", "client token URL for OAuth authentication from a third-party provider")
	f.StringVar(&c.saslUser, "saslUser", "", "SASL username")
	f.StringVar(&c.saslPassword, "saslPassword", "", "SASL password")
}

// Preflight updates the configuration with sane defaults or returns an
// error if there are missing options for which a default cannot be
// provided.
func (c *Config) Preflight(ctx context.Context) error {
	if err := c.Pipeline.Preflight(); err != nil {
		return err
	}
	if err := c.Storage.Preflight(); err != nil {
		return err
	}
	return c.preflight(ctx)
}

func (c *Config) preflight(ctx context.Context) error {
	if c.Group == "" {
		return errors.New("no group was configured")
	}
	if len(c.Brokers) == 0 {
		return errors.New("no brokers were configured")
	}
	if len(c.Topics) == 0 {
		return errors.New("no topics were configured")
	}
	sc := sarama.NewConfig()
	if c.Version != "" {
		version, err := sarama.ParseKafkaVersion(c.Version)
		if err != nil {
			return errors.Wrap(err, "invalid kafkaVersion")
		}
		sc.Version = version
	}
	switch c.Strategy {
	case "sticky":
		sc.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategySticky()}
	case "roundrobin":
		sc.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	case "range":
		sc.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRange()}
	default:
		return errors.Errorf("unrecognized consumer rebalance strategy: %s", c.Strategy)
	}

	if err := c.TLS.Preflight(); err != nil {
		return err
	}
	sc.Net.TLS.Config = c.TLS.AsTLSConfig()
	sc.Net.TLS.Enable = sc.Net.TLS.Config != nil

	if c.saslMechanism != "" {
		sc.Net.SASL.Enable = true
		switch c.saslMechanism {
		case sarama.SASLTypeSCRAMSHA512:
			sc.Net.SASL.SCRAMClientGeneratorFunc = scramGenerator(sha512Hash)
		case sarama.SASLTypeSCRAMSHA256:
			sc.Net.SASL.SCRAMClientGeneratorFunc = scramGenerator(sha256Hash)
		case sarama.SASLTypeOAuth:
			var err error
			sc.Net.SASL.TokenProvider, err = c.newTokenProvider(ctx)
			if err != nil {
				return err
			}
		case sarama.SASLTypePlaintext:
		default:
			return errors.Errorf("unsupported SASL mechanism: %s", c.saslMechanism)
		}
		sc.Net.SASL.Mechanism = sarama.SASLMechanism(c.saslMechanism)
		sc.Net.SASL.User = c.saslUser
		sc.Net.SASL.Password = c.saslPassword
		log.Infof("Using SASL %s", c.saslMechanism)
	}
	// Offsets are only marked once a message's events have been
	// processed, so a new group must start from the beginning of the
	// topic to see every notification.
	sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	c.saramaConfig = sc
	return errors.WithStack(sc.Validate())
}

func (c *Config) newTokenProvider(ctx context.Context) (sarama.AccessTokenProvider, error) {
	if c.saslTokenURL == "" {
		return nil, errors.New("OAUTH2 requires a token URL")
	}
	tokenURL, err := url.Parse(c.saslTokenURL)
	if err != nil {
		return nil, errors.Wrap(err, "malformed token url")
	}
	if c.saslClientID == "" {
		return nil, errors.New("OAUTH2 requires a client id")
	}
	if c.saslClientSecret == "" {
		return nil, errors.New("OAUTH2 requires a client secret")
	}
	// The library sends grant_type=client_credentials unless told
	// otherwise.
	var endpointParams url.Values
	if c.saslGrantType != "" {
		endpointParams = url.Values{"grant_type": {c.saslGrantType}}
	}
	cfg := clientcredentials.Config{
		ClientID:       c.saslClientID,
		ClientSecret:   c.saslClientSecret,
		TokenURL:       tokenURL.String(),
		Scopes:         c.saslScopes,
		EndpointParams: endpointParams,
	}
	// The TokenSource caches the token until it expires.
	return &tokenProvider{tokenSource: cfg.TokenSource(ctx)}, nil
}

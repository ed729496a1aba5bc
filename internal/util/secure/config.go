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

// Package secure builds client-side TLS configurations for connections
// to message brokers.
package secure

import (
	"crypto/tls"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Config stores the TLS parameters passed via command line options.
type Config struct {
	CaCert     string
	ClientCert string
	ClientKey  string
	SkipVerify bool

	built *tls.Config // computed by Preflight
}

// Bind adds flags to the set.
func (c *Config) Bind(f *pflag.FlagSet) {
	f.StringVar(&c.CaCert, "tlsCACertificate", "",
		"the path of a PEM-encoded CA file used to verify the brokers")
	f.StringVar(&c.ClientCert, "tlsClientCertificate", "",
		"the path of a PEM-encoded client certificate file")
	f.StringVar(&c.ClientKey, "tlsClientKey", "",
		"the path of a PEM-encoded client private key")
	f.BoolVar(&c.SkipVerify, "insecureSkipVerify", false,
		"if true, disable validation of the brokers' certificates")
}

// Preflight builds a tls.Config from the options. TLS remains disabled,
// and AsTLSConfig returns nil, if no option was provided.
func (c *Config) Preflight() error {
	c.built = nil
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	enabled := false

	certs, err := keyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return err
	}
	if len(certs) > 0 {
		cfg.Certificates = certs
		enabled = true
	}
	if c.CaCert != "" {
		pool, err := GetCA(c.CaCert)
		if err != nil {
			return errors.Wrap(err, "cannot load CA certificate")
		}
		cfg.RootCAs = pool
		enabled = true
	}
	if c.SkipVerify {
		cfg.InsecureSkipVerify = true
		enabled = true
	}
	if enabled {
		c.built = cfg
	}
	return nil
}

// AsTLSConfig returns the configuration built by Preflight.
func (c *Config) AsTLSConfig() *tls.Config {
	return c.built
}

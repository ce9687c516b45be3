package client

/*
dispolist — aggregator of disposable e-mail domain lists
Copyright (C) 2025  dispolist authors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

/*
Package client provides the shared HTTP client used for fetching source
payloads. A single configured instance is reused across all fetches in a
run so connections to mirrors hosting several lists are pooled.

The request timeout doubles as the per-fetch timeout of the pipeline:
there is no other cancellation boundary, and no retry on failure.
*/

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// Defaults tuned for fetching a handful of list endpoints per run.
var (
	// defaultDialTimeout is the maximum time to establish a connection.
	defaultDialTimeout = 5 * time.Second
	// defaultRequestTimeout bounds the entire fetch, including redirects
	// and reading the body. One slow mirror must not stall the run.
	defaultRequestTimeout = 10 * time.Second
	// defaultIdleConnTimeout is how long an idle keep-alive connection
	// stays open between fetches from the same host.
	defaultIdleConnTimeout = 30 * time.Second
	// defaultMaxIdleConnsPerHost keeps a couple of connections warm for
	// mirrors that host more than one list.
	defaultMaxIdleConnsPerHost = 4

	sharedClient      *http.Client
	sharedClientLock  sync.RWMutex
	clientInitialized bool
)

// Config holds the transport-level knobs of the shared client.
// A zero-value Config yields the defaults.
type Config struct {
	DialTimeout         time.Duration
	RequestTimeout      time.Duration
	IdleConnTimeout     time.Duration
	MaxIdleConnsPerHost int
}

// DefaultConfig returns the default fetch client settings.
func DefaultConfig() *Config {
	return &Config{
		DialTimeout:         defaultDialTimeout,
		RequestTimeout:      defaultRequestTimeout,
		IdleConnTimeout:     defaultIdleConnTimeout,
		MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
	}
}

// InitHTTPClient initializes or reconfigures the shared HTTP client.
// A nil config or zero fields fall back to the defaults. Thread-safe.
func InitHTTPClient(config *Config) {
	sharedClientLock.Lock()
	defer sharedClientLock.Unlock()

	if config == nil {
		config = DefaultConfig()
	}
	if config.DialTimeout == 0 {
		config.DialTimeout = defaultDialTimeout
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = defaultRequestTimeout
	}
	if config.IdleConnTimeout == 0 {
		config.IdleConnTimeout = defaultIdleConnTimeout
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = defaultMaxIdleConnsPerHost
	}

	// Close idle connections of the previous client on reconfiguration.
	if sharedClient != nil {
		if oldTransport, ok := sharedClient.Transport.(*http.Transport); ok && oldTransport != nil {
			oldTransport.CloseIdleConnections()
		}
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: config.DialTimeout,
		}).DialContext,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		TLSHandshakeTimeout: config.DialTimeout,
		ForceAttemptHTTP2:   true,
	}

	sharedClient = &http.Client{
		Transport: transport,
		Timeout:   config.RequestTimeout,
	}
	clientInitialized = true
}

// GetHTTPClient returns the shared client, lazily initializing it with
// defaults on first use. Thread-safe.
func GetHTTPClient() *http.Client {
	sharedClientLock.RLock()
	if !clientInitialized {
		sharedClientLock.RUnlock()
		InitHTTPClient(nil)
		sharedClientLock.RLock()
	}
	c := sharedClient
	sharedClientLock.RUnlock()
	return c
}

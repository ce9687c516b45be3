/*
Package mx provides the DNS capability used by the optional MX filter:
a yes/no answer to "can this domain receive mail". A lookup failure of
any kind is treated as the absence of an MX record, never as an error.
*/
package mx

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

import (
	"context"
	"net"
	"time"

	"golang.org/x/time/rate"
)

// Resolver reports whether a domain has at least one MX record.
type Resolver interface {
	HasMX(ctx context.Context, domain string) bool
}

const (
	// DefaultQueryRate paces lookups so a full run over tens of
	// thousands of domains does not hammer the local resolver.
	DefaultQueryRate = 50.0
	// DefaultQueryTimeout bounds a single lookup.
	DefaultQueryTimeout = 5 * time.Second
)

// NetResolver answers MX queries with the stdlib resolver, one blocking
// lookup at a time, paced by a token-bucket rate limiter.
type NetResolver struct {
	resolver *net.Resolver
	limiter  *rate.Limiter
	timeout  time.Duration
}

// NewNetResolver returns a resolver limited to queriesPerSecond with the
// given per-query timeout. Non-positive arguments select the defaults.
func NewNetResolver(queriesPerSecond float64, timeout time.Duration) *NetResolver {
	if queriesPerSecond <= 0 {
		queriesPerSecond = DefaultQueryRate
	}
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &NetResolver{
		resolver: net.DefaultResolver,
		limiter:  rate.NewLimiter(rate.Limit(queriesPerSecond), 1),
		timeout:  timeout,
	}
}

// HasMX performs one rate-limited MX lookup. Resolver errors, timeouts
// and empty answers all report false.
func (r *NetResolver) HasMX(ctx context.Context, domain string) bool {
	if err := r.limiter.Wait(ctx); err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	records, err := r.resolver.LookupMX(ctx, domain)
	return err == nil && len(records) > 0
}

/*
Package aggregate drives the ingestion pipeline: it walks the configured
source list, dispatches each source to its format adapter, normalizes the
extracted candidates, and merges everything into one domain set and one
hash set. The whitelist override and the optional MX filter are applied
only after all sources have been merged, so the final membership is
independent of source order.
*/
package aggregate

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
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dispolist/dispolist/internal/domain"
	"github.com/dispolist/dispolist/internal/metrics"
	"github.com/dispolist/dispolist/internal/mx"
	"github.com/dispolist/dispolist/internal/source"
)

// Aggregator owns the working sets for the duration of one Build call.
// The fetch, file-read and MX capabilities are injected so tests can run
// the whole pipeline without network or disk.
type Aggregator struct {
	// Fetcher retrieves remote source payloads.
	Fetcher source.Fetcher
	// ReadFile reads local payloads for the file format.
	ReadFile func(path string) ([]byte, error)
	// Resolver, when non-nil, enables the MX filter.
	Resolver mx.Resolver
	// Verbose enables warnings for skipped sources.
	Verbose bool
}

// New returns an Aggregator fetching over HTTP and reading local files
// from disk.
func New(fetcher source.Fetcher, verbose bool) *Aggregator {
	return &Aggregator{
		Fetcher:  fetcher,
		ReadFile: os.ReadFile,
		Verbose:  verbose,
	}
}

// Build processes every configured source in order and returns the final
// domain set, hash set, and the domains removed by the MX filter.
//
// Per-source failures are recovered locally: an unsupported format tag is
// skipped silently, an unavailable or malformed source is skipped with a
// warning when verbose. The returned sets are function-local; repeated
// Build calls share no state.
func (a *Aggregator) Build(ctx context.Context, sources []source.Spec, whitelist domain.Set) (domain.Set, domain.Set, []string, error) {
	domains := domain.NewSet()
	hashes := domain.NewSet()

	for _, spec := range sources {
		if err := ctx.Err(); err != nil {
			return nil, nil, nil, err
		}
		if err := a.ingest(ctx, spec, domains, hashes); err != nil {
			if errors.Is(err, source.ErrUnsupported) {
				continue
			}
			metrics.Get().SourcesTotal.WithLabelValues(spec.Format, "failed").Inc()
			if a.Verbose {
				log.Printf("aggregate: skipping source %s %s: %v", spec.Format, spec.Location, err)
			}
			continue
		}
		metrics.Get().SourcesTotal.WithLabelValues(spec.Format, "ok").Inc()
	}

	// Whitelist is a final override regardless of which sources
	// contributed the entry. Derived hashes are removed through the same
	// IDNA path used when the hash was inserted.
	for w := range whitelist {
		domains.Remove(w)
		hashes.Remove(domain.Hash(w))
	}

	var mxRejected []string
	if a.Resolver != nil {
		// Evaluate every remaining domain first, then remove, so the
		// filter sees a stable set.
		for _, d := range domains.Sorted() {
			if a.Resolver.HasMX(ctx, d) {
				metrics.Get().MXChecksTotal.WithLabelValues("present").Inc()
				continue
			}
			metrics.Get().MXChecksTotal.WithLabelValues("absent").Inc()
			mxRejected = append(mxRejected, d)
		}
		for _, d := range mxRejected {
			domains.Remove(d)
			hashes.Remove(domain.Hash(d))
		}
	}

	metrics.Get().DomainsFinal.Set(float64(domains.Len()))
	metrics.Get().HashesFinal.Set(float64(hashes.Len()))

	return domains, hashes, mxRejected, nil
}

// ingest fetches one source, runs its adapter, and merges the output into
// the working sets.
func (a *Aggregator) ingest(ctx context.Context, spec source.Spec, domains, hashes domain.Set) error {
	adapter, err := source.ForFormat(spec.Format)
	if err != nil {
		return err
	}

	start := time.Now()

	var data []byte
	if spec.Format == source.FormatFile {
		data, err = a.ReadFile(spec.Location)
		if err != nil {
			return fmt.Errorf("%w: %v", source.ErrUnavailable, err)
		}
	} else {
		data, err = a.Fetcher.Fetch(ctx, spec.Location)
		if err != nil {
			return err
		}
	}

	candidates, ready, err := adapter.Extract(data)
	if err != nil {
		return err
	}

	metrics.Get().SourceFetchDuration.WithLabelValues(spec.Format).Observe(time.Since(start).Seconds())

	var accepted, rejected int
	for _, c := range candidates {
		d, ok := domain.Normalize(c)
		if !ok {
			// Expected high-frequency noise from free-text sources;
			// dropped silently.
			rejected++
			continue
		}
		domains.Add(d)
		hashes.Add(domain.Hash(d))
		accepted++
	}

	var ingested int
	for _, h := range ready {
		if domain.ValidHash(h) {
			hashes.Add(h)
			ingested++
		}
	}

	metrics.Get().CandidatesTotal.WithLabelValues(spec.Format, "accepted").Add(float64(accepted))
	metrics.Get().CandidatesTotal.WithLabelValues(spec.Format, "rejected").Add(float64(rejected))
	if ingested > 0 {
		metrics.Get().HashesIngestedTotal.WithLabelValues(spec.Format).Add(float64(ingested))
	}

	if a.Verbose {
		log.Printf("aggregate: source %s %s: %d accepted, %d rejected, %d digests",
			spec.Format, spec.Location, accepted, rejected, ingested)
	}
	return nil
}

package metrics

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
Package metrics exposes Prometheus counters for one aggregation run:
per-source fetch outcomes and durations, candidate acceptance and
rejection, ingested digests, and MX filter results.

Metrics live on a private registry. An HTTP endpoint serving them is
optional and only started when the operator configures a listen address;
a plain run records the counters without any server.
*/

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry          = prometheus.NewRegistry()
	defaultRegisterer = promauto.With(registry)
	metricsServer     *http.Server
)

// Metrics contains all Prometheus metrics recorded during a run.
type Metrics struct {
	// Source ingestion metrics.
	SourceFetchDuration *prometheus.HistogramVec // labels: format
	SourcesTotal        *prometheus.CounterVec   // labels: format, status (ok|failed)
	CandidatesTotal     *prometheus.CounterVec   // labels: format, status (accepted|rejected)
	HashesIngestedTotal *prometheus.CounterVec   // labels: format

	// MX filter metrics.
	MXChecksTotal *prometheus.CounterVec // labels: result (present|absent)

	// Final set sizes of the run.
	DomainsFinal prometheus.Gauge
	HashesFinal  prometheus.Gauge
}

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Get returns the global metrics instance, creating and registering it on
// first use.
func Get() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = newMetrics()
	})
	return globalMetrics
}

func newMetrics() *Metrics {
	fetchBuckets := []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30}

	return &Metrics{
		SourceFetchDuration: defaultRegisterer.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dispolist_source_fetch_duration_seconds",
				Help:    "Time spent fetching and extracting one source",
				Buckets: fetchBuckets,
			},
			[]string{"format"},
		),
		SourcesTotal: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispolist_sources_total",
				Help: "Number of configured sources processed, by outcome",
			},
			[]string{"format", "status"},
		),
		CandidatesTotal: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispolist_candidates_total",
				Help: "Candidate domain strings seen, by normalization outcome",
			},
			[]string{"format", "status"},
		),
		HashesIngestedTotal: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispolist_hashes_ingested_total",
				Help: "Ready-made SHA-1 digests accepted from hash-only sources",
			},
			[]string{"format"},
		),
		MXChecksTotal: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispolist_mx_checks_total",
				Help: "MX lookups performed during DNS verification, by result",
			},
			[]string{"result"},
		),
		DomainsFinal: defaultRegisterer.NewGauge(
			prometheus.GaugeOpts{
				Name: "dispolist_domains_final",
				Help: "Domains in the final aggregated set",
			},
		),
		HashesFinal: defaultRegisterer.NewGauge(
			prometheus.GaugeOpts{
				Name: "dispolist_hashes_final",
				Help: "Digests in the final aggregated hash set",
			},
		),
	}
}

// StartMetricsServer serves the private registry on addr. It returns once
// the listener goroutine is launched; serve errors are logged, not fatal.
func StartMetricsServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	metricsServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics: server error: %v", err)
		}
	}()
	return nil
}

// StopMetricsServer gracefully shuts down the metrics server, if running.
func StopMetricsServer(ctx context.Context) error {
	if metricsServer == nil {
		return nil
	}
	return metricsServer.Shutdown(ctx)
}

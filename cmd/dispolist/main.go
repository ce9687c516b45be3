/*
Package main is the entry point for the dispolist command-line application.

dispolist aggregates public lists of disposable email-provider domains into
one canonical, deduplicated set. Each configured source is fetched and fed
through its format adapter, candidates are normalized and merged, the
whitelist is applied, and (with --dns-verify) domains lacking an MX record
are dropped. The final domain and SHA-1 hash sets are always written to the
four output artifacts; when verbose reporting is enabled the run is also
diffed against the previous artifacts and the exit code signals whether
anything changed (0 = changed or no check requested, 1 = no change).

The application uses the Cobra library for the command-line surface. It
leverages the internal packages:
  - internal/config:    environment-driven run configuration
  - internal/source:    per-format adapters and fetch capabilities
  - internal/aggregate: the merge pipeline owning the working sets
  - internal/mx:        optional MX lookup capability
  - internal/diff:      change reporting against the previous snapshot
  - internal/store:     artifact persistence and snapshot loading
  - internal/metrics:   Prometheus counters for the run
*/
package main

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
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dispolist/dispolist/internal/aggregate"
	"github.com/dispolist/dispolist/internal/client"
	"github.com/dispolist/dispolist/internal/config"
	"github.com/dispolist/dispolist/internal/diff"
	"github.com/dispolist/dispolist/internal/domain"
	"github.com/dispolist/dispolist/internal/metrics"
	"github.com/dispolist/dispolist/internal/mx"
	"github.com/dispolist/dispolist/internal/source"
	"github.com/dispolist/dispolist/internal/store"
)

// dnsVerify toggles the MX filter; the only flag of the CLI surface.
var dnsVerify bool

// exitCode carries the change-detection result out of RunE: the exit
// contract is orthogonal to command errors.
var exitCode int

var rootCmd = &cobra.Command{
	Use:          "dispolist",
	Short:        "dispolist aggregates disposable e-mail domain lists into one canonical set",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().BoolVar(&dnsVerify, "dns-verify", false, "Drop domains that have no MX record")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Printf("dispolist: %v", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	cfg.DNSVerify = dnsVerify

	client.InitHTTPClient(nil)

	if cfg.MetricsAddr != "" {
		if err := metrics.StartMetricsServer(cfg.MetricsAddr); err != nil {
			log.Printf("metrics: %v", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = metrics.StopMetricsServer(shutdownCtx)
		}()
	}

	whitelist := domain.NewSet()
	for _, w := range cfg.Whitelist {
		if d, ok := domain.Normalize(w); ok {
			whitelist.Add(d)
		}
	}

	agg := aggregate.New(source.HTTPFetcher{}, cfg.Verbose)
	if cfg.DNSVerify {
		agg.Resolver = mx.NewNetResolver(0, 0)
	}

	domains, hashes, mxRejected, err := agg.Build(ctx, cfg.Sources, whitelist)
	if err != nil {
		return err
	}
	if cfg.Verbose && len(mxRejected) > 0 {
		log.Printf("dropped %d domains without MX records", len(mxRejected))
	}

	// Change detection runs against the artifacts of the previous run,
	// so the snapshot must be read before the new artifacts are written.
	changed := true
	if cfg.Verbose {
		prev, err := store.LoadSnapshot(cfg.OutputBase)
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		report := diff.Diff(domains, hashes, prev)
		logReport(report)
		changed = report.Changed
	}

	if err := store.Write(cfg.OutputBase, domains, hashes); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	log.Printf("wrote %d domains and %d hashes to %s.*", domains.Len(), hashes.Len(), cfg.OutputBase)

	if cfg.Verbose && !changed {
		exitCode = 1
	}
	return nil
}

func logReport(r diff.Report) {
	for _, d := range r.AddedDomains {
		log.Printf("+ %s", d)
	}
	for _, d := range r.RemovedDomains {
		log.Printf("- %s", d)
	}
	for _, h := range r.AddedHashes {
		log.Printf("+ %s (sha1)", h)
	}
	for _, h := range r.RemovedHashes {
		log.Printf("- %s (sha1)", h)
	}
	if !r.Changed {
		log.Printf("no changes since previous run")
	}
}

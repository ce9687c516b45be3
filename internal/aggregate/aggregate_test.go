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
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/dispolist/dispolist/internal/domain"
	"github.com/dispolist/dispolist/internal/source"
)

// fakeFetcher serves payloads from a map; locations without an entry
// behave like an unreachable source.
type fakeFetcher map[string]string

func (f fakeFetcher) Fetch(_ context.Context, location string) ([]byte, error) {
	payload, ok := f[location]
	if !ok {
		return nil, fmt.Errorf("%w: connection refused", source.ErrUnavailable)
	}
	return []byte(payload), nil
}

// fakeResolver answers true for every domain except those listed.
type fakeResolver map[string]bool

func (r fakeResolver) HasMX(_ context.Context, d string) bool {
	noMX := r[d]
	return !noMX
}

func newTestAggregator(f fakeFetcher) *Aggregator {
	a := New(f, false)
	a.ReadFile = func(path string) ([]byte, error) {
		return nil, os.ErrNotExist
	}
	return a
}

func TestBuildListSource(t *testing.T) {
	t.Parallel()
	a := newTestAggregator(fakeFetcher{
		"http://lists.example/plain": "Foo.COM\nbad_domain\nexample.org\n",
	})

	domains, hashes, mxRejected, err := a.Build(context.Background(),
		[]source.Spec{{Format: source.FormatList, Location: "http://lists.example/plain"}},
		domain.NewSet())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	wantDomains := []string{"example.org", "foo.com"}
	if got := domains.Sorted(); !reflect.DeepEqual(got, wantDomains) {
		t.Errorf("domains = %v; want %v", got, wantDomains)
	}

	wantHashes := domain.NewSet(domain.Hash("foo.com"), domain.Hash("example.org"))
	if got := hashes.Sorted(); !reflect.DeepEqual(got, wantHashes.Sorted()) {
		t.Errorf("hashes = %v; want %v", got, wantHashes.Sorted())
	}
	if len(mxRejected) != 0 {
		t.Errorf("mxRejected = %v; want none without a resolver", mxRejected)
	}
}

func TestBuildSHA1Source(t *testing.T) {
	t.Parallel()
	a := newTestAggregator(fakeFetcher{
		"http://lists.example/hashes": "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA\nnot-a-hash\n",
	})

	domains, hashes, _, err := a.Build(context.Background(),
		[]source.Spec{{Format: source.FormatSHA1, Location: "http://lists.example/hashes"}},
		domain.NewSet())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if domains.Len() != 0 {
		t.Errorf("domains = %v; want none from a hash-only source", domains.Sorted())
	}
	want := []string{strings.Repeat("a", 40)}
	if got := hashes.Sorted(); !reflect.DeepEqual(got, want) {
		t.Errorf("hashes = %v; want %v", got, want)
	}
}

func TestBuildMergesSetUnion(t *testing.T) {
	t.Parallel()
	a := newTestAggregator(fakeFetcher{
		"http://lists.example/one": "shared.example\nonly-one.example\n",
		"http://lists.example/two": `["shared.example", "only-two.example"]`,
	})

	domains, hashes, _, err := a.Build(context.Background(), []source.Spec{
		{Format: source.FormatList, Location: "http://lists.example/one"},
		{Format: source.FormatJSON, Location: "http://lists.example/two"},
	}, domain.NewSet())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := []string{"only-one.example", "only-two.example", "shared.example"}
	if got := domains.Sorted(); !reflect.DeepEqual(got, want) {
		t.Errorf("domains = %v; want %v (exactly one shared.example)", got, want)
	}
	if hashes.Len() != 3 {
		t.Errorf("hashes.Len() = %d; want 3", hashes.Len())
	}
}

func TestBuildWhitelistOverride(t *testing.T) {
	t.Parallel()
	// Three sources all contribute the whitelisted domain.
	a := newTestAggregator(fakeFetcher{
		"http://lists.example/one":   "whitelisted.example\nkeep.example\n",
		"http://lists.example/two":   `["whitelisted.example"]`,
		"http://lists.example/three": "whitelisted.example\n",
	})

	domains, hashes, _, err := a.Build(context.Background(), []source.Spec{
		{Format: source.FormatList, Location: "http://lists.example/one"},
		{Format: source.FormatJSON, Location: "http://lists.example/two"},
		{Format: source.FormatList, Location: "http://lists.example/three"},
	}, domain.NewSet("whitelisted.example"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if domains.Has("whitelisted.example") {
		t.Error("whitelisted domain present in final domain set")
	}
	if hashes.Has(domain.Hash("whitelisted.example")) {
		t.Error("derived hash of whitelisted domain present in final hash set")
	}
	if !domains.Has("keep.example") || !hashes.Has(domain.Hash("keep.example")) {
		t.Error("non-whitelisted domain was dropped")
	}
}

func TestBuildMXFilter(t *testing.T) {
	t.Parallel()
	a := newTestAggregator(fakeFetcher{
		"http://lists.example/plain": "no-mx.example\nhas-mx.example\n",
	})
	a.Resolver = fakeResolver{"no-mx.example": true}

	domains, hashes, mxRejected, err := a.Build(context.Background(),
		[]source.Spec{{Format: source.FormatList, Location: "http://lists.example/plain"}},
		domain.NewSet())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if domains.Has("no-mx.example") {
		t.Error("domain without MX present in final domain set")
	}
	if hashes.Has(domain.Hash("no-mx.example")) {
		t.Error("hash of domain without MX present in final hash set")
	}
	if !reflect.DeepEqual(mxRejected, []string{"no-mx.example"}) {
		t.Errorf("mxRejected = %v; want [no-mx.example]", mxRejected)
	}
	if !domains.Has("has-mx.example") {
		t.Error("domain with MX was dropped")
	}
}

func TestBuildSkipsFailedAndMalformedSources(t *testing.T) {
	t.Parallel()
	a := newTestAggregator(fakeFetcher{
		"http://lists.example/good":      "good.example\n",
		"http://lists.example/not-array": `{"oops": true}`,
		"http://lists.example/no-active": `{"active": []}`,
	})

	domains, _, _, err := a.Build(context.Background(), []source.Spec{
		{Format: source.FormatList, Location: "http://lists.example/down"}, // unavailable
		{Format: source.FormatJSON, Location: "http://lists.example/not-array"},
		{Format: source.FormatDiscard, Location: "http://lists.example/no-active"},
		{Format: "carrier-pigeon", Location: "http://lists.example/good"}, // unsupported, silent
		{Format: source.FormatList, Location: "http://lists.example/good"},
	}, domain.NewSet())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if got := domains.Sorted(); !reflect.DeepEqual(got, []string{"good.example"}) {
		t.Errorf("domains = %v; want only the surviving source's entry", got)
	}
}

func TestBuildFileSource(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "local.txt")
	if err := os.WriteFile(path, []byte("local.example\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := New(fakeFetcher{}, false) // default ReadFile hits the real file
	domains, _, _, err := a.Build(context.Background(),
		[]source.Spec{{Format: source.FormatFile, Location: path}},
		domain.NewSet())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !domains.Has("local.example") {
		t.Errorf("domains = %v; want local.example from file source", domains.Sorted())
	}
}

func TestBuildRepeatedRunsShareNoState(t *testing.T) {
	t.Parallel()
	a := newTestAggregator(fakeFetcher{
		"http://lists.example/plain": "only.example\n",
	})
	specs := []source.Spec{{Format: source.FormatList, Location: "http://lists.example/plain"}}

	first, _, _, err := a.Build(context.Background(), specs, domain.NewSet())
	if err != nil {
		t.Fatal(err)
	}
	first.Add("stray.example")

	second, _, _, err := a.Build(context.Background(), specs, domain.NewSet())
	if err != nil {
		t.Fatal(err)
	}
	if second.Has("stray.example") {
		t.Error("second Build observed state mutated after the first run")
	}
	if second.Len() != 1 {
		t.Errorf("second Build len = %d; want 1", second.Len())
	}
}

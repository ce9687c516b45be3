package diff

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
	"reflect"
	"testing"

	"github.com/dispolist/dispolist/internal/domain"
)

func TestDiffIdenticalSets(t *testing.T) {
	t.Parallel()
	domains := domain.NewSet("a.com", "b.com")
	hashes := domain.NewSet(domain.Hash("a.com"), domain.Hash("b.com"))
	prev := Snapshot{
		Domains: domain.NewSet("a.com", "b.com"),
		Hashes:  domain.NewSet(domain.Hash("a.com"), domain.Hash("b.com")),
	}

	r := Diff(domains, hashes, prev)

	if r.Changed {
		t.Error("Changed = true for identical sets; want false")
	}
	if len(r.AddedDomains)+len(r.RemovedDomains)+len(r.AddedHashes)+len(r.RemovedHashes) != 0 {
		t.Errorf("expected all four lists empty, got %+v", r)
	}
}

func TestDiffAddAndRemove(t *testing.T) {
	t.Parallel()
	cur := domain.NewSet("kept.com", "x.com")
	prev := Snapshot{
		Domains: domain.NewSet("kept.com", "y.com"),
		Hashes:  domain.NewSet(),
	}

	r := Diff(cur, domain.NewSet(), prev)

	if !r.Changed {
		t.Error("Changed = false; want true")
	}
	if !reflect.DeepEqual(r.AddedDomains, []string{"x.com"}) {
		t.Errorf("AddedDomains = %v; want [x.com]", r.AddedDomains)
	}
	if !reflect.DeepEqual(r.RemovedDomains, []string{"y.com"}) {
		t.Errorf("RemovedDomains = %v; want [y.com]", r.RemovedDomains)
	}
}

func TestDiffHashOnlyChange(t *testing.T) {
	t.Parallel()
	domains := domain.NewSet("a.com")
	curHashes := domain.NewSet(domain.Hash("a.com"), "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	prev := Snapshot{
		Domains: domain.NewSet("a.com"),
		Hashes:  domain.NewSet(domain.Hash("a.com")),
	}

	r := Diff(domains, curHashes, prev)

	if !r.Changed {
		t.Error("Changed = false on hash-only change; want true")
	}
	if len(r.AddedDomains) != 0 || len(r.RemovedDomains) != 0 {
		t.Errorf("domain lists should be empty, got %+v", r)
	}
	if !reflect.DeepEqual(r.AddedHashes, []string{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}) {
		t.Errorf("AddedHashes = %v", r.AddedHashes)
	}
}

func TestDiffEmptyPreviousSnapshot(t *testing.T) {
	t.Parallel()
	// First run: everything current counts as added.
	cur := domain.NewSet("a.com", "b.com")
	r := Diff(cur, domain.NewSet(), Snapshot{Domains: domain.NewSet(), Hashes: domain.NewSet()})

	if !r.Changed {
		t.Error("Changed = false against empty snapshot; want true")
	}
	if !reflect.DeepEqual(r.AddedDomains, []string{"a.com", "b.com"}) {
		t.Errorf("AddedDomains = %v; want [a.com b.com]", r.AddedDomains)
	}
}

func TestDiffDoesNotMutateInputs(t *testing.T) {
	t.Parallel()
	cur := domain.NewSet("a.com")
	prev := Snapshot{Domains: domain.NewSet("b.com"), Hashes: domain.NewSet("c")}

	_ = Diff(cur, domain.NewSet(), prev)

	if cur.Len() != 1 || !cur.Has("a.com") {
		t.Error("current set mutated by Diff")
	}
	if prev.Domains.Len() != 1 || !prev.Domains.Has("b.com") {
		t.Error("previous snapshot mutated by Diff")
	}
}

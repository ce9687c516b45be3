/*
Package diff compares the freshly aggregated sets against the previously
persisted snapshot and reports additions and removals. Comparison is pure:
neither input is mutated.
*/
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
	"github.com/zeebo/xxh3"

	"github.com/dispolist/dispolist/internal/domain"
)

// Snapshot is the previously persisted domain and hash sets. It is only
// an input to change reporting, never to merge logic.
type Snapshot struct {
	Domains domain.Set
	Hashes  domain.Set
}

// Report describes membership changes between the current run and the
// previous snapshot. The four lists are sorted.
type Report struct {
	AddedDomains   []string
	RemovedDomains []string
	AddedHashes    []string
	RemovedHashes  []string
	// Changed is true iff any of the four lists is non-empty.
	Changed bool
}

// Diff computes the change report of the current sets against prev.
func Diff(curDomains, curHashes domain.Set, prev Snapshot) Report {
	var r Report
	r.AddedDomains, r.RemovedDomains = compare(curDomains, prev.Domains)
	r.AddedHashes, r.RemovedHashes = compare(curHashes, prev.Hashes)
	r.Changed = len(r.AddedDomains) > 0 || len(r.RemovedDomains) > 0 ||
		len(r.AddedHashes) > 0 || len(r.RemovedHashes) > 0
	return r
}

// compare returns the members of cur absent from prev and vice versa.
// A cheap content fingerprint short-circuits the common "nothing changed"
// case before any per-element work.
func compare(cur, prev domain.Set) (added, removed []string) {
	if fingerprint(cur) == fingerprint(prev) {
		return nil, nil
	}
	for _, v := range cur.Sorted() {
		if !prev.Has(v) {
			added = append(added, v)
		}
	}
	for _, v := range prev.Sorted() {
		if !cur.Has(v) {
			removed = append(removed, v)
		}
	}
	return added, removed
}

// fingerprint hashes the sorted enumeration of a set. Equal sets always
// fingerprint equal; a collision between differing sets would only cost
// us a skipped report, and xxh3 makes that vanishingly unlikely.
func fingerprint(s domain.Set) uint64 {
	h := xxh3.New()
	for _, v := range s.Sorted() {
		_, _ = h.WriteString(v)
		_, _ = h.Write([]byte{'\n'})
	}
	return h.Sum64()
}

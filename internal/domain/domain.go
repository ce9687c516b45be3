/*
Package domain defines the canonical representation of a disposable-mail
domain: a normalized, lowercase hostname string, its SHA-1 digest over the
IDNA (ASCII-compatible) encoding, and the set type used to aggregate both.
*/
package domain

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
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/idna"
)

// trimCutset holds the characters stripped from both ends of a raw
// candidate before validation. Free-text sources routinely carry stray
// separators and "@" prefixes around domain names.
const trimCutset = " .,;@"

// domainRe is the acceptance grammar for a normalized domain: one or more
// dot-separated labels of letters, digits and hyphens, at most 63
// characters per label, at least two labels, anchored at both ends.
var domainRe = regexp.MustCompile(`^[a-z0-9-]{0,63}(\.[a-z0-9-]{0,63})+$`)

// hashRe matches a full 40-character lowercase hexadecimal SHA-1 digest.
var hashRe = regexp.MustCompile(`^[a-f0-9]{40}$`)

// Normalize canonicalizes a raw string into a domain usable as a set key.
// It strips surrounding separator characters, lowercases the remainder and
// accepts it only if it matches the domain grammar. The second return
// value is false when the candidate is rejected.
//
// Normalize is pure and idempotent on its own output.
func Normalize(raw string) (string, bool) {
	s := strings.ToLower(strings.Trim(raw, trimCutset))
	if !domainRe.MatchString(s) {
		return "", false
	}
	return s, true
}

// Hash returns the SHA-1 digest of the domain's ASCII-compatible (IDNA)
// encoding as 40 lowercase hex characters. Normalized domains are already
// ASCII, for which the IDNA encoding is the identity; the fallback to the
// raw string only defends against callers hashing un-normalized input.
func Hash(domain string) string {
	ascii, err := idna.ToASCII(domain)
	if err != nil || ascii == "" {
		ascii = domain
	}
	sum := sha1.Sum([]byte(ascii))
	return hex.EncodeToString(sum[:])
}

// ValidHash reports whether s is a well-formed 40-character lowercase
// hexadecimal digest.
func ValidHash(s string) bool {
	return hashRe.MatchString(s)
}

// Set is an unordered collection of unique strings, used for both the
// domain set and the hash set. The zero value is not usable; construct
// with NewSet or a map literal.
type Set map[string]struct{}

// NewSet returns a Set containing the given items.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Add inserts v into the set. Inserting an existing member is a no-op.
func (s Set) Add(v string) {
	s[v] = struct{}{}
}

// Has reports whether v is a member of the set.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Remove deletes v from the set if present.
func (s Set) Remove(v string) {
	delete(s, v)
}

// Len returns the number of members.
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the members in ascending order. The result is never nil,
// so it serializes to an empty JSON array rather than null.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

/*
Package store persists the aggregated sets and loads the previous run's
snapshot. Four artifacts are written per run, all derived from the output
base name:

	<base>.txt        sorted, newline-joined domains
	<base>.json       JSON array of the same domains
	<base>_sha1.txt   sorted, newline-joined digests
	<base>_sha1.json  JSON array of the same digests

The two .txt artifacts double as the snapshot input of the next run.
Persistence failures are the one error category surfaced to the caller.
*/
package store

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
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/dispolist/dispolist/internal/diff"
	"github.com/dispolist/dispolist/internal/domain"
)

// Artifact name suffixes keyed off the output base name.
const (
	domainsTxtSuffix  = ".txt"
	domainsJSONSuffix = ".json"
	hashesTxtSuffix   = "_sha1.txt"
	hashesJSONSuffix  = "_sha1.json"
)

// Write persists all four artifacts for base. It always writes, whether
// or not anything changed since the previous run.
func Write(base string, domains, hashes domain.Set) error {
	sortedDomains := domains.Sorted()
	sortedHashes := hashes.Sorted()

	if err := writeLines(base+domainsTxtSuffix, sortedDomains); err != nil {
		return err
	}
	if err := writeJSON(base+domainsJSONSuffix, sortedDomains); err != nil {
		return err
	}
	if err := writeLines(base+hashesTxtSuffix, sortedHashes); err != nil {
		return err
	}
	return writeJSON(base+hashesJSONSuffix, sortedHashes)
}

// LoadSnapshot reads the previous run's domain and hash text artifacts.
// Missing files yield an empty snapshot (first run); any other read error
// is a persistence failure surfaced to the caller.
func LoadSnapshot(base string) (diff.Snapshot, error) {
	domains, err := readLines(base + domainsTxtSuffix)
	if err != nil {
		return diff.Snapshot{}, fmt.Errorf("read previous domains: %w", err)
	}
	hashes, err := readLines(base + hashesTxtSuffix)
	if err != nil {
		return diff.Snapshot{}, fmt.Errorf("read previous hashes: %w", err)
	}
	return diff.Snapshot{Domains: domains, Hashes: hashes}, nil
}

func writeLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(line); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, lines []string) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readLines(path string) (domain.Set, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewSet(), nil
	}
	if err != nil {
		return nil, err
	}

	set := domain.NewSet()
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			set.Add(line)
		}
	}
	return set, nil
}

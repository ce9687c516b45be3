/*
Package source defines the ingestion side of the pipeline: the SourceSpec
configuration unit, one adapter per supported payload format, and the
fetch capabilities used to obtain raw payload bytes.

Adapters form a closed set of variants selected once by format tag. Each
adapter turns raw bytes into candidate domain strings, ready-made SHA-1
digests, or a named failure. Candidates still need normalization; digests
are validated against the 40-hex grammar by the caller before acceptance.
*/
package source

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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Spec pairs a format tag with a location. The tag selects the adapter;
// the location is a URL, or a local path for the file format.
type Spec struct {
	Format   string `json:"format"`
	Location string `json:"location"`
}

// Recognized format tags.
const (
	FormatList     = "list"          // newline-delimited domains, fetched remotely
	FormatFile     = "file"          // newline-delimited domains, local file
	FormatJSON     = "json"          // JSON array of domain strings
	FormatTempMail = "temp-mail"     // HTML <option> fragment
	FormatSHA1     = "sha1"          // newline-delimited SHA-1 digests
	FormatDiscard  = "discard.email" // JSON object with an "active" array
)

// Named failure categories. Callers match with errors.Is; both are
// recovered locally by skipping the offending source.
var (
	// ErrUnavailable marks a transport failure, timeout or non-200 reply.
	ErrUnavailable = errors.New("source unavailable")
	// ErrMalformed marks a payload that does not match the declared format.
	ErrMalformed = errors.New("malformed payload")
	// ErrUnsupported marks a format tag with no matching adapter.
	ErrUnsupported = errors.New("unsupported source format")
)

// Adapter extracts raw candidate domain strings and/or ready-made SHA-1
// digest strings from one fetched payload.
type Adapter interface {
	Extract(data []byte) (candidates []string, hashes []string, err error)
}

// ForFormat returns the adapter for the given format tag, or
// ErrUnsupported when no adapter matches. This is the single point of
// tag dispatch; adapters themselves never branch on the tag.
func ForFormat(tag string) (Adapter, error) {
	switch tag {
	case FormatList, FormatFile:
		return lineAdapter{}, nil
	case FormatJSON:
		return jsonAdapter{}, nil
	case FormatTempMail:
		return tempMailAdapter{}, nil
	case FormatSHA1:
		return sha1Adapter{}, nil
	case FormatDiscard:
		return discardAdapter{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, tag)
}

// scanLines iterates the payload line by line with a generous buffer;
// blocklist mirrors occasionally ship very long comment lines.
func scanLines(data []byte, fn func(line string)) error {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		fn(sc.Text())
	}
	return sc.Err()
}

// lineAdapter handles the list and file formats: every non-empty,
// non-comment line is one candidate domain.
type lineAdapter struct{}

func (lineAdapter) Extract(data []byte) ([]string, []string, error) {
	var candidates []string
	err := scanLines(data, func(line string) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			return
		}
		candidates = append(candidates, line)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return candidates, nil, nil
}

// jsonAdapter handles a JSON array of strings. Elements of other types
// are ignored; a non-array top level is a malformed payload.
type jsonAdapter struct{}

func (jsonAdapter) Extract(data []byte) ([]string, []string, error) {
	var elems []any
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, nil, fmt.Errorf("%w: expected a JSON array: %v", ErrMalformed, err)
	}
	var candidates []string
	for _, e := range elems {
		if s, ok := e.(string); ok {
			candidates = append(candidates, s)
		}
	}
	return candidates, nil, nil
}

// optionRe captures the domain out of temp-mail style HTML dropdowns:
// <option value="@nowhere.example">@nowhere.example</option>
var optionRe = regexp.MustCompile(`(?i)<option value="@[^"]*">@([^<]*)</option>`)

// tempMailAdapter scrapes candidates from an HTML fragment.
type tempMailAdapter struct{}

func (tempMailAdapter) Extract(data []byte) ([]string, []string, error) {
	var candidates []string
	for _, m := range optionRe.FindAllSubmatch(data, -1) {
		candidates = append(candidates, string(m[1]))
	}
	return candidates, nil, nil
}

// sha1Adapter handles sources that publish only digests, never the
// plaintext domain. Each line is lowercased and its leading 40 hex
// characters taken as the digest; anything else on the line is discarded.
// This adapter bypasses domain normalization entirely.
type sha1Adapter struct{}

func (sha1Adapter) Extract(data []byte) ([]string, []string, error) {
	var hashes []string
	err := scanLines(data, func(line string) {
		line = strings.ToLower(strings.TrimSpace(line))
		if len(line) < 40 || !isHex(line[:40]) {
			return
		}
		hashes = append(hashes, line[:40])
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil, hashes, nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') {
			continue
		}
		return false
	}
	return true
}

// discardAdapter handles the discard.email API shape: a JSON object whose
// "active" key maps to a non-empty array of objects carrying a "domain".
type discardAdapter struct{}

func (discardAdapter) Extract(data []byte) ([]string, []string, error) {
	var payload struct {
		Active []struct {
			Domain string `json:"domain"`
		} `json:"active"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, nil, fmt.Errorf("%w: expected a JSON object: %v", ErrMalformed, err)
	}
	if len(payload.Active) == 0 {
		return nil, nil, fmt.Errorf("%w: missing or empty \"active\" array", ErrMalformed)
	}
	var candidates []string
	for _, e := range payload.Active {
		if e.Domain != "" {
			candidates = append(candidates, e.Domain)
		}
	}
	return candidates, nil, nil
}

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
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dispolist/dispolist/internal/client"
)

// Fetcher retrieves the raw payload behind a remote source location.
// Failures are reported as ErrUnavailable; there are no retries.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// maxPayloadBytes bounds a single source payload. The largest public
// blocklists are a few megabytes; anything beyond this is junk.
const maxPayloadBytes = 64 << 20

// HTTPFetcher fetches locations over the shared HTTP client. The
// per-fetch timeout is the client's request timeout.
type HTTPFetcher struct{}

// Fetch performs a single GET of the location and returns the body.
// Transport errors, timeouts and non-200 replies all map to
// ErrUnavailable so the caller can skip the source uniformly.
func (HTTPFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := client.GetHTTPClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %s", ErrUnavailable, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	return body, nil
}

/*
Package config loads the static run configuration: the source list, the
whitelist, the output base name, and the verbose and metrics options.
Everything comes from the environment (optionally seeded from a .env
file); the only command-line flag lives in cmd/dispolist.
*/
package config

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
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dispolist/dispolist/internal/source"
)

// Config is the static configuration of one aggregation run.
type Config struct {
	// Sources lists every (format, location) pair to ingest.
	Sources []source.Spec
	// Whitelist holds domains always excluded from the final output.
	Whitelist []string
	// OutputBase is the base path all four output artifacts derive from.
	OutputBase string
	// Verbose enables skip warnings and change reporting.
	Verbose bool
	// DNSVerify enables the MX filter. Set from the CLI flag, not the
	// environment.
	DNSVerify bool
	// MetricsAddr, when non-empty, serves Prometheus metrics there.
	MetricsAddr string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Load builds the configuration from the environment. A .env file in the
// working directory is honored when present.
func Load() (Config, error) {
	// Best effort; a missing .env file simply means plain env vars.
	_ = godotenv.Load()

	cfg := Config{
		OutputBase:  getenv("DISPOLIST_OUTPUT", "domains"),
		MetricsAddr: os.Getenv("DISPOLIST_METRICS_ADDR"),
	}

	if v := os.Getenv("DISPOLIST_VERBOSE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DISPOLIST_VERBOSE=%q: %w", v, err)
		}
		cfg.Verbose = b
	}

	if cfg.OutputBase == "" {
		return Config{}, fmt.Errorf("DISPOLIST_OUTPUT must not be empty")
	}

	if path := os.Getenv("DISPOLIST_SOURCES"); path != "" {
		sources, err := loadSourcesFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("load sources file: %w", err)
		}
		cfg.Sources = sources
	} else {
		cfg.Sources = DefaultSources()
	}

	if path := os.Getenv("DISPOLIST_WHITELIST"); path != "" {
		whitelist, err := loadWhitelistFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("load whitelist file: %w", err)
		}
		cfg.Whitelist = whitelist
	} else {
		cfg.Whitelist = DefaultWhitelist()
	}

	return cfg, nil
}

// loadSourcesFile parses a JSON object mapping format tags to location
// lists, e.g. {"list": ["https://...", "https://..."], "sha1": [...]}.
// Tags are iterated in sorted order so the source sequence is stable.
func loadSourcesFile(path string) ([]source.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var byFormat map[string][]string
	if err := json.Unmarshal(data, &byFormat); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	tags := make([]string, 0, len(byFormat))
	for tag := range byFormat {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	var specs []source.Spec
	for _, tag := range tags {
		for _, loc := range byFormat[tag] {
			specs = append(specs, source.Spec{Format: tag, Location: loc})
		}
	}
	return specs, nil
}

// loadWhitelistFile reads one domain per line, skipping blanks and
// comment lines.
func loadWhitelistFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, nil
}

// DefaultSources returns the built-in source list: the public
// disposable-domain collections this tool aggregates when no sources file
// is configured.
func DefaultSources() []source.Spec {
	return []source.Spec{
		{Format: source.FormatList, Location: "https://raw.githubusercontent.com/disposable-email-domains/disposable-email-domains/main/disposable_email_blocklist.conf"},
		{Format: source.FormatList, Location: "https://raw.githubusercontent.com/wesbos/burner-email-providers/master/emails.txt"},
		{Format: source.FormatList, Location: "https://gist.githubusercontent.com/adamloving/4401361/raw/"},
		{Format: source.FormatJSON, Location: "https://raw.githubusercontent.com/ivolo/disposable-email-domains/master/index.json"},
		{Format: source.FormatTempMail, Location: "https://temp-mail.org/en/option/change/"},
		{Format: source.FormatSHA1, Location: "https://raw.githubusercontent.com/GeroldSetz/emailondeck.com-domains/master/emailondeck.com_domains_from_bdea.cc.txt"},
		{Format: source.FormatDiscard, Location: "https://www.discard.email/api/rest.php?action=getAllDomains"},
	}
}

// DefaultWhitelist returns well-known mail providers that occasionally
// leak into disposable lists and must never appear in the output.
func DefaultWhitelist() []string {
	return []string{
		"gmail.com",
		"googlemail.com",
		"yahoo.com",
		"outlook.com",
		"hotmail.com",
		"live.com",
		"aol.com",
		"icloud.com",
		"me.com",
		"protonmail.com",
		"proton.me",
		"zoho.com",
		"gmx.de",
		"gmx.net",
		"web.de",
		"mail.ru",
		"yandex.ru",
		"posteo.de",
		"fastmail.com",
	}
}

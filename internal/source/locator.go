// Copyright 2025 ByteDance Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package source turns a repository reference into the two inputs the
// summarizer needs: an index of the repository's top-level files and its
// descriptive metadata.
package source

import (
	"fmt"
	"net/url"
	"strings"

	berrors "github.com/cloudwego/gitblog/internal/errors"
)

// githubHosts are the hosts whose URLs name a GitHub repository.
var githubHosts = map[string]bool{
	"github.com":     true,
	"www.github.com": true,
	"api.github.com": true,
}

// ParseLocator reduces a repository reference to "owner/name". It accepts
// bare "owner/name" strings as well as web, API and SSH URLs of the form
// https://github.com/owner/name, github.com/owner/name/tree/main or
// git@github.com:owner/name.git. References to any other host are rejected.
func ParseLocator(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", berrors.LocatorResolution("source.parse_locator", "empty repository reference", nil)
	}
	bare := false
	if rest, ok := strings.CutPrefix(s, "git@"); ok {
		host, path, found := strings.Cut(rest, ":")
		if !found || !githubHosts[strings.ToLower(host)] {
			return "", malformed(raw)
		}
		s = path
	} else if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return "", berrors.LocatorResolution("source.parse_locator", fmt.Sprintf("malformed repository reference %q", raw), err)
		}
		if !githubHosts[strings.ToLower(u.Hostname())] {
			return "", berrors.LocatorResolution("source.parse_locator", fmt.Sprintf("%q is not a GitHub repository", raw), nil)
		}
		s = strings.TrimPrefix(u.Path, "/repos/")
	} else if rest, ok := cutHostPrefix(s); ok {
		s = rest
	} else {
		bare = true
	}

	var parts []string
	for _, p := range strings.Split(s, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 || (bare && len(parts) != 2) {
		return "", malformed(raw)
	}
	owner, name := parts[0], strings.TrimSuffix(parts[1], ".git")
	if !validOwner(owner) || !validSegment(name) {
		return "", malformed(raw)
	}
	return owner + "/" + name, nil
}

// cutHostPrefix strips a leading "github.com/" or "www.github.com/".
func cutHostPrefix(s string) (string, bool) {
	lower := strings.ToLower(s)
	for _, prefix := range []string{"github.com/", "www.github.com/"} {
		if strings.HasPrefix(lower, prefix) {
			return s[len(prefix):], true
		}
	}
	return "", false
}

func malformed(raw string) error {
	return berrors.LocatorResolution("source.parse_locator", fmt.Sprintf("malformed repository reference %q", raw), nil)
}

// validOwner allows the characters of a GitHub user or organization name.
func validOwner(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
		default:
			return false
		}
	}
	return true
}

// validSegment allows the characters GitHub accepts in repository names.
func validSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

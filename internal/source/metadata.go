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

package source

import (
	"context"
	"strconv"
	"time"
)

// NoDescription stands in for a repository without a description.
const NoDescription = "No description"

// Metadata describes a repository. The zero value means "not fetched".
type Metadata struct {
	Stars       int    `json:"stars"`
	Forks       int    `json:"forks"`
	Language    string `json:"language"`
	Description string `json:"description"`
	LastUpdated string `json:"last_updated"`
	FullName    string `json:"full_name"`
	HTMLURL     string `json:"html_url"`
}

// Pair is one flattened metadata entry.
type Pair struct {
	Key   string
	Value string
}

// Pairs flattens the metadata in a fixed key order.
func (m Metadata) Pairs() []Pair {
	return []Pair{
		{"stars", strconv.Itoa(m.Stars)},
		{"forks", strconv.Itoa(m.Forks)},
		{"language", m.Language},
		{"description", m.Description},
		{"last_updated", m.LastUpdated},
		{"full_name", m.FullName},
		{"html_url", m.HTMLURL},
	}
}

func (m Metadata) IsZero() bool { return m == Metadata{} }

// MetadataFetcher reads descriptive metadata of a repository.
type MetadataFetcher struct {
	repo RepositoryReader
}

func NewMetadataFetcher(repo RepositoryReader) *MetadataFetcher {
	return &MetadataFetcher{repo: repo}
}

func (f *MetadataFetcher) Fetch(ctx context.Context, locator string) (Metadata, error) {
	fullName, err := ParseLocator(locator)
	if err != nil {
		return Metadata{}, err
	}
	repo, err := f.repo.GetRepository(ctx, fullName)
	if err != nil {
		return Metadata{}, err
	}
	md := Metadata{
		Stars:       repo.Stars,
		Forks:       repo.Forks,
		Language:    repo.Language,
		Description: repo.Description,
		FullName:    repo.FullName,
		HTMLURL:     repo.HTMLURL,
	}
	if md.Description == "" {
		md.Description = NoDescription
	}
	if md.FullName == "" {
		md.FullName = fullName
	}
	if !repo.UpdatedAt.IsZero() {
		md.LastUpdated = repo.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return md, nil
}

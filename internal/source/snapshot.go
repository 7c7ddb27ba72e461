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
	"bytes"
	"context"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"

	"github.com/cloudwego/gitblog/internal/github"
	"github.com/cloudwego/gitblog/internal/log"
)

// binarySniffLen is how much of a file is inspected for NUL bytes.
const binarySniffLen = 8000

// FileEntry is one classified top-level file.
type FileEntry struct {
	Category Category `json:"category"`
	Content  string   `json:"content"`
	// Unreadable marks binary files; Content is empty for them.
	Unreadable bool `json:"unreadable,omitempty"`
}

// FileIndex maps file names to their entries.
type FileIndex map[string]FileEntry

// Names returns the file names in lexical order.
func (idx FileIndex) Names() []string {
	names := make([]string, 0, len(idx))
	for name := range idx {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DecodeContent converts raw file bytes to text. Files that look binary
// (a NUL byte near the start) are reported as unreadable; any other invalid
// UTF-8 sequence is replaced with U+FFFD. A leading byte order mark is dropped.
func DecodeContent(data []byte) (text string, readable bool) {
	if bytes.IndexByte(data[:min(len(data), binarySniffLen)], 0) >= 0 {
		return "", false
	}
	if utf8.Valid(data) {
		return strings.TrimPrefix(string(data), "\ufeff"), true
	}
	out, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), string(utf8.RuneError)), true
	}
	return string(out), true
}

// RepositoryReader is the part of the hosting API the fetchers depend on.
type RepositoryReader interface {
	GetRepository(ctx context.Context, fullName string) (*github.Repository, error)
	ListTopLevelFiles(ctx context.Context, fullName string) ([]github.File, error)
}

// SnapshotFetcher builds the FileIndex of a repository's top level.
type SnapshotFetcher struct {
	repo RepositoryReader
}

func NewSnapshotFetcher(repo RepositoryReader) *SnapshotFetcher {
	return &SnapshotFetcher{repo: repo}
}

// Fetch lists the top level of the repository named by locator and
// classifies and decodes every regular file. Subdirectories are skipped.
func (f *SnapshotFetcher) Fetch(ctx context.Context, locator string) (FileIndex, error) {
	fullName, err := ParseLocator(locator)
	if err != nil {
		return nil, err
	}
	files, err := f.repo.ListTopLevelFiles(ctx, fullName)
	if err != nil {
		return nil, err
	}
	idx := make(FileIndex, len(files))
	for _, file := range files {
		if file.Type != "file" {
			continue
		}
		if file.Err != nil {
			idx[file.Name] = FileEntry{Category: Classify(file.Name), Unreadable: true}
			continue
		}
		text, readable := DecodeContent(file.Data)
		if !readable {
			log.Warn("source: %s/%s looks binary, content omitted", fullName, file.Name)
		}
		idx[file.Name] = FileEntry{
			Category:   Classify(file.Name),
			Content:    text,
			Unreadable: !readable,
		}
	}
	log.Info("source: indexed %d files of %s", len(idx), fullName)
	return idx, nil
}

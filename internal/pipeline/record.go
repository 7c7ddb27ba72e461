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

package pipeline

import (
	"fmt"
	"maps"
	"sync"
	"unicode/utf8"

	berrors "github.com/cloudwego/gitblog/internal/errors"
	"github.com/cloudwego/gitblog/internal/source"
)

// Field names one slot of the Record.
type Field string

const (
	FieldLocator      Field = "repository_locator"
	FieldFiles        Field = "file_index"
	FieldMetadata     Field = "repo_metadata"
	FieldTranscript   Field = "transcript"
	FieldArticle      Field = "article_body"
	FieldPublishedURL Field = "published_url"
)

// Record is the state threaded through one pipeline run. Every field is
// write-once: setting an empty value is a no-op, setting the value already
// held is a no-op, and setting a different non-empty value fails with a
// conflict error. Records are not shared between runs.
type Record struct {
	mu           sync.RWMutex
	locator      string
	files        source.FileIndex
	metadata     source.Metadata
	transcript   string
	article      string
	publishedURL string
}

func NewRecord(locator string) *Record {
	return &Record{locator: locator}
}

func (r *Record) Locator() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.locator
}

// Files returns a copy of the file index; changing it does not touch the
// record.
func (r *Record) Files() source.FileIndex {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.files)
}

func (r *Record) Metadata() source.Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metadata
}

func (r *Record) Transcript() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.transcript
}

func (r *Record) Article() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.article
}

func (r *Record) PublishedURL() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.publishedURL
}

func (r *Record) SetLocator(v string) error {
	return setString(r, FieldLocator, &r.locator, v)
}

func (r *Record) SetFiles(v source.FileIndex) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return merge(FieldFiles, &r.files, maps.Clone(v), func(idx source.FileIndex) bool { return len(idx) == 0 },
		func(a, b source.FileIndex) bool { return maps.Equal(a, b) },
		func(idx source.FileIndex) string { return fmt.Sprintf("%d files", len(idx)) })
}

func (r *Record) SetMetadata(v source.Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return merge(FieldMetadata, &r.metadata, v, source.Metadata.IsZero,
		func(a, b source.Metadata) bool { return a == b }, func(md source.Metadata) string { return md.FullName })
}

func (r *Record) SetTranscript(v string) error {
	return setString(r, FieldTranscript, &r.transcript, v)
}

func (r *Record) SetArticle(v string) error {
	return setString(r, FieldArticle, &r.article, v)
}

func (r *Record) SetPublishedURL(v string) error {
	return setString(r, FieldPublishedURL, &r.publishedURL, v)
}

// Set assigns value to field by name. The value must have the field's type.
func (r *Record) Set(field Field, value any) error {
	switch field {
	case FieldFiles:
		if v, ok := value.(source.FileIndex); ok {
			return r.SetFiles(v)
		}
	case FieldMetadata:
		if v, ok := value.(source.Metadata); ok {
			return r.SetMetadata(v)
		}
	case FieldLocator, FieldTranscript, FieldArticle, FieldPublishedURL:
		v, ok := value.(string)
		if !ok {
			break
		}
		switch field {
		case FieldLocator:
			return r.SetLocator(v)
		case FieldTranscript:
			return r.SetTranscript(v)
		case FieldArticle:
			return r.SetArticle(v)
		default:
			return r.SetPublishedURL(v)
		}
	default:
		return fmt.Errorf("record: unknown field %q", field)
	}
	return fmt.Errorf("record: field %s does not accept %T", field, value)
}

// Get returns the current value of field, which is the zero value until a
// step has written it.
func (r *Record) Get(field Field) any {
	switch field {
	case FieldLocator:
		return r.Locator()
	case FieldFiles:
		return r.Files()
	case FieldMetadata:
		return r.Metadata()
	case FieldTranscript:
		return r.Transcript()
	case FieldArticle:
		return r.Article()
	case FieldPublishedURL:
		return r.PublishedURL()
	}
	return nil
}

func setString(r *Record, field Field, dst *string, v string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return merge(field, dst, v, func(s string) bool { return s == "" },
		func(a, b string) bool { return a == b }, abbreviate)
}

// merge applies the write-once rule. The caller holds the lock.
func merge[T any](field Field, dst *T, v T, empty func(T) bool, equal func(a, b T) bool, show func(T) string) error {
	switch {
	case empty(v):
		return nil
	case empty(*dst):
		*dst = v
		return nil
	case equal(*dst, v):
		return nil
	}
	return berrors.Conflict(string(field), show(*dst), show(v))
}

func abbreviate(s string) string {
	const limit = 40
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}

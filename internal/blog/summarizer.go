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

// Package blog turns a repository snapshot into prose: a structured
// transcript of the repository's components, then a long-form article
// built from that transcript.
package blog

import (
	"context"
	"fmt"
	"strings"

	berrors "github.com/cloudwego/gitblog/internal/errors"
	"github.com/cloudwego/gitblog/internal/log"
	"github.com/cloudwego/gitblog/internal/source"
	"github.com/cloudwego/gitblog/llm"
	"github.com/cloudwego/gitblog/llm/prompt"
)

// DefaultExcerptChars is how much of each file the summarizer shows the model.
const DefaultExcerptChars = 500

const (
	binaryPlaceholder = "[binary content omitted]"
	truncationMarker  = "..."
)

// Summarizer produces the transcript of a repository from its files and
// metadata with a single completion request. Files are only shown to the
// model up to a fixed prefix.
type Summarizer struct {
	gen          llm.Generator
	excerptChars int
}

func NewSummarizer(gen llm.Generator, excerptChars int) *Summarizer {
	if excerptChars <= 0 {
		excerptChars = DefaultExcerptChars
	}
	return &Summarizer{gen: gen, excerptChars: excerptChars}
}

func (s *Summarizer) Summarize(ctx context.Context, files source.FileIndex, md source.Metadata) (string, error) {
	input, err := prompt.Summarize.Render(ctx, map[string]any{
		"files":    RenderFiles(files, s.excerptChars),
		"metadata": FlattenMetadata(md),
	})
	if err != nil {
		return "", err
	}
	out, err := s.gen.Call(ctx, input)
	if err != nil {
		return "", berrors.CompletionRequest("blog.summarize", err)
	}
	if strings.TrimSpace(out) == "" {
		return "", berrors.UnusableCompletion("blog.summarize", "model returned an empty transcript")
	}
	log.Info("blog: transcript of %d characters from %d files", len(out), len(files))
	return out, nil
}

// Excerpt returns at most n characters from the start of content. The
// second result reports whether anything was cut.
func Excerpt(content string, n int) (string, bool) {
	if n <= 0 {
		return "", content != ""
	}
	count := 0
	for i := range content {
		if count == n {
			return content[:i], true
		}
		count++
	}
	return content, false
}

// RenderFiles lists every file with its category and content excerpt, in
// name order.
func RenderFiles(files source.FileIndex, excerptChars int) string {
	var sb strings.Builder
	for _, name := range files.Names() {
		entry := files[name]
		fmt.Fprintf(&sb, "%s (%s):\n", name, entry.Category)
		if entry.Unreadable {
			sb.WriteString(binaryPlaceholder)
			sb.WriteString("\n\n")
			continue
		}
		sb.WriteString(renderExcerpt(entry.Content, excerptChars))
		sb.WriteString("\n\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderExcerpt cuts content to n characters, the truncation marker
// included. Cutoffs too small to hold the marker get a bare cut.
func renderExcerpt(content string, n int) string {
	if _, cut := Excerpt(content, n); !cut {
		return content
	}
	if n <= len(truncationMarker) {
		text, _ := Excerpt(content, n)
		return text
	}
	text, _ := Excerpt(content, n-len(truncationMarker))
	return text + truncationMarker
}

// FlattenMetadata renders metadata as "key: value" lines.
func FlattenMetadata(md source.Metadata) string {
	pairs := md.Pairs()
	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		lines = append(lines, p.Key+": "+p.Value)
	}
	return strings.Join(lines, "\n")
}

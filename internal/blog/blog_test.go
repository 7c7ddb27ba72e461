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

package blog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	berrors "github.com/cloudwego/gitblog/internal/errors"
	"github.com/cloudwego/gitblog/internal/source"
)

type fakeGenerator struct {
	reply  string
	err    error
	inputs []string
}

func (g *fakeGenerator) Call(_ context.Context, input string) (string, error) {
	g.inputs = append(g.inputs, input)
	return g.reply, g.err
}

var testMetadata = source.Metadata{
	Stars:       42,
	Forks:       7,
	Language:    "Python",
	Description: "A demo",
	LastUpdated: "2024-05-01T10:00:00Z",
	FullName:    "octo/demo",
	HTMLURL:     "https://github.com/octo/demo",
}

func TestExcerpt(t *testing.T) {
	got, cut := Excerpt("hello", 10)
	assert.Equal(t, "hello", got)
	assert.False(t, cut)

	got, cut = Excerpt("hello", 5)
	assert.Equal(t, "hello", got)
	assert.False(t, cut)

	got, cut = Excerpt("héllo wörld", 4)
	assert.Equal(t, "héll", got)
	assert.True(t, cut)

	got, cut = Excerpt("abc", 0)
	assert.Empty(t, got)
	assert.True(t, cut)
}

func TestExcerpt_NeverExceedsCutoff(t *testing.T) {
	inputs := []string{
		"",
		"short",
		strings.Repeat("x", 10000),
		strings.Repeat("日本語", 1000),
		strings.Repeat("a\x00b", 300),
	}
	for _, cutoff := range []int{1, 7, 100, 500} {
		for _, in := range inputs {
			got, _ := Excerpt(in, cutoff)
			assert.LessOrEqual(t, utf8.RuneCountInString(got), cutoff)
			assert.True(t, strings.HasPrefix(in, got))
		}
	}
}

func TestRenderFiles(t *testing.T) {
	files := source.FileIndex{
		"main.py":   {Category: source.CategorySource, Content: strings.Repeat("p", 20)},
		"README.md": {Category: source.CategoryDocs, Content: "# Demo"},
		"logo.png":  {Category: source.CategoryOther, Unreadable: true},
	}
	got := RenderFiles(files, 10)
	want := "README.md (docs):\n# Demo\n\n" +
		"logo.png (other):\n[binary content omitted]\n\n" +
		"main.py (source):\nppppppp..."
	assert.Equal(t, want, got)
}

func TestRenderFiles_ExcerptWithinCutoff(t *testing.T) {
	inputs := []string{
		"short",
		strings.Repeat("x", 10000),
		strings.Repeat("日本語", 1000),
	}
	for _, cutoff := range []int{1, 3, 4, 10, 500} {
		for _, in := range inputs {
			got := RenderFiles(source.FileIndex{"f.txt": {Category: source.CategoryDocs, Content: in}}, cutoff)
			excerpt := strings.TrimPrefix(got, "f.txt (docs):\n")
			assert.LessOrEqual(t, utf8.RuneCountInString(excerpt), cutoff, "cutoff %d", cutoff)
			if utf8.RuneCountInString(in) <= cutoff {
				assert.Equal(t, in, excerpt)
			}
		}
	}
}

func TestFlattenMetadata(t *testing.T) {
	want := "stars: 42\nforks: 7\nlanguage: Python\ndescription: A demo\n" +
		"last_updated: 2024-05-01T10:00:00Z\nfull_name: octo/demo\nhtml_url: https://github.com/octo/demo"
	assert.Equal(t, want, FlattenMetadata(testMetadata))
}

func TestSummarizer(t *testing.T) {
	gen := &fakeGenerator{reply: "  transcript text\n"}
	files := source.FileIndex{"main.py": {Category: source.CategorySource, Content: "print('{hi}')"}}

	got, err := NewSummarizer(gen, 0).Summarize(context.Background(), files, testMetadata)
	require.NoError(t, err)
	assert.Equal(t, "  transcript text\n", got, "returned verbatim")
	require.Len(t, gen.inputs, 1)
	assert.Contains(t, gen.inputs[0], "main.py (source):\nprint('{hi}')")
	assert.Contains(t, gen.inputs[0], "language: Python")
}

func TestSummarizer_Errors(t *testing.T) {
	gen := &fakeGenerator{err: context.DeadlineExceeded}
	_, err := NewSummarizer(gen, 100).Summarize(context.Background(), source.FileIndex{}, testMetadata)
	require.ErrorIs(t, err, berrors.ErrCompletionRequest)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	gen = &fakeGenerator{reply: " \n "}
	_, err = NewSummarizer(gen, 100).Summarize(context.Background(), source.FileIndex{}, testMetadata)
	assert.ErrorIs(t, err, berrors.ErrCompletionRequest)
}

func TestComposer(t *testing.T) {
	article := "# Exploring Demo\n\nDemo is a tool.\n\n## How to Use It\n\n```sh\npython main.py\n```\n"
	gen := &fakeGenerator{reply: article}
	c := NewComposer(gen)

	got, err := c.Compose(context.Background(), "the transcript", testMetadata)
	require.NoError(t, err)
	assert.Equal(t, article, got)
	require.Len(t, gen.inputs, 1)
	assert.Contains(t, gen.inputs[0], "the transcript")
	assert.Contains(t, gen.inputs[0], "stars: 42")
	assert.Equal(t, []string{"Exploring Demo", "How to Use It"}, c.Outline(article))
}

func TestComposer_Unusable(t *testing.T) {
	for _, reply := range []string{"", "   \n\t", "---\n\n---\n"} {
		gen := &fakeGenerator{reply: reply}
		_, err := NewComposer(gen).Compose(context.Background(), "t", testMetadata)
		assert.ErrorIs(t, err, berrors.ErrCompletionRequest, "%q", reply)
	}

	gen := &fakeGenerator{err: errors.New("connection refused")}
	_, err := NewComposer(gen).Compose(context.Background(), "t", testMetadata)
	require.ErrorIs(t, err, berrors.ErrCompletionRequest)
	assert.Contains(t, err.Error(), "connection refused")
}

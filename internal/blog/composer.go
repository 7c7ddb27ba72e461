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
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	berrors "github.com/cloudwego/gitblog/internal/errors"
	"github.com/cloudwego/gitblog/internal/log"
	"github.com/cloudwego/gitblog/internal/source"
	"github.com/cloudwego/gitblog/llm"
	"github.com/cloudwego/gitblog/llm/prompt"
)

// Composer writes the article body from a transcript. The generator is
// expected to carry the technical-writer system prompt.
type Composer struct {
	gen      llm.Generator
	markdown goldmark.Markdown
}

func NewComposer(gen llm.Generator) *Composer {
	return &Composer{gen: gen, markdown: goldmark.New()}
}

// Compose returns the completion text verbatim. A completion without any
// readable markdown content is rejected.
func (c *Composer) Compose(ctx context.Context, transcript string, md source.Metadata) (string, error) {
	input, err := prompt.Compose.Render(ctx, map[string]any{
		"transcript": transcript,
		"metadata":   FlattenMetadata(md),
	})
	if err != nil {
		return "", err
	}
	out, err := c.gen.Call(ctx, input)
	if err != nil {
		return "", berrors.CompletionRequest("blog.compose", err)
	}
	outline, ok := c.inspect(out)
	if !ok {
		return "", berrors.UnusableCompletion("blog.compose", "model returned an article without content")
	}
	log.Info("blog: article of %d characters, %d headings %q", len(out), len(outline), outline)
	return out, nil
}

// Outline returns the text of every heading in body, in document order.
func (c *Composer) Outline(body string) []string {
	outline, _ := c.inspect(body)
	return outline
}

// inspect parses body and reports its headings and whether it has any
// text or code at all.
func (c *Composer) inspect(body string) ([]string, bool) {
	if strings.TrimSpace(body) == "" {
		return nil, false
	}
	src := []byte(body)
	doc := c.markdown.Parser().Parse(text.NewReader(src))

	var outline []string
	hasContent := false
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if title := strings.TrimSpace(inlineText(node, src)); title != "" {
				outline = append(outline, title)
			}
		case *ast.Text:
			if strings.TrimSpace(string(node.Segment.Value(src))) != "" {
				hasContent = true
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if n.Lines().Len() > 0 {
				hasContent = true
			}
		}
		return ast.WalkContinue, nil
	})
	return outline, hasContent
}

func inlineText(n ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

/**
 * Copyright 2025 ByteDance Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package prompt

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	eprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

type Prompt interface {
	String() string
}

type TextPrompt string

func (p TextPrompt) String() string {
	return string(p)
}

func NewTextPrompt(content string) Prompt {
	return TextPrompt(content)
}

// Template is a single-message prompt with {name} placeholders, rendered by
// eino's FString formatter. Literal braces must be doubled.
type Template struct {
	name string
	tpl  *eprompt.DefaultChatTemplate
}

func NewTemplate(name, text string) *Template {
	return &Template{
		name: name,
		tpl:  eprompt.FromMessages(schema.FString, schema.UserMessage(text)),
	}
}

func (t *Template) Name() string { return t.name }

// Render substitutes vars into the template. Every placeholder must have a
// value in vars.
func (t *Template) Render(ctx context.Context, vars map[string]any) (string, error) {
	msgs, err := t.tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("render prompt %s: %w", t.name, err)
	}
	if len(msgs) == 0 {
		return "", fmt.Errorf("render prompt %s: no message produced", t.name)
	}
	return strings.TrimSpace(msgs[0].Content), nil
}

//go:embed summarize.md
var PromptSummarize string

//go:embed compose.md
var PromptCompose string

//go:embed writer.md
var PromptWriter string

var (
	Summarize = NewTemplate("summarize", PromptSummarize)
	Compose   = NewTemplate("compose", PromptCompose)
)

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

package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/schema"

	"github.com/cloudwego/gitblog/internal/log"
	"github.com/cloudwego/gitblog/llm/prompt"
)

var _ Generator = (*ChatGenerator)(nil)

// ChatGenerator sends each Call as a single-turn chat: an optional system
// prompt followed by the input as the user message. It never retries; a
// failed or timed-out request is returned to the caller as is.
type ChatGenerator struct {
	name      string
	model     ChatModel
	sysPrompt prompt.Prompt
	timeout   time.Duration
}

type ChatGeneratorOptions struct {
	SysPrompt prompt.Prompt
	Timeout   time.Duration // per-call timeout, default: 120s
}

func NewChatGenerator(name string, m ChatModel, opts ChatGeneratorOptions) *ChatGenerator {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &ChatGenerator{
		name:      name,
		model:     m,
		sysPrompt: opts.SysPrompt,
		timeout:   timeout,
	}
}

func (g *ChatGenerator) Call(ctx context.Context, input string) (string, error) {
	msgs := make([]*schema.Message, 0, 2)
	if g.sysPrompt != nil && g.sysPrompt.String() != "" {
		msgs = append(msgs, schema.SystemMessage(g.sysPrompt.String()))
	}
	msgs = append(msgs, schema.UserMessage(input))
	log.Debug("[%s] calling model, prompt length: %d", g.name, len(input))

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	callCtx = callbacks.InitCallbacks(callCtx, &callbacks.RunInfo{
		Name:      g.name,
		Type:      "ChatGenerator",
		Component: components.ComponentOfChatModel,
	}, CallbackHandler{})

	start := time.Now()
	out, err := g.model.Generate(callCtx, msgs)
	if err != nil {
		return "", fmt.Errorf("%s: generate: %w", g.name, err)
	}
	if out == nil {
		return "", fmt.Errorf("%s: generate: empty response", g.name)
	}
	log.Debug("[%s] model responded in %s, response length: %d", g.name, time.Since(start), len(out.Content))
	return out.Content, nil
}

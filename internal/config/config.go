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

// Package config holds the run configuration. Values come from defaults, an
// optional YAML file, a .env file, the environment and CLI flags; kong
// resolves all of them from the struct tags below.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/gitblog/llm"
)

// Config is passed explicitly to every collaborator constructor.
type Config struct {
	GitHub   GitHubConfig   `embed:"" prefix:"github-" group:"GitHub"`
	LLM      LLMConfig      `embed:"" prefix:"llm-" group:"Language model"`
	DevTo    DevToConfig    `embed:"" prefix:"devto-" group:"Publishing"`
	Pipeline PipelineConfig `embed:"" group:"Pipeline"`
}

type GitHubConfig struct {
	Token       string `help:"GitHub API token." env:"GITHUB_TOKEN"`
	APIURL      string `name:"api-url" help:"GitHub REST API base URL." env:"GITHUB_API_URL" default:"https://api.github.com"`
	Concurrency int    `help:"Maximum concurrent file content requests." env:"GITHUB_FETCH_CONCURRENCY" default:"4"`
}

type LLMConfig struct {
	Provider    string        `help:"Model provider (openai, claude, ark, ollama, dashscope, deepseek)." env:"LLM_PROVIDER" default:"openai"`
	Model       string        `help:"Model name." env:"LLM_MODEL" default:"gpt-4-turbo"`
	APIKey      string        `name:"api-key" help:"Model provider API key." env:"LLM_API_KEY,OPENAI_API_KEY"`
	BaseURL     string        `name:"base-url" help:"Model provider base URL." env:"LLM_BASE_URL"`
	Temperature float32       `help:"Sampling temperature." env:"LLM_TEMPERATURE" default:"0.7"`
	MaxTokens   int           `help:"Maximum tokens per completion." env:"LLM_MAX_TOKENS" default:"4096"`
	Timeout     time.Duration `help:"Timeout of a single completion request." env:"LLM_TIMEOUT" default:"120s"`
}

type DevToConfig struct {
	APIKey    string   `name:"api-key" help:"dev.to API key." env:"DEV_API,DEVTO_API_KEY"`
	APIURL    string   `name:"api-url" help:"dev.to API base URL." env:"DEVTO_API_URL" default:"https://dev.to/api"`
	Published bool     `help:"Publish immediately instead of saving a draft." env:"DEVTO_PUBLISHED" default:"true" negatable:""`
	Series    string   `help:"Series the article is added to." env:"DEVTO_SERIES" default:"GitHub Auto Blog Series"`
	Tags      []string `help:"Tags added after the repository language." env:"DEVTO_TAGS" default:"GitHub,Programming"`
}

type PipelineConfig struct {
	ExcerptChars    int  `help:"Characters of each file shown to the summarizer." env:"SUMMARY_EXCERPT_CHARS" default:"500"`
	SequentialFetch bool `help:"Fetch files and metadata one after the other instead of concurrently." env:"SEQUENTIAL_FETCH"`
}

// ModelConfig converts the LLM section into the llm package's model config.
func (c LLMConfig) ModelConfig() llm.ModelConfig {
	temp := c.Temperature
	return llm.ModelConfig{
		Name:        c.Provider,
		APIType:     llm.NewModelType(c.Provider),
		BaseURL:     c.BaseURL,
		APIKey:      c.APIKey,
		ModelName:   c.Model,
		Temperature: &temp,
		MaxTokens:   c.MaxTokens,
		Timeout:     c.Timeout,
	}
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	var problems []string
	if c.GitHub.Token == "" {
		problems = append(problems, "GitHub token is required (GITHUB_TOKEN)")
	}
	if c.GitHub.Concurrency < 1 {
		problems = append(problems, "GitHub fetch concurrency must be at least 1")
	}
	mt := llm.NewModelType(c.LLM.Provider)
	if mt == llm.ModelTypeUnknown {
		problems = append(problems, fmt.Sprintf("unsupported model provider %q", c.LLM.Provider))
	}
	if c.LLM.APIKey == "" && mt != llm.ModelTypeOllama {
		problems = append(problems, "model API key is required (LLM_API_KEY or OPENAI_API_KEY)")
	}
	if c.LLM.Model == "" {
		problems = append(problems, "model name is required (LLM_MODEL)")
	}
	if c.DevTo.APIKey == "" {
		problems = append(problems, "dev.to API key is required (DEV_API)")
	}
	if c.Pipeline.ExcerptChars < 1 {
		problems = append(problems, "excerpt length must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

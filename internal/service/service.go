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

// Package service wires configuration into a ready-to-run pipeline and
// exposes the single trigger operation shared by the CLI, HTTP and MCP
// front ends.
package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/cloudwego/gitblog/internal/blog"
	"github.com/cloudwego/gitblog/internal/config"
	berrors "github.com/cloudwego/gitblog/internal/errors"
	"github.com/cloudwego/gitblog/internal/github"
	"github.com/cloudwego/gitblog/internal/log"
	"github.com/cloudwego/gitblog/internal/metrics"
	"github.com/cloudwego/gitblog/internal/pipeline"
	"github.com/cloudwego/gitblog/internal/pipeline/steps"
	"github.com/cloudwego/gitblog/internal/publish"
	"github.com/cloudwego/gitblog/internal/source"
	"github.com/cloudwego/gitblog/llm"
	"github.com/cloudwego/gitblog/llm/prompt"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the outcome of one run as reported to callers. A failed run
// never carries a post URL.
type Result struct {
	Status  string `json:"status"`
	PostURL string `json:"post_url,omitempty"`
	Message string `json:"message,omitempty"`
	RunID   string `json:"run_id,omitempty"`
}

type Options struct {
	Config *config.Config
	// Summarizer and Composer override the generators built from the
	// model configuration.
	Summarizer llm.Generator
	Composer   llm.Generator
	HTTPClient *http.Client
	Recorder   metrics.Recorder
}

// Service runs the blog pipeline. It holds no per-run state, so concurrent
// RunPipeline calls are independent.
type Service struct {
	pipeline *pipeline.Pipeline
}

func New(ctx context.Context, opts Options) (*Service, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("service: config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sumGen, compGen := opts.Summarizer, opts.Composer
	if sumGen == nil || compGen == nil {
		cm, err := llm.NewChatModel(ctx, cfg.LLM.ModelConfig())
		if err != nil {
			return nil, err
		}
		if sumGen == nil {
			sumGen = llm.NewChatGenerator(steps.NameSummarize, cm, llm.ChatGeneratorOptions{
				Timeout: cfg.LLM.Timeout,
			})
		}
		if compGen == nil {
			compGen = llm.NewChatGenerator(steps.NameCompose, cm, llm.ChatGeneratorOptions{
				SysPrompt: prompt.NewTextPrompt(prompt.PromptWriter),
				Timeout:   cfg.LLM.Timeout,
			})
		}
	}

	gh := github.NewClient(github.Options{
		APIURL:      cfg.GitHub.APIURL,
		Token:       cfg.GitHub.Token,
		Concurrency: cfg.GitHub.Concurrency,
		HTTPClient:  opts.HTTPClient,
	})
	pub := publish.NewPublisher(publish.Options{
		APIURL:     cfg.DevTo.APIURL,
		APIKey:     cfg.DevTo.APIKey,
		Published:  cfg.DevTo.Published,
		Series:     cfg.DevTo.Series,
		Tags:       cfg.DevTo.Tags,
		HTTPClient: opts.HTTPClient,
	})

	pl := steps.New(
		source.NewSnapshotFetcher(gh),
		source.NewMetadataFetcher(gh),
		blog.NewSummarizer(sumGen, cfg.Pipeline.ExcerptChars),
		blog.NewComposer(compGen),
		pub,
	)
	pl.Recorder = opts.Recorder
	pl.Sequential = cfg.Pipeline.SequentialFetch
	log.Debug("service: model %s/%s, github %s, dev.to %s", cfg.LLM.Provider, cfg.LLM.Model, cfg.GitHub.APIURL, cfg.DevTo.APIURL)
	return &Service{pipeline: pl}, nil
}

// RunPipeline generates and publishes a blog post for the repository named
// by locator. Failures are reported in the Result, never as a panic or a
// partially filled success.
func (s *Service) RunPipeline(ctx context.Context, locator string) Result {
	run, err := s.pipeline.Run(ctx, locator)
	var runID string
	if run != nil {
		runID = run.ID
	}
	if err != nil {
		return Result{Status: StatusError, Message: Message(err), RunID: runID}
	}
	return Result{Status: StatusSuccess, PostURL: run.Record.PublishedURL(), RunID: runID}
}

// Describe renders the pipeline graph.
func (s *Service) Describe() string {
	return s.pipeline.Describe()
}

// Message is the user-facing text for a failed run. Rejections by the
// publishing endpoint are reported with the endpoint's raw response body.
func Message(err error) string {
	var be *berrors.Error
	if errors.As(err, &be) && be.Kind == berrors.KindPublish && be.Body != "" {
		return be.Body
	}
	return err.Error()
}

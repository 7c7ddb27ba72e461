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

// Package steps adapts each pipeline collaborator to pipeline.Step. A step
// reads its inputs from the record, calls its collaborator once and writes
// the result back; it never retries.
package steps

import (
	"context"
	"fmt"

	"github.com/cloudwego/gitblog/internal/pipeline"
	"github.com/cloudwego/gitblog/internal/source"
)

// Step names, also used as metric labels.
const (
	NameFetchFiles    = "fetch_files"
	NameFetchMetadata = "fetch_metadata"
	NameSummarize     = "summarize"
	NameCompose       = "compose"
	NamePublish       = "publish"
)

type FilesFetcher interface {
	Fetch(ctx context.Context, locator string) (source.FileIndex, error)
}

type MetadataFetcher interface {
	Fetch(ctx context.Context, locator string) (source.Metadata, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, files source.FileIndex, md source.Metadata) (string, error)
}

type Composer interface {
	Compose(ctx context.Context, transcript string, md source.Metadata) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, body string, md source.Metadata) (string, error)
}

// FetchFilesStep fills the file index.
type FetchFilesStep struct {
	Fetcher FilesFetcher
}

// Name implements pipeline.Step.
func (s *FetchFilesStep) Name() string { return NameFetchFiles }

// Run implements pipeline.Step.
func (s *FetchFilesStep) Run(ctx context.Context, rec *pipeline.Record) error {
	idx, err := s.Fetcher.Fetch(ctx, rec.Locator())
	if err != nil {
		return err
	}
	return rec.SetFiles(idx)
}

// FetchMetadataStep fills the repository metadata.
type FetchMetadataStep struct {
	Fetcher MetadataFetcher
}

// Name implements pipeline.Step.
func (s *FetchMetadataStep) Name() string { return NameFetchMetadata }

// Run implements pipeline.Step.
func (s *FetchMetadataStep) Run(ctx context.Context, rec *pipeline.Record) error {
	md, err := s.Fetcher.Fetch(ctx, rec.Locator())
	if err != nil {
		return err
	}
	return rec.SetMetadata(md)
}

// SummarizeStep turns files and metadata into the transcript.
type SummarizeStep struct {
	Summarizer Summarizer
}

// Name implements pipeline.Step.
func (s *SummarizeStep) Name() string { return NameSummarize }

// Run implements pipeline.Step.
func (s *SummarizeStep) Run(ctx context.Context, rec *pipeline.Record) error {
	transcript, err := s.Summarizer.Summarize(ctx, rec.Files(), rec.Metadata())
	if err != nil {
		return err
	}
	return rec.SetTranscript(transcript)
}

// ComposeStep turns the transcript into the article body.
type ComposeStep struct {
	Composer Composer
}

// Name implements pipeline.Step.
func (s *ComposeStep) Name() string { return NameCompose }

// Run implements pipeline.Step.
func (s *ComposeStep) Run(ctx context.Context, rec *pipeline.Record) error {
	if rec.Transcript() == "" {
		return fmt.Errorf("no transcript to compose from")
	}
	body, err := s.Composer.Compose(ctx, rec.Transcript(), rec.Metadata())
	if err != nil {
		return err
	}
	return rec.SetArticle(body)
}

// PublishStep submits the article and stores its public URL.
type PublishStep struct {
	Publisher Publisher
}

// Name implements pipeline.Step.
func (s *PublishStep) Name() string { return NamePublish }

// Run implements pipeline.Step.
func (s *PublishStep) Run(ctx context.Context, rec *pipeline.Record) error {
	if rec.Article() == "" {
		return fmt.Errorf("no article to publish")
	}
	url, err := s.Publisher.Publish(ctx, rec.Article(), rec.Metadata())
	if err != nil {
		return err
	}
	return rec.SetPublishedURL(url)
}

// New assembles the pipeline from its collaborators.
func New(files FilesFetcher, meta MetadataFetcher, sum Summarizer, comp Composer, pub Publisher) *pipeline.Pipeline {
	return &pipeline.Pipeline{
		FetchFiles:    &FetchFilesStep{Fetcher: files},
		FetchMetadata: &FetchMetadataStep{Fetcher: meta},
		Summarize:     &SummarizeStep{Summarizer: sum},
		Compose:       &ComposeStep{Composer: comp},
		Publish:       &PublishStep{Publisher: pub},
	}
}

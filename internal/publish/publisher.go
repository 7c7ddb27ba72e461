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

// Package publish submits finished articles to dev.to.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	berrors "github.com/cloudwego/gitblog/internal/errors"
	"github.com/cloudwego/gitblog/internal/log"
	"github.com/cloudwego/gitblog/internal/source"
	"github.com/cloudwego/gitblog/version"
)

const (
	DefaultAPIURL = "https://dev.to/api"
	DefaultSeries = "GitHub Auto Blog Series"
)

// DefaultTags are appended to the repository language when no tags are configured.
var DefaultTags = []string{"GitHub", "Programming"}

type Options struct {
	APIURL     string
	APIKey     string
	Published  bool
	Series     string
	Tags       []string // extra labels after the repository language
	HTTPClient *http.Client
}

// Publisher creates one article per call through the dev.to articles API.
type Publisher struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	published  bool
	series     string
	tags       []string
}

func NewPublisher(opts Options) *Publisher {
	p := &Publisher{
		httpClient: opts.HTTPClient,
		apiURL:     strings.TrimSuffix(opts.APIURL, "/"),
		apiKey:     opts.APIKey,
		published:  opts.Published,
		series:     opts.Series,
		tags:       opts.Tags,
	}
	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if p.apiURL == "" {
		p.apiURL = DefaultAPIURL
	}
	if p.tags == nil {
		p.tags = DefaultTags
	}
	return p
}

// Article is the payload of POST /articles.
type Article struct {
	Title        string   `json:"title"`
	Published    bool     `json:"published"`
	BodyMarkdown string   `json:"body_markdown"`
	Tags         []string `json:"tags"`
	CanonicalURL string   `json:"canonical_url,omitempty"`
	Series       string   `json:"series,omitempty"`
}

type createRequest struct {
	Article Article `json:"article"`
}

type createResponse struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// NewArticle assembles the article for a repository. The canonical URL
// points back at the repository page.
func (p *Publisher) NewArticle(body string, md source.Metadata) Article {
	labels := make([]string, 0, len(p.tags)+1)
	if md.Language != "" {
		labels = append(labels, md.Language)
	}
	labels = append(labels, p.tags...)
	return Article{
		Title:        Title(md.Language),
		Published:    p.published,
		BodyMarkdown: body,
		Tags:         NormalizeTags(labels),
		CanonicalURL: md.HTMLURL,
		Series:       p.series,
	}
}

// Publish submits the article and returns its public URL. Anything but
// 201 Created fails with a publish error carrying the raw response body.
func (p *Publisher) Publish(ctx context.Context, body string, md source.Metadata) (string, error) {
	article := p.NewArticle(body, md)
	payload, err := json.Marshal(createRequest{Article: article})
	if err != nil {
		return "", errors.Wrap(err, "publish: marshal article")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+"/articles", bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "publish: create request")
	}
	req.Header.Set("api-key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.forem.api-v1+json")
	req.Header.Set("User-Agent", "gitblog/"+version.Version)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "publish: POST /articles")
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "publish: read response")
	}
	if resp.StatusCode != http.StatusCreated {
		log.Error("publish: dev.to answered %d for %q", resp.StatusCode, article.Title)
		return "", berrors.Publish("devto.create_article", resp.StatusCode, string(raw))
	}
	var created createResponse
	if err := json.Unmarshal(raw, &created); err != nil || created.URL == "" {
		return "", berrors.Publish("devto.create_article", resp.StatusCode, string(raw))
	}
	log.Info("publish: article %d created at %s", created.ID, created.URL)
	return created.URL, nil
}

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

package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/gitblog/internal/config"
	berrors "github.com/cloudwego/gitblog/internal/errors"
)

const (
	fixedTranscript = "README explains the demo; main.py prints a greeting."
	fixedArticle    = "# Exploring Demo\n\nDemo prints a greeting.\n"
	postURL         = "https://dev.to/octo/exploring-a-python-project-on-github-1a2b"
)

// stubGenerator echoes a fixed reply and counts calls.
type stubGenerator struct {
	reply string
	calls atomic.Int32
}

func (g *stubGenerator) Call(context.Context, string) (string, error) {
	g.calls.Add(1)
	return g.reply, nil
}

type fixture struct {
	github, devto *httptest.Server

	mu        sync.Mutex
	published []map[string]any

	metadataStatus int
	publishStatus  int
	publishBody    string
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{metadataStatus: http.StatusOK, publishStatus: http.StatusCreated}

	gh := http.NewServeMux()
	gh.HandleFunc("GET /repos/octo/demo", func(w http.ResponseWriter, r *http.Request) {
		if f.metadataStatus != http.StatusOK {
			w.WriteHeader(f.metadataStatus)
			_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"full_name": "octo/demo", "html_url": "https://github.com/octo/demo", "language": "Python",
			"stargazers_count": 3, "forks_count": 1, "updated_at": "2024-05-01T10:00:00Z",
		})
	})
	gh.HandleFunc("GET /repos/octo/demo/contents", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"name": "README.md", "path": "README.md", "type": "file", "size": 6},
			{"name": "main.py", "path": "main.py", "type": "file", "size": 12},
		})
	})
	gh.HandleFunc("GET /repos/octo/demo/contents/{path}", func(w http.ResponseWriter, r *http.Request) {
		content := map[string]string{"README.md": "# Demo", "main.py": "print('hi')\n"}[r.PathValue("path")]
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name": r.PathValue("path"), "type": "file", "size": len(content), "encoding": "base64",
			"content": base64.StdEncoding.EncodeToString([]byte(content)),
		})
	})
	f.github = httptest.NewServer(gh)
	t.Cleanup(f.github.Close)

	f.devto = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.published = append(f.published, body)
		f.mu.Unlock()
		w.WriteHeader(f.publishStatus)
		if f.publishStatus != http.StatusCreated {
			_, _ = w.Write([]byte(f.publishBody))
			return
		}
		_, _ = w.Write([]byte(`{"id": 1, "url": "` + postURL + `"}`))
	}))
	t.Cleanup(f.devto.Close)
	return f
}

func (f *fixture) config() *config.Config {
	return &config.Config{
		GitHub: config.GitHubConfig{Token: "gh-token", APIURL: f.github.URL, Concurrency: 2},
		LLM:    config.LLMConfig{Provider: "openai", Model: "gpt-4-turbo", APIKey: "sk-test"},
		DevTo: config.DevToConfig{
			APIKey: "devto-key", APIURL: f.devto.URL, Published: true,
			Series: "GitHub Auto Blog Series", Tags: []string{"GitHub", "Programming"},
		},
		Pipeline: config.PipelineConfig{ExcerptChars: 500},
	}
}

func newService(t *testing.T, f *fixture, sum, comp *stubGenerator) *Service {
	svc, err := New(context.Background(), Options{Config: f.config(), Summarizer: sum, Composer: comp})
	require.NoError(t, err)
	return svc
}

func TestRunPipeline_Success(t *testing.T) {
	f := newFixture(t)
	sum := &stubGenerator{reply: fixedTranscript}
	comp := &stubGenerator{reply: fixedArticle}

	res := newService(t, f, sum, comp).RunPipeline(context.Background(), "https://github.com/octo/demo")
	assert.Equal(t, StatusSuccess, res.Status, res.Message)
	assert.Equal(t, postURL, res.PostURL)
	assert.Empty(t, res.Message)
	assert.NotEmpty(t, res.RunID)

	require.Len(t, f.published, 1)
	article := f.published[0]["article"].(map[string]any)
	assert.Equal(t, "Exploring a Python Project on GitHub", article["title"])
	assert.Equal(t, fixedArticle, article["body_markdown"])
	assert.Equal(t, []any{"python", "github", "programming"}, article["tags"])
	assert.Equal(t, "https://github.com/octo/demo", article["canonical_url"])
	assert.Equal(t, int32(1), sum.calls.Load())
	assert.Equal(t, int32(1), comp.calls.Load())
}

func TestRunPipeline_SequentialFetch(t *testing.T) {
	f := newFixture(t)
	cfg := f.config()
	cfg.Pipeline.SequentialFetch = true
	svc, err := New(context.Background(), Options{
		Config:     cfg,
		Summarizer: &stubGenerator{reply: fixedTranscript},
		Composer:   &stubGenerator{reply: fixedArticle},
	})
	require.NoError(t, err)
	assert.True(t, svc.pipeline.Sequential)

	res := svc.RunPipeline(context.Background(), "octo/demo")
	assert.Equal(t, StatusSuccess, res.Status, res.Message)
	assert.Equal(t, postURL, res.PostURL)
	assert.False(t, newService(t, f, &stubGenerator{}, &stubGenerator{}).pipeline.Sequential)
}

func TestRunPipeline_PublishRejected(t *testing.T) {
	f := newFixture(t)
	f.publishStatus = http.StatusUnprocessableEntity
	f.publishBody = `{"error":"Title has already been used in the last five minutes","status":422}`

	res := newService(t, f, &stubGenerator{reply: fixedTranscript}, &stubGenerator{reply: fixedArticle}).
		RunPipeline(context.Background(), "octo/demo")
	assert.Equal(t, Result{Status: StatusError, Message: f.publishBody, RunID: res.RunID}, res)
	assert.Empty(t, res.PostURL)
}

func TestRunPipeline_MetadataAuthFailure(t *testing.T) {
	f := newFixture(t)
	f.metadataStatus = http.StatusUnauthorized
	sum := &stubGenerator{reply: fixedTranscript}
	comp := &stubGenerator{reply: fixedArticle}

	res := newService(t, f, sum, comp).RunPipeline(context.Background(), "octo/demo")
	assert.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.Message, "credential rejected")
	assert.Empty(t, res.PostURL)
	assert.Equal(t, int32(0), sum.calls.Load())
	assert.Equal(t, int32(0), comp.calls.Load())
	assert.Empty(t, f.published)
}

func TestRunPipeline_BadLocator(t *testing.T) {
	f := newFixture(t)
	sum := &stubGenerator{reply: fixedTranscript}
	res := newService(t, f, sum, &stubGenerator{reply: fixedArticle}).RunPipeline(context.Background(), "not a repo")
	assert.Equal(t, StatusError, res.Status)
	assert.True(t, strings.HasPrefix(res.Message, "step fetch_"), res.Message)
	assert.Contains(t, res.Message, "malformed repository reference")
	assert.Equal(t, int32(0), sum.calls.Load())
}

func TestNew_InvalidConfig(t *testing.T) {
	f := newFixture(t)
	cfg := f.config()
	cfg.DevTo.APIKey = ""
	_, err := New(context.Background(), Options{Config: cfg})
	assert.ErrorContains(t, err, "dev.to API key is required")

	_, err = New(context.Background(), Options{})
	assert.Error(t, err)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, `{"error":"x"}`, Message(berrors.Publish("devto.create_article", 422, `{"error":"x"}`)))
	assert.Equal(t, "publish [devto.create_article]: publishing endpoint rejected the article (status 500)",
		Message(berrors.Publish("devto.create_article", 500, "")))
	assert.Equal(t, "boom", Message(assertErr("boom")))
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

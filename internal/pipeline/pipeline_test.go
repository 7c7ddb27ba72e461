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

package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	berrors "github.com/cloudwego/gitblog/internal/errors"
	"github.com/cloudwego/gitblog/internal/metrics"
	"github.com/cloudwego/gitblog/internal/source"
)

// mockStep counts its calls and runs fn against the record.
type mockStep struct {
	name  string
	calls atomic.Int32
	fn    func(ctx context.Context, rec *Record) error
}

func (m *mockStep) Name() string { return m.name }

func (m *mockStep) Run(ctx context.Context, rec *Record) error {
	m.calls.Add(1)
	if m.fn == nil {
		return nil
	}
	return m.fn(ctx, rec)
}

type mocks struct {
	files, meta, summarize, compose, publish *mockStep
}

func newMocks() *mocks {
	return &mocks{
		files: &mockStep{name: "fetch_files", fn: func(_ context.Context, rec *Record) error {
			return rec.SetFiles(source.FileIndex{"README.md": {Category: source.CategoryDocs, Content: "# Demo"}})
		}},
		meta: &mockStep{name: "fetch_metadata", fn: func(_ context.Context, rec *Record) error {
			return rec.SetMetadata(source.Metadata{Language: "Python", FullName: "octo/demo"})
		}},
		summarize: &mockStep{name: "summarize", fn: func(_ context.Context, rec *Record) error {
			if len(rec.Files()) == 0 || rec.Metadata().IsZero() {
				return errors.New("summarize started before both fetches finished")
			}
			return rec.SetTranscript("transcript")
		}},
		compose: &mockStep{name: "compose", fn: func(_ context.Context, rec *Record) error {
			return rec.SetArticle("# Article for " + rec.Transcript())
		}},
		publish: &mockStep{name: "publish", fn: func(_ context.Context, rec *Record) error {
			return rec.SetPublishedURL("https://dev.to/octo/post")
		}},
	}
}

func (m *mocks) pipeline() *Pipeline {
	return &Pipeline{
		FetchFiles:    m.files,
		FetchMetadata: m.meta,
		Summarize:     m.summarize,
		Compose:       m.compose,
		Publish:       m.publish,
	}
}

func TestPipeline_Run_Success(t *testing.T) {
	for _, sequential := range []bool{false, true} {
		m := newMocks()
		pl := m.pipeline()
		pl.Sequential = sequential

		run, err := pl.Run(context.Background(), "octo/demo")
		require.NoError(t, err)
		assert.NotEmpty(t, run.ID)
		assert.Equal(t, StateDone, run.State())
		assert.Equal(t, "https://dev.to/octo/post", run.Record.PublishedURL())
		assert.Equal(t, "# Article for transcript", run.Record.Article())
		assert.Equal(t, []State{
			StateStart, StateFetchingFiles, StateFetchingMetadata,
			StateSummarizing, StateComposing, StatePublishing, StateDone,
		}, run.States())

		history := run.History()
		require.Len(t, history, 5)
		for _, h := range history {
			assert.Equal(t, StepOK, h.Status, h.Step)
			assert.False(t, h.EndedAt.Before(h.StartedAt))
		}
		assert.Equal(t, "publish", history[4].Step)
		assert.NoError(t, run.Err())
	}
}

func TestPipeline_Run_UniqueIDs(t *testing.T) {
	pl := newMocks().pipeline()
	a, err := pl.Run(context.Background(), "octo/demo")
	require.NoError(t, err)
	b, err := newMocks().pipeline().Run(context.Background(), "octo/demo")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestPipeline_Run_FetchesRunConcurrently(t *testing.T) {
	m := newMocks()
	var wg sync.WaitGroup
	wg.Add(2)
	barrier := func(next func(context.Context, *Record) error) func(context.Context, *Record) error {
		return func(ctx context.Context, rec *Record) error {
			wg.Done()
			wg.Wait() // both fetches must be in flight at once
			return next(ctx, rec)
		}
	}
	m.files.fn = barrier(m.files.fn)
	m.meta.fn = barrier(m.meta.fn)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := m.pipeline().Run(context.Background(), "octo/demo")
		assert.NoError(t, err)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("fetch steps did not run concurrently")
	}
}

func TestPipeline_Run_MetadataAuthFailure(t *testing.T) {
	m := newMocks()
	m.meta.fn = func(context.Context, *Record) error {
		return berrors.Authentication("github.get_repository", 401, "Bad credentials")
	}
	reg := prom.NewRegistry()
	pl := m.pipeline()
	pl.Recorder = metrics.NewPrometheusRecorder(reg)

	run, err := pl.Run(context.Background(), "octo/demo")
	require.ErrorIs(t, err, berrors.ErrAuthentication)
	assert.Contains(t, err.Error(), "step fetch_metadata")
	assert.Equal(t, StateFailed, run.State())
	assert.Equal(t, err, run.Err())
	assert.Equal(t, int32(0), m.summarize.calls.Load())
	assert.Equal(t, int32(0), m.compose.calls.Load())
	assert.Equal(t, int32(0), m.publish.calls.Load())
	assert.Empty(t, run.Record.PublishedURL())
	assert.NotContains(t, run.States(), StateSummarizing)
	expected := `
# HELP gitblog_run_outcomes_total Pipeline runs by final status
# TYPE gitblog_run_outcomes_total counter
gitblog_run_outcomes_total{result="failed"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "gitblog_run_outcomes_total"))
}

func TestPipeline_Run_PublishFailure(t *testing.T) {
	m := newMocks()
	m.publish.fn = func(context.Context, *Record) error {
		return berrors.Publish("devto.create_article", 422, `{"error":"invalid"}`)
	}
	run, err := m.pipeline().Run(context.Background(), "octo/demo")
	require.ErrorIs(t, err, berrors.ErrPublish)
	assert.Empty(t, run.Record.PublishedURL())
	assert.Equal(t, StateFailed, run.State())
	history := run.History()
	require.Len(t, history, 5)
	assert.Equal(t, StepFailed, history[4].Status)
	assert.Contains(t, history[4].Error, "publishing endpoint rejected")
}

func TestPipeline_Run_CanceledBeforePublish(t *testing.T) {
	m := newMocks()
	ctx, cancel := context.WithCancel(context.Background())
	m.compose.fn = func(_ context.Context, rec *Record) error {
		cancel()
		return rec.SetArticle("# Article")
	}
	run, err := m.pipeline().Run(ctx, "octo/demo")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), m.publish.calls.Load())
	assert.Equal(t, StateFailed, run.State())
	assert.NotContains(t, run.States(), StatePublishing)
}

func TestPipeline_Run_CanceledUpfront(t *testing.T) {
	m := newMocks()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.files.fn = func(ctx context.Context, _ *Record) error { return ctx.Err() }
	m.meta.fn = func(ctx context.Context, _ *Record) error { return ctx.Err() }

	_, err := m.pipeline().Run(ctx, "octo/demo")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), m.summarize.calls.Load())
}

func TestPipeline_Run_ConflictingWrites(t *testing.T) {
	m := newMocks()
	m.compose.fn = func(_ context.Context, rec *Record) error {
		return rec.SetTranscript("a different transcript")
	}
	_, err := m.pipeline().Run(context.Background(), "octo/demo")
	require.ErrorIs(t, err, berrors.ErrConflict)
	assert.Equal(t, int32(0), m.publish.calls.Load())
}

func TestPipeline_Run_MissingStep(t *testing.T) {
	pl := newMocks().pipeline()
	pl.Compose = nil
	pl.Publish = nil
	run, err := pl.Run(context.Background(), "octo/demo")
	assert.Nil(t, run)
	assert.EqualError(t, err, "pipeline: missing steps: compose, publish")
}

func TestPipeline_Describe(t *testing.T) {
	want := "flowchart TD\n" +
		"    start([start]) --> fetch_files\n" +
		"    start --> fetch_metadata\n" +
		"    fetch_files --> summarize\n" +
		"    fetch_metadata --> summarize\n" +
		"    summarize --> compose\n" +
		"    compose --> publish\n" +
		"    publish --> done([done])\n"
	assert.Equal(t, want, newMocks().pipeline().Describe())
	assert.Equal(t, want, (&Pipeline{}).Describe())
}

func TestState_Terminal(t *testing.T) {
	assert.True(t, StateDone.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StatePublishing.Terminal())
}

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

// Package pipeline drives one blog-generation run: two independent fetch
// steps joined before summarizing, then compose and publish in sequence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cloudwego/gitblog/internal/log"
	"github.com/cloudwego/gitblog/internal/metrics"
)

// Pipeline holds one step per node. FetchFiles and FetchMetadata may run
// concurrently; Summarize starts only after both have finished.
type Pipeline struct {
	FetchFiles    Step
	FetchMetadata Step
	Summarize     Step
	Compose       Step
	Publish       Step

	// Sequential runs the two fetch steps one after the other.
	Sequential bool
	Recorder   metrics.Recorder
}

type stage struct {
	state State
	step  Step
}

func (p *Pipeline) validate() error {
	var missing []string
	for name, s := range map[string]Step{
		"fetch files":    p.FetchFiles,
		"fetch metadata": p.FetchMetadata,
		"summarize":      p.Summarize,
		"compose":        p.Compose,
		"publish":        p.Publish,
	} {
		if s == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("pipeline: missing steps: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Run executes the pipeline for locator. The returned Run is never nil once
// the pipeline is valid; on failure it ends in StateFailed and carries the
// same error that Run returns. Remaining steps are skipped after the first
// failure, and nothing is published once ctx is done.
func (p *Pipeline) Run(ctx context.Context, locator string) (*Run, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	rec := p.recorder()
	run := newRun(locator)
	start := time.Now()
	log.Info("[%s] pipeline started for %s", run.ID, locator)

	err := p.run(ctx, run)
	rec.ObserveRunDuration(time.Since(start))
	if err != nil {
		run.fail(err)
		rec.IncRunOutcome(outcome(ctx, err))
		log.Error("[%s] pipeline failed after %s: %v", run.ID, time.Since(start), err)
		return run, err
	}
	run.enter(StateDone)
	rec.IncRunOutcome(metrics.ResultSuccess)
	log.Info("[%s] pipeline done in %s: %s", run.ID, time.Since(start), run.Record.PublishedURL())
	return run, nil
}

func (p *Pipeline) run(ctx context.Context, run *Run) error {
	if err := p.fetch(ctx, run); err != nil {
		return err
	}
	for _, s := range []stage{
		{StateSummarizing, p.Summarize},
		{StateComposing, p.Compose},
		{StatePublishing, p.Publish},
	} {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("before %s: %w", s.state, err)
		}
		run.enter(s.state)
		if err := p.exec(ctx, run, s); err != nil {
			return err
		}
	}
	return nil
}

// fetch runs both fetch steps and returns once both are finished.
func (p *Pipeline) fetch(ctx context.Context, run *Run) error {
	stages := []stage{
		{StateFetchingFiles, p.FetchFiles},
		{StateFetchingMetadata, p.FetchMetadata},
	}
	if p.Sequential {
		for _, s := range stages {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("before %s: %w", s.state, err)
			}
			run.enter(s.state)
			if err := p.exec(ctx, run, s); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range stages {
		run.enter(s.state)
		g.Go(func() error {
			return p.exec(gctx, run, s)
		})
	}
	return g.Wait()
}

func (p *Pipeline) exec(ctx context.Context, run *Run, s stage) error {
	name := s.step.Name()
	log.Debug("[%s] step %s started", run.ID, name)
	started := time.Now()
	err := s.step.Run(ctx, run.Record)
	ended := time.Now()

	entry := StepRecord{Step: name, State: s.state, Status: StepOK, StartedAt: started, EndedAt: ended}
	result := metrics.ResultSuccess
	if err != nil {
		entry.Status = StepFailed
		entry.Error = err.Error()
		result = outcome(ctx, err)
	}
	run.record(entry)
	p.recorder().ObserveStageDuration(name, entry.Duration())
	p.recorder().IncStageResult(name, result)

	if err != nil {
		return fmt.Errorf("step %s: %w", name, err)
	}
	log.Info("[%s] step %s finished in %s", run.ID, name, entry.Duration())
	return nil
}

func (p *Pipeline) recorder() metrics.Recorder {
	if p.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return p.Recorder
}

func outcome(ctx context.Context, err error) metrics.ResultLabel {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return metrics.ResultCanceled
	}
	return metrics.ResultFailed
}

// Describe renders the pipeline as a mermaid flowchart.
func (p *Pipeline) Describe() string {
	name := func(s Step, fallback string) string {
		if s == nil {
			return fallback
		}
		return s.Name()
	}
	files := name(p.FetchFiles, "fetch_files")
	meta := name(p.FetchMetadata, "fetch_metadata")
	summarize := name(p.Summarize, "summarize")
	compose := name(p.Compose, "compose")
	publish := name(p.Publish, "publish")

	var sb strings.Builder
	sb.WriteString("flowchart TD\n")
	fmt.Fprintf(&sb, "    start([%s]) --> %s\n", StateStart, files)
	fmt.Fprintf(&sb, "    start --> %s\n", meta)
	fmt.Fprintf(&sb, "    %s --> %s\n", files, summarize)
	fmt.Fprintf(&sb, "    %s --> %s\n", meta, summarize)
	fmt.Fprintf(&sb, "    %s --> %s\n", summarize, compose)
	fmt.Fprintf(&sb, "    %s --> %s\n", compose, publish)
	fmt.Fprintf(&sb, "    %s --> done([%s])\n", publish, StateDone)
	return sb.String()
}

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
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is a stage of a pipeline run.
type State string

const (
	StateStart            State = "start"
	StateFetchingFiles    State = "fetching_files"
	StateFetchingMetadata State = "fetching_metadata"
	StateSummarizing      State = "summarizing"
	StateComposing        State = "composing"
	StatePublishing       State = "publishing"
	StateDone             State = "done"
	StateFailed           State = "failed"
)

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Step is one node of the pipeline. A step reads its inputs from the record
// and writes its outputs back to it.
type Step interface {
	Name() string
	Run(ctx context.Context, rec *Record) error
}

// StepRecord is an immutable log entry for one step execution.
type StepRecord struct {
	Step      string
	State     State
	Status    StepStatus
	Error     string
	StartedAt time.Time
	EndedAt   time.Time
}

func (r StepRecord) Duration() time.Duration { return r.EndedAt.Sub(r.StartedAt) }

// StepStatus is the outcome of a step run.
type StepStatus string

const (
	StepOK     StepStatus = "ok"
	StepFailed StepStatus = "failed"
)

// Run is the trace of one pipeline execution: the record it built, the
// states it went through and the steps it executed.
type Run struct {
	ID     string
	Record *Record

	mu      sync.Mutex
	states  []State
	history []StepRecord
	err     error
}

func newRun(locator string) *Run {
	return &Run{
		ID:     uuid.NewString(),
		Record: NewRecord(locator),
		states: []State{StateStart},
	}
}

// State returns the latest state entered.
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[len(r.states)-1]
}

// States returns every state entered, in order.
func (r *Run) States() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.states)
}

func (r *Run) History() []StepRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.history)
}

// Err is the error that failed the run, nil unless State is StateFailed.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Run) enter(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *Run) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
	r.states = append(r.states, StateFailed)
}

func (r *Run) record(rec StepRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, rec)
}

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

// Package errors defines the failure taxonomy shared by every pipeline
// collaborator. All failures are *Error values distinguished by Kind, so
// callers can match with errors.Is against the sentinels below and use
// errors.As to read the full value.
package errors

import (
	"fmt"
	"strings"
)

// Kind classifies a failure.
type Kind string

const (
	// KindLocator: the repository reference is malformed or does not exist.
	KindLocator Kind = "locator"
	// KindAuth: an external API rejected the credential.
	KindAuth Kind = "auth"
	// KindCompletion: the language-model call failed or returned unusable content.
	KindCompletion Kind = "completion"
	// KindPublish: the publishing endpoint rejected the article.
	KindPublish Kind = "publish"
	// KindConflict: two steps wrote different values to the same record field.
	KindConflict Kind = "conflict"
)

// Error is the structured failure type.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "github.get_repository"
	Message string
	Status  int    // HTTP status from the remote endpoint, when there was one
	Body    string // raw response body from the remote endpoint, when there was one
	Cause   error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Kind))
	if e.Op != "" {
		sb.WriteString(" [")
		sb.WriteString(e.Op)
		sb.WriteString("]")
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.Status != 0 {
		fmt.Fprintf(&sb, " (status %d)", e.Status)
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is a sentinel of the same Kind. Sentinels are
// *Error values carrying nothing but a Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t == e {
		return true
	}
	return t.Op == "" && t.Message == "" && t.Cause == nil && t.Status == 0 && t.Kind == e.Kind
}

var (
	ErrLocatorResolution = &Error{Kind: KindLocator}
	ErrAuthentication    = &Error{Kind: KindAuth}
	ErrCompletionRequest = &Error{Kind: KindCompletion}
	ErrPublish           = &Error{Kind: KindPublish}
	ErrConflict          = &Error{Kind: KindConflict}

	// ErrRepositoryNotFound is the locator failure returned when the hosting
	// API does not know the repository.
	ErrRepositoryNotFound = ErrLocatorResolution
)

func LocatorResolution(op, msg string, cause error) *Error {
	return &Error{Kind: KindLocator, Op: op, Message: msg, Cause: cause}
}

func Authentication(op string, status int, body string) *Error {
	return &Error{Kind: KindAuth, Op: op, Message: "credential rejected", Status: status, Body: body}
}

func CompletionRequest(op string, cause error) *Error {
	return &Error{Kind: KindCompletion, Op: op, Message: "completion request failed", Cause: cause}
}

func UnusableCompletion(op, msg string) *Error {
	return &Error{Kind: KindCompletion, Op: op, Message: msg}
}

func Publish(op string, status int, body string) *Error {
	return &Error{Kind: KindPublish, Op: op, Message: "publishing endpoint rejected the article", Status: status, Body: body}
}

func Conflict(field, existing, incoming string) *Error {
	return &Error{
		Kind:    KindConflict,
		Op:      "record.set",
		Message: fmt.Sprintf("conflicting values for %s: %q vs %q", field, existing, incoming),
	}
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

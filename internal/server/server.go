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

// Package server exposes the pipeline trigger over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/gitblog/internal/log"
	"github.com/cloudwego/gitblog/internal/service"
)

const maxRequestBody = 64 << 10

// Runner runs one pipeline.
type Runner interface {
	RunPipeline(ctx context.Context, locator string) service.Result
}

type generateRequest struct {
	RepoURL string `json:"repo_url"`
}

// NewHandler routes POST /generate-blog/ to runner. When metrics is not
// nil it is served at /metrics.
func NewHandler(runner Runner, metrics http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /generate-blog/", generateBlog(runner))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return chain(mux)
}

func generateBlog(runner Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, service.Result{Status: service.StatusError, Message: "invalid request body: " + err.Error()})
			return
		}
		if strings.TrimSpace(req.RepoURL) == "" {
			writeJSON(w, http.StatusBadRequest, service.Result{Status: service.StatusError, Message: "repo_url is required"})
			return
		}
		// pipeline failures are reported in the body with 200
		writeJSON(w, http.StatusOK, runner.RunPipeline(r.Context(), req.RepoURL))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("server: write response: %v", err)
	}
}

// chain adds request logging and panic recovery.
func chain(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		defer func() {
			if err := recover(); err != nil {
				log.Error("server: panic in %s %s: %v", r.Method, r.URL.Path, err)
				writeJSON(wrapped, http.StatusInternalServerError, service.Result{Status: service.StatusError, Message: "internal server error"})
			}
			log.Info("server: %s %s %d %s", r.Method, r.URL.Path, wrapped.statusCode, time.Since(start))
		}()
		next.ServeHTTP(wrapped, r)
	})
}

// responseWriter captures status codes for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Serve runs handler on addr until ctx is done, then shuts down gracefully,
// giving in-flight runs up to grace to finish.
func Serve(ctx context.Context, addr string, handler http.Handler, grace time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serve(ctx, ln, handler, grace)
}

func serve(ctx context.Context, ln net.Listener, handler http.Handler, grace time.Duration) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	log.Info("server: listening on %s", ln.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	log.Info("server: shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

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

// Package github is a minimal client for the GitHub REST API covering the
// calls needed to read a repository: its description and statistics, its
// top-level directory listing and the contents of individual files.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	berrors "github.com/cloudwego/gitblog/internal/errors"
	"github.com/cloudwego/gitblog/internal/log"
	"github.com/cloudwego/gitblog/version"
)

const (
	DefaultAPIURL = "https://api.github.com"

	apiVersion = "2022-11-28"
	// responses above this size are cut off when kept as an error body
	maxErrorBody = 4 << 10

	// DefaultMaxFileBytes caps how much of a single file is read.
	DefaultMaxFileBytes = 1 << 20
)

// Repository is the subset of GET /repos/{owner}/{repo} we use.
type Repository struct {
	FullName      string    `json:"full_name"`
	Description   string    `json:"description"`
	HTMLURL       string    `json:"html_url"`
	Language      string    `json:"language"`
	Stars         int       `json:"stargazers_count"`
	Forks         int       `json:"forks_count"`
	DefaultBranch string    `json:"default_branch"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Content is one entry of GET /repos/{owner}/{repo}/contents/{path}.
// Encoding and Content are only populated when a single file is requested.
type Content struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"` // file, dir, symlink or submodule
	Size        int    `json:"size"`
	Encoding    string `json:"encoding"`
	Content     string `json:"content"`
	DownloadURL string `json:"download_url"`
}

// File is a top-level entry together with its raw bytes. Data is nil for
// anything but regular files. Err is set when the content of a regular file
// could not be fetched.
type File struct {
	Name string
	Type string
	Data []byte
	Err  error
}

type Options struct {
	APIURL       string
	Token        string
	Concurrency  int   // parallel file content requests, default 4
	MaxFileBytes int64 // files are cut off after this many bytes, default 1MiB
	HTTPClient   *http.Client
}

type Client struct {
	httpClient   *http.Client
	apiURL       string
	token        string
	concurrency  int
	maxFileBytes int64
}

func NewClient(opts Options) *Client {
	c := &Client{
		httpClient:   opts.HTTPClient,
		apiURL:       strings.TrimSuffix(opts.APIURL, "/"),
		token:        opts.Token,
		concurrency:  opts.Concurrency,
		maxFileBytes: opts.MaxFileBytes,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.apiURL == "" {
		c.apiURL = DefaultAPIURL
	}
	if c.concurrency < 1 {
		c.concurrency = 4
	}
	if c.maxFileBytes < 1 {
		c.maxFileBytes = DefaultMaxFileBytes
	}
	return c
}

// GetRepository returns descriptive metadata for "owner/name".
func (c *Client) GetRepository(ctx context.Context, fullName string) (*Repository, error) {
	var repo Repository
	if err := c.get(ctx, "github.get_repository", "/repos/"+escapePath(fullName), &repo, true); err != nil {
		return nil, err
	}
	return &repo, nil
}

// ListTopLevel lists the repository root without file contents.
func (c *Client) ListTopLevel(ctx context.Context, fullName string) ([]Content, error) {
	var entries []Content
	if err := c.get(ctx, "github.list_contents", "/repos/"+escapePath(fullName)+"/contents", &entries, true); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetFileContent returns the raw bytes of the file at path, cut off after
// MaxFileBytes. Failures concern the single file (GitHub answers 403 for
// blobs it refuses to serve) and are never reported as authentication or
// locator errors.
func (c *Client) GetFileContent(ctx context.Context, fullName, path string) ([]byte, error) {
	var content Content
	endpoint := "/repos/" + escapePath(fullName) + "/contents/" + escapePath(path)
	if err := c.get(ctx, "github.get_content", endpoint, &content, false); err != nil {
		return nil, err
	}
	switch {
	case content.Encoding == "base64":
		data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content.Content, "\n", ""))
		if err != nil {
			return nil, errors.Wrapf(err, "decode content of %s", path)
		}
		if int64(len(data)) > c.maxFileBytes {
			data = data[:c.maxFileBytes]
		}
		return data, nil
	case content.Size == 0:
		return []byte{}, nil
	case content.DownloadURL != "":
		// files above 1MB come back with encoding "none"
		return c.download(ctx, content.DownloadURL)
	}
	return nil, errors.Errorf("content of %s has unsupported encoding %q", path, content.Encoding)
}

// ListTopLevelFiles lists the repository root and fetches the contents of
// every regular file, at most Concurrency requests at a time. Entries keep
// the order of the listing. A file whose content cannot be fetched keeps its
// entry with Err set; only a failed listing or cancellation fails the call.
func (c *Client) ListTopLevelFiles(ctx context.Context, fullName string) ([]File, error) {
	entries, err := c.ListTopLevel(ctx, fullName)
	if err != nil {
		return nil, err
	}
	files := make([]File, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, e := range entries {
		files[i] = File{Name: e.Name, Type: e.Type}
		if e.Type != "file" {
			continue
		}
		g.Go(func() error {
			data, err := c.GetFileContent(gctx, fullName, e.Path)
			if err != nil {
				if gctx.Err() != nil {
					return errors.Wrapf(err, "fetch %s", e.Path)
				}
				log.Warn("github: skipping content of %s/%s: %v", fullName, e.Path, err)
				files[i].Err = errors.Wrapf(err, "fetch %s", e.Path)
				return nil
			}
			files[i].Data = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Debug("github: fetched %d top-level entries of %s", len(files), fullName)
	return files, nil
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, http.NoBody)
	if err != nil {
		return nil, errors.Wrapf(err, "create request %s %s", method, rawURL)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", "gitblog/"+version.Version)
	return req, nil
}

// get decodes a JSON response into out. repoScoped marks requests about the
// repository as a whole, whose 404, 401 and 403 answers map onto the error
// taxonomy.
func (c *Client) get(ctx context.Context, op, endpoint string, out any, repoScoped bool) error {
	req, err := c.newRequest(ctx, http.MethodGet, c.apiURL+endpoint)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s: GET %s", op, endpoint)
	}
	defer resp.Body.Close()
	if err := checkResponse(op, resp, repoScoped); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "%s: decode response", op)
	}
	return nil
}

func (c *Client) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, rawURL)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/octet-stream")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "github.download: GET %s", rawURL)
	}
	defer resp.Body.Close()
	if err := checkResponse("github.download", resp, false); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxFileBytes))
	if err != nil {
		return nil, errors.Wrap(err, "github.download: read body")
	}
	return data, nil
}

// checkResponse maps non-2xx responses of repository-scoped requests onto
// the error taxonomy: 404 means the repository reference does not resolve,
// 401 and 403 mean the token was rejected. Any other failure is a plain
// error.
func checkResponse(op string, resp *http.Response, repoScoped bool) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	switch resp.StatusCode {
	case http.StatusNotFound:
		if repoScoped {
			return berrors.LocatorResolution(op, "repository not found", fmt.Errorf("status %d: %s", resp.StatusCode, body))
		}
	case http.StatusUnauthorized, http.StatusForbidden:
		if repoScoped {
			return berrors.Authentication(op, resp.StatusCode, string(body))
		}
	}
	return errors.Errorf("%s: unexpected status %d: %s", op, resp.StatusCode, body)
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}

/**
 * Copyright 2025 ByteDance Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/invopop/jsonschema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cloudwego/gitblog/internal/log"
	"github.com/cloudwego/gitblog/internal/service"
)

const (
	ToolGenerateBlog = "generate_blog"
	DescGenerateBlog = "Generate a technical blog post about a GitHub repository and publish it to dev.to. Returns the URL of the published post."
)

var SchemaGenerateBlog = GetJSONSchema(GenerateBlogReq{})

type GenerateBlogReq struct {
	RepoURL string `json:"repo_url" jsonschema:"description=the repository as a URL or owner/name, e.g. https://github.com/cloudwego/eino"`
}

// Runner runs one pipeline.
type Runner interface {
	RunPipeline(ctx context.Context, locator string) service.Result
}

type Tool struct {
	mcp.Tool
	Handler server.ToolHandlerFunc
}

// NewTool binds the call arguments to R and returns the handler's result as JSON text.
func NewTool[R any, T any](name string, desc string, schema json.RawMessage, handler func(ctx context.Context, req R) (*T, error)) Tool {
	return Tool{
		Tool: mcp.NewToolWithRawSchema(name, desc, schema),
		Handler: func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var req R
			if err := request.BindArguments(&req); err != nil {
				return nil, err
			}
			var final string
			var isError bool
			if resp, err := handler(ctx, req); err != nil {
				isError = true
				final = err.Error()
			} else if js, err := json.Marshal(resp); err != nil {
				isError = true
				final = err.Error()
			} else {
				final = string(js)
			}
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(final),
				},
				IsError: isError,
			}, nil
		},
	}
}

// GetJSONSchema reflects v into an inline JSON schema.
func GetJSONSchema(v any) json.RawMessage {
	r := &jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
	}
	js, err := json.Marshal(r.Reflect(v))
	if err != nil {
		panic(err)
	}
	return js
}

func generateBlogTool(runner Runner) Tool {
	return NewTool(ToolGenerateBlog, DescGenerateBlog, SchemaGenerateBlog,
		func(ctx context.Context, req GenerateBlogReq) (*service.Result, error) {
			if req.RepoURL == "" {
				return nil, errors.New("repo_url is required")
			}
			res := runner.RunPipeline(ctx, req.RepoURL)
			if res.Status != service.StatusSuccess {
				log.Error("mcp: generate_blog for %s failed: %s", req.RepoURL, res.Message)
				return nil, errors.New(res.Message)
			}
			return &res, nil
		})
}

type ServerOptions struct {
	ServerName    string
	ServerVersion string
	Verbose       bool
	Runner        Runner
}

type Server struct {
	Server *server.MCPServer
	tools  []Tool
}

func NewServer(opts ServerOptions) *Server {
	if opts.Verbose {
		log.SetLogLevel(log.DebugLevel)
	}
	svr := server.NewMCPServer(opts.ServerName, opts.ServerVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s := &Server{Server: svr, tools: []Tool{generateBlogTool(opts.Runner)}}
	for _, t := range s.tools {
		svr.AddTool(t.Tool, t.Handler)
	}
	return s
}

// ServeStdio serves MCP over stdin and stdout until stdin closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.Server)
}

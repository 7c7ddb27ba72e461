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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/cloudwego/gitblog/internal/config"
	"github.com/cloudwego/gitblog/internal/log"
	"github.com/cloudwego/gitblog/internal/metrics"
	"github.com/cloudwego/gitblog/internal/pipeline/steps"
	"github.com/cloudwego/gitblog/internal/server"
	"github.com/cloudwego/gitblog/internal/service"
	"github.com/cloudwego/gitblog/llm/mcp"
	"github.com/cloudwego/gitblog/version"
)

// errRunFailed is returned after a failed run's result has been printed.
var errRunFailed = errors.New("run failed")

type CLI struct {
	ConfigFile kong.ConfigFlag `name:"config" short:"c" help:"YAML configuration file." type:"path"`
	Verbose    bool            `short:"v" help:"Enable debug logging."`

	Config config.Config `embed:""`

	Run     RunCmd     `cmd:"" help:"Generate and publish a blog post for one repository."`
	Serve   ServeCmd   `cmd:"" help:"Serve POST /generate-blog/ over HTTP."`
	MCP     MCPCmd     `cmd:"" name:"mcp" help:"Run as an MCP server on stdio with the generate_blog tool."`
	Graph   GraphCmd   `cmd:"" help:"Print the pipeline as a mermaid flowchart."`
	Version VersionCmd `cmd:"" help:"Print the version of gitblog."`
}

// AfterApply runs after flag parsing.
func (c *CLI) AfterApply() error {
	if c.Verbose {
		log.SetLogLevel(log.DebugLevel)
	}
	return nil
}

type RunCmd struct {
	Repo    string        `arg:"" help:"Repository URL or owner/name."`
	Timeout time.Duration `help:"Abort the run after this long." default:"10m"`
}

func (c *RunCmd) Run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	svc, err := service.New(ctx, service.Options{Config: cfg})
	if err != nil {
		return err
	}
	res := svc.RunPipeline(ctx, c.Repo)
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	if res.Status != service.StatusSuccess {
		return errRunFailed
	}
	return nil
}

type ServeCmd struct {
	Addr  string        `help:"Listen address." env:"GITBLOG_ADDR" default:":8080"`
	Grace time.Duration `help:"How long in-flight runs may take to finish on shutdown." default:"30s"`
}

func (c *ServeCmd) Run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recorder := metrics.NewPrometheusRecorder(nil)
	svc, err := service.New(ctx, service.Options{Config: cfg, Recorder: recorder})
	if err != nil {
		return err
	}
	return server.Serve(ctx, c.Addr, server.NewHandler(svc, recorder.Handler()), c.Grace)
}

type MCPCmd struct{}

func (c *MCPCmd) Run(cfg *config.Config, cli *CLI) error {
	svc, err := service.New(context.Background(), service.Options{Config: cfg})
	if err != nil {
		return err
	}
	svr := mcp.NewServer(mcp.ServerOptions{
		ServerName:    "gitblog",
		ServerVersion: version.Version,
		Verbose:       cli.Verbose,
		Runner:        svc,
	})
	return svr.ServeStdio()
}

type GraphCmd struct{}

func (c *GraphCmd) Run() error {
	fmt.Print(steps.New(nil, nil, nil, nil, nil).Describe())
	return nil
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Fprintf(os.Stdout, "%s\n", version.Version)
	return nil
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Error("Failed to load .env: %v", err)
		os.Exit(1)
	}

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("gitblog"),
		kong.Description("Turn a GitHub repository into a blog post and publish it on dev.to."),
		kong.UsageOnError(),
		kong.Configuration(config.YAML, config.DefaultConfigPaths()...),
	)
	err := kctx.Run(&cli.Config, &cli)
	if errors.Is(err, errRunFailed) {
		os.Exit(1)
	}
	kctx.FatalIfErrorf(err)
}

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

package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Variables already set are kept; missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// YAML is a kong.ConfigurationLoader. Nested mappings are joined with "-",
// so
//
//	github:
//	  api-url: https://ghe.example.com/api/v3
//
// resolves the --github-api-url flag. Lists become comma-separated values.
func YAML(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml config: %w", err)
	}
	flat := map[string]string{}
	flatten("", values, flat)
	return kong.ResolverFunc(func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		if v, ok := flat[flag.Name]; ok {
			return v, nil
		}
		return nil, nil
	}), nil
}

func flatten(prefix string, in map[string]any, out map[string]string) {
	for k, v := range in {
		key := strings.ReplaceAll(strings.ToLower(k), "_", "-")
		if prefix != "" {
			key = prefix + "-" + key
		}
		switch vv := v.(type) {
		case map[string]any:
			flatten(key, vv, out)
		case []any:
			items := make([]string, 0, len(vv))
			for _, it := range vv {
				items = append(items, fmt.Sprint(it))
			}
			out[key] = strings.Join(items, ",")
		case nil:
		default:
			out[key] = fmt.Sprint(vv)
		}
	}
}

// DefaultConfigPaths are searched for a YAML config when --config is absent.
func DefaultConfigPaths() []string {
	paths := []string{"gitblog.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "gitblog", "config.yaml"))
	}
	return paths
}

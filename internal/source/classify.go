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

package source

import "strings"

// Category groups files by the role they play in a repository.
type Category string

const (
	CategorySource Category = "source"
	CategoryDocs   Category = "docs"
	CategoryConfig Category = "config"
	CategoryOther  Category = "other"
)

var (
	sourceSuffixes = []string{".py", ".js"}
	configSuffixes = []string{".yaml", ".yml", ".json"}
)

// Classify derives a file's category from its name alone. Suffix matches
// are case-sensitive; the README match is not.
func Classify(name string) Category {
	switch {
	case hasAnySuffix(name, sourceSuffixes):
		return CategorySource
	case strings.EqualFold(name, "readme.md"):
		return CategoryDocs
	case hasAnySuffix(name, configSuffixes):
		return CategoryConfig
	}
	return CategoryOther
}

func hasAnySuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

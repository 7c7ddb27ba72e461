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

package publish

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxTags is the number of tags dev.to accepts on one article.
const MaxTags = 4

// NormalizeTags maps free-form labels onto the tag format the platform
// accepts: accents folded, lower-case ASCII letters and digits, words joined
// by "-". Labels that normalize to nothing or to an earlier tag are dropped
// and at most MaxTags are returned.
func NormalizeTags(labels []string) []string {
	out := make([]string, 0, min(len(labels), MaxTags))
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		tag := normalizeTag(label)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}

func normalizeTag(label string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), label)
	if err != nil {
		folded = label
	}
	folded = strings.ToLower(folded)

	var sb strings.Builder
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), "-")
}

// Title derives the article title from the repository's primary language.
func Title(language string) string {
	if strings.TrimSpace(language) == "" {
		return "Exploring a Project on GitHub"
	}
	return "Exploring a " + language + " Project on GitHub"
}

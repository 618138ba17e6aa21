// Package extract pulls candidate code snippets out of free-form model output.
package extract

import (
	"regexp"
	"strings"
)

// Snippet is a single fenced code block found in model output.
type Snippet struct {
	Lang string // declared language tag, may be empty
	Code string // block contents with surrounding whitespace trimmed
}

// fencePattern matches ```lang\n...``` blocks. The language tag is optional.
var fencePattern = regexp.MustCompile("(?s)```([A-Za-z0-9_+-]*)[ \t]*\n(.*?)```")

// Blocks returns every fenced code block in text, in document order.
// Returns nil if the text contains no fenced blocks.
func Blocks(text string) []Snippet {
	matches := fencePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	snippets := make([]Snippet, 0, len(matches))
	for _, m := range matches {
		snippets = append(snippets, Snippet{
			Lang: strings.ToLower(m[1]),
			Code: strings.TrimSpace(m[2]),
		})
	}
	return snippets
}

// Extract returns the candidate snippets for the given language filter.
//
// When lang is set, blocks whose tag matches it (directly or through a
// recognized alias, case-insensitively) are kept; if no tagged block matches,
// untagged blocks are used as a fallback. When lang is empty, all blocks
// qualify. If all is false only the first qualifying block is returned;
// document order is preserved either way. An empty result means no candidate
// was found, which callers treat as an extraction failure, not an error.
func Extract(text, lang string, all bool) []Snippet {
	blocks := Blocks(text)
	if len(blocks) == 0 {
		return nil
	}

	if lang != "" {
		var matched []Snippet
		for _, b := range blocks {
			if Matches(b.Lang, lang) {
				matched = append(matched, b)
			}
		}
		if len(matched) == 0 {
			// Fall back to untagged blocks.
			for _, b := range blocks {
				if b.Lang == "" {
					matched = append(matched, b)
				}
			}
		}
		blocks = matched
	}

	if len(blocks) == 0 {
		return nil
	}
	if !all {
		return blocks[:1]
	}
	return blocks
}

// Concat joins snippet bodies with blank lines, for all-blocks extraction.
func Concat(snippets []Snippet) string {
	parts := make([]string, 0, len(snippets))
	for _, s := range snippets {
		parts = append(parts, s.Code)
	}
	return strings.Join(parts, "\n\n")
}

package extract

import "strings"

// aliasGroups maps language tag spellings to their canonical name. A filter
// matches a block tag when both map to the same canonical name.
var aliasGroups = map[string]string{
	"python":     "python",
	"py":         "python",
	"bash":       "bash",
	"sh":         "bash",
	"shell":      "bash",
	"zsh":        "bash",
	"javascript": "javascript",
	"js":         "javascript",
	"node":       "javascript",
	"typescript": "typescript",
	"ts":         "typescript",
	"ruby":       "ruby",
	"rb":         "ruby",
	"perl":       "perl",
	"pl":         "perl",
	"php":        "php",
}

// Canonical normalizes a language tag to its canonical name. Unknown tags
// are returned lowercased but otherwise unchanged.
func Canonical(lang string) string {
	lower := strings.ToLower(strings.TrimSpace(lang))
	if canon, ok := aliasGroups[lower]; ok {
		return canon
	}
	return lower
}

// Matches reports whether a block's language tag satisfies the filter,
// accounting for recognized aliases.
func Matches(tag, filter string) bool {
	if tag == "" || filter == "" {
		return false
	}
	return Canonical(tag) == Canonical(filter)
}

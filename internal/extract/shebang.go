package extract

import "strings"

// shebangs maps canonical language names to their interpreter line.
var shebangs = map[string]string{
	"python":     "#!/usr/bin/env python3",
	"bash":       "#!/bin/bash",
	"javascript": "#!/usr/bin/env node",
	"ruby":       "#!/usr/bin/env ruby",
	"perl":       "#!/usr/bin/env perl",
	"php":        "#!/usr/bin/env php",
}

// DetectLanguage guesses the language of untagged code from telltale tokens.
// Returns an empty string when nothing matches.
func DetectLanguage(code string) string {
	trimmed := strings.TrimSpace(code)
	switch {
	case strings.HasPrefix(trimmed, "#!/usr/bin/env python"), strings.Contains(code, "import "), strings.Contains(code, "def "), strings.Contains(code, "class "):
		return "python"
	case strings.Contains(code, "function "), strings.Contains(code, "const "), strings.Contains(code, "let "):
		return "javascript"
	case strings.HasPrefix(trimmed, "#!/bin/bash"), strings.HasPrefix(trimmed, "#!/bin/sh"), strings.Contains(code, "echo "), strings.Contains(code, "[["), strings.Contains(code, "if ["):
		return "bash"
	}
	return ""
}

// EnsureShebang prepends an interpreter line when the code lacks one and the
// language (declared or detected) has a known shebang. Code that already
// starts with #! is returned unchanged.
func EnsureShebang(code, lang string) string {
	lines := strings.SplitN(code, "\n", 2)
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "#!") {
		return code
	}

	canon := Canonical(lang)
	if canon == "" {
		canon = DetectLanguage(code)
	}

	shebang, ok := shebangs[canon]
	if !ok {
		return code
	}
	return shebang + "\n" + code
}

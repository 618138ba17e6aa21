package extract

import (
	"regexp"
	"strings"
)

var (
	lineCommentJS   = regexp.MustCompile(`(?m)//.*$`)
	blockCommentJS  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	docstringDouble = regexp.MustCompile(`(?ms)^\s*""".*?"""\s*$`)
	docstringSingle = regexp.MustCompile(`(?ms)^\s*'''.*?'''\s*$`)
	excessBlank     = regexp.MustCompile(`\n\s*\n\s*\n+`)
)

// StripComments removes full-line and trailing comments for the target
// language family. This is best-effort text surgery: it skips # markers
// inside quoted strings for hash-comment languages, but it does not parse
// the language and can misjudge exotic quoting. The shebang on the first
// line is always preserved.
func StripComments(code, lang string) string {
	canon := Canonical(lang)
	if canon == "" {
		canon = DetectLanguage(code)
	}

	switch canon {
	case "python":
		code = stripHashComments(code, true)
		code = docstringDouble.ReplaceAllString(code, "")
		code = docstringSingle.ReplaceAllString(code, "")
	case "bash", "ruby", "perl":
		code = stripHashComments(code, false)
	case "javascript", "typescript":
		code = lineCommentJS.ReplaceAllString(code, "")
		code = blockCommentJS.ReplaceAllString(code, "")
	}

	return excessBlank.ReplaceAllString(code, "\n\n")
}

// stripHashComments drops # comments line by line. When quoteAware is set,
// a # inside a single- or double-quoted string does not start a comment.
func stripHashComments(code string, quoteAware bool) string {
	lines := strings.Split(code, "\n")
	cleaned := make([]string, 0, len(lines))

	for i, line := range lines {
		if i == 0 && strings.HasPrefix(strings.TrimSpace(line), "#!") {
			cleaned = append(cleaned, line)
			continue
		}
		if !strings.Contains(line, "#") {
			cleaned = append(cleaned, line)
			continue
		}
		if quoteAware {
			cleaned = append(cleaned, strings.TrimRight(cutUnquotedHash(line), " \t"))
		} else {
			idx := strings.Index(line, "#")
			cleaned = append(cleaned, strings.TrimRight(line[:idx], " \t"))
		}
	}

	return strings.Join(cleaned, "\n")
}

// cutUnquotedHash returns the prefix of line up to the first # that is not
// inside a quoted string.
func cutUnquotedHash(line string) string {
	inString := false
	var quote byte

	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '"' || c == '\'' {
			escaped := i > 0 && line[i-1] == '\\'
			if !escaped {
				if !inString {
					inString = true
					quote = c
				} else if c == quote {
					inString = false
				}
			}
		}
		if c == '#' && !inString {
			return line[:i]
		}
	}
	return line
}

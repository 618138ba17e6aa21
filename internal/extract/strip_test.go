package extract

import (
	"strings"
	"testing"
)

func TestStripCommentsPython(t *testing.T) {
	code := "#!/usr/bin/env python3\n# setup\nx = 1  # trailing\ns = \"keep # this\"\n"
	got := StripComments(code, "python")

	if !strings.HasPrefix(got, "#!/usr/bin/env python3") {
		t.Error("shebang must be preserved")
	}
	if strings.Contains(got, "# setup") || strings.Contains(got, "# trailing") {
		t.Errorf("comments not removed: %q", got)
	}
	if !strings.Contains(got, `"keep # this"`) {
		t.Errorf("hash inside string was stripped: %q", got)
	}
}

func TestStripCommentsPythonDocstring(t *testing.T) {
	code := "def f():\n    \"\"\"docstring\n    more\n    \"\"\"\n    return 1\n"
	got := StripComments(code, "python")
	if strings.Contains(got, "docstring") {
		t.Errorf("docstring not removed: %q", got)
	}
	if !strings.Contains(got, "return 1") {
		t.Errorf("code body lost: %q", got)
	}
}

func TestStripCommentsBash(t *testing.T) {
	code := "#!/bin/bash\n# comment\necho hi # trailing\n"
	got := StripComments(code, "bash")
	if !strings.HasPrefix(got, "#!/bin/bash") {
		t.Error("shebang must be preserved")
	}
	if strings.Contains(got, "comment") || strings.Contains(got, "trailing") {
		t.Errorf("comments not removed: %q", got)
	}
	if !strings.Contains(got, "echo hi") {
		t.Errorf("code lost: %q", got)
	}
}

func TestStripCommentsJavascript(t *testing.T) {
	code := "// top\nconst x = 1; // inline\n/* block\ncomment */\nconsole.log(x);\n"
	got := StripComments(code, "javascript")
	if strings.Contains(got, "top") || strings.Contains(got, "inline") || strings.Contains(got, "block") {
		t.Errorf("comments not removed: %q", got)
	}
	if !strings.Contains(got, "console.log(x);") {
		t.Errorf("code lost: %q", got)
	}
}

func TestStripCommentsSqueezesBlankLines(t *testing.T) {
	code := "x = 1\n\n\n\n\ny = 2\n"
	got := StripComments(code, "python")
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("blank lines not squeezed: %q", got)
	}
}

func TestEnsureShebang(t *testing.T) {
	got := EnsureShebang("print('hi')", "python")
	if !strings.HasPrefix(got, "#!/usr/bin/env python3\n") {
		t.Errorf("missing python shebang: %q", got)
	}

	already := "#!/bin/bash\necho hi"
	if got := EnsureShebang(already, "bash"); got != already {
		t.Errorf("existing shebang must not be duplicated: %q", got)
	}

	// Unknown language without detectable tokens stays untouched.
	plain := "SELECT 1;"
	if got := EnsureShebang(plain, "sql"); got != plain {
		t.Errorf("unexpected shebang for sql: %q", got)
	}
}

func TestDetectLanguage(t *testing.T) {
	if got := DetectLanguage("import os\nprint(os.getcwd())"); got != "python" {
		t.Errorf("python detect = %q", got)
	}
	if got := DetectLanguage("const x = require('fs')"); got != "javascript" {
		t.Errorf("javascript detect = %q", got)
	}
	if got := DetectLanguage("echo hello"); got != "bash" {
		t.Errorf("bash detect = %q", got)
	}
}

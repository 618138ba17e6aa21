// Package verify gates candidate snippets through syntax and completeness checks.
package verify

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pop-sh/pop/internal/extract"
)

// Result holds the outcome of a single verification check.
type Result struct {
	Pass       bool
	Diagnostic string
}

// checker describes how to syntax-check one language: the check-only command
// and the temp-file extension its tool expects.
type checker struct {
	argv []string // snippet path is appended
	ext  string
}

// checkers maps canonical language names to their external check command.
var checkers = map[string]checker{
	"python":     {argv: []string{"python3", "-m", "py_compile"}, ext: ".py"},
	"bash":       {argv: []string{"bash", "-n"}, ext: ".sh"},
	"javascript": {argv: []string{"node", "--check"}, ext: ".js"},
	"ruby":       {argv: []string{"ruby", "-c"}, ext: ".rb"},
	"perl":       {argv: []string{"perl", "-c"}, ext: ".pl"},
	"php":        {argv: []string{"php", "-l"}, ext: ".php"},
}

// Syntax checks the snippet with the language's external checker. Languages
// without a registered checker pass with a diagnostic note rather than
// blocking generation. A checker timeout (context expiry) is a failure.
func Syntax(ctx context.Context, code, lang string) Result {
	canon := extract.Canonical(lang)
	chk, ok := checkers[canon]
	if !ok {
		return Result{Pass: true, Diagnostic: fmt.Sprintf("no checker available for %q", lang)}
	}

	path := filepath.Join(os.TempDir(), "pop-"+uuid.NewString()+chk.ext)
	if err := os.WriteFile(path, []byte(code), 0600); err != nil {
		return Result{Pass: false, Diagnostic: fmt.Sprintf("writing snippet for check: %v", err)}
	}
	defer os.Remove(path)

	argv := append(append([]string{}, chk.argv...), path)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stderr bytes.Buffer
	cmd.Stdout = &stderr
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return Result{Pass: true}
	}

	if ctx.Err() == context.DeadlineExceeded {
		return Result{Pass: false, Diagnostic: "syntax check timed out"}
	}

	diag := strings.TrimSpace(stderr.String())
	if diag == "" {
		diag = err.Error()
	}
	// Temp file paths in tool output are noise for the feedback prompt.
	diag = strings.ReplaceAll(diag, path, "script"+chk.ext)

	return Result{Pass: false, Diagnostic: diag}
}

// HasChecker reports whether a check-only command is registered for lang.
func HasChecker(lang string) bool {
	_, ok := checkers[extract.Canonical(lang)]
	return ok
}

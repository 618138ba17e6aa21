// analyzer.go executes the script under repair in a bounded sandbox and
// classifies what it observes.
package fixer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pop-sh/pop/internal/extract"
	"github.com/pop-sh/pop/internal/verify"
)

// Category classifies a fix-mode finding.
type Category string

const (
	CategorySyntaxDefect      Category = "syntax_defect"
	CategoryRuntimeDefect     Category = "runtime_defect"
	CategoryMissingDependency Category = "missing_dependency"
	CategoryOther             Category = "other"
)

// Issue is a discrete defect or missing-capability finding.
type Issue struct {
	Description string
	Category    Category
}

// Report collects everything the analyzer learned about a script.
type Report struct {
	Language     string
	Code         string
	Issues       []Issue
	Dependencies []Dependency
	RunOutput    string // combined stdout/stderr of the probe, trimmed
	Imports      []string
}

// interpreters maps canonical language names to the command that runs a script.
var interpreters = map[string][]string{
	"python":     {"python3"},
	"bash":       {"bash"},
	"javascript": {"node"},
	"ruby":       {"ruby"},
	"perl":       {"perl"},
	"php":        {"php"},
}

var missingModulePatterns = []*regexp.Regexp{
	regexp.MustCompile(`ModuleNotFoundError: No module named '([^']+)'`),
	regexp.MustCompile(`ImportError: No module named '?([\w.]+)'?`),
	regexp.MustCompile(`Cannot find module '([^']+)'`),
	regexp.MustCompile(`cannot load such file -- (\S+)`),
}

// Analyze inspects the script at path without ever modifying it: a syntax
// check and a sandboxed execution probe run concurrently against a temp
// copy. runTimeout bounds the probe; expiry becomes a RuntimeDefect finding,
// not an analyzer failure.
func Analyze(ctx context.Context, path string, runTimeout time.Duration) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}

	rep := &Report{
		Language: scriptLanguage(path, string(data)),
		Code:     string(data),
	}

	var (
		probeIssues  []Issue
		probeDeps    []Dependency
		staticIssues []Issue
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		out, issues, deps := runProbe(gctx, rep.Language, data, filepath.Ext(path), runTimeout)
		rep.RunOutput = out
		probeIssues = issues
		probeDeps = deps
		return nil
	})

	g.Go(func() error {
		staticIssues = staticScan(gctx, rep.Language, string(data))
		rep.Imports = scanImports(rep.Language, string(data))
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep.Issues = append(staticIssues, probeIssues...)
	rep.Dependencies = dedupeDependencies(probeDeps)
	return rep, nil
}

// runProbe executes a temp copy of the script and classifies the result.
func runProbe(ctx context.Context, lang string, code []byte, ext string, timeout time.Duration) (string, []Issue, []Dependency) {
	argv, ok := interpreters[lang]
	if !ok {
		return "", []Issue{{
			Description: fmt.Sprintf("cannot execute %s scripts; skipped runtime probe", lang),
			Category:    CategoryOther,
		}}, nil
	}

	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Execute a copy from a scratch directory so the original is never
	// touched and relative writes land somewhere harmless.
	dir, err := os.MkdirTemp("", "pop-probe-")
	if err != nil {
		return "", []Issue{{Description: "probe setup failed: " + err.Error(), Category: CategoryOther}}, nil
	}
	defer os.RemoveAll(dir)

	copyPath := filepath.Join(dir, "probe-"+uuid.NewString()+ext)
	if err := os.WriteFile(copyPath, code, 0700); err != nil {
		return "", []Issue{{Description: "probe setup failed: " + err.Error(), Category: CategoryOther}}, nil
	}

	argv = append(append([]string{}, argv...), copyPath)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	runErr := cmd.Run()
	output := strings.TrimSpace(buf.String())

	if ctx.Err() == context.DeadlineExceeded {
		return output, []Issue{{
			Description: fmt.Sprintf("script did not finish within %s (possible hang)", timeout),
			Category:    CategoryRuntimeDefect,
		}}, nil
	}

	if runErr == nil {
		return output, nil, nil
	}

	deps := missingModules(output)
	if len(deps) > 0 {
		issues := make([]Issue, 0, len(deps))
		for _, d := range deps {
			issues = append(issues, Issue{
				Description: fmt.Sprintf("missing module %q (install package %q)", d.Module, d.Package),
				Category:    CategoryMissingDependency,
			})
		}
		return output, issues, deps
	}

	return output, []Issue{{
		Description: "script exited with an error: " + tail(output, 500),
		Category:    CategoryRuntimeDefect,
	}}, nil
}

// staticScan runs the language syntax checker over the script body.
func staticScan(ctx context.Context, lang, code string) []Issue {
	if !verify.HasChecker(lang) {
		return nil
	}
	res := verify.Syntax(ctx, code, lang)
	if res.Pass {
		return nil
	}
	return []Issue{{
		Description: "syntax check failed: " + res.Diagnostic,
		Category:    CategorySyntaxDefect,
	}}
}

// missingModules extracts module names from "module not found" style errors
// and resolves them to installable packages.
func missingModules(output string) []Dependency {
	var deps []Dependency
	for _, pat := range missingModulePatterns {
		for _, m := range pat.FindAllStringSubmatch(output, -1) {
			module := m[1]
			// Submodule failures resolve through their top-level package.
			if idx := strings.Index(module, "."); idx > 0 {
				module = module[:idx]
			}
			deps = append(deps, Resolve(module))
		}
	}
	return dedupeDependencies(deps)
}

var (
	pyImport   = regexp.MustCompile(`(?m)^\s*(?:import|from)\s+([\w.]+)`)
	jsRequire  = regexp.MustCompile(`require\(['"]([^'"]+)['"]\)`)
	jsImport   = regexp.MustCompile(`(?m)^\s*import\b.*\bfrom\s+['"]([^'"]+)['"]`)
)

// scanImports lists the modules a script declares, for the review prompt.
func scanImports(lang, code string) []string {
	var pats []*regexp.Regexp
	switch lang {
	case "python":
		pats = []*regexp.Regexp{pyImport}
	case "javascript":
		pats = []*regexp.Regexp{jsRequire, jsImport}
	default:
		return nil
	}

	seen := make(map[string]bool)
	var imports []string
	for _, pat := range pats {
		for _, m := range pat.FindAllStringSubmatch(code, -1) {
			name := m[1]
			if idx := strings.Index(name, "."); idx > 0 {
				name = name[:idx]
			}
			if !seen[name] {
				seen[name] = true
				imports = append(imports, name)
			}
		}
	}
	return imports
}

// scriptLanguage determines the language from the file extension, falling
// back to the shebang and then content detection.
func scriptLanguage(path, code string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py":
		return "python"
	case ".sh", ".bash":
		return "bash"
	case ".js", ".mjs":
		return "javascript"
	case ".rb":
		return "ruby"
	case ".pl":
		return "perl"
	case ".php":
		return "php"
	}

	first, _, _ := strings.Cut(code, "\n")
	if strings.HasPrefix(first, "#!") {
		switch {
		case strings.Contains(first, "python"):
			return "python"
		case strings.Contains(first, "node"):
			return "javascript"
		case strings.Contains(first, "ruby"):
			return "ruby"
		case strings.Contains(first, "perl"):
			return "perl"
		case strings.Contains(first, "php"):
			return "php"
		case strings.Contains(first, "sh"):
			return "bash"
		}
	}

	return extract.DetectLanguage(code)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

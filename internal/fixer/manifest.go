package fixer

import (
	"fmt"
	"os"
	"strings"
)

const (
	manifestSuffix  = "_requirements.txt"
	fixOutputSuffix = "_popfix"
)

// FixOutputPath returns where the repaired script is written. The original
// path is never reused, so the source script is never overwritten.
func FixOutputPath(scriptPath string) string {
	return scriptPath + fixOutputSuffix
}

// ManifestPath returns the requirements manifest path for a script.
func ManifestPath(scriptPath string) string {
	return scriptPath + manifestSuffix
}

// WriteManifest writes the resolved package names, one per line, next to the
// fixed script. No file is written when there are no dependencies; the
// returned path is empty in that case.
func WriteManifest(scriptPath string, deps []Dependency) (string, error) {
	deps = dedupeDependencies(deps)
	if len(deps) == 0 {
		return "", nil
	}

	var b strings.Builder
	for _, d := range deps {
		b.WriteString(d.Package)
		b.WriteString("\n")
	}

	path := ManifestPath(scriptPath)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("writing manifest: %w", err)
	}
	return path, nil
}

// InstallHeader builds the non-executable commentary prepended to the fixed
// script: the package list, the install command, and the manifest filename.
func InstallHeader(lang string, deps []Dependency, manifestPath string) string {
	deps = dedupeDependencies(deps)
	if len(deps) == 0 {
		return ""
	}

	prefix := "# "
	switch lang {
	case "javascript", "typescript", "php":
		prefix = "// "
	}

	pkgs := make([]string, 0, len(deps))
	for _, d := range deps {
		pkgs = append(pkgs, d.Package)
	}

	install := "install: " + strings.Join(pkgs, " ")
	switch lang {
	case "python":
		install = "pip install " + strings.Join(pkgs, " ")
	case "javascript", "typescript":
		install = "npm install " + strings.Join(pkgs, " ")
	case "ruby":
		install = "gem install " + strings.Join(pkgs, " ")
	}

	lines := []string{
		prefix + "Missing dependencies detected: " + strings.Join(pkgs, ", "),
		prefix + "Install before running: " + install,
	}
	if manifestPath != "" {
		lines = append(lines, prefix+"Package list saved to: "+manifestPath)
	}
	return strings.Join(lines, "\n")
}

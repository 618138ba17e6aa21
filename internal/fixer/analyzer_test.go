package fixer

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeScript(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMissingModulesClassification(t *testing.T) {
	stderr := `Traceback (most recent call last):
  File "script.py", line 1, in <module>
    import requests
ModuleNotFoundError: No module named 'requests'`

	deps := missingModules(stderr)
	if len(deps) != 1 {
		t.Fatalf("deps = %v", deps)
	}
	if deps[0].Module != "requests" || deps[0].Package != "requests" {
		t.Errorf("got %+v", deps[0])
	}
}

func TestMissingModulesAliasAndSubmodule(t *testing.T) {
	stderr := "ModuleNotFoundError: No module named 'cv2'\n" +
		"ModuleNotFoundError: No module named 'bs4.element'\n" +
		"Error: Cannot find module 'express'\n"

	deps := missingModules(stderr)
	byModule := map[string]string{}
	for _, d := range deps {
		byModule[d.Module] = d.Package
	}

	if byModule["cv2"] != "opencv-python" {
		t.Errorf("cv2 -> %q", byModule["cv2"])
	}
	if byModule["bs4"] != "beautifulsoup4" {
		t.Errorf("bs4 -> %q", byModule["bs4"])
	}
	if byModule["express"] != "express" {
		t.Errorf("express -> %q", byModule["express"])
	}
}

func TestAnalyzeRuntimeDefect(t *testing.T) {
	path := writeScript(t, "boom.sh", "#!/bin/bash\necho oops >&2\nexit 3\n")

	rep, err := Analyze(context.Background(), path, 5*time.Second)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if rep.Language != "bash" {
		t.Errorf("language = %q", rep.Language)
	}

	var runtime bool
	for _, iss := range rep.Issues {
		if iss.Category == CategoryRuntimeDefect && strings.Contains(iss.Description, "oops") {
			runtime = true
		}
	}
	if !runtime {
		t.Errorf("no runtime defect recorded: %+v", rep.Issues)
	}
}

func TestAnalyzeHealthyScript(t *testing.T) {
	path := writeScript(t, "ok.sh", "#!/bin/bash\necho fine\n")

	rep, err := Analyze(context.Background(), path, 5*time.Second)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(rep.Issues) != 0 {
		t.Errorf("unexpected issues: %+v", rep.Issues)
	}
	if rep.RunOutput != "fine" {
		t.Errorf("RunOutput = %q", rep.RunOutput)
	}
}

func TestAnalyzeTimeoutBecomesRuntimeDefect(t *testing.T) {
	path := writeScript(t, "hang.sh", "#!/bin/bash\nsleep 10\n")

	rep, err := Analyze(context.Background(), path, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	var hang bool
	for _, iss := range rep.Issues {
		if iss.Category == CategoryRuntimeDefect && strings.Contains(iss.Description, "did not finish") {
			hang = true
		}
	}
	if !hang {
		t.Errorf("timeout not classified as runtime defect: %+v", rep.Issues)
	}
}

func TestAnalyzeSyntaxDefect(t *testing.T) {
	path := writeScript(t, "bad.sh", "#!/bin/bash\nif [ x; then\n")

	rep, err := Analyze(context.Background(), path, 5*time.Second)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	var syntax bool
	for _, iss := range rep.Issues {
		if iss.Category == CategorySyntaxDefect {
			syntax = true
		}
	}
	if !syntax {
		t.Errorf("no syntax defect recorded: %+v", rep.Issues)
	}
}

func TestAnalyzeNeverMutatesOriginal(t *testing.T) {
	content := "#!/bin/bash\nrm -f \"$0\"\necho done\n"
	path := writeScript(t, "selfdestruct.sh", content)
	before := sha256.Sum256([]byte(content))

	if _, err := Analyze(context.Background(), path, 5*time.Second); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("original vanished: %v", err)
	}
	if sha256.Sum256(data) != before {
		t.Error("original script was modified")
	}
}

func TestScanImportsPython(t *testing.T) {
	code := "import os\nimport requests\nfrom bs4 import BeautifulSoup\nfrom os.path import join\n"
	imports := scanImports("python", code)

	want := map[string]bool{"os": true, "requests": true, "bs4": true}
	for _, imp := range imports {
		if !want[imp] {
			t.Errorf("unexpected import %q", imp)
		}
		delete(want, imp)
	}
	if len(want) != 0 {
		t.Errorf("missing imports: %v", want)
	}
}

func TestScriptLanguageFromShebang(t *testing.T) {
	if got := scriptLanguage("tool", "#!/usr/bin/env python3\nprint(1)\n"); got != "python" {
		t.Errorf("got %q", got)
	}
	if got := scriptLanguage("tool.js", ""); got != "javascript" {
		t.Errorf("got %q", got)
	}
}

package fixer

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type scriptedReviewer struct {
	reply  string
	err    error
	prompt string
}

func (s *scriptedReviewer) Generate(ctx context.Context, model, prompt string) (string, error) {
	s.prompt = prompt
	return s.reply, s.err
}

func sampleReport() *Report {
	return &Report{
		Language: "python",
		Code:     "import requests\nrequests.get(url)\n",
		Issues: []Issue{
			{Description: "missing module \"requests\" (install package \"requests\")", Category: CategoryMissingDependency},
		},
		Dependencies: []Dependency{{Module: "requests", Package: "requests"}},
		RunOutput:    "ModuleNotFoundError: No module named 'requests'",
		Imports:      []string{"requests"},
	}
}

func TestDiagnoseMergesReview(t *testing.T) {
	rev := &scriptedReviewer{reply: "ISSUE: url is undefined\nFIX: read the url from argv\nFIX: add a timeout"}

	diag := Diagnose(context.Background(), rev, "m", "make it take a url argument", sampleReport())

	if len(diag.Issues) != 2 {
		t.Fatalf("issues = %+v", diag.Issues)
	}
	if diag.Issues[1].Description != "url is undefined" {
		t.Errorf("reviewed issue = %+v", diag.Issues[1])
	}
	if len(diag.Fixes) != 2 {
		t.Errorf("fixes = %v", diag.Fixes)
	}
	if !strings.Contains(rev.prompt, "make it take a url argument") {
		t.Error("instructions missing from review prompt")
	}
	if !strings.Contains(rev.prompt, "ModuleNotFoundError") {
		t.Error("execution evidence missing from review prompt")
	}
}

func TestDiagnoseDedupesByDescription(t *testing.T) {
	rep := sampleReport()
	rev := &scriptedReviewer{reply: "ISSUE: " + rep.Issues[0].Description}

	diag := Diagnose(context.Background(), rev, "m", "", rep)
	if len(diag.Issues) != 1 {
		t.Errorf("duplicate not removed: %+v", diag.Issues)
	}
}

func TestDiagnoseReviewFailureDegrades(t *testing.T) {
	rev := &scriptedReviewer{err: errors.New("backend down")}

	diag := Diagnose(context.Background(), rev, "m", "", sampleReport())
	if len(diag.Issues) != 1 || len(diag.Fixes) != 0 {
		t.Errorf("mechanical findings should survive review failure: %+v", diag)
	}
}

func TestParseReviewIgnoresProse(t *testing.T) {
	issues, fixes := parseReview("Let me look.\n- ISSUE: dangling reference\nSome chatter\nFIX: define the variable\n")
	if len(issues) != 1 || issues[0].Description != "dangling reference" {
		t.Errorf("issues = %+v", issues)
	}
	if len(fixes) != 1 || fixes[0] != "define the variable" {
		t.Errorf("fixes = %v", fixes)
	}
}

func TestLogSectionsOrder(t *testing.T) {
	diag := &Diagnostics{
		Issues:       []Issue{{Description: "broken loop", Category: CategoryRuntimeDefect}},
		Dependencies: []Dependency{{Module: "yaml", Package: "pyyaml"}},
		Fixes:        []string{"rewrite the loop"},
	}

	text := diag.LogSections([]string{"broken loop"})

	order := []string{"Issues Found:", "Missing Dependencies:", "Fixes to Apply:", "Issues Addressed:"}
	last := -1
	for _, section := range order {
		idx := strings.Index(text, section)
		if idx < 0 {
			t.Fatalf("section %q missing:\n%s", section, text)
		}
		if idx < last {
			t.Fatalf("section %q out of order:\n%s", section, text)
		}
		last = idx
	}

	if !strings.Contains(text, "yaml -> pyyaml") {
		t.Errorf("dependency line missing:\n%s", text)
	}
}

func TestFeedbackTextEmpty(t *testing.T) {
	diag := &Diagnostics{}
	if got := diag.FeedbackText(); !strings.Contains(got, "no mechanical defects") {
		t.Errorf("got %q", got)
	}
}

package verify

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// scriptedReviewer returns a canned reply or error.
type scriptedReviewer struct {
	reply string
	err   error
}

func (s *scriptedReviewer) Generate(ctx context.Context, model, prompt string) (string, error) {
	return s.reply, s.err
}

func TestCompletenessPass(t *testing.T) {
	res := Completeness(context.Background(), &scriptedReviewer{reply: "COMPLETE"}, "m", "code", "prompt", "python")
	if !res.Pass {
		t.Errorf("expected pass, got %+v", res)
	}
}

func TestCompletenessFailWithReason(t *testing.T) {
	res := Completeness(context.Background(), &scriptedReviewer{reply: "INCOMPLETE: main() is never called"}, "m", "code", "prompt", "python")
	if res.Pass {
		t.Fatal("expected fail")
	}
	if res.Diagnostic != "main() is never called" {
		t.Errorf("reason = %q", res.Diagnostic)
	}
}

func TestCompletenessBackendErrorDegradesToPass(t *testing.T) {
	res := Completeness(context.Background(), &scriptedReviewer{err: errors.New("connection refused")}, "m", "code", "prompt", "bash")
	if !res.Pass {
		t.Error("backend failure must degrade to pass")
	}
}

func TestCompletenessMalformedReplyPasses(t *testing.T) {
	res := Completeness(context.Background(), &scriptedReviewer{reply: "The script looks fine to me overall."}, "m", "code", "prompt", "bash")
	if !res.Pass {
		t.Error("unparseable verdict must degrade to pass")
	}
}

func TestCompletenessVerdictOnLaterLine(t *testing.T) {
	reply := "Reviewing...\n\nINCOMPLETE: truncated mid-function"
	res := Completeness(context.Background(), &scriptedReviewer{reply: reply}, "m", "code", "prompt", "")
	if res.Pass {
		t.Fatal("expected fail")
	}
	if !strings.Contains(res.Diagnostic, "truncated") {
		t.Errorf("reason = %q", res.Diagnostic)
	}
}

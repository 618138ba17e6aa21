// worker.go implements the hidden "pop worker" command plus the shared
// pipeline that both detached workers and --fg runs execute.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pop-sh/pop/internal/backend"
	"github.com/pop-sh/pop/internal/config"
	"github.com/pop-sh/pop/internal/fixer"
	"github.com/pop-sh/pop/internal/generate"
	"github.com/pop-sh/pop/internal/session"
	"github.com/pop-sh/pop/internal/ui"
)

var workerCmd = &cobra.Command{
	Use:    "worker",
	Hidden: true,
	RunE:   runWorker,
}

var (
	workerIDFlag       string
	workerLangFlag     string
	workerMinimalFlag  bool
	workerThinkingFlag bool
	workerAttemptsFlag int
)

func init() {
	workerCmd.Flags().StringVar(&workerIDFlag, "id", "", "Session id to execute")
	workerCmd.Flags().StringVar(&workerLangFlag, "lang", "", "Language filter")
	workerCmd.Flags().BoolVar(&workerMinimalFlag, "minimal", false, "Strip comments from the accepted script")
	workerCmd.Flags().BoolVar(&workerThinkingFlag, "show-thinking", false, "Ask the model to show its reasoning")
	workerCmd.Flags().IntVar(&workerAttemptsFlag, "attempts", 0, "Attempt ceiling")
	workerCmd.MarkFlagRequired("id")
}

// workerFlags carries per-invocation options that are not part of the durable
// session record and therefore must travel to the worker on its argv.
type workerFlags struct {
	Lang         string
	Minimal      bool
	ShowThinking bool
	Attempts     int
}

func (wf workerFlags) argv(id string) []string {
	args := []string{"worker", "--id", id}
	if wf.Lang != "" {
		args = append(args, "--lang", wf.Lang)
	}
	if wf.Minimal {
		args = append(args, "--minimal")
	}
	if wf.ShowThinking {
		args = append(args, "--show-thinking")
	}
	if wf.Attempts > 0 {
		args = append(args, "--attempts", strconv.Itoa(wf.Attempts))
	}
	return args
}

// spawnWorker re-executes this binary as a detached worker for the session.
// The parent does not wait; the worker's stdio goes to the session directory.
func spawnWorker(m *session.Manager, id string, wf workerFlags) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating executable: %w", err)
	}

	logFile, err := os.OpenFile(m.WorkerLogPath(id), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening worker log: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(self, wf.argv(id)...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil
	cmd.SysProcAttr = detachAttr()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting worker: %w", err)
	}
	return m.AttachWorker(id, cmd.Process.Pid)
}

func runWorker(cmd *cobra.Command, args []string) error {
	dir, err := config.PopDir()
	if err != nil {
		return err
	}
	cfg, err := config.LoadOrDefault(dir)
	if err != nil {
		return err
	}

	m, err := session.NewManager(dir)
	if err != nil {
		return err
	}
	defer m.Close()

	wf := workerFlags{
		Lang:         workerLangFlag,
		Minimal:      workerMinimalFlag,
		ShowThinking: workerThinkingFlag,
		Attempts:     workerAttemptsFlag,
	}
	return runSessionInline(m, cfg, workerIDFlag, wf)
}

// runSessionInline executes a session's pipeline to a terminal state. Any
// infrastructure fault is recorded on the session before being returned.
func runSessionInline(m *session.Manager, cfg *config.Config, id string, wf workerFlags) error {
	sess, err := m.Get(id)
	if err != nil {
		return err
	}

	ctx := context.Background()
	be := backend.New(cfg.Backend.Endpoint, time.Duration(cfg.Backend.GenerateTimeout)*time.Second)
	rec := m.NewRecorder(id)

	var runErr error
	switch sess.Kind {
	case session.KindFix:
		runErr = runFixSession(ctx, m, cfg, be, rec, sess, wf)
	default:
		runErr = runGenerateSession(ctx, m, cfg, be, rec, sess, wf)
	}
	if runErr != nil {
		_ = m.MarkTerminal(id, session.StateFailed, runErr.Error(), 0, nil, "")
	}
	return runErr
}

func loopOptions(cfg *config.Config, sess *session.Session, wf workerFlags) generate.Options {
	attempts := cfg.Generation.MaxAttempts
	if wf.Attempts > 0 {
		attempts = wf.Attempts
	}
	return generate.Options{
		Model:           sess.Model,
		Prompt:          sess.Prompt,
		Language:        wf.Lang,
		OutputPath:      sess.OutputPath,
		Minimal:         wf.Minimal || cfg.Generation.Minimal,
		ShowThinking:    wf.ShowThinking || cfg.Generation.ShowThinking,
		MaxAttempts:     attempts,
		GenerateTimeout: time.Duration(cfg.Backend.GenerateTimeout) * time.Second,
		CheckTimeout:    time.Duration(cfg.Generation.CheckTimeout) * time.Second,
		ReviewTimeout:   time.Duration(cfg.Backend.ReviewTimeout) * time.Second,
	}
}

// progressRecorder forwards attempts to the session logs while keeping the
// terminal display current.
type progressRecorder struct {
	inner *session.Recorder
	disp  *ui.ProgressDisplay
	max   int
}

func (r *progressRecorder) RecordAttempt(a generate.Attempt) {
	r.inner.RecordAttempt(a)

	var status ui.AttemptStatus
	var detail string
	switch a.Outcome {
	case generate.OutcomeAccepted:
		status = ui.StatusAccepted
	case generate.OutcomeRejectedSyntax:
		status, detail = ui.StatusRejectedSyntax, a.Syntax.Diagnostic
	case generate.OutcomeRejectedCompleteness:
		status, detail = ui.StatusRejectedCompleteness, a.Completeness.Diagnostic
	default:
		status = ui.StatusNoCode
	}
	r.disp.FinishAttempt(a.Index, status, detail)

	if status != ui.StatusAccepted && a.Index < r.max {
		r.disp.StartAttempt(a.Index + 1)
	}
}

func runLoop(ctx context.Context, be *backend.Client, rec *session.Recorder, desc string, opts generate.Options) (*generate.Result, error) {
	disp := ui.NewProgressDisplay(desc, opts.MaxAttempts)
	disp.StartAttempt(1)

	res, err := generate.Run(ctx, be, opts, &progressRecorder{inner: rec, disp: disp, max: opts.MaxAttempts})
	if err != nil {
		return nil, err
	}
	disp.Finish(res.Accepted, res.OutputPath)
	return res, nil
}

func runGenerateSession(ctx context.Context, m *session.Manager, cfg *config.Config, be *backend.Client, rec *session.Recorder, sess *session.Session, wf workerFlags) error {
	res, err := runLoop(ctx, be, rec, sess.Prompt, loopOptions(cfg, sess, wf))
	if err != nil {
		return err
	}

	if res.Accepted {
		return m.MarkTerminal(sess.ID, session.StateSucceeded, "", len(res.Attempts), nil, res.OutputPath)
	}
	return m.MarkTerminal(sess.ID, session.StateFailed, res.FailureReason, len(res.Attempts), nil, res.OutputPath)
}

func runFixSession(ctx context.Context, m *session.Manager, cfg *config.Config, be *backend.Client, rec *session.Recorder, sess *session.Session, wf workerFlags) error {
	scriptPath := strings.TrimSuffix(sess.OutputPath, "_popfix")

	rep, err := fixer.Analyze(ctx, scriptPath, time.Duration(cfg.Fix.RunTimeout)*time.Second)
	if err != nil {
		return err
	}
	rec.RecordNote("probe finished: %d issue(s), %d missing dependenc(ies)", len(rep.Issues), len(rep.Dependencies))

	diag := fixer.Diagnose(ctx, be, sess.Model, sess.Prompt, rep)

	manifestPath, err := fixer.WriteManifest(scriptPath, diag.Dependencies)
	if err != nil {
		return err
	}
	header := fixer.InstallHeader(rep.Language, diag.Dependencies, manifestPath)

	original, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("reading script: %w", err)
	}

	opts := loopOptions(cfg, sess, wf)
	opts.Prompt = fixPrompt(sess.Prompt, rep.Language, string(original))
	opts.Language = rep.Language
	opts.InitialFeedback = diag.FeedbackText()
	opts.Header = header
	opts.FixedOutput = true

	res, err := runLoop(ctx, be, rec, "fix "+scriptPath, opts)
	if err != nil {
		rec.RecordFixSections(diag.LogSections(nil))
		return err
	}

	var addressed []string
	if res.Accepted {
		for _, iss := range diag.Issues {
			addressed = append(addressed, iss.Description)
		}
	}
	rec.RecordFixSections(diag.LogSections(addressed))

	deps := make([]string, 0, len(diag.Dependencies))
	for _, d := range diag.Dependencies {
		deps = append(deps, d.Package)
	}

	if res.Accepted {
		return m.MarkTerminal(sess.ID, session.StateSucceeded, "", len(res.Attempts), deps, res.OutputPath)
	}
	return m.MarkTerminal(sess.ID, session.StateFailed, res.FailureReason, len(res.Attempts), deps, res.OutputPath)
}

// fixPrompt frames a repair request around the existing script so the task
// template can be reused for regeneration.
func fixPrompt(instructions, lang, code string) string {
	var b strings.Builder
	b.WriteString("Rewrite the following script so it works correctly.\n")
	if instructions != "" {
		b.WriteString("Requested changes: ")
		b.WriteString(instructions)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nCurrent script:\n```%s\n%s\n```\n", lang, strings.TrimRight(code, "\n"))
	return b.String()
}

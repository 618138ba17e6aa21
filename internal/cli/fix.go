// fix.go implements "pop fix": diagnose a broken script and regenerate it.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pop-sh/pop/internal/config"
	"github.com/pop-sh/pop/internal/fixer"
	"github.com/pop-sh/pop/internal/session"
)

var fixCmd = &cobra.Command{
	Use:   "fix <script> [instructions...]",
	Short: "Diagnose and repair an existing script",
	Long: `Run the script in a sandbox, classify what went wrong (syntax defects,
runtime failures, missing modules), have the model review the findings, and
regenerate a corrected version next to the original with a _popfix suffix.
Missing modules are resolved to installable package names and written to a
requirements manifest; install instructions are embedded in the fixed script.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFix,
}

var (
	fixModelFlag    string
	fixAttemptsFlag int
	fixFgFlag       bool
)

func init() {
	fixCmd.Flags().StringVarP(&fixModelFlag, "model", "m", "", "Model name (overrides config)")
	fixCmd.Flags().IntVar(&fixAttemptsFlag, "attempts", 0, "Attempt ceiling (overrides config)")
	fixCmd.Flags().BoolVar(&fixFgFlag, "fg", false, "Run in the foreground instead of a detached worker")
}

func runFix(cmd *cobra.Command, args []string) error {
	scriptPath := args[0]
	instructions := strings.TrimSpace(strings.Join(args[1:], " "))

	info, err := os.Stat(scriptPath)
	if err != nil {
		return fmt.Errorf("script %s: %w", scriptPath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", scriptPath)
	}

	dir, err := config.PopDir()
	if err != nil {
		return err
	}
	cfg, err := config.LoadOrDefault(dir)
	if err != nil {
		return err
	}
	if fixModelFlag != "" {
		cfg.Model = fixModelFlag
	}

	m, err := session.NewManager(dir)
	if err != nil {
		return err
	}
	defer m.Close()

	sess, err := m.Create(session.KindFix, cfg.Model, instructions, fixer.FixOutputPath(scriptPath))
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	wf := workerFlags{Attempts: fixAttemptsFlag}

	if fixFgFlag {
		if err := runSessionInline(m, cfg, sess.ID, wf); err != nil {
			return err
		}
		return reportOutcome(m, sess.ID)
	}

	if err := spawnWorker(m, sess.ID, wf); err != nil {
		_ = m.MarkTerminal(sess.ID, session.StateFailed, "worker failed to start: "+err.Error(), 0, nil, "")
		return err
	}

	fmt.Printf("started session %s\n", sess.ID)
	fmt.Printf("  fixed script will be written to %s\n", fixer.FixOutputPath(scriptPath))
	fmt.Println("  run 'pop list' to check progress")
	return nil
}

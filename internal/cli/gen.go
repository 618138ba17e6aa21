// gen.go implements "pop gen": submit a request and hand it to a worker.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pop-sh/pop/internal/cleanup"
	"github.com/pop-sh/pop/internal/config"
	"github.com/pop-sh/pop/internal/session"
)

var genCmd = &cobra.Command{
	Use:   "gen [description...]",
	Short: "Generate a verified script from a description",
	Long: `Generate a script for the given task description. The work happens in a
detached worker process; the command returns immediately with a session id.
Use --fg to run in the foreground instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGen,
}

var (
	genOutputFlag   string
	genLangFlag     string
	genModelFlag    string
	genAttemptsFlag int
	genMinimalFlag  bool
	genThinkingFlag bool
	genFgFlag       bool
)

func init() {
	genCmd.Flags().StringVarP(&genOutputFlag, "output", "o", "", "Output path for the accepted script (default: script.<ext>)")
	genCmd.Flags().StringVarP(&genLangFlag, "lang", "l", "", "Restrict extraction to one language (e.g. python, bash)")
	genCmd.Flags().StringVarP(&genModelFlag, "model", "m", "", "Model name (overrides config)")
	genCmd.Flags().IntVar(&genAttemptsFlag, "attempts", 0, "Attempt ceiling (overrides config)")
	genCmd.Flags().BoolVar(&genMinimalFlag, "minimal", false, "Strip comments from the accepted script")
	genCmd.Flags().BoolVar(&genThinkingFlag, "show-thinking", false, "Ask the model to show its reasoning")
	genCmd.Flags().BoolVar(&genFgFlag, "fg", false, "Run in the foreground instead of a detached worker")
}

// outputExtensions maps a language filter to a default file extension.
var outputExtensions = map[string]string{
	"python":     ".py",
	"bash":       ".sh",
	"javascript": ".js",
	"typescript": ".ts",
	"ruby":       ".rb",
	"perl":       ".pl",
	"php":        ".php",
}

func defaultOutput(lang string) string {
	if ext, ok := outputExtensions[lang]; ok {
		return "script" + ext
	}
	return "script.sh"
}

func runGen(cmd *cobra.Command, args []string) error {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		return fmt.Errorf("provide a task description")
	}

	dir, err := config.PopDir()
	if err != nil {
		return err
	}
	cfg, err := config.LoadOrDefault(dir)
	if err != nil {
		return err
	}
	if genModelFlag != "" {
		cfg.Model = genModelFlag
	}

	output := genOutputFlag
	if output == "" {
		output = defaultOutput(genLangFlag)
	}

	m, err := session.NewManager(dir)
	if err != nil {
		return err
	}
	defer m.Close()

	// Auto-prune old session directories.
	if cfg.Cleanup.MaxAgeDays > 0 {
		if active, aerr := m.ActiveIDs(); aerr == nil {
			pruned, perr := cleanup.PruneByAge(m.SessionsDir(), cfg.Cleanup.MaxAgeDays, active, false)
			if perr != nil {
				fmt.Fprintf(os.Stderr, "Warning: cleanup failed: %v\n", perr)
			} else if len(pruned) > 0 {
				fmt.Fprintf(os.Stderr, "Cleaned up %d old session(s)\n", len(pruned))
			}
		}
	}

	sess, err := m.Create(session.KindGenerate, cfg.Model, prompt, output)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	wf := workerFlags{
		Lang:         genLangFlag,
		Minimal:      genMinimalFlag,
		ShowThinking: genThinkingFlag,
		Attempts:     genAttemptsFlag,
	}

	if genFgFlag {
		if err := runSessionInline(m, cfg, sess.ID, wf); err != nil {
			return err
		}
		return reportOutcome(m, sess.ID)
	}

	if err := spawnWorker(m, sess.ID, wf); err != nil {
		// The worker never started; record the failure so 'pop list' does
		// not report a phantom running session.
		_ = m.MarkTerminal(sess.ID, session.StateFailed, "worker failed to start: "+err.Error(), 0, nil, "")
		return err
	}

	fmt.Printf("started session %s\n", sess.ID)
	fmt.Printf("  output: %s\n", output)
	fmt.Println("  run 'pop list' to check progress")
	return nil
}

// reportOutcome prints the terminal state of a foreground run.
func reportOutcome(m *session.Manager, id string) error {
	final, err := m.Get(id)
	if err != nil {
		return err
	}
	if final.State == session.StateSucceeded {
		fmt.Printf("wrote %s (%d attempt(s))\n", final.OutputPath, final.Attempt)
		return nil
	}
	if final.OutputPath != "" && strings.HasSuffix(final.OutputPath, ".partial") {
		fmt.Printf("saved last candidate to %s\n", final.OutputPath)
	}
	return fmt.Errorf("%s", final.Reason)
}

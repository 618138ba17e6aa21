// list.go implements "pop list": active workers plus recent history.
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pop-sh/pop/internal/config"
	"github.com/pop-sh/pop/internal/session"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show active and recent sessions",
	Long: `List sessions: currently running workers first, then the most recent
finished sessions. A session whose worker process has disappeared is
reclassified as failed on the spot.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var listAllFlag bool

func init() {
	listCmd.Flags().BoolVarP(&listAllFlag, "all", "a", false, "Show all past sessions, not just the recent ones")
}

func runList(cmd *cobra.Command, args []string) error {
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

	limit := cfg.List.RecentLimit
	if listAllFlag {
		limit = 0
	}
	active, past, err := m.List(limit)
	if err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}

	if len(active) == 0 && len(past) == 0 {
		fmt.Println("no sessions yet")
		return nil
	}

	if len(active) > 0 {
		fmt.Println("Active:")
		for _, s := range active {
			printSession(s)
		}
	}
	if len(past) > 0 {
		if len(active) > 0 {
			fmt.Println()
		}
		fmt.Println("Recent:")
		for _, s := range past {
			printSession(s)
		}
	}
	return nil
}

var (
	runningColor = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen)
	failedColor  = color.New(color.FgRed)
)

func printSession(s session.Session) {
	status := statusLabel(s.State)
	fmt.Printf("  %s  %s  %-8s  %s\n", s.ID, status, s.Kind, s.Model)

	var details []string
	if s.OutputPath != "" {
		details = append(details, "output "+s.OutputPath)
	}
	if s.Attempt > 0 {
		details = append(details, fmt.Sprintf("%d attempt(s)", s.Attempt))
	}
	if d := duration(s); d != "" {
		details = append(details, d)
	}
	if len(details) > 0 {
		fmt.Printf("      %s\n", strings.Join(details, ", "))
	}
	if s.Reason != "" {
		fmt.Printf("      reason: %s\n", s.Reason)
	}
	if len(s.Dependencies) > 0 {
		fmt.Printf("      missing deps: %s\n", strings.Join(s.Dependencies, ", "))
	}
}

func statusLabel(state session.State) string {
	switch state {
	case session.StateSucceeded:
		return successColor.Sprintf("%-8s", "success")
	case session.StateFailed:
		return failedColor.Sprintf("%-8s", "failed")
	default:
		return runningColor.Sprintf("%-8s", "running")
	}
}

func duration(s session.Session) string {
	if s.CreatedAt.IsZero() {
		return ""
	}
	end := s.EndedAt
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(s.CreatedAt).Round(time.Second).String()
}

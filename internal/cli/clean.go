// clean.go implements "pop clean": prune old session directories.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pop-sh/pop/internal/cleanup"
	"github.com/pop-sh/pop/internal/config"
	"github.com/pop-sh/pop/internal/session"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove old session directories",
	Long: `Remove finished session directories by age or count. Sessions with a
live worker are never touched.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

var (
	cleanDaysFlag   int
	cleanKeepFlag   int
	cleanDryRunFlag bool
)

func init() {
	cleanCmd.Flags().IntVar(&cleanDaysFlag, "days", 0, "Remove sessions older than this many days")
	cleanCmd.Flags().IntVar(&cleanKeepFlag, "keep", 0, "Keep only this many most recent sessions")
	cleanCmd.Flags().BoolVar(&cleanDryRunFlag, "dry-run", false, "Show what would be removed without removing it")

	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	if cleanDaysFlag > 0 && cleanKeepFlag > 0 {
		return fmt.Errorf("--days and --keep are mutually exclusive")
	}

	dir, err := config.PopDir()
	if err != nil {
		return err
	}
	cfg, err := config.LoadOrDefault(dir)
	if err != nil {
		return err
	}

	days := cleanDaysFlag
	if days == 0 && cleanKeepFlag == 0 {
		days = cfg.Cleanup.MaxAgeDays
		if days == 0 {
			return fmt.Errorf("nothing to do: pass --days or --keep, or set cleanup.max_age_days")
		}
	}

	m, err := session.NewManager(dir)
	if err != nil {
		return err
	}
	defer m.Close()

	active, err := m.ActiveIDs()
	if err != nil {
		return err
	}

	var pruned []string
	if cleanKeepFlag > 0 {
		pruned, err = cleanup.PruneKeepRecent(m.SessionsDir(), cleanKeepFlag, active, cleanDryRunFlag)
	} else {
		pruned, err = cleanup.PruneByAge(m.SessionsDir(), days, active, cleanDryRunFlag)
	}
	if err != nil {
		return err
	}

	if len(pruned) == 0 {
		fmt.Println("nothing to remove")
		return nil
	}
	verb := "removed"
	if cleanDryRunFlag {
		verb = "would remove"
	}
	for _, name := range pruned {
		fmt.Printf("%s %s\n", verb, name)
	}
	return nil
}

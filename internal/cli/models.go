// models.go implements "pop models": list what the backend has installed.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pop-sh/pop/internal/backend"
	"github.com/pop-sh/pop/internal/config"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available on the backend",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

func runModels(cmd *cobra.Command, args []string) error {
	dir, err := config.PopDir()
	if err != nil {
		return err
	}
	cfg, err := config.LoadOrDefault(dir)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	be := backend.New(cfg.Backend.Endpoint, 30*time.Second)
	models, err := be.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("listing models: %w", err)
	}

	if len(models) == 0 {
		fmt.Println("no models installed")
		return nil
	}

	for _, mdl := range models {
		marker := " "
		if mdl.Name == cfg.Model {
			marker = "*"
		}
		fmt.Printf("%s %-30s %8s  %s\n", marker, mdl.Name, humanSize(mdl.Size), mdl.ModifiedAt.Format("2006-01-02"))
	}
	return nil
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

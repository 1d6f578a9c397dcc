package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MarcoRipari/SalesGenius/cmd/salesgenius/ui"
)

var sourcesTenant string

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the knowledge sources of a tenant",
	RunE:  runSources,
}

func init() {
	sourcesCmd.Flags().StringVar(&sourcesTenant, "tenant", "", "Tenant ID or account email (required)")
	sourcesCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	tenantID, err := resolveTenant(ctx, app.repos, sourcesTenant)
	if err != nil {
		return err
	}

	sources, err := app.knowledge.List(ctx, tenantID, 100)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	if len(sources) == 0 {
		ui.Info("No knowledge sources")
		return nil
	}

	ui.Section("Knowledge Sources")
	for _, src := range sources {
		location := ""
		if src.URL != nil {
			location = " " + *src.URL
		}
		ui.Info("%s  [%s/%s]%s", ui.Accent(src.ID.String()), src.Type, src.Status, location)
		ui.Info("  %s, %d products, added %s", src.Name, src.ProductsCount, src.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MarcoRipari/SalesGenius/cmd/salesgenius/ui"
)

var (
	searchTenant string
	searchLimit  int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the product catalog",
	Long: `Run a catalog search the way the chat assistant does: attribute
matching on type, color and gender first, then free text.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchTenant, "tenant", "", "Tenant ID or account email (required)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum results")
	searchCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	tenantID, err := resolveTenant(ctx, app.repos, searchTenant)
	if err != nil {
		return err
	}

	products, err := app.resolver.Search(ctx, tenantID, args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search catalog: %w", err)
	}

	if len(products) == 0 {
		ui.Info("No products match %q", args[0])
		return nil
	}

	ui.Section(fmt.Sprintf("Results for %q", args[0]))
	for _, p := range products {
		availability := "disponibile"
		if !p.InStock {
			availability = "esaurito"
		}
		ui.Info("%s  %s  %s", ui.Accent(p.Name), formatPrice(p), availability)
		if p.ProductURL != nil {
			ui.Info("  %s", *p.ProductURL)
		}
	}
	return nil
}

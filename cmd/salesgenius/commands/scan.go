package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MarcoRipari/SalesGenius/cmd/salesgenius/ui"
	"github.com/MarcoRipari/SalesGenius/internal/storage"
)

var (
	scanTenant string
	scanName   string
)

var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Scan a storefront URL into the knowledge base",
	Long: `Fetch a storefront page, store its content as a knowledge source and
extract catalog products from it.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanTenant, "tenant", "", "Tenant ID or account email (required)")
	scanCmd.Flags().StringVar(&scanName, "name", "", "Source name (defaults to the URL)")
	scanCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	tenantID, err := resolveTenant(ctx, app.repos, scanTenant)
	if err != nil {
		return err
	}

	sp := ui.NewSpinner(fmt.Sprintf("Scanning %s", args[0]))
	sp.Start()
	source, err := app.knowledge.AddURLSource(ctx, tenantID, args[0], scanName)
	sp.Stop()
	if err != nil {
		return fmt.Errorf("scan source: %w", err)
	}

	if source.Status == storage.SourceStatusError {
		ui.Warning("Source stored but the page could not be fetched")
	} else {
		ui.Success("Source %s scanned", source.Name)
	}
	ui.Info("Source ID: %s", source.ID)
	ui.Info("Products:  %d", source.ProductsCount)
	return nil
}

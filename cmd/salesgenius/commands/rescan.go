package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MarcoRipari/SalesGenius/cmd/salesgenius/ui"
	"github.com/MarcoRipari/SalesGenius/internal/storage"
)

var (
	rescanTenant string
	rescanAll    bool
)

var rescanCmd = &cobra.Command{
	Use:   "rescan [sourceID]",
	Short: "Re-extract products from URL sources",
	Long: `Re-fetch a URL source and replace its extracted products. With --all,
every URL source of the tenant is rescanned in turn.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRescan,
}

func init() {
	rescanCmd.Flags().StringVar(&rescanTenant, "tenant", "", "Tenant ID or account email (required)")
	rescanCmd.Flags().BoolVar(&rescanAll, "all", false, "Rescan every URL source of the tenant")
	rescanCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(rescanCmd)
}

func runRescan(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	tenantID, err := resolveTenant(ctx, app.repos, rescanTenant)
	if err != nil {
		return err
	}

	if rescanAll {
		return rescanAllSources(ctx, app, tenantID)
	}

	if len(args) == 0 {
		return fmt.Errorf("pass a source ID or --all")
	}
	sourceID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid source ID: %w", err)
	}

	sp := ui.NewSpinner("Rescanning source")
	sp.Start()
	count, err := app.knowledge.Rescan(ctx, tenantID, sourceID)
	sp.Stop()
	if err != nil {
		return fmt.Errorf("rescan source: %w", err)
	}

	ui.Success("Rescan complete, %d products extracted", count)
	return nil
}

func rescanAllSources(ctx context.Context, app *appContext, tenantID uuid.UUID) error {
	sources, err := app.knowledge.List(ctx, tenantID, 100)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	var urlSources []*storage.KnowledgeSource
	for _, src := range sources {
		if src.Type == storage.SourceTypeURL {
			urlSources = append(urlSources, src)
		}
	}
	if len(urlSources) == 0 {
		ui.Info("No URL sources to rescan")
		return nil
	}

	bar := ui.NewProgressBar(int64(len(urlSources)), "Rescanning sources")
	total := 0
	failed := 0
	for _, src := range urlSources {
		count, err := app.knowledge.Rescan(ctx, tenantID, src.ID)
		if err != nil {
			// A failing source should not abort the batch.
			failed++
		} else {
			total += count
		}
		bar.Add(1)
	}
	bar.Finish()

	if failed > 0 {
		ui.Warning("%d sources failed to rescan", failed)
	}
	ui.Success("Rescanned %d sources, %d products extracted", len(urlSources)-failed, total)
	return nil
}

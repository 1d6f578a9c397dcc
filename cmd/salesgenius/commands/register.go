package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MarcoRipari/SalesGenius/cmd/salesgenius/ui"
	"github.com/MarcoRipari/SalesGenius/internal/auth"
	"github.com/MarcoRipari/SalesGenius/internal/observability"
)

var (
	registerEmail    string
	registerPassword string
	registerCompany  string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a merchant account",
	Long:  "Create a merchant account and print its widget key.",
	RunE:  runRegister,
}

func init() {
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Account email (required)")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "Account password (required)")
	registerCmd.Flags().StringVar(&registerCompany, "company", "", "Company name")
	registerCmd.MarkFlagRequired("email")
	registerCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(registerCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	logger := observability.NewLogger(observability.LogConfig{
		Level:       "warn",
		Format:      "console",
		ServiceName: "salesgenius-cli",
	})
	authSvc := auth.NewService(app.repos, app.cfg.Auth, logger)

	user, _, err := authSvc.Register(ctx, registerEmail, registerPassword, registerCompany)
	if err != nil {
		return fmt.Errorf("register account: %w", err)
	}

	ui.Success("Account created")
	ui.Info("Tenant ID:  %s", user.ID)
	ui.Info("Email:      %s", user.Email)
	ui.Info("Widget key: %s", ui.Accent(user.WidgetKey))
	return nil
}

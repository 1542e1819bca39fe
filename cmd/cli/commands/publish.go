package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carogaltier/medscheduler/pkg/clients/sheetsclient"
	"github.com/carogaltier/medscheduler/pkg/core/services"
)

// PublishCmd creates the publish command. The OAuth flow only runs here, so the other
// commands work without Google credentials.
func PublishCmd(app *AppContext) *cobra.Command {
	var spreadsheetID string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Generate a dataset and publish its tables to Google Sheets",
		Args:  cobra.NoArgs,
	}
	seed := seedFlag(cmd)
	cmd.Flags().StringVar(&spreadsheetID, "spreadsheet", "", "Destination spreadsheet id (defaults to publish.spreadsheetID)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if spreadsheetID == "" {
			spreadsheetID = app.Cfg.Publish.SpreadsheetID
		}
		if spreadsheetID == "" {
			return services.ErrNoSpreadsheet
		}

		cfg, err := app.configWithSeed(seed())
		if err != nil {
			return err
		}

		result, err := services.GenerateDataset(app.Ctx, cfg, nil, app.Logger)
		if err != nil {
			return err
		}

		app.Logger.Info("Loading OAuth client configuration")
		oauthCfg, err := cfg.LoadOAuthClient(app.Env)
		if err != nil {
			return fmt.Errorf("failed to load OAuth client config: %w", err)
		}

		app.Logger.Info("Initializing sheets client")
		client, err := sheetsclient.NewClient(app.Ctx, oauthCfg, app.Env, app.Logger)
		if err != nil {
			return fmt.Errorf("failed to create sheets client: %w", err)
		}

		if err := services.PublishDataset(app.Ctx, client, spreadsheetID, result.Dataset, app.Logger); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "\n✓ Dataset %s published to spreadsheet %s\n", result.Dataset.ID, spreadsheetID)
		app.Logger.Debug("Publish finished", zap.Int("appointments", len(result.Dataset.Appointments)))
		printWarnings(out, result.Warnings)
		fmt.Fprintln(out)
		return nil
	}

	return cmd
}

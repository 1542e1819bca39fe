package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carogaltier/medscheduler/pkg/core/services"
)

// GenerateCmd creates the generate command
func GenerateCmd(app *AppContext) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a dataset and write slots, appointments and patients as CSV",
		Args:  cobra.NoArgs,
	}
	seed := seedFlag(cmd)
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory for the CSV files")
	_ = cmd.MarkFlagRequired("out")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := app.configWithSeed(seed())
		if err != nil {
			return err
		}

		result, err := services.GenerateDataset(app.Ctx, cfg, nil, app.Logger)
		if err != nil {
			return err
		}

		paths, err := services.ExportDataset(result.Dataset, outDir, app.Logger)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "\n✓ Dataset %s generated (seed %d)\n\n", result.Dataset.ID, result.Dataset.Seed)
		for _, p := range paths {
			fmt.Fprintf(out, "  %s\n", p)
		}
		printWarnings(out, result.Warnings)
		fmt.Fprintln(out)
		return nil
	}

	return cmd
}

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/carogaltier/medscheduler/pkg/core/generator"
	"github.com/carogaltier/medscheduler/pkg/core/model"
	"github.com/carogaltier/medscheduler/pkg/core/services"
)

var weekdayOrder = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// SummarizeCmd creates the summarize command
func SummarizeCmd(app *AppContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Generate a dataset and print its slot and appointment summaries",
		Args:  cobra.NoArgs,
	}
	seed := seedFlag(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := app.configWithSeed(seed())
		if err != nil {
			return err
		}

		result, err := services.GenerateDataset(app.Ctx, cfg, nil, app.Logger)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				ID       string            `json:"id"`
				Seed     uint64            `json:"seed"`
				Summary  generator.Summary `json:"summary"`
				Warnings []string          `json:"warnings,omitempty"`
			}{result.Dataset.ID, result.Dataset.Seed, result.Summary, result.Warnings})
		}

		fmt.Fprintf(out, "\nDataset %s (seed %d)\n", result.Dataset.ID, result.Dataset.Seed)
		printSummary(out, result.Summary)
		printWarnings(out, result.Warnings)
		fmt.Fprintln(out)
		return nil
	}

	return cmd
}

func printSummary(out io.Writer, s generator.Summary) {
	slots := s.Slots
	fmt.Fprintf(out, "\nSlots:\n")
	fmt.Fprintf(out, "  Range:         %s to %s (reference %s)\n", slots.FirstDate, slots.LastDate, slots.ReferenceDate)
	fmt.Fprintf(out, "  Total:         %d (%d past, %d future)\n", slots.TotalSlots, slots.PastSlots, slots.FutureSlots)
	fmt.Fprintf(out, "  Availability:  %.1f%%\n", slots.AvailabilityRate*100)
	for _, day := range weekdayOrder {
		if n, ok := slots.SlotsByWeekday[day]; ok {
			fmt.Fprintf(out, "    %-10s %d\n", day, n)
		}
	}

	appts := s.Appointments
	fmt.Fprintf(out, "\nAppointments:\n")
	fmt.Fprintf(out, "  Total:             %d\n", appts.TotalAppointments)
	fmt.Fprintf(out, "  Past fill rate:    %.3f\n", appts.PastFillRate)
	fmt.Fprintf(out, "  Median lead time:  %.1f days\n", appts.MedianLeadTime)
	fmt.Fprintf(out, "  First attendance:  %.3f\n", appts.FirstAttendanceRatio)
	fmt.Fprintf(out, "  Rebooked:          %d (max iteration %d)\n", appts.Rebooked, appts.MaxRebookIteration)
	fmt.Fprintf(out, "  Patients:          %d\n", appts.Patients)

	statuses := make([]string, 0, len(appts.StatusCounts))
	for status := range appts.StatusCounts {
		statuses = append(statuses, string(status))
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		fmt.Fprintf(out, "    %-16s %d\n", status, appts.StatusCounts[model.Status(status)])
	}
}

func printWarnings(out io.Writer, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(out, "\n⚠️  %d warning(s):\n", len(warnings))
	for _, w := range warnings {
		fmt.Fprintf(out, "  - %s\n", w)
	}
}

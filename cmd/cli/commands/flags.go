package commands

import (
	"github.com/spf13/cobra"
)

// seedFlag registers --seed and returns a getter that is nil unless the flag was set
func seedFlag(cmd *cobra.Command) func() *uint64 {
	var seed uint64
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for the random streams (overrides the config)")
	return func() *uint64 {
		if !cmd.Flags().Changed("seed") {
			return nil
		}
		return &seed
	}
}

package manage

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moneyflow/ledger-engine/api"
	"github.com/moneyflow/ledger-engine/cmd/root"
)

// DemoCmd lists or loads demo data sets
var DemoCmd = &cobra.Command{
	Use:   "demo [scenario]",
	Short: "List demo scenarios, or replace the ledger with one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if len(args) == 0 {
			for _, s := range api.Scenarios {
				fmt.Fprintf(w, "%-16s %s\n", s.ID, s.Description)
			}
			return nil
		}
		if err := api.LoadScenario(cmd.Context(), root.Processor(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(w, "Loaded scenario %s (%d transactions)\n", args[0], len(root.Processor().Snapshot().Transactions))
		return nil
	},
}

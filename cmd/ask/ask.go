// Package ask handles the AI assistant command
package ask

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moneyflow/ledger-engine/cmd/root"
)

var (
	language string
	confirm  bool
)

// Cmd represents the ask command
var Cmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the AI assistant about your finances",
	Long: `Ask the AI assistant about your finances. When the assistant proposes a
change it is shown and only recorded with --yes.`,
	Args: cobra.MinimumNArgs(1),
	RunE: askFunc,
}

func init() {
	Cmd.Flags().StringVarP(&language, "lang", "l", "", "Answer language (en or bn)")
	Cmd.Flags().BoolVarP(&confirm, "yes", "y", false, "Apply a proposed change")
}

func askFunc(cmd *cobra.Command, args []string) error {
	coach := root.Container().Coach()
	if coach == nil {
		return errors.New("AI assistant is disabled: set ai.enabled and GEMINI_API_KEY")
	}
	answer, err := coach.Ask(cmd.Context(), strings.Join(args, " "), language)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, answer.Text)

	prop := answer.Proposal
	if prop == nil {
		return nil
	}
	fmt.Fprintf(w, "\nProposed: %s %s\n", prop.Action.Command, string(prop.Action.Params))
	if !confirm {
		_ = coach.Discard(prop.ID)
		fmt.Fprintln(w, "Not applied. Run again with --yes to apply.")
		return nil
	}
	res, err := coach.Confirm(cmd.Context(), prop.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Applied %s as #%d\n", res.Command, res.TransactionID)
	return nil
}

// Package loan handles the outstanding-loan commands
package loan

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/moneyflow/ledger-engine/cmd/root"
	"github.com/moneyflow/ledger-engine/ledger"
	"github.com/moneyflow/ledger-engine/query"
)

var (
	settleKind    string
	settlePerson  string
	settleAccount string
	settleAmount  string
	settleComment string
	settleDate    string
)

// Cmd groups the loan commands
var Cmd = &cobra.Command{
	Use:   "loan",
	Short: "Show and settle money lent and borrowed",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show who owes whom",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		book := query.Loans(root.Processor().Snapshot())
		w, m := cmd.OutOrStdout(), root.Money()
		writeSide(w, "Owed to you:", book.OwedToUser, book.TotalOwedToUser, m)
		writeSide(w, "You owe:", book.OwedByUser, book.TotalOwedByUser, m)
		return nil
	},
}

var settleCmd = &cobra.Command{
	Use:   "settle",
	Short: "Record a repayment",
	Long: `Record a repayment. With --kind in-loan the person pays you back into
--account; with --kind liability you pay them from --account.`,
	Args: cobra.NoArgs,
	RunE: settleFunc,
}

func init() {
	settleCmd.Flags().StringVarP(&settleKind, "kind", "k", string(ledger.LoanInLoan), "in-loan or liability")
	settleCmd.Flags().StringVarP(&settlePerson, "person", "p", "", "Who is repaying or being repaid")
	settleCmd.Flags().StringVar(&settleAccount, "account", ledger.DefaultAccount, "Account receiving or paying")
	settleCmd.Flags().StringVarP(&settleAmount, "amount", "a", "", "Amount repaid")
	settleCmd.Flags().StringVarP(&settleComment, "comment", "m", "", "Note")
	settleCmd.Flags().StringVarP(&settleDate, "date", "d", "", "Day (YYYY-MM-DD, default today)")
	_ = settleCmd.MarkFlagRequired("person")
	_ = settleCmd.MarkFlagRequired("amount")

	Cmd.AddCommand(listCmd, settleCmd)
}

func settleFunc(cmd *cobra.Command, args []string) error {
	amount, err := ledger.ParseAmount(settleAmount)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	p := root.Processor()
	id, err := p.Settle(cmd.Context(), ledger.SettleCommand{
		Kind:    ledger.LoanKind(settleKind),
		Person:  settlePerson,
		Account: settleAccount,
		Amount:  amount,
		Comment: settleComment,
		Date:    settleDate,
	})
	if err != nil {
		return err
	}
	s := p.Snapshot()
	remaining := s.OwedToUser[settlePerson]
	if ledger.LoanKind(settleKind) == ledger.LoanLiability {
		remaining = s.OwedByUser[settlePerson]
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded #%d, %s outstanding with %s\n",
		id, root.Money().Format(remaining), settlePerson)
	return nil
}

func writeSide(w io.Writer, heading string, list []query.LoanEntry, sum ledger.Amount, m query.Money) {
	fmt.Fprintln(w, heading)
	if len(list) == 0 {
		fmt.Fprintln(w, "  None")
		return
	}
	for _, e := range list {
		fmt.Fprintf(w, "  %s: %s\n", e.Person, m.Format(e.Amount))
	}
	fmt.Fprintf(w, "  Total: %s\n", m.Format(sum))
}

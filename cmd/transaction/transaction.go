// Package transaction handles the commands that record, change and list
// ledger transactions.
package transaction

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/moneyflow/ledger-engine/cmd/root"
	"github.com/moneyflow/ledger-engine/ledger"
	"github.com/moneyflow/ledger-engine/query"
)

// fields holds the flags shared by add and edit.
type fields struct {
	kind     string
	amount   string
	fee      string
	account  string
	to       string
	person   string
	category string
	comment  string
	date     string
}

var (
	addFields  fields
	editFields fields

	listKind     string
	listCategory string
	listSearch   string
	listSort     string
	listLimit    int
)

// Cmd groups the transaction commands
var Cmd = &cobra.Command{
	Use:     "tx",
	Aliases: []string{"transaction"},
	Short:   "Record, edit, delete and list transactions",
}

var addCmd = &cobra.Command{
	Use:   "add <kind>",
	Short: "Record a transaction",
	Long: `Record a transaction. Kind is one of deposit, expense, give-loan,
get-loan or transfer. Transfers move --amount from --account to --to and
charge --fee on top.`,
	Args: cobra.ExactArgs(1),
	RunE: addFunc,
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a recorded transaction",
	Long:  `Change a recorded transaction. Flags that are not given keep their current value.`,
	Args:  cobra.ExactArgs(1),
	RunE:  editFunc,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a transaction and reverse its effect",
	Args:  cobra.ExactArgs(1),
	RunE:  deleteFunc,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List transactions",
	Args:  cobra.NoArgs,
	RunE:  listFunc,
}

func init() {
	addFieldFlags(addCmd, &addFields)
	_ = addCmd.MarkFlagRequired("amount")
	addFieldFlags(editCmd, &editFields)
	editCmd.Flags().StringVarP(&editFields.kind, "kind", "k", "", "New kind")

	listCmd.Flags().StringVarP(&listKind, "kind", "k", "", "Only this kind")
	listCmd.Flags().StringVar(&listCategory, "category", "", "Only expenses in this category")
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Match id, title, kind or account")
	listCmd.Flags().StringVar(&listSort, "sort", string(query.SortNewest), "Order: newest, oldest, highest, lowest")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Show at most this many (0 for all)")

	Cmd.AddCommand(addCmd, editCmd, deleteCmd, listCmd)
}

func addFieldFlags(cmd *cobra.Command, f *fields) {
	cmd.Flags().StringVarP(&f.amount, "amount", "a", "", "Amount (for transfers, the amount received)")
	cmd.Flags().StringVar(&f.fee, "fee", "", "Transfer fee")
	cmd.Flags().StringVar(&f.account, "account", "", "Account (default Cash; for transfers, the source)")
	cmd.Flags().StringVar(&f.to, "to", "", "Destination account of a transfer")
	cmd.Flags().StringVarP(&f.person, "person", "p", "", "Counterparty")
	cmd.Flags().StringVar(&f.category, "category", "", "Expense category")
	cmd.Flags().StringVarP(&f.comment, "comment", "m", "", "Note")
	cmd.Flags().StringVarP(&f.date, "date", "d", "", "Day (YYYY-MM-DD, default today)")
}

// apply overlays the flags the user set onto cmd.
func (f fields) apply(c *cobra.Command, cmd ledger.Command) (ledger.Command, error) {
	set := c.Flags().Changed
	if set("kind") {
		cmd.Kind = ledger.Kind(f.kind)
	}
	if set("amount") {
		a, err := ledger.ParseAmount(f.amount)
		if err != nil {
			return cmd, fmt.Errorf("amount: %w", err)
		}
		cmd.Amount = a
	}
	if set("fee") {
		a, err := ledger.ParseAmount(f.fee)
		if err != nil {
			return cmd, fmt.Errorf("fee: %w", err)
		}
		cmd.Fee = a
	}
	if set("account") {
		cmd.Account = f.account
	}
	if set("to") {
		cmd.ToAccount = f.to
	}
	if set("person") {
		cmd.Person = f.person
	}
	if set("category") {
		cmd.Category = f.category
	}
	if set("comment") {
		cmd.Comment = f.comment
	}
	if set("date") {
		cmd.Date = f.date
	}
	return cmd, nil
}

func addFunc(cmd *cobra.Command, args []string) error {
	c, err := addFields.apply(cmd, ledger.Command{Kind: ledger.Kind(args[0])})
	if err != nil {
		return err
	}
	if c.Account == "" {
		c.Account = ledger.DefaultAccount
	}
	p := root.Processor()
	id, err := p.CreateTransaction(cmd.Context(), c)
	if err != nil {
		return err
	}
	tx, _ := p.Snapshot().Transaction(id)
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded #%d %s %s\n", id, tx.Label(), root.Money().Format(tx.Amount))
	return nil
}

func editFunc(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	p := root.Processor()
	tx, ok := p.Snapshot().Transaction(id)
	if !ok {
		return &ledger.NotFoundError{What: "transaction", Key: args[0]}
	}
	c, err := editFields.apply(cmd, ledger.CommandOf(tx))
	if err != nil {
		return err
	}
	if err := p.EditTransaction(cmd.Context(), id, c); err != nil {
		return err
	}
	tx, _ = p.Snapshot().Transaction(id)
	fmt.Fprintf(cmd.OutOrStdout(), "Updated #%d %s %s\n", id, tx.Label(), root.Money().Format(tx.Amount))
	return nil
}

func deleteFunc(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := root.Processor().DeleteTransaction(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted #%d\n", id)
	return nil
}

func listFunc(cmd *cobra.Command, args []string) error {
	txs, err := query.History(root.Processor().Snapshot(), query.HistoryQuery{
		Kind:     ledger.Kind(listKind),
		Category: listCategory,
		Search:   listSearch,
		Sort:     query.SortOrder(listSort),
		Limit:    listLimit,
	})
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No transactions.")
		return nil
	}
	return writeTable(cmd.OutOrStdout(), txs, root.Money())
}

func writeTable(w io.Writer, txs []ledger.Transaction, m query.Money) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tTITLE\tACCOUNT\tAMOUNT")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.Timestamp.Format("2006-01-02"), tx.Kind, tx.Label(), tx.Account, m.Format(tx.Amount))
	}
	return tw.Flush()
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ledger.ValidationError{Field: "id", Reason: fmt.Sprintf("%q is not a transaction id", s)}
	}
	return id, nil
}

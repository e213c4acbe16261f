// Package report handles the read-only commands: summary, chart, receipts
// and exports.
package report

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/moneyflow/ledger-engine/cmd/root"
	"github.com/moneyflow/ledger-engine/ledger"
	"github.com/moneyflow/ledger-engine/query"
	"github.com/moneyflow/ledger-engine/report"
)

const (
	formatCSV  = "csv"
	formatXLSX = "xlsx"
)

var (
	chartWindow string
	chartGroup  string
	chartDate   string

	receiptLoan   string
	receiptPerson string

	exportFormat string
	exportOutput string
	exportKind   string
)

// SummaryCmd prints balances, loans and goal progress
var SummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show balances, loans and goal progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		writeSummary(cmd.OutOrStdout(), query.Summarize(root.Processor().Snapshot()), root.Money())
		return nil
	},
}

// ChartCmd prints the expense breakdown
var ChartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Show where the money went",
	Args:  cobra.NoArgs,
	RunE:  chartFunc,
}

// ReceiptCmd prints a transaction receipt or loan statement
var ReceiptCmd = &cobra.Command{
	Use:   "receipt [id]",
	Short: "Print a transaction receipt or loan statement",
	Long: `Print the receipt for transaction <id>, or with --loan and --person the
statement of what is outstanding with that person.`,
	Args: cobra.MaximumNArgs(1),
	RunE: receiptFunc,
}

// ExportCmd writes the transaction history as CSV or XLSX
var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export transactions as CSV or XLSX",
	Args:  cobra.NoArgs,
	RunE:  exportFunc,
}

func init() {
	ChartCmd.Flags().StringVarP(&chartWindow, "window", "w", string(query.WindowAll), "all, today, week, month or date")
	ChartCmd.Flags().StringVarP(&chartGroup, "group", "g", string(query.GroupByCategory), "category or day")
	ChartCmd.Flags().StringVarP(&chartDate, "date", "d", "", "Day for --window date (YYYY-MM-DD)")

	ReceiptCmd.Flags().StringVar(&receiptLoan, "loan", "", "Loan statement kind: in-loan or liability")
	ReceiptCmd.Flags().StringVarP(&receiptPerson, "person", "p", "", "Person for a loan statement")

	ExportCmd.Flags().StringVarP(&exportFormat, "format", "f", formatCSV, "csv or xlsx")
	ExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout for csv)")
	ExportCmd.Flags().StringVarP(&exportKind, "kind", "k", "", "Only this kind")
}

func writeSummary(w io.Writer, s query.Summary, m query.Money) {
	fmt.Fprintln(w, "Accounts:")
	for _, a := range s.Accounts {
		fmt.Fprintf(w, "  %s: %s\n", a.Name, m.Format(a.Balance))
	}
	fmt.Fprintf(w, "Total balance: %s\n", m.Format(s.TotalBalance))
	fmt.Fprintf(w, "Owed to you: %s\n", m.Format(s.TotalReceivable))
	fmt.Fprintf(w, "You owe: %s\n", m.Format(s.TotalPayable))
	fmt.Fprintf(w, "Net position: %s\n", m.Format(s.NetPosition))
	if s.Goal.Name != "" {
		fmt.Fprintf(w, "Goal %s: %s of %s (%d%%)\n",
			s.Goal.Name, m.Format(s.Goal.Saved), m.Format(s.Goal.Target), s.Goal.Percent)
	}
	fmt.Fprintf(w, "Transactions: %d\n", s.TransactionCount)
}

func chartFunc(cmd *cobra.Command, args []string) error {
	p := root.Processor()
	b, err := query.ExpenseBreakdown(p.Snapshot(), query.ChartQuery{
		Window:  query.Window(chartWindow),
		GroupBy: query.GroupBy(chartGroup),
		Date:    chartDate,
	}, p.Now())
	if err != nil {
		return err
	}
	w, m := cmd.OutOrStdout(), root.Money()
	if len(b.Points) == 0 {
		fmt.Fprintln(w, "No expenses.")
		return nil
	}
	for _, pt := range b.Points {
		fmt.Fprintf(w, "%s: %s\n", pt.Label, m.Format(pt.Amount))
	}
	fmt.Fprintf(w, "Total: %s\n", m.Format(b.Total))
	return nil
}

func receiptFunc(cmd *cobra.Command, args []string) error {
	p := root.Processor()
	var (
		r   query.Receipt
		err error
	)
	switch {
	case receiptLoan != "":
		r, err = query.LoanReceipt(p.Snapshot(), ledger.LoanKind(receiptLoan), receiptPerson, p.Now())
	case len(args) == 1:
		id, convErr := strconv.Atoi(args[0])
		if convErr != nil {
			return &ledger.ValidationError{Field: "id", Reason: fmt.Sprintf("%q is not a transaction id", args[0])}
		}
		r, err = query.TransactionReceipt(p.Snapshot(), id, p.Now())
	default:
		return fmt.Errorf("give a transaction id or --loan with --person")
	}
	if err != nil {
		return err
	}
	return report.RenderReceipt(cmd.OutOrStdout(), r, root.Money())
}

func exportFunc(cmd *cobra.Command, args []string) error {
	s := root.Processor().Snapshot()
	txs, err := query.History(s, query.HistoryQuery{Kind: ledger.Kind(exportKind), Sort: query.SortOldest})
	if err != nil {
		return err
	}

	switch exportFormat {
	case formatCSV:
		if exportOutput == "" {
			return report.WriteHistoryCSV(cmd.OutOrStdout(), txs)
		}
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOutput, err)
		}
		if err := report.WriteHistoryCSV(f, txs); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	case formatXLSX:
		if exportOutput == "" {
			return fmt.Errorf("--output is required for xlsx")
		}
		data, err := report.HistoryXLSX(s, txs)
		if err != nil {
			return err
		}
		if err := os.WriteFile(exportOutput, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", exportOutput, err)
		}
	default:
		return fmt.Errorf("unknown format %q (want csv or xlsx)", exportFormat)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d transactions to %s\n", len(txs), exportOutput)
	return nil
}

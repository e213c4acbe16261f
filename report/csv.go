package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/moneyflow/ledger-engine/ledger"
)

// HistoryRow is one exported transaction.
type HistoryRow struct {
	ID       int    `csv:"id"`
	Date     string `csv:"date"`
	Type     string `csv:"type"`
	SubKind  string `csv:"sub_kind"`
	Title    string `csv:"title"`
	Account  string `csv:"account"`
	To       string `csv:"to_account"`
	Person   string `csv:"person"`
	Category string `csv:"category"`
	Amount   string `csv:"amount"`
	Fee      string `csv:"fee"`
	Comment  string `csv:"comment"`
}

func historyRows(txs []ledger.Transaction) []*HistoryRow {
	rows := make([]*HistoryRow, 0, len(txs))
	for _, tx := range txs {
		row := &HistoryRow{
			ID:       tx.ID,
			Date:     tx.Timestamp.Format("2006-01-02 15:04:05"),
			Type:     string(tx.Kind),
			SubKind:  string(tx.SubKind),
			Title:    tx.Label(),
			Account:  tx.Account,
			To:       tx.ToAccount,
			Person:   tx.Counterparty,
			Category: tx.Category,
			Amount:   tx.Amount.String(),
			Comment:  tx.Comment,
		}
		if fee := tx.Fee(); fee.IsPositive() {
			row.Fee = fee.String()
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteHistoryCSV writes txs, in the given order, as CSV with a header row.
func WriteHistoryCSV(w io.Writer, txs []ledger.Transaction) error {
	if err := gocsv.MarshalCSV(historyRows(txs), gocsv.NewSafeCSVWriter(csv.NewWriter(w))); err != nil {
		return fmt.Errorf("write history csv: %w", err)
	}
	return nil
}

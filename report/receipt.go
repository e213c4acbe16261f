/*
Package report renders query views for people and spreadsheets.

PURPOSE:
  The query package decides WHAT is shown; this package decides how it
  looks on paper: fixed-width text receipts, CSV history exports and an
  XLSX workbook with history and balances.

SEE ALSO:
  - query/receipt.go: Receipt views
  - query/history.go: History filtering used by exports
*/
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/moneyflow/ledger-engine/query"
)

// ReceiptWidth is the character width of rendered receipts.
const ReceiptWidth = 40

// RenderReceipt writes r as a fixed-width plain-text receipt.
func RenderReceipt(w io.Writer, r query.Receipt, m query.Money) error {
	var b strings.Builder
	rule := strings.Repeat("=", ReceiptWidth)
	thin := strings.Repeat("-", ReceiptWidth)

	b.WriteString(rule + "\n")
	b.WriteString(center("MoneyFlow") + "\n")
	b.WriteString(center(r.Title) + "\n")
	b.WriteString(rule + "\n")
	for _, l := range r.Lines {
		b.WriteString(pair(l.Label+":", l.Value) + "\n")
	}
	b.WriteString(thin + "\n")
	if r.Description != "" {
		b.WriteString(r.Description + "\n")
	}
	b.WriteString(pair("Amount:", m.Format(r.Amount)) + "\n")
	b.WriteString(rule + "\n")
	b.WriteString(center(r.Footer) + "\n")
	if !r.GeneratedAt.IsZero() {
		b.WriteString(center("Generated on "+r.GeneratedAt.Format("2006-01-02 15:04")) + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func center(s string) string {
	if len(s) >= ReceiptWidth {
		return s
	}
	return strings.Repeat(" ", (ReceiptWidth-len(s))/2) + s
}

// pair left-aligns label and right-aligns value on one line.
func pair(label, value string) string {
	gap := ReceiptWidth - len(label) - len(value)
	if gap < 1 {
		gap = 1
	}
	return fmt.Sprintf("%s%s%s", label, strings.Repeat(" ", gap), value)
}

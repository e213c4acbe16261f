package query

import (
	"fmt"
	"strings"

	"github.com/moneyflow/ledger-engine/ledger"
)

// RecentForContext is how many transactions the assistant sees.
const RecentForContext = 10

// AssistantContext renders the plain-text financial snapshot given to the
// assistant: balances, goal, the latest transactions (most recent first)
// and outstanding loans with totals.
func AssistantContext(s *ledger.State, m Money) string {
	var b strings.Builder

	b.WriteString("Current Balances:\n")
	for _, name := range s.AccountNames() {
		fmt.Fprintf(&b, "- %s: %s\n", name, m.Format(s.Accounts[name]))
	}

	b.WriteString("\nActive Goal:\n")
	if g := s.Goal; g.Name != "" {
		fmt.Fprintf(&b, "Target: %s, Amount: %s, Saved: %s (in %s)\n",
			g.Name, m.Format(g.Target), m.Format(s.Accounts[g.LinkedAccount]), g.LinkedAccount)
	} else {
		b.WriteString("No specific goal set yet.\n")
	}

	b.WriteString("\nRecent Transactions:\n")
	txs := s.Transactions
	if len(txs) == 0 {
		b.WriteString("No recent transactions.\n")
	}
	for i := len(txs) - 1; i >= 0 && i >= len(txs)-RecentForContext; i-- {
		tx := txs[i]
		fmt.Fprintf(&b, "- %s [%s] %s: %s (%s)", tx.Timestamp.Format("2006-01-02"), tx.Kind, tx.Label(), m.Format(tx.Amount), tx.Account)
		if tx.Comment != "" {
			fmt.Fprintf(&b, " Note: %s", tx.Comment)
		}
		b.WriteString("\n")
	}

	book := Loans(s)
	b.WriteString("\nLoans:\n")
	writeLoans(&b, "Money others owe to user:", book.OwedToUser, book.TotalOwedToUser, m)
	writeLoans(&b, "Money user owes to others:", book.OwedByUser, book.TotalOwedByUser, m)
	return b.String()
}

func writeLoans(b *strings.Builder, heading string, list []LoanEntry, sum ledger.Amount, m Money) {
	b.WriteString(heading + "\n")
	if len(list) == 0 {
		b.WriteString("  None\n")
		return
	}
	for _, e := range list {
		fmt.Fprintf(b, "  - %s: %s\n", e.Person, m.Format(e.Amount))
	}
	fmt.Fprintf(b, "  Total: %s\n", m.Format(sum))
}

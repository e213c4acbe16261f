package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/moneyflow/ledger-engine/ledger"
)

type ReceiptLine struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Receipt is the printable view of a transaction or an outstanding loan.
type Receipt struct {
	Title       string        `json:"title"`
	Lines       []ReceiptLine `json:"lines"`
	Description string        `json:"description"`
	Amount      ledger.Amount `json:"amount"`
	Footer      string        `json:"footer"`
	GeneratedAt time.Time     `json:"generatedAt"`
}

// TransactionReceipt builds the receipt for transaction id.
func TransactionReceipt(s *ledger.State, id int, now time.Time) (Receipt, error) {
	tx, ok := s.Transaction(id)
	if !ok {
		return Receipt{}, &ledger.NotFoundError{What: "transaction", Key: strconv.Itoa(id)}
	}
	lines := []ReceiptLine{
		{"Date", tx.Timestamp.Format("2006-01-02")},
		{"Time", tx.Timestamp.Format("15:04:05")},
		{"Trx ID", "#" + strconv.Itoa(tx.ID)},
		{"Type", kindTitle(tx.Kind)},
		{"Method", tx.Account},
	}
	if tx.Kind == ledger.KindTransfer {
		lines = append(lines, ReceiptLine{"To", tx.ToAccount})
		if fee := tx.Fee(); fee.IsPositive() {
			lines = append(lines, ReceiptLine{"Fee", fee.String()})
		}
	}
	if tx.Comment != "" {
		lines = append(lines, ReceiptLine{"Note", tx.Comment})
	}
	return Receipt{
		Title:       "Transaction Receipt",
		Lines:       lines,
		Description: tx.Label(),
		Amount:      tx.Amount,
		Footer:      "Thank you for using MoneyFlow!",
		GeneratedAt: now,
	}, nil
}

// LoanReceipt builds the statement for what person owes the user
// (in-loan) or what the user owes person (liability).
func LoanReceipt(s *ledger.State, kind ledger.LoanKind, person string, now time.Time) (Receipt, error) {
	var (
		m     map[string]ledger.Amount
		title string
		desc  string
	)
	switch kind {
	case ledger.LoanInLoan:
		m, title, desc = s.OwedToUser, "Loan Asset Statement", fmt.Sprintf("Amount %s owes you", person)
	case ledger.LoanLiability:
		m, title, desc = s.OwedByUser, "Liability Statement", fmt.Sprintf("Amount you owe %s", person)
	default:
		return Receipt{}, &ledger.ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown loan kind %q", kind)}
	}
	outstanding, ok := m[person]
	if !ok {
		return Receipt{}, &ledger.NotFoundError{What: "loan", Key: person}
	}
	return Receipt{
		Title: "Loan Statement",
		Lines: []ReceiptLine{
			{"Date", now.Format("2006-01-02")},
			{"Time", now.Format("15:04:05")},
			{"Type", title},
			{"Person", person},
		},
		Description: desc,
		Amount:      outstanding,
		Footer:      "MoneyFlow Personal Finance",
		GeneratedAt: now,
	}, nil
}

// kindTitle turns "give-loan" into "Give Loan".
func kindTitle(k ledger.Kind) string {
	words := strings.Split(string(k), "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

package query

import (
	"slices"
	"strings"

	"github.com/moneyflow/ledger-engine/ledger"
)

type LoanEntry struct {
	Person string        `json:"person"`
	Amount ledger.Amount `json:"amount"`
}

// LoanBook lists outstanding balances in both directions, by person.
type LoanBook struct {
	OwedToUser      []LoanEntry   `json:"inLoan"`
	OwedByUser      []LoanEntry   `json:"liabilities"`
	TotalOwedToUser ledger.Amount `json:"totalInLoan"`
	TotalOwedByUser ledger.Amount `json:"totalLiabilities"`
}

func Loans(s *ledger.State) LoanBook {
	return LoanBook{
		OwedToUser:      entries(s.OwedToUser),
		OwedByUser:      entries(s.OwedByUser),
		TotalOwedToUser: total(s.OwedToUser),
		TotalOwedByUser: total(s.OwedByUser),
	}
}

func entries(m map[string]ledger.Amount) []LoanEntry {
	out := make([]LoanEntry, 0, len(m))
	for p, v := range m {
		if v.IsPositive() {
			out = append(out, LoanEntry{Person: p, Amount: v})
		}
	}
	slices.SortFunc(out, func(a, b LoanEntry) int { return strings.Compare(a.Person, b.Person) })
	return out
}

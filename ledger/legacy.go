package ledger

import "strings"

// Title prefixes written by earlier versions of the app, longest first so
// "Loan Repayment from" wins over "Repayment from".
var (
	repaidToUserPrefixes = []string{"Loan Repayment from ", "Repayment from "}
	repaidByUserPrefixes = []string{"Loan Repayment to ", "Repayment to "}
)

// UpgradeLegacy fills the structured fields of a transaction persisted
// before SubKind existed, deriving them from its stored title. Records
// that already carry a SubKind are left alone. This is the only code that
// reads Title.
func UpgradeLegacy(tx *Transaction) {
	if tx.SubKind != "" {
		return
	}
	tx.SubKind = SubKindRegular

	switch tx.Kind {
	case KindDeposit, KindGiveLoan:
		if p, ok := cutAny(tx.Title, repaidToUserPrefixes); ok {
			tx.SubKind = SubKindSettlement
			setCounterparty(tx, p)
			break
		}
		if tx.Kind == KindDeposit {
			if p, ok := strings.CutPrefix(tx.Title, "Deposit from "); ok {
				setCounterparty(tx, p)
			}
		} else if p, ok := strings.CutPrefix(tx.Title, "Loan to "); ok {
			setCounterparty(tx, p)
		}

	case KindExpense, KindGetLoan:
		if p, ok := cutAny(tx.Title, repaidByUserPrefixes); ok {
			tx.SubKind = SubKindSettlement
			setCounterparty(tx, p)
			break
		}
		if tx.Kind == KindExpense {
			if tx.Category == "" {
				tx.Category = tx.Title
			}
		} else if p, ok := strings.CutPrefix(tx.Title, "Loan from "); ok {
			setCounterparty(tx, p)
		}

	case KindTransfer:
		if to, ok := strings.CutPrefix(tx.Title, "Transfer to "); ok && tx.ToAccount == "" {
			tx.ToAccount = strings.TrimSpace(to)
		}
	}
}

func cutAny(s string, prefixes []string) (string, bool) {
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(s, p); ok {
			return rest, true
		}
	}
	return "", false
}

// setCounterparty keeps an explicitly stored person over the one parsed
// from the title.
func setCounterparty(tx *Transaction, parsed string) {
	if tx.Counterparty == "" {
		tx.Counterparty = strings.TrimSpace(parsed)
	}
}

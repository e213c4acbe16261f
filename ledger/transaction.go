package ledger

import (
	"fmt"
	"time"
)

// =============================================================================
// TRANSACTION KINDS
// =============================================================================

type Kind string

const (
	KindDeposit  Kind = "deposit"
	KindExpense  Kind = "expense"
	KindGiveLoan Kind = "give-loan"
	KindGetLoan  Kind = "get-loan"
	KindTransfer Kind = "transfer"
)

var Kinds = []Kind{KindDeposit, KindExpense, KindGiveLoan, KindGetLoan, KindTransfer}

func (k Kind) Valid() bool {
	switch k {
	case KindDeposit, KindExpense, KindGiveLoan, KindGetLoan, KindTransfer:
		return true
	}
	return false
}

// SubKind separates ordinary records from loan repayments. A settlement
// always moves a person balance toward zero.
type SubKind string

const (
	SubKindRegular    SubKind = "regular"
	SubKindSettlement SubKind = "settlement"
)

func (s SubKind) Valid() bool {
	return s == SubKindRegular || s == SubKindSettlement
}

// =============================================================================
// TRANSACTION - One entry in the history
// =============================================================================

// Transaction is a recorded ledger entry. The structured fields are the
// source of truth; Title is a rendered copy kept for older readers of the
// persisted blob.
type Transaction struct {
	ID        int       `json:"id" yaml:"id"`
	Timestamp time.Time `json:"date" yaml:"date"`
	Kind      Kind      `json:"type" yaml:"type"`
	SubKind   SubKind   `json:"subKind,omitempty" yaml:"subKind,omitempty"`

	// Amount is the magnitude that hits Account. For transfers it is the
	// total debit (net + fee).
	Amount    Amount  `json:"amount" yaml:"amount"`
	NetAmount *Amount `json:"netAmount,omitempty" yaml:"netAmount,omitempty"`

	Account      string `json:"account" yaml:"account"`
	ToAccount    string `json:"toAccount,omitempty" yaml:"toAccount,omitempty"`
	Counterparty string `json:"person,omitempty" yaml:"person,omitempty"`
	Category     string `json:"category,omitempty" yaml:"category,omitempty"`

	Title   string `json:"title" yaml:"title"`
	Comment string `json:"comment" yaml:"comment"`
}

// Net returns the amount credited to the destination of a transfer.
// Records without a net amount moved their full amount.
func (t Transaction) Net() Amount {
	if t.NetAmount != nil {
		return *t.NetAmount
	}
	return t.Amount
}

// Fee returns the part of a transfer that left the ledger.
func (t Transaction) Fee() Amount {
	if t.Kind != KindTransfer {
		return Amount{}
	}
	return t.Amount.Sub(t.Net())
}

func (t Transaction) IsSettlement() bool {
	return t.SubKind == SubKindSettlement
}

// Label renders the display title from the structured fields.
func (t Transaction) Label() string {
	switch t.Kind {
	case KindDeposit:
		if t.IsSettlement() {
			return "Repayment from " + t.Counterparty
		}
		if t.Counterparty == "" {
			return "Deposit"
		}
		return "Deposit from " + t.Counterparty
	case KindExpense:
		if t.IsSettlement() {
			return "Repayment to " + t.Counterparty
		}
		return t.Category
	case KindGiveLoan:
		if t.IsSettlement() {
			return "Repayment from " + t.Counterparty
		}
		return "Loan to " + t.Counterparty
	case KindGetLoan:
		if t.IsSettlement() {
			return "Repayment to " + t.Counterparty
		}
		return "Loan from " + t.Counterparty
	case KindTransfer:
		return "Transfer to " + t.ToAccount
	}
	return string(t.Kind)
}

func (t Transaction) String() string {
	return fmt.Sprintf("#%d %s %s %s (%s)", t.ID, t.Kind, t.Label(), t.Amount, t.Account)
}

func (t Transaction) clone() Transaction {
	c := t
	if t.NetAmount != nil {
		n := *t.NetAmount
		c.NetAmount = &n
	}
	return c
}

package ledger

import (
	"strings"
	"time"
)

// =============================================================================
// COMMANDS - What callers ask the processor to do
// =============================================================================

// Command describes a transaction to create, or the new content of one
// being edited. Only the fields relevant to Kind are read.
type Command struct {
	// ID may be supplied on create; zero means "assign one".
	ID      int     `json:"id,omitempty"`
	Kind    Kind    `json:"kind"`
	SubKind SubKind `json:"subKind,omitempty"`
	Amount  Amount  `json:"amount"`

	Account     string `json:"account,omitempty"`
	FromAccount string `json:"fromAccount,omitempty"`
	ToAccount   string `json:"toAccount,omitempty"`
	Fee         Amount `json:"fee"`

	Person   string `json:"person,omitempty"`
	Category string `json:"category,omitempty"`
	Comment  string `json:"comment,omitempty"`

	// Date is a calendar day (YYYY-MM-DD). Empty means now.
	Date string `json:"date,omitempty"`
}

// source is the debited account; transfers may name it FromAccount.
func (c Command) source() string {
	if c.Kind == KindTransfer && c.FromAccount != "" {
		return c.FromAccount
	}
	return c.Account
}

func (c *Command) trim() {
	c.Account = strings.TrimSpace(c.Account)
	c.FromAccount = strings.TrimSpace(c.FromAccount)
	c.ToAccount = strings.TrimSpace(c.ToAccount)
	c.Person = strings.TrimSpace(c.Person)
	c.Category = strings.TrimSpace(c.Category)
	c.Comment = strings.TrimSpace(c.Comment)
	c.Date = strings.TrimSpace(c.Date)
}

// CommandOf returns the command that would recreate tx. Editing with an
// unchanged CommandOf result leaves the record as it is.
func CommandOf(tx Transaction) Command {
	cmd := Command{
		Kind:     tx.Kind,
		SubKind:  tx.SubKind,
		Amount:   tx.Amount,
		Account:  tx.Account,
		Person:   tx.Counterparty,
		Category: tx.Category,
		Comment:  tx.Comment,
	}
	if tx.Kind == KindTransfer {
		cmd.Amount = tx.Net()
		cmd.Fee = tx.Fee()
		cmd.ToAccount = tx.ToAccount
	}
	return cmd
}

// LoanKind selects which person balance a settlement pays down.
type LoanKind string

const (
	// LoanInLoan is money the person owes the user.
	LoanInLoan LoanKind = "in-loan"
	// LoanLiability is money the user owes the person.
	LoanLiability LoanKind = "liability"
)

func (k LoanKind) Valid() bool {
	return k == LoanInLoan || k == LoanLiability
}

func (k LoanKind) bucket() Bucket {
	if k == LoanLiability {
		return BucketOwedByUser
	}
	return BucketOwedToUser
}

// SettleCommand records a repayment against an outstanding balance.
type SettleCommand struct {
	Kind    LoanKind `json:"kind"`
	Person  string   `json:"person"`
	Account string   `json:"account"`
	Amount  Amount   `json:"amount"`
	Comment string   `json:"comment,omitempty"`
	Date    string   `json:"date,omitempty"`
}

// GoalPatch updates the savings goal. Empty fields keep their value.
type GoalPatch struct {
	Name          string  `json:"name,omitempty"`
	Target        *Amount `json:"target,omitempty"`
	LinkedAccount string  `json:"linkedAccount,omitempty"`
}

const dateLayout = "2006-01-02"

// resolveTimestamp turns a calendar day into the recorded instant: today
// is "now", earlier days are their midnight, later days are rejected.
func resolveTimestamp(date string, now time.Time) (time.Time, error) {
	if date == "" {
		return now, nil
	}
	day, err := time.ParseInLocation(dateLayout, date, now.Location())
	if err != nil {
		return time.Time{}, invalid("date", "expected YYYY-MM-DD, got %q", date)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch {
	case day.Equal(today):
		return now, nil
	case day.After(today):
		return time.Time{}, invalid("date", "%s is in the future", date)
	}
	return day, nil
}

func checkAmount(field string, a Amount, allowZero bool) error {
	switch {
	case a.IsNegative():
		return invalid(field, "must not be negative")
	case a.IsZero() && !allowZero:
		return invalid(field, "must be greater than zero")
	case !a.IsWhole():
		return invalid(field, "must be a whole amount")
	}
	return nil
}

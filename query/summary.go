/*
Package query provides read-only views over a ledger snapshot.

PURPOSE:
  Everything a UI renders (totals, goal progress, history lists, chart
  aggregates, loan lists, receipts, assistant context) is derived here
  from a *ledger.State obtained via Processor.Snapshot. Nothing in this
  package mutates state.

SEE ALSO:
  - ledger/processor.go: Source of snapshots
  - report/: Renders these views as text, CSV and XLSX
*/
package query

import (
	"github.com/moneyflow/ledger-engine/ledger"
)

type AccountBalance struct {
	Name    string        `json:"name"`
	Balance ledger.Amount `json:"balance"`
}

type GoalStatus struct {
	Name          string        `json:"name"`
	Target        ledger.Amount `json:"target"`
	LinkedAccount string        `json:"linkedAccount"`
	Saved         ledger.Amount `json:"saved"`
	// Fraction is saved/target clamped to [0, 1].
	Fraction float64 `json:"fraction"`
	Percent  int     `json:"percent"`
}

type Summary struct {
	Accounts         []AccountBalance `json:"accounts"`
	TotalBalance     ledger.Amount    `json:"totalBalance"`
	TotalReceivable  ledger.Amount    `json:"totalReceivable"`
	TotalPayable     ledger.Amount    `json:"totalPayable"`
	NetPosition      ledger.Amount    `json:"netPosition"`
	Goal             GoalStatus       `json:"goal"`
	TransactionCount int              `json:"transactionCount"`
}

// Summarize computes the dashboard totals. Net position covers loans
// only: what the user is owed minus what they owe. Account balances are
// not part of it.
func Summarize(s *ledger.State) Summary {
	out := Summary{Goal: GoalProgress(s), TransactionCount: len(s.Transactions)}
	for _, name := range s.AccountNames() {
		bal := s.Accounts[name]
		out.Accounts = append(out.Accounts, AccountBalance{Name: name, Balance: bal})
		out.TotalBalance = out.TotalBalance.Add(bal)
	}
	out.TotalReceivable = total(s.OwedToUser)
	out.TotalPayable = total(s.OwedByUser)
	out.NetPosition = out.TotalReceivable.Sub(out.TotalPayable)
	return out
}

// GoalProgress reports how far the linked account is toward the target.
func GoalProgress(s *ledger.State) GoalStatus {
	g := s.Goal
	saved := s.Accounts[g.LinkedAccount]
	st := GoalStatus{Name: g.Name, Target: g.Target, LinkedAccount: g.LinkedAccount, Saved: saved}
	if !g.Target.IsPositive() || !saved.IsPositive() {
		return st
	}
	frac, _ := saved.Value.Div(g.Target.Value).Float64()
	if frac > 1 {
		frac = 1
	}
	st.Fraction = frac
	st.Percent = int(frac * 100)
	return st
}

func total(m map[string]ledger.Amount) ledger.Amount {
	var sum ledger.Amount
	for _, v := range m {
		sum = sum.Add(v)
	}
	return sum
}

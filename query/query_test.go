package query_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneyflow/ledger-engine/ledger"
	"github.com/moneyflow/ledger-engine/query"
)

var now = time.Date(2025, time.March, 15, 14, 30, 0, 0, time.UTC)

func amt(n int64) ledger.Amount { return ledger.NewAmount(n) }

func day(offset int, hour int) time.Time {
	d := now.AddDate(0, 0, offset)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.UTC)
}

// sampleState is a small ledger with one record of most kinds.
func sampleState() *ledger.State {
	s := ledger.DefaultState()
	s.Accounts["Cash"] = amt(5000)
	s.Accounts["Bank"] = amt(20000)
	s.OwedToUser["Rahim"] = amt(1500)
	s.OwedByUser["Karim"] = amt(700)
	s.People = []string{"Rahim", "Karim"}
	s.Goal = ledger.Goal{Name: "Laptop", Target: amt(40000), LinkedAccount: "Bank"}
	s.Transactions = []ledger.Transaction{
		{ID: 100001, Timestamp: day(-40, 9), Kind: ledger.KindDeposit, Amount: amt(30000), Account: "Bank"},
		{ID: 100002, Timestamp: day(-10, 10), Kind: ledger.KindExpense, Amount: amt(1200), Account: "Cash", Category: "Food"},
		{ID: 100003, Timestamp: day(-3, 11), Kind: ledger.KindGiveLoan, Amount: amt(1500), Account: "Cash", Counterparty: "Rahim"},
		{ID: 100004, Timestamp: day(-1, 12), Kind: ledger.KindExpense, Amount: amt(300), Account: "Cash", Category: "Transport", Comment: "rickshaw"},
		{ID: 100005, Timestamp: day(0, 8), Kind: ledger.KindExpense, Amount: amt(450), Account: "Bank", Category: "Food"},
		{ID: 100006, Timestamp: day(0, 9), Kind: ledger.KindExpense, SubKind: ledger.SubKindSettlement, Amount: amt(300), Account: "Cash", Counterparty: "Karim"},
	}
	return s
}

// =============================================================================
// SUMMARY
// =============================================================================

func TestSummarize(t *testing.T) {
	sum := query.Summarize(sampleState())

	require.NotEmpty(t, sum.Accounts)
	assert.Equal(t, "Cash", sum.Accounts[0].Name, "default account is listed first")
	assert.True(t, amt(25000).Equal(sum.TotalBalance), sum.TotalBalance.String())
	assert.True(t, amt(1500).Equal(sum.TotalReceivable))
	assert.True(t, amt(700).Equal(sum.TotalPayable))
	assert.True(t, amt(800).Equal(sum.NetPosition), sum.NetPosition.String())
	assert.Equal(t, 6, sum.TransactionCount)
	assert.Equal(t, 50, sum.Goal.Percent)
}

func TestSummarize_NetPositionExcludesAccounts(t *testing.T) {
	// GIVEN: Money in an account and loans in both directions
	s := ledger.DefaultState()
	s.Accounts["Cash"] = amt(1000)
	s.OwedToUser["Bob"] = amt(300)
	s.OwedByUser["Ann"] = amt(100)

	// WHEN: Summarizing
	sum := query.Summarize(s)

	// THEN: Net position is receivable minus payable only
	assert.True(t, amt(1000).Equal(sum.TotalBalance))
	assert.True(t, amt(200).Equal(sum.NetPosition), sum.NetPosition.String())

	// AND: It goes negative when the user owes more than they are owed
	s.OwedByUser["Ann"] = amt(500)
	assert.True(t, amt(-200).Equal(query.Summarize(s).NetPosition))
}

func TestGoalProgress_Clamped(t *testing.T) {
	s := sampleState()

	s.Accounts["Bank"] = amt(90000)
	g := query.GoalProgress(s)
	assert.Equal(t, 1.0, g.Fraction)
	assert.Equal(t, 100, g.Percent)

	s.Accounts["Bank"] = amt(-10)
	g = query.GoalProgress(s)
	assert.Equal(t, 0.0, g.Fraction)

	s.Goal = ledger.Goal{}
	g = query.GoalProgress(s)
	assert.Equal(t, 0, g.Percent, "no goal means no progress")
}

// =============================================================================
// HISTORY
// =============================================================================

func ids(txs []ledger.Transaction) []int {
	out := make([]int, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID
	}
	return out
}

func TestHistory(t *testing.T) {
	s := sampleState()

	tests := []struct {
		name string
		q    query.HistoryQuery
		want []int
	}{
		{"default newest first", query.HistoryQuery{}, []int{100006, 100005, 100004, 100003, 100002, 100001}},
		{"oldest", query.HistoryQuery{Sort: query.SortOldest, Limit: 2}, []int{100001, 100002}},
		{"highest", query.HistoryQuery{Sort: query.SortHighest, Limit: 3}, []int{100001, 100003, 100002}},
		{"lowest", query.HistoryQuery{Sort: query.SortLowest, Limit: 2}, []int{100004, 100006}},
		{"by kind", query.HistoryQuery{Kind: ledger.KindExpense, Sort: query.SortOldest}, []int{100002, 100004, 100005, 100006}},
		{"by category skips settlements", query.HistoryQuery{Category: "Food"}, []int{100005, 100002}},
		{"search label", query.HistoryQuery{Search: "rahim"}, []int{100003}},
		{"search id", query.HistoryQuery{Search: "100004"}, []int{100004}},
		{"search account", query.HistoryQuery{Search: "BANK", Sort: query.SortOldest}, []int{100001, 100005}},
		{"search repayment", query.HistoryQuery{Search: "repayment to"}, []int{100006}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := query.History(s, tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestHistory_RejectsUnknownValues(t *testing.T) {
	s := sampleState()

	_, err := query.History(s, query.HistoryQuery{Kind: "refund"})
	assert.ErrorIs(t, err, ledger.ErrValidation)

	_, err = query.History(s, query.HistoryQuery{Sort: "random"})
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

// =============================================================================
// CHARTS
// =============================================================================

func TestExpenseBreakdown_ByCategory(t *testing.T) {
	b, err := query.ExpenseBreakdown(sampleState(), query.ChartQuery{}, now)
	require.NoError(t, err)

	require.Len(t, b.Points, 3)
	assert.Equal(t, "Food", b.Points[0].Label)
	assert.True(t, amt(1650).Equal(b.Points[0].Amount))
	assert.Equal(t, "Transport", b.Points[1].Label)
	assert.Equal(t, "Repayment to Karim", b.Points[2].Label)
	assert.True(t, amt(2250).Equal(b.Total), b.Total.String())
}

func TestExpenseBreakdown_Windows(t *testing.T) {
	s := sampleState()

	tests := []struct {
		name  string
		q     query.ChartQuery
		total int64
	}{
		{"today", query.ChartQuery{Window: query.WindowToday}, 750},
		{"week", query.ChartQuery{Window: query.WindowWeek}, 1050},
		{"month", query.ChartQuery{Window: query.WindowMonth}, 2250},
		{"specific date", query.ChartQuery{Window: query.WindowDate, Date: day(-10, 0).Format("2006-01-02")}, 1200},
		{"empty date", query.ChartQuery{Window: query.WindowDate, Date: "2020-01-01"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := query.ExpenseBreakdown(s, tt.q, now)
			require.NoError(t, err)
			assert.True(t, amt(tt.total).Equal(b.Total), "got %s", b.Total)
		})
	}
}

func TestExpenseBreakdown_ByDay(t *testing.T) {
	b, err := query.ExpenseBreakdown(sampleState(), query.ChartQuery{GroupBy: query.GroupByDay}, now)
	require.NoError(t, err)

	require.Len(t, b.Points, 3)
	assert.Equal(t, day(-10, 0).Format("2006-01-02"), b.Points[0].Label)
	assert.Equal(t, day(0, 0).Format("2006-01-02"), b.Points[2].Label)
	assert.True(t, amt(750).Equal(b.Points[2].Amount))
}

func TestExpenseBreakdown_Invalid(t *testing.T) {
	s := sampleState()
	for _, q := range []query.ChartQuery{
		{Window: "year"},
		{GroupBy: "weekday"},
		{Window: query.WindowDate, Date: "15/03/2025"},
	} {
		_, err := query.ExpenseBreakdown(s, q, now)
		assert.ErrorIs(t, err, ledger.ErrValidation, "%+v", q)
	}
}

// =============================================================================
// LOANS & CONTEXT
// =============================================================================

func TestLoans(t *testing.T) {
	s := sampleState()
	s.OwedToUser["Alim"] = amt(200)

	book := query.Loans(s)
	require.Len(t, book.OwedToUser, 2)
	assert.Equal(t, "Alim", book.OwedToUser[0].Person)
	assert.Equal(t, "Rahim", book.OwedToUser[1].Person)
	assert.True(t, amt(1700).Equal(book.TotalOwedToUser))
	require.Len(t, book.OwedByUser, 1)
	assert.True(t, amt(700).Equal(book.TotalOwedByUser))
}

func TestAssistantContext(t *testing.T) {
	ctx := query.AssistantContext(sampleState(), query.NewMoney(""))

	assert.Contains(t, ctx, "Current Balances:\n- Cash: BDT 5,000\n")
	assert.Contains(t, ctx, "Target: Laptop, Amount: BDT 40,000, Saved: BDT 20,000 (in Bank)")
	assert.Contains(t, ctx, "[expense] Transport: BDT 300 (Cash) Note: rickshaw")
	assert.Contains(t, ctx, "Money others owe to user:\n  - Rahim: BDT 1,500\n  Total: BDT 1,500\n")
	assert.Contains(t, ctx, "Money user owes to others:\n  - Karim: BDT 700\n")

	// most recent first
	assert.Less(t, strings.Index(ctx, "Repayment to Karim"), strings.Index(ctx, "Loan to Rahim"))
}

func TestAssistantContext_LimitsRecent(t *testing.T) {
	s := ledger.DefaultState()
	s.Goal = ledger.Goal{}
	for i := range 15 {
		s.Transactions = append(s.Transactions, ledger.Transaction{
			ID: 200000 + i, Timestamp: day(-15+i, 9), Kind: ledger.KindDeposit, Amount: amt(int64(i + 1)), Account: "Cash",
		})
	}

	ctx := query.AssistantContext(s, query.NewMoney("USD"))
	assert.Equal(t, query.RecentForContext, strings.Count(ctx, "[deposit]"))
	assert.Contains(t, ctx, "USD 15 (Cash)")
	assert.NotContains(t, ctx, "USD 5 (Cash)")
	assert.Contains(t, ctx, "No specific goal set yet.")
	assert.Contains(t, ctx, "  None\n")
}

func TestMoneyFormat(t *testing.T) {
	m := query.NewMoney("")
	assert.Equal(t, "BDT 0", m.Format(ledger.Amount{}))
	assert.Equal(t, "BDT 1,234,567", m.Format(amt(1234567)))
	assert.Equal(t, "-BDT 12,500", m.Format(amt(-12500)))
}

// =============================================================================
// RECEIPTS
// =============================================================================

func TestTransactionReceipt(t *testing.T) {
	r, err := query.TransactionReceipt(sampleState(), 100003, now)
	require.NoError(t, err)

	assert.Equal(t, "Transaction Receipt", r.Title)
	assert.Equal(t, "Loan to Rahim", r.Description)
	assert.Contains(t, r.Lines, query.ReceiptLine{Label: "Trx ID", Value: "#100003"})
	assert.Contains(t, r.Lines, query.ReceiptLine{Label: "Type", Value: "Give Loan"})
	assert.Contains(t, r.Lines, query.ReceiptLine{Label: "Method", Value: "Cash"})
	assert.True(t, amt(1500).Equal(r.Amount))

	_, err = query.TransactionReceipt(sampleState(), 999999, now)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestLoanReceipt(t *testing.T) {
	s := sampleState()

	r, err := query.LoanReceipt(s, ledger.LoanLiability, "Karim", now)
	require.NoError(t, err)
	assert.Equal(t, "Loan Statement", r.Title)
	assert.Contains(t, r.Lines, query.ReceiptLine{Label: "Type", Value: "Liability Statement"})
	assert.True(t, amt(700).Equal(r.Amount))

	r, err = query.LoanReceipt(s, ledger.LoanInLoan, "Rahim", now)
	require.NoError(t, err)
	assert.Contains(t, r.Lines, query.ReceiptLine{Label: "Type", Value: "Loan Asset Statement"})

	_, err = query.LoanReceipt(s, ledger.LoanInLoan, "Karim", now)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	_, err = query.LoanReceipt(s, "gift", "Karim", now)
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

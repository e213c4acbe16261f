package query

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/moneyflow/ledger-engine/ledger"
)

type Window string

const (
	WindowAll   Window = "all"
	WindowToday Window = "today"
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
	WindowDate  Window = "date"
)

type GroupBy string

const (
	GroupByCategory GroupBy = "category"
	GroupByDay      GroupBy = "day"
)

type ChartQuery struct {
	Window  Window
	GroupBy GroupBy
	// Date is the day (YYYY-MM-DD) shown by WindowDate.
	Date string
}

type ChartPoint struct {
	Label  string        `json:"label"`
	Amount ledger.Amount `json:"amount"`
}

type Breakdown struct {
	Window  Window        `json:"window"`
	GroupBy GroupBy       `json:"groupBy"`
	Points  []ChartPoint  `json:"points"`
	Total   ledger.Amount `json:"total"`
}

// ExpenseBreakdown sums expenses inside the window. Category grouping
// uses the transaction label and is ordered largest first; day grouping
// is ordered by day. Days are taken in now's location.
func ExpenseBreakdown(s *ledger.State, q ChartQuery, now time.Time) (Breakdown, error) {
	if q.Window == "" {
		q.Window = WindowAll
	}
	if q.GroupBy == "" {
		q.GroupBy = GroupByCategory
	}
	in, err := windowFilter(q, now)
	if err != nil {
		return Breakdown{}, err
	}
	if q.GroupBy != GroupByCategory && q.GroupBy != GroupByDay {
		return Breakdown{}, &ledger.ValidationError{Field: "groupBy", Reason: fmt.Sprintf("unknown grouping %q", q.GroupBy)}
	}

	out := Breakdown{Window: q.Window, GroupBy: q.GroupBy, Points: []ChartPoint{}}
	sums := map[string]ledger.Amount{}
	var keys []string
	for _, tx := range s.Transactions {
		if tx.Kind != ledger.KindExpense || !in(tx.Timestamp) {
			continue
		}
		key := tx.Label()
		if q.GroupBy == GroupByDay {
			key = tx.Timestamp.In(now.Location()).Format("2006-01-02")
		}
		if _, seen := sums[key]; !seen {
			keys = append(keys, key)
		}
		sums[key] = sums[key].Add(tx.Amount)
		out.Total = out.Total.Add(tx.Amount)
	}

	for _, k := range keys {
		out.Points = append(out.Points, ChartPoint{Label: k, Amount: sums[k]})
	}
	if q.GroupBy == GroupByDay {
		slices.SortFunc(out.Points, func(a, b ChartPoint) int { return strings.Compare(a.Label, b.Label) })
	} else {
		slices.SortStableFunc(out.Points, func(a, b ChartPoint) int { return b.Amount.Cmp(a.Amount) })
	}
	return out, nil
}

func windowFilter(q ChartQuery, now time.Time) (func(time.Time) bool, error) {
	sameDay := func(day time.Time) func(time.Time) bool {
		y, m, d := day.Date()
		return func(t time.Time) bool {
			ty, tm, td := t.In(now.Location()).Date()
			return ty == y && tm == m && td == d
		}
	}
	switch q.Window {
	case WindowAll:
		return func(time.Time) bool { return true }, nil
	case WindowToday:
		return sameDay(now), nil
	case WindowWeek:
		from := now.Add(-7 * 24 * time.Hour)
		return func(t time.Time) bool { return !t.Before(from) }, nil
	case WindowMonth:
		from := now.Add(-30 * 24 * time.Hour)
		return func(t time.Time) bool { return !t.Before(from) }, nil
	case WindowDate:
		day, err := time.ParseInLocation("2006-01-02", q.Date, now.Location())
		if err != nil {
			return nil, &ledger.ValidationError{Field: "date", Reason: fmt.Sprintf("expected YYYY-MM-DD, got %q", q.Date)}
		}
		return sameDay(day), nil
	}
	return nil, &ledger.ValidationError{Field: "window", Reason: fmt.Sprintf("unknown window %q", q.Window)}
}

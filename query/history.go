package query

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/moneyflow/ledger-engine/ledger"
)

type SortOrder string

const (
	SortNewest  SortOrder = "newest"
	SortOldest  SortOrder = "oldest"
	SortHighest SortOrder = "highest"
	SortLowest  SortOrder = "lowest"
)

// HistoryQuery filters and orders the transaction list. Zero values mean
// "no filter" and newest first.
type HistoryQuery struct {
	Kind ledger.Kind
	// Category keeps only expenses in that category.
	Category string
	// Search matches id, label, kind and account, case-insensitively.
	Search string
	Sort   SortOrder
	Limit  int
}

func History(s *ledger.State, q HistoryQuery) ([]ledger.Transaction, error) {
	if q.Kind != "" && !q.Kind.Valid() {
		return nil, &ledger.ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", q.Kind)}
	}
	cmp, err := sorter(q.Sort)
	if err != nil {
		return nil, err
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]ledger.Transaction, 0, len(s.Transactions))
	for _, tx := range s.Transactions {
		if q.Kind != "" && tx.Kind != q.Kind {
			continue
		}
		if q.Category != "" && (tx.Kind != ledger.KindExpense || tx.IsSettlement() || tx.Category != q.Category) {
			continue
		}
		if search != "" && !matches(tx, search) {
			continue
		}
		out = append(out, tx)
	}
	slices.SortStableFunc(out, cmp)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func matches(tx ledger.Transaction, needle string) bool {
	for _, hay := range []string{strconv.Itoa(tx.ID), tx.Label(), string(tx.Kind), tx.Account} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}

func sorter(order SortOrder) (func(a, b ledger.Transaction) int, error) {
	switch order {
	case "", SortNewest:
		return func(a, b ledger.Transaction) int { return b.Timestamp.Compare(a.Timestamp) }, nil
	case SortOldest:
		return func(a, b ledger.Transaction) int { return a.Timestamp.Compare(b.Timestamp) }, nil
	case SortHighest:
		return func(a, b ledger.Transaction) int { return b.Amount.Cmp(a.Amount) }, nil
	case SortLowest:
		return func(a, b ledger.Transaction) int { return a.Amount.Cmp(b.Amount) }, nil
	}
	return nil, &ledger.ValidationError{Field: "sort", Reason: fmt.Sprintf("unknown sort order %q", order)}
}

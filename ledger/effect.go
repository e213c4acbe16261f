/*
effect.go - Transaction effect calculator

PURPOSE:
  Maps a transaction to the balance deltas it causes, and back. This is
  the only place that knows what a kind/subkind does to the buckets; the
  processor applies effects, it never reasons about kinds itself.

FORWARD EFFECTS:
  deposit   / regular     accounts[a] += amt
  deposit   / settlement  accounts[a] += amt, owedToUser[p] -= amt
  expense   / regular     accounts[a] -= amt
  expense   / settlement  accounts[a] -= amt, owedByUser[p] -= amt
  give-loan / regular     accounts[a] -= amt, owedToUser[p] += amt
  give-loan / settlement  accounts[a] += amt, owedToUser[p] -= amt
  get-loan  / regular     accounts[a] += amt, owedByUser[p] += amt
  get-loan  / settlement  accounts[a] -= amt, owedByUser[p] -= amt
  transfer                accounts[from] -= net+fee, accounts[to] += net

  Reversal negates every delta.

SEE ALSO:
  - processor.go: Applies inverse(old) + forward(new) on a scratch copy
  - legacy.go: Derives SubKind for records that predate it
*/
package ledger

// =============================================================================
// DELTAS
// =============================================================================

type Bucket string

const (
	BucketAccount    Bucket = "account"
	BucketOwedToUser Bucket = "owed-to-user"
	BucketOwedByUser Bucket = "owed-by-user"
)

type Delta struct {
	Bucket Bucket
	Key    string
	Value  Amount
}

type Effect []Delta

// Inverse returns the effect that exactly undoes e.
func (e Effect) Inverse() Effect {
	out := make(Effect, len(e))
	for i, d := range e {
		out[i] = Delta{Bucket: d.Bucket, Key: d.Key, Value: d.Value.Neg()}
	}
	return out
}

// EffectOf computes the forward effect of tx. It checks only that the
// fields the effect needs are present; reference checks belong to the
// processor.
func EffectOf(tx Transaction) (Effect, error) {
	amt := tx.Amount
	if !amt.IsPositive() {
		return nil, invalid("amount", "must be positive")
	}
	if tx.Account == "" {
		return nil, invalid("account", "required")
	}
	settlement := tx.IsSettlement()
	if tx.SubKind != "" && !tx.SubKind.Valid() {
		return nil, invalid("subKind", "unknown subkind %q", tx.SubKind)
	}

	account := func(v Amount) Delta { return Delta{Bucket: BucketAccount, Key: tx.Account, Value: v} }
	person := func(b Bucket, v Amount) Delta { return Delta{Bucket: b, Key: tx.Counterparty, Value: v} }

	needsPerson := tx.Kind == KindGiveLoan || tx.Kind == KindGetLoan || settlement
	if needsPerson && tx.Counterparty == "" {
		return nil, invalid("person", "required for %s", tx.Kind)
	}

	switch tx.Kind {
	case KindDeposit:
		if settlement {
			return Effect{account(amt), person(BucketOwedToUser, amt.Neg())}, nil
		}
		return Effect{account(amt)}, nil

	case KindExpense:
		if settlement {
			return Effect{account(amt.Neg()), person(BucketOwedByUser, amt.Neg())}, nil
		}
		return Effect{account(amt.Neg())}, nil

	case KindGiveLoan:
		if settlement {
			return Effect{account(amt), person(BucketOwedToUser, amt.Neg())}, nil
		}
		return Effect{account(amt.Neg()), person(BucketOwedToUser, amt)}, nil

	case KindGetLoan:
		if settlement {
			return Effect{account(amt.Neg()), person(BucketOwedByUser, amt.Neg())}, nil
		}
		return Effect{account(amt), person(BucketOwedByUser, amt)}, nil

	case KindTransfer:
		if settlement {
			return nil, invalid("subKind", "transfers cannot be settlements")
		}
		if tx.ToAccount == "" {
			return nil, invalid("toAccount", "required")
		}
		if tx.ToAccount == tx.Account {
			return nil, invalid("toAccount", "must differ from source account")
		}
		net := tx.Net()
		if net.IsNegative() || net.GreaterThan(amt) {
			return nil, invalid("netAmount", "must be between 0 and the total amount")
		}
		return Effect{
			account(amt.Neg()),
			{Bucket: BucketAccount, Key: tx.ToAccount, Value: net},
		}, nil
	}
	return nil, invalid("kind", "unknown kind %q", tx.Kind)
}

// =============================================================================
// APPLY
// =============================================================================

type slot struct {
	bucket Bucket
	key    string
}

// Apply adds the combined deltas of effects to b. The deltas are netted
// per balance first, so an edit that reverses and re-applies the same
// account is judged on its final result only.
//
// Nothing is written unless every balance passes:
//   - every account touched must exist
//   - an account whose net delta is negative must not end below zero
//   - a person balance whose net delta is negative must not end below zero
func (b Balances) Apply(effects ...Effect) error {
	var order []slot
	net := map[slot]Amount{}
	for _, e := range effects {
		for _, d := range e {
			s := slot{d.Bucket, d.Key}
			if _, seen := net[s]; !seen {
				order = append(order, s)
			}
			net[s] = net[s].Add(d.Value)
		}
	}

	for _, s := range order {
		delta := net[s]
		if delta.IsZero() {
			continue
		}
		m := b.bucket(s.bucket)
		if m == nil {
			return invalid("bucket", "unknown bucket %q", s.bucket)
		}
		current, exists := m[s.key]
		if s.bucket == BucketAccount && !exists {
			return &NotFoundError{What: "account", Key: s.key}
		}
		if !delta.IsNegative() || !current.Add(delta).IsNegative() {
			continue
		}
		if s.bucket == BucketAccount {
			return &InsufficientFundsError{Account: s.key, Available: current, Requested: delta.Neg()}
		}
		return &OverSettlementError{Person: s.key, Outstanding: current, Requested: delta.Neg()}
	}

	for _, s := range order {
		delta := net[s]
		if delta.IsZero() {
			continue
		}
		if s.bucket == BucketAccount {
			b.Accounts[s.key] = b.Accounts[s.key].Add(delta)
			continue
		}
		adjustLoan(b.bucket(s.bucket), s.key, delta)
	}
	return nil
}

/*
processor.go - Command processor

PURPOSE:
  The single writer of ledger state. Every mutating operation follows the
  same path:

    1. Validate the command against the current state
    2. Clone the state (scratch copy)
    3. Apply inverse(old) and/or forward(new) effects to the scratch copy
    4. Check the post-conditions (Balances.Apply does this)
    5. Save the scratch copy, then swap it in

  Nothing observable changes unless all five steps succeed, so a failed
  command (including a failed Save) leaves the previous state in place.

CONCURRENCY:
  One mutex serialises commands. Readers get deep copies from Snapshot.

SEE ALSO:
  - effect.go: What each transaction does to the balances
  - manage.go: Account, person, category and goal management
*/
package ledger

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/moneyflow/ledger-engine/logging"
)

const (
	minTransactionID = 100000
	maxTransactionID = 999999
	maxIDAttempts    = 1000
)

// IDSource hands out candidate transaction ids. Candidates that collide
// with an existing id are discarded and another is drawn.
type IDSource interface {
	NextID() int
}

// IDFunc adapts a function to IDSource.
type IDFunc func() int

func (f IDFunc) NextID() int { return f() }

// RandomIDs draws six-digit ids.
var RandomIDs IDSource = IDFunc(func() int {
	return minTransactionID + rand.IntN(maxTransactionID-minTransactionID+1)
})

// CommitHook is called after every successful save with a copy of the
// committed state.
type CommitHook func(op string, s *State)

// =============================================================================
// PROCESSOR
// =============================================================================

type Processor struct {
	mu    sync.Mutex
	state *State
	store Store
	clock func() time.Time
	ids   IDSource
	log   logging.Logger
	hooks []CommitHook
}

type Option func(*Processor)

// WithClock sets the clock used for timestamps and "today". The location
// of the returned times decides where days begin.
func WithClock(clock func() time.Time) Option {
	return func(p *Processor) { p.clock = clock }
}

func WithIDSource(ids IDSource) Option {
	return func(p *Processor) { p.ids = ids }
}

func WithLogger(log logging.Logger) Option {
	return func(p *Processor) { p.log = log }
}

// NewProcessor returns a processor over initial, which it copies.
func NewProcessor(store Store, initial *State, opts ...Option) *Processor {
	if initial == nil {
		initial = DefaultState()
	}
	state := initial.Clone()
	state.Normalize()

	p := &Processor{
		state: state,
		store: store,
		clock: time.Now,
		ids:   RandomIDs,
		log:   logging.NewDiscard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Open loads the persisted state (or the defaults) and returns a
// processor over it.
func Open(ctx context.Context, store Store, opts ...Option) (*Processor, error) {
	p := NewProcessor(store, nil, opts...)
	state, err := LoadOrDefault(ctx, store, p.log)
	if err != nil {
		return nil, err
	}
	p.state = state
	return p, nil
}

// Snapshot returns a deep copy of the current state.
func (p *Processor) Snapshot() *State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Clone()
}

// Now returns the processor clock's current time.
func (p *Processor) Now() time.Time {
	return p.clock()
}

// OnCommit registers a hook run after each successful save.
func (p *Processor) OnCommit(hook CommitHook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = append(p.hooks, hook)
}

// commit saves next and swaps it in. Callers hold p.mu.
func (p *Processor) commit(ctx context.Context, op string, next *State, fields ...logging.Field) error {
	if err := p.store.Save(ctx, next); err != nil {
		p.log.WithError(err).Error("ledger save failed, state unchanged", logging.F(logging.FieldOperation, op))
		return fmt.Errorf("%s: save ledger: %w", op, err)
	}
	p.state = next
	p.log.Info("ledger committed", append([]logging.Field{logging.F(logging.FieldOperation, op)}, fields...)...)
	for _, hook := range p.hooks {
		hook(op, next.Clone())
	}
	return nil
}

func (p *Processor) reject(op string, err error) error {
	p.log.Debug("command rejected", logging.F(logging.FieldOperation, op), logging.F(logging.FieldReason, err.Error()))
	return err
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// CreateTransaction validates cmd, applies its effect and records it. It
// returns the new transaction's id.
func (p *Processor) CreateTransaction(ctx context.Context, cmd Command) (int, error) {
	const op = "create"
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.state.Clone()
	tx, err := p.build(next, cmd, nil)
	if err != nil {
		return 0, p.reject(op, err)
	}
	effect, err := EffectOf(tx)
	if err != nil {
		return 0, p.reject(op, err)
	}
	if err := next.Apply(effect); err != nil {
		return 0, p.reject(op, err)
	}
	next.Transactions = append(next.Transactions, tx)

	if err := p.commit(ctx, op, next, txFields(tx)...); err != nil {
		return 0, err
	}
	return tx.ID, nil
}

// EditTransaction replaces transaction id with the content of cmd. The
// old effect is reversed and the new one applied together, so the edit
// is judged on its final balances. Id and timestamp are kept.
//
// Accounts, people and categories already on the record may be kept
// after they were removed. An edit that would move money in or out of a
// removed account is rejected as not found.
func (p *Processor) EditTransaction(ctx context.Context, id int, cmd Command) error {
	const op = "edit"
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.state.Clone()
	i := next.Find(id)
	if i < 0 {
		return p.reject(op, &NotFoundError{What: "transaction", Key: fmt.Sprint(id)})
	}
	old := next.Transactions[i]

	tx, err := p.build(next, cmd, &old)
	if err != nil {
		return p.reject(op, err)
	}
	oldEffect, err := EffectOf(old)
	if err != nil {
		return p.reject(op, fmt.Errorf("stored transaction %d cannot be reversed: %w", id, err))
	}
	newEffect, err := EffectOf(tx)
	if err != nil {
		return p.reject(op, err)
	}
	if err := next.Apply(oldEffect.Inverse(), newEffect); err != nil {
		return p.reject(op, err)
	}
	next.Transactions[i] = tx

	return p.commit(ctx, op, next, txFields(tx)...)
}

// DeleteTransaction reverses transaction id and removes it.
func (p *Processor) DeleteTransaction(ctx context.Context, id int) error {
	const op = "delete"
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.state.Clone()
	i := next.Find(id)
	if i < 0 {
		return p.reject(op, &NotFoundError{What: "transaction", Key: fmt.Sprint(id)})
	}
	old := next.Transactions[i]
	effect, err := EffectOf(old)
	if err != nil {
		return p.reject(op, fmt.Errorf("stored transaction %d cannot be reversed: %w", id, err))
	}
	if err := next.Apply(effect.Inverse()); err != nil {
		return p.reject(op, err)
	}
	next.Transactions = append(next.Transactions[:i], next.Transactions[i+1:]...)

	return p.commit(ctx, op, next, txFields(old)...)
}

// Settle records a repayment: money from a person who owes the user
// (in-loan) or to a person the user owes (liability).
func (p *Processor) Settle(ctx context.Context, cmd SettleCommand) (int, error) {
	const op = "settle"
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.state.Clone()
	tx, err := p.buildSettlement(next, cmd)
	if err != nil {
		return 0, p.reject(op, err)
	}
	effect, err := EffectOf(tx)
	if err != nil {
		return 0, p.reject(op, err)
	}
	if err := next.Apply(effect); err != nil {
		return 0, p.reject(op, err)
	}
	next.Transactions = append(next.Transactions, tx)

	if err := p.commit(ctx, op, next, txFields(tx)...); err != nil {
		return 0, err
	}
	return tx.ID, nil
}

func txFields(tx Transaction) []logging.Field {
	return []logging.Field{
		logging.F(logging.FieldTransactionID, tx.ID),
		logging.F(logging.FieldKind, string(tx.Kind)),
		logging.F(logging.FieldAmount, tx.Amount.String()),
		logging.F(logging.FieldAccount, tx.Account),
	}
}

// =============================================================================
// BUILDING TRANSACTIONS
// =============================================================================

// build validates cmd against st and returns the transaction it
// describes. prev is the record being edited, nil on create.
func (p *Processor) build(st *State, cmd Command, prev *Transaction) (Transaction, error) {
	cmd.trim()
	if cmd.Kind == "" && prev != nil {
		cmd.Kind = prev.Kind
	}
	if !cmd.Kind.Valid() {
		return Transaction{}, invalid("kind", "unknown kind %q", cmd.Kind)
	}
	if err := checkAmount("amount", cmd.Amount, false); err != nil {
		return Transaction{}, err
	}

	tx := Transaction{
		Kind:    cmd.Kind,
		SubKind: cmd.SubKind,
		Amount:  cmd.Amount,
		Account: cmd.source(),
		Comment: cmd.Comment,
	}
	if tx.SubKind == "" {
		tx.SubKind = SubKindRegular
		if prev != nil && prev.Kind == cmd.Kind {
			tx.SubKind = prev.SubKind
		}
	}
	if !tx.SubKind.Valid() {
		return Transaction{}, invalid("subKind", "unknown subkind %q", tx.SubKind)
	}

	if prev != nil {
		tx.ID = prev.ID
		tx.Timestamp = prev.Timestamp
	} else {
		id, err := p.assignID(st, cmd.ID)
		if err != nil {
			return Transaction{}, err
		}
		ts, err := resolveTimestamp(cmd.Date, p.clock())
		if err != nil {
			return Transaction{}, err
		}
		tx.ID, tx.Timestamp = id, ts
	}

	// References already on the record being edited stay valid even if
	// they were since removed from the lists. A removed account can still
	// not change balance: Apply rejects any nonzero delta on it.
	keeps := func(value string, pick func(Transaction) string) bool {
		return prev != nil && value == pick(*prev)
	}

	if tx.Account == "" {
		return Transaction{}, invalid("account", "required")
	}
	if !st.HasAccount(tx.Account) && !keeps(tx.Account, func(t Transaction) string { return t.Account }) {
		return Transaction{}, invalid("account", "unknown account %q", tx.Account)
	}
	person := func(required bool) error {
		if cmd.Person == "" && prev != nil && prev.Kind == cmd.Kind && tx.SubKind == SubKindSettlement {
			cmd.Person = prev.Counterparty
		}
		switch {
		case cmd.Person == "" && required:
			return invalid("person", "required for %s", cmd.Kind)
		case cmd.Person == "":
			return nil
		case tx.SubKind == SubKindSettlement:
		case !st.HasPerson(cmd.Person) && !keeps(cmd.Person, func(t Transaction) string { return t.Counterparty }):
			return invalid("person", "unknown person %q", cmd.Person)
		}
		tx.Counterparty = cmd.Person
		return nil
	}

	switch cmd.Kind {
	case KindDeposit:
		if err := person(tx.SubKind == SubKindSettlement); err != nil {
			return Transaction{}, err
		}

	case KindExpense:
		if tx.SubKind == SubKindSettlement {
			if err := person(true); err != nil {
				return Transaction{}, err
			}
			break
		}
		if cmd.Category == "" {
			return Transaction{}, invalid("category", "required for expense")
		}
		if !st.HasCategory(cmd.Category) && !keeps(cmd.Category, func(t Transaction) string { return t.Category }) {
			return Transaction{}, invalid("category", "unknown category %q", cmd.Category)
		}
		tx.Category = cmd.Category

	case KindGiveLoan, KindGetLoan:
		if err := person(true); err != nil {
			return Transaction{}, err
		}

	case KindTransfer:
		if tx.SubKind == SubKindSettlement {
			return Transaction{}, invalid("subKind", "transfers cannot be settlements")
		}
		if err := checkAmount("fee", cmd.Fee, true); err != nil {
			return Transaction{}, err
		}
		if cmd.ToAccount == "" {
			return Transaction{}, invalid("toAccount", "required")
		}
		if cmd.ToAccount == tx.Account {
			return Transaction{}, invalid("toAccount", "must differ from source account")
		}
		if !st.HasAccount(cmd.ToAccount) && !keeps(cmd.ToAccount, func(t Transaction) string { return t.ToAccount }) {
			return Transaction{}, invalid("toAccount", "unknown account %q", cmd.ToAccount)
		}
		net := cmd.Amount
		tx.Amount = cmd.Amount.Add(cmd.Fee)
		tx.NetAmount = &net
		tx.ToAccount = cmd.ToAccount
	}

	tx.Title = tx.Label()
	return tx, nil
}

func (p *Processor) buildSettlement(st *State, cmd SettleCommand) (Transaction, error) {
	if !cmd.Kind.Valid() {
		return Transaction{}, invalid("kind", "expected %q or %q, got %q", LoanInLoan, LoanLiability, cmd.Kind)
	}
	if err := checkAmount("amount", cmd.Amount, false); err != nil {
		return Transaction{}, err
	}
	if cmd.Account == "" {
		return Transaction{}, invalid("account", "required")
	}
	if !st.HasAccount(cmd.Account) {
		return Transaction{}, invalid("account", "unknown account %q", cmd.Account)
	}
	outstanding, owes := st.bucket(cmd.Kind.bucket())[cmd.Person]
	if cmd.Person == "" || (!owes && !st.HasPerson(cmd.Person)) {
		return Transaction{}, &NotFoundError{What: "person", Key: cmd.Person}
	}
	if cmd.Kind == LoanLiability {
		if balance := st.Accounts[cmd.Account]; balance.LessThan(cmd.Amount) {
			return Transaction{}, &InsufficientFundsError{Account: cmd.Account, Available: balance, Requested: cmd.Amount}
		}
	}
	if cmd.Amount.GreaterThan(outstanding) {
		return Transaction{}, &OverSettlementError{Person: cmd.Person, Outstanding: outstanding, Requested: cmd.Amount}
	}

	id, err := p.assignID(st, 0)
	if err != nil {
		return Transaction{}, err
	}
	ts, err := resolveTimestamp(cmd.Date, p.clock())
	if err != nil {
		return Transaction{}, err
	}
	tx := Transaction{
		ID:           id,
		Timestamp:    ts,
		Kind:         KindDeposit,
		SubKind:      SubKindSettlement,
		Amount:       cmd.Amount,
		Account:      cmd.Account,
		Counterparty: cmd.Person,
		Comment:      cmd.Comment,
	}
	if cmd.Kind == LoanLiability {
		tx.Kind = KindExpense
	}
	tx.Title = tx.Label()
	return tx, nil
}

// assignID validates a caller supplied id or draws a fresh one.
func (p *Processor) assignID(st *State, requested int) (int, error) {
	if requested != 0 {
		if requested < 0 {
			return 0, invalid("id", "must be positive")
		}
		if st.Find(requested) >= 0 {
			return 0, invalid("id", "transaction %d already exists", requested)
		}
		return requested, nil
	}
	for range maxIDAttempts {
		if id := p.ids.NextID(); id > 0 && st.Find(id) < 0 {
			return id, nil
		}
	}
	return 0, fmt.Errorf("no free transaction id after %d attempts", maxIDAttempts)
}

package ledger

import (
	"slices"
	"strings"
)

// DefaultAccount is the account every ledger starts with and that can
// never be removed.
const DefaultAccount = "Cash"

// =============================================================================
// BALANCES - The three mutable buckets
// =============================================================================

// Balances holds account balances and person balances. Person balances are
// always positive; a person with nothing outstanding has no entry.
type Balances struct {
	Accounts   map[string]Amount `json:"accounts" yaml:"accounts"`
	OwedToUser map[string]Amount `json:"inLoan" yaml:"inLoan"`
	OwedByUser map[string]Amount `json:"liabilities" yaml:"liabilities"`
}

func (b Balances) bucket(k Bucket) map[string]Amount {
	switch k {
	case BucketAccount:
		return b.Accounts
	case BucketOwedToUser:
		return b.OwedToUser
	case BucketOwedByUser:
		return b.OwedByUser
	}
	return nil
}

// Outstanding returns the balance owed to (in-loan) or by (liability) the
// user for person. Absent means zero.
func (b Balances) Outstanding(k Bucket, person string) Amount {
	return b.bucket(k)[person]
}

// adjustLoan is the only writer of person balances. Results at or below
// zero remove the entry.
func adjustLoan(m map[string]Amount, person string, delta Amount) {
	next := m[person].Add(delta)
	if !next.IsPositive() {
		delete(m, person)
		return
	}
	m[person] = next
}

func (b Balances) clone() Balances {
	return Balances{
		Accounts:   cloneAmounts(b.Accounts),
		OwedToUser: cloneAmounts(b.OwedToUser),
		OwedByUser: cloneAmounts(b.OwedByUser),
	}
}

func cloneAmounts(m map[string]Amount) map[string]Amount {
	out := make(map[string]Amount, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// =============================================================================
// STATE - Everything the store persists
// =============================================================================

type Goal struct {
	Name          string `json:"name" yaml:"name"`
	Target        Amount `json:"target" yaml:"target"`
	LinkedAccount string `json:"linkedAccount" yaml:"linkedAccount"`
}

type State struct {
	Balances     `yaml:",inline"`
	People       []string      `json:"people" yaml:"people"`
	Categories   []string      `json:"categories" yaml:"categories"`
	Goal         Goal          `json:"goal" yaml:"goal"`
	Transactions []Transaction `json:"transactions" yaml:"transactions"`
}

// DefaultState returns the ledger a new user starts with.
func DefaultState() *State {
	return &State{
		Balances: Balances{
			Accounts: map[string]Amount{
				DefaultAccount: {},
				"bKash":        {},
				"Nagad":        {},
				"Rocket":       {},
			},
			OwedToUser: map[string]Amount{},
			OwedByUser: map[string]Amount{},
		},
		People:       []string{"Friend", "Family", "Employer"},
		Categories:   []string{"Food", "Transport", "Bills", "Shopping", "Entertainment", "Health"},
		Goal:         Goal{Name: "Emergency Fund", Target: NewAmount(10000), LinkedAccount: DefaultAccount},
		Transactions: []Transaction{},
	}
}

// Clone returns a deep copy. Readers outside the processor only ever see
// clones.
func (s *State) Clone() *State {
	c := &State{
		Balances:     s.Balances.clone(),
		People:       slices.Clone(s.People),
		Categories:   slices.Clone(s.Categories),
		Goal:         s.Goal,
		Transactions: make([]Transaction, len(s.Transactions)),
	}
	for i, tx := range s.Transactions {
		c.Transactions[i] = tx.clone()
	}
	return c
}

// Normalize repairs decoded state: nil collections become empty, person
// balances that are not positive are dropped, and legacy transactions are
// upgraded to carry structured fields.
func (s *State) Normalize() {
	if s.Accounts == nil {
		s.Accounts = map[string]Amount{}
	}
	if s.OwedToUser == nil {
		s.OwedToUser = map[string]Amount{}
	}
	if s.OwedByUser == nil {
		s.OwedByUser = map[string]Amount{}
	}
	for _, m := range []map[string]Amount{s.OwedToUser, s.OwedByUser} {
		for p, v := range m {
			if !v.IsPositive() {
				delete(m, p)
			}
		}
	}
	if s.People == nil {
		s.People = []string{}
	}
	if s.Categories == nil {
		s.Categories = []string{}
	}
	if s.Transactions == nil {
		s.Transactions = []Transaction{}
	}
	for i := range s.Transactions {
		UpgradeLegacy(&s.Transactions[i])
	}
}

// AccountNames returns account names with the default account first and
// the rest in lexical order.
func (s *State) AccountNames() []string {
	names := make([]string, 0, len(s.Accounts))
	for name := range s.Accounts {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		switch {
		case a == DefaultAccount:
			return -1
		case b == DefaultAccount:
			return 1
		}
		return strings.Compare(a, b)
	})
	return names
}

func (s *State) HasAccount(name string) bool {
	_, ok := s.Accounts[name]
	return ok
}

func (s *State) HasPerson(name string) bool {
	return slices.Contains(s.People, name)
}

func (s *State) HasCategory(name string) bool {
	return slices.Contains(s.Categories, name)
}

// Find returns the index of the transaction with id, or -1.
func (s *State) Find(id int) int {
	return slices.IndexFunc(s.Transactions, func(tx Transaction) bool { return tx.ID == id })
}

// Transaction returns the transaction with id.
func (s *State) Transaction(id int) (Transaction, bool) {
	i := s.Find(id)
	if i < 0 {
		return Transaction{}, false
	}
	return s.Transactions[i].clone(), true
}

package assistant

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moneyflow/ledger-engine/ledger"
)

// DefaultProposalTTL is how long an unconfirmed proposal is kept.
const DefaultProposalTTL = 15 * time.Minute

// Proposal is an action waiting for the user's confirmation.
type Proposal struct {
	ID        string    `json:"id"`
	Action    Action    `json:"action"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ProposalBook holds pending proposals until they are confirmed, discarded
// or expire.
type ProposalBook struct {
	mu    sync.Mutex
	items map[string]Proposal
	ttl   time.Duration
	clock func() time.Time
}

func NewProposalBook(ttl time.Duration, clock func() time.Time) *ProposalBook {
	if ttl <= 0 {
		ttl = DefaultProposalTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &ProposalBook{items: make(map[string]Proposal), ttl: ttl, clock: clock}
}

// Add stores a and returns the new proposal.
func (b *ProposalBook) Add(a Action) Proposal {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prune()

	now := b.clock()
	p := Proposal{ID: uuid.NewString(), Action: a, CreatedAt: now, ExpiresAt: now.Add(b.ttl)}
	b.items[p.ID] = p
	return p
}

// Take removes and returns proposal id.
func (b *ProposalBook) Take(id string) (Proposal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prune()

	p, ok := b.items[id]
	if !ok {
		return Proposal{}, &ledger.NotFoundError{What: "proposal", Key: id}
	}
	delete(b.items, id)
	return p, nil
}

// Drop forgets proposal id and reports whether it was pending.
func (b *ProposalBook) Drop(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prune()

	_, ok := b.items[id]
	delete(b.items, id)
	return ok
}

func (b *ProposalBook) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prune()
	return len(b.items)
}

// prune drops expired proposals. Callers hold b.mu.
func (b *ProposalBook) prune() {
	now := b.clock()
	for id, p := range b.items {
		if !now.Before(p.ExpiresAt) {
			delete(b.items, id)
		}
	}
}
